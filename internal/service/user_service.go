package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/id"
	"hihitutor/internal/pkg/mongodb"
	"hihitutor/internal/pkg/password"
	"hihitutor/internal/pkg/validate"
	authRepo "hihitutor/internal/repository/auth"
)

// UserService 用户管理：查询、修改、停用、升级导师、机构审核
type UserService struct {
	users    UserStore
	profiles ProfileStore
	cases    CaseStore
	tokens   RefreshTokenStore
	uploads  *UploadService
	codes    codeAllocator
}

// NewUserService 创建用户服务
func NewUserService(users UserStore, profiles ProfileStore, cases CaseStore, tokens RefreshTokenStore, uploads *UploadService) *UserService {
	return &UserService{
		users:    users,
		profiles: profiles,
		cases:    cases,
		tokens:   tokens,
		uploads:  uploads,
		codes:    codeAllocator{users: users},
	}
}

func (s *UserService) load(ctx context.Context, userID string) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to find user")
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// ListUsersInput 用户列表参数
type ListUsersInput struct {
	UserType auth.UserType   `form:"userType" validate:"omitempty,oneof=individual organization"`
	Tag      string          `form:"tag"`
	Status   auth.UserStatus `form:"status" validate:"omitempty,oneof=active inactive"`
	Page     int64           `form:"page" validate:"omitempty,min=1"`
	PageSize int64           `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ListUsersResult 用户列表
type ListUsersResult struct {
	Users    []*auth.User `json:"users"`
	Total    int64        `json:"total"`
	Page     int64        `json:"page"`
	PageSize int64        `json:"pageSize"`
}

// List 用户列表，仅管理员
func (s *UserService) List(ctx context.Context, actor *auth.Actor, in *ListUsersInput) (*ListUsersResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = 20
	}

	filter := authRepo.UserFilter{UserType: in.UserType, Tag: in.Tag, Status: in.Status}
	users, total, err := s.users.List(ctx, filter, in.Page, in.PageSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return nil, apperr.Internal(err)
	}
	if users == nil {
		users = []*auth.User{}
	}
	return &ListUsersResult{Users: users, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}

// Get 查看用户，本人或管理员
func (s *UserService) Get(ctx context.Context, actor *auth.Actor, userID string) (*auth.User, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	return s.load(ctx, userID)
}

// Me 当前用户
func (s *UserService) Me(ctx context.Context, actor *auth.Actor) (*auth.User, error) {
	return s.load(ctx, actor.UserID)
}

// UpdateUserInput 修改用户参数，nil 表示不修改
// Tags / Status 仅管理员可修改
type UpdateUserInput struct {
	Name            *string          `json:"name" validate:"omitempty,notblank,max=50"`
	Birthdate       *string          `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Guardian        *auth.Guardian   `json:"guardian"`
	InstitutionName *string          `json:"institutionName" validate:"omitempty,max=100"`
	Tags            []string         `json:"tags"`
	Status          *auth.UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// Update 修改用户信息
// 标签变化导致前缀变化时重新分配 userCode
func (s *UserService) Update(ctx context.Context, actor *auth.Actor, userID string, in *UpdateUserInput) (*auth.User, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	if !actor.IsAdmin() && (in.Tags != nil || in.Status != nil) {
		return nil, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Birthdate != nil {
		if user.Birthdate, err = parseDate(*in.Birthdate); err != nil {
			return nil, err
		}
	}
	if in.Guardian != nil {
		user.Guardian = in.Guardian
	}
	if in.InstitutionName != nil && user.UserType == auth.UserTypeOrganization {
		user.InstitutionName = strings.TrimSpace(*in.InstitutionName)
	}
	deactivated := false
	if in.Status != nil {
		deactivated = user.Status == auth.UserStatusActive && *in.Status == auth.UserStatusInactive
		user.Status = *in.Status
	}

	save := func(ctx context.Context) error {
		if err := s.users.Replace(ctx, user); err != nil {
			return err
		}
		if deactivated {
			s.unpublish(ctx, user.ID)
		}
		return nil
	}

	if in.Tags != nil {
		tags := auth.NormalizeTags(in.Tags)
		if len(tags) == 0 {
			return nil, ErrInvalidInput.WithFields(apperr.FieldError{Field: "tags", Message: "tags不能为空"})
		}
		user.Tags = tags
		if prefix := auth.CodePrefixForTags(tags); prefix != user.CodePrefix() {
			if err := s.codes.assign(ctx, user, prefix, save); err != nil {
				return nil, userWriteError(err)
			}
			return user, nil
		}
	}

	if err := save(ctx); err != nil {
		return nil, userWriteError(err)
	}
	return user, nil
}

// DeactivateResult 停用结果
type DeactivateResult struct {
	Deleted bool `json:"deleted"` // true: 管理员删除；false: 本人停用
}

// Deactivate 管理员可删除任何账号；普通用户只能停用自己的账号
// 停用后记录保留，邮箱/电话可以重新注册
func (s *UserService) Deactivate(ctx context.Context, actor *auth.Actor, userID string) (*DeactivateResult, error) {
	if actor.IsAdmin() {
		if err := s.hardDelete(ctx, userID); err != nil {
			return nil, err
		}
		return &DeactivateResult{Deleted: true}, nil
	}
	if !actor.IsSelf(userID) {
		return nil, ErrForbidden
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Status = auth.UserStatusInactive
	if user.UserCode == "" {
		user.UserCode = LegacyUserCode(user)
	}
	if err := s.users.Replace(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke refresh tokens")
	}
	s.unpublish(ctx, userID)

	log.Info().Str("user_id", userID).Msg("user deactivated")
	return &DeactivateResult{Deleted: false}, nil
}

// unpublish 停用账号不再公开导师资料，重新注册后需再次审批
func (s *UserService) unpublish(ctx context.Context, userID string) {
	if err := s.profiles.Unpublish(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to unpublish profile")
	}
}

func (s *UserService) hardDelete(ctx context.Context, userID string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to delete user")
		return apperr.Internal(err)
	}
	if err := s.profiles.DeleteByUserID(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to delete user profile")
	}
	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke refresh tokens")
	}
	removedCases, err := s.cases.DeleteByOwner(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to delete user cases")
	}
	// 机构文件归属可能未写入，先按引用删除，其余按 owner 清理
	s.uploads.Remove(ctx, user.OrganizationDocs.Refs()...)
	removedFiles := s.uploads.RemoveOwned(ctx, userID)

	log.Info().
		Str("user_id", userID).
		Int64("cases", removedCases).
		Int("files", removedFiles).
		Msg("user deleted")
	return nil
}

// UpgradeToTutor 个人用户升级为导师，已是导师时直接返回
func (s *UserService) UpgradeToTutor(ctx context.Context, actor *auth.Actor) (*auth.User, error) {
	user, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user.UserType != auth.UserTypeIndividual {
		return nil, ErrNotIndividual
	}
	if user.HasTag(auth.TagTutor) {
		return user, nil
	}

	user.Tags = append(auth.NormalizeTags(user.Tags), auth.TagTutor)
	prefix := auth.CodePrefixForTags(user.Tags)
	save := func(ctx context.Context) error { return s.users.Replace(ctx, user) }

	if prefix == user.CodePrefix() {
		err = save(ctx)
	} else {
		err = s.codes.assign(ctx, user, prefix, save)
	}
	if err != nil {
		return nil, userWriteError(err)
	}

	log.Info().Str("user_id", user.ID).Str("user_code", user.UserCode).Msg("user upgraded to tutor")
	return user, nil
}

// SetOrganizationStatus 管理员审核机构账号
func (s *UserService) SetOrganizationStatus(ctx context.Context, actor *auth.Actor, userID string, status auth.OrgStatus) (*auth.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !status.IsValid() {
		return nil, ErrInvalidInput.WithFields(apperr.FieldError{Field: "orgStatus", Message: "orgStatus必须是pending、approved或rejected"})
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.UserType != auth.UserTypeOrganization {
		return nil, ErrNotOrganization
	}

	user.OrgStatus = status
	if err := s.users.Replace(ctx, user); err != nil {
		return nil, userWriteError(err)
	}
	return user, nil
}

// DocumentLink 机构文件下载链接
type DocumentLink struct {
	Field       string `json:"field"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

// documentLinkExpiry 文件链接有效期
const documentLinkExpiry = 15 * time.Minute

// Documents 机构文件的限时下载链接，本人或管理员
func (s *UserService) Documents(ctx context.Context, actor *auth.Actor, userID string) ([]DocumentLink, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	docs := user.OrganizationDocs
	links := []DocumentLink{}
	if docs == nil {
		return links, nil
	}
	for _, d := range []struct {
		field string
		ref   *auth.FileRef
	}{
		{"br", docs.BusinessRegistration},
		{"cr", docs.CR},
		{"addressProof", docs.AddressProof},
	} {
		if d.ref == nil || d.ref.Key == "" {
			continue
		}
		url, err := s.uploads.DownloadURL(ctx, d.ref.Key, documentLinkExpiry)
		if err != nil {
			return nil, err
		}
		links = append(links, DocumentLink{Field: d.field, URL: url, ContentType: d.ref.ContentType})
	}
	return links, nil
}

// EnsureAdminInput 初始化管理员参数
type EnsureAdminInput struct {
	Name     string `validate:"notblank,max=50"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"required,hkphone"`
	Password string `validate:"required,password"`
}

// EnsureAdmin 创建管理员；邮箱已被 active 用户使用时把该用户提升为管理员并重设密码
// 返回的 bool 表示是否新建
func (s *UserService) EnsureAdmin(ctx context.Context, in *EnsureAdminInput) (*auth.User, bool, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validate.Struct(in); err != nil {
		return nil, false, err
	}
	hashed, err := password.Hash(in.Password)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}

	user, err := s.users.FindActiveByEmail(ctx, in.Email)
	created := false
	save := s.users.Replace
	switch {
	case err == nil:
		if !user.HasTag(auth.TagAdmin) {
			user.Tags = append([]string{auth.TagAdmin}, auth.NormalizeTags(user.Tags)...)
		}
	case mongodb.IsNotFound(err):
		created, save = true, s.users.Create
		user = &auth.User{
			ID:       id.New(),
			Name:     strings.TrimSpace(in.Name),
			Email:    in.Email,
			Phone:    in.Phone,
			UserType: auth.UserTypeIndividual,
			Tags:     []string{auth.TagAdmin},
		}
	default:
		return nil, false, apperr.Internal(err)
	}
	user.Password = hashed
	user.Status = auth.UserStatusActive

	saveUser := func(ctx context.Context) error { return save(ctx, user) }
	if user.CodePrefix() == auth.CodePrefixAdmin {
		err = saveUser(ctx)
	} else {
		err = s.codes.assign(ctx, user, auth.CodePrefixAdmin, saveUser)
	}
	if err != nil {
		return nil, false, userWriteError(err)
	}

	log.Info().Str("user_id", user.ID).Str("user_code", user.UserCode).Bool("created", created).Msg("admin ensured")
	return user, created, nil
}
