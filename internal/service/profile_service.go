package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/profile"
	uploadModel "hihitutor/internal/model/upload"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/metrics"
	"hihitutor/internal/pkg/mongodb"
	"hihitutor/internal/pkg/notify"
	"hihitutor/internal/pkg/upload"
	"hihitutor/internal/pkg/validate"
	authRepo "hihitutor/internal/repository/auth"
	profileRepo "hihitutor/internal/repository/profile"
)

// submissionForbiddenKeys 资料提交中不允许出现的身份字段
var submissionForbiddenKeys = []string{"email", "phone", "_id", "id", "password", "user", "userId"}

// ProfileOptions 资料服务配置
type ProfileOptions struct {
	AvatarMaxSize      int64
	CertificateMaxSize int64
	MaxCertificates    int
}

// ProfileService 导师资料提交与审批
type ProfileService struct {
	profiles  ProfileStore
	users     UserStore
	uploads   *UploadService
	tx        mongodb.TxRunner
	mailer    notify.EmailSender
	codes     codeAllocator
	avatarPol upload.Policy
	certPol   upload.Policy
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewProfileService 创建资料服务
func NewProfileService(
	profiles ProfileStore,
	users UserStore,
	uploads *UploadService,
	tx mongodb.TxRunner,
	mailer notify.EmailSender,
	opts ProfileOptions,
	m *metrics.Metrics,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		users:     users,
		uploads:   uploads,
		tx:        tx,
		mailer:    mailer,
		codes:     codeAllocator{users: users},
		avatarPol: upload.AvatarPolicy(opts.AvatarMaxSize),
		certPol:   upload.CertificatePolicy(opts.CertificateMaxSize, opts.MaxCertificates),
		metrics:   m,
		now:       time.Now,
	}
}

// SubmitInput 资料内容
type SubmitInput struct {
	FullName       string         `json:"fullName" validate:"notblank,max=50"`
	Gender         profile.Gender `json:"gender" validate:"omitempty,oneof=男 女 其他"`
	ProfileImage   string         `json:"profileImage" validate:"max=500"`
	IdentityNumber string         `json:"identityNumber" validate:"max=20"`
	Education      string         `json:"education" validate:"max=1000"`
	Experience     string         `json:"experience" validate:"max=1000"`
	Certifications []string       `json:"certifications" validate:"max=20,dive,notblank"`
	SelfIntro      string         `json:"selfIntro" validate:"max=1000"`
}

// ParseSubmission 解析提交内容，包含身份字段时整体拒绝
func ParseSubmission(raw []byte) (*SubmitInput, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	var fields []apperr.FieldError
	for _, k := range submissionForbiddenKeys {
		if _, ok := keys[k]; ok {
			fields = append(fields, apperr.FieldError{Field: k, Message: k + "不允许通过资料提交修改"})
		}
	}
	if len(fields) > 0 {
		return nil, ErrForbiddenField.WithFields(fields...)
	}

	var in SubmitInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	return &in, nil
}

// submittedAt Mongo 时间精度为毫秒，审批时按提交时间做条件更新
func (s *ProfileService) submittedAt() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *ProfileService) loadUser(ctx context.Context, userID string) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *ProfileService) loadProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to find profile")
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// Submit 提交资料，整体替换 latestProfile，不影响已发布版本
func (s *ProfileService) Submit(ctx context.Context, actor *auth.Actor, userID string, in *SubmitInput) (*MyProfile, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	snap := &profile.Snapshot{
		FullName:       strings.TrimSpace(in.FullName),
		Gender:         in.Gender,
		ProfileImage:   in.ProfileImage,
		IdentityNumber: in.IdentityNumber,
		Education:      in.Education,
		Experience:     in.Experience,
		Certifications: slices.Clone(in.Certifications),
		SelfIntro:      in.SelfIntro,
		SubmittedAt:    s.submittedAt(),
	}
	return s.saveLatest(ctx, userID, snap)
}

func (s *ProfileService) saveLatest(ctx context.Context, userID string, snap *profile.Snapshot) (*MyProfile, error) {
	p, err := s.profiles.UpsertLatest(ctx, userID, snap)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to save profile")
		return nil, apperr.Internal(err)
	}
	return newMyProfile(p), nil
}

// editLatest 在当前 latestProfile 基础上修改后重新提交
func (s *ProfileService) editLatest(ctx context.Context, userID string, edit func(snap *profile.Snapshot)) (*MyProfile, error) {
	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.LatestProfile == nil {
		return nil, ErrProfileNotFound
	}
	snap := p.LatestProfile.Clone()
	edit(snap)
	snap.SubmittedAt = s.submittedAt()
	return s.saveLatest(ctx, userID, snap)
}

// UploadAvatar 上传头像并写入 latestProfile.profileImage
func (s *ProfileService) UploadAvatar(ctx context.Context, actor *auth.Actor, userID string, in *FileInput) (*MyProfile, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	f, err := checkFile(s.avatarPol, "avatar", in)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadProfile(ctx, userID); err != nil {
		return nil, err
	}

	ref, err := s.uploads.Store(ctx, userID, uploadModel.PurposeAvatar, f)
	if err != nil {
		return nil, err
	}
	result, err := s.editLatest(ctx, userID, func(snap *profile.Snapshot) {
		snap.ProfileImage = ref.URL
	})
	if err != nil {
		s.uploads.Remove(ctx, ref)
		return nil, err
	}
	return result, nil
}

// UploadCertificates 上传证书并追加到 latestProfile.certifications
func (s *ProfileService) UploadCertificates(ctx context.Context, actor *auth.Actor, userID string, ins []*FileInput) (*MyProfile, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	if len(ins) == 0 {
		return nil, ErrInvalidFile.WithFields(apperr.FieldError{Field: "certificates", Message: upload.ErrEmptyFile.Error()})
	}
	if s.certPol.MaxFiles > 0 && len(ins) > s.certPol.MaxFiles {
		return nil, ErrInvalidFile.WithFields(apperr.FieldError{Field: "certificates", Message: upload.ErrTooManyFiles.Error()})
	}

	files := make([]*upload.File, 0, len(ins))
	for _, in := range ins {
		f, err := checkFile(s.certPol, "certificates", in)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if _, err := s.loadProfile(ctx, userID); err != nil {
		return nil, err
	}

	refs := make([]*auth.FileRef, 0, len(files))
	for _, f := range files {
		ref, err := s.uploads.Store(ctx, userID, uploadModel.PurposeCertificate, f)
		if err != nil {
			s.uploads.Remove(ctx, refs...)
			return nil, err
		}
		refs = append(refs, ref)
	}

	result, err := s.editLatest(ctx, userID, func(snap *profile.Snapshot) {
		for _, ref := range refs {
			snap.Certifications = append(snap.Certifications, ref.URL)
		}
	})
	if err != nil {
		s.uploads.Remove(ctx, refs...)
		return nil, err
	}
	return result, nil
}

// Approve 发布 latestProfile
// 同一事务内：approvedProfile := latestProfile；默认编号的用户升级为导师（加 tutor 标签、T- 编号）
// 重复审批同一版本结果不变
func (s *ProfileService) Approve(ctx context.Context, actor *auth.Actor, userID string) (*MyProfile, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.LatestProfile == nil {
		return nil, ErrProfileNotFound
	}
	snap := p.LatestProfile

	var user *auth.User
	for attempt := 0; ; attempt++ {
		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			var txErr error
			user, txErr = s.approveOnce(ctx, actor, userID, snap)
			return txErr
		})
		if !errors.Is(err, authRepo.ErrDuplicateUserCode) || attempt+1 >= maxCodeAttempts {
			break
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, profileRepo.ErrStaleSnapshot):
			return nil, ErrProfileChanged
		case errors.Is(err, authRepo.ErrDuplicateUserCode):
			return nil, apperr.Internal(errCodeExhausted)
		}
		return nil, userWriteError(err)
	}

	s.metrics.ProfileReview("approved")
	log.Info().Str("user_id", userID).Str("reviewer", actor.UserID).Str("user_code", user.UserCode).Msg("profile approved")
	s.sendEmail(ctx, notify.ProfileReviewedEmail(user.Email, user.Name, true, ""))

	p, err = s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newMyProfile(p), nil
}

// approveOnce 事务体；不支持事务时顺序执行，每一步重复执行结果相同
func (s *ProfileService) approveOnce(ctx context.Context, actor *auth.Actor, userID string, snap *profile.Snapshot) (*auth.User, error) {
	if err := s.profiles.Approve(ctx, userID, snap, actor.UserID); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.TutorCertificates = slices.Clone(snap.Certifications)

	if !hasDefaultCode(user) {
		return user, s.users.Replace(ctx, user)
	}

	if !user.HasTag(auth.TagTutor) {
		user.Tags = append(auth.NormalizeTags(user.Tags), auth.TagTutor)
	}
	code, err := s.codes.next(ctx, auth.CodePrefixTutor)
	if err != nil {
		return nil, err
	}
	user.UserCode = code
	return user, s.users.Replace(ctx, user)
}

// hasDefaultCode userCode 为默认前缀或缺失
func hasDefaultCode(u *auth.User) bool {
	prefix := u.CodePrefix()
	return prefix == "" || prefix == auth.CodePrefixUser
}

// RejectInput 驳回参数
type RejectInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Reject 驳回资料，已发布版本保持不变
func (s *ProfileService) Reject(ctx context.Context, actor *auth.Actor, userID string, in *RejectInput) (*MyProfile, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(in.Reason)
	if err := s.profiles.Reject(ctx, userID, reason, actor.UserID); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to reject profile")
		return nil, apperr.Internal(err)
	}

	s.metrics.ProfileReview("rejected")
	if user, err := s.loadUser(ctx, userID); err == nil {
		s.sendEmail(ctx, notify.ProfileReviewedEmail(user.Email, user.Name, false, reason))
	}

	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newMyProfile(p), nil
}

// UserSummary 审批列表中的用户信息
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserCode  string    `json:"userCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileReviewItem 审批列表项
type ProfileReviewItem struct {
	*profile.UserProfile
	HasPendingProfile bool         `json:"hasPendingProfile"`
	User              *UserSummary `json:"user,omitempty"`
}

// ListAll 所有资料及用户信息，有待审内容的排在前面
func (s *ProfileService) ListAll(ctx context.Context, actor *auth.Actor) ([]*ProfileReviewItem, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list profiles")
		return nil, apperr.Internal(err)
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("failed to find profile users")
		return nil, apperr.Internal(err)
	}
	byID := make(map[string]*auth.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	items := make([]*ProfileReviewItem, 0, len(profiles))
	for _, p := range profiles {
		item := &ProfileReviewItem{UserProfile: p, HasPendingProfile: p.HasPendingProfile()}
		if u, ok := byID[p.UserID]; ok {
			item.User = &UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, UserCode: u.UserCode, CreatedAt: u.CreatedAt}
		}
		items = append(items, item)
	}
	slices.SortStableFunc(items, func(a, b *ProfileReviewItem) int {
		switch {
		case a.HasPendingProfile == b.HasPendingProfile:
			return 0
		case a.HasPendingProfile:
			return -1
		default:
			return 1
		}
	})
	return items, nil
}

// GetApproved 公开资料；没有已发布版本或账号已停用时一律返回不存在
func (s *ProfileService) GetApproved(ctx context.Context, userID string) (*profile.Snapshot, error) {
	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.ApprovedProfile == nil {
		return nil, ErrProfileNotFound
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if user.Status != auth.UserStatusActive {
		return nil, ErrProfileNotFound
	}
	return p.ApprovedProfile.Public(), nil
}

// TutorListing 公开导师列表项
type TutorListing struct {
	UserID   string            `json:"userId"`
	UserCode string            `json:"userCode"`
	Name     string            `json:"name"`
	Role     auth.Role         `json:"role"`
	Profile  *profile.Snapshot `json:"profile"`
}

// ListTutors 已发布资料的 active 用户，最近审批的在前
func (s *ProfileService) ListTutors(ctx context.Context) ([]*TutorListing, error) {
	profiles, err := s.profiles.ListApproved(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list approved profiles")
		return nil, apperr.Internal(err)
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("failed to find tutor users")
		return nil, apperr.Internal(err)
	}
	byID := make(map[string]*auth.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]*TutorListing, 0, len(profiles))
	for _, p := range profiles {
		u, ok := byID[p.UserID]
		if !ok || u.Status != auth.UserStatusActive {
			continue
		}
		role, _ := auth.DeriveRole(u.Tags)
		out = append(out, &TutorListing{
			UserID:   u.ID,
			UserCode: u.UserCode,
			Name:     u.Name,
			Role:     role,
			Profile:  p.ApprovedProfile.Public(),
		})
	}
	return out, nil
}

// MyProfile 本人查看的资料
type MyProfile struct {
	UserID            string            `json:"userId"`
	LatestProfile     *profile.Snapshot `json:"latestProfile"`
	ApprovedProfile   *profile.Snapshot `json:"approvedProfile,omitempty"`
	ProfileStatus     profile.Status    `json:"profileStatus"`
	RejectReason      string            `json:"rejectReason,omitempty"`
	HasPendingProfile bool              `json:"hasPendingProfile"`
}

func newMyProfile(p *profile.UserProfile) *MyProfile {
	return &MyProfile{
		UserID:            p.UserID,
		LatestProfile:     p.LatestProfile,
		ApprovedProfile:   p.ApprovedProfile,
		ProfileStatus:     p.ProfileStatus,
		RejectReason:      p.RejectReason,
		HasPendingProfile: p.HasPendingProfile(),
	}
}

// GetMine 本人资料
func (s *ProfileService) GetMine(ctx context.Context, actor *auth.Actor) (*MyProfile, error) {
	p, err := s.loadProfile(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return newMyProfile(p), nil
}

func (s *ProfileService) sendEmail(ctx context.Context, msg notify.Message) {
	if s.mailer == nil || msg.To == "" {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to send email")
	}
}
