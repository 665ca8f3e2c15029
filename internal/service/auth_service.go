package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/model/auth"
	uploadModel "hihitutor/internal/model/upload"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/id"
	"hihitutor/internal/pkg/jwt"
	"hihitutor/internal/pkg/metrics"
	"hihitutor/internal/pkg/mongodb"
	"hihitutor/internal/pkg/notify"
	"hihitutor/internal/pkg/password"
	"hihitutor/internal/pkg/upload"
	"hihitutor/internal/pkg/validate"
	"hihitutor/internal/pkg/verification"
	authRepo "hihitutor/internal/repository/auth"
)

const dateLayout = "2006-01-02"

// AuthOptions 认证服务配置
type AuthOptions struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	DocumentMaxSize    int64
}

// AuthService 认证服务：注册、登录、Token、密码重设
type AuthService struct {
	users         UserStore
	tokens        RefreshTokenStore
	uploads       *UploadService
	verify        verification.Store
	mailer        notify.EmailSender
	tokenIssuer   *jwt.Issuer
	refreshExpiry time.Duration
	docPolicy     upload.Policy
	codes         codeAllocator
	metrics       *metrics.Metrics
}

// NewAuthService 创建认证服务
func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	uploads *UploadService,
	verify verification.Store,
	mailer notify.EmailSender,
	opts AuthOptions,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		uploads:       uploads,
		verify:        verify,
		mailer:        mailer,
		tokenIssuer:   jwt.NewIssuer(opts.JWTSecret, opts.AccessTokenExpiry),
		refreshExpiry: opts.RefreshTokenExpiry,
		docPolicy:     upload.DocumentPolicy(opts.DocumentMaxSize),
		codes:         codeAllocator{users: users},
		metrics:       m,
	}
}

// OrganizationFiles 机构注册需要的三份文件
type OrganizationFiles struct {
	BusinessRegistration *FileInput
	CR                   *FileInput
	AddressProof         *FileInput
}

// RegisterInput 注册参数
type RegisterInput struct {
	Name                       string         `json:"name" form:"name" validate:"notblank,max=50"`
	Email                      string         `json:"email" form:"email" validate:"required,email"`
	Phone                      string         `json:"phone" form:"phone" validate:"required,hkphone"`
	Password                   string         `json:"password" form:"password" validate:"required,password"`
	UserType                   auth.UserType  `json:"userType" form:"userType" validate:"required,oneof=individual organization"`
	Birthdate                  string         `json:"birthdate,omitempty" form:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Guardian                   *auth.Guardian `json:"guardian,omitempty" form:"-"`
	InstitutionName            string         `json:"institutionName,omitempty" form:"institutionName" validate:"max=100"`
	BusinessRegistrationNumber string         `json:"businessRegistrationNumber,omitempty" form:"businessRegistrationNumber" validate:"max=50"`

	Documents OrganizationFiles `json:"-" form:"-"`
}

// LoginResult 登录结果
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
	Role         auth.Role
	User         *auth.User
}

// Register 注册
// 顺序：参数 → 机构文件 → 电话已验证 → 邮箱/电话占用 → 写入（新建或重新激活）
func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	result, outcome, err := s.register(ctx, in)
	if err != nil {
		if outcome == "" {
			outcome = "rejected"
		}
		s.metrics.Registration(string(in.UserType), outcome)
		return nil, err
	}
	s.metrics.Registration(string(in.UserType), outcome)
	return result, nil
}

func (s *AuthService) register(ctx context.Context, in *RegisterInput) (*LoginResult, string, error) {
	if err := validate.Struct(in); err != nil {
		return nil, "", err
	}
	birthdate, err := parseDate(in.Birthdate)
	if err != nil {
		return nil, "", err
	}

	var docs map[string]*upload.File
	if in.UserType == auth.UserTypeOrganization {
		if docs, err = s.checkDocuments(&in.Documents); err != nil {
			return nil, "", err
		}
	}

	verified, err := s.verify.IsVerified(ctx, in.Phone)
	if err != nil {
		log.Error().Err(err).Msg("failed to check verified phone")
		return nil, "", apperr.Internal(err)
	}
	if !verified {
		return nil, "", ErrPhoneNotVerified
	}

	if err := s.ensureAvailable(ctx, in.Email, in.Phone); err != nil {
		return nil, "", err
	}

	inactive, err := s.users.FindInactiveByEmail(ctx, in.Email)
	if err != nil && !mongodb.IsNotFound(err) {
		log.Error().Err(err).Msg("failed to find inactive user")
		return nil, "", apperr.Internal(err)
	}

	hashed, err := password.Hash(in.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		return nil, "", apperr.Internal(err)
	}

	orgDocs, err := s.storeDocuments(ctx, docs)
	if err != nil {
		return nil, "", err
	}

	// 已验证状态只能用一次；写入失败时归还
	ok, err := s.verify.ConsumeVerified(ctx, in.Phone)
	if err != nil || !ok {
		s.uploads.Remove(ctx, orgDocs.Refs()...)
		if err != nil {
			log.Error().Err(err).Msg("failed to consume verified phone")
			return nil, "", apperr.Internal(err)
		}
		return nil, "", ErrPhoneNotVerified
	}

	user, outcome, err := s.persist(ctx, in, inactive, hashed, birthdate, orgDocs)
	if err != nil {
		if markErr := s.verify.MarkVerified(ctx, in.Phone); markErr != nil {
			log.Warn().Err(markErr).Msg("failed to restore verified phone")
		}
		s.uploads.Remove(ctx, orgDocs.Refs()...)
		return nil, "", err
	}
	s.uploads.Claim(ctx, user.ID, orgDocs.Refs()...)

	log.Info().Str("user_id", user.ID).Str("user_code", user.UserCode).Str("outcome", outcome).Msg("user registered")
	s.sendEmail(ctx, notify.WelcomeEmail(user.Email, user.Name, user.UserCode))

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, outcome, err
	}
	return result, outcome, nil
}

// ensureAvailable 邮箱或电话已被 active 用户占用时拒绝
func (s *AuthService) ensureAvailable(ctx context.Context, email, phone string) error {
	if _, err := s.users.FindActiveByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !mongodb.IsNotFound(err) {
		log.Error().Err(err).Msg("failed to find user by email")
		return apperr.Internal(err)
	}
	if _, err := s.users.FindActiveByPhone(ctx, phone); err == nil {
		return ErrPhoneTaken
	} else if !mongodb.IsNotFound(err) {
		log.Error().Err(err).Msg("failed to find user by phone")
		return apperr.Internal(err)
	}
	return nil
}

// persist 重新激活同邮箱的停用账号，或创建新账号
func (s *AuthService) persist(
	ctx context.Context,
	in *RegisterInput,
	inactive *auth.User,
	hashed string,
	birthdate *time.Time,
	docs *auth.OrganizationDocs,
) (*auth.User, string, error) {
	user, outcome, save := inactive, "reactivated", s.users.Replace
	if user == nil {
		user, outcome, save = &auth.User{ID: id.New()}, "created", s.users.Create
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Email = in.Email
	user.Phone = in.Phone
	user.Password = hashed
	user.Birthdate = birthdate
	user.Guardian = in.Guardian
	user.UserType = in.UserType
	user.Tags = in.UserType.DefaultTags()
	user.Status = auth.UserStatusActive
	user.TutorCertificates = nil
	user.OrgStatus, user.OrganizationDocs = "", nil
	user.InstitutionName, user.BusinessRegistrationNumber = "", ""
	if in.UserType == auth.UserTypeOrganization {
		user.OrgStatus = auth.OrgStatusPending
		user.OrganizationDocs = docs
		user.InstitutionName = strings.TrimSpace(in.InstitutionName)
		user.BusinessRegistrationNumber = strings.TrimSpace(in.BusinessRegistrationNumber)
	}

	saveUser := func(ctx context.Context) error { return save(ctx, user) }

	var err error
	prefix := auth.CodePrefixForTags(user.Tags)
	if outcome == "reactivated" && user.CodePrefix() == prefix {
		err = saveUser(ctx)
	} else {
		err = s.codes.assign(ctx, user, prefix, saveUser)
	}
	if err != nil {
		return nil, "", userWriteError(err)
	}
	return user, outcome, nil
}

// userWriteError 唯一索引冲突转换为业务错误
func userWriteError(err error) error {
	switch {
	case errors.Is(err, authRepo.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, authRepo.ErrDuplicatePhone):
		return ErrPhoneTaken
	case mongodb.IsNotFound(err):
		return ErrUserNotFound
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	log.Error().Err(err).Msg("failed to save user")
	return apperr.Internal(err)
}

// checkDocuments 三份文件都必须存在并通过校验，任一失败整体失败
func (s *AuthService) checkDocuments(files *OrganizationFiles) (map[string]*upload.File, error) {
	inputs := map[string]*FileInput{
		"br":           files.BusinessRegistration,
		"cr":           files.CR,
		"addressProof": files.AddressProof,
	}
	var missing []apperr.FieldError
	for field, in := range inputs {
		if in == nil || in.Reader == nil {
			missing = append(missing, apperr.FieldError{Field: field, Message: "缺少文件"})
		}
	}
	if len(missing) > 0 {
		return nil, ErrMissingDocuments.WithFields(missing...)
	}

	checked := make(map[string]*upload.File, len(inputs))
	for field, in := range inputs {
		f, err := checkFile(s.docPolicy, field, in)
		if err != nil {
			return nil, err
		}
		checked[field] = f
	}
	return checked, nil
}

// storeDocuments 上传机构文件，失败时删除已上传部分
func (s *AuthService) storeDocuments(ctx context.Context, docs map[string]*upload.File) (*auth.OrganizationDocs, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := &auth.OrganizationDocs{}
	for field, f := range docs {
		ref, err := s.uploads.Store(ctx, "", uploadModel.PurposeOrganizationDoc, f)
		if err != nil {
			s.uploads.Remove(ctx, out.Refs()...)
			return nil, err
		}
		switch field {
		case "br":
			out.BusinessRegistration = ref
		case "cr":
			out.CR = ref
		case "addressProof":
			out.AddressProof = ref
		}
	}
	return out, nil
}

// Login 邮箱或电话登录
// 用户不存在与密码错误返回同样的错误
func (s *AuthService) Login(ctx context.Context, identifier, pwd string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || pwd == "" {
		return nil, ErrInvalidInput
	}

	var (
		user *auth.User
		err  error
	)
	if validate.IsEmail(identifier) {
		user, err = s.users.FindActiveByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.FindActiveByPhone(ctx, identifier)
	}
	if err != nil {
		if !mongodb.IsNotFound(err) {
			log.Error().Err(err).Msg("failed to find user")
			return nil, apperr.Internal(err)
		}
		password.VerifyDummy(pwd)
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(pwd, user.Password) {
		return nil, ErrInvalidCredentials
	}

	if err := checkOrganizationLogin(user); err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLoginAt(ctx, user.ID); err != nil {
		// 不影响登录流程
		log.Warn().Err(err).Msg("failed to update last login time")
	}
	return result, nil
}

// checkOrganizationLogin 机构账号需要文件齐全且已通过审核
func checkOrganizationLogin(user *auth.User) error {
	if user.UserType != auth.UserTypeOrganization {
		return nil
	}
	if !user.OrganizationDocs.Complete() {
		return ErrOrganizationDocsMissing
	}
	if user.OrgStatus != auth.OrgStatusApproved {
		return ErrOrganizationNotApproved
	}
	return nil
}

// issueTokens 签发 Access Token 与 Refresh Token，角色按当前标签计算
func (s *AuthService) issueTokens(ctx context.Context, user *auth.User) (*LoginResult, error) {
	role, _ := auth.DeriveRole(user.Tags)

	accessToken, err := s.accessToken(user, role)
	if err != nil {
		return nil, err
	}

	refreshTokenValue, err := jwt.NewRefreshToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refreshToken := &auth.RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken(refreshTokenValue),
		ExpiresAt: time.Now().Add(s.refreshExpiry),
	}
	if err := s.tokens.Create(ctx, refreshToken); err != nil {
		log.Error().Err(err).Msg("failed to create refresh token")
		return nil, apperr.Internal(err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenValue,
		ExpiresIn:    int(s.tokenIssuer.TTL().Seconds()),
		TokenType:    "Bearer",
		Role:         role,
		User:         user,
	}, nil
}

func (s *AuthService) accessToken(user *auth.User, role auth.Role) (string, error) {
	token, err := s.tokenIssuer.Issue(jwt.Subject{UserID: user.ID, UserCode: user.UserCode, Role: string(role)})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to generate access token")
		return "", apperr.Internal(err)
	}
	return token, nil
}

// RefreshTokenResult 刷新Token结果
type RefreshTokenResult struct {
	AccessToken string
	ExpiresIn   int
	TokenType   string
}

// RefreshToken 用 Refresh Token 换新的 Access Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenValue string) (*RefreshTokenResult, error) {
	hash := auth.HashRefreshToken(refreshTokenValue)
	refreshToken, err := s.tokens.FindByHash(ctx, hash)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Internal(err)
	}

	if refreshToken.IsExpired(time.Now()) {
		_ = s.tokens.DeleteByHash(ctx, hash)
		return nil, ErrExpiredToken
	}

	user, err := s.users.FindByID(ctx, refreshToken.UserID)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Internal(err)
	}
	if user.Status != auth.UserStatusActive {
		return nil, ErrUserInactive
	}

	role, _ := auth.DeriveRole(user.Tags)
	accessToken, err := s.accessToken(user, role)
	if err != nil {
		return nil, err
	}

	return &RefreshTokenResult{
		AccessToken: accessToken,
		ExpiresIn:   int(s.tokenIssuer.TTL().Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// Logout 删除 Refresh Token
func (s *AuthService) Logout(ctx context.Context, refreshTokenValue string) error {
	if err := s.tokens.DeleteByHash(ctx, auth.HashRefreshToken(refreshTokenValue)); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Authenticate 校验 Access Token 并读取最新的用户记录
// Token 中的角色不参与权限判断
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*auth.User, error) {
	claims, err := s.tokenIssuer.Parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Internal(err)
	}
	if user.Status != auth.UserStatusActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// CheckEmail 邮箱是否可用（没有 active 用户使用）
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var("email", email, "required,email"); err != nil {
		return false, err
	}
	return available(s.users.FindActiveByEmail(ctx, email))
}

// CheckPhone 电话是否可用
func (s *AuthService) CheckPhone(ctx context.Context, phone string) (bool, error) {
	phone = strings.TrimSpace(phone)
	if err := validate.Var("phone", phone, "required,hkphone"); err != nil {
		return false, err
	}
	return available(s.users.FindActiveByPhone(ctx, phone))
}

func available(_ *auth.User, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if mongodb.IsNotFound(err) {
		return true, nil
	}
	return false, apperr.Internal(err)
}

// ResetPasswordInput 重设密码参数
type ResetPasswordInput struct {
	Phone       string `json:"phone" validate:"required,hkphone"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// ResetPassword 通过手机验证码重设密码，并注销所有 Refresh Token
func (s *AuthService) ResetPassword(ctx context.Context, in *ResetPasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}

	user, err := s.users.FindActiveByPhone(ctx, in.Phone)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return ErrUserNotFound
		}
		return apperr.Internal(err)
	}

	if err := verifyError(s.verify.Verify(ctx, in.Phone, in.Code)); err != nil {
		return err
	}
	// 重设密码不需要保留注册用的已验证状态
	if _, err := s.verify.ConsumeVerified(ctx, in.Phone); err != nil {
		log.Warn().Err(err).Msg("failed to clear verified phone")
	}

	hashed, err := password.Hash(in.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	user.Password = hashed
	if err := s.users.Replace(ctx, user); err != nil {
		return userWriteError(err)
	}

	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to revoke refresh tokens")
	}

	log.Info().Str("user_id", user.ID).Msg("password reset")
	s.sendEmail(ctx, notify.PasswordResetEmail(user.Email, user.Name))
	return nil
}

// sendEmail 通知失败只记录日志
func (s *AuthService) sendEmail(ctx context.Context, msg notify.Message) {
	if s.mailer == nil || msg.To == "" {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to send email")
	}
}

// parseDate 解析 YYYY-MM-DD，空字符串返回 nil
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, ErrInvalidInput.WithFields(apperr.FieldError{Field: "birthdate", Message: "日期格式应为 YYYY-MM-DD"})
	}
	return &t, nil
}
