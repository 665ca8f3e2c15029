package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "hihitutor/docs"
	"hihitutor/internal/config"
	"hihitutor/internal/handler"
	authHandler "hihitutor/internal/handler/auth"
	profileHandler "hihitutor/internal/handler/profile"
	smsHandler "hihitutor/internal/handler/sms"
	caseHandler "hihitutor/internal/handler/tutorcase"
	userHandler "hihitutor/internal/handler/user"
	"hihitutor/internal/pkg/metrics"
	"hihitutor/internal/pkg/ratelimit"
	"hihitutor/internal/server/middleware"
	"hihitutor/internal/service"
)

// 同一 IP 请求验证码的频率
const (
	smsPerIPRate  = 0.2
	smsPerIPBurst = 5
)

// Services 路由用到的业务服务
type Services struct {
	Auth         *service.AuthService
	Verification *service.VerificationService
	User         *service.UserService
	Profile      *service.ProfileService
	Case         *service.CaseService
}

// RouterOptions 可选组件，为空时跳过
type RouterOptions struct {
	Deps       map[string]handler.Pinger
	Metrics    *metrics.Metrics
	SMSLimiter *ratelimit.Keyed
}

// NewRouter 注册中间件与全部路由
func NewRouter(cfg *config.Config, svc *Services, opts *RouterOptions) *gin.Engine {
	if opts == nil {
		opts = &RouterOptions{}
	}
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS(cfg.CORS))
	if opts.Metrics != nil {
		engine.Use(middleware.Metrics(opts.Metrics))
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// 健康检查
	healthHandler := handler.NewHealthHandler(opts.Deps)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储的上传文件
	if cfg.Storage.Type == "local" && cfg.Storage.Local != nil && cfg.Storage.Local.BaseURL != "" {
		engine.Static(cfg.Storage.Local.BaseURL, cfg.Storage.Local.BasePath)
	}

	authHdl := authHandler.NewHandler(svc.Auth)
	smsHdl := smsHandler.NewHandler(svc.Verification)
	userHdl := userHandler.NewHandler(svc.User)
	profileHdl := profileHandler.NewHandler(svc.Profile)
	caseHdl := caseHandler.NewHandler(svc.Case)

	requireAuth := middleware.Auth(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)
	adminOnly := middleware.RequireAdmin()

	api := engine.Group("/api")

	// 公开接口
	{
		api.POST("/register", authHdl.Register)
		api.POST("/login", authHdl.Login)
		api.POST("/refresh", authHdl.Refresh)
		api.POST("/logout", authHdl.Logout)
		api.POST("/password/reset", authHdl.ResetPassword)
		api.POST("/check-email", authHdl.CheckEmail)
		api.POST("/check-phone", authHdl.CheckPhone)

		sms := api.Group("/sms")
		if opts.SMSLimiter != nil {
			sms.POST("/send-code", middleware.RateLimit(opts.SMSLimiter), smsHdl.SendCode)
		} else {
			sms.POST("/send-code", smsHdl.SendCode)
		}
		sms.POST("/verify-code", smsHdl.VerifyCode)

		api.GET("/tutors", profileHdl.ListTutors)
		api.GET("/cases/public", caseHdl.PublicCases)
		api.GET("/cases/:id", optionalAuth, caseHdl.GetCase)
	}

	// 需要认证的接口
	authed := api.Group("", requireAuth)
	{
		authed.POST("/upgrade-to-tutor", userHdl.UpgradeToTutor)

		authed.GET("/users", adminOnly, userHdl.ListUsers)
		authed.GET("/users/me", userHdl.Me)
		authed.GET("/users/:id", userHdl.GetUser)
		authed.PUT("/users/:id", userHdl.UpdateUser)
		authed.DELETE("/users/:id", userHdl.DeleteUser)
		authed.PUT("/users/:id/organization-status", adminOnly, userHdl.SetOrganizationStatus)
		authed.GET("/users/:id/documents", userHdl.Documents)

		authed.POST("/profiles/:userId/submit", profileHdl.Submit)
		authed.POST("/profiles/:userId/avatar", profileHdl.UploadAvatar)
		authed.POST("/profiles/:userId/certificates", profileHdl.UploadCertificates)
		authed.PUT("/profiles/approve/:userId", adminOnly, profileHdl.Approve)
		authed.PUT("/profiles/reject/:userId", adminOnly, profileHdl.Reject)
		authed.GET("/profiles/all", adminOnly, profileHdl.ListAll)
		authed.GET("/profiles/me", profileHdl.GetMine)

		authed.POST("/cases", caseHdl.CreateCase)
		authed.GET("/cases", caseHdl.ListCases)
		authed.GET("/cases/my", caseHdl.MyCases)
		authed.GET("/cases/pending", adminOnly, caseHdl.PendingCases)
		authed.PUT("/cases/:id", caseHdl.UpdateCase)
		authed.PUT("/cases/:id/approve", adminOnly, caseHdl.ApproveCase)
		authed.PUT("/cases/:id/reject", adminOnly, caseHdl.RejectCase)
		authed.DELETE("/cases/:id", caseHdl.DeleteCase)
	}

	// 公开的已发布导师资料
	api.GET("/profiles/:userId", profileHdl.GetApproved)

	return engine
}
