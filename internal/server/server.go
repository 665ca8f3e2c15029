package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"hihitutor/internal/config"
	"hihitutor/internal/handler"
	"hihitutor/internal/pkg/cache"
	"hihitutor/internal/pkg/metrics"
	"hihitutor/internal/pkg/mongodb"
	"hihitutor/internal/pkg/notify"
	"hihitutor/internal/pkg/ratelimit"
	"hihitutor/internal/pkg/storagefactory"
	"hihitutor/internal/pkg/verification"
	authRepo "hihitutor/internal/repository/auth"
	profileRepo "hihitutor/internal/repository/profile"
	caseRepo "hihitutor/internal/repository/tutorcase"
	uploadRepo "hihitutor/internal/repository/upload"
	"hihitutor/internal/service"
)

// limiterTTL 限流 key 的保留时间
const limiterTTL = 10 * time.Minute

// sweeper 需要定期清理的进程内状态
type sweeper interface {
	Cleanup(ctx context.Context, interval time.Duration)
}

// Server HTTP 服务器
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	mongo    *mongodb.Client
	redis    *cache.RedisCache
	sweepers []sweeper
}

// New 创建服务器实例：连接存储、组装服务、注册路由
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	setGinMode(cfg.Server.Mode)

	mongoClient, err := mongodb.New(ctx, &cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	db := mongoClient.Database()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Redis 只有验证码使用 redis 后端时才是必需的
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, &cfg.Redis)
		if err != nil {
			if cfg.Verification.Backend == "redis" {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	st, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	mailer, err := notify.NewEmailSender(&cfg.Notify)
	if err != nil {
		return nil, fmt.Errorf("init email sender: %w", err)
	}
	sms, err := notify.NewSMSSender(&cfg.Notify)
	if err != nil {
		return nil, fmt.Errorf("init sms sender: %w", err)
	}

	verifyOpts := verification.Options{
		CodeTTL:     cfg.Verification.CodeTTL,
		VerifiedTTL: cfg.Verification.VerifiedTTL,
	}
	var (
		verifyStore verification.Store
		sweepers    []sweeper
	)
	if cfg.Verification.Backend == "redis" {
		if redisCache == nil {
			return nil, errors.New("verification backend redis requires redis.addr")
		}
		verifyStore = verification.NewRedisStore(redisCache, verifyOpts)
	} else {
		mem := verification.NewMemoryStore(verifyOpts)
		verifyStore, sweepers = mem, append(sweepers, mem)
	}

	m := metrics.Default()
	users := authRepo.NewUserRepo(db)
	tokens := authRepo.NewRefreshTokenRepo(db)
	profiles := profileRepo.NewProfileRepo(db)
	cases := caseRepo.NewCaseRepo(db)
	uploads := service.NewUploadService(uploadRepo.NewFileRepo(db), st)
	phoneLimiter := ratelimit.NewKeyed(cfg.Verification.SendRate, cfg.Verification.SendBurst, limiterTTL)

	svc := &Services{
		Auth: service.NewAuthService(users, tokens, uploads, verifyStore, mailer, service.AuthOptions{
			JWTSecret:          cfg.Auth.JWTSecret,
			AccessTokenExpiry:  cfg.Auth.AccessTokenExpiry,
			RefreshTokenExpiry: cfg.Auth.RefreshTokenExpiry,
			DocumentMaxSize:    cfg.Upload.DocumentMaxSize,
		}, m),
		Verification: service.NewVerificationService(verifyStore, sms, phoneLimiter, service.VerificationOptions{
			CodeTTL:    cfg.Verification.CodeTTL,
			ExposeCode: cfg.Verification.ExposeCode,
		}, m),
		User: service.NewUserService(users, profiles, cases, tokens, uploads),
		Profile: service.NewProfileService(profiles, users, uploads, mongodb.NewTxRunner(mongoClient), mailer, service.ProfileOptions{
			AvatarMaxSize:      cfg.Upload.AvatarMaxSize,
			CertificateMaxSize: cfg.Upload.CertificateMaxSize,
			MaxCertificates:    cfg.Upload.MaxCertificates,
		}, m),
		Case: service.NewCaseService(cases, service.CaseOptions{
			MinRate:        cfg.TutorCase.MinRate,
			MaxDescription: cfg.TutorCase.MaxDescription,
		}, m),
	}

	deps := map[string]handler.Pinger{"mongo": mongoClient}
	if redisCache != nil {
		deps["redis"] = redisCache
	}

	ipLimiter := ratelimit.NewKeyed(smsPerIPRate, smsPerIPBurst, limiterTTL)
	engine := NewRouter(cfg, svc, &RouterOptions{
		Deps:       deps,
		Metrics:    m,
		SMSLimiter: ipLimiter,
	})

	return &Server{
		cfg:      cfg,
		engine:   engine,
		mongo:    mongoClient,
		redis:    redisCache,
		sweepers: append(sweepers, phoneLimiter, ipLimiter),
	}, nil
}

func setGinMode(mode string) {
	switch mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}

// Run 启动服务器，ctx 结束时优雅退出
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	for _, sw := range s.sweepers {
		go sw.Cleanup(ctx, time.Minute)
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// 请求处理完后再关闭连接
		if err := s.mongo.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}
		return err
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
