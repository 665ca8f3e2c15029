package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Mongo        MongoConfig        `mapstructure:"mongo"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Verification VerificationConfig `mapstructure:"verification"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Upload       UploadConfig       `mapstructure:"upload"`
	TutorCase    TutorCaseConfig    `mapstructure:"tutorcase"`
	CORS         CORSConfig         `mapstructure:"cors"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"` // 多个环境共用一个 Redis 时区分
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`           // JWT密钥
	AccessTokenExpiry  time.Duration `mapstructure:"access_token_expiry"`  // Access Token过期时间
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"` // Refresh Token过期时间
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss, s3, minio, gcs
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
	S3    *S3Config    `mapstructure:"s3,omitempty"`
	MinIO *MinIOConfig `mapstructure:"minio,omitempty"`
	GCS   *GCSConfig   `mapstructure:"gcs,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径（上传目录）
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（如 /uploads）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
	PublicBaseURL   string `mapstructure:"public_base_url"`   // CDN 域名，为空时使用 bucket 域名
}

// S3Config AWS S3 配置
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Endpoint        string `mapstructure:"endpoint"` // 可选，兼容 S3 协议的自建服务
	PresignExpiry   int    `mapstructure:"presign_expiry"`
}

// MinIOConfig MinIO 配置
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PresignExpiry int    `mapstructure:"presign_expiry"`
}

// GCSConfig Google Cloud Storage 配置
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	PresignExpiry   int    `mapstructure:"presign_expiry"`
}

// VerificationConfig 手机验证码配置
type VerificationConfig struct {
	Backend     string        `mapstructure:"backend"`      // memory, redis
	CodeTTL     time.Duration `mapstructure:"code_ttl"`     // 验证码有效期
	VerifiedTTL time.Duration `mapstructure:"verified_ttl"` // 验证成功标记有效期（需在此时间内完成注册）
	ExposeCode  bool          `mapstructure:"expose_code"`  // 开发模式下在响应中返回验证码
	SendRate    float64       `mapstructure:"send_rate"`    // 同一号码每秒允许发送次数
	SendBurst   int           `mapstructure:"send_burst"`
}

// NotifyConfig 通知配置（短信 / 邮件）
type NotifyConfig struct {
	SMSDriver   string         `mapstructure:"sms_driver"`   // log
	EmailDriver string         `mapstructure:"email_driver"` // log, smtp, sendgrid
	FromName    string         `mapstructure:"from_name"`
	FromEmail   string         `mapstructure:"from_email"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
	SendGrid    SendGridConfig `mapstructure:"sendgrid"`
}

// SMTPConfig SMTP 配置
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSL      bool   `mapstructure:"ssl"`
}

// SendGridConfig SendGrid 配置
type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// UploadConfig 上传限制配置（字节）
type UploadConfig struct {
	DocumentMaxSize    int64 `mapstructure:"document_max_size"`    // 机构文件
	AvatarMaxSize      int64 `mapstructure:"avatar_max_size"`      // 头像
	CertificateMaxSize int64 `mapstructure:"certificate_max_size"` // 证书
	MaxCertificates    int   `mapstructure:"max_certificates"`     // 单次最多证书数
}

// TutorCaseConfig 补习个案配置
type TutorCaseConfig struct {
	MinRate        float64 `mapstructure:"min_rate"`        // 最低时薪
	MaxDescription int     `mapstructure:"max_description"` // 描述最大字数
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	validStorage := map[string]bool{"local": true, "oss": true, "s3": true, "minio": true, "gcs": true}
	if !validStorage[c.Storage.Type] {
		return errors.New("invalid storage type, must be local/oss/s3/minio/gcs")
	}

	if c.Verification.Backend != "memory" && c.Verification.Backend != "redis" {
		return errors.New("invalid verification backend, must be memory/redis")
	}
	if c.Verification.CodeTTL <= 0 || c.Verification.VerifiedTTL <= 0 {
		return errors.New("verification ttl must be positive")
	}

	if c.TutorCase.MinRate < 0 || c.TutorCase.MaxDescription <= 0 {
		return errors.New("invalid tutorcase limits")
	}

	return nil
}

// ValidateServe serve 额外需要的配置
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters (env: HIHITUTOR_AUTH_JWT_SECRET)")
	}
	if c.Verification.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when verification.backend is redis")
	}
	return nil
}
