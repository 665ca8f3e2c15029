package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hihitutor/internal/config"
	"hihitutor/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hihitutor",
	Short: "HiHiTutor - tutoring marketplace API service",
	Long: `HiHiTutor is the backend of a tutoring marketplace.
It handles registration with phone verification, tutor profile review,
organization approval and tutoring case posting.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.hihitutor")
	}

	// 环境变量设置
	viper.SetEnvPrefix("HIHITUTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "hihitutor")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)
	viper.SetDefault("mongo.connect_timeout", "10s")

	// Redis
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key_prefix", "hihitutor")

	// Auth
	viper.SetDefault("auth.access_token_expiry", "1h")
	viper.SetDefault("auth.refresh_token_expiry", "168h")

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "./uploads")
	viper.SetDefault("storage.local.base_url", "/uploads")

	// Verification
	viper.SetDefault("verification.backend", "memory")
	viper.SetDefault("verification.code_ttl", "5m")
	viper.SetDefault("verification.verified_ttl", "10m")
	viper.SetDefault("verification.expose_code", false)
	viper.SetDefault("verification.send_rate", 1.0/60)
	viper.SetDefault("verification.send_burst", 1)

	// Notify
	viper.SetDefault("notify.sms_driver", "log")
	viper.SetDefault("notify.email_driver", "log")
	viper.SetDefault("notify.from_name", "HiHiTutor")
	viper.SetDefault("notify.from_email", "no-reply@hihitutor.com")

	// Upload
	viper.SetDefault("upload.document_max_size", 5<<20)
	viper.SetDefault("upload.avatar_max_size", 5<<20)
	viper.SetDefault("upload.certificate_max_size", 10<<20)
	viper.SetDefault("upload.max_certificates", 5)

	// TutorCase
	viper.SetDefault("tutorcase.min_rate", 50)
	viper.SetDefault("tutorcase.max_description", 300)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
