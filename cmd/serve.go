package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hihitutor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HiHiTutor API server",
	Long: `Start the HiHiTutor API server.

Configuration is read from ./configs/config.yaml, $HOME/.hihitutor/config.yaml or
HIHITUTOR_* environment variables; flags override both.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "gin mode (debug/release/test)")
	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "console", "log format (json/console)")
	flags.String("storage", "", "override storage.type (local/oss/s3/minio/gcs)")
	flags.String("verification-backend", "", "override verification.backend (memory/redis)")

	for key, flag := range map[string]string{
		"server.host":          "host",
		"server.port":          "port",
		"server.mode":          "mode",
		"log.level":            "log-level",
		"log.format":           "log-format",
		"storage.type":         "storage",
		"verification.backend": "verification-backend",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Storage.Type).
		Str("verification", cfg.Verification.Backend).
		Msg("starting server")

	return srv.Run(ctx, addr)
}
