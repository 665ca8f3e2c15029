package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hihitutor/internal/pkg/mongodb"
	authRepo "hihitutor/internal/repository/auth"
	"hihitutor/internal/service"
)

var initAdminCmd = &cobra.Command{
	Use:   "init-admin",
	Short: "Create or promote an admin user",
	Long: `Create an admin user, or promote the active user with the same email.
Values not given as flags are read from INIT_ADMIN_* environment variables.`,
	RunE: runInitAdmin,
}

func init() {
	rootCmd.AddCommand(initAdminCmd)

	flags := initAdminCmd.Flags()
	flags.String("name", envOr("INIT_ADMIN_NAME", "管理员"), "admin name")
	flags.String("email", envOr("INIT_ADMIN_EMAIL", "admin@hihitutor.com"), "admin email")
	flags.String("phone", os.Getenv("INIT_ADMIN_PHONE"), "admin phone (8 digits)")
	flags.String("password", os.Getenv("INIT_ADMIN_PASSWORD"), "admin password")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runInitAdmin(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	flags := cmd.Flags()

	in := &service.EnsureAdminInput{}
	in.Name, _ = flags.GetString("name")
	in.Email, _ = flags.GetString("email")
	in.Phone, _ = flags.GetString("phone")
	in.Password, _ = flags.GetString("password")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.New(ctx, &cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	db := client.Database()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	users := service.NewUserService(authRepo.NewUserRepo(db), nil, nil, nil, nil)
	admin, created, err := users.EnsureAdmin(ctx, in)
	if err != nil {
		return err
	}

	action := "promoted"
	if created {
		action = "created"
	}
	fmt.Printf("Admin %s: email=%s userCode=%s status=%s\n", action, admin.Email, admin.UserCode, admin.Status)
	return nil
}
