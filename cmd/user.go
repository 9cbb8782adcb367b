package cmd

import (
	"context"
	"errors"

	"gas-market/feature/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	adminUsername string
	adminPassword string
	adminEmail    string
)

// userCmd is the parent command for account management.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

// createAdminCmd bootstraps the first account.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the bootstrap admin account if it does not exist",
	Long: `Create the admin account from AUTH_ADMIN_USERNAME, AUTH_ADMIN_PASSWORD and
AUTH_ADMIN_EMAIL. Flags override the configuration. Existing accounts are
left untouched.`,
	Args: cobra.NoArgs,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "Admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	userCmd.AddCommand(createAdminCmd)
	RootCmd.AddCommand(userCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	username := firstNonEmpty(adminUsername, rt.cfg.Auth.AdminUsername)
	password := firstNonEmpty(adminPassword, rt.cfg.Auth.AdminPassword)
	email := firstNonEmpty(adminEmail, rt.cfg.Auth.AdminEmail)
	if password == "" {
		return &ExitError{Code: ExitInvalidInput, Err: errors.New("admin password is required (--password or AUTH_ADMIN_PASSWORD)")}
	}

	svc := auth.NewService(rt.db, nil, rt.log)
	created, err := svc.EnsureAdmin(ctx, username, password, email)
	if err != nil {
		return err
	}
	if !created {
		rt.log.Info("Admin user already exists", zap.String("username", username))
		return nil
	}
	rt.log.Info("Admin user created", zap.String("username", username))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
