package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

func newCreateAdminCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin console user",
		Example: `  pulsectl create-admin --email ops@example.com --name "Ops"
  pulsectl create-admin --email ops@example.com --password 's3cret-pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword()
				if err != nil {
					return err
				}
				password = pw
			}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			auth := service.NewAdminAuthService(
				repository.NewAdminUserRepository(db),
				utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
			)
			user, err := auth.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin user %q (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read confirmation: %w", err)
	}
	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}
