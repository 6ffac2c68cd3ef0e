package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/service"
)

// ---------- migrate ----------

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.DB.Driver)
			return nil
		},
	}
}

// ---------- seed-apps ----------

func newSeedAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-apps",
		Short: "Insert the default target apps if missing",
		Long:  "Insert brighton, edinburgh, manchester, cardiff, kilkenny and york. Existing apps are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			apps := service.NewTargetAppService(repository.NewTargetAppRepository(db), nil)
			n, err := apps.SeedDefaults(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed apps: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d target app(s)\n", n)
			return nil
		},
	}
}
