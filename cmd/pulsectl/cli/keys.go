package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/secret"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/utils"
)

// ---------- verify-keys ----------

func newVerifyKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-keys",
		Short: "Check that every stored API key decrypts with SECRET_KEY",
		Long: `Decrypt every stored API key with the configured SECRET_KEY. Run this before
and after rotating SECRET_KEY: keys listed here can no longer be read and must
be re-entered through the admin API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			cipher, err := secret.NewCipher(cfg.SecretKey)
			if err != nil {
				return err
			}
			keys := service.NewAPIKeyService(repository.NewAPIKeyRepository(db), cipher)
			bad, err := keys.VerifyAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("verify keys: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(bad) == 0 {
				fmt.Fprintln(out, "All stored API keys decrypt with the current SECRET_KEY")
				return nil
			}
			fmt.Fprintf(out, "%d key(s) cannot be decrypted:\n", len(bad))
			for _, name := range bad {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return errors.New("undecryptable API keys found")
		},
	}
}

// ---------- gen-secret ----------

func newGenSecretCmd() *cobra.Command {
	var apiToken bool

	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Generate a random SECRET_KEY (or API_TOKEN with --api-token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := utils.GenerateSecretKey
			if apiToken {
				gen = utils.GenerateAPIToken
			}
			v, err := gen()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apiToken, "api-token", false, "generate an API_TOKEN instead")
	return cmd
}
