package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pulsectl",
		Short: "Operate a Pulse messaging backend",
		Long: `pulsectl runs maintenance tasks against the Pulse database: migrations,
seeding target apps, creating admin users and checking that stored API keys
still decrypt with the configured SECRET_KEY.

Configuration is read from the environment (and .env) exactly like the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedAppsCmd())
	cmd.AddCommand(newCreateAdminCmd())
	cmd.AddCommand(newVerifyKeysCmd())
	cmd.AddCommand(newGenSecretCmd())

	return cmd
}
