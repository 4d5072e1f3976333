package cmd

import (
	"os"

	"github.com/pomyannik/pomyannik/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Execute() {
	a := &app{}
	rootCmd := newRootCmd(a)

	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	err := rootCmd.Execute()
	if closeErr := a.close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("Failed to close the database.")
	}
	if err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		rootCmd.PrintErrln("Error:", clierr.FromError(err).Message)
		os.Exit(clierr.ExitCode(err))
	}
}

func createRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pomyannik",
		Short:         "Command-line client for the Pomyannik photo memorial service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Base URL of the API (overrides POMYANNIK_API_URL)")
	rootCmd.PersistentFlags().StringVar(&a.timeout, "timeout", "", "Per-request timeout, e.g. 10s (overrides POMYANNIK_TIMEOUT)")

	rootCmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		registerCmd(a),
		whoamiCmd(a),
		emailCmd(a),
		passwordCmd(a),
		folderCmd(a),
		cardCmd(a),
		payCmd(a),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

// withApp opens the app before running fn. Commands that need neither the
// network nor local storage do not use it.
func withApp(a *app, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}
