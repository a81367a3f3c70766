// internal/cli/root.go
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathursrus/LinkedIn-Network/internal/app"
	"github.com/mathursrus/LinkedIn-Network/internal/config"
)

// shutdownTimeout bounds how long running jobs get to finish on exit
const shutdownTimeout = 30 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netbuilder",
	Short: "Find who you know at a company and who can introduce you",
	Long: `netbuilder answers questions about your LinkedIn network by driving a signed-in
browser through people searches and profiles.

Queries run in the background and are cached on disk, so asking again returns
the saved answer or the job that is still working on it.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	// Ensure running jobs are recorded before exit
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		a := GetApp(cmd)
		if a == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Close(ctx)
	}

	config.RegisterFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}
