// internal/cli/login.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mathursrus/LinkedIn-Network/internal/auth"
	"github.com/mathursrus/LinkedIn-Network/internal/ui"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to LinkedIn and save the session",
	Long: `Opens a visible browser window on the LinkedIn sign-in page. Once you are
signed in the cookies are saved (to the auth state file or the OS keyring, see
--auth-store) and reused by headless queries until they expire.`,
	Example: `  # Sign in and keep the cookies in a file
  $ netbuilder login

  # Sign in and keep the cookies in the OS keyring
  $ netbuilder login --auth-store=keyring`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd removes the saved session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved LinkedIn session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}

	timeout := a.Config.LoginTimeout
	fmt.Printf("\n%s\n", ui.Bold("Interactive Login"))
	fmt.Printf("  %s %s\n", ui.Bold("Store:"), a.Config.AuthStore)
	fmt.Printf("  %s %s\n\n", ui.Bold("Timeout:"), timeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Minute)
	defer cancel()

	log.Info().Msg("Waiting for sign-in")
	if err := a.Launcher.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println(ui.Success("Session saved."))
	if state, err := a.Auth.Load(); err == nil && !state.ExpiresAt.IsZero() {
		fmt.Printf("Session expires: %s\n", state.ExpiresAt.Format(time.RFC1123))
	}
	fmt.Println()
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}

	if err := a.Auth.Delete(); err != nil && !errors.Is(err, auth.ErrNoState) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Println(ui.Success("Session removed."))
	return nil
}
