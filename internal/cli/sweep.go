package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathursrus/LinkedIn-Network/internal/ui"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark abandoned jobs as failed",
	Long: `Rewrites records that have been processing for longer than stale_after as
errors, so the next request for them starts a fresh job. The server does this
on a schedule; run it by hand after a crash when no server is running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := mustApp(cmd)
		if err != nil {
			return err
		}
		if a.Config.StaleAfter <= 0 {
			return fmt.Errorf("stale job detection is disabled (stale_after = %s)", a.Config.StaleAfter)
		}

		n, err := a.Sweeper.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s %d\n", ui.Bold("Marked stale:"), n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
