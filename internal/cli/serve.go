package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mathursrus/LinkedIn-Network/internal/config"
	"github.com/mathursrus/LinkedIn-Network/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API on --addr. Each query endpoint answers with the cached
record when one exists, or starts a background job and returns its job_id to
poll at /job_status/<job_id>.

A sweeper runs next to the server and marks jobs that stopped making progress
as failed so the next request starts them again.`,
	Example: `  # Serve on the default address
  $ netbuilder serve

  # Serve on all interfaces with a visible browser
  $ netbuilder serve --addr=0.0.0.0:8001 --headless=false`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", config.DefaultAddr, "Address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Config.StaleAfter > 0 {
		if err := a.Sweeper.Start(a.Config.SweepSchedule); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
		defer a.Sweeper.Stop()
	}

	fmt.Fprintf(os.Stderr, "%s listening on %s\n", ui.Bold("netbuilder"), ui.Success("http://"+a.Config.Addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server().ListenAndServe(gctx)
	})
	if a.Config.StaleAfter > 0 {
		// records left processing by a previous run
		g.Go(func() error {
			if _, err := a.Sweeper.RunOnce(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("Startup sweep failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
