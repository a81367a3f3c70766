package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mathursrus/LinkedIn-Network/internal/app"
	"github.com/mathursrus/LinkedIn-Network/internal/search"
	"github.com/mathursrus/LinkedIn-Network/internal/utils/output"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// pollInterval is how often a record owned by another process is re-read
const pollInterval = 2 * time.Second

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a network query from the command line",
	Long: `Runs the same queries as the HTTP API without a server. A cached answer is
printed straight away; otherwise the query runs in this process (or, if a
server is already running it, is waited on) and printed when it finishes.`,
}

var queryCompanyCmd = &cobra.Command{
	Use:   "company <company>",
	Short: "Everyone you can reach at a company",
	Example: `  $ netbuilder query company "Acme Corp"
  $ netbuilder query company "Acme Corp" --format=markdown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(s *search.Searcher) (search.Strategy, map[string]string) {
			company := strings.TrimSpace(args[0])
			return search.CompanyConnections{Searcher: s, Company: company}, map[string]string{"company": company}
		})
	},
}

var queryRoleCmd = &cobra.Command{
	Use:     "role <role> <company>",
	Short:   "People with a job title at a company",
	Example: `  $ netbuilder query role "Product Manager" "Acme Corp"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(s *search.Searcher) (search.Strategy, map[string]string) {
			role, company := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			return search.RoleAtCompany{Searcher: s, Role: role, Company: company}, map[string]string{
				"role":    role,
				"company": company,
			}
		})
	},
}

var queryMutualCmd = &cobra.Command{
	Use:   "mutual [person] [company]",
	Short: "Your connections who know a person",
	Example: `  $ netbuilder query mutual "Jane Roe" "Acme Corp"
  $ netbuilder query mutual --profile-url=https://www.linkedin.com/in/jane-roe`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := targetArgs(cmd, args)
		if err != nil {
			return err
		}
		return runQuery(cmd, func(s *search.Searcher) (search.Strategy, map[string]string) {
			return search.MutualConnections{Searcher: s, Target: target}, map[string]string{
				"person":      target.Person,
				"company":     target.Company,
				"profile_url": target.ProfileURL,
			}
		})
	},
}

var queryConnectionsCmd = &cobra.Command{
	Use:   "connections [person] <company>",
	Short: "Who a direct connection knows at a company",
	Example: `  $ netbuilder query connections "Jane Roe" "Globex"
  $ netbuilder query connections "Globex" --profile-url=https://www.linkedin.com/in/jane-roe`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileURL, _ := cmd.Flags().GetString("profile-url")
		var person, company string
		switch {
		case len(args) == 2:
			person, company = args[0], args[1]
		case profileURL != "":
			company = args[0]
		default:
			return fmt.Errorf("person is required without --profile-url")
		}

		target := search.Target{
			ProfileURL: strings.TrimSpace(profileURL),
			Person:     strings.TrimSpace(person),
			Company:    strings.TrimSpace(company),
		}
		return runQuery(cmd, func(s *search.Searcher) (search.Strategy, map[string]string) {
			return search.ConnectionsOfConnection{Searcher: s, Target: target, Company: target.Company}, map[string]string{
				"person_name":  target.Person,
				"company_name": target.Company,
				"profile_url":  target.ProfileURL,
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	for _, c := range []*cobra.Command{queryCompanyCmd, queryRoleCmd, queryMutualCmd, queryConnectionsCmd} {
		addFormatFlag(c)
		queryCmd.AddCommand(c)
	}
	queryMutualCmd.Flags().String("profile-url", "", "Profile URL of the person (skips the name search)")
	queryConnectionsCmd.Flags().String("profile-url", "", "Profile URL of the person (skips the name search)")
}

// targetArgs reads a person either from --profile-url or from name and company
func targetArgs(cmd *cobra.Command, args []string) (search.Target, error) {
	profileURL, _ := cmd.Flags().GetString("profile-url")
	if profileURL == "" && len(args) != 2 {
		return search.Target{}, fmt.Errorf("person and company are required without --profile-url")
	}

	t := search.Target{ProfileURL: strings.TrimSpace(profileURL)}
	if len(args) == 2 {
		t.Person, t.Company = strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	}
	return t, nil
}

type strategyFunc func(s *search.Searcher) (search.Strategy, map[string]string)

func runQuery(cmd *cobra.Command, build strategyFunc) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strategy, params := build(a.Searcher)
	sub, err := a.Jobs.Submit(ctx, a.NewJob(strategy, compactParams(params)))
	if err != nil {
		return err
	}

	rec := sub.Record
	if !sub.Complete() {
		log.Debug().Str("job_id", sub.Key).Bool("dispatched", sub.Dispatched).Msg("Waiting for job")
		rec, err = waitForRecord(ctx, a, sub.Key, strategy.Name())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				interrupt(a)
			}
			return err
		}
	}

	format, _ := cmd.Flags().GetString("format")
	if err := output.Write(os.Stdout, rec, format); err != nil {
		return err
	}
	if rec.Status == models.StatusError {
		// the record is printed; exit non-zero without repeating it
		cmd.SilenceErrors = true
		return fmt.Errorf("%s failed", strategy.Name())
	}
	return nil
}

// waitForRecord shows a spinner until the record at key leaves processing.
// Jobs run by this process are awaited directly; anything else is polled.
func waitForRecord(ctx context.Context, a *app.Application, key, name string) (*models.JobRecord, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("Running %s", strings.ReplaceAll(name, "_", " "))),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	type result struct {
		rec *models.JobRecord
		err error
	}
	done := make(chan result, 1)
	go func() {
		for {
			rec, err := a.Jobs.Wait(ctx, key)
			if err != nil || rec.Status != models.StatusProcessing {
				done <- result{rec, err}
				return
			}
			select {
			case <-time.After(pollInterval):
			case <-ctx.Done():
				done <- result{nil, ctx.Err()}
				return
			}
		}
	}()

	for {
		select {
		case r := <-done:
			return r.rec, r.err
		case <-ticker.C:
			bar.Add(1)
		}
	}
}

// interrupt records jobs cut off by Ctrl-C as interrupted
func interrupt(a *app.Application) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Jobs.Close(ctx)
}

func compactParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
