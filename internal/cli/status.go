package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathursrus/LinkedIn-Network/internal/jobstore"
	"github.com/mathursrus/LinkedIn-Network/internal/utils/output"
)

var statusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "Show a job record",
	Long: `Reads the record a query wrote to the cache. The job_id is the one returned
by the HTTP API or printed by a query run with --no-wait.`,
	Example: `  $ netbuilder status cache/company_people_search_acme.json
  $ netbuilder status cache/company_people_search_acme.json --format=csv > acme.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addFormatFlag(statusCmd)
}

// addFormatFlag registers --format on commands that print a job record
func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", output.FormatTable, "Output format: table, json, markdown or csv")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}

	rec, err := a.Store.Get(cmd.Context(), args[0])
	switch {
	case errors.Is(err, jobstore.ErrNotFound):
		return fmt.Errorf("job %s not found", args[0])
	case err != nil:
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return output.Write(os.Stdout, rec, format)
}
