package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mathursrus/LinkedIn-Network/internal/ui"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// Formats accepted by Write
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Write renders rec in format
func Write(w io.Writer, rec *models.JobRecord, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return WriteTable(w, rec)
	case FormatJSON:
		return WriteJSON(w, rec)
	case FormatMarkdown, "md":
		return WriteMarkdown(w, rec)
	case FormatCSV:
		return WriteCSV(w, rec)
	}
	return fmt.Errorf("unknown format %q (want table, json, markdown or csv)", format)
}

// WriteJSON writes rec exactly as it is stored
func WriteJSON(w io.Writer, rec *models.JobRecord) error {
	data, err := rec.Encode()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// WriteTable writes a colorized summary of rec followed by an aligned table
// of the people found.
func WriteTable(w io.Writer, rec *models.JobRecord) error {
	status := string(rec.Status)
	switch rec.Status {
	case models.StatusComplete:
		status = ui.Success(status)
	case models.StatusError:
		status = ui.Error(status)
	default:
		status = ui.Info(status)
	}

	fmt.Fprintf(w, "%s %s\n", ui.Bold("Status:"), status)
	for _, k := range rec.ParamKeys() {
		fmt.Fprintf(w, "%s %s\n", ui.Bold(k+":"), rec.Params[k])
	}

	switch rec.Status {
	case models.StatusError:
		fmt.Fprintf(w, "%s %s\n", ui.Bold("Error:"), rec.Error)
		if rec.ErrorCode != "" {
			fmt.Fprintf(w, "%s %s\n", ui.Bold("Code:"), rec.ErrorCode)
		}
		return nil
	case models.StatusProcessing:
		return nil
	}

	fmt.Fprintf(w, "%s %d\n\n", ui.Bold("People:"), len(rec.Results))
	if len(rec.Results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDEGREE\tROLE\tLOCATION\tMUTUAL")
	for _, p := range rec.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, levelNames[p.ConnectionLevel], p.Role, p.Location, MutualNames(p))
	}
	return tw.Flush()
}
