package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

var csvHeader = []string{"name", "profile_url", "role", "location", "connection_level", "mutual_connections"}

// WriteCSV writes one row per person in rec. Mutual connections are joined
// into a single column.
func WriteCSV(w io.Writer, rec *models.JobRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range rec.Results {
		row := []string{
			p.Name,
			p.ProfileURL,
			p.Role,
			p.Location,
			strconv.Itoa(p.ConnectionLevel),
			MutualNames(p),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
