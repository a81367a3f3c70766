package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

func completeRecord() *models.JobRecord {
	return &models.JobRecord{
		Status:      models.StatusComplete,
		Timestamp:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Params:      map[string]string{"query_name": "role_search", "role": "PM", "company": "Acme & Co"},
		ResultField: models.FieldPeople,
		Results: []models.PersonRecord{
			{Name: "Jane Roe", ProfileURL: "https://www.linkedin.com/in/jane-roe", Role: "PM", Location: "Seattle", ConnectionLevel: 1},
			{
				Name:            "John Doe",
				ProfileURL:      "https://www.linkedin.com/in/john-doe",
				Role:            "Senior PM",
				ConnectionLevel: 2,
				MutualConnections: []models.PersonRecord{
					{Name: "Mia One"}, {Name: "Max Two"},
				},
			},
		},
	}
}

func TestRenderHTML_Escapes(t *testing.T) {
	out := RenderHTML(completeRecord())

	if !strings.Contains(out, "<h1>role search</h1>") {
		t.Errorf("Expected query heading, got %s", out)
	}
	if !strings.Contains(out, "Acme &amp; Co") {
		t.Error("Expected parameter values to be escaped")
	}
	if !strings.Contains(out, `<a href="https://www.linkedin.com/in/jane-roe">Jane Roe</a>`) {
		t.Error("Expected profile link")
	}
	if !strings.Contains(out, "Mia One, Max Two") {
		t.Error("Expected mutual names")
	}
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown(completeRecord())
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}

	if !strings.Contains(out, "[Jane Roe](https://www.linkedin.com/in/jane-roe)") {
		t.Errorf("Expected markdown link, got:\n%s", out)
	}
	if !strings.Contains(out, "|") {
		t.Errorf("Expected a markdown table, got:\n%s", out)
	}
	if strings.Contains(out, "<table>") {
		t.Error("HTML should be converted")
	}
}

func TestMarkdown_Error(t *testing.T) {
	rec := &models.JobRecord{
		Status:    models.StatusError,
		Params:    map[string]string{"query_name": "role_search"},
		Error:     "no people found with role PM at Acme",
		ErrorCode: "NOT_FOUND",
	}

	out, err := Markdown(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no people found with role PM at Acme") {
		t.Errorf("Expected the error, got:\n%s", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, completeRecord()); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "name" || rows[2][0] != "John Doe" || rows[2][4] != "2" || rows[2][5] != "Mia One, Max Two" {
		t.Errorf("Unexpected rows %v", rows)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, completeRecord(), "table"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"People:", "Jane Roe", "2nd", "Senior PM"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table output:\n%s", want, out)
		}
	}
}

func TestWrite_JSONAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, completeRecord(), "json"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"people"`) || !strings.Contains(buf.String(), `"query_name": "role_search"`) {
		t.Errorf("Expected stored layout, got %s", buf.String())
	}

	if err := Write(&buf, completeRecord(), "yaml"); err == nil {
		t.Error("Expected unknown format to fail")
	}
}
