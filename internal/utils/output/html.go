// Package output renders job records for the terminal and for export.
package output

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// levelNames label connection degrees the way the site does
var levelNames = map[int]string{
	models.LevelDirect:  "1st",
	models.LevelMutual:  "2nd",
	models.LevelDistant: "3rd+",
}

// RenderHTML returns an HTML fragment describing rec: a heading, the
// parameters, then either the people table or the error.
func RenderHTML(rec *models.JobRecord) string {
	var b strings.Builder

	title := rec.Params["query_name"]
	if title == "" {
		title = "job"
	}
	fmt.Fprintf(&b, "<h1>%s</h1>\n", esc(strings.ReplaceAll(title, "_", " ")))

	b.WriteString("<ul>\n")
	for _, k := range rec.ParamKeys() {
		if k == "query_name" {
			continue
		}
		fmt.Fprintf(&b, "<li><strong>%s:</strong> %s</li>\n", esc(k), esc(rec.Params[k]))
	}
	fmt.Fprintf(&b, "<li><strong>status:</strong> %s</li>\n", esc(string(rec.Status)))
	if !rec.Timestamp.IsZero() {
		fmt.Fprintf(&b, "<li><strong>updated:</strong> %s</li>\n", esc(rec.Timestamp.Format("2006-01-02 15:04:05")))
	}
	b.WriteString("</ul>\n")

	switch rec.Status {
	case models.StatusError:
		msg := rec.Error
		if rec.ErrorCode != "" {
			msg = fmt.Sprintf("%s (%s)", rec.Error, rec.ErrorCode)
		}
		fmt.Fprintf(&b, "<p><strong>Error:</strong> %s</p>\n", esc(msg))
	case models.StatusProcessing:
		b.WriteString("<p>Still processing.</p>\n")
	default:
		writePeopleTable(&b, rec.Results)
	}

	return b.String()
}

func writePeopleTable(b *strings.Builder, people []models.PersonRecord) {
	if len(people) == 0 {
		b.WriteString("<p>Nobody found.</p>\n")
		return
	}

	b.WriteString("<table>\n<thead><tr><th>Name</th><th>Role</th><th>Location</th><th>Degree</th><th>Mutual connections</th></tr></thead>\n<tbody>\n")
	for _, p := range people {
		name := esc(p.Name)
		if p.ProfileURL != "" {
			name = fmt.Sprintf(`<a href="%s">%s</a>`, esc(p.ProfileURL), name)
		}
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			name, esc(p.Role), esc(p.Location), esc(levelNames[p.ConnectionLevel]), esc(MutualNames(p)))
	}
	b.WriteString("</tbody>\n</table>\n")
}

// MutualNames joins the names of p's mutual connections
func MutualNames(p models.PersonRecord) string {
	names := make([]string, 0, len(p.MutualConnections))
	for _, m := range p.MutualConnections {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}

func esc(s string) string {
	return html.EscapeString(s)
}
