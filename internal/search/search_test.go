package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	"github.com/mathursrus/LinkedIn-Network/internal/paginate"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

type person struct {
	slug string
	name string
	role string
}

func resultsHTML(people ...person) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="search-results-container"><ul>`)
	for _, p := range people {
		fmt.Fprintf(&b, `<li><div class="mb1">
<div><a href="/in/%s/"><span aria-hidden="true">%s</span></a></div>
<div>%s</div>
<div>Seattle, WA</div>
</div></li>`, p.slug, p.name, p.role)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func profileHTML(degree, links string) string {
	return `<html><body><main><div class="ph5 pb5"><h1>Someone</h1><span class="dist-value">` + degree + `</span>` + links + `</div></main></body></html>`
}

func mutualLink(id string) string {
	return `<a href="/search/results/people/?facetConnectionOf=%5B%22` + id + `%22%5D&amp;facetNetwork=%5B%22F%22%5D">2 mutual connections</a>`
}

// sitePage serves HTML from a handler keyed on the current URL
type sitePage struct {
	handler func(u *url.URL) string
	navErr  func(raw string) error
	visits  []string
	current *url.URL
}

func (p *sitePage) Navigate(ctx context.Context, raw string) error {
	p.visits = append(p.visits, raw)
	if p.navErr != nil {
		if err := p.navErr(raw); err != nil {
			return err
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	p.current = u
	return nil
}

func (p *sitePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *sitePage) HTML(ctx context.Context) (string, error) {
	if p.current == nil {
		return "<html></html>", nil
	}
	return p.handler(p.current), nil
}

func (p *sitePage) Sleep(ctx context.Context, d time.Duration) error { return nil }

func testSearcher() *Searcher {
	return New(
		&paginate.Paginator{HardCap: paginate.DefaultHardCap},
		&extract.PageExtractor{Strategies: extract.DefaultStrategies(), ContainerSelector: extract.ResultsContainer},
		0,
	)
}

// roleSite has five direct and three second-degree matches; only the first
// second-degree contact has mutual connections.
func roleSite(u *url.URL) string {
	q := u.Query()
	page := q.Get("page")

	switch {
	case strings.HasPrefix(u.Path, "/in/"):
		switch strings.Trim(u.Path, "/") {
		case "in/b1":
			return profileHTML("2nd", mutualLink("B1"))
		case "in/b3":
			return profileHTML("2nd", mutualLink("B3"))
		default:
			return profileHTML("2nd", "")
		}

	case q.Get("facetConnectionOf") == `["B1"]` && page == "1":
		return resultsHTML(person{"m1", "Mia One", "Designer"}, person{"m2", "Max Two", "Engineer"})

	case q.Get("network") == `["F"]` && page == "1":
		var ps []person
		for i := 1; i <= 5; i++ {
			ps = append(ps, person{fmt.Sprintf("a%d", i), fmt.Sprintf("Alice %d", i), "Product Manager"})
		}
		return resultsHTML(ps...)

	case q.Get("network") == `["S"]` && page == "1":
		return resultsHTML(
			person{"b1", "Bob One", "Product Manager"},
			person{"b2", "Bob Two", "Product Manager"},
			person{"b3", "Bob Three", "Product Manager"},
		)
	}
	return resultsHTML()
}

func TestRoleAtCompany_EndToEnd(t *testing.T) {
	page := &sitePage{handler: roleSite}
	q := RoleAtCompany{Searcher: testSearcher(), Role: "Product Manager", Company: "Acme"}

	people, err := q.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(people) != 8 {
		t.Fatalf("Expected 8 people, got %d", len(people))
	}

	levels := map[int]int{}
	for _, p := range people {
		levels[p.ConnectionLevel]++
	}
	if levels[1] != 5 || levels[2] != 3 {
		t.Errorf("Unexpected level counts: %v", levels)
	}

	bob := people[5]
	if bob.Name != "Bob One" {
		t.Fatalf("Expected Bob One at index 5, got %s", bob.Name)
	}
	if len(bob.MutualConnections) != 2 {
		t.Fatalf("Expected 2 mutual connections, got %d", len(bob.MutualConnections))
	}
	if bob.MutualConnections[0].ConnectionLevel != 1 {
		t.Errorf("Mutual connections are direct connections, got level %d", bob.MutualConnections[0].ConnectionLevel)
	}
	for _, p := range people[6:] {
		if p.MutualConnections == nil || len(p.MutualConnections) != 0 {
			t.Errorf("Expected empty mutual list for %s, got %v", p.Name, p.MutualConnections)
		}
	}
	for _, p := range people[:5] {
		if len(p.MutualConnections) != 0 {
			t.Errorf("Direct connection %s should have no mutual lookup", p.Name)
		}
	}

	for _, v := range page.visits {
		if strings.Contains(v, "/search/") && !strings.Contains(v, "page=") {
			t.Errorf("Search loaded without a page number: %s", v)
		}
	}
	if q.ResultField() != models.FieldPeople || q.Name() != QueryRole {
		t.Errorf("Unexpected query identity %s/%s", q.Name(), q.ResultField())
	}
}

func TestRoleAtCompany_NotFound(t *testing.T) {
	page := &sitePage{handler: func(*url.URL) string { return resultsHTML() }}
	q := RoleAtCompany{Searcher: testSearcher(), Role: "Astronaut", Company: "Acme"}

	_, err := q.Run(context.Background(), page)
	if engine.CodeOf(err) != engine.ErrCodeNotFound {
		t.Fatalf("Expected NOT_FOUND, got %v", err)
	}
	if !strings.Contains(err.Error(), "Astronaut") || !strings.Contains(err.Error(), "Acme") {
		t.Errorf("Error should name role and company: %v", err)
	}
	if len(page.visits) != 3 {
		t.Errorf("Expected one load per network bucket, got %d", len(page.visits))
	}
}

func TestCompanyConnections_EmptyIsComplete(t *testing.T) {
	page := &sitePage{handler: func(*url.URL) string { return resultsHTML() }}
	q := CompanyConnections{Searcher: testSearcher(), Company: "Nobody Inc"}

	people, err := q.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if people == nil || len(people) != 0 {
		t.Errorf("Expected an empty, non-nil result, got %v", people)
	}
}

func TestCompanyConnections_MutualLookupFailureDegrades(t *testing.T) {
	page := &sitePage{
		handler: roleSite,
		navErr: func(raw string) error {
			if strings.Contains(raw, "/in/b1") {
				return engine.NewEngineError(engine.ErrCodeNavigation, "navigate failed", errors.New("net::ERR_CONNECTION_RESET"))
			}
			return nil
		},
	}
	q := CompanyConnections{Searcher: testSearcher(), Company: "Acme"}

	people, err := q.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(people) != 8 {
		t.Fatalf("Expected 8 people, got %d", len(people))
	}
	if people[5].MutualConnections == nil || len(people[5].MutualConnections) != 0 {
		t.Errorf("Expected empty mutual list after failed lookup, got %v", people[5].MutualConnections)
	}
}

func TestCompanyConnections_CrashAborts(t *testing.T) {
	page := &sitePage{
		handler: roleSite,
		navErr: func(raw string) error {
			if strings.Contains(raw, "/in/b2") {
				return fmt.Errorf("navigate: %w", engine.ErrBrowserCrash)
			}
			return nil
		},
	}
	q := CompanyConnections{Searcher: testSearcher(), Company: "Acme"}

	people, err := q.Run(context.Background(), page)
	if !errors.Is(err, engine.ErrBrowserCrash) {
		t.Fatalf("Expected crash, got %v", err)
	}
	if people != nil {
		t.Errorf("Expected no partial results, got %d", len(people))
	}
}

func TestMutualConnections_AmbiguousStopsNavigation(t *testing.T) {
	page := &sitePage{handler: func(u *url.URL) string {
		return resultsHTML(person{"jane-a", "Jane Smith", "PM"}, person{"jane-b", "Jane Smith", "Engineer"})
	}}
	q := MutualConnections{Searcher: testSearcher(), Target: Target{Person: "Jane Smith", Company: "Acme"}}

	_, err := q.Run(context.Background(), page)
	if engine.CodeOf(err) != engine.ErrCodeAmbiguous {
		t.Fatalf("Expected AMBIGUOUS_MATCH, got %v", err)
	}
	if !strings.Contains(err.Error(), "profile_url") {
		t.Errorf("Error should ask for a profile URL: %v", err)
	}
	if len(page.visits) != 1 {
		t.Errorf("Expected only the lookup search to load, got %v", page.visits)
	}
}

func TestMutualConnections_NoMatch(t *testing.T) {
	page := &sitePage{handler: func(*url.URL) string { return resultsHTML() }}
	q := MutualConnections{Searcher: testSearcher(), Target: Target{Person: "Ghost", Company: "Acme"}}

	_, err := q.Run(context.Background(), page)
	var ee *engine.EngineError
	if !errors.As(err, &ee) || ee.Code != engine.ErrCodeAmbiguous {
		t.Fatalf("Expected AMBIGUOUS_MATCH, got %v", err)
	}
	if ee.Details["matches"] != 0 {
		t.Errorf("Expected 0 matches, got %v", ee.Details["matches"])
	}
}

func TestMutualConnections_ByName(t *testing.T) {
	page := &sitePage{handler: func(u *url.URL) string {
		switch {
		case u.Query().Get("keywords") == "Bob One":
			return resultsHTML(person{"b1", "Bob One", "PM"})
		default:
			return roleSite(u)
		}
	}}
	q := MutualConnections{Searcher: testSearcher(), Target: Target{Person: "Bob One", Company: "Acme"}}

	people, err := q.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("Expected 2 mutual connections, got %d", len(people))
	}
	if q.ResultField() != models.FieldMutualConnections {
		t.Errorf("Expected results under %s, got %s", models.FieldMutualConnections, q.ResultField())
	}
}

func TestMutualConnections_NoLinkIsEmpty(t *testing.T) {
	page := &sitePage{handler: roleSite}
	q := MutualConnections{Searcher: testSearcher(), Target: Target{ProfileURL: "https://www.linkedin.com/in/b2/?trk=x"}}

	people, err := q.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if people == nil || len(people) != 0 {
		t.Errorf("Expected empty result, got %v", people)
	}
	if page.visits[0] != "https://www.linkedin.com/in/b2" {
		t.Errorf("Expected canonical profile URL, got %s", page.visits[0])
	}
}

func TestMutualConnections_InvalidProfileURL(t *testing.T) {
	page := &sitePage{handler: roleSite}
	q := MutualConnections{Searcher: testSearcher(), Target: Target{ProfileURL: "https://example.com/in/x"}}

	_, err := q.Run(context.Background(), page)
	if engine.CodeOf(err) != engine.ErrCodePrecondition {
		t.Errorf("Expected PRECONDITION, got %v", err)
	}
	if len(page.visits) != 0 {
		t.Errorf("Expected no navigation, got %v", page.visits)
	}
}

func TestConnectionsOfConnection(t *testing.T) {
	var searched string
	page := &sitePage{handler: func(u *url.URL) string {
		if strings.HasPrefix(u.Path, "/in/") {
			return profileHTML("1st", `<a href="/search/results/people/?connectionOf=%5B%22ACoAAB123%22%5D&amp;network=%5B%22F%22%2C%22S%22%5D">500+ connections</a>`)
		}
		if u.Query().Get("connectionOf") == `["ACoAAB123"]` {
			searched = u.String()
			if u.Query().Get("page") == "1" {
				return resultsHTML(person{"c1", "Cara", "Engineer"}, person{"c2", "Cole", "Engineer"})
			}
		}
		return resultsHTML()
	}}
	q := ConnectionsOfConnection{Searcher: testSearcher(), Target: Target{ProfileURL: "https://www.linkedin.com/in/jane"}, Company: "Globex"}

	people, err := q.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("Expected 2 people, got %d", len(people))
	}
	for _, p := range people {
		if p.ConnectionLevel != 2 {
			t.Errorf("Expected level 2 for %s, got %d", p.Name, p.ConnectionLevel)
		}
	}

	u, _ := url.Parse(searched)
	if got := u.Query().Get("company"); got != "Globex" {
		t.Errorf("Expected company filter Globex, got %q", got)
	}
	if got := u.Query().Get("network"); got != `["F","S"]` {
		t.Errorf("Expected network filter, got %q", got)
	}
}

func TestConnectionsOfConnection_RequiresDirect(t *testing.T) {
	page := &sitePage{handler: func(u *url.URL) string {
		return profileHTML("2nd", `<a href="/search/results/people/?connectionOf=%5B%22X%22%5D">connections</a>`)
	}}
	q := ConnectionsOfConnection{Searcher: testSearcher(), Target: Target{ProfileURL: "https://www.linkedin.com/in/jane"}, Company: "Globex"}

	_, err := q.Run(context.Background(), page)
	if engine.CodeOf(err) != engine.ErrCodePrecondition {
		t.Fatalf("Expected PRECONDITION, got %v", err)
	}
	if !strings.Contains(err.Error(), "direct connection") {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestConnectionsOfConnection_HiddenList(t *testing.T) {
	page := &sitePage{handler: func(u *url.URL) string { return profileHTML("1st", "") }}
	q := ConnectionsOfConnection{Searcher: testSearcher(), Target: Target{ProfileURL: "https://www.linkedin.com/in/jane"}, Company: "Globex"}

	_, err := q.Run(context.Background(), page)
	if engine.CodeOf(err) != engine.ErrCodePrecondition {
		t.Fatalf("Expected PRECONDITION, got %v", err)
	}
}

func TestURLs(t *testing.T) {
	u, err := url.Parse(CompanySearchURL("Acme Corp", "Product Manager", NetworkSecond))
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "www.linkedin.com" || u.Path != "/search/results/people/" {
		t.Errorf("Unexpected search location: %s", u)
	}
	q := u.Query()
	if q.Get("company") != "Acme Corp" || q.Get("title") != "Product Manager" || q.Get("network") != `["S"]` {
		t.Errorf("Unexpected query: %v", q)
	}

	u, _ = url.Parse(PersonSearchURL("José García", "Acme"))
	if u.Query().Get("keywords") != "José García" || u.Query().Get("origin") != "GLOBAL_SEARCH_HEADER" {
		t.Errorf("Unexpected person search: %s", u)
	}

	if q := mustQuery(t, CompanySearchURL("Acme", "", NetworkDirect)); q.Has("title") {
		t.Error("Company search without role should not filter by title")
	}
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u.Query()
}
