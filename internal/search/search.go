// Package search turns each supported question about the member's network
// into a sequence of page loads and extractions.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	"github.com/mathursrus/LinkedIn-Network/internal/paginate"
	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// Query names, as echoed in job records
const (
	QueryCompany     = "company_people_search"
	QueryRole        = "role_search"
	QueryMutual      = "mutual_connections"
	QueryConnections = "connections_through_person"
)

// DefaultProfileTimeout bounds the wait for a profile's top card
const DefaultProfileTimeout = 15 * time.Second

// Strategy answers one query against a signed-in page
type Strategy interface {
	Name() string
	// ResultField is the job record key the results are stored under
	ResultField() string
	Run(ctx context.Context, page extract.Page) ([]models.PersonRecord, error)
}

// Searcher holds what every strategy shares
type Searcher struct {
	Paginator      *paginate.Paginator
	Extractor      extract.Extractor
	MaxPages       int
	ProfileTimeout time.Duration
}

// New returns a searcher. Nil arguments get the defaults.
func New(p *paginate.Paginator, e extract.Extractor, maxPages int) *Searcher {
	if p == nil {
		p = paginate.New()
	}
	if e == nil {
		e = extract.NewPageExtractor()
	}
	return &Searcher{
		Paginator:      p,
		Extractor:      e,
		MaxPages:       maxPages,
		ProfileTimeout: DefaultProfileTimeout,
	}
}

// Target identifies a member either by profile URL or by name and company
type Target struct {
	ProfileURL string
	Person     string
	Company    string
}

func (t Target) String() string {
	if t.ProfileURL != "" {
		return t.ProfileURL
	}
	return fmt.Sprintf("%s at %s", t.Person, t.Company)
}

// walk paginates url and stamps every record with level
func (s *Searcher) walk(ctx context.Context, page extract.Page, url string, level int) ([]models.PersonRecord, error) {
	people, err := s.Paginator.All(ctx, page, url, s.Extractor, s.MaxPages)
	if err != nil {
		return nil, err
	}
	for i := range people {
		people[i].ConnectionLevel = level
	}
	return people, nil
}

// searchBuckets runs one company search per network bucket
func (s *Searcher) searchBuckets(ctx context.Context, page extract.Page, company, role string) ([]models.PersonRecord, error) {
	people := []models.PersonRecord{}
	for _, b := range buckets {
		found, err := s.walk(ctx, page, CompanySearchURL(company, role, b.network), b.level)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("company", company).
			Str("role", role).
			Str("network", b.network).
			Int("people", len(found)).
			Msg("Network bucket searched")
		people = append(people, found...)
	}
	return people, nil
}

// attachMutuals looks up who links the member to every second-degree record.
// A failed lookup leaves that record with an empty list; a crash aborts.
func (s *Searcher) attachMutuals(ctx context.Context, page extract.Page, people []models.PersonRecord) error {
	for i := range people {
		if people[i].ConnectionLevel != models.LevelMutual || people[i].ProfileURL == "" {
			continue
		}
		mutuals, err := s.mutualsOf(ctx, page, people[i].ProfileURL)
		if err != nil {
			if fatal(ctx, err) {
				return err
			}
			log.Warn().
				Str("url", people[i].ProfileURL).
				Err(err).
				Msg("Mutual connection lookup failed")
			mutuals = []models.PersonRecord{}
		}
		people[i].MutualConnections = mutuals
	}
	return nil
}

// mutualsOf returns the member's connections shared with profileURL
func (s *Searcher) mutualsOf(ctx context.Context, page extract.Page, profileURL string) ([]models.PersonRecord, error) {
	profile, err := s.openProfile(ctx, page, profileURL)
	if err != nil {
		return nil, err
	}

	link := profile.MutualLink()
	if link == "" {
		log.Debug().Str("url", profileURL).Msg("No mutual connections link on profile")
		return []models.PersonRecord{}, nil
	}
	return s.walk(ctx, page, link, models.LevelDirect)
}

// openProfile loads a profile page and parses it. A top card that never
// shows is tolerated; the snapshot is parsed anyway.
func (s *Searcher) openProfile(ctx context.Context, page extract.Page, profileURL string) (*extract.Profile, error) {
	if err := page.Navigate(ctx, profileURL); err != nil {
		return nil, err
	}

	if err := page.WaitVisible(ctx, extract.ProfileReady, s.ProfileTimeout); err != nil {
		if fatal(ctx, err) {
			return nil, err
		}
		log.Debug().Str("url", profileURL).Err(err).Msg("Profile top card not found")
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return extract.ParseProfile(html)
}

// resolve returns the canonical profile URL of t. A name lookup must match
// exactly one member; anything else is an error and nothing further is loaded.
func (s *Searcher) resolve(ctx context.Context, page extract.Page, t Target) (string, error) {
	if t.ProfileURL != "" {
		if err := urlutil.ValidateProfileURL(t.ProfileURL); err != nil {
			return "", engine.Precondition(err.Error())
		}
		return urlutil.CanonicalProfileURL(t.ProfileURL), nil
	}

	if err := page.Navigate(ctx, PersonSearchURL(t.Person, t.Company)); err != nil {
		return "", err
	}
	found, err := s.Extractor.Extract(ctx, page)
	if err != nil {
		return "", err
	}

	var urls []string
	seen := make(map[string]bool)
	for _, p := range found {
		if p.ProfileURL == "" || seen[p.ProfileURL] {
			continue
		}
		seen[p.ProfileURL] = true
		urls = append(urls, p.ProfileURL)
	}

	if len(urls) != 1 {
		return "", engine.Ambiguous(t.Person, t.Company, len(urls))
	}
	log.Debug().Str("person", t.Person).Str("url", urls[0]).Msg("Profile resolved")
	return urls[0], nil
}

// fatal reports whether err must end the job rather than degrade one record
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, engine.ErrBrowserCrash) || errors.Is(err, engine.ErrSessionClosed)
}
