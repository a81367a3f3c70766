package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

const (
	// ResultsContainer is present once a search results page has rendered
	ResultsContainer = ".search-results-container"

	DefaultContainerTimeout = 30 * time.Second
	DefaultSettle           = 5 * time.Second
)

// Extractor reads the people shown on a loaded results page.
//
// Scraping failures are never errors: a page that does not render or does
// not match any strategy yields an empty slice. The error is non-nil only
// when the browser crashed or ctx was cancelled, since neither can be
// recovered by moving on to the next page.
type Extractor interface {
	Extract(ctx context.Context, page Page) ([]models.PersonRecord, error)
}

// ExtractFunc adapts a function to the Extractor interface
type ExtractFunc func(ctx context.Context, page Page) ([]models.PersonRecord, error)

// Extract calls f(ctx, page)
func (f ExtractFunc) Extract(ctx context.Context, page Page) ([]models.PersonRecord, error) {
	return f(ctx, page)
}

// PageExtractor waits for the results container, lets client-side rendering
// settle, then parses an HTML snapshot with its strategies.
type PageExtractor struct {
	Strategies        []Strategy
	ContainerSelector string
	ContainerTimeout  time.Duration
	Settle            time.Duration
}

// NewPageExtractor returns an extractor with the default strategies and timings
func NewPageExtractor() *PageExtractor {
	return &PageExtractor{
		Strategies:        DefaultStrategies(),
		ContainerSelector: ResultsContainer,
		ContainerTimeout:  DefaultContainerTimeout,
		Settle:            DefaultSettle,
	}
}

// Extract implements Extractor
func (e *PageExtractor) Extract(ctx context.Context, page Page) ([]models.PersonRecord, error) {
	empty := []models.PersonRecord{}

	if e.ContainerSelector != "" {
		if err := page.WaitVisible(ctx, e.ContainerSelector, e.ContainerTimeout); err != nil {
			if fatal(ctx, err) {
				return nil, err
			}
			log.Debug().
				Str("component", "browser").
				Str("selector", e.ContainerSelector).
				Err(err).
				Msg("Results container not found")
			return empty, nil
		}
	}

	if e.Settle > 0 {
		if err := page.Sleep(ctx, e.Settle); err != nil {
			if fatal(ctx, err) {
				return nil, err
			}
			return empty, nil
		}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		if fatal(ctx, err) {
			return nil, err
		}
		log.Debug().Str("component", "browser").Err(err).Msg("Failed to read page HTML")
		return empty, nil
	}

	return e.ExtractHTML(html), nil
}

// ExtractHTML runs the strategies over an HTML document. The first strategy
// that yields at least one named person wins.
func (e *PageExtractor) ExtractHTML(html string) []models.PersonRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to parse page HTML")
		return []models.PersonRecord{}
	}

	strategies := e.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	for _, strategy := range strategies {
		blocks := strategy.Blocks(doc)
		if blocks == nil {
			continue
		}
		people := parseBlocks(blocks)
		log.Debug().
			Str("component", "browser").
			Str("strategy", strategy.Name()).
			Int("blocks", blocks.Length()).
			Int("people", len(people)).
			Msg("Extraction strategy applied")
		if len(people) > 0 {
			return people
		}
	}

	return []models.PersonRecord{}
}

// fatal reports whether err must stop the crawl rather than count as an empty page.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, engine.ErrBrowserCrash)
}
