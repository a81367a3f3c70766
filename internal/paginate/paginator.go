// Package paginate walks numbered search result pages until they run out.
package paginate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

const (
	// DefaultHardCap bounds every walk, whatever the caller asks for
	DefaultHardCap = 50

	DefaultSettle = 2 * time.Second
)

// Paginator loads page=1, page=2, ... of a search and concatenates the results
type Paginator struct {
	HardCap int
	Settle  time.Duration
}

// New returns a paginator with the default cap and settle delay
func New() *Paginator {
	return &Paginator{HardCap: DefaultHardCap, Settle: DefaultSettle}
}

// Limit returns the number of pages a walk with maxPages may load.
func (p *Paginator) Limit(maxPages int) int {
	hardCap := p.HardCap
	if hardCap <= 0 {
		hardCap = DefaultHardCap
	}
	if maxPages > 0 && maxPages < hardCap {
		return maxPages
	}
	return hardCap
}

// All walks the pages of initialURL, stopping at the first page that yields
// nobody or when the page limit is reached. A navigation failure aborts the
// walk and is returned; records gathered so far are discarded with it.
func (p *Paginator) All(ctx context.Context, page extract.Page, initialURL string, extractor extract.Extractor, maxPages int) ([]models.PersonRecord, error) {
	base, err := urlutil.WithPage(initialURL, 0)
	if err != nil {
		return nil, err
	}

	limit := p.Limit(maxPages)
	all := []models.PersonRecord{}

	for n := 1; n <= limit; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL, err := urlutil.WithPage(base, n)
		if err != nil {
			return nil, err
		}

		if err := page.Navigate(ctx, pageURL); err != nil {
			return nil, fmt.Errorf("loading results page %d: %w", n, err)
		}

		if p.Settle > 0 {
			if err := page.Sleep(ctx, p.Settle); err != nil {
				return nil, err
			}
		}

		people, err := extractor.Extract(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("extracting results page %d: %w", n, err)
		}

		log.Debug().
			Str("component", "browser").
			Str("url", pageURL).
			Int("page", n).
			Int("people", len(people)).
			Msg("Results page extracted")

		if len(people) == 0 {
			break
		}
		all = append(all, people...)

		if n == limit {
			log.Info().
				Str("url", base).
				Int("pages", limit).
				Msg("Page limit reached")
		}
	}

	return all, nil
}
