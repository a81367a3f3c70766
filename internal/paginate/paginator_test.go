package paginate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// scriptedPage serves a fixed number of people per page number
type scriptedPage struct {
	counts  []int
	loads   []string
	current string
	navErr  map[int]error
}

func (p *scriptedPage) Navigate(ctx context.Context, url string) error {
	p.loads = append(p.loads, url)
	p.current = url
	if err, ok := p.navErr[len(p.loads)]; ok {
		return err
	}
	return nil
}

func (p *scriptedPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *scriptedPage) HTML(ctx context.Context) (string, error) { return "", nil }

func (p *scriptedPage) Sleep(ctx context.Context, d time.Duration) error { return nil }

func (p *scriptedPage) extractor() extract.Extractor {
	return extract.ExtractFunc(func(ctx context.Context, _ extract.Page) ([]models.PersonRecord, error) {
		var n int
		fmt.Sscanf(urlutil.QueryParam(p.current, "page"), "%d", &n)
		count := 0
		if n >= 1 && n <= len(p.counts) {
			count = p.counts[n-1]
		}
		people := make([]models.PersonRecord, count)
		for i := range people {
			people[i] = models.PersonRecord{Name: fmt.Sprintf("p%d-%d", n, i)}
		}
		return people, nil
	})
}

func TestAll_StopsAtEmptyPage(t *testing.T) {
	page := &scriptedPage{counts: []int{10, 10, 0, 10}}
	p := &Paginator{HardCap: DefaultHardCap}

	people, err := p.All(context.Background(), page, "https://www.linkedin.com/search/results/people/?company=Acme&page=7", page.extractor(), 0)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}

	if len(people) != 20 {
		t.Errorf("Expected 20 people, got %d", len(people))
	}
	if len(page.loads) != 3 {
		t.Fatalf("Expected exactly 3 page loads, got %d: %v", len(page.loads), page.loads)
	}
	for i, u := range page.loads {
		if got := urlutil.QueryParam(u, "page"); got != fmt.Sprint(i+1) {
			t.Errorf("Load %d requested page %q", i, got)
		}
		if got := urlutil.QueryParam(u, "company"); got != "Acme" {
			t.Errorf("Load %d lost the company parameter: %s", i, u)
		}
	}
	if people[0].Name != "p1-0" || people[19].Name != "p2-9" {
		t.Errorf("Pages were not concatenated in order: first=%s last=%s", people[0].Name, people[19].Name)
	}
}

func TestAll_RespectsMaxPages(t *testing.T) {
	page := &scriptedPage{counts: []int{5, 5, 5, 5}}
	p := &Paginator{HardCap: DefaultHardCap}

	people, err := p.All(context.Background(), page, "https://www.linkedin.com/search/results/people/", page.extractor(), 2)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(people) != 10 || len(page.loads) != 2 {
		t.Errorf("Expected 10 people in 2 loads, got %d in %d", len(people), len(page.loads))
	}
}

func TestAll_HardCap(t *testing.T) {
	counts := make([]int, 200)
	for i := range counts {
		counts[i] = 1
	}
	page := &scriptedPage{counts: counts}
	p := New()
	p.Settle = 0

	people, err := p.All(context.Background(), page, "https://www.linkedin.com/search/results/people/", page.extractor(), 500)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(page.loads) != DefaultHardCap {
		t.Errorf("Expected %d loads, got %d", DefaultHardCap, len(page.loads))
	}
	if len(people) != DefaultHardCap {
		t.Errorf("Expected %d people, got %d", DefaultHardCap, len(people))
	}
}

func TestAll_NavigationErrorAborts(t *testing.T) {
	crash := fmt.Errorf("navigate: %w", engine.ErrBrowserCrash)
	page := &scriptedPage{counts: []int{3, 3, 3}, navErr: map[int]error{2: crash}}
	p := &Paginator{HardCap: DefaultHardCap}

	people, err := p.All(context.Background(), page, "https://www.linkedin.com/search/results/people/", page.extractor(), 0)
	if !errors.Is(err, engine.ErrBrowserCrash) {
		t.Fatalf("Expected crash error, got %v", err)
	}
	if people != nil {
		t.Errorf("Expected no results on error, got %d", len(people))
	}
}

func TestAll_CancelledContext(t *testing.T) {
	page := &scriptedPage{counts: []int{3}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().All(ctx, page, "https://www.linkedin.com/search/results/people/", page.extractor(), 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(page.loads) != 0 {
		t.Errorf("Expected no loads, got %d", len(page.loads))
	}
}

func TestLimit(t *testing.T) {
	p := &Paginator{HardCap: 50}
	tests := map[int]int{0: 50, -1: 50, 3: 3, 50: 50, 80: 50}
	for in, want := range tests {
		if got := p.Limit(in); got != want {
			t.Errorf("Limit(%d) = %d, want %d", in, got, want)
		}
	}
}
