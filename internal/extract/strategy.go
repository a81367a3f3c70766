package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

const (
	// BannerSentinel marks promotional cards mixed into the result list
	BannerSentinel = ".search-nec__banner-card"

	profileAnchor = `a[href*="/in/"]`
	insightBlocks = ".entity-result__insights, .reusable-search-simple-insight, .entity-result__simple-insight"
)

// Strategy locates candidate person blocks in a results page
type Strategy interface {
	Name() string
	// Blocks returns the candidate blocks, or nil when the strategy does not
	// recognize the page.
	Blocks(doc *goquery.Document) *goquery.Selection
}

// selectorStrategy returns the matches of the first selector that finds anything
type selectorStrategy struct {
	name      string
	selectors []string
}

func (s selectorStrategy) Name() string { return s.name }

func (s selectorStrategy) Blocks(doc *goquery.Document) *goquery.Selection {
	for _, sel := range s.selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// ClassStrategy matches the class names result cards have carried so far.
func ClassStrategy() Strategy {
	return selectorStrategy{
		name: "class",
		selectors: []string{
			".mb1",
			"li.reusable-search__result-container",
			".entity-result",
		},
	}
}

// StructureStrategy relies on list structure and data attributes rather than
// class names.
func StructureStrategy() Strategy {
	return selectorStrategy{
		name: "structure",
		selectors: []string{
			`ul[role="list"] > li`,
			".search-result",
			"[data-chameleon-result-urn]",
			`[data-view-name="search-entity-result-universal-template"]`,
		},
	}
}

// attributeStrategy groups every profile link under its nearest list item.
type attributeStrategy struct{}

// AttributeStrategy is the last resort: any profile link on the page is a person.
func AttributeStrategy() Strategy { return attributeStrategy{} }

func (attributeStrategy) Name() string { return "attribute" }

func (attributeStrategy) Blocks(doc *goquery.Document) *goquery.Selection {
	seen := make(map[*html.Node]bool)
	var nodes []*html.Node

	doc.Find(profileAnchor).Each(func(_ int, a *goquery.Selection) {
		if a.Closest(insightBlocks).Length() > 0 {
			return
		}
		block := a.Closest("li")
		if block.Length() == 0 {
			block = a.Parent()
		}
		if block.Length() == 0 {
			return
		}
		n := block.Nodes[0]
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	})

	if len(nodes) == 0 {
		return nil
	}
	return doc.FindNodes(nodes...)
}

// DefaultStrategies returns the strategies in the order they are tried
func DefaultStrategies() []Strategy {
	return []Strategy{ClassStrategy(), StructureStrategy(), AttributeStrategy()}
}

// parseBlocks converts blocks into records, dropping banners, nameless
// blocks and repeated profiles.
func parseBlocks(blocks *goquery.Selection) []models.PersonRecord {
	people := []models.PersonRecord{}
	if blocks == nil {
		return people
	}

	seen := make(map[string]bool)
	blocks.Each(func(_ int, block *goquery.Selection) {
		person, ok := parseBlock(block)
		if !ok {
			return
		}
		if person.ProfileURL != "" {
			if seen[person.ProfileURL] {
				return
			}
			seen[person.ProfileURL] = true
		}
		people = append(people, person)
	})
	return people
}

// parseBlock reads one person block. Role and location are the two element
// siblings following the outermost element that holds the name.
func parseBlock(block *goquery.Selection) (models.PersonRecord, bool) {
	if block.Is(BannerSentinel) || block.Find(BannerSentinel).Length() > 0 {
		return models.PersonRecord{}, false
	}

	anchor := block.Find(profileAnchor).FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.Closest(insightBlocks).Length() == 0
	}).First()
	if anchor.Length() == 0 {
		return models.PersonRecord{}, false
	}

	name := personName(anchor)
	if name == "" {
		return models.PersonRecord{}, false
	}

	person := models.PersonRecord{
		Name:              name,
		ProfileURL:        urlutil.CanonicalProfileURL(anchor.AttrOr("href", "")),
		MutualConnections: []models.PersonRecord{},
	}

	holder := nameHolder(block, anchor)
	if holder != nil {
		role := holder.Next()
		person.Role = visibleText(role)
		if role.Length() > 0 {
			person.Location = visibleText(role.Next())
		}
	}

	return person, true
}

// personName prefers the aria-hidden span the site renders the display name
// in, then the first visible text of the link.
func personName(anchor *goquery.Selection) string {
	var name string
	anchor.Find(`span[aria-hidden="true"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name = collapse(s.Text())
		return name == ""
	})
	if name == "" {
		name = firstVisibleText(anchor)
	}
	if strings.EqualFold(name, "LinkedIn Member") || strings.EqualFold(name, "Unknown") {
		return ""
	}
	return name
}

// nameHolder walks from the block down toward the anchor, skipping
// single-child wrappers, and returns the first element on that path with a
// following element sibling.
func nameHolder(block, anchor *goquery.Selection) *goquery.Selection {
	blockNode := block.Nodes[0]

	var path []*goquery.Selection
	for cur := anchor; cur.Length() > 0 && cur.Nodes[0] != blockNode; cur = cur.Parent() {
		path = append(path, cur)
	}

	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Next().Length() > 0 {
			return path[i]
		}
	}
	return nil
}
