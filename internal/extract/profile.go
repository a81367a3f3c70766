package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
)

// ProfileReady is present once a profile's top card has rendered
const ProfileReady = ".ph5"

// topCardSelectors narrow profile lookups to the header card when it can be found
var topCardSelectors = []string{".ph5.pb5", ".pv-top-card", "main"}

// mutualMarkers appear in the destination of a "mutual connections" link
var mutualMarkers = []string{"facetconnectionof", "sharedconnections", "mutual"}

var degreePattern = regexp.MustCompile(`\b(1st|2nd|3rd)\b`)

// badgePattern matches a text node that holds nothing but a degree badge
var badgePattern = regexp.MustCompile(`^(?:·\s*)?(1st|2nd|3rd)\+?(?:\s+degree(?:\s+connection)?)?$`)

// Profile is a parsed snapshot of a member profile page
type Profile struct {
	doc     *goquery.Document
	topCard *goquery.Selection
	// hasCard is false when topCard fell back to main or the whole page
	hasCard bool
}

// ParseProfile parses a profile page snapshot
func ParseProfile(html string) (*Profile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	p := &Profile{doc: doc, topCard: doc.Selection}
	for i, sel := range topCardSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			p.topCard = found
			p.hasCard = i < len(topCardSelectors)-1
			break
		}
	}
	return p, nil
}

// MutualLink returns the absolute URL of the mutual connections list, or ""
// when the profile does not show one. A link whose destination carries a
// mutual-connections marker wins over one that merely says "mutual".
func (p *Profile) MutualLink() string {
	anchors := p.topCard.Find("a[href]")

	var link string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.ToLower(a.AttrOr("href", ""))
		for _, marker := range mutualMarkers {
			if strings.Contains(href, marker) {
				link = a.AttrOr("href", "")
				return false
			}
		}
		return true
	})
	if link != "" {
		return urlutil.ResolveURL(urlutil.SiteBase, link)
	}

	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(visibleText(a)), "mutual") {
			link = a.AttrOr("href", "")
			return false
		}
		return true
	})
	if link == "" {
		return ""
	}
	return urlutil.ResolveURL(urlutil.SiteBase, link)
}

// ConnectionsOf returns the member id from the profile's own connections
// link, or "" when the link is not shown (it is only visible for direct
// connections who share their list).
func (p *Profile) ConnectionsOf() string {
	var id string
	p.doc.Find(`a[href*="connectionOf="]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(visibleText(a)), "mutual") {
			return true
		}
		id = parseMemberList(urlutil.QueryParam(a.AttrOr("href", ""), "connectionOf"))
		return id == ""
	})
	return id
}

// Degree returns the connection degree badge on the top card, or 0 when
// none is shown. Without a badge class only a text node that is a bare badge
// on a recognized top card counts, so a headline like "1st place" does not.
func (p *Profile) Degree() int {
	for _, sel := range []string{".dist-value", ".distance-badge"} {
		if d := parseDegree(visibleText(p.topCard.Find(sel).First())); d > 0 {
			return d
		}
	}
	if !p.hasCard {
		return 0
	}

	degree := 0
	for _, n := range p.topCard.Nodes {
		walkText(n, func(text string) bool {
			if badgePattern.MatchString(text) {
				degree = parseDegree(text)
				return false
			}
			return true
		})
	}
	return degree
}

func parseDegree(text string) int {
	m := degreePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	switch m[1] {
	case "1st":
		return 1
	case "2nd":
		return 2
	default:
		return 3
	}
}

// parseMemberList unwraps a facet value like ["ACoAAB123"] into ACoAAB123.
func parseMemberList(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	if i := strings.Index(v, ","); i >= 0 {
		v = v[:i]
	}
	return strings.Trim(v, `" `)
}
