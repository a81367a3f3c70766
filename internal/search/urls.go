package search

import (
	"net/url"

	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

const peopleSearchPath = "/search/results/people/"

// Network facet values and the connection level each one means
const (
	NetworkDirect = "F"
	NetworkSecond = "S"
	NetworkOut    = "O"
)

type bucket struct {
	network string
	level   int
}

// buckets are searched in this order, so direct connections come first
var buckets = []bucket{
	{NetworkDirect, models.LevelDirect},
	{NetworkSecond, models.LevelMutual},
	{NetworkOut, models.LevelDistant},
}

// facet formats a list facet the way the site expects: ["F","S"]
func facet(values ...string) string {
	out := "["
	for i, v := range values {
		if i > 0 {
			out += ","
		}
		out += `"` + v + `"`
	}
	return out + "]"
}

func peopleSearch(q url.Values) string {
	return urlutil.SiteBase + peopleSearchPath + "?" + q.Encode()
}

// CompanySearchURL lists members at company within one network bucket,
// optionally filtered by title.
func CompanySearchURL(company, role, network string) string {
	q := url.Values{}
	q.Set("company", company)
	q.Set("network", facet(network))
	if role != "" {
		q.Set("title", role)
	}
	q.Set("origin", "FACETED_SEARCH")
	return peopleSearch(q)
}

// PersonSearchURL looks a member up by name at a company
func PersonSearchURL(person, company string) string {
	q := url.Values{}
	q.Set("keywords", person)
	if company != "" {
		q.Set("company", company)
	}
	q.Set("origin", "GLOBAL_SEARCH_HEADER")
	return peopleSearch(q)
}

// ConnectionsOfURL lists the connections of memberID working at company
func ConnectionsOfURL(memberID, company string) string {
	q := url.Values{}
	q.Set("connectionOf", facet(memberID))
	q.Set("network", facet(NetworkDirect, NetworkSecond))
	if company != "" {
		q.Set("company", company)
	}
	q.Set("origin", "MEMBER_PROFILE_CANNED_SEARCH")
	return peopleSearch(q)
}
