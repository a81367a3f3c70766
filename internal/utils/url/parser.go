package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SiteBase is the origin relative links on scraped pages resolve against
const SiteBase = "https://www.linkedin.com"

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ValidateProfileURL checks that urlStr points at a member profile
func ValidateProfileURL(urlStr string) error {
	if err := ValidateURL(urlStr); err != nil {
		return err
	}
	parsed, _ := url.Parse(urlStr)
	host := strings.ToLower(parsed.Host)
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return fmt.Errorf("invalid profile URL: unexpected host %s", parsed.Host)
	}
	if !strings.HasPrefix(parsed.Path, "/in/") || len(strings.Trim(parsed.Path, "/")) <= len("in") {
		return fmt.Errorf("invalid profile URL: path must start with /in/")
	}
	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string
func ResolveURL(base, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}

// CanonicalProfileURL resolves href against the site and drops the query,
// fragment and trailing slash so the same member always compares equal.
func CanonicalProfileURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(ResolveURL(SiteBase, href))
	if err != nil {
		return href
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// WithPage returns rawURL with its page parameter replaced by n. A
// non-positive n removes the parameter.
func WithPage(rawURL string, n int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	q := u.Query()
	q.Del("page")
	if n > 0 {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// QueryParam returns the first value of name in rawURL's query string.
func QueryParam(rawURL, name string) string {
	u, err := url.Parse(ResolveURL(SiteBase, rawURL))
	if err != nil {
		return ""
	}
	return u.Query().Get(name)
}
