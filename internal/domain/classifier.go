package domain

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultRetailers are the registrable-domain labels of catalog retailers.
// "amazon" matches amazon.com, www.amazon.co.uk, smile.amazon.de, ...
var DefaultRetailers = []string{"amazon"}

// Classifier routes a URL to the service that handles it.
// It never touches the network.
type Classifier struct {
	retailers map[string]struct{}
}

// NewClassifier builds a classifier for the given retailer labels.
// Labels are matched case-insensitively; an empty list falls back to DefaultRetailers.
func NewClassifier(retailers []string) *Classifier {
	if len(retailers) == 0 {
		retailers = DefaultRetailers
	}
	c := &Classifier{retailers: make(map[string]struct{}, len(retailers))}
	for _, r := range retailers {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			c.retailers[r] = struct{}{}
		}
	}
	return c
}

// Classify returns CatalogService for retailer URLs and ReadLaterService for
// everything else, including malformed input.
func (c *Classifier) Classify(rawURL string) ServiceKind {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return ReadLaterService
	}
	if c.IsRetailerHost(u.Hostname()) {
		return CatalogService
	}
	return ReadLaterService
}

// IsRetailerHost reports whether host belongs to a configured retailer,
// with or without subdomains.
func (c *Classifier) IsRetailerHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(etld1)
	label := strings.TrimSuffix(etld1, "."+suffix)

	_, ok := c.retailers[label]
	return ok
}

// IsWellFormed reports whether rawURL is an absolute http(s) URL with a host.
func IsWellFormed(rawURL string) bool {
	_, ok := parseAbsolute(rawURL)
	return ok
}

func parseAbsolute(rawURL string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, false
	}
	if u.Hostname() == "" {
		return nil, false
	}
	return u, true
}
