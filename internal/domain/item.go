package domain

import (
	"regexp"
	"strings"
)

// productCodePattern matches the retailer product code embedded after /dp/.
// The code runs until the next slash, query or fragment.
var productCodePattern = regexp.MustCompile(`/dp/([A-Za-z0-9]+)(?:[/?#]|$)`)

// ItemRef is what a service call needs to locate an item.
type ItemRef struct {
	Kind ServiceKind
	URL  string
	// Code is the retailer product code (catalog items only).
	Code string
}

// ResolveItem extracts the identifier used to look the item up remotely.
//
// Catalog links carry a stable product code in the path, so no page fetch is
// needed. Read-later links are submitted as-is.
func ResolveItem(kind ServiceKind, rawURL string) (ItemRef, error) {
	rawURL = strings.TrimSpace(rawURL)
	switch kind {
	case CatalogService:
		u, ok := parseAbsolute(rawURL)
		if !ok {
			return ItemRef{}, ErrNoIdentifierFound
		}
		m := productCodePattern.FindStringSubmatch(u.EscapedPath())
		if m == nil {
			return ItemRef{}, ErrNoIdentifierFound
		}
		return ItemRef{Kind: kind, URL: rawURL, Code: strings.ToUpper(m[1])}, nil
	case ReadLaterService:
		return ItemRef{Kind: kind, URL: rawURL}, nil
	default:
		return ItemRef{}, ErrUnsupportedURL
	}
}

// SearchHint derives a human search query from a retailer URL, for the manual
// search link offered when the item can't be resolved automatically.
// Example: https://www.amazon.com/Left-Hand-Darkness-Ursula-Guin/s?k=x -> "Left Hand Darkness Ursula Guin"
func SearchHint(rawURL string) string {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return strings.TrimSpace(rawURL)
	}

	best := ""
	for _, seg := range strings.Split(u.Path, "/") {
		if strings.Count(seg, "-") > strings.Count(best, "-") {
			best = seg
		}
	}
	if best == "" {
		return rawURL
	}
	return strings.Join(strings.FieldsFunc(best, func(r rune) bool { return r == '-' || r == '_' }), " ")
}
