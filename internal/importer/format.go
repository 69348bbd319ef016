package importer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	titlePolicy = bluemonday.StrictPolicy()

	// Slack treats these three as control characters in message text.
	slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// sanitizeTitle strips any markup from a remote title and escapes it for Slack.
func sanitizeTitle(title string) string {
	plain := html.UnescapeString(titlePolicy.Sanitize(title))
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		return "this book"
	}
	return slackEscaper.Replace(plain)
}
