package slackbot

import (
	"regexp"
	"strings"
)

// linkPattern matches Slack link markup: <https://x> or <https://x|label>.
var linkPattern = regexp.MustCompile(`<(https?://[^|>\s]+)(?:\|[^>]*)?>`)

var unescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")

// ExtractURLs returns the http(s) links of a Slack message text, in order of
// first appearance, without duplicates.
func ExtractURLs(text string) []string {
	matches := linkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	urls := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		u := unescaper.Replace(m[1])
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}
