// Package assemble merges translated per-page markup into one document.
package assemble

import (
	"regexp"
	"strings"

	"github.com/doctrans/doctrans/pkg/log"
)

// Full-document wrapper tags are stripped from each page before it is
// nested inside the combined document.
var wrapperRes = []*regexp.Regexp{
	regexp.MustCompile(`</?html[^>]*>`),
	regexp.MustCompile(`</?head[^>]*>`),
	regexp.MustCompile(`</?body[^>]*>`),
}

// Combine wraps each page in a page container and concatenates them, in
// input order, inside a single document container. Pure text
// transformation: malformed input passes through unchanged.
func Combine(pageContents []string) string {
	var sb strings.Builder
	sb.WriteString("<div class='document'>\n")
	for _, content := range pageContents {
		for _, re := range wrapperRes {
			content = re.ReplaceAllString(content, "")
		}
		sb.WriteString("<div class='page'>\n")
		sb.WriteString(content)
		sb.WriteString("\n</div>\n")
	}
	sb.WriteString("</div>")

	combined := sb.String()
	log.Info("Combined %d pages into a single document of %d chars",
		len(pageContents), len(combined))
	return combined
}
