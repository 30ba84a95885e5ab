package normalize

import (
	"regexp"
	"strings"
)

// preambleRes match commentary phrases models prepend despite being told
// not to. Anchored at the start, case-insensitive, applied in order.
var preambleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Translation:\s*`),
	regexp.MustCompile(`(?i)^Here's the translation:\s*`),
	regexp.MustCompile(`(?i)^Translated text:\s*`),
	regexp.MustCompile(`(?i)^Here is the translation:\s*`),
	regexp.MustCompile(`(?i)^Here's the HTML content translated to [^:]+:\s*`),
	regexp.MustCompile(`(?i)^The HTML content translated to [^:]+:\s*`),
	regexp.MustCompile(`(?i)^Translated HTML content:\s*`),
	regexp.MustCompile(`(?i)^Translated content:\s*`),
	regexp.MustCompile(`(?i)^Here is the HTML translated [^:]*:\s*`),
}

var firstTagRe = regexp.MustCompile(`<\w+`)

// StripFences removes surrounding markdown code-fence markers from model
// output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```html", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// StripPreamble removes known commentary prefixes from model output.
func StripPreamble(s string) string {
	s = strings.TrimSpace(s)
	for _, re := range preambleRes {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// FromFirstTag discards any leading text before the first markup tag.
// The second return is false when the input contains no tag at all.
func FromFirstTag(s string) (string, bool) {
	loc := firstTagRe.FindStringIndex(s)
	if loc == nil {
		return s, false
	}
	return s[loc[0]:], true
}

// StartsWithTag reports whether the trimmed input begins with a markup tag.
func StartsWithTag(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "<")
}
