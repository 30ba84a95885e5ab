package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineStripsDocumentWrappers(t *testing.T) {
	combined := Combine([]string{
		"<html><body><p>A</p></body></html>",
		"<p>B</p>",
	})

	assert.True(t, strings.HasPrefix(combined, "<div class='document'>"))
	assert.True(t, strings.HasSuffix(combined, "</div>"))
	assert.Equal(t, 2, strings.Count(combined, "<div class='page'>"))
	assert.Contains(t, combined, "<p>A</p>")
	assert.Contains(t, combined, "<p>B</p>")
	assert.NotContains(t, combined, "<html>")
	assert.NotContains(t, combined, "</html>")
	assert.NotContains(t, combined, "<body>")
	assert.NotContains(t, combined, "</body>")
}

func TestCombinePreservesPageOrder(t *testing.T) {
	combined := Combine([]string{"<p>first</p>", "<p>second</p>", "<p>third</p>"})

	i1 := strings.Index(combined, "first")
	i2 := strings.Index(combined, "second")
	i3 := strings.Index(combined, "third")
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i3)
}

func TestCombineStripsWrappersWithAttributes(t *testing.T) {
	combined := Combine([]string{`<html lang="en"><head></head><body class="x"><p>A</p></body></html>`})

	assert.NotContains(t, combined, "html")
	assert.NotContains(t, combined, "head")
	assert.NotContains(t, combined, "body")
	assert.Contains(t, combined, "<p>A</p>")
}

func TestCombineEmptyInput(t *testing.T) {
	combined := Combine(nil)
	assert.Equal(t, "<div class='document'>\n</div>", combined)
}
