package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, "<p>Hi</p>", StripFences("```html\n<p>Hi</p>\n```"))
	assert.Equal(t, "<p>Hi</p>", StripFences("```\n<p>Hi</p>\n```"))
	assert.Equal(t, "<p>Hi</p>", StripFences("<p>Hi</p>"))
}

func TestStripPreamble(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Translation: <p>Hola</p>", "<p>Hola</p>"},
		{"Here's the translation: <p>Hola</p>", "<p>Hola</p>"},
		{"here is the translation: <p>Hola</p>", "<p>Hola</p>"},
		{"Translated HTML content: <p>Hola</p>", "<p>Hola</p>"},
		{"Here's the HTML content translated to Spanish: <p>Hola</p>", "<p>Hola</p>"},
		{"The HTML content translated to French: <p>Salut</p>", "<p>Salut</p>"},
		{"Here is the HTML translated into German: <p>Hallo</p>", "<p>Hallo</p>"},
		{"<p>Untouched</p>", "<p>Untouched</p>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripPreamble(tt.input))
	}
}

func TestFromFirstTag(t *testing.T) {
	out, ok := FromFirstTag("Sure! Here you go <div class='page'>x</div>")
	assert.True(t, ok)
	assert.Equal(t, "<div class='page'>x</div>", out)

	out, ok = FromFirstTag("no markup here")
	assert.False(t, ok)
	assert.Equal(t, "no markup here", out)

	out, ok = FromFirstTag("<p>already clean</p>")
	assert.True(t, ok)
	assert.Equal(t, "<p>already clean</p>", out)
}

func TestStartsWithTag(t *testing.T) {
	assert.True(t, StartsWithTag("  <p>x</p>"))
	assert.False(t, StartsWithTag("text <p>x</p>"))
	assert.False(t, StartsWithTag(""))
}
