package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitReturnsAtLeastOneChunk(t *testing.T) {
	chunks, err := Split("Hello world", 1000)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world", chunks[0])
}

func TestSplitRespectsMaxSize(t *testing.T) {
	text := "One sentence here. Another sentence here. A third sentence here. And a fourth one."
	chunks, err := Split(text, 45)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 45, "chunk %q", c)
	}
}

func TestSplitRejoinReconstructsInput(t *testing.T) {
	text := "First sentence. Second sentence. Third sentence. Fourth sentence."
	chunks, err := Split(text, 35)
	require.NoError(t, err)

	assert.Equal(t, text, strings.Join(chunks, " "))
}

func TestSplitOversizedSentenceOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 100)
	text := "Short. " + long + ". Tail."
	chunks, err := Split(text, 20)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Short.", chunks[0])
	assert.Equal(t, long+".", chunks[1])
	assert.Greater(t, len(chunks[1]), 20)
	assert.Equal(t, "Tail.", chunks[2])
}

func TestSplitEmptyInput(t *testing.T) {
	chunks, err := Split("", 100)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitInvalidMaxSize(t *testing.T) {
	_, err := Split("text", 0)
	assert.Error(t, err)
}

func TestSplitMarkupModeKeepsTagsIntact(t *testing.T) {
	html := "<p>First paragraph with some text.</p><p>Second paragraph with more text.</p><p>Third.</p>"
	s := &Splitter{MaxSize: 50, Mode: ModeMarkup}

	chunks, err := s.Split(html)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c, "<"), "chunk %q starts mid-text", c)
		assert.True(t, strings.HasSuffix(c, ">"), "chunk %q ends mid-tag", c)
		assert.Equal(t, strings.Count(c, "<p>"), strings.Count(c, "</p>"))
	}
	assert.Equal(t, html, strings.Join(chunks, ""))
}

func TestSplitMarkupModeOversizedElement(t *testing.T) {
	big := "<div>" + strings.Repeat("y", 80) + "</div>"
	s := &Splitter{MaxSize: 30, Mode: ModeMarkup}

	chunks, err := s.Split(big + "<p>small</p>")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, big, chunks[0])
	assert.Equal(t, "<p>small</p>", chunks[1])
}

func TestSplitMarkupModePlainText(t *testing.T) {
	s := &Splitter{MaxSize: 100, Mode: ModeMarkup}
	chunks, err := s.Split("just words")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just words", chunks[0])
}
