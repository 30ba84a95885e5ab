package chunk

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/pkg/log"
)

// Mode selects the chunking strategy.
type Mode int

const (
	// ModeSentence splits on ". " boundaries. A boundary can fall inside
	// a tag or attribute; kept as the default for compatibility.
	ModeSentence Mode = iota
	// ModeMarkup splits on top-level element boundaries and never cuts
	// inside a tag.
	ModeMarkup
)

const sentenceDelimiter = ". "

// Splitter divides long text into size-bounded chunks.
type Splitter struct {
	MaxSize int
	Mode    Mode
}

func NewSplitter(maxSize int) *Splitter {
	return &Splitter{MaxSize: maxSize, Mode: ModeSentence}
}

// Split divides text into chunks no longer than MaxSize. A single sentence
// (or element, in markup mode) that alone exceeds MaxSize becomes its own
// oversized chunk.
func (s *Splitter) Split(text string) ([]string, error) {
	if s.MaxSize <= 0 {
		return nil, errs.New(errs.KindValidation, "chunk max size must be greater than 0")
	}

	var (
		chunks []string
		err    error
	)
	switch s.Mode {
	case ModeMarkup:
		chunks, err = s.splitMarkup(text)
	default:
		chunks = s.splitSentences(text)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("Split content into %d chunks (max size: %d)", len(chunks), s.MaxSize)
	return chunks, nil
}

// Split is the sentence-mode convenience used by the pipeline.
func Split(text string, maxSize int) ([]string, error) {
	return NewSplitter(maxSize).Split(text)
}

func (s *Splitter) splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	sentences := strings.Split(text, sentenceDelimiter)
	chunks := make([]string, 0)
	current := ""

	for i, sentence := range sentences {
		// Put the period back on every sentence except the last,
		// which keeps its original ending.
		if i < len(sentences)-1 {
			sentence += "."
		}

		switch {
		case current == "":
			current = sentence
		case len(current)+1+len(sentence) > s.MaxSize:
			chunks = append(chunks, strings.TrimSpace(current))
			current = sentence
		default:
			current += " " + sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

func (s *Splitter) splitMarkup(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, errs.Wrap(err, errs.KindContent, "failed to parse markup for chunking")
	}

	chunks := make([]string, 0)
	var current strings.Builder
	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		outer, err := goquery.OuterHtml(sel)
		if err != nil {
			return
		}
		if current.Len() > 0 && current.Len()+len(outer) > s.MaxSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(outer)
	})
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	// Plain text without element children falls through the DOM walk.
	if len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks, nil
}
