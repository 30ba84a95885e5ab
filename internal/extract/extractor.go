package extract

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/internal/normalize"
	"github.com/doctrans/doctrans/pkg/log"
)

// minContentLength is the smallest extraction output accepted as a real
// page. Anything shorter is treated as a failed read.
const minContentLength = 50

// VisionExtractor is the vision-model capability: one generate call per
// page image.
type VisionExtractor interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
}

// Extractor converts one rasterized page into structured HTML via a vision
// model. No internal retry; retry policy belongs to the caller.
type Extractor struct {
	vision  VisionExtractor
	timeout time.Duration
}

func NewExtractor(vision VisionExtractor, timeout time.Duration) *Extractor {
	return &Extractor{
		vision:  vision,
		timeout: timeout,
	}
}

// ExtractPage sends the page image to the vision model and returns cleaned,
// validated HTML with index nodes normalized and page styling prepended.
func (e *Extractor) ExtractPage(ctx context.Context, pageBytes []byte) (string, error) {
	start := time.Now()
	log.Info("Starting page content extraction (%d bytes)", len(pageBytes))

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.vision.Generate(ctx, extractionPrompt, pageBytes)
	if err != nil {
		if errs.IsKind(err, errs.KindConfig) {
			return "", err
		}
		return "", errs.Wrap(err, errs.KindProcessing, "failed to process page image")
	}

	content := normalize.StripFences(raw)
	content, found := normalize.FromFirstTag(content)
	if !found {
		return "", errs.New(errs.KindContent, "extracted content contains no markup")
	}

	content, err = normalizeIndexNodes(content)
	if err != nil {
		return "", errs.Wrap(err, errs.KindContent, "failed to parse extracted markup")
	}

	if !strings.Contains(content, "<style>") {
		content = pageStyle + "\n" + content
	}

	if len(content) < minContentLength {
		return "", errs.New(errs.KindContent, "invalid or insufficient content extracted from image").
			WithContext("length", len(content))
	}

	log.Info("Successfully extracted page content, length: %d chars, took %.2fs",
		len(content), time.Since(start).Seconds())
	return content, nil
}

// normalizeIndexNodes rewrites the text of every element carrying the
// "index" class through the OCR index normalizer.
func normalizeIndexNodes(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	changed := false
	doc.Find(".index").Each(func(_ int, sel *goquery.Selection) {
		original := strings.TrimSpace(sel.Text())
		corrected := normalize.Index(original)
		if corrected != original {
			sel.SetText(corrected)
			changed = true
		}
	})

	// Skip the re-render when nothing was corrected so untouched markup
	// passes through byte for byte.
	if !changed {
		return html, nil
	}

	return doc.Find("body").Html()
}
