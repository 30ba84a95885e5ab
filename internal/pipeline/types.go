package pipeline

import "context"

// PageExtractor converts a rendered page image into structured markup.
type PageExtractor interface {
	ExtractPage(ctx context.Context, pageBytes []byte) (string, error)
}

// ChunkTranslator translates one markup chunk between two languages.
type ChunkTranslator interface {
	TranslateChunk(ctx context.Context, content, fromLang, toLang string) (string, error)
}

// Request describes one document translation run. Pages carry the
// rendered page images in document order (page 1 first). SourceLang may
// be empty, in which case the language is detected from the extracted
// text of each page.
type Request struct {
	ProcessID  string
	UserID     string
	FileName   string
	FileType   string
	SourceLang string
	TargetLang string
	Pages      [][]byte
}

// Result is the outcome of a completed run.
type Result struct {
	ProcessID  string
	HTML       string
	TotalPages int
	// Resumed is true when the run skipped pages recorded by an
	// earlier attempt with the same process id.
	Resumed bool
}
