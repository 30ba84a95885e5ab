package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctrans/doctrans/internal/config"
	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/internal/persistence"
	"github.com/doctrans/doctrans/internal/progress"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	fn    func(pageBytes []byte) (string, error)
}

func (f *fakeExtractor) ExtractPage(_ context.Context, pageBytes []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(pageBytes)
	}
	return fmt.Sprintf("<div class='content'>text of %s</div>", pageBytes), nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	mu        sync.Mutex
	fromLangs []string
	fn        func(content string) (string, error)
}

func (f *fakeTranslator) TranslateChunk(_ context.Context, content, fromLang, _ string) (string, error) {
	f.mu.Lock()
	f.fromLangs = append(f.fromLangs, fromLang)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(content)
	}
	return "[it]" + content, nil
}

func (f *fakeTranslator) seenFromLangs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fromLangs...)
}

func newTestTracker(t *testing.T) *progress.Tracker {
	t.Helper()
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "doctrans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return progress.NewTracker(store)
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{ChunkMaxSize: 4000, PageConcurrency: 2, MaxAttempts: 3}
}

func testRequest(pages int) Request {
	req := Request{
		ProcessID:  "proc-1",
		UserID:     "user-1",
		FileName:   "contract.pdf",
		FileType:   "pdf",
		SourceLang: "en",
		TargetLang: "it",
	}
	for i := 1; i <= pages; i++ {
		req.Pages = append(req.Pages, []byte(fmt.Sprintf("page-%d", i)))
	}
	return req
}

func TestTranslateDocumentValidation(t *testing.T) {
	svc := NewService(&fakeExtractor{}, &fakeTranslator{}, newTestTracker(t), testPipelineConfig())
	ctx := context.Background()

	_, err := svc.TranslateDocument(ctx, Request{TargetLang: "it", Pages: [][]byte{[]byte("p")}})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	_, err = svc.TranslateDocument(ctx, Request{ProcessID: "proc-1", Pages: [][]byte{[]byte("p")}})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	_, err = svc.TranslateDocument(ctx, Request{ProcessID: "proc-1", TargetLang: "it"})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestTranslateDocumentHappyPath(t *testing.T) {
	tracker := newTestTracker(t)
	svc := NewService(&fakeExtractor{}, &fakeTranslator{}, tracker, testPipelineConfig())
	ctx := context.Background()

	result, err := svc.TranslateDocument(ctx, testRequest(3))
	require.NoError(t, err)
	assert.Equal(t, "proc-1", result.ProcessID)
	assert.Equal(t, 3, result.TotalPages)
	assert.False(t, result.Resumed)

	assert.True(t, strings.HasPrefix(result.HTML, "<div class='document'>"))
	assert.Equal(t, 3, strings.Count(result.HTML, "<div class='page'>"))
	for i := 1; i <= 3; i++ {
		assert.Contains(t, result.HTML, fmt.Sprintf("[it]<div class='content'>text of page-%d</div>", i))
	}

	snap, err := tracker.GetProgress(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, snap.Job.Status)
	assert.Equal(t, 100, snap.Job.ProgressPercent)
	assert.Equal(t, []int{1, 2, 3}, snap.CompletedPages)
}

func TestTranslateDocumentFailsAndResumes(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	// First run: page 2 keeps failing at the provider.
	failing := &fakeTranslator{fn: func(content string) (string, error) {
		if strings.Contains(content, "page-2") {
			return "", errs.New(errs.KindTranslation, "chunk translation failed after retries")
		}
		return "[it]" + content, nil
	}}
	cfg := testPipelineConfig()
	cfg.PageConcurrency = 1
	svc := NewService(&fakeExtractor{}, failing, tracker, cfg)

	_, err := svc.TranslateDocument(ctx, testRequest(3))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindTranslation))

	snap, err := tracker.GetProgress(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusFailed, snap.Job.Status)
	assert.NotEmpty(t, snap.Job.LastError)
	assert.Contains(t, snap.CompletedPages, 1)

	// Second run resumes: only pages missing from the first run are
	// extracted again.
	extractor := &fakeExtractor{}
	svc = NewService(extractor, &fakeTranslator{}, tracker, cfg)

	result, err := svc.TranslateDocument(ctx, testRequest(3))
	require.NoError(t, err)
	assert.True(t, result.Resumed)
	assert.Equal(t, 3-len(snap.CompletedPages), extractor.callCount())
	assert.Equal(t, 3, strings.Count(result.HTML, "<div class='page'>"))

	final, err := tracker.GetProgress(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, final.Job.Status)
}

func TestTranslateDocumentCompletedJobIsServedFromStore(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	svc := NewService(&fakeExtractor{}, &fakeTranslator{}, tracker, testPipelineConfig())
	first, err := svc.TranslateDocument(ctx, testRequest(2))
	require.NoError(t, err)

	extractor := &fakeExtractor{}
	svc = NewService(extractor, &fakeTranslator{}, tracker, testPipelineConfig())
	second, err := svc.TranslateDocument(ctx, testRequest(2))
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Zero(t, extractor.callCount())
}

func TestTranslateDocumentPageCountMismatch(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	failing := &fakeTranslator{fn: func(string) (string, error) {
		return "", errs.New(errs.KindTranslation, "chunk translation failed after retries")
	}}
	svc := NewService(&fakeExtractor{}, failing, tracker, testPipelineConfig())
	_, err := svc.TranslateDocument(ctx, testRequest(3))
	require.Error(t, err)

	svc = NewService(&fakeExtractor{}, &fakeTranslator{}, tracker, testPipelineConfig())
	_, err = svc.TranslateDocument(ctx, testRequest(2))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestTranslateDocumentEmptyPagesAreRecorded(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	extractor := &fakeExtractor{fn: func(pageBytes []byte) (string, error) {
		if string(pageBytes) == "page-2" {
			return "", errs.New(errs.KindContent, "extracted content too short")
		}
		return fmt.Sprintf("<div class='content'>text of %s</div>", pageBytes), nil
	}}
	svc := NewService(extractor, &fakeTranslator{}, tracker, testPipelineConfig())

	result, err := svc.TranslateDocument(ctx, testRequest(3))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(result.HTML, "<div class='page'>"))

	snap, err := tracker.GetProgress(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, snap.Job.Status)
	assert.Equal(t, []int{1, 2, 3}, snap.CompletedPages)
}

func TestTranslateDocumentAllPagesEmptyFails(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	extractor := &fakeExtractor{fn: func([]byte) (string, error) {
		return "", errs.New(errs.KindContent, "extracted content too short")
	}}
	svc := NewService(extractor, &fakeTranslator{}, tracker, testPipelineConfig())

	_, err := svc.TranslateDocument(ctx, testRequest(2))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindContent))

	snap, err := tracker.GetProgress(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, progress.StatusFailed, snap.Job.Status)
}

func TestTranslateDocumentDetectsSourceLanguage(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	extractor := &fakeExtractor{fn: func([]byte) (string, error) {
		return "<div class='content'>The quick brown fox jumps over the lazy dog near the riverbank every single morning.</div>", nil
	}}
	translator := &fakeTranslator{}
	svc := NewService(extractor, translator, tracker, testPipelineConfig())

	req := testRequest(1)
	req.SourceLang = ""
	_, err := svc.TranslateDocument(ctx, req)
	require.NoError(t, err)

	langs := translator.seenFromLangs()
	require.NotEmpty(t, langs)
	assert.Equal(t, "en", langs[0])
}

func TestDetectSourceLangFallback(t *testing.T) {
	assert.Equal(t, defaultSourceLang, detectSourceLang(""))
	assert.Equal(t, defaultSourceLang, detectSourceLang("<div>   </div>"))
}
