package pipeline

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/doctrans/doctrans/internal/assemble"
	"github.com/doctrans/doctrans/internal/chunk"
	"github.com/doctrans/doctrans/internal/config"
	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/internal/progress"
	"github.com/doctrans/doctrans/pkg/log"
)

const defaultSourceLang = "en"

// Service runs the extract, translate and assemble stages for whole
// documents and records progress so interrupted runs can resume.
type Service struct {
	extractor   PageExtractor
	translator  ChunkTranslator
	tracker     *progress.Tracker
	splitter    *chunk.Splitter
	concurrency int
	group       singleflight.Group
}

func NewService(extractor PageExtractor, translator ChunkTranslator, tracker *progress.Tracker, cfg config.PipelineConfig) *Service {
	concurrency := cfg.PageConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		extractor:   extractor,
		translator:  translator,
		tracker:     tracker,
		splitter:    chunk.NewSplitter(cfg.ChunkMaxSize),
		concurrency: concurrency,
	}
}

// TranslateDocument translates every page of the request and returns the
// assembled document. Calls sharing a process id are collapsed into one
// run; a process id with a failed earlier run is resumed, redoing only
// the pages that were never recorded.
func (s *Service) TranslateDocument(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	value, err, _ := s.group.Do(req.ProcessID, func() (any, error) {
		return s.run(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return value.(*Result), nil
}

func validateRequest(req Request) error {
	if req.ProcessID == "" {
		return errs.New(errs.KindValidation, "process id is required")
	}
	if req.TargetLang == "" {
		return errs.New(errs.KindValidation, "target language is required").
			WithContext("process_id", req.ProcessID)
	}
	if len(req.Pages) == 0 {
		return errs.New(errs.KindValidation, "document has no pages").
			WithContext("process_id", req.ProcessID)
	}
	return nil
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	snapshot, resumed, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if snapshot != nil && snapshot.Job.Status == progress.StatusCompleted {
		// Earlier run already finished: serve the stored result.
		html, err := s.assembleStored(ctx, req.ProcessID)
		if err != nil {
			return nil, err
		}
		return &Result{ProcessID: req.ProcessID, HTML: html, TotalPages: len(req.Pages), Resumed: true}, nil
	}

	if err := s.translatePages(ctx, req, snapshot); err != nil {
		s.failJob(ctx, req.ProcessID, err)
		return nil, err
	}

	html, err := s.assembleStored(ctx, req.ProcessID)
	if err != nil {
		s.failJob(ctx, req.ProcessID, err)
		return nil, err
	}
	if err := s.tracker.Complete(ctx, req.ProcessID); err != nil {
		return nil, err
	}
	return &Result{ProcessID: req.ProcessID, HTML: html, TotalPages: len(req.Pages), Resumed: resumed}, nil
}

// prepare starts a fresh job, or loads and reopens an existing one when
// the process id was seen before. The returned snapshot is nil for a
// fresh job.
func (s *Service) prepare(ctx context.Context, req Request) (*progress.Snapshot, bool, error) {
	_, err := s.tracker.Start(ctx, progress.StartParams{
		ProcessID:  req.ProcessID,
		UserID:     req.UserID,
		FileName:   req.FileName,
		FileType:   req.FileType,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		TotalPages: len(req.Pages),
	})
	if err == nil {
		return nil, false, nil
	}
	if !errs.IsKind(err, errs.KindAlreadyExists) {
		return nil, false, err
	}

	snapshot, err := s.tracker.GetProgress(ctx, req.ProcessID)
	if err != nil {
		return nil, false, err
	}
	if snapshot.Job.Status == progress.StatusCompleted {
		return snapshot, true, nil
	}
	if snapshot.Job.TotalPages != len(req.Pages) {
		return nil, false, errs.New(errs.KindValidation, "page count differs from tracked job").
			WithContext("process_id", req.ProcessID).
			WithContext("tracked_pages", snapshot.Job.TotalPages).
			WithContext("request_pages", len(req.Pages))
	}
	if snapshot.Job.Status == progress.StatusFailed {
		if err := s.tracker.Reopen(ctx, req.ProcessID); err != nil {
			return nil, false, err
		}
	}
	log.Info("Resuming translation job: process=%s done=%d/%d",
		req.ProcessID, len(snapshot.CompletedPages), snapshot.Job.TotalPages)
	return snapshot, true, nil
}

// translatePages fans page work out over a bounded worker group. Pages
// already present in the snapshot are skipped.
func (s *Service) translatePages(ctx context.Context, req Request, snapshot *progress.Snapshot) error {
	var translated atomic.Int64

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for i, pageBytes := range req.Pages {
		pageNumber := i + 1
		if snapshot != nil && snapshot.Completed(pageNumber) {
			translated.Add(1)
			continue
		}
		pageBytes := pageBytes
		group.Go(func() error {
			empty, err := s.translatePage(gctx, req, pageNumber, pageBytes)
			if err != nil {
				return err
			}
			if !empty {
				translated.Add(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if translated.Load() == 0 {
		return errs.New(errs.KindContent, "document produced no translatable content").
			WithContext("process_id", req.ProcessID)
	}
	return nil
}

// translatePage runs one page through extraction, chunking and
// translation and records the result. A page whose image yields no
// usable content is recorded empty rather than failing the document.
func (s *Service) translatePage(ctx context.Context, req Request, pageNumber int, pageBytes []byte) (empty bool, err error) {
	pageHTML, err := s.extractor.ExtractPage(ctx, pageBytes)
	if err != nil {
		if errs.IsKind(err, errs.KindContent) {
			log.Warn("Page %d has no extractable content, recording empty page", pageNumber)
			return true, s.tracker.RecordPage(ctx, req.ProcessID, pageNumber, "")
		}
		return false, err
	}

	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = detectSourceLang(pageHTML)
		log.Debug("Detected source language %q for page %d", sourceLang, pageNumber)
	}

	chunks, err := s.splitter.Split(pageHTML)
	if err != nil {
		return false, err
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		translated, err := s.translator.TranslateChunk(ctx, c, sourceLang, req.TargetLang)
		if err != nil {
			return false, err
		}
		parts = append(parts, translated)
	}

	return false, s.tracker.RecordPage(ctx, req.ProcessID, pageNumber, strings.Join(parts, " "))
}

func (s *Service) assembleStored(ctx context.Context, processID string) (string, error) {
	contents, err := s.tracker.PageContents(ctx, processID)
	if err != nil {
		return "", err
	}
	return assemble.Combine(contents), nil
}

// failJob marks the job failed while keeping recorded pages for resume.
// Recording the failure is best effort: the original error wins.
func (s *Service) failJob(ctx context.Context, processID string, cause error) {
	if err := s.tracker.Fail(context.WithoutCancel(ctx), processID, cause); err != nil {
		log.Warn("Could not record job failure: process=%s error=%v", processID, err)
	}
}

// detectSourceLang guesses the language of extracted markup from its
// visible text.
func detectSourceLang(pageHTML string) string {
	text := pageHTML
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML)); err == nil {
		text = doc.Text()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return defaultSourceLang
	}

	iso := whatlanggo.DetectLang(text).Iso6391()
	if iso == "" {
		return defaultSourceLang
	}
	if tag := language.All.Make(iso); tag == language.Und {
		return defaultSourceLang
	}
	return iso
}
