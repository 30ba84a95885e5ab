// Package doctrans translates scanned documents page by page: a vision
// model extracts structured markup from each page image, a text model
// translates it chunk by chunk, and progress is persisted so interrupted
// jobs resume where they stopped.
package doctrans

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/doctrans/doctrans/internal/config"
	"github.com/doctrans/doctrans/internal/extract"
	"github.com/doctrans/doctrans/internal/gemini"
	"github.com/doctrans/doctrans/internal/llm"
	"github.com/doctrans/doctrans/internal/persistence"
	"github.com/doctrans/doctrans/internal/pipeline"
	"github.com/doctrans/doctrans/internal/progress"
	"github.com/doctrans/doctrans/internal/translate"
)

// Request describes one document translation run.
type Request = pipeline.Request

// Result is the assembled output of a completed run.
type Result = pipeline.Result

// Progress is a job snapshot with the set of recorded pages.
type Progress = progress.Snapshot

// Job is the persisted state of one translation run.
type Job = progress.TranslationJob

type Status = progress.Status

const (
	StatusInProgress = progress.StatusInProgress
	StatusCompleted  = progress.StatusCompleted
	StatusFailed     = progress.StatusFailed
)

// NewProcessID returns a fresh process identifier for a translation run.
func NewProcessID() string {
	return uuid.NewString()
}

// Translator is the public entry point. Safe for concurrent use.
type Translator struct {
	service *pipeline.Service
	tracker *progress.Tracker
	store   *persistence.SQLiteStore
	vision  *gemini.Extractor
}

// NewFromEnv wires a Translator from environment configuration (see
// internal/config for the variable list). When VISION_PROJECT_ID is set
// the Vertex AI Gemini extractor handles page images; otherwise the chat
// provider's image support is used.
func NewFromEnv(ctx context.Context, opts ...config.Option) (*Translator, error) {
	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	callTimeout := time.Duration(cfg.LLM.Timeout) * time.Second

	var visionProvider extract.VisionExtractor
	var geminiExtractor *gemini.Extractor
	if cfg.Vision.ProjectID != "" {
		geminiExtractor, err = gemini.NewExtractor(ctx, cfg.Vision)
		if err != nil {
			return nil, err
		}
		visionProvider = geminiExtractor
	} else {
		visionProvider = visionViaChat{client}
	}

	store, err := persistence.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		if geminiExtractor != nil {
			_ = geminiExtractor.Close()
		}
		return nil, err
	}

	tracker := progress.NewTracker(store)
	translator := translate.NewTranslator(client, translate.Options{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		BaseDelay:   cfg.Pipeline.RetryBaseDelay,
		Timeout:     callTimeout,
	})

	return &Translator{
		service: pipeline.NewService(
			extract.NewExtractor(visionProvider, callTimeout),
			translator,
			tracker,
			cfg.Pipeline,
		),
		tracker: tracker,
		store:   store,
		vision:  geminiExtractor,
	}, nil
}

// TranslateDocument translates every page of the request and returns the
// assembled document. Re-invoking with the process id of a failed run
// resumes it, redoing only unrecorded pages.
func (t *Translator) TranslateDocument(ctx context.Context, req Request) (*Result, error) {
	return t.service.TranslateDocument(ctx, req)
}

// GetProgress reports the current state of a translation job.
func (t *Translator) GetProgress(ctx context.Context, processID string) (*Progress, error) {
	return t.tracker.GetProgress(ctx, processID)
}

func (t *Translator) Close() error {
	var firstErr error
	if t.vision != nil {
		firstErr = t.vision.Close()
	}
	if err := t.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// visionViaChat adapts the chat client's image support to the vision
// extraction interface.
type visionViaChat struct {
	client *llm.Client
}

func (v visionViaChat) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	return v.client.GenerateVision(ctx, prompt, image)
}
