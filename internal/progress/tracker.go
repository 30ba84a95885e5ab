package progress

import (
	"context"

	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/pkg/log"
)

// Tracker records the lifecycle of a translation job on top of a Store.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// StartParams describes a new translation job.
type StartParams struct {
	ProcessID  string
	UserID     string
	FileName   string
	FileType   string
	SourceLang string
	TargetLang string
	TotalPages int
}

// Start creates the job record in the in_progress state. Starting an
// already-tracked process returns an ALREADY_EXISTS error; callers use
// that to switch into resume mode.
func (t *Tracker) Start(ctx context.Context, params StartParams) (*TranslationJob, error) {
	if params.ProcessID == "" {
		return nil, errs.New(errs.KindValidation, "process id is required")
	}
	if params.TotalPages < 1 {
		return nil, errs.New(errs.KindValidation, "total pages must be at least 1").
			WithContext("total_pages", params.TotalPages)
	}

	job := &TranslationJob{
		ProcessID:  params.ProcessID,
		UserID:     params.UserID,
		TotalPages: params.TotalPages,
		Status:     StatusInProgress,
		FileName:   params.FileName,
		SourceLang: params.SourceLang,
		TargetLang: params.TargetLang,
		FileType:   params.FileType,
	}
	if err := t.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	log.Info("Started translation job: process=%s pages=%d", params.ProcessID, params.TotalPages)
	return job, nil
}

// RecordPage stores one translated page and advances job progress.
func (t *Tracker) RecordPage(ctx context.Context, processID string, pageNumber int, content string) error {
	err := t.store.RecordPage(ctx, &PageResult{
		ProcessID:  processID,
		PageNumber: pageNumber,
		Content:    content,
	})
	if err != nil {
		return err
	}
	log.Debug("Recorded page %d for process %s", pageNumber, processID)
	return nil
}

// Complete marks the job as completed and forces progress to 100.
func (t *Tracker) Complete(ctx context.Context, processID string) error {
	if err := t.store.FinishJob(ctx, processID, StatusCompleted, ""); err != nil {
		return err
	}
	log.Info("Completed translation job: process=%s", processID)
	return nil
}

// Fail marks the job as failed. Recorded pages are kept so a later run
// can resume instead of redoing finished work.
func (t *Tracker) Fail(ctx context.Context, processID string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	if err := t.store.FinishJob(ctx, processID, StatusFailed, message); err != nil {
		return err
	}
	log.Warn("Failed translation job: process=%s error=%s", processID, message)
	return nil
}

// Reopen puts a failed job back into in_progress so it can be resumed.
func (t *Tracker) Reopen(ctx context.Context, processID string) error {
	if err := t.store.ReopenJob(ctx, processID); err != nil {
		return err
	}
	log.Info("Reopened translation job: process=%s", processID)
	return nil
}

// GetProgress returns the job together with the pages already recorded.
func (t *Tracker) GetProgress(ctx context.Context, processID string) (*Snapshot, error) {
	job, err := t.store.GetJob(ctx, processID)
	if err != nil {
		return nil, err
	}
	pages, err := t.store.ListPageNumbers(ctx, processID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Job: *job, CompletedPages: pages}, nil
}

// PageContents returns recorded page markup ordered by page number.
func (t *Tracker) PageContents(ctx context.Context, processID string) ([]string, error) {
	results, err := t.store.ListPageResults(ctx, processID)
	if err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(results))
	for _, item := range results {
		contents = append(contents, item.Content)
	}
	return contents, nil
}
