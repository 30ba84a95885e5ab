package progress

import (
	"context"
	"time"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is final. Terminal jobs never
// transition again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TranslationJob is the persisted job-level record for one
// document-translation request.
type TranslationJob struct {
	ID              string    `json:"id"`
	ProcessID       string    `json:"process_id"`
	UserID          string    `json:"user_id"`
	TotalPages      int       `json:"total_pages"`
	CurrentPage     int       `json:"current_page"`
	ProgressPercent int       `json:"progress_percent"`
	Status          Status    `json:"status"`
	FileName        string    `json:"file_name"`
	SourceLang      string    `json:"source_lang"`
	TargetLang      string    `json:"target_lang"`
	FileType        string    `json:"file_type"`
	LastError       string    `json:"last_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PageResult is the persisted translated markup for exactly one page.
// (ProcessID, PageNumber) is unique; re-recording overwrites.
type PageResult struct {
	ID         string    `json:"id"`
	ProcessID  string    `json:"process_id"`
	PageNumber int       `json:"page_number"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot is the job state plus the set of already-recorded pages,
// enabling resume logic to skip completed work.
type Snapshot struct {
	Job            TranslationJob `json:"job"`
	CompletedPages []int          `json:"completed_pages"`
}

// Completed reports whether pageNumber has already been recorded.
func (s *Snapshot) Completed(pageNumber int) bool {
	for _, n := range s.CompletedPages {
		if n == pageNumber {
			return true
		}
	}
	return false
}

// Store persists jobs and page results. RecordPage must apply the page
// upsert and the job progress update in a single transaction so that
// concurrent page workers never regress current_page.
type Store interface {
	CreateJob(ctx context.Context, job *TranslationJob) error
	GetJob(ctx context.Context, processID string) (*TranslationJob, error)
	RecordPage(ctx context.Context, result *PageResult) error
	ListPageResults(ctx context.Context, processID string) ([]PageResult, error)
	ListPageNumbers(ctx context.Context, processID string) ([]int, error)
	FinishJob(ctx context.Context, processID string, status Status, lastError string) error
	ReopenJob(ctx context.Context, processID string) error
}
