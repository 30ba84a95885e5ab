package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/internal/progress"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists translation jobs and page results. A single open
// connection keeps writes serialized per process.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *progress.TranslationJob) (err error) {
	if job == nil {
		return fmt.Errorf("job is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM translation_jobs WHERE process_id = ?`, job.ProcessID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		err = errs.New(errs.KindAlreadyExists, "translation job already exists").
			WithContext("process_id", job.ProcessID)
		return err
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO translation_jobs (
			id, process_id, user_id, total_pages, current_page, progress_percent,
			status, file_name, source_lang, target_lang, file_type, last_error,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.ProcessID,
		job.UserID,
		job.TotalPages,
		job.CurrentPage,
		job.ProgressPercent,
		string(job.Status),
		job.FileName,
		job.SourceLang,
		job.TargetLang,
		job.FileType,
		job.LastError,
		job.CreatedAt,
		job.UpdatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetJob(ctx context.Context, processID string) (*progress.TranslationJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, process_id, user_id, total_pages, current_page, progress_percent,
			status, file_name, source_lang, target_lang, file_type, last_error,
			created_at, updated_at
		 FROM translation_jobs
		 WHERE process_id = ?`,
		processID,
	)

	var job progress.TranslationJob
	var status string
	if err := row.Scan(
		&job.ID,
		&job.ProcessID,
		&job.UserID,
		&job.TotalPages,
		&job.CurrentPage,
		&job.ProgressPercent,
		&status,
		&job.FileName,
		&job.SourceLang,
		&job.TargetLang,
		&job.FileType,
		&job.LastError,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.New(errs.KindNotFound, "translation job not found").
				WithContext("process_id", processID)
		}
		return nil, err
	}
	job.Status = progress.Status(status)
	return &job, nil
}

// RecordPage upserts one page result and advances the job's progress in
// the same transaction. current_page only ever moves forward: the update
// takes the maximum of the stored value and the recorded page, so
// out-of-order completions never regress it.
func (s *SQLiteStore) RecordPage(ctx context.Context, result *progress.PageResult) (err error) {
	if result == nil {
		return fmt.Errorf("page result is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var totalPages int
	if err = tx.QueryRowContext(ctx,
		`SELECT total_pages FROM translation_jobs WHERE process_id = ?`, result.ProcessID,
	).Scan(&totalPages); err != nil {
		if err == sql.ErrNoRows {
			err = errs.New(errs.KindNotFound, "translation job not found").
				WithContext("process_id", result.ProcessID)
		}
		return err
	}
	if result.PageNumber < 1 || result.PageNumber > totalPages {
		err = errs.New(errs.KindValidation, "page number out of range").
			WithContext("page_number", result.PageNumber).
			WithContext("total_pages", totalPages)
		return err
	}

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO translation_page_results (
			id, process_id, page_number, content, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(process_id, page_number) DO UPDATE SET
			content=excluded.content,
			updated_at=excluded.updated_at`,
		result.ID,
		result.ProcessID,
		result.PageNumber,
		result.Content,
		now,
		now,
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE translation_jobs SET
			current_page = MAX(current_page, ?),
			progress_percent = CAST(ROUND(MAX(current_page, ?) * 100.0 / total_pages) AS INTEGER),
			updated_at = ?
		 WHERE process_id = ?`,
		result.PageNumber,
		result.PageNumber,
		now,
		result.ProcessID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListPageResults(ctx context.Context, processID string) ([]progress.PageResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, process_id, page_number, content, created_at, updated_at
		 FROM translation_page_results
		 WHERE process_id = ?
		 ORDER BY page_number ASC`,
		processID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]progress.PageResult, 0)
	for rows.Next() {
		var item progress.PageResult
		if err := rows.Scan(
			&item.ID,
			&item.ProcessID,
			&item.PageNumber,
			&item.Content,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) ListPageNumbers(ctx context.Context, processID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_number
		 FROM translation_page_results
		 WHERE process_id = ?
		 ORDER BY page_number ASC`,
		processID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]int, 0)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		ret = append(ret, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ReopenJob puts a failed job back into in_progress so a new run can
// resume it. Completed jobs stay completed.
func (s *SQLiteStore) ReopenJob(ctx context.Context, processID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	if err = tx.QueryRowContext(ctx,
		`SELECT status FROM translation_jobs WHERE process_id = ?`, processID,
	).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			err = errs.New(errs.KindNotFound, "translation job not found").
				WithContext("process_id", processID)
		}
		return err
	}
	if progress.Status(current) == progress.StatusCompleted {
		err = errs.New(errs.KindValidation, "translation job already completed").
			WithContext("process_id", processID)
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE translation_jobs SET status = ?, last_error = '', updated_at = ?
		 WHERE process_id = ?`,
		string(progress.StatusInProgress), time.Now().UTC(), processID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// FinishJob moves a job into a terminal state. Completing sets progress to
// 100; failing records the error but keeps page results for resume.
func (s *SQLiteStore) FinishJob(ctx context.Context, processID string, status progress.Status, lastError string) (err error) {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current string
	if err = tx.QueryRowContext(ctx,
		`SELECT status FROM translation_jobs WHERE process_id = ?`, processID,
	).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			err = errs.New(errs.KindNotFound, "translation job not found").
				WithContext("process_id", processID)
		}
		return err
	}
	if progress.Status(current).Terminal() {
		err = errs.New(errs.KindValidation, "translation job already terminal").
			WithContext("process_id", processID).
			WithContext("status", current)
		return err
	}

	now := time.Now().UTC()
	if status == progress.StatusCompleted {
		_, err = tx.ExecContext(ctx,
			`UPDATE translation_jobs SET status = ?, progress_percent = 100, last_error = '', updated_at = ?
			 WHERE process_id = ?`,
			string(status), now, processID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE translation_jobs SET status = ?, last_error = ?, updated_at = ?
			 WHERE process_id = ?`,
			string(status), lastError, now, processID,
		)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}
