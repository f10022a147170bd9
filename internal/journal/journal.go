package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/pipeline"
	"scribe/internal/services"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"
	RunCancelled = "cancelled"
)

// Journal records run history backed by SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = time.RFC3339Nano
)

// Open initializes or connects to the journal database at path.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", "journal path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas below are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database file location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// RunInfo describes a run at the moment it starts.
type RunInfo struct {
	ID        string
	InputPath string
	Model     string
	Language  string
	QueueSize int
	Total     int
	StartedAt time.Time
}

// BeginRun inserts a run row in the running state.
func (j *Journal) BeginRun(ctx context.Context, info RunInfo) error {
	started := info.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	return j.exec(ctx,
		`INSERT INTO runs (id, status, input_path, model, language, queue_size, total, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID,
		RunRunning,
		nullableString(info.InputPath),
		nullableString(info.Model),
		nullableString(info.Language),
		info.QueueSize,
		info.Total,
		started.UTC().Format(timeLayout),
	)
}

// FinishRun stores the final counters and status for a run. runErr decides
// between completed, aborted, and cancelled.
func (j *Journal) FinishRun(ctx context.Context, summary pipeline.Summary, runErr error) error {
	status := RunCompleted
	var message any
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		status = RunCancelled
		message = runErr.Error()
	default:
		status = RunAborted
		message = runErr.Error()
	}
	return j.exec(ctx,
		`UPDATE runs SET status = ?, transcribed = ?, skipped = ?, audio_reused = ?,
             fetch_failed = ?, transcription_failed = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		summary.Transcribed,
		summary.Skipped,
		summary.AudioReused,
		summary.FetchFailed,
		summary.TranscriptionFailed,
		message,
		time.Now().UTC().Format(timeLayout),
		summary.RunID,
	)
}

// RecordOutcome stores the terminal result of one link.
func (j *Journal) RecordOutcome(ctx context.Context, outcome pipeline.Outcome) error {
	finished := outcome.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	var kind, message any
	if outcome.Err != nil {
		kind = services.Classify(outcome.Err)
		message = outcome.Err.Error()
	}
	return j.exec(ctx,
		`INSERT INTO outcomes (run_id, media_id, link, status, audio_path, transcript_path,
             error_kind, error_message, duration_ms, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.RunID,
		outcome.ID,
		outcome.Link,
		string(outcome.Status),
		nullableString(outcome.AudioPath),
		nullableString(outcome.TranscriptPath),
		kind,
		message,
		outcome.Duration.Milliseconds(),
		finished.UTC().Format(timeLayout),
	)
}

func (j *Journal) exec(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := j.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
