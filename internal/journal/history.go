package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scribe/internal/services"
)

// Run is one stored run row.
type Run struct {
	ID                  string
	Status              string
	InputPath           string
	Model               string
	Language            string
	QueueSize           int
	Total               int
	Transcribed         int
	Skipped             int
	AudioReused         int
	FetchFailed         int
	TranscriptionFailed int
	ErrorMessage        string
	StartedAt           time.Time
	FinishedAt          time.Time
}

// Duration returns the run's wall time, or zero while still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OutcomeRow is one stored per-link result.
type OutcomeRow struct {
	RunID          string
	MediaID        string
	Link           string
	Status         string
	AudioPath      string
	TranscriptPath string
	ErrorKind      string
	ErrorMessage   string
	Duration       time.Duration
	FinishedAt     time.Time
}

const runColumns = `id, status, input_path, model, language, queue_size, total, transcribed,
    skipped, audio_reused, fetch_failed, transcription_failed, error_message, started_at, finished_at`

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun fetches a run by ID. A unique ID prefix is accepted.
func (j *Journal) GetRun(ctx context.Context, id string) (Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		id, id+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return Run{}, services.Wrap(services.ErrNotFound, "journal", "get run", fmt.Sprintf("no run matches %q", id), nil)
	case 1:
		return matches[0], nil
	default:
		return Run{}, services.Wrap(services.ErrValidation, "journal", "get run", fmt.Sprintf("run id prefix %q is ambiguous", id), nil)
	}
}

// Outcomes returns the per-link results of a run in recording order.
func (j *Journal) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, media_id, link, status, audio_path, transcript_path, error_kind,
             error_message, duration_ms, finished_at
         FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var (
			row                              OutcomeRow
			audio, transcript, kind, message sql.NullString
			durationMS                       int64
			finished                         string
		)
		if err := rows.Scan(&row.RunID, &row.MediaID, &row.Link, &row.Status, &audio, &transcript,
			&kind, &message, &durationMS, &finished); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		row.AudioPath = audio.String
		row.TranscriptPath = transcript.String
		row.ErrorKind = kind.String
		row.ErrorMessage = message.String
		row.Duration = time.Duration(durationMS) * time.Millisecond
		row.FinishedAt = parseTime(finished)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run                             Run
		input, model, language, message sql.NullString
		started                         string
		finished                        sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Status, &input, &model, &language, &run.QueueSize, &run.Total,
		&run.Transcribed, &run.Skipped, &run.AudioReused, &run.FetchFailed, &run.TranscriptionFailed,
		&message, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, services.Wrap(services.ErrNotFound, "journal", "scan run", "run not found", err)
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.InputPath = input.String
	run.Model = model.String
	run.Language = language.String
	run.ErrorMessage = message.String
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return run, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
