package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/pipeline"
	"scribe/internal/services"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "logs", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	if err := j.BeginRun(ctx, RunInfo{ID: "run-a", InputPath: "video_links.txt", Model: "large-v3", Language: "auto", QueueSize: 5, Total: 3}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	outcomes := []pipeline.Outcome{
		{RunID: "run-a", ID: "a", Link: "https://x/?v=a", Status: pipeline.StatusTranscribed, TranscriptPath: "transcription/a.txt", Duration: 1500 * time.Millisecond},
		{RunID: "run-a", ID: "b", Link: "https://x/?v=b", Status: pipeline.StatusFetchFailed,
			Err: &pipeline.FetchError{Link: "https://x/?v=b", Err: services.Wrap(services.ErrExternalTool, "ytdlp", "fetch", "yt-dlp failed", errors.New("404"))}},
		{RunID: "run-a", ID: "c", Link: "https://x/?v=c", Status: pipeline.StatusSkipped},
	}
	for _, o := range outcomes {
		if err := j.RecordOutcome(ctx, o); err != nil {
			t.Fatalf("RecordOutcome(%s): %v", o.ID, err)
		}
	}
	summary := pipeline.Summary{RunID: "run-a", Total: 3, Transcribed: 1, Skipped: 1, FetchFailed: 1}
	if err := j.FinishRun(ctx, summary, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := j.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != RunCompleted || run.Transcribed != 1 || run.FetchFailed != 1 || run.Skipped != 1 || run.Total != 3 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Model != "large-v3" || run.InputPath != "video_links.txt" || run.FinishedAt.IsZero() {
		t.Fatalf("unexpected run metadata: %+v", run)
	}

	rows, err := j.Outcomes(ctx, "run-a")
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(rows))
	}
	if rows[0].MediaID != "a" || rows[0].Duration != 1500*time.Millisecond || rows[0].TranscriptPath != "transcription/a.txt" {
		t.Fatalf("unexpected first outcome: %+v", rows[0])
	}
	if rows[1].ErrorKind != "external_tool" || rows[1].ErrorMessage == "" {
		t.Fatalf("unexpected failure outcome: %+v", rows[1])
	}
	if rows[2].ErrorKind != "" || rows[2].Status != string(pipeline.StatusSkipped) {
		t.Fatalf("unexpected skipped outcome: %+v", rows[2])
	}
}

func TestFinishRunStatuses(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	cases := map[string]error{
		"done":      nil,
		"cancelled": context.Canceled,
		"aborted":   &pipeline.TranscriptionError{ID: "x", Err: errors.New("cuda oom")},
	}
	want := map[string]string{"done": RunCompleted, "cancelled": RunCancelled, "aborted": RunAborted}
	for id, runErr := range cases {
		if err := j.BeginRun(ctx, RunInfo{ID: id}); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
		if err := j.FinishRun(ctx, pipeline.Summary{RunID: id}, runErr); err != nil {
			t.Fatalf("FinishRun: %v", err)
		}
		run, err := j.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		if run.Status != want[id] {
			t.Fatalf("%s: status = %q, want %q", id, run.Status, want[id])
		}
		if (runErr != nil) != (run.ErrorMessage != "") {
			t.Fatalf("%s: error message = %q", id, run.ErrorMessage)
		}
	}
}

func TestListRunsAndPrefixLookup(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"aaaa-1", "aabb-2", "cccc-3"} {
		if err := j.BeginRun(ctx, RunInfo{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
	}

	runs, err := j.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "cccc-3" || runs[1].ID != "aabb-2" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].Status != RunRunning || runs[0].Duration() != 0 {
		t.Fatalf("unfinished run: %+v", runs[0])
	}

	if run, err := j.GetRun(ctx, "cc"); err != nil || run.ID != "cccc-3" {
		t.Fatalf("prefix lookup = %+v, %v", run, err)
	}
	if _, err := j.GetRun(ctx, "aa"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ambiguous prefix err = %v", err)
	}
	if _, err := j.GetRun(ctx, "zz"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing run err = %v", err)
	}
}

func TestOpenExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.BeginRun(context.Background(), RunInfo{ID: "keep"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	_ = j.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetRun(context.Background(), "keep"); err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
	if reopened.Path() != path {
		t.Fatalf("Path = %q", reopened.Path())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestRecordOutcomeRequiresRun(t *testing.T) {
	j := openTestJournal(t)
	err := j.RecordOutcome(context.Background(), pipeline.Outcome{RunID: "missing", ID: "a", Link: "l", Status: pipeline.StatusSkipped})
	if err == nil {
		t.Fatal("expected foreign key failure for unknown run")
	}
}

var _ pipeline.Recorder = (*Journal)(nil)
