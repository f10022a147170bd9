package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		DownloadsDir:   filepath.Join(dir, "downloads"),
		TranscriptsDir: filepath.Join(dir, "transcripts"),
		QueueCapacity:  1,
		Language:       "auto",
		Model:          "large-v3",
		AudioExt:       "mp3",
		TranscriptExt:  "txt",
		MinAudioBytes:  1,
		OnFailure:      PolicySkip,
	}
	for _, d := range []string{cfg.DownloadsDir, cfg.TranscriptsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type fakeDownloader struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	delay   map[string]time.Duration
	noWrite map[string]bool
	empty   map[string]bool
}

func (d *fakeDownloader) Fetch(ctx context.Context, link, dest string) error {
	d.mu.Lock()
	d.calls = append(d.calls, link)
	err := d.fail[link]
	delay := d.delay[link]
	noWrite := d.noWrite[link]
	empty := d.empty[link]
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	if noWrite {
		return nil
	}
	if empty {
		return os.WriteFile(dest, nil, 0o644)
	}
	return os.WriteFile(dest, []byte("audio:"+link), 0o644)
}

func (d *fakeDownloader) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls []string
	hints []string
	fail  map[string]error
	// gate, when set, blocks each call until a value is received or ctx ends.
	gate chan struct{}
}

func (tr *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	id := trimExt(filepath.Base(audioPath))
	tr.mu.Lock()
	tr.calls = append(tr.calls, id)
	tr.hints = append(tr.hints, language)
	err := tr.fail[id]
	gate := tr.gate
	tr.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return "transcript of " + id, nil
}

func (tr *fakeTranscriber) Calls() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.calls...)
}

func (tr *fakeTranscriber) Hints() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.hints...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
	err      error
}

func (r *fakeRecorder) RecordOutcome(_ context.Context, o Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return r.err
}

func (r *fakeRecorder) statuses() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Status, len(r.outcomes))
	for _, o := range r.outcomes {
		out[o.ID] = o.Status
	}
	return out
}

// syncBuffer is a goroutine-safe bytes sink that records each Write.
type syncBuffer struct {
	mu     sync.Mutex
	writes []string
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, string(p))
	return len(p), nil
}

func (b *syncBuffer) Writes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.writes...)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

var errBoom = errors.New("boom")
