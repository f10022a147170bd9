package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestProducerEnqueuesNItemsThenOneMarker(t *testing.T) {
	cfg := testConfig(t)
	links := []string{"https://x/?v=a", "https://x/?v=b", "https://x/?v=c"}
	q := NewWorkQueue(len(links) + 1)
	p := NewProducer(cfg, q, &fakeDownloader{}, nil, nil, nil)

	if err := p.Run(context.Background(), links); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if q.Len() != len(links)+1 {
		t.Fatalf("queue length = %d, want %d items + 1 marker", q.Len(), len(links))
	}
	for _, want := range []string{"a", "b", "c"} {
		item, ok, err := q.Get(context.Background())
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if item.ID != want {
			t.Fatalf("item = %s, want %s", item.ID, want)
		}
		if !fileExists(item.AudioPath) {
			t.Fatalf("audio %s missing at enqueue time", item.AudioPath)
		}
	}
	if _, ok, _ := q.Get(context.Background()); ok {
		t.Fatal("expected done marker after last item")
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty after marker, has %d", q.Len())
	}
}

func TestProducerBackpressure(t *testing.T) {
	cfg := testConfig(t)
	var links []string
	for i := range 10 {
		links = append(links, fmt.Sprintf("https://x/?v=item%d", i))
	}
	const capacity = 2
	q := NewWorkQueue(capacity)
	dl := &fakeDownloader{}
	p := NewProducer(cfg, q, dl, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx, links) }()

	// With no consumer the producer fills the queue, fetches one more link,
	// and then blocks in Put.
	waitFor(t, "queue to fill", func() bool { return q.Len() == capacity && len(dl.Calls()) == capacity+1 })
	time.Sleep(30 * time.Millisecond)
	if q.Len() > capacity {
		t.Fatalf("queue length %d exceeds capacity %d", q.Len(), capacity)
	}
	if got := len(dl.Calls()); got != capacity+1 {
		t.Fatalf("producer fetched %d links ahead, want %d", got, capacity+1)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run after cancel = %v, want canceled", err)
	}
}

func TestProducerSkipsExistingTranscript(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.TranscriptsDir, "a.txt"), "done")
	q := NewWorkQueue(4)
	dl := &fakeDownloader{}
	rec := &fakeRecorder{}
	p := NewProducer(cfg, q, dl, nil, rec, nil)

	if err := p.Run(context.Background(), []string{"https://x/?v=a"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dl.Calls()) != 0 {
		t.Fatalf("expected no fetch, got %v", dl.Calls())
	}
	if q.Len() != 1 {
		t.Fatalf("expected only the done marker, queue has %d", q.Len())
	}
	if got := rec.statuses()["a"]; got != StatusSkipped {
		t.Fatalf("recorded status = %q, want skipped", got)
	}
}

func TestProducerReusesExistingAudio(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.DownloadsDir, "a.mp3"), "audio")
	q := NewWorkQueue(4)
	dl := &fakeDownloader{}
	reporter := NewReporter(nil, nil, false)
	p := NewProducer(cfg, q, dl, reporter, nil, nil)

	if err := p.Run(context.Background(), []string{"https://x/?v=a"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dl.Calls()) != 0 {
		t.Fatalf("expected no fetch, got %v", dl.Calls())
	}
	if item, ok, _ := q.Get(context.Background()); !ok || item.ID != "a" {
		t.Fatalf("expected item a, got %+v ok=%v", item, ok)
	}
	if reporter.Summary().AudioReused != 1 {
		t.Fatalf("AudioReused = %d, want 1", reporter.Summary().AudioReused)
	}
}

func TestProducerRefetchesTruncatedAudio(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinAudioBytes = 1024
	writeFile(t, filepath.Join(cfg.DownloadsDir, "a.mp3"), "tiny")
	dl := &fakeDownloader{}
	q := NewWorkQueue(4)
	p := NewProducer(cfg, q, dl, nil, nil, nil)

	if err := p.Run(context.Background(), []string{"https://x/?v=a"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dl.Calls()) != 1 {
		t.Fatalf("expected one fetch, got %v", dl.Calls())
	}
	// The fake writes fewer bytes than the minimum, so the refetch counts
	// as a failed download.
	if q.Len() != 1 {
		t.Fatalf("expected only the done marker, queue has %d", q.Len())
	}
}

func TestProducerZeroMinimumAcceptsEmptyAudio(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinAudioBytes = 0
	writeFile(t, filepath.Join(cfg.DownloadsDir, "zero.mp3"), "")
	empty := "https://x/?v=fresh"
	dl := &fakeDownloader{empty: map[string]bool{empty: true}}
	reporter := NewReporter(nil, nil, false)
	q := NewWorkQueue(4)
	p := NewProducer(cfg, q, dl, reporter, nil, nil)

	if err := p.Run(context.Background(), []string{"https://x/?v=zero", empty}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(dl.Calls()) != "[https://x/?v=fresh]" {
		t.Fatalf("fetch calls = %v, want only the missing link", dl.Calls())
	}
	if !fileExists(filepath.Join(cfg.DownloadsDir, "zero.mp3")) {
		t.Fatal("empty audio was removed")
	}
	summary := reporter.Summary()
	if summary.AudioReused != 1 || summary.FetchFailed != 0 {
		t.Fatalf("summary = %+v, want 1 reused and no fetch failures", summary)
	}
	if q.Len() != 3 {
		t.Fatalf("queue length = %d, want 2 items + marker", q.Len())
	}
}

func TestProducerFetchFailureIsolation(t *testing.T) {
	cfg := testConfig(t)
	links := []string{"https://x/?v=a", "https://x/?v=b", "https://x/?v=c"}
	dl := &fakeDownloader{fail: map[string]error{links[1]: errBoom}}
	rec := &fakeRecorder{}
	q := NewWorkQueue(4)
	p := NewProducer(cfg, q, dl, nil, rec, nil)

	if err := p.Run(context.Background(), links); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var ids []string
	for {
		item, ok, err := q.Get(context.Background())
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok {
			break
		}
		ids = append(ids, item.ID)
	}
	if fmt.Sprint(ids) != "[a c]" {
		t.Fatalf("queued ids = %v, want [a c]", ids)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var fetchErr *FetchError
	for _, o := range rec.outcomes {
		if o.ID == "b" {
			if o.Status != StatusFetchFailed || !errors.As(o.Err, &fetchErr) || !errors.Is(o.Err, errBoom) {
				t.Fatalf("unexpected outcome for b: %+v", o)
			}
			if fetchErr.Link != links[1] {
				t.Fatalf("FetchError.Link = %q", fetchErr.Link)
			}
			return
		}
	}
	t.Fatal("no outcome recorded for b")
}

func TestProducerTreatsMissingAudioAfterFetchAsFailure(t *testing.T) {
	cfg := testConfig(t)
	link := "https://x/?v=ghost"
	dl := &fakeDownloader{noWrite: map[string]bool{link: true}}
	reporter := NewReporter(nil, nil, false)
	q := NewWorkQueue(2)
	p := NewProducer(cfg, q, dl, reporter, nil, nil)

	if err := p.Run(context.Background(), []string{link}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected only the done marker, queue has %d", q.Len())
	}
	if reporter.Summary().FetchFailed != 1 {
		t.Fatalf("FetchFailed = %d, want 1", reporter.Summary().FetchFailed)
	}
}

func TestProducerSkipsBlankLinks(t *testing.T) {
	cfg := testConfig(t)
	dl := &fakeDownloader{}
	q := NewWorkQueue(4)
	p := NewProducer(cfg, q, dl, nil, nil, nil)
	if err := p.Run(context.Background(), []string{"", "   ", "https://x/?v=a"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(dl.Calls()) != "[https://x/?v=a]" {
		t.Fatalf("calls = %v", dl.Calls())
	}
}
