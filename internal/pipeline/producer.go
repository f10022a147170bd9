package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Producer walks the input links in order, fetches missing audio and feeds
// the work queue. Links are handled one at a time.
type Producer struct {
	cfg        Config
	queue      *WorkQueue
	downloader Downloader
	reporter   *Reporter
	recorder   Recorder
	logger     *slog.Logger
	runID      string
}

// NewProducer wires a producer onto queue.
func NewProducer(cfg Config, queue *WorkQueue, downloader Downloader, reporter *Reporter, recorder Recorder, logger *slog.Logger) *Producer {
	if reporter == nil {
		reporter = NewReporter(nil, nil, false)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Producer{
		cfg:        cfg,
		queue:      queue,
		downloader: downloader,
		reporter:   reporter,
		recorder:   recorder,
		logger:     logger,
	}
}

// Run processes every link and then enqueues the done marker. It returns
// early only when ctx is cancelled; per-link fetch failures are reported and
// skipped.
func (p *Producer) Run(ctx context.Context, links []string) error {
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		p.runID = rid
	}
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		if err := p.handle(ctx, ResolvePaths(link, p.cfg)); err != nil {
			return err
		}
	}
	if err := p.queue.PutDone(ctx); err != nil {
		return fmt.Errorf("finish work queue: %w", err)
	}
	p.logger.Debug("all links enqueued", logging.String(logging.FieldEventType, "producer_done"))
	return nil
}

// handle moves one link to the queue or a terminal state. Only context
// errors are returned.
func (p *Producer) handle(ctx context.Context, rec LinkRecord) error {
	itemCtx := services.WithMediaID(services.WithStage(ctx, "download"), rec.ID)
	logger := logging.WithContext(itemCtx, p.logger)

	done, err := fileutil.Exists(rec.TranscriptPath)
	if err != nil {
		p.fail(itemCtx, rec, services.Wrap(services.ErrValidation, "producer", "check transcript", "cannot stat transcript path", err))
		return nil
	}
	if done {
		p.reporter.Skipped(rec)
		p.record(itemCtx, Outcome{ID: rec.ID, Link: rec.Link, Status: StatusSkipped, TranscriptPath: rec.TranscriptPath})
		return nil
	}

	reused, err := p.existingAudio(logger, rec)
	if err != nil {
		p.fail(itemCtx, rec, err)
		return nil
	}
	if !reused {
		if err := p.fetch(itemCtx, rec); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			p.fail(itemCtx, rec, err)
			return nil
		}
	}

	item := rec.workItem()
	p.reporter.Queued(item)
	return p.queue.Put(ctx, item)
}

// existingAudio reports whether a previously fetched file can be reused.
// Files below the minimum size are removed so they get fetched again.
func (p *Producer) existingAudio(logger *slog.Logger, rec LinkRecord) (bool, error) {
	size, ok, err := fileutil.Size(rec.AudioPath)
	if err != nil {
		return false, services.Wrap(services.ErrValidation, "producer", "check audio", "cannot stat audio path", err)
	}
	if !ok {
		return false, nil
	}
	if size >= p.minAudioBytes() {
		p.reporter.DownloadSkipped(rec, size)
		return true, nil
	}
	logging.WarnWithContext(logger, "existing audio below minimum size; fetching again", "audio_too_small",
		logging.String("audio_path", rec.AudioPath),
		logging.Int64("audio_bytes", size),
		logging.Int64("min_audio_bytes", p.minAudioBytes()),
		logging.String(logging.FieldErrorHint, "a previous download was likely interrupted"),
	)
	if err := os.Remove(rec.AudioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, services.Wrap(services.ErrValidation, "producer", "remove audio", "cannot remove truncated audio", err)
	}
	return false, nil
}

func (p *Producer) fetch(ctx context.Context, rec LinkRecord) error {
	p.reporter.Downloading(rec)
	if err := p.downloader.Fetch(ctx, rec.Link, rec.AudioPath); err != nil {
		return err
	}
	size, ok, err := fileutil.Size(rec.AudioPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "producer", "verify audio", "cannot stat fetched audio", err)
	}
	if !ok || size < p.minAudioBytes() {
		return services.Wrap(services.ErrExternalTool, "producer", "verify audio",
			fmt.Sprintf("downloader reported success but %s is missing or under %d bytes", rec.AudioPath, p.minAudioBytes()), nil)
	}
	return nil
}

func (p *Producer) fail(ctx context.Context, rec LinkRecord, err error) {
	fetchErr := &FetchError{Link: rec.Link, Err: err}
	p.reporter.DownloadFailed(rec, err)
	p.record(ctx, Outcome{ID: rec.ID, Link: rec.Link, Status: StatusFetchFailed, AudioPath: rec.AudioPath, Err: fetchErr})
}

func (p *Producer) record(ctx context.Context, outcome Outcome) {
	outcome.RunID = p.runID
	outcome.FinishedAt = time.Now()
	recordOutcome(ctx, p.recorder, p.logger, outcome)
}

// minAudioBytes is the size floor for reusable audio. Zero disables the size
// check so any existing file counts as fetched.
func (p *Producer) minAudioBytes() int64 {
	return max(p.cfg.MinAudioBytes, 0)
}

func recordOutcome(ctx context.Context, recorder Recorder, logger *slog.Logger, outcome Outcome) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordOutcome(ctx, outcome); err != nil {
		logging.WarnWithContext(logger, "record outcome failed", "journal_write_failed",
			logging.String(logging.FieldMediaID, outcome.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run history may be incomplete; transcripts are unaffected"),
		)
	}
}
