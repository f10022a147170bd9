package pipeline

import (
	"context"
	"log/slog"
	"time"

	"scribe/internal/fileutil"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// Consumer drains the work queue through a single Transcriber, one item at a
// time, until the done marker arrives.
type Consumer struct {
	cfg         Config
	queue       *WorkQueue
	transcriber Transcriber
	reporter    *Reporter
	recorder    Recorder
	logger      *slog.Logger
	runID       string
}

// NewConsumer wires a consumer onto queue.
func NewConsumer(cfg Config, queue *WorkQueue, transcriber Transcriber, reporter *Reporter, recorder Recorder, logger *slog.Logger) *Consumer {
	if reporter == nil {
		reporter = NewReporter(nil, nil, false)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Consumer{
		cfg:         cfg,
		queue:       queue,
		transcriber: transcriber,
		reporter:    reporter,
		recorder:    recorder,
		logger:      logger,
	}
}

// Run transcribes items until the done marker. Under PolicyAbort the first
// TranscriptionError is returned; under PolicySkip failures are reported and
// the loop continues.
func (c *Consumer) Run(ctx context.Context) error {
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		c.runID = rid
	}
	hint := language.TranscriberHint(c.cfg.Language)
	for {
		item, ok, err := c.queue.Get(ctx)
		if err != nil {
			return err
		}
		if !ok {
			c.logger.Debug("work queue drained", logging.String(logging.FieldEventType, "consumer_done"))
			return nil
		}
		if err := c.process(ctx, item, hint); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if c.cfg.OnFailure == PolicyAbort {
				return err
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, item WorkItem, hint string) error {
	itemCtx := services.WithMediaID(services.WithStage(ctx, "transcribe"), item.ID)
	start := time.Now()

	c.reporter.Transcribing(item)
	text, err := c.transcriber.Transcribe(itemCtx, item.AudioPath, hint)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return c.fail(itemCtx, item, err, time.Since(start))
	}
	if err := fileutil.WriteFileAtomic(item.TranscriptPath, []byte(text), 0o644); err != nil {
		return c.fail(itemCtx, item, services.Wrap(services.ErrValidation, "consumer", "write transcript", item.TranscriptPath, err), time.Since(start))
	}

	elapsed := time.Since(start)
	c.reporter.Saved(item, len(text), elapsed)
	c.record(itemCtx, Outcome{
		ID:             item.ID,
		Link:           item.Link,
		Status:         StatusTranscribed,
		AudioPath:      item.AudioPath,
		TranscriptPath: item.TranscriptPath,
		Duration:       elapsed,
	})
	return nil
}

func (c *Consumer) fail(ctx context.Context, item WorkItem, err error, elapsed time.Duration) error {
	terr := &TranscriptionError{ID: item.ID, AudioPath: item.AudioPath, Err: err}
	c.reporter.TranscriptionFailed(item, err)
	c.record(ctx, Outcome{
		ID:             item.ID,
		Link:           item.Link,
		Status:         StatusTranscriptionFailed,
		AudioPath:      item.AudioPath,
		TranscriptPath: item.TranscriptPath,
		Err:            terr,
		Duration:       elapsed,
	})
	return terr
}

func (c *Consumer) record(ctx context.Context, outcome Outcome) {
	outcome.RunID = c.runID
	outcome.FinishedAt = time.Now()
	recordOutcome(ctx, c.recorder, c.logger, outcome)
}
