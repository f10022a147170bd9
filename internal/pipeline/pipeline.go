package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scribe/internal/logging"
	"scribe/internal/services"
)

// Options configures one pipeline run.
type Options struct {
	Config      Config
	Links       []string
	Downloader  Downloader
	Transcriber Transcriber
	Reporter    *Reporter
	// Recorder is optional.
	Recorder Recorder
	Logger   *slog.Logger
	// RunID correlates log lines and journal rows; generated when empty.
	RunID string
}

// Run starts the consumer, runs the producer on the calling goroutine, and
// waits for the consumer to drain the queue. The returned summary is valid
// even when an error is returned.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Downloader == nil || opts.Transcriber == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "run", "downloader and transcriber are required", nil)
	}
	if opts.Config.DownloadsDir == "" || opts.Config.TranscriptsDir == "" {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "run", "downloads and transcripts directories are required", nil)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NewReporter(nil, logger, false)
	}

	start := time.Now()
	reporter.Start(runID, countLinks(opts.Links))

	ctx = services.WithRequestID(ctx, runID)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := NewWorkQueue(opts.Config.QueueCapacity)
	producer := NewProducer(opts.Config, queue, opts.Downloader, reporter, opts.Recorder,
		logging.NewComponentLogger(logger, "producer").With(logging.String(logging.FieldLane, "producer")))
	consumer := NewConsumer(opts.Config, queue, opts.Transcriber, reporter, opts.Recorder,
		logging.NewComponentLogger(logger, "consumer").With(logging.String(logging.FieldLane, "consumer")))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return consumer.Run(services.WithLane(groupCtx, "consumer"))
	})

	producerErr := producer.Run(services.WithLane(groupCtx, "producer"), opts.Links)
	if producerErr != nil {
		cancel()
	}
	consumerErr := group.Wait()

	summary := reporter.Summary()
	summary.Duration = time.Since(start)
	reporter.Finish(summary)

	return summary, firstRunError(consumerErr, producerErr)
}

// firstRunError prefers a transcription abort over the cancellation it
// caused in the producer.
func firstRunError(consumerErr, producerErr error) error {
	var terr *TranscriptionError
	if errors.As(consumerErr, &terr) {
		return consumerErr
	}
	if producerErr != nil {
		return producerErr
	}
	return consumerErr
}

func countLinks(links []string) int {
	n := 0
	for _, link := range links {
		if MediaID(link) != "" {
			n++
		}
	}
	return n
}
