package batchrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/journal"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/preflight"
	"scribe/internal/runlock"
	"scribe/internal/services/whisperx"
	"scribe/internal/services/ytdlp"
)

// Options configures one batch run.
type Options struct {
	LogLevel string
	Verbose  bool
	// Out receives progress lines; nil discards them.
	Out   io.Writer
	Color bool
	// HandleSignals cancels the run on SIGINT or SIGTERM.
	HandleSignals bool
	// Downloader and Transcriber replace the yt-dlp and WhisperX services.
	Downloader  pipeline.Downloader
	Transcriber pipeline.Transcriber
	// Logger replaces the configured logger.
	Logger *slog.Logger
}

// Run processes every link in the configured input file.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (pipeline.Summary, error) {
	if cfg == nil {
		return pipeline.Summary{}, fmt.Errorf("config is required")
	}

	ctx := cmdCtx
	if opts.HandleSignals {
		signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		ctx = signalCtx
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return pipeline.Summary{}, err
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.NewFromConfig(cfg, opts.LogLevel, opts.Verbose)
		if err != nil {
			return pipeline.Summary{}, fmt.Errorf("init logger: %w", err)
		}
	}

	if err := preflight.FirstFailure(preflight.RunAll(ctx, cfg)); err != nil {
		logger.Error("preflight failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "run scribe check for details"),
		)
		return pipeline.Summary{}, err
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			return pipeline.Summary{}, fmt.Errorf("%s: %w", cfg.LockPath(), err)
		}
		return pipeline.Summary{}, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warn("release run lock failed",
				logging.Error(releaseErr),
				logging.String("lock_path", lock.Path()),
			)
		}
	}()

	links, err := pipeline.ReadLinksFile(cfg.Paths.InputFile)
	if err != nil {
		return pipeline.Summary{}, err
	}

	runID := uuid.NewString()
	runLogger := logger.With(logging.String(logging.FieldRunID, runID))
	pipelineCfg := PipelineConfig(cfg)

	downloader := opts.Downloader
	transcriber := opts.Transcriber
	if downloader == nil || transcriber == nil {
		logDependencySnapshot(runLogger, cfg)
	}
	if downloader == nil {
		downloader = ytdlp.NewService(DownloaderConfig(cfg), runLogger)
	}
	if transcriber == nil {
		transcriber = whisperx.NewService(TranscriberConfig(cfg), runLogger)
	}

	var recorder pipeline.Recorder
	var runJournal *journal.Journal
	if cfg.Journal.Enabled {
		runJournal, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			runLogger.Warn("run journal unavailable",
				logging.Error(err),
				logging.String(logging.FieldEventType, "journal_unavailable"),
				logging.String(logging.FieldErrorHint, "history for this run will not be recorded"),
			)
			runJournal = nil
		} else {
			defer runJournal.Close()
			beginErr := runJournal.BeginRun(ctx, journal.RunInfo{
				ID:        runID,
				InputPath: cfg.Paths.InputFile,
				Model:     cfg.Transcription.Model,
				Language:  cfg.Pipeline.Language,
				QueueSize: cfg.Pipeline.QueueSize,
				Total:     len(links),
				StartedAt: time.Now(),
			})
			if beginErr != nil {
				runLogger.Warn("record run start failed", logging.Error(beginErr))
				runJournal = nil
			} else {
				recorder = runJournal
			}
		}
	}

	runLogger.Info("run starting",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("links", len(links)),
		logging.Int("queue_size", pipelineCfg.QueueCapacity),
		logging.String("language", pipelineCfg.Language),
		logging.String("model", pipelineCfg.Model),
		logging.String("on_transcribe_error", string(pipelineCfg.OnFailure)),
	)

	summary, runErr := pipeline.Run(ctx, pipeline.Options{
		Config:      pipelineCfg,
		Links:       links,
		Downloader:  downloader,
		Transcriber: transcriber,
		Reporter:    pipeline.NewReporter(opts.Out, runLogger, opts.Color),
		Recorder:    recorder,
		Logger:      runLogger,
		RunID:       runID,
	})

	if runJournal != nil {
		// The run context may already be cancelled; the final row is still written.
		if err := runJournal.FinishRun(context.WithoutCancel(ctx), summary, runErr); err != nil {
			runLogger.Warn("record run finish failed", logging.Error(err))
		}
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("transcribed", summary.Transcribed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("fetch_failed", summary.FetchFailed),
		logging.Int("transcription_failed", summary.TranscriptionFailed),
		logging.Int("pending", summary.Pending()),
		logging.Duration("duration", summary.Duration),
	}
	if runErr != nil {
		attrs = append(attrs, logging.Error(runErr))
		runLogger.Warn("run stopped early", logging.Args(attrs...)...)
	} else {
		runLogger.Info("run complete", logging.Args(attrs...)...)
	}
	return summary, runErr
}

// PipelineConfig resolves the pipeline settings for cfg.
func PipelineConfig(cfg *config.Config) pipeline.Config {
	policy := pipeline.PolicySkip
	if strings.EqualFold(cfg.Pipeline.OnTranscribeError, config.OnErrorAbort) {
		policy = pipeline.PolicyAbort
	}
	return pipeline.Config{
		DownloadsDir:   cfg.Paths.DownloadsDir,
		TranscriptsDir: cfg.Paths.TranscriptsDir,
		InputPath:      cfg.Paths.InputFile,
		QueueCapacity:  cfg.Pipeline.QueueSize,
		Language:       cfg.Pipeline.Language,
		Model:          cfg.Transcription.Model,
		AudioExt:       cfg.Pipeline.AudioFormat,
		TranscriptExt:  cfg.Pipeline.TranscriptExt,
		MinAudioBytes:  cfg.Pipeline.MinAudioBytes,
		OnFailure:      policy,
	}
}

// DownloaderConfig resolves yt-dlp settings for cfg.
func DownloaderConfig(cfg *config.Config) ytdlp.Config {
	return ytdlp.Config{
		Binary:       strings.TrimSpace(cfg.Download.YTDLPBinary),
		Format:       cfg.Download.Format,
		AudioFormat:  cfg.Pipeline.AudioFormat,
		AudioQuality: cfg.Download.AudioQuality,
		Timeout:      time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
	}
}

// TranscriberConfig resolves WhisperX settings for cfg.
func TranscriberConfig(cfg *config.Config) whisperx.Config {
	return whisperx.Config{
		Model:       cfg.Transcription.Model,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
		Timeout:     time.Duration(cfg.Transcription.TimeoutSeconds) * time.Second,
	}
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := preflight.CheckSystemDeps(cfg)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("whisperx_cuda", cfg.Transcription.CUDAEnabled),
		logging.String("whisperx_vad_method", cfg.Transcription.VADMethod),
	}
	for _, status := range statuses {
		key := strings.ToLower(strings.ReplaceAll(status.Name, "-", "_"))
		attrs = append(attrs, logging.Bool(key+"_available", status.Available))
	}
	if deps.AnyMissing(statuses) {
		logger.Warn("dependency snapshot", logging.Args(attrs...)...)
		return
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
