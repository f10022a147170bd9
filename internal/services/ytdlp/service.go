package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"scribe/internal/logging"
	"scribe/internal/services"
)

// Config captures yt-dlp invocation settings.
type Config struct {
	// Binary overrides the yt-dlp executable; empty resolves it from PATH.
	Binary       string
	Format       string
	AudioFormat  string
	AudioQuality string
	// Timeout bounds one fetch; zero means no limit.
	Timeout time.Duration
}

const (
	DefaultFormat       = "bestaudio/best"
	DefaultAudioFormat  = "mp3"
	DefaultAudioQuality = "192K"
	progressInterval    = 500 * time.Millisecond
)

// Request is one resolved yt-dlp invocation.
type Request struct {
	Link           string
	OutputTemplate string
	Config         Config
}

// Runner executes a Request, reporting progress through onProgress.
type Runner func(ctx context.Context, req Request, onProgress func(ytdlp.ProgressUpdate)) error

// Service downloads audio for one link at a time.
type Service struct {
	cfg    Config
	logger *slog.Logger
	runner Runner
}

// NewService constructs a downloader with defaults applied.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = DefaultFormat
	}
	if strings.TrimSpace(cfg.AudioFormat) == "" {
		cfg.AudioFormat = DefaultAudioFormat
	}
	if strings.TrimSpace(cfg.AudioQuality) == "" {
		cfg.AudioQuality = DefaultAudioQuality
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "ytdlp"),
		runner: runYTDLP,
	}
}

// WithRunner replaces the yt-dlp invocation (for testing).
func (s *Service) WithRunner(runner Runner) {
	if runner != nil {
		s.runner = runner
	}
}

// Fetch downloads link and transcodes its audio to dest. The extension of
// dest is replaced by the one yt-dlp produces for the configured codec, so
// callers should pass a dest that already carries it.
func (s *Service) Fetch(ctx context.Context, link, dest string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return services.Wrap(services.ErrValidation, "ytdlp", "fetch", "link required", nil)
	}
	if dest == "" {
		return services.Wrap(services.ErrValidation, "ytdlp", "fetch", "destination required", nil)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	req := Request{
		Link:           link,
		OutputTemplate: OutputTemplate(dest),
		Config:         s.cfg,
	}
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("launching yt-dlp",
		logging.String(logging.FieldLink, link),
		logging.String("output_template", req.OutputTemplate),
		logging.String("audio_format", s.cfg.AudioFormat),
	)

	sampler := logging.NewProgressSampler(10)
	start := time.Now()
	err := s.runner(ctx, req, func(update ytdlp.ProgressUpdate) {
		s.logProgress(logger, sampler, update)
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "ytdlp", "fetch",
				fmt.Sprintf("no result after %s", s.cfg.Timeout), err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, "ytdlp", "fetch", "yt-dlp failed", err)
	}
	logger.Info("audio fetched",
		logging.String("audio_path", dest),
		logging.Duration("stage_duration", time.Since(start)),
		logging.String(logging.FieldEventType, "download_complete"),
	)
	return nil
}

func (s *Service) logProgress(logger *slog.Logger, sampler *logging.ProgressSampler, update ytdlp.ProgressUpdate) {
	percent := -1.0
	if update.TotalBytes > 0 {
		percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	phase := "downloading"
	if percent >= 100 {
		phase = "converting"
	}
	if !sampler.ShouldLog(percent, phase) {
		return
	}
	attrs := []logging.Attr{
		logging.String("status", phase),
		logging.Duration("elapsed", elapsedSince(update.Started)),
		logging.String(logging.FieldEventType, "download_progress"),
	}
	if percent >= 0 {
		attrs = append(attrs,
			logging.Float64(logging.FieldProgressPercent, percent),
			logging.Int64("downloaded_bytes", int64(update.DownloadedBytes)),
		)
	}
	if eta := update.ETA(); eta > 0 {
		attrs = append(attrs, logging.Duration("eta", eta))
	}
	msg := "download progress"
	if phase == "converting" {
		msg = "download finished, converting audio"
	}
	logger.Debug(msg, logging.Args(attrs...)...)
}

// OutputTemplate converts a destination path into a yt-dlp output template
// whose extension is filled in by the post-processor.
func OutputTemplate(dest string) string {
	return strings.TrimSuffix(dest, filepath.Ext(dest)) + ".%(ext)s"
}

func runYTDLP(ctx context.Context, req Request, onProgress func(ytdlp.ProgressUpdate)) error {
	cmd := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		Format(req.Config.Format).
		ExtractAudio().
		AudioFormat(req.Config.AudioFormat).
		AudioQuality(req.Config.AudioQuality).
		Output(req.OutputTemplate)
	if bin := strings.TrimSpace(req.Config.Binary); bin != "" {
		cmd.SetExecutable(bin)
	}
	if onProgress != nil {
		cmd.ProgressFunc(progressInterval, onProgress)
	}

	_, err := cmd.Run(ctx, req.Link)
	return err
}

func elapsedSince(start time.Time) time.Duration {
	if start.IsZero() {
		return 0
	}
	return time.Since(start).Round(time.Second)
}
