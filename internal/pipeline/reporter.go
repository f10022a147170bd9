package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"scribe/internal/logging"
)

type eventKind int

const (
	eventSkipped eventKind = iota
	eventDownloadSkipped
	eventDownloading
	eventDownloadFailed
	eventQueued
	eventTranscribing
	eventSaved
	eventTranscriptionFailed
)

var eventLabels = map[eventKind]string{
	eventSkipped:             "SKIP",
	eventDownloadSkipped:     "AUDIO",
	eventDownloading:         "DOWNLOAD",
	eventDownloadFailed:      "FAILED",
	eventQueued:              "QUEUED",
	eventTranscribing:        "TRANSCRIBE",
	eventSaved:               "SAVED",
	eventTranscriptionFailed: "FAILED",
}

var eventColors = map[eventKind]text.Colors{
	eventSkipped:             {text.FgHiBlack},
	eventDownloadSkipped:     {text.FgYellow},
	eventDownloading:         {text.FgBlue},
	eventDownloadFailed:      {text.FgRed, text.Bold},
	eventQueued:              {text.FgCyan},
	eventTranscribing:        {text.FgMagenta},
	eventSaved:               {text.FgGreen, text.Bold},
	eventTranscriptionFailed: {text.FgRed, text.Bold},
}

const labelWidth = len("TRANSCRIBE")

// Reporter serializes status lines from the producer and consumer. Each line
// is written with a single Write while the mutex is held, and terminal events
// advance the progress counter inside the same critical section.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	color  bool
	logger *slog.Logger
	counts Summary
}

// NewReporter writes status lines to out. A nil logger discards the
// structured copy of each event.
func NewReporter(out io.Writer, logger *slog.Logger, color bool) *Reporter {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reporter{out: out, color: color, logger: logger}
}

// Start resets the counters for a run over total links.
func (r *Reporter) Start(runID string, total int) {
	r.mu.Lock()
	r.counts = Summary{RunID: runID, Total: total}
	r.mu.Unlock()
	r.logger.Info("run started",
		logging.String(logging.FieldRunID, runID),
		logging.Int("links", total),
		logging.String(logging.FieldEventType, "run_started"),
	)
}

// Skipped reports a link whose transcript already exists.
func (r *Reporter) Skipped(rec LinkRecord) {
	r.emit(eventSkipped, rec.ID, "transcript exists", func(s *Summary) { s.Skipped++ })
	r.logger.Info("skipped, transcript exists",
		logging.String(logging.FieldMediaID, rec.ID),
		logging.String("transcript_path", rec.TranscriptPath),
		logging.String(logging.FieldEventType, "transcript_exists"),
	)
}

// DownloadSkipped reports a link whose audio is already on disk.
func (r *Reporter) DownloadSkipped(rec LinkRecord, size int64) {
	r.emit(eventDownloadSkipped, rec.ID, "download skipped, audio exists", func(s *Summary) { s.AudioReused++ })
	r.logger.Info("download skipped, audio exists",
		logging.String(logging.FieldMediaID, rec.ID),
		logging.String("audio_path", rec.AudioPath),
		logging.Int64("audio_bytes", size),
		logging.String(logging.FieldEventType, "audio_exists"),
	)
}

// Downloading reports the start of a fetch.
func (r *Reporter) Downloading(rec LinkRecord) {
	r.emit(eventDownloading, rec.ID, rec.Link, nil)
	r.logger.Info("downloading",
		logging.String(logging.FieldMediaID, rec.ID),
		logging.String(logging.FieldLink, rec.Link),
		logging.String("audio_path", rec.AudioPath),
		logging.String(logging.FieldEventType, "download_started"),
	)
}

// DownloadFailed reports a fetch failure; the link is abandoned.
func (r *Reporter) DownloadFailed(rec LinkRecord, err error) {
	r.emit(eventDownloadFailed, rec.ID, fmt.Sprintf("download error for %s: %v", rec.Link, err), func(s *Summary) { s.FetchFailed++ })
	logging.WarnWithContext(r.logger, "download failed", "download_failed",
		logging.String(logging.FieldMediaID, rec.ID),
		logging.String(logging.FieldLink, rec.Link),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the link and yt-dlp output; the next run retries it"),
	)
}

// Queued reports an item about to be handed to the consumer. The producer
// emits it before Put, so it precedes every consumer line for the item even
// when Put then waits on a full queue.
func (r *Reporter) Queued(item WorkItem) {
	r.emit(eventQueued, item.ID, item.AudioPath, nil)
	r.logger.Debug("queued for transcription",
		logging.String(logging.FieldMediaID, item.ID),
		logging.String("audio_path", item.AudioPath),
		logging.String(logging.FieldEventType, "queued"),
	)
}

// Transcribing reports the start of a transcription.
func (r *Reporter) Transcribing(item WorkItem) {
	r.emit(eventTranscribing, item.ID, "transcribing "+item.ID, nil)
	r.logger.Info("transcribing",
		logging.String(logging.FieldMediaID, item.ID),
		logging.String("audio_path", item.AudioPath),
		logging.String(logging.FieldEventType, "transcription_started"),
	)
}

// Saved reports a transcript written to disk.
func (r *Reporter) Saved(item WorkItem, chars int, elapsed time.Duration) {
	r.emit(eventSaved, item.ID, "transcription saved to "+item.TranscriptPath, func(s *Summary) { s.Transcribed++ })
	r.logger.Info("transcription saved",
		logging.String(logging.FieldMediaID, item.ID),
		logging.String("transcript_path", item.TranscriptPath),
		logging.Int("transcript_chars", chars),
		logging.Duration("stage_duration", elapsed),
		logging.String(logging.FieldEventType, "transcription_saved"),
	)
}

// TranscriptionFailed reports a failed transcription or transcript write.
func (r *Reporter) TranscriptionFailed(item WorkItem, err error) {
	r.emit(eventTranscriptionFailed, item.ID, fmt.Sprintf("transcription error: %v", err), func(s *Summary) { s.TranscriptionFailed++ })
	logging.ErrorWithContext(r.logger, "transcription failed", "transcription_failed",
		logging.String(logging.FieldMediaID, item.ID),
		logging.String("audio_path", item.AudioPath),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "audio is kept; rerun to retry the transcription"),
	)
}

// Summary returns a snapshot of the counters.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// Finish writes the closing summary line.
func (r *Reporter) Finish(summary Summary) {
	line := formatSummary(summary)
	r.mu.Lock()
	_, _ = io.WriteString(r.out, line+"\n")
	r.mu.Unlock()
	r.logger.Info("run finished",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.Int("transcribed", summary.Transcribed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("audio_reused", summary.AudioReused),
		logging.Int("failed", summary.Failed()),
		logging.Int("pending", summary.Pending()),
		logging.Duration("stage_duration", summary.Duration),
		logging.String(logging.FieldEventType, "run_finished"),
	)
}

func (r *Reporter) emit(kind eventKind, id, detail string, count func(*Summary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if count != nil {
		count(&r.counts)
	}
	line := r.formatLine(kind, id, detail)
	_, _ = io.WriteString(r.out, line)
}

func (r *Reporter) formatLine(kind eventKind, id, detail string) string {
	total := strconv.Itoa(r.counts.Total)
	completed := strconv.Itoa(r.counts.Completed())
	if pad := len(total) - len(completed); pad > 0 {
		completed = strings.Repeat(" ", pad) + completed
	}

	label := eventLabels[kind]
	label += strings.Repeat(" ", labelWidth-len(label))
	if r.color {
		label = eventColors[kind].Sprint(label)
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(completed)
	b.WriteByte('/')
	b.WriteString(total)
	b.WriteString("] ")
	b.WriteString(label)
	b.WriteByte(' ')
	b.WriteString(id)
	if detail != "" && detail != id {
		b.WriteString("  ")
		b.WriteString(detail)
	}
	b.WriteByte('\n')
	return b.String()
}

func formatSummary(s Summary) string {
	parts := []string{
		fmt.Sprintf("%d transcribed", s.Transcribed),
		fmt.Sprintf("%d skipped", s.Skipped),
		fmt.Sprintf("%d download failed", s.FetchFailed),
		fmt.Sprintf("%d transcription failed", s.TranscriptionFailed),
	}
	if s.Pending() > 0 {
		parts = append(parts, fmt.Sprintf("%d not processed", s.Pending()))
	}
	line := "Done: " + strings.Join(parts, ", ")
	if s.AudioReused > 0 {
		line += fmt.Sprintf(" (reused audio for %d)", s.AudioReused)
	}
	if s.Duration > 0 {
		line += " in " + s.Duration.Round(time.Second).String()
	}
	return line
}
