package pipeline

import (
	"context"
	"time"
)

// Downloader fetches the audio behind link and writes it to dest.
type Downloader interface {
	Fetch(ctx context.Context, link, dest string) error
}

// Transcriber converts one audio file to text. An empty language requests
// automatic detection.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// FailurePolicy decides what the consumer does after a transcription fails.
type FailurePolicy string

const (
	// PolicySkip reports the failure and moves on to the next item.
	PolicySkip FailurePolicy = "skip"
	// PolicyAbort stops the run on the first failure.
	PolicyAbort FailurePolicy = "abort"
)

// Config holds the settings resolved once before a run starts.
type Config struct {
	DownloadsDir   string
	TranscriptsDir string
	InputPath      string
	QueueCapacity  int
	// Language is an ISO 639-1 code or "auto".
	Language      string
	Model         string
	AudioExt      string
	TranscriptExt string
	// MinAudioBytes is the smallest audio file treated as already fetched.
	MinAudioBytes int64
	OnFailure     FailurePolicy
}

// LinkRecord is one input link plus its derived paths.
type LinkRecord struct {
	Link           string
	ID             string
	AudioPath      string
	TranscriptPath string
}

// WorkItem is one fetched audio file awaiting transcription.
type WorkItem struct {
	ID             string
	Link           string
	AudioPath      string
	TranscriptPath string
}

func (r LinkRecord) workItem() WorkItem {
	return WorkItem{
		ID:             r.ID,
		Link:           r.Link,
		AudioPath:      r.AudioPath,
		TranscriptPath: r.TranscriptPath,
	}
}

// Status is the terminal state of one link within a run.
type Status string

const (
	StatusSkipped             Status = "skipped"
	StatusFetchFailed         Status = "fetch_failed"
	StatusTranscribed         Status = "transcribed"
	StatusTranscriptionFailed Status = "transcription_failed"
)

// Outcome is the terminal result for one link.
type Outcome struct {
	RunID          string
	ID             string
	Link           string
	Status         Status
	AudioPath      string
	TranscriptPath string
	Err            error
	Duration       time.Duration
	FinishedAt     time.Time
}

// Recorder persists per-link outcomes. Recording failures never stop a run.
type Recorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}

// Summary counts the outcomes of a run.
type Summary struct {
	RunID               string
	Total               int
	Transcribed         int
	Skipped             int
	AudioReused         int
	FetchFailed         int
	TranscriptionFailed int
	Duration            time.Duration
}

// Completed returns the number of links that reached a terminal state.
func (s Summary) Completed() int {
	return s.Transcribed + s.Skipped + s.FetchFailed + s.TranscriptionFailed
}

// Failed returns the number of links that ended in a failure.
func (s Summary) Failed() int {
	return s.FetchFailed + s.TranscriptionFailed
}

// Pending returns links left unprocessed by an aborted or cancelled run.
func (s Summary) Pending() int {
	if pending := s.Total - s.Completed(); pending > 0 {
		return pending
	}
	return 0
}
