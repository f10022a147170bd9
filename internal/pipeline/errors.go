package pipeline

import (
	"errors"
	"fmt"
)

// ErrQueueFinished is returned when work is offered after the done marker.
var ErrQueueFinished = errors.New("work queue already finished")

// FetchError reports a failed download for one link. The producer recovers
// from it and moves on.
type FetchError struct {
	Link string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Link, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TranscriptionError reports a failed transcription or transcript write for
// one item.
type TranscriptionError struct {
	ID        string
	AudioPath string
	Err       error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe %s (%s): %v", e.ID, e.AudioPath, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
