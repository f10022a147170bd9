package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadsDir == "" {
		return errors.New("paths.downloads_dir must be set")
	}
	if c.Paths.TranscriptsDir == "" {
		return errors.New("paths.transcripts_dir must be set")
	}
	if c.Paths.InputFile == "" {
		return errors.New("paths.input_file must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.QueueSize <= 0 {
		return errors.New("pipeline.queue_size must be positive")
	}
	switch c.Pipeline.OnTranscribeError {
	case OnErrorSkip, OnErrorAbort:
	default:
		return fmt.Errorf("pipeline.on_transcribe_error must be %q or %q (got %q)", OnErrorSkip, OnErrorAbort, c.Pipeline.OnTranscribeError)
	}
	if !slices.Contains(AudioFormats, c.Pipeline.AudioFormat) {
		return fmt.Errorf("pipeline.audio_format must be one of %s (got %q)", strings.Join(AudioFormats, ", "), c.Pipeline.AudioFormat)
	}
	if strings.ContainsAny(c.Pipeline.TranscriptExt, `/\`) {
		return fmt.Errorf("pipeline.transcript_ext must not contain path separators (got %q)", c.Pipeline.TranscriptExt)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if !slices.Contains(Models, c.Transcription.Model) {
		return fmt.Errorf("transcription.model must be one of %s (got %q)", strings.Join(Models, ", "), c.Transcription.Model)
	}
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote (got %q)", c.Transcription.VADMethod)
	}
	if c.Transcription.VADMethod == "pyannote" && c.Transcription.HFToken == "" {
		return errors.New("transcription.hf_token must be set when transcription.vad_method is pyannote (or set HF_TOKEN)")
	}
	return nil
}

func (c *Config) validateJournal() error {
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" && strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("journal.path must be set when journal.enabled is true and paths.log_dir is empty")
	}
	return nil
}
