package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/language"
)

// Normalize expands paths, trims values, and applies fallbacks. Load calls it
// automatically; callers that mutate a Config after loading (CLI overrides)
// call it again before Validate.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePipeline(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeTranscription()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		c.Paths.DownloadsDir = defaultDownloadsDir
	}
	if c.Paths.DownloadsDir, err = expandPath(strings.TrimSpace(c.Paths.DownloadsDir)); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TranscriptsDir) == "" {
		c.Paths.TranscriptsDir = defaultTranscriptsDir
	}
	if c.Paths.TranscriptsDir, err = expandPath(strings.TrimSpace(c.Paths.TranscriptsDir)); err != nil {
		return fmt.Errorf("paths.transcripts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.InputFile) == "" {
		c.Paths.InputFile = defaultInputFile
	}
	if c.Paths.InputFile, err = expandPath(strings.TrimSpace(c.Paths.InputFile)); err != nil {
		return fmt.Errorf("paths.input_file: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() error {
	lang, err := language.Normalize(c.Pipeline.Language)
	if err != nil {
		return fmt.Errorf("pipeline.language: %w", err)
	}
	c.Pipeline.Language = lang
	c.Pipeline.OnTranscribeError = strings.ToLower(strings.TrimSpace(c.Pipeline.OnTranscribeError))
	if c.Pipeline.OnTranscribeError == "" {
		c.Pipeline.OnTranscribeError = defaultOnTranscribeError
	}
	if c.Pipeline.MinAudioBytes < 0 {
		c.Pipeline.MinAudioBytes = 0
	}
	c.Pipeline.AudioFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Pipeline.AudioFormat), "."))
	if c.Pipeline.AudioFormat == "" {
		c.Pipeline.AudioFormat = defaultAudioFormat
	}
	c.Pipeline.TranscriptExt = strings.TrimPrefix(strings.TrimSpace(c.Pipeline.TranscriptExt), ".")
	if c.Pipeline.TranscriptExt == "" {
		c.Pipeline.TranscriptExt = defaultTranscriptExt
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.YTDLPBinary = strings.TrimSpace(c.Download.YTDLPBinary)
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	c.Download.AudioQuality = strings.TrimSpace(c.Download.AudioQuality)
	if c.Download.AudioQuality == "" {
		c.Download.AudioQuality = defaultAudioQuality
	}
	if c.Download.TimeoutSeconds < 0 {
		c.Download.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.ToLower(strings.TrimSpace(c.Transcription.Model))
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	if c.Transcription.TimeoutSeconds < 0 {
		c.Transcription.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeJournal() error {
	path := strings.TrimSpace(c.Journal.Path)
	if path == "" {
		if c.Paths.LogDir == "" {
			c.Journal.Path = ""
			return nil
		}
		c.Journal.Path = filepath.Join(c.Paths.LogDir, journalFileName)
		return nil
	}
	var err error
	if c.Journal.Path, err = expandPath(path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
