package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and input file locations.
type Paths struct {
	DownloadsDir   string `toml:"downloads_dir"`
	TranscriptsDir string `toml:"transcripts_dir"`
	InputFile      string `toml:"input_file"`
	LogDir         string `toml:"log_dir"`
}

// Pipeline contains settings for the producer/consumer run.
type Pipeline struct {
	QueueSize         int    `toml:"queue_size"`
	Language          string `toml:"language"`
	OnTranscribeError string `toml:"on_transcribe_error"`
	// MinAudioBytes is the smallest audio file treated as already fetched.
	// Zero disables the check so any existing file is reused.
	MinAudioBytes int64  `toml:"min_audio_bytes"`
	AudioFormat   string `toml:"audio_format"`
	TranscriptExt string `toml:"transcript_ext"`
}

// Download contains yt-dlp settings.
type Download struct {
	YTDLPBinary    string `toml:"ytdlp_binary"`
	Format         string `toml:"format"`
	AudioQuality   string `toml:"audio_quality"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription contains WhisperX settings.
type Transcription struct {
	Model          string `toml:"model"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	HFToken        string `toml:"hf_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Journal contains configuration for the SQLite run history.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format  string `toml:"format"`
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// Config encapsulates all configuration values for scribe.
//
// Configuration sections by subsystem:
//   - Paths: downloads/transcripts directories, link list, logs
//   - Pipeline: queue capacity, language hint, failure policy
//   - Download: yt-dlp audio extraction
//   - Transcription: WhisperX model and device selection
//   - Journal: run history database
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Download      Download      `toml:"download"`
	Transcription Transcription `toml:"transcription"`
	Journal       Journal       `toml:"journal"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the downloads, transcripts, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadsDir, c.Paths.TranscriptsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the path of the persistent run log, or "" when file
// logging is disabled.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "scribe.log")
}

// LockPath returns the lock file guarding a transcripts directory against
// concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.TranscriptsDir, ".scribe.lock")
}

// YTDLPBinary returns the yt-dlp executable name.
func (c *Config) YTDLPBinary() string {
	if bin := strings.TrimSpace(c.Download.YTDLPBinary); bin != "" {
		return bin
	}
	return "yt-dlp"
}

// FFmpegBinary returns the ffmpeg executable used by yt-dlp for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
