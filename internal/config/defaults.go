package config

const (
	defaultConfigPath        = "~/.config/scribe/config.toml"
	defaultDownloadsDir      = "downloads"
	defaultTranscriptsDir    = "transcription"
	defaultInputFile         = "video_links.txt"
	defaultLogDir            = "~/.local/share/scribe/logs"
	defaultQueueSize         = 5
	defaultLanguage          = "auto"
	defaultOnTranscribeError = OnErrorSkip
	defaultMinAudioBytes     = 1
	defaultAudioFormat       = "mp3"
	defaultTranscriptExt     = "txt"
	defaultDownloadFormat    = "bestaudio/best"
	defaultAudioQuality      = "192K"
	defaultModel             = "large-v3"
	defaultVADMethod         = "silero"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	journalFileName          = "journal.db"
)

// Transcription failure policies.
const (
	// OnErrorSkip reports the failed item and keeps consuming.
	OnErrorSkip = "skip"
	// OnErrorAbort stops the whole run on the first transcription failure.
	OnErrorAbort = "abort"
)

// Models lists the WhisperX model tiers accepted by transcription.model.
var Models = []string{
	"tiny",
	"base",
	"small",
	"medium",
	"large",
	"large-v2",
	"large-v3",
	"large-v3-turbo",
}

// AudioFormats lists the yt-dlp audio codecs accepted by pipeline.audio_format.
var AudioFormats = []string{"mp3", "m4a", "opus", "wav", "flac"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadsDir:   defaultDownloadsDir,
			TranscriptsDir: defaultTranscriptsDir,
			InputFile:      defaultInputFile,
			LogDir:         defaultLogDir,
		},
		Pipeline: Pipeline{
			QueueSize:         defaultQueueSize,
			Language:          defaultLanguage,
			OnTranscribeError: defaultOnTranscribeError,
			MinAudioBytes:     defaultMinAudioBytes,
			AudioFormat:       defaultAudioFormat,
			TranscriptExt:     defaultTranscriptExt,
		},
		Download: Download{
			Format:       defaultDownloadFormat,
			AudioQuality: defaultAudioQuality,
		},
		Transcription: Transcription{
			Model:     defaultModel,
			VADMethod: defaultVADMethod,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
