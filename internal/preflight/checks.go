package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/services/whisperx"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckInputFile verifies that the link list exists and is readable.
func CheckInputFile(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "input file not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckVADCredentials verifies that pyannote VAD has a Hugging Face token.
func CheckVADCredentials(cfg config.Transcription) Result {
	const name = "VAD credentials"
	if !strings.EqualFold(strings.TrimSpace(cfg.VADMethod), whisperx.VADMethodPyannote) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (no token required)", cfg.VADMethod)}
	}
	if strings.TrimSpace(cfg.HFToken) == "" {
		return Result{Name: name, Detail: "pyannote VAD requires hf_token or HF_TOKEN"}
	}
	return Result{Name: name, Passed: true, Detail: "pyannote (token configured)"}
}

// CheckSystemDeps evaluates the external binaries a run shells out to.
// Both the batch runner and "scribe check" use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YTDLPBinary(),
			Description: "Required for audio downloads",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required by yt-dlp for audio extraction",
		},
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Required for WhisperX-driven transcription",
		},
	}
	return deps.CheckBinaries(requirements)
}
