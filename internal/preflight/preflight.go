package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"scribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable filesystem and credential checks for the
// given config. Binary checks live in CheckSystemDeps.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Downloads directory", cfg.Paths.DownloadsDir))
	results = append(results, CheckDirectoryAccess("Transcripts directory", cfg.Paths.TranscriptsDir))
	results = append(results, CheckInputFile("Input file", cfg.Paths.InputFile))

	if cfg.Journal.Enabled && strings.TrimSpace(cfg.Journal.Path) != "" {
		results = append(results, CheckDirectoryAccess("Journal directory", filepath.Dir(cfg.Journal.Path)))
	}

	results = append(results, CheckVADCredentials(cfg.Transcription))
	return results
}

// FirstFailure converts the first failed result into an error.
func FirstFailure(results []Result) error {
	for _, result := range results {
		if !result.Passed {
			return fmt.Errorf("preflight %s: %s", strings.ToLower(result.Name), result.Detail)
		}
	}
	return nil
}
