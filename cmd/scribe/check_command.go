package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/language"
	"scribe/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, input file, and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			failures := 0
			writeLines(out, renderSectionHeader("Configuration", colorize))
			writeLines(out, configurationLines(cfg, ctx.configPath, colorize))
			fmt.Fprintln(out)

			writeLines(out, renderSectionHeader("Paths", colorize))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out)

			writeLines(out, renderSectionHeader("Dependencies", colorize))
			statuses := preflight.CheckSystemDeps(cfg)
			fmt.Fprintln(out, dependencyTable(statuses))
			for _, status := range statuses {
				if status.Missing() {
					failures++
				}
			}

			if failures > 0 {
				return fmt.Errorf("check found %d problem(s)", failures)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderStatusLine("Ready", statusOK, "all checks passed", colorize))
			return nil
		},
	}
}

func configurationLines(cfg *config.Config, path string, colorize bool) []string {
	source := path
	if source == "" {
		source = "defaults"
	}
	policyKind := statusInfo
	if cfg.Pipeline.OnTranscribeError == config.OnErrorAbort {
		policyKind = statusWarn
	}
	return []string{
		renderStatusLine("Config file", statusInfo, source, colorize),
		renderStatusLine("Language", statusInfo, language.DisplayName(cfg.Pipeline.Language), colorize),
		renderStatusLine("Model", statusInfo, cfg.Transcription.Model, colorize),
		renderStatusLine("CUDA", statusInfo, yesNo(cfg.Transcription.CUDAEnabled), colorize),
		renderStatusLine("Queue size", statusInfo, strconv.Itoa(cfg.Pipeline.QueueSize), colorize),
		renderStatusLine("On transcribe error", policyKind, cfg.Pipeline.OnTranscribeError, colorize),
		renderStatusLine("Journal", statusInfo, journalLabel(cfg), colorize),
	}
}

func journalLabel(cfg *config.Config) string {
	if !cfg.Journal.Enabled {
		return "disabled"
	}
	return cfg.Journal.Path
}

func dependencyTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		state := "ready"
		switch {
		case status.Available:
		case status.Optional:
			state = "optional, missing"
		default:
			state = "missing"
		}
		detail := status.Detail
		if detail == "" {
			detail = status.Description
		}
		rows = append(rows, []string{status.Name, status.Command, state, detail})
	}
	return renderTable([]string{"Tool", "Command", "Status", "Detail"}, rows, nil)
}

func writeLines(out io.Writer, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
