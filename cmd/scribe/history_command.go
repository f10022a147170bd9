package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/journal"
)

const shortRunIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs or show the outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			j, err := openJournal(cfg)
			if err != nil {
				return err
			}
			defer j.Close()

			if len(args) == 1 {
				return showRun(cmd, j, strings.TrimSpace(args[0]), jsonOutput)
			}
			return listRuns(cmd, j, limit, jsonOutput)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, errors.New("run journal is disabled (set journal.enabled = true)")
	}
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open run journal: %w", err)
	}
	return j, nil
}

type runView struct {
	ID                  string `json:"id"`
	Status              string `json:"status"`
	StartedAt           string `json:"started_at"`
	Duration            string `json:"duration,omitempty"`
	Model               string `json:"model,omitempty"`
	Language            string `json:"language,omitempty"`
	Total               int    `json:"total"`
	Transcribed         int    `json:"transcribed"`
	Skipped             int    `json:"skipped"`
	AudioReused         int    `json:"audio_reused"`
	FetchFailed         int    `json:"fetch_failed"`
	TranscriptionFailed int    `json:"transcription_failed"`
	Error               string `json:"error,omitempty"`
}

type outcomeView struct {
	MediaID    string `json:"media_id"`
	Link       string `json:"link"`
	Status     string `json:"status"`
	Transcript string `json:"transcript,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

func newRunView(run journal.Run) runView {
	return runView{
		ID:                  run.ID,
		Status:              run.Status,
		StartedAt:           run.StartedAt.Local().Format(time.DateTime),
		Duration:            formatRunDuration(run.Duration()),
		Model:               run.Model,
		Language:            run.Language,
		Total:               run.Total,
		Transcribed:         run.Transcribed,
		Skipped:             run.Skipped,
		AudioReused:         run.AudioReused,
		FetchFailed:         run.FetchFailed,
		TranscriptionFailed: run.TranscriptionFailed,
		Error:               run.ErrorMessage,
	}
}

func listRuns(cmd *cobra.Command, j *journal.Journal, limit int, jsonOutput bool) error {
	runs, err := j.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run))
	}
	if jsonOutput {
		return writeJSON(cmd, views)
	}
	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			shortRunID(v.ID),
			v.StartedAt,
			v.Status,
			strconv.Itoa(v.Total),
			strconv.Itoa(v.Transcribed),
			strconv.Itoa(v.Skipped),
			strconv.Itoa(v.FetchFailed + v.TranscriptionFailed),
			v.Duration,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Status", "Links", "Transcribed", "Skipped", "Failed", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func showRun(cmd *cobra.Command, j *journal.Journal, id string, jsonOutput bool) error {
	run, err := j.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	outcomes, err := j.Outcomes(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, outcomeView{
			MediaID:    o.MediaID,
			Link:       o.Link,
			Status:     o.Status,
			Transcript: o.TranscriptPath,
			ErrorKind:  o.ErrorKind,
			Error:      o.ErrorMessage,
			Duration:   formatRunDuration(o.Duration),
		})
	}
	summary := newRunView(run)
	if jsonOutput {
		return writeJSON(cmd, struct {
			Run      runView       `json:"run"`
			Outcomes []outcomeView `json:"outcomes"`
		}{summary, views})
	}

	pairs := [][2]string{
		{"Status", summary.Status},
		{"Started", summary.StartedAt},
	}
	if summary.Duration != "" {
		pairs = append(pairs, [2]string{"Duration", summary.Duration})
	}
	pairs = append(pairs,
		[2]string{"Model", fmt.Sprintf("%s (language %s)", summary.Model, summary.Language)},
		[2]string{"Counts", fmt.Sprintf("%d transcribed, %d skipped, %d download failed, %d transcription failed of %d",
			summary.Transcribed, summary.Skipped, summary.FetchFailed, summary.TranscriptionFailed, summary.Total)},
	)
	if summary.Error != "" {
		pairs = append(pairs, [2]string{"Error", summary.Error})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", summary.ID)
	fmt.Fprintln(out, renderKeyValues(pairs))
	if len(views) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		detail := v.Error
		if detail == "" {
			detail = v.Transcript
		}
		rows = append(rows, []string{v.MediaID, v.Status, v.Duration, detail})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"ID", "Status", "Duration", "Detail"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
	return nil
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortRunID(id string) string {
	if len(id) <= shortRunIDLength {
		return id
	}
	return id[:shortRunIDLength]
}

func formatRunDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
