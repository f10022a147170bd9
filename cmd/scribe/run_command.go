package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/batchrun"
	"scribe/internal/config"
)

// runBatch is replaced in tests to inject stub services.
var runBatch = batchrun.Run

type runOverrides struct {
	downloadsDir      string
	transcriptsDir    string
	inputFile         string
	queueSize         int
	language          string
	model             string
	onTranscribeError string
	minAudioBytes     int64
	cuda              bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download and transcribe every link in the input file",
		Long: "Reads one link per line from the input file, downloads audio for links " +
			"without a transcript, and transcribes each file while the next one downloads. " +
			"Re-running resumes where the previous run stopped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyRunOverrides(cmd, cfg, overrides); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary, err := runBatch(cmd.Context(), cfg, batchrun.Options{
				LogLevel:      ctx.logLevel(),
				Verbose:       ctx.verbose(),
				Out:           out,
				Color:         shouldColorize(out),
				HandleSignals: true,
			})
			if err != nil {
				return err
			}
			if summary.Failed() > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d link(s) failed; re-run to retry them\n", summary.Failed())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&overrides.downloadsDir, "downloads-dir", "", "Override paths.downloads_dir")
	flags.StringVar(&overrides.transcriptsDir, "transcripts-dir", "", "Override paths.transcripts_dir")
	flags.StringVarP(&overrides.inputFile, "input", "i", "", "Override paths.input_file")
	flags.IntVar(&overrides.queueSize, "queue-size", 0, "Override pipeline.queue_size")
	flags.StringVarP(&overrides.language, "language", "l", "", "Override pipeline.language (ISO 639 code or auto)")
	flags.StringVarP(&overrides.model, "model", "m", "", "Override transcription.model")
	flags.StringVar(&overrides.onTranscribeError, "on-transcribe-error", "", "Override pipeline.on_transcribe_error (skip or abort)")
	flags.Int64Var(&overrides.minAudioBytes, "min-audio-bytes", 0, "Override pipeline.min_audio_bytes")
	flags.BoolVar(&overrides.cuda, "cuda", false, "Override transcription.cuda_enabled")

	return cmd
}

// applyRunOverrides copies explicitly set flags onto cfg and re-validates it.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config, o runOverrides) error {
	flags := cmd.Flags()
	changed := false
	if flags.Changed("downloads-dir") {
		cfg.Paths.DownloadsDir = o.downloadsDir
		changed = true
	}
	if flags.Changed("transcripts-dir") {
		cfg.Paths.TranscriptsDir = o.transcriptsDir
		changed = true
	}
	if flags.Changed("input") {
		cfg.Paths.InputFile = o.inputFile
		changed = true
	}
	if flags.Changed("queue-size") {
		cfg.Pipeline.QueueSize = o.queueSize
		changed = true
	}
	if flags.Changed("language") {
		cfg.Pipeline.Language = o.language
		changed = true
	}
	if flags.Changed("model") {
		cfg.Transcription.Model = o.model
		changed = true
	}
	if flags.Changed("on-transcribe-error") {
		cfg.Pipeline.OnTranscribeError = o.onTranscribeError
		changed = true
	}
	if flags.Changed("min-audio-bytes") {
		cfg.Pipeline.MinAudioBytes = o.minAudioBytes
		changed = true
	}
	if flags.Changed("cuda") {
		cfg.Transcription.CUDAEnabled = o.cuda
		changed = true
	}
	if !changed {
		return nil
	}
	if err := cfg.Normalize(); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	return nil
}
