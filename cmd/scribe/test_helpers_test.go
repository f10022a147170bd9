package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/batchrun"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	configPath := filepath.Join(homeDir, ".config", "scribe", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

type stubDownloader struct{}

func (stubDownloader) Fetch(_ context.Context, link, dest string) error {
	return os.WriteFile(dest, []byte("audio:"+link), 0o644)
}

type stubTranscriber struct {
	failAll bool
}

func (s stubTranscriber) Transcribe(_ context.Context, audioPath, _ string) (string, error) {
	if s.failAll {
		return "", errors.New("model crashed")
	}
	return "transcript of " + filepath.Base(audioPath), nil
}

// stubRunBatch swaps the batch runner for one using in-process services and
// records the config each run received.
func stubRunBatch(t *testing.T, transcriber stubTranscriber) *[]config.Config {
	t.Helper()
	var mu sync.Mutex
	var seen []config.Config
	original := runBatch
	runBatch = func(ctx context.Context, cfg *config.Config, opts batchrun.Options) (pipeline.Summary, error) {
		mu.Lock()
		seen = append(seen, *cfg)
		mu.Unlock()
		opts.Downloader = stubDownloader{}
		opts.Transcriber = transcriber
		opts.Logger = logging.NewNop()
		opts.HandleSignals = false
		return batchrun.Run(ctx, cfg, opts)
	}
	t.Cleanup(func() { runBatch = original })
	return &seen
}
