package testsupport

import (
	"testing"

	"scribe/internal/config"
	"scribe/internal/journal"
)

// MustOpenJournal opens the configured run journal for tests and registers
// cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}
