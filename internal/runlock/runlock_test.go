package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
)

func TestAcquireExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcription", ".scribe.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if first.Path() != path {
		t.Fatalf("Path = %q", first.Path())
	}

	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire err = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again.Release()
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("Release on nil lock: %v", err)
	}
}

func TestReleaseKeepsLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".scribe.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// A second run that opened the file before release must contend on the
	// same inode as any later run.
	waiting := flock.New(path)
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file removed on release: %v", err)
	}

	ok, err := waiting.TryLock()
	if err != nil || !ok {
		t.Fatalf("waiting TryLock = %v, %v", ok, err)
	}
	defer func() { _ = waiting.Unlock() }()

	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("Acquire while another run holds the lock err = %v, want ErrLocked", err)
	}
}
