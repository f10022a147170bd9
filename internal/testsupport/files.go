package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// id3Header makes fixture files look like tagged MP3s to anything that sniffs them.
var id3Header = []byte("ID3\x04\x00\x00\x00\x00\x00\x00")

// WriteFile writes an audio fixture of exactly size bytes: an ID3 header
// followed by filler. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	var buf bytes.Buffer
	buf.Grow(int(size))
	buf.Write(id3Header)
	for int64(buf.Len()) < size {
		buf.WriteByte(0xFF)
	}
	if err := os.WriteFile(path, buf.Bytes()[:size], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTranscript writes a finished transcript so a link counts as done.
func WriteTranscript(t testing.TB, path, text string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
