package pipeline

import (
	"path/filepath"
	"strings"
)

// MediaID derives the stable identifier for link: the text after the last
// '='. A link without '=' (or ending in one) uses the whole link. Path
// separators are replaced so the ID is always a single file name.
func MediaID(link string) string {
	link = strings.TrimSpace(link)
	id := link
	if idx := strings.LastIndex(link, "="); idx >= 0 && idx < len(link)-1 {
		id = link[idx+1:]
	}
	return sanitizeID(id)
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, id)
}

// ResolvePaths builds the audio and transcript paths for link.
func ResolvePaths(link string, cfg Config) LinkRecord {
	id := MediaID(link)
	return LinkRecord{
		Link:           strings.TrimSpace(link),
		ID:             id,
		AudioPath:      filepath.Join(cfg.DownloadsDir, withExt(id, cfg.AudioExt)),
		TranscriptPath: filepath.Join(cfg.TranscriptsDir, withExt(id, cfg.TranscriptExt)),
	}
}

func withExt(id, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return id
	}
	return id + "." + ext
}
