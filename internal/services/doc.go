// Package services defines shared utilities consumed by the pipeline loops and
// the external tool integrations (yt-dlp, WhisperX).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, lanes, stages, and media IDs for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that let the journal and
//     reporter classify failures consistently.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
