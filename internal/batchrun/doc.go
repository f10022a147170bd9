// Package batchrun wires configuration, logging, the run lock, the run
// journal, and the concrete yt-dlp and WhisperX services into one pipeline
// run. It is the process-level entry point behind "scribe run".
package batchrun
