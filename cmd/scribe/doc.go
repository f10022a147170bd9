// Package main hosts the scribe CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, applies per-run
// flag overrides, and hands off to internal/batchrun for the download and
// transcription pipeline. Inspection commands (check, history) read the
// same configuration and render tables for the terminal.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
