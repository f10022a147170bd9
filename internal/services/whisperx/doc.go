// Package whisperx runs WhisperX through uvx to turn one audio file into
// plain text.
//
// Each call writes WhisperX's JSON output into a private temp directory,
// joins the segment text, and removes the directory again. The service is
// meant to be driven by a single consumer; it holds no per-call state.
//
// Configuration options (model, CUDA, VAD method, timeout) are passed via
// Config.
package whisperx
