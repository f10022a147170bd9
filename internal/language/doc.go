// Package language normalizes the language hint handed to the transcriber.
//
// Hints arrive from configuration or flags as ISO 639-1/639-2 codes, BCP 47
// tags, English words ("ukrainian"), or the literal "auto". Everything is
// reduced to the two-letter form WhisperX expects; "auto" becomes the empty
// string so the model detects the language itself.
package language
