// Package journal keeps a SQLite history of scribe runs and the outcome of
// every link processed in them.
//
// The journal is write-mostly bookkeeping for `scribe history`. It never
// decides whether a link needs work; the transcript and audio files on disk
// remain the only completion markers. A journal that fails to open or write
// degrades to a warning.
package journal
