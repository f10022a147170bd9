// Package pipeline turns a list of media links into transcripts.
//
// One producer walks the links in input order, skipping links whose
// transcript already exists, fetching audio for the rest, and feeding a
// bounded WorkQueue. One consumer drains the queue through a Transcriber and
// writes a transcript per item. The queue carries a done marker after the
// last item so the consumer knows when to stop; its capacity bounds how far
// downloads may run ahead of transcription.
//
// The filesystem is the completion ledger: a transcript on disk means the
// link is done, an audio file on disk means it has been fetched. Re-running
// over the same input only performs the work that is still missing.
package pipeline
