// Package ytdlp fetches the audio track behind a media link with yt-dlp,
// transcoding it to the configured codec at a caller-chosen path.
//
// Progress callbacks from yt-dlp are thinned through a logging.ProgressSampler
// so a long download produces a handful of log lines rather than one per
// callback.
package ytdlp
