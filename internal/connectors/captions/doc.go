// Package captions resolves video transcripts from caption tracks.
//
// Two extractors are provided. TimedTextExtractor asks the timed-text
// endpoint for a track in the requested language. WatchPageExtractor reads
// the video's watch page, picks a caption track from the embedded player
// configuration and downloads it. The transcript service uses the first as
// primary and the second as fallback.
package captions
