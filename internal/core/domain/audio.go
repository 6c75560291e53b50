package domain

import (
	"mime"
	"strings"
)

// WordsPerMinute is the speaking rate used for duration estimates.
const WordsPerMinute = 150

// AudioArtifact is synthesized speech and its storage location.
type AudioArtifact struct {
	MimeType                string `json:"mime_type"`
	ByteLength              int64  `json:"byte_length"`
	StorageURL              string `json:"storage_url"`
	StorageKey              string `json:"storage_key"`
	DurationEstimateSeconds int    `json:"duration_estimate_seconds"`
}

// EstimateDurationSeconds estimates speaking time for a word count.
func EstimateDurationSeconds(words int) int {
	if words <= 0 {
		return 0
	}
	secs := words * 60 / WordsPerMinute
	if secs == 0 {
		secs = 1
	}
	return secs
}

// ExtensionForMIME picks a file extension for an audio content type.
// The second return value is false when the type is not recognised and the
// generic "bin" extension was chosen.
func ExtensionForMIME(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return "wav", true
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3":
		return "mp3", true
	case "audio/ogg", "audio/opus", "audio/vorbis", "application/ogg":
		return "ogg", true
	default:
		return "bin", false
	}
}
