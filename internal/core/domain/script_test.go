package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestScriptDocument_FullText tests flattening with section boundaries
func TestScriptDocument_FullText(t *testing.T) {
	doc := ScriptDocument{Sections: []Section{
		{Label: "mail", Text: "Host: Two emails today."},
		{Label: "empty", Text: "   "},
		{Label: "calendar", Text: "Guest: One meeting at ten."},
	}}

	assert.Equal(t, "Host: Two emails today.\n\nGuest: One meeting at ten.", doc.FullText())
	assert.Equal(t, 9, doc.WordCount())
	assert.False(t, doc.IsEmpty())
	assert.True(t, ScriptDocument{}.IsEmpty())
}

// TestParseLines tests speaker prefix parsing
func TestParseLines(t *testing.T) {
	lines := ParseLines("Host: Hello\n\nguest: Hi there\nNo prefix here\nNote: ten o'clock")

	assert.Equal(t, []Line{
		{Speaker: SpeakerHost, Text: "Hello"},
		{Speaker: SpeakerGuest, Text: "Hi there"},
		{Speaker: SpeakerHost, Text: "No prefix here"},
		{Speaker: SpeakerHost, Text: "Note: ten o'clock"},
	}, lines)
}

// TestFormatLines tests that formatting and parsing agree
func TestFormatLines(t *testing.T) {
	text := FormatLines([]Line{{Speaker: "guest", Text: " Hi "}, {Speaker: "Host", Text: ""}, {Speaker: "narrator", Text: "Bye"}})

	assert.Equal(t, "Guest: Hi\nHost: Bye", text)
}

// TestScriptDocument_Clone tests that clones do not share sections
func TestScriptDocument_Clone(t *testing.T) {
	doc := ScriptDocument{Title: "t", Sections: []Section{{Label: "a", Text: "x"}}}
	clone := doc.Clone()
	clone.Sections[0].Text = "changed"

	assert.Equal(t, "x", doc.Sections[0].Text)
}

// TestExtensionForMIME tests container type detection
func TestExtensionForMIME(t *testing.T) {
	tests := []struct {
		mime  string
		ext   string
		known bool
	}{
		{"audio/wav", "wav", true},
		{"audio/x-wav", "wav", true},
		{"audio/mpeg", "mp3", true},
		{"audio/mpeg; charset=binary", "mp3", true},
		{"audio/ogg; codecs=opus", "ogg", true},
		{"AUDIO/OPUS", "ogg", true},
		{"application/octet-stream", "bin", false},
		{"", "bin", false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			ext, known := ExtensionForMIME(tt.mime)
			assert.Equal(t, tt.ext, ext)
			assert.Equal(t, tt.known, known)
		})
	}
}

// TestEstimateDurationSeconds tests the speaking-rate estimate
func TestEstimateDurationSeconds(t *testing.T) {
	assert.Equal(t, 0, EstimateDurationSeconds(0))
	assert.Equal(t, 1, EstimateDurationSeconds(1))
	assert.Equal(t, 60, EstimateDurationSeconds(150))
	assert.Equal(t, 120, EstimateDurationSeconds(300))
}

// TestDateKey tests calendar day keys across zones
func TestDateKey(t *testing.T) {
	instant := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	assert.Equal(t, "2025-06-01", DateKey(instant, nil))
	assert.Equal(t, "2025-06-02", DateKey(instant, tokyo))
}
