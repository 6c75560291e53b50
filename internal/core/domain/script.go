package domain

import "strings"

// Speaker names used in narration turns.
const (
	SpeakerHost  = "Host"
	SpeakerGuest = "Guest"
)

// Line is one spoken turn.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Section is one labelled part of a script.
type Section struct {
	// Label identifies the topic, e.g. "mail" or "trend:golang".
	Label string `json:"label"`
	// Title is a human-readable heading.
	Title string `json:"title,omitempty"`
	// Text is the narration for the section, one "Speaker: text" turn per line.
	Text string `json:"text"`
}

// Lines splits the section text into speaker turns. Lines without a known
// speaker prefix are attributed to the host.
func (s Section) Lines() []Line {
	return ParseLines(s.Text)
}

// ScriptDocument is the narration produced by script synthesis. Sections
// keep their boundaries so playback can be aligned to them.
type ScriptDocument struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// FullText flattens the document into one text, sections separated by a
// blank line.
func (d ScriptDocument) FullText() string {
	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

// Lines returns every speaker turn in order.
func (d ScriptDocument) Lines() []Line {
	var out []Line
	for _, s := range d.Sections {
		out = append(out, s.Lines()...)
	}
	return out
}

// WordCount returns the number of words in the flattened text.
func (d ScriptDocument) WordCount() int {
	return len(strings.Fields(d.FullText()))
}

// IsEmpty reports whether the document has nothing to speak.
func (d ScriptDocument) IsEmpty() bool {
	return strings.TrimSpace(d.FullText()) == ""
}

// Clone returns a deep copy so that downstream stages never share section
// storage with the producer.
func (d ScriptDocument) Clone() ScriptDocument {
	out := ScriptDocument{Title: d.Title}
	if d.Sections != nil {
		out.Sections = make([]Section, len(d.Sections))
		copy(out.Sections, d.Sections)
	}
	return out
}

// FormatLines renders speaker turns as "Speaker: text" lines.
func FormatLines(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		speaker := NormalizeSpeaker(l.Speaker)
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(text)
	}
	return b.String()
}

// ParseLines parses "Speaker: text" lines.
func ParseLines(text string) []Line {
	var out []Line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		speaker, body, ok := strings.Cut(raw, ":")
		if ok && isSpeaker(speaker) {
			out = append(out, Line{Speaker: NormalizeSpeaker(speaker), Text: strings.TrimSpace(body)})
			continue
		}
		out = append(out, Line{Speaker: SpeakerHost, Text: raw})
	}
	return out
}

// NormalizeSpeaker maps free-form speaker names onto Host or Guest.
func NormalizeSpeaker(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), SpeakerGuest) {
		return SpeakerGuest
	}
	return SpeakerHost
}

func isSpeaker(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, SpeakerHost) || strings.EqualFold(s, SpeakerGuest)
}
