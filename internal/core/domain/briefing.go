package domain

import (
	"time"
)

// DateKeyLayout is the layout of a calendar day key.
const DateKeyLayout = "2006-01-02"

// DateKey returns the calendar day of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// BriefingStatus describes how the current content of a record was produced.
type BriefingStatus string

const (
	// BriefingCompleted has a script and audio.
	BriefingCompleted BriefingStatus = "completed"
	// BriefingScriptOnly has a script but speech synthesis failed.
	BriefingScriptOnly BriefingStatus = "script_only"
	// BriefingEdited was last changed by a manual save.
	BriefingEdited BriefingStatus = "edited"
)

// BriefingRecord is the durable daily briefing. Unique on (UserID, DateKey).
type BriefingRecord struct {
	ID       string         `json:"id"`
	UserID   string         `json:"user_id"`
	DateKey  string         `json:"date_key"`
	Title    string         `json:"title"`
	Script   string         `json:"script"`
	Sections []Section      `json:"sections"`
	Status   BriefingStatus `json:"status"`

	AudioURL      string `json:"audio_url,omitempty"`
	AudioMimeType string `json:"audio_mime_type,omitempty"`
	AudioBytes    int64  `json:"audio_bytes,omitempty"`
	// DurationSeconds is an estimate derived from the script length.
	DurationSeconds int `json:"duration_seconds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAudio reports whether the record references an audio file.
func (b *BriefingRecord) HasAudio() bool {
	return b.AudioURL != ""
}

// Document returns the record's script as a ScriptDocument.
func (b *BriefingRecord) Document() ScriptDocument {
	doc := ScriptDocument{Title: b.Title}
	if len(b.Sections) > 0 {
		doc.Sections = make([]Section, len(b.Sections))
		copy(doc.Sections, b.Sections)
	}
	return doc
}

// BriefingUpsert carries the fields replaced by a pipeline run.
type BriefingUpsert struct {
	UserID  string
	DateKey string
	Script  ScriptDocument
	Audio   *AudioArtifact
	// KeepAudio leaves the stored audio fields untouched and ignores Audio.
	KeepAudio bool
	Status    BriefingStatus
	Occurred  time.Time
}

// BriefingEdit is a partial manual edit. Nil fields are left unchanged.
type BriefingEdit struct {
	Title    *string   `json:"title,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// IsEmpty reports whether the edit changes nothing.
func (e BriefingEdit) IsEmpty() bool {
	return e.Title == nil && e.Sections == nil
}

// Apply returns the record that results from applying the upsert to
// existing, which may be nil. A new record gets id; an existing one keeps
// its identity and creation time.
func (in BriefingUpsert) Apply(existing *BriefingRecord, id string) BriefingRecord {
	var rec BriefingRecord
	if existing != nil {
		rec = *existing
	} else {
		rec = BriefingRecord{
			ID:        id,
			UserID:    in.UserID,
			DateKey:   in.DateKey,
			CreatedAt: in.Occurred,
		}
	}
	doc := in.Script.Clone()
	rec.Title = doc.Title
	rec.Sections = doc.Sections
	rec.Script = doc.FullText()
	rec.Status = in.Status
	rec.UpdatedAt = in.Occurred
	if !in.KeepAudio {
		rec.AudioURL, rec.AudioMimeType, rec.AudioBytes = "", "", 0
		rec.DurationSeconds = EstimateDurationSeconds(doc.WordCount())
		if in.Audio != nil {
			rec.AudioURL = in.Audio.StorageURL
			rec.AudioMimeType = in.Audio.MimeType
			rec.AudioBytes = in.Audio.ByteLength
			rec.DurationSeconds = in.Audio.DurationEstimateSeconds
		}
	}
	return rec
}
