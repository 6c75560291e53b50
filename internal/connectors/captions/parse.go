package captions

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoCaptions is returned when a track holds no caption text.
var ErrNoCaptions = errors.New("no captions")

// Transcript is the flattened text of a caption track.
type Transcript struct {
	Text    string
	Offsets []time.Duration
}

// ParseTrack reads a caption track. Both the legacy format
// (<text start="1.2" dur="2">) and the srv3 format (<p t="1200" d="2000">)
// are accepted.
func ParseTrack(r io.Reader) (Transcript, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Transcript{}, fmt.Errorf("parse caption track: %w", err)
	}

	var (
		parts   []string
		offsets []time.Duration
	)
	add := func(text string, offset time.Duration) {
		// Tracks are entity-encoded twice.
		text = strings.Join(strings.Fields(html.UnescapeString(text)), " ")
		if text == "" {
			return
		}
		parts = append(parts, text)
		offsets = append(offsets, offset)
	}

	doc.Find("text[start]").Each(func(_ int, s *goquery.Selection) {
		start, _ := s.Attr("start")
		secs, err := strconv.ParseFloat(start, 64)
		if err != nil {
			return
		}
		add(s.Text(), time.Duration(secs*float64(time.Second)))
	})
	if len(parts) == 0 {
		doc.Find("p[t]").Each(func(_ int, s *goquery.Selection) {
			t, _ := s.Attr("t")
			ms, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return
			}
			add(s.Text(), time.Duration(ms)*time.Millisecond)
		})
	}

	if len(parts) == 0 {
		return Transcript{}, ErrNoCaptions
	}
	return Transcript{Text: strings.Join(parts, " "), Offsets: offsets}, nil
}
