package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// palette holds the output styles. Colours are dropped when the writer is
// not a colour terminal.
type palette struct {
	title lipgloss.Style
	stage lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	muted lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		stage: r.NewStyle().Foreground(lipgloss.Color("#04B575")).Width(24),
		ok:    r.NewStyle().Foreground(lipgloss.Color("#04B575")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#FFCC00")),
		err:   r.NewStyle().Foreground(lipgloss.Color("#FF5555")),
		muted: r.NewStyle().Foreground(lipgloss.Color("#626262")),
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressPrinter writes one line per progress event.
type progressPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	pal  palette
	last domain.Stage
}

var _ driven.ProgressSink = (*progressPrinter)(nil)

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, pal: newPalette(out)}
}

func (p *progressPrinter) Send(_ context.Context, ev domain.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = ev.Stage

	marker := p.pal.ok.Render("✓")
	if ev.Stage == domain.StageError {
		marker = p.pal.err.Render("✗")
	}
	detail := describeEvent(ev)
	if ev.Stage == domain.StageError {
		detail = p.pal.err.Render(detail)
	}
	_, err := fmt.Fprintf(p.out, "%s %s %s\n", marker, p.pal.stage.Render(string(ev.Stage)), detail)
	return err
}

func (p *progressPrinter) Close() error { return nil }

// Last returns the most recent stage printed.
func (p *progressPrinter) Last() domain.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// describeEvent summarises an event payload in a few words. Payloads decoded
// from JSON carry float64 numbers and []any lists, so both forms are handled.
func describeEvent(ev domain.ProgressEvent) string {
	pl := ev.Payload
	switch ev.Stage {
	case domain.StageStarted:
		return "providers: " + joinList(pl["providers"])
	case domain.StageAggregating:
		s := fmt.Sprintf("%d items, %d providers ok, %d failed", toInt(pl["items"]), toInt(pl["succeeded"]), toInt(pl["failed"]))
		if auth := joinList(pl["auth_required"]); auth != "" {
			s += " (reconnect: " + auth + ")"
		}
		return s
	case domain.StageSynthesizingInterest:
		return fmt.Sprintf("%d keywords (%v)", toInt(pl["keywords"]), pl["status"])
	case domain.StageSynthesizingScript:
		s := fmt.Sprintf("%d sections, %d words", toInt(pl["sections"]), toInt(pl["words"]))
		if failed := joinList(pl["failed_topics"]); failed != "" {
			s += " (dropped: " + failed + ")"
		}
		return s
	case domain.StageSynthesizingAudio:
		if skipped, _ := pl["skipped"].(bool); skipped {
			return "skipped"
		}
		return fmt.Sprintf("~%ds of audio", toInt(pl["duration_seconds"]))
	case domain.StagePersisting:
		return fmt.Sprintf("%v (%v)", pl["date_key"], pl["status"])
	case domain.StageCompleted:
		if url, _ := pl["audio_url"].(string); url != "" {
			return url
		}
		return fmt.Sprintf("briefing %v", pl["briefing_id"])
	case domain.StageError:
		return fmt.Sprintf("%v [%v]", pl["message"], pl["code"])
	}
	return ""
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func joinList(v any) string {
	var parts []string
	switch l := v.(type) {
	case []string:
		parts = l
	case []domain.Provider:
		for _, p := range l {
			parts = append(parts, string(p))
		}
	case []any:
		for _, x := range l {
			parts = append(parts, fmt.Sprint(x))
		}
	}
	return strings.Join(parts, ", ")
}

// printBriefing renders a stored briefing.
func printBriefing(w io.Writer, rec *domain.BriefingRecord, full bool) {
	pal := newPalette(w)
	title := rec.Title
	if title == "" {
		title = "Briefing"
	}
	fmt.Fprintf(w, "%s  %s\n", pal.title.Render(title), pal.muted.Render(rec.DateKey))
	fmt.Fprintf(w, "Status:   %s\n", rec.Status)
	if rec.HasAudio() {
		fmt.Fprintf(w, "Audio:    %s\n", rec.AudioURL)
	} else {
		fmt.Fprintf(w, "Audio:    %s\n", pal.warn.Render("none"))
	}
	if rec.DurationSeconds > 0 {
		fmt.Fprintf(w, "Length:   %dm%02ds\n", rec.DurationSeconds/60, rec.DurationSeconds%60)
	}
	if !full {
		return
	}
	for _, sec := range rec.Sections {
		fmt.Fprintf(w, "\n%s\n%s\n", pal.title.Render("## "+sec.Label), sec.Text)
	}
}
