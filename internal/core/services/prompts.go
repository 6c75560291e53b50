package services

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// DefaultPrompts returns the built-in prompt templates by name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptInterests: `You analyse a person's recent viewing history and infer their interests.
Reply with a JSON array of {{.Min}} to {{.Max}} short topical keywords in the language "{{.Language}}".
Order them from strongest to weakest interest. Reply with the JSON array only.

Viewing history:
{{range .Signals}}- {{.}}
{{end}}`,

		driven.PromptScriptTopic: `You write one segment of a two-person audio briefing. The speakers are "Host" and "Guest".
Language: {{.Language}}. Segment: {{.Label}} ({{.Kind}}).
{{if .Interests}}The listener is interested in: {{join .Interests ", "}}.
{{end}}Summarise what matters in the material below as a short, natural conversation.
Reply with JSON: {"title": string, "lines": [{"speaker": "Host" or "Guest", "text": string}]}

Material:
{{range .Items}}## {{.Title}}{{if .Author}} ({{.Author}}){{end}}
{{truncate .Body 2000}}

{{end}}`,

		driven.PromptTrendTopic: `You write one segment of a two-person audio briefing. The speakers are "Host" and "Guest".
Language: {{.Language}}. Topic: "{{.Topic}}", which is trending today.
{{if .Interests}}The listener is interested in: {{join .Interests ", "}}.
{{end}}Explain briefly what the topic is and why people are talking about it.
Reply with JSON: {"title": string, "lines": [{"speaker": "Host" or "Guest", "text": string}]}`,

		driven.PromptScriptOpening: `Write the opening of a two-person audio briefing for {{.Date}}. The speakers are "Host" and "Guest".
Language: {{.Language}}. Mention that today covers: {{join .Topics ", "}}. Keep it to three lines.
Reply with JSON: {"title": string, "lines": [{"speaker": "Host" or "Guest", "text": string}]}`,

		driven.PromptScriptClosing: `Write the closing of a two-person audio briefing. The speakers are "Host" and "Guest".
Language: {{.Language}}. Today covered: {{join .Topics ", "}}. Keep it to two lines.
Reply with JSON: {"title": string, "lines": [{"speaker": "Host" or "Guest", "text": string}]}`,
	}
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	},
}

// renderPrompt loads a template from store, falling back to the built-in
// default, and executes it with data.
func renderPrompt(store driven.PromptStore, name string, data any) (string, error) {
	text := ""
	if store != nil {
		if t, err := store.Load(name); err == nil {
			text = t
		}
	}
	if text == "" {
		text = DefaultPrompts()[name]
	}
	if text == "" {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// ValidatePrompt reports whether text parses as a prompt template.
func ValidatePrompt(name, text string) error {
	_, err := template.New(name).Funcs(promptFuncs).Parse(text)
	return err
}
