package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// Templates are rendered with text/template; the fields available to each are
// listed below.
const (
	// PromptInterests reduces viewing signals to keywords.
	// Fields: .Language, .Min, .Max, .Signals ([]string).
	PromptInterests = "interests"

	// PromptScriptTopic narrates one provider's content.
	// Fields: .Language, .Label, .Kind, .Items ([]domain.ContentItem), .Interests ([]string).
	PromptScriptTopic = "script_topic"

	// PromptTrendTopic narrates one trend keyword.
	// Fields: .Language, .Topic, .Interests ([]string).
	PromptTrendTopic = "trend_topic"

	// PromptScriptOpening opens the show.
	// Fields: .Language, .Date, .Topics ([]string).
	PromptScriptOpening = "script_opening"

	// PromptScriptClosing closes the show.
	// Fields: .Language, .Topics ([]string).
	PromptScriptClosing = "script_closing"
)

// PromptNames lists every known prompt.
func PromptNames() []string {
	return []string{PromptInterests, PromptScriptTopic, PromptTrendTopic, PromptScriptOpening, PromptScriptClosing}
}
