package gmail

// Config holds Gmail fetcher configuration.
type Config struct {
	// LabelIDs limits fetching to specific label IDs.
	// If empty, every label is considered.
	LabelIDs []string
	// Query is an additional Gmail search query (optional).
	Query string
	// MaxResults caps the number of messages per run.
	MaxResults int64
	// IncludeSpamTrash includes spam and trash if true.
	IncludeSpamTrash bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LabelIDs:   []string{"INBOX"},
		Query:      "-category:promotions -category:social",
		MaxResults: 20,
	}
}
