package notion

// Config holds Notion fetch settings.
type Config struct {
	// MaxResults caps the number of pages returned.
	MaxResults int
	// MaxBlocks caps the top-level blocks read per page.
	MaxBlocks int
	// MaxBodyChars caps the flattened page text.
	MaxBodyChars int
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{MaxResults: 10, MaxBlocks: 50, MaxBodyChars: 4000}
}
