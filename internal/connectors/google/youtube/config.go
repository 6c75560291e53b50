package youtube

// Config holds YouTube fetcher configuration.
type Config struct {
	// MaxResults caps the number of liked videos per run.
	MaxResults int64
	// MaxDescriptionChars truncates the description used when a video has
	// no transcript.
	MaxDescriptionChars int
	// DescriptionFallback narrates the description of videos without a
	// transcript instead of dropping them.
	DescriptionFallback bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxResults:          10,
		MaxDescriptionChars: 600,
	}
}
