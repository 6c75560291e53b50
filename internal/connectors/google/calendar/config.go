package calendar

// Config holds Google Calendar fetcher configuration.
type Config struct {
	// CalendarIDs lists the calendars to read. Defaults to the primary one.
	CalendarIDs []string
	// MaxResults caps the number of events per calendar.
	MaxResults int64
	// Days is how many calendar days, starting today, the window covers.
	Days int
}

// DefaultConfig returns today-and-tomorrow on the primary calendar.
func DefaultConfig() *Config {
	return &Config{
		CalendarIDs: []string{"primary"},
		MaxResults:  50,
		Days:        2,
	}
}
