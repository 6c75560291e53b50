package drive

// ContentType identifies which Drive files are narrated.
type ContentType string

const (
	// ContentFiles reads regular text files.
	ContentFiles ContentType = "files"
	// ContentDocs reads Google Docs (exported to text).
	ContentDocs ContentType = "docs"
	// ContentSheets reads Google Sheets (exported to CSV text).
	ContentSheets ContentType = "sheets"
)

// DefaultContentTypes are the content types read by default.
var DefaultContentTypes = []ContentType{ContentDocs}

// Config holds Google Drive fetcher configuration.
type Config struct {
	// ContentTypes specifies what types of content to read.
	ContentTypes []ContentType
	// MaxResults caps the number of files per run.
	MaxResults int64
	// MaxBodyChars truncates each exported body.
	MaxBodyChars int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContentTypes: DefaultContentTypes,
		MaxResults:   10,
		MaxBodyChars: 4000,
	}
}

// HasContentType checks if a content type is enabled.
func (c *Config) HasContentType(ct ContentType) bool {
	for _, t := range c.ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// ParseContentType returns the content type for a name, if valid.
func ParseContentType(name string) (ContentType, bool) {
	ct := ContentType(name)
	switch ct {
	case ContentFiles, ContentDocs, ContentSheets:
		return ct, true
	default:
		return "", false
	}
}
