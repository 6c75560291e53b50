package domain

import (
	"fmt"
	"strings"
)

// Provider identifies an external service that supplies content.
type Provider string

const (
	// ProviderGmail is the Gmail mail source.
	ProviderGmail Provider = "gmail"
	// ProviderCalendar is the Google Calendar source.
	ProviderCalendar Provider = "calendar"
	// ProviderYouTube is the YouTube video platform source.
	ProviderYouTube Provider = "youtube"
	// ProviderDrive is the Google Drive document workspace source.
	ProviderDrive Provider = "drive"
	// ProviderNotion is the Notion document workspace source.
	ProviderNotion Provider = "notion"
	// ProviderGitHub is the GitHub notifications source.
	ProviderGitHub Provider = "github"
	// ProviderTrends is the public trend feed. It needs no credential.
	ProviderTrends Provider = "trends"
)

// SourceKind groups providers by the type of content they supply.
type SourceKind string

const (
	KindMail      SourceKind = "mail"
	KindCalendar  SourceKind = "calendar"
	KindVideo     SourceKind = "video"
	KindDocuments SourceKind = "documents"
	KindDeveloper SourceKind = "developer"
	KindTrends    SourceKind = "trends"
)

// AllProviders lists every provider in narration order.
func AllProviders() []Provider {
	return []Provider{
		ProviderGmail,
		ProviderCalendar,
		ProviderDrive,
		ProviderNotion,
		ProviderYouTube,
		ProviderGitHub,
		ProviderTrends,
	}
}

// Kind returns the content kind supplied by the provider.
func (p Provider) Kind() SourceKind {
	switch p {
	case ProviderGmail:
		return KindMail
	case ProviderCalendar:
		return KindCalendar
	case ProviderYouTube:
		return KindVideo
	case ProviderDrive, ProviderNotion:
		return KindDocuments
	case ProviderGitHub:
		return KindDeveloper
	default:
		return KindTrends
	}
}

// RequiresAuth reports whether the provider needs a stored credential.
func (p Provider) RequiresAuth() bool {
	return p != ProviderTrends
}

// AuthFamily returns the OAuth application that issues credentials for the
// provider. Google services share one consent screen but keep separate
// credentials so that scopes can be granted independently.
func (p Provider) AuthFamily() string {
	switch p {
	case ProviderGmail, ProviderCalendar, ProviderYouTube, ProviderDrive:
		return "google"
	case ProviderNotion:
		return "notion"
	case ProviderGitHub:
		return "github"
	default:
		return ""
	}
}

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	for _, known := range AllProviders() {
		if p == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a user supplied name into a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
	return p, nil
}

// ParseProviders converts a list of names, rejecting unknown ones and
// dropping duplicates while keeping order.
func ParseProviders(names []string) ([]Provider, error) {
	seen := make(map[Provider]bool, len(names))
	result := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := ParseProvider(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}
	return result, nil
}
