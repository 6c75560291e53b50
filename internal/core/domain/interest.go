package domain

import (
	"strings"
	"time"
)

// Keyword bounds for a synthesized profile.
const (
	MinInterestKeywords = 10
	MaxInterestKeywords = 15
)

// InterestStatus records how a profile came to be.
type InterestStatus string

const (
	// InterestGenerated means the model produced usable keywords.
	InterestGenerated InterestStatus = "generated"
	// InterestEmpty means there were no signals or the output held no keywords.
	InterestEmpty InterestStatus = "empty"
	// InterestFailed means the generative call errored. Never cached.
	InterestFailed InterestStatus = "failed"
)

// InterestProfile is an ordered set of topical keywords for a user.
type InterestProfile struct {
	UserID      string         `json:"user_id"`
	Keywords    []string       `json:"keywords"`
	Status      InterestStatus `json:"status"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// IsEmpty reports whether the profile has no keywords.
func (p InterestProfile) IsEmpty() bool {
	return len(p.Keywords) == 0
}

// Cacheable reports whether the profile may be stored.
func (p InterestProfile) Cacheable() bool {
	return p.Status != InterestFailed
}

// NormalizeKeywords trims, de-duplicates case-insensitively and caps the list
// at MaxInterestKeywords while keeping the model's ranking order.
func NormalizeKeywords(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
		if len(out) == MaxInterestKeywords {
			break
		}
	}
	return out
}
