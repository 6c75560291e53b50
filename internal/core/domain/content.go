package domain

import (
	"sort"
	"time"
)

// ContentItem is the provider-agnostic envelope for one piece of fetched content.
type ContentItem struct {
	// SourceID is the provider's identifier for the item.
	SourceID string `json:"source_id"`
	// Provider that produced the item.
	Provider Provider `json:"provider"`
	// Title is a short human-readable heading.
	Title string `json:"title"`
	// Body is the text to narrate from.
	Body string `json:"body"`
	// Author is the sender, organiser or owner when known.
	Author string `json:"author,omitempty"`
	// URL links back to the item in the provider's UI.
	URL string `json:"url,omitempty"`
	// Timestamp is when the item was created, sent or scheduled.
	Timestamp time.Time `json:"timestamp"`
	// SegmentOffsets holds caption segment start offsets for transcript items.
	SegmentOffsets []time.Duration `json:"segment_offsets,omitempty"`
}

// IsEmpty reports whether the item carries no narratable text.
func (c ContentItem) IsEmpty() bool {
	return c.Title == "" && c.Body == ""
}

// FetchStatus is the outcome of one provider fetch.
type FetchStatus string

const (
	// FetchOK means the provider returned without error.
	FetchOK FetchStatus = "ok"
	// FetchPartial means the provider returned some items and an error.
	FetchPartial FetchStatus = "partial"
	// FetchUnavailable means the provider failed or timed out.
	FetchUnavailable FetchStatus = "unavailable"
	// FetchAuthRequired means no valid credential exists for the provider.
	FetchAuthRequired FetchStatus = "authRequired"
)

// Failed reports whether the status counts as a failure for progress reporting.
func (s FetchStatus) Failed() bool {
	return s == FetchUnavailable || s == FetchAuthRequired
}

// SourceFetchResult is the settled outcome for one provider in one run.
type SourceFetchResult struct {
	Provider Provider      `json:"provider"`
	Items    []ContentItem `json:"items"`
	Status   FetchStatus   `json:"status"`
	// Error is the recorded failure, if any.
	Error error `json:"-"`
	// Duration is how long the fetch took.
	Duration time.Duration `json:"duration"`
}

// ErrorMessage returns the recorded error text, or an empty string.
func (r SourceFetchResult) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

// AggregatedContent maps every requested provider to its settled result.
type AggregatedContent map[Provider]SourceFetchResult

// ItemCount returns the number of items across all providers.
func (a AggregatedContent) ItemCount() int {
	n := 0
	for _, r := range a {
		n += len(r.Items)
	}
	return n
}

// IsEmpty reports whether no provider returned any item.
func (a AggregatedContent) IsEmpty() bool {
	return a.ItemCount() == 0
}

// Items returns the items of one provider.
func (a AggregatedContent) Items(p Provider) []ContentItem {
	return a[p].Items
}

// Statuses returns the status of every provider.
func (a AggregatedContent) Statuses() map[Provider]FetchStatus {
	out := make(map[Provider]FetchStatus, len(a))
	for p, r := range a {
		out[p] = r.Status
	}
	return out
}

// Counts returns how many providers succeeded (ok or partial) and failed.
func (a AggregatedContent) Counts() (succeeded, failed int) {
	for _, r := range a {
		if r.Status.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

// Failed returns the providers that failed, sorted by name.
func (a AggregatedContent) Failed() []Provider {
	var out []Provider
	for p, r := range a {
		if r.Status.Failed() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllAuthRequired reports whether every provider failed for lack of a credential.
func (a AggregatedContent) AllAuthRequired() bool {
	if len(a) == 0 {
		return false
	}
	for _, r := range a {
		if r.Status != FetchAuthRequired {
			return false
		}
	}
	return true
}
