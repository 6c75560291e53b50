package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// DefaultMaxResults caps notifications per run.
const DefaultMaxResults = 20

// Fetcher reads the user's unread notifications.
type Fetcher struct {
	opts       ClientOptions
	maxResults int
}

// NewFetcher creates a notifications fetcher.
func NewFetcher(opts ClientOptions) *Fetcher {
	return &Fetcher{opts: opts, maxResults: DefaultMaxResults}
}

// Provider returns the provider this fetcher serves.
func (f *Fetcher) Provider() domain.Provider {
	return domain.ProviderGitHub
}

// Fetch returns unread notifications updated since req.Since.
func (f *Fetcher) Fetch(ctx context.Context, req driven.FetchRequest) ([]domain.ContentItem, error) {
	if req.Credential == nil {
		return nil, fmt.Errorf("%w: no github credential", domain.ErrAuthRequired)
	}
	client, err := NewClientWithToken(ctx, req.Credential.AccessToken, f.opts)
	if err != nil {
		return nil, err
	}

	limit := f.maxResults
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}

	notifications, err := client.ListNotifications(ctx, req.Since, limit)
	items := make([]domain.ContentItem, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, NotificationToItem(n))
	}
	return items, err
}

// NotificationToItem converts a notification to a content item.
func NotificationToItem(n *gh.Notification) domain.ContentItem {
	subject := n.GetSubject()
	repo := n.GetRepository().GetFullName()

	body := fmt.Sprintf("%s in %s: %s", subjectKind(subject.GetType()), repo, subject.GetTitle())
	if reason := describeReason(n.GetReason()); reason != "" {
		body += " (" + reason + ")"
	}

	return domain.ContentItem{
		SourceID:  n.GetID(),
		Provider:  domain.ProviderGitHub,
		Title:     subject.GetTitle(),
		Body:      body,
		Author:    repo,
		URL:       webURL(subject.GetURL(), n.GetRepository().GetHTMLURL()),
		Timestamp: n.GetUpdatedAt().Time,
	}
}

func subjectKind(t string) string {
	switch t {
	case "PullRequest":
		return "Pull request"
	case "Issue":
		return "Issue"
	case "Release":
		return "Release"
	case "Discussion":
		return "Discussion"
	case "CheckSuite":
		return "Check run"
	case "":
		return "Update"
	default:
		return t
	}
}

// describeReason turns a notification reason into narratable text.
func describeReason(reason string) string {
	switch reason {
	case "review_requested":
		return "your review was requested"
	case "mention", "team_mention":
		return "you were mentioned"
	case "assign":
		return "assigned to you"
	case "author":
		return "you opened it"
	case "comment":
		return "new comments"
	case "ci_activity":
		return "a workflow run finished"
	case "security_alert":
		return "security alert"
	default:
		return ""
	}
}

// webURL converts an API subject URL to its github.com page, falling back
// to the repository page.
func webURL(apiURL, repoURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || !strings.HasPrefix(u.Path, "/repos/") {
		return repoURL
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/repos/"), "/")
	if len(parts) >= 4 && parts[2] == "pulls" {
		parts[2] = "pull"
	}
	return "https://github.com/" + strings.Join(parts, "/")
}
