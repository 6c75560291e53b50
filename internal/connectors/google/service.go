package google

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// clientOptions prepends the credential's token source to extra options.
// Options passed later win, so tests can swap the endpoint and client.
func clientOptions(cred *domain.Credential, extra []option.ClientOption) ([]option.ClientOption, error) {
	if cred == nil || cred.AccessToken == "" {
		return nil, fmt.Errorf("%w: no google credential", domain.ErrAuthRequired)
	}
	opts := make([]option.ClientOption, 0, len(extra)+1)
	opts = append(opts, option.WithTokenSource(NewTokenSource(cred)))
	return append(opts, extra...), nil
}

// NewGmailService creates a Gmail API service for a credential.
func NewGmailService(ctx context.Context, cred *domain.Credential, extra ...option.ClientOption) (*gmail.Service, error) {
	opts, err := clientOptions(cred, extra)
	if err != nil {
		return nil, err
	}
	return gmail.NewService(ctx, opts...)
}

// NewDriveService creates a Google Drive API service for a credential.
func NewDriveService(ctx context.Context, cred *domain.Credential, extra ...option.ClientOption) (*drive.Service, error) {
	opts, err := clientOptions(cred, extra)
	if err != nil {
		return nil, err
	}
	return drive.NewService(ctx, opts...)
}

// NewCalendarService creates a Google Calendar API service for a credential.
func NewCalendarService(ctx context.Context, cred *domain.Credential, extra ...option.ClientOption) (*calendar.Service, error) {
	opts, err := clientOptions(cred, extra)
	if err != nil {
		return nil, err
	}
	return calendar.NewService(ctx, opts...)
}

// NewYouTubeService creates a YouTube Data API service for a credential.
func NewYouTubeService(ctx context.Context, cred *domain.Credential, extra ...option.ClientOption) (*youtube.Service, error) {
	opts, err := clientOptions(cred, extra)
	if err != nil {
		return nil, err
	}
	return youtube.NewService(ctx, opts...)
}
