// Package google holds what the Gmail, Calendar, Drive and YouTube fetchers
// share: API service construction from a stored credential, mapping of
// Google API errors onto the domain error taxonomy, and per-service rate
// limiting.
//
// Each fetcher builds its service per run from the credential the connector
// registry handed it:
//
//	svc, err := google.NewGmailService(ctx, req.Credential)
//
// Requested scopes are read-only:
//   - https://www.googleapis.com/auth/gmail.readonly
//   - https://www.googleapis.com/auth/calendar.readonly
//   - https://www.googleapis.com/auth/drive.readonly
//   - https://www.googleapis.com/auth/youtube.readonly
package google
