package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

var testCred = &domain.Credential{UserID: "u1", Provider: domain.ProviderCalendar, AccessToken: "tok", TokenType: "Bearer"}

const eventsJSON = `{"items": [
	{
		"id": "e1",
		"status": "confirmed",
		"summary": "Standup",
		"htmlLink": "https://calendar.google.com/event?eid=e1",
		"location": "Room 4",
		"start": {"dateTime": "2025-06-01T09:30:00Z"},
		"end": {"dateTime": "2025-06-01T09:45:00Z"},
		"organizer": {"email": "lead@example.com", "displayName": "Lead"},
		"attendees": [
			{"email": "me@example.com", "self": true, "responseStatus": "accepted"},
			{"email": "bo@example.com", "displayName": "Bo"}
		]
	},
	{
		"id": "e2",
		"status": "confirmed",
		"summary": "Offsite",
		"start": {"date": "2025-06-02"},
		"end": {"date": "2025-06-03"}
	},
	{
		"id": "e3",
		"status": "confirmed",
		"summary": "Declined",
		"start": {"dateTime": "2025-06-01T12:00:00Z"},
		"attendees": [{"email": "me@example.com", "self": true, "responseStatus": "declined"}]
	}
]}`

// TestFetcher_Fetch tests the window and event conversion
func TestFetcher_Fetch(t *testing.T) {
	var timeMin, timeMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		timeMin = r.URL.Query().Get("timeMin")
		timeMax = r.URL.Query().Get("timeMax")
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsJSON))
	}))
	defer srv.Close()

	f := NewFetcher(nil, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	items, err := f.Fetch(context.Background(), driven.FetchRequest{Credential: testCred, Now: now, Location: time.UTC})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01T00:00:00Z", timeMin)
	assert.Equal(t, "2025-06-03T00:00:00Z", timeMax)
	require.Len(t, items, 2)

	standup := items[0]
	assert.Equal(t, "Standup", standup.Title)
	assert.Equal(t, "Lead", standup.Author)
	assert.Equal(t, "https://calendar.google.com/event?eid=e1", standup.URL)
	assert.Contains(t, standup.Body, "Sunday 09:30 to 09:45")
	assert.Contains(t, standup.Body, "Location: Room 4")
	assert.Contains(t, standup.Body, "Attendees: Bo")
	assert.NotContains(t, standup.Body, "me@example.com")

	offsite := items[1]
	assert.Contains(t, offsite.Body, "All day on Monday, June 2")
}

// TestFetcher_Window tests that the window follows the user's zone
func TestFetcher_Window(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	start, end := NewFetcher(nil).Window(now, tokyo)

	assert.Equal(t, "2025-06-02T00:00:00+09:00", start.Format(time.RFC3339))
	assert.Equal(t, "2025-06-04T00:00:00+09:00", end.Format(time.RFC3339))
}

// TestFetcher_Forbidden tests the permission error mapping
func TestFetcher_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": 403, "message": "insufficient scope"}}`))
	}))
	defer srv.Close()

	f := NewFetcher(nil, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	_, err := f.Fetch(context.Background(), driven.FetchRequest{Credential: testCred})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

// TestShouldInclude tests cancelled and declined filtering
func TestShouldInclude(t *testing.T) {
	assert.False(t, ShouldInclude(nil))
	assert.False(t, ShouldInclude(&calendar.Event{Id: "x", Status: "cancelled"}))
	assert.True(t, ShouldInclude(&calendar.Event{Id: "x", Status: "confirmed"}))
}
