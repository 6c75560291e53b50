package calendar

import (
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

// EventToItem converts a Google Calendar event to a content item.
func EventToItem(event *calendar.Event, loc *time.Location) domain.ContentItem {
	start, allDay := eventStart(event, loc)
	return domain.ContentItem{
		SourceID:  event.Id,
		Provider:  domain.ProviderCalendar,
		Title:     event.Summary,
		Body:      buildEventContent(event, start, allDay, loc),
		Author:    getOrganiser(event),
		URL:       event.HtmlLink,
		Timestamp: start,
	}
}

// buildEventContent constructs the narratable text from event details.
func buildEventContent(event *calendar.Event, start time.Time, allDay bool, loc *time.Location) string {
	var contentParts []string
	switch {
	case start.IsZero():
	case allDay:
		contentParts = append(contentParts, "All day on "+start.Format("Monday, January 2"))
	default:
		when := start.In(loc).Format("Monday 15:04")
		if end := eventEnd(event, loc); !end.IsZero() {
			when += " to " + end.In(loc).Format("15:04")
		}
		contentParts = append(contentParts, when)
	}
	if event.Description != "" {
		contentParts = append(contentParts, strings.TrimSpace(event.Description))
	}
	if event.Location != "" {
		contentParts = append(contentParts, "Location: "+event.Location)
	}
	if attendeeStr := formatAttendees(event.Attendees); attendeeStr != "" {
		contentParts = append(contentParts, attendeeStr)
	}
	return strings.Join(contentParts, "\n")
}

// formatAttendees formats the attendee list as a string.
func formatAttendees(attendees []*calendar.EventAttendee) string {
	var names []string
	for _, a := range attendees {
		if a.Self || a.Resource {
			continue
		}
		if a.DisplayName != "" {
			names = append(names, a.DisplayName)
		} else if a.Email != "" {
			names = append(names, a.Email)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Attendees: " + strings.Join(names, ", ")
}

// eventStart returns the event start and whether it is an all-day event.
// All-day dates are interpreted in loc.
func eventStart(event *calendar.Event, loc *time.Location) (time.Time, bool) {
	if event.Start == nil {
		return time.Time{}, false
	}
	return parseEventTime(event.Start, loc)
}

func eventEnd(event *calendar.Event, loc *time.Location) time.Time {
	if event.End == nil {
		return time.Time{}
	}
	t, _ := parseEventTime(event.End, loc)
	return t
}

func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, false
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		if err != nil {
			return time.Time{}, true
		}
		return t, true
	}
	return time.Time{}, false
}

// getOrganiser extracts the organiser name or email from an event.
func getOrganiser(event *calendar.Event) string {
	if event.Organizer == nil { //nolint:misspell // Google API field name
		return ""
	}
	if event.Organizer.DisplayName != "" { //nolint:misspell // Google API field name
		return event.Organizer.DisplayName //nolint:misspell // Google API field name
	}
	return event.Organizer.Email //nolint:misspell // Google API field name
}

// ShouldInclude drops cancelled events and events the user declined.
func ShouldInclude(event *calendar.Event) bool {
	if event == nil || event.Id == "" || event.Status == "cancelled" {
		return false
	}
	for _, a := range event.Attendees {
		if a.Self && a.ResponseStatus == "declined" {
			return false
		}
	}
	return true
}
