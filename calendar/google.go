package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleMeetProvider inserts Google Calendar events with a Hangouts Meet
// conference attached.
type GoogleMeetProvider struct {
	opts []option.ClientOption
}

// NewGoogleMeetProvider takes extra client options, e.g. option.WithEndpoint
// for a test server.
func NewGoogleMeetProvider(opts ...option.ClientOption) *GoogleMeetProvider {
	return &GoogleMeetProvider{opts: opts}
}

func (p *GoogleMeetProvider) CreateMeeting(ctx context.Context, ts oauth2.TokenSource, calendarID string, m Meeting) (string, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, p.opts...)
	svc, err := gcalendar.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("calendar service: %w", err)
	}

	attendees := make([]*gcalendar.EventAttendee, 0, len(m.Attendees))
	for _, email := range m.Attendees {
		attendees = append(attendees, &gcalendar.EventAttendee{Email: email})
	}

	event := &gcalendar.Event{
		Summary:     m.Summary,
		Description: m.Description,
		Start:       &gcalendar.EventDateTime{DateTime: m.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &gcalendar.EventDateTime{DateTime: m.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		Attendees:   attendees,
		ConferenceData: &gcalendar.ConferenceData{
			CreateRequest: &gcalendar.CreateConferenceRequest{
				RequestId:             m.RequestID,
				ConferenceSolutionKey: &gcalendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := svc.Events.Insert(calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}

	if created.HangoutLink != "" {
		return created.HangoutLink, nil
	}
	if created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri, nil
			}
		}
	}
	return "", ErrNoMeetingLink
}
