package calendar

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var (
	ErrNotConnected       = errors.New("calendar: not connected")
	ErrAccessExpired      = errors.New("calendar: access expired")
	ErrConnectionTimedOut = errors.New("calendar: connection timed out")
	ErrUnknownState       = errors.New("calendar: unknown authorization state")
	ErrAccessDenied       = errors.New("calendar: authorization denied")
	ErrNotConfigured      = errors.New("calendar: oauth client not configured")
	ErrNoMeetingLink      = errors.New("calendar: event has no meeting link")
)

const DefaultCalendarID = "primary"

// Connection is the creator-facing view of the stored credentials.
type Connection struct {
	Connected      bool `json:"connected"`
	HasValidAccess bool `json:"hasValidAccess"`
}

// Credentials is the stored OAuth2 token of one creator.
type Credentials struct {
	CreatorID    uuid.UUID
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	CalendarID   string
	UpdatedAt    time.Time
}

func CredentialsFromToken(creatorID uuid.UUID, tok *oauth2.Token) Credentials {
	return Credentials{
		CreatorID:    creatorID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		CalendarID:   DefaultCalendarID,
	}
}

func (c *Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// HasValidAccess reports whether a request can be authorised at now, either
// with the current access token or after a refresh.
func (c *Credentials) HasValidAccess(now time.Time) bool {
	if c.RefreshToken != "" {
		return true
	}
	return c.AccessToken != "" && (c.Expiry.IsZero() || now.Before(c.Expiry))
}

// Meeting describes the calendar event created for a confirmed booking.
type Meeting struct {
	RequestID   string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// PendingAuth is returned to the creator to start the consent flow.
type PendingAuth struct {
	State     string    `json:"state"`
	AuthURL   string    `json:"authUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}
