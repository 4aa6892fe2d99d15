package calendar_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"session-booking/calendar"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type MockProvider struct {
	testifymock.Mock
}

func (m *MockProvider) CreateMeeting(ctx context.Context, ts oauth2.TokenSource, calendarID string, meeting calendar.Meeting) (string, error) {
	tok, err := ts.Token()
	if err != nil {
		return "", err
	}
	args := m.Called(tok.AccessToken, calendarID, meeting)
	return args.String(0), args.Error(1)
}

// tokenServer fakes the OAuth2 token endpoint. Codes other than "good-code"
// and refresh grants other than "refresh-1" are rejected.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Form.Get("grant_type") == "authorization_code" && r.Form.Get("code") == "good-code":
			_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`))
		case r.Form.Get("grant_type") == "refresh_token" && r.Form.Get("refresh_token") == "refresh-1":
			_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func oauthConfig(srv *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/calendar/oauth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"https://www.googleapis.com/auth/calendar.events"},
	}
}

func TestCredentialsHasValidAccess(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		creds calendar.Credentials
		want  bool
	}{
		{name: "fresh token", creds: calendar.Credentials{AccessToken: "a", Expiry: now.Add(time.Hour)}, want: true},
		{name: "no expiry", creds: calendar.Credentials{AccessToken: "a"}, want: true},
		{name: "expired without refresh", creds: calendar.Credentials{AccessToken: "a", Expiry: now.Add(-time.Minute)}},
		{name: "expired with refresh", creds: calendar.Credentials{AccessToken: "a", RefreshToken: "r", Expiry: now.Add(-time.Minute)}, want: true},
		{name: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.creds.HasValidAccess(now))
		})
	}
}

func TestNewOAuthConfig(t *testing.T) {
	assert.Nil(t, calendar.NewOAuthConfig(calendar.OAuthConfig{}))

	cfg := calendar.NewOAuthConfig(calendar.OAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})
	require.NotNil(t, cfg)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Contains(t, cfg.Endpoint.AuthURL, "accounts.google.com")
	assert.Equal(t, []string{"https://www.googleapis.com/auth/calendar.events"}, cfg.Scopes)
}

func TestBridgeStatus(t *testing.T) {
	tokens := calendar.NewMemoryStore()
	bridge := calendar.NewBridge(nil, tokens, nil, 0, nil)
	creatorID := uuid.New()

	status, err := bridge.Status(t.Context(), creatorID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Connection{}, status)

	require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{CreatorID: creatorID, AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}))
	status, err = bridge.Status(t.Context(), creatorID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Connection{Connected: true, HasValidAccess: false}, status)

	require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{CreatorID: creatorID, AccessToken: "a", Expiry: time.Now().Add(time.Hour)}))
	status, err = bridge.Status(t.Context(), creatorID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Connection{Connected: true, HasValidAccess: true}, status)

	require.NoError(t, bridge.Disconnect(t.Context(), creatorID))
	require.NoError(t, bridge.Disconnect(t.Context(), creatorID))
	status, err = bridge.Status(t.Context(), creatorID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Connection{}, status)
}

func TestBridgeConnect(t *testing.T) {
	srv := tokenServer(t)

	t.Run("not configured", func(t *testing.T) {
		bridge := calendar.NewBridge(nil, calendar.NewMemoryStore(), nil, 0, nil)
		_, err := bridge.AuthURL(uuid.New())
		assert.ErrorIs(t, err, calendar.ErrNotConfigured)
	})

	t.Run("callback wakes waiter", func(t *testing.T) {
		tokens := calendar.NewMemoryStore()
		bridge := calendar.NewBridge(oauthConfig(srv), tokens, nil, time.Minute, nil)
		creatorID := uuid.New()

		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)

		u, err := url.Parse(pending.AuthURL)
		require.NoError(t, err)
		assert.Equal(t, pending.State, u.Query().Get("state"))
		assert.Equal(t, "offline", u.Query().Get("access_type"))
		assert.Equal(t, "consent", u.Query().Get("prompt"))

		type waitResult struct {
			conn calendar.Connection
			err  error
		}
		done := make(chan waitResult, 1)
		go func() {
			conn, err := bridge.Wait(context.Background(), creatorID, pending.State)
			done <- waitResult{conn, err}
		}()

		require.NoError(t, bridge.Complete(t.Context(), pending.State, "good-code"))

		select {
		case res := <-done:
			require.NoError(t, res.err)
			assert.Equal(t, calendar.Connection{Connected: true, HasValidAccess: true}, res.conn)
		case <-time.After(5 * time.Second):
			t.Fatal("waiter was not woken")
		}

		creds, err := tokens.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		require.NotNil(t, creds)
		assert.Equal(t, "access-1", creds.AccessToken)
		assert.Equal(t, "refresh-1", creds.RefreshToken)
		assert.Equal(t, calendar.DefaultCalendarID, creds.CalendarID)

		assert.ErrorIs(t, bridge.Complete(t.Context(), pending.State, "good-code"), calendar.ErrUnknownState)
	})

	t.Run("completion before wait", func(t *testing.T) {
		bridge := calendar.NewBridge(oauthConfig(srv), calendar.NewMemoryStore(), nil, time.Minute, nil)
		creatorID := uuid.New()

		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)
		require.NoError(t, bridge.Complete(t.Context(), pending.State, "good-code"))

		conn, err := bridge.Wait(t.Context(), creatorID, pending.State)
		require.NoError(t, err)
		assert.True(t, conn.Connected)
	})

	t.Run("failed exchange reaches waiter", func(t *testing.T) {
		tokens := calendar.NewMemoryStore()
		bridge := calendar.NewBridge(oauthConfig(srv), tokens, nil, time.Minute, nil)
		creatorID := uuid.New()

		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)
		require.Error(t, bridge.Complete(t.Context(), pending.State, "bad-code"))

		_, err = bridge.Wait(t.Context(), creatorID, pending.State)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exchange code")

		creds, err := tokens.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		assert.Nil(t, creds)
	})

	t.Run("denied consent reaches waiter", func(t *testing.T) {
		bridge := calendar.NewBridge(oauthConfig(srv), calendar.NewMemoryStore(), nil, time.Minute, nil)
		creatorID := uuid.New()

		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)
		assert.ErrorIs(t, bridge.Deny(pending.State, "access_denied"), calendar.ErrAccessDenied)

		_, err = bridge.Wait(t.Context(), creatorID, pending.State)
		assert.ErrorIs(t, err, calendar.ErrAccessDenied)
		assert.ErrorIs(t, bridge.Deny(pending.State, "access_denied"), calendar.ErrUnknownState)
	})

	t.Run("wait times out", func(t *testing.T) {
		bridge := calendar.NewBridge(oauthConfig(srv), calendar.NewMemoryStore(), nil, 20*time.Millisecond, nil)
		creatorID := uuid.New()

		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)

		_, err = bridge.Wait(t.Context(), creatorID, pending.State)
		assert.ErrorIs(t, err, calendar.ErrConnectionTimedOut)

		assert.ErrorIs(t, bridge.Complete(t.Context(), pending.State, "good-code"), calendar.ErrUnknownState)
	})

	t.Run("slow exchange outlasts the deadline", func(t *testing.T) {
		entered := make(chan struct{}, 1)
		unblock := make(chan struct{})
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			entered <- struct{}{}
			<-unblock
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`))
		}))
		t.Cleanup(slow.Close)
		release := sync.OnceFunc(func() { close(unblock) })
		t.Cleanup(release)

		tokens := calendar.NewMemoryStore()
		bridge := calendar.NewBridge(oauthConfig(slow), tokens, nil, 50*time.Millisecond, nil)
		creatorID := uuid.New()
		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)

		completed := make(chan error, 1)
		go func() { completed <- bridge.Complete(context.Background(), pending.State, "good-code") }()
		<-entered

		type waitResult struct {
			conn calendar.Connection
			err  error
		}
		waited := make(chan waitResult, 1)
		go func() {
			conn, err := bridge.Wait(context.Background(), creatorID, pending.State)
			waited <- waitResult{conn, err}
		}()

		time.Sleep(150 * time.Millisecond)
		release()

		select {
		case res := <-waited:
			require.NoError(t, res.err)
			assert.Equal(t, calendar.Connection{Connected: true, HasValidAccess: true}, res.conn)
		case <-time.After(5 * time.Second):
			t.Fatal("waiter was not woken")
		}
		require.NoError(t, <-completed)

		creds, err := tokens.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		require.NotNil(t, creds)
	})

	t.Run("late callback is rejected", func(t *testing.T) {
		now := time.Now()
		bridge := calendar.NewBridge(oauthConfig(srv), calendar.NewMemoryStore(), nil, time.Minute, nil).
			WithClock(func() time.Time { return now })
		creatorID := uuid.New()

		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		assert.ErrorIs(t, bridge.Complete(t.Context(), pending.State, "good-code"), calendar.ErrConnectionTimedOut)
	})

	t.Run("wait for someone else's state", func(t *testing.T) {
		bridge := calendar.NewBridge(oauthConfig(srv), calendar.NewMemoryStore(), nil, time.Minute, nil)
		pending, err := bridge.AuthURL(uuid.New())
		require.NoError(t, err)

		_, err = bridge.Wait(t.Context(), uuid.New(), pending.State)
		assert.ErrorIs(t, err, calendar.ErrUnknownState)
		_, err = bridge.Wait(t.Context(), uuid.New(), "nope")
		assert.ErrorIs(t, err, calendar.ErrUnknownState)
	})

	t.Run("wait honours context", func(t *testing.T) {
		bridge := calendar.NewBridge(oauthConfig(srv), calendar.NewMemoryStore(), nil, time.Minute, nil)
		creatorID := uuid.New()
		pending, err := bridge.AuthURL(creatorID)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()
		_, err = bridge.Wait(ctx, creatorID, pending.State)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBridgeCreateMeetingLink(t *testing.T) {
	meeting := calendar.Meeting{
		RequestID: uuid.NewString(),
		Summary:   "Portfolio review",
		Start:     time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 1, 5, 9, 45, 0, 0, time.UTC),
		Attendees: []string{"ada@example.com"},
	}

	t.Run("not connected", func(t *testing.T) {
		bridge := calendar.NewBridge(nil, calendar.NewMemoryStore(), &MockProvider{}, 0, nil)
		_, err := bridge.CreateMeetingLink(t.Context(), uuid.New(), meeting)
		assert.ErrorIs(t, err, calendar.ErrNotConnected)
		assert.True(t, calendar.IsCalendarError(err))
	})

	t.Run("access expired", func(t *testing.T) {
		tokens := calendar.NewMemoryStore()
		creatorID := uuid.New()
		require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{CreatorID: creatorID, AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}))

		provider := &MockProvider{}
		bridge := calendar.NewBridge(nil, tokens, provider, 0, nil)
		_, err := bridge.CreateMeetingLink(t.Context(), creatorID, meeting)
		assert.ErrorIs(t, err, calendar.ErrAccessExpired)
		provider.AssertNotCalled(t, "CreateMeeting", testifymock.Anything, testifymock.Anything, testifymock.Anything)
	})

	t.Run("valid token", func(t *testing.T) {
		tokens := calendar.NewMemoryStore()
		creatorID := uuid.New()
		require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{CreatorID: creatorID, AccessToken: "a", Expiry: time.Now().Add(time.Hour), CalendarID: "team"}))

		provider := &MockProvider{}
		provider.On("CreateMeeting", "a", "team", meeting).Return("https://meet.google.com/abc-defg-hij", nil)

		bridge := calendar.NewBridge(nil, tokens, provider, 0, nil)
		link, err := bridge.CreateMeetingLink(t.Context(), creatorID, meeting)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.google.com/abc-defg-hij", link)
		provider.AssertExpectations(t)
	})

	t.Run("refreshes and stores token", func(t *testing.T) {
		srv := tokenServer(t)
		tokens := calendar.NewMemoryStore()
		creatorID := uuid.New()
		require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{
			CreatorID: creatorID, AccessToken: "access-1", RefreshToken: "refresh-1", TokenType: "Bearer", Expiry: time.Now().Add(-time.Hour),
		}))

		provider := &MockProvider{}
		provider.On("CreateMeeting", "access-2", calendar.DefaultCalendarID, meeting).Return("https://meet.google.com/xyz", nil)

		bridge := calendar.NewBridge(oauthConfig(srv), tokens, provider, 0, nil)
		link, err := bridge.CreateMeetingLink(t.Context(), creatorID, meeting)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.google.com/xyz", link)

		creds, err := tokens.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		assert.Equal(t, "access-2", creds.AccessToken)
		assert.Equal(t, "refresh-1", creds.RefreshToken)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		srv := tokenServer(t)
		tokens := calendar.NewMemoryStore()
		creatorID := uuid.New()
		require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{
			CreatorID: creatorID, AccessToken: "old", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour),
		}))

		before, err := calendar.NewBridge(oauthConfig(srv), tokens, &MockProvider{}, 0, nil).Status(t.Context(), creatorID)
		require.NoError(t, err)
		assert.True(t, before.HasValidAccess)

		provider := &MockProvider{}
		bridge := calendar.NewBridge(oauthConfig(srv), tokens, provider, 0, nil)
		_, err = bridge.CreateMeetingLink(t.Context(), creatorID, meeting)
		assert.ErrorIs(t, err, calendar.ErrAccessExpired)

		status, err := bridge.Status(t.Context(), creatorID)
		require.NoError(t, err)
		assert.Equal(t, calendar.Connection{Connected: true, HasValidAccess: false}, status)

		creds, err := tokens.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		require.NotNil(t, creds)
		assert.Empty(t, creds.RefreshToken)
		assert.Equal(t, "old", creds.AccessToken)

		// Later attempts fail without another round trip to the provider.
		_, err = bridge.CreateMeetingLink(t.Context(), creatorID, meeting)
		assert.ErrorIs(t, err, calendar.ErrAccessExpired)
		provider.AssertNotCalled(t, "CreateMeeting", testifymock.Anything, testifymock.Anything, testifymock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		tokens := calendar.NewMemoryStore()
		creatorID := uuid.New()
		require.NoError(t, tokens.SaveCredentials(t.Context(), calendar.Credentials{CreatorID: creatorID, AccessToken: "a"}))

		provider := &MockProvider{}
		provider.On("CreateMeeting", "a", calendar.DefaultCalendarID, meeting).Return("", errors.New("quota exceeded"))

		bridge := calendar.NewBridge(nil, tokens, provider, 0, nil)
		_, err := bridge.CreateMeetingLink(t.Context(), creatorID, meeting)
		require.Error(t, err)
		assert.False(t, calendar.IsCalendarError(err))
	})
}

func TestGoogleMeetProvider(t *testing.T) {
	meeting := calendar.Meeting{
		RequestID:   "booking-1",
		Summary:     "Portfolio review",
		Description: "Booked via sessions",
		Start:       time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 1, 5, 9, 45, 0, 0, time.UTC),
		Attendees:   []string{"ada@example.com", "grace@example.com"},
	}

	t.Run("returns hangout link", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/calendars/primary/events", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("conferenceDataVersion"))
			assert.Equal(t, "all", r.URL.Query().Get("sendUpdates"))
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

			var body struct {
				Summary string `json:"summary"`
				Start   struct {
					DateTime string `json:"dateTime"`
				} `json:"start"`
				Attendees []struct {
					Email string `json:"email"`
				} `json:"attendees"`
				ConferenceData struct {
					CreateRequest struct {
						RequestID             string `json:"requestId"`
						ConferenceSolutionKey struct {
							Type string `json:"type"`
						} `json:"conferenceSolutionKey"`
					} `json:"createRequest"`
				} `json:"conferenceData"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Portfolio review", body.Summary)
			assert.Equal(t, "2026-01-05T09:00:00Z", body.Start.DateTime)
			assert.Len(t, body.Attendees, 2)
			assert.Equal(t, "booking-1", body.ConferenceData.CreateRequest.RequestID)
			assert.Equal(t, "hangoutsMeet", body.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"evt-1","hangoutLink":"https://meet.google.com/abc-defg-hij"}`))
		}))
		t.Cleanup(srv.Close)

		provider := calendar.NewGoogleMeetProvider(option.WithEndpoint(srv.URL + "/"))
		link, err := provider.CreateMeeting(t.Context(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token-1", TokenType: "Bearer"}), "primary", meeting)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.google.com/abc-defg-hij", link)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("falls back to video entry point", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"evt-2","conferenceData":{"entryPoints":[{"entryPointType":"phone","uri":"tel:+1"},{"entryPointType":"video","uri":"https://meet.google.com/video"}]}}`))
		}))
		t.Cleanup(srv.Close)

		provider := calendar.NewGoogleMeetProvider(option.WithEndpoint(srv.URL + "/"))
		link, err := provider.CreateMeeting(t.Context(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}), "primary", meeting)
		require.NoError(t, err)
		assert.Equal(t, "https://meet.google.com/video", link)
	})

	t.Run("no link", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"evt-3"}`))
		}))
		t.Cleanup(srv.Close)

		provider := calendar.NewGoogleMeetProvider(option.WithEndpoint(srv.URL + "/"))
		_, err := provider.CreateMeeting(t.Context(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}), "primary", meeting)
		assert.ErrorIs(t, err, calendar.ErrNoMeetingLink)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
		}))
		t.Cleanup(srv.Close)

		provider := calendar.NewGoogleMeetProvider(option.WithEndpoint(srv.URL + "/"))
		_, err := provider.CreateMeeting(t.Context(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}), "primary", meeting)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert event")
	})
}

func TestAccessor(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := calendar.NewAccessor(db)
	creatorID := uuid.New()
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	columns := []string{"creator_id", "access_token", "refresh_token", "token_type", "expiry", "calendar_id", "updated_at"}

	t.Run("get credentials", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT creator_id, access_token, refresh_token, token_type, expiry, calendar_id, updated_at FROM calendar_connections WHERE creator_id = $1`)).
			WithArgs(creatorID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(creatorID.String(), "a", "r", "Bearer", now, "primary", now))

		creds, err := a.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		require.NotNil(t, creds)
		assert.Equal(t, "r", creds.RefreshToken)
		assert.Equal(t, now, creds.Expiry)
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("get credentials - null expiry", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta(`FROM calendar_connections WHERE creator_id = $1`)).
			WithArgs(creatorID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(creatorID.String(), "a", "", "Bearer", nil, "primary", now))

		creds, err := a.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		require.NotNil(t, creds)
		assert.True(t, creds.Expiry.IsZero())
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("get credentials - no rows", func(t *testing.T) {
		dbMock.ExpectQuery(regexp.QuoteMeta(`FROM calendar_connections WHERE creator_id = $1`)).
			WithArgs(creatorID).
			WillReturnRows(sqlmock.NewRows(columns))

		creds, err := a.GetCredentials(t.Context(), creatorID)
		require.NoError(t, err)
		assert.Nil(t, creds)
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("save credentials", func(t *testing.T) {
		dbMock.ExpectExec(`INSERT INTO calendar_connections`).
			WithArgs(creatorID, "a", "r", "Bearer", sqlmock.AnyArg(), "primary", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := a.SaveCredentials(t.Context(), calendar.Credentials{CreatorID: creatorID, AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: now, UpdatedAt: now})
		require.NoError(t, err)
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("delete credentials", func(t *testing.T) {
		dbMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM calendar_connections WHERE creator_id = $1`)).
			WithArgs(creatorID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, a.DeleteCredentials(t.Context(), creatorID))
		require.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("delete credentials - error", func(t *testing.T) {
		dbMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM calendar_connections`)).
			WillReturnError(errors.New("boom"))

		err := a.DeleteCredentials(t.Context(), creatorID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec context")
		require.NoError(t, dbMock.ExpectationsWereMet())
	})
}
