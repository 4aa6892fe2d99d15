package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcalendar "google.golang.org/api/calendar/v3"
)

const DefaultConnectTimeout = 5 * time.Minute

// MeetingProvider creates a calendar event with a video conference and
// returns its join URL.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, ts oauth2.TokenSource, calendarID string, m Meeting) (string, error)
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewOAuthConfig returns the Google OAuth2 client for calendar event access,
// or nil when no client ID is configured.
func NewOAuthConfig(cfg OAuthConfig) *oauth2.Config {
	if cfg.ClientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcalendar.CalendarEventsScope},
	}
}

type pendingAuth struct {
	creatorID uuid.UUID
	expiresAt time.Time
	done      chan struct{}

	completing bool
	err        error
}

// Bridge connects creators to their calendar and mints meeting links.
// Authorisation is a two-sided handshake: AuthURL registers a pending state,
// the OAuth callback calls Complete, and the creator's client blocks in Wait
// until the callback fires or the connect timeout elapses.
type Bridge struct {
	oauth    *oauth2.Config
	tokens   TokenStore
	provider MeetingProvider
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingAuth
}

func NewBridge(oauth *oauth2.Config, tokens TokenStore, provider MeetingProvider, timeout time.Duration, logger *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		oauth:    oauth,
		tokens:   tokens,
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		pending:  make(map[string]*pendingAuth),
	}
}

func (b *Bridge) WithClock(now func() time.Time) *Bridge {
	b.now = now
	return b
}

func (b *Bridge) Status(ctx context.Context, creatorID uuid.UUID) (Connection, error) {
	creds, err := b.tokens.GetCredentials(ctx, creatorID)
	if err != nil {
		return Connection{}, fmt.Errorf("get credentials: %w", err)
	}
	if creds == nil {
		return Connection{}, nil
	}
	return Connection{Connected: true, HasValidAccess: creds.HasValidAccess(b.now())}, nil
}

// AuthURL starts a connect handshake for creatorID.
func (b *Bridge) AuthURL(creatorID uuid.UUID) (PendingAuth, error) {
	if b.oauth == nil {
		return PendingAuth{}, ErrNotConfigured
	}

	now := b.now()
	state := uuid.NewString()
	p := &pendingAuth{
		creatorID: creatorID,
		expiresAt: now.Add(b.timeout),
		done:      make(chan struct{}),
	}

	b.mu.Lock()
	for s, other := range b.pending {
		if now.After(other.expiresAt) {
			delete(b.pending, s)
		}
	}
	b.pending[state] = p
	b.mu.Unlock()

	return PendingAuth{
		State:     state,
		AuthURL:   b.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce),
		ExpiresAt: p.expiresAt,
	}, nil
}

// Complete handles the OAuth callback for state. The outcome is delivered to
// any caller blocked in Wait.
func (b *Bridge) Complete(ctx context.Context, state, code string) error {
	p, err := b.claim(state)
	if err != nil {
		return err
	}
	err = b.exchange(ctx, p.creatorID, code)
	b.finish(p, err)
	return err
}

// Deny handles a callback in which the creator refused access.
func (b *Bridge) Deny(state, reason string) error {
	p, err := b.claim(state)
	if err != nil {
		return err
	}
	err = fmt.Errorf("%w: %s", ErrAccessDenied, reason)
	b.finish(p, err)
	return err
}

// claim marks the handshake for state as being completed. Each state can be
// claimed once.
func (b *Bridge) claim(state string) (*pendingAuth, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[state]
	switch {
	case !ok || p.completing:
		return nil, ErrUnknownState
	case b.now().After(p.expiresAt):
		delete(b.pending, state)
		return nil, ErrConnectionTimedOut
	}
	p.completing = true
	return p, nil
}

func (b *Bridge) finish(p *pendingAuth, err error) {
	b.mu.Lock()
	p.err = err
	close(p.done)
	b.mu.Unlock()
}

func (b *Bridge) exchange(ctx context.Context, creatorID uuid.UUID, code string) error {
	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	creds := CredentialsFromToken(creatorID, tok)
	creds.UpdatedAt = b.now().UTC()
	if err := b.tokens.SaveCredentials(ctx, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	b.logger.Info("calendar connected", "creator_id", creatorID)
	return nil
}

// Wait blocks until the handshake for state completes. It gives up with
// ErrConnectionTimedOut once the handshake's deadline passes, after which a
// late callback is rejected. A callback that arrived before the deadline is
// waited for even if its code exchange outlasts it.
func (b *Bridge) Wait(ctx context.Context, creatorID uuid.UUID, state string) (Connection, error) {
	b.mu.Lock()
	p, ok := b.pending[state]
	b.mu.Unlock()
	if !ok || p.creatorID != creatorID {
		return Connection{}, ErrUnknownState
	}

	timer := time.NewTimer(p.expiresAt.Sub(b.now()))
	defer timer.Stop()

	select {
	case <-p.done:
		return b.outcome(ctx, creatorID, state, p)
	case <-timer.C:
		if b.abandon(state, p) {
			return Connection{}, ErrConnectionTimedOut
		}
		// A callback claimed the handshake in time; its exchange decides.
		select {
		case <-p.done:
			return b.outcome(ctx, creatorID, state, p)
		case <-ctx.Done():
			return Connection{}, ctx.Err()
		}
	case <-ctx.Done():
		return Connection{}, ctx.Err()
	}
}

func (b *Bridge) outcome(ctx context.Context, creatorID uuid.UUID, state string, p *pendingAuth) (Connection, error) {
	b.mu.Lock()
	delete(b.pending, state)
	err := p.err
	b.mu.Unlock()
	if err != nil {
		return Connection{}, err
	}
	return b.Status(ctx, creatorID)
}

// abandon drops the handshake unless a callback already claimed it.
func (b *Bridge) abandon(state string, p *pendingAuth) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.completing {
		return false
	}
	delete(b.pending, state)
	return true
}

// CreateMeetingLink creates the calendar event for m on the creator's
// calendar. A refreshed access token is written back to the token store.
func (b *Bridge) CreateMeetingLink(ctx context.Context, creatorID uuid.UUID, m Meeting) (string, error) {
	creds, err := b.tokens.GetCredentials(ctx, creatorID)
	if err != nil {
		return "", fmt.Errorf("get credentials: %w", err)
	}
	if creds == nil {
		return "", ErrNotConnected
	}
	if !creds.HasValidAccess(b.now()) {
		return "", ErrAccessExpired
	}

	tok, err := b.tokenSource(ctx, creds).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			b.dropRefreshToken(ctx, creds)
		}
		return "", fmt.Errorf("%w: %v", ErrAccessExpired, err)
	}
	if tok.AccessToken != creds.AccessToken {
		refreshed := CredentialsFromToken(creatorID, tok)
		refreshed.CalendarID = creds.CalendarID
		refreshed.UpdatedAt = b.now().UTC()
		if err := b.tokens.SaveCredentials(ctx, refreshed); err != nil {
			b.logger.Warn("failed to persist refreshed calendar token", "creator_id", creatorID, "error", err)
		}
	}

	url, err := b.provider.CreateMeeting(ctx, oauth2.StaticTokenSource(tok), creds.CalendarID, m)
	if err != nil {
		return "", fmt.Errorf("create meeting: %w", err)
	}
	return url, nil
}

// dropRefreshToken records a grant the provider rejected, so Status reports
// the connection as needing consent again.
func (b *Bridge) dropRefreshToken(ctx context.Context, creds *Credentials) {
	revoked := *creds
	revoked.RefreshToken = ""
	revoked.UpdatedAt = b.now().UTC()
	if err := b.tokens.SaveCredentials(ctx, revoked); err != nil {
		b.logger.Warn("failed to record rejected calendar grant", "creator_id", creds.CreatorID, "error", err)
		return
	}
	b.logger.Info("calendar grant rejected, reconnect required", "creator_id", creds.CreatorID)
}

func (b *Bridge) tokenSource(ctx context.Context, creds *Credentials) oauth2.TokenSource {
	if b.oauth == nil {
		return oauth2.StaticTokenSource(creds.Token())
	}
	return b.oauth.TokenSource(ctx, creds.Token())
}

// Disconnect forgets the creator's credentials. It succeeds when none exist.
func (b *Bridge) Disconnect(ctx context.Context, creatorID uuid.UUID) error {
	if err := b.tokens.DeleteCredentials(ctx, creatorID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// IsCalendarError reports whether err is one of the recoverable calendar
// failures that must not affect a booking.
func IsCalendarError(err error) bool {
	return errors.Is(err, ErrNotConnected) || errors.Is(err, ErrAccessExpired) || errors.Is(err, ErrNotConfigured)
}
