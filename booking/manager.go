package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-booking/calendar"
	"session-booking/metrics"
	"session-booking/notify"
	"session-booking/session"
	"session-booking/slot"
	"session-booking/user"
)

type SlotClaimer interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*slot.Slot, error)
	Claim(ctx context.Context, id, bookingID uuid.UUID, now time.Time) error
	Release(ctx context.Context, id, bookingID uuid.UUID, now time.Time) error
}

type SessionDirectory interface {
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// HorizonSource reports how far ahead a session's slots may be booked.
type HorizonSource interface {
	Horizon(ctx context.Context, sessionID uuid.UUID, now time.Time) (time.Time, error)
}

type MeetingLinker interface {
	Status(ctx context.Context, creatorID uuid.UUID) (calendar.Connection, error)
	CreateMeetingLink(ctx context.Context, creatorID uuid.UUID, m calendar.Meeting) (string, error)
}

// Manager owns the booking state machine and the slot claim behind each
// booking.
type Manager struct {
	bookings  Store
	slots     SlotClaimer
	sessions  SessionDirectory
	users     UserDirectory
	horizons  HorizonSource
	linker    MeetingLinker
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Dependencies struct {
	Bookings  Store
	Slots     SlotClaimer
	Sessions  SessionDirectory
	Users     UserDirectory
	Horizons  HorizonSource
	Linker    MeetingLinker
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func NewManager(deps Dependencies) *Manager {
	m := &Manager{
		bookings:  deps.Bookings,
		slots:     deps.Slots,
		sessions:  deps.Sessions,
		users:     deps.Users,
		horizons:  deps.Horizons,
		linker:    deps.Linker,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
	if m.publisher == nil {
		m.publisher = notify.Nop{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Book claims the slot and records a pending booking for it. Losing the claim
// to another booking yields slot.ErrSlotUnavailable.
func (m *Manager) Book(ctx context.Context, req BookRequest) (*Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	now := m.now().UTC()

	sess, err := m.sessions.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, ErrNotFound)
	}

	s, err := m.slots.GetSlot(ctx, req.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if s == nil || s.SessionID != req.SessionID {
		return nil, fmt.Errorf("slot %s: %w", req.SlotID, ErrNotFound)
	}
	if !s.StartTime.After(now) {
		return nil, fmt.Errorf("%w: slot already started", slot.ErrSlotUnavailable)
	}
	if m.horizons != nil {
		horizon, err := m.horizons.Horizon(ctx, sess.ID, now)
		if err != nil {
			return nil, fmt.Errorf("booking horizon: %w", err)
		}
		if s.StartTime.After(horizon) {
			return nil, fmt.Errorf("%w: slot is beyond the booking horizon", slot.ErrSlotUnavailable)
		}
	}

	b := Booking{
		ID:              uuid.New(),
		SessionID:       sess.ID,
		SlotID:          s.ID,
		UserID:          req.UserID,
		CreatorID:       sess.CreatorID,
		ScheduledAt:     s.StartTime,
		DurationMinutes: int(s.Duration() / time.Minute),
		Status:          StatusPending,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.slots.Claim(ctx, s.ID, b.ID, now); err != nil {
		m.metrics.SlotClaim(false)
		return nil, fmt.Errorf("claim slot: %w", err)
	}
	m.metrics.SlotClaim(true)

	if err := m.bookings.InsertBooking(ctx, b); err != nil {
		if relErr := m.slots.Release(ctx, s.ID, b.ID, now); relErr != nil {
			m.logger.Error("failed to release slot after insert failure", "slot_id", s.ID, "booking_id", b.ID, "error", relErr)
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	m.metrics.BookingTransition(string(StatusPending))
	m.publish(ctx, b, string(StatusPending))
	return &b, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := m.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (m *Manager) ListForSession(ctx context.Context, sessionID uuid.UUID, status Status) ([]Booking, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return m.bookings.ListForSession(ctx, sessionID, status)
}

func (m *Manager) ListForUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return m.bookings.ListForUser(ctx, userID)
}

// Confirm accepts a pending booking. When the creator's calendar is connected
// a meeting link is created as well; failing to create it leaves the booking
// confirmed without a link.
func (m *Manager) Confirm(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := m.transition(ctx, id, StatusConfirmed, "")
	if err != nil {
		return nil, err
	}

	if m.linker == nil {
		return b, nil
	}
	conn, err := m.linker.Status(ctx, b.CreatorID)
	if err != nil {
		m.logger.Warn("calendar status lookup failed", "booking_id", b.ID, "error", err)
		return b, nil
	}
	if !conn.Connected || !conn.HasValidAccess {
		return b, nil
	}
	if url, err := m.createLink(ctx, b); err == nil {
		b.MeetingURL = url
	}
	return b, nil
}

// Cancel declines or withdraws a pending or confirmed booking and frees its
// slot for rebooking.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	b, err := m.transition(ctx, id, StatusCancelled, reason)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) && b != nil && b.Status == StatusCancelled {
			// A retried cancel finishes a release that failed the first time.
			m.release(ctx, b)
		}
		return nil, err
	}
	if err := m.slots.Release(ctx, b.SlotID, b.ID, m.now().UTC()); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	return b, nil
}

// Complete marks a confirmed booking whose scheduled time has passed.
func (m *Manager) Complete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusConfirmed && b.EndsAt().After(m.now()) {
		return nil, fmt.Errorf("%w: session ends at %s", ErrInvalidTransition, b.EndsAt().Format(time.RFC3339))
	}
	b, err = m.transition(ctx, id, StatusCompleted, "")
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CompleteElapsed completes every confirmed booking that has ended and returns
// how many were moved.
func (m *Manager) CompleteElapsed(ctx context.Context) (int, error) {
	now := m.now().UTC()
	elapsed, err := m.bookings.ListElapsedConfirmed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list elapsed: %w", err)
	}

	completed := 0
	for _, b := range elapsed {
		ok, err := m.bookings.UpdateStatus(ctx, b.ID, StatusConfirmed, StatusCompleted, "", now)
		if err != nil {
			return completed, fmt.Errorf("complete %s: %w", b.ID, err)
		}
		if !ok {
			continue
		}
		b.Status = StatusCompleted
		b.UpdatedAt = now
		m.metrics.BookingTransition(string(StatusCompleted))
		m.publish(ctx, b, string(StatusCompleted))
		completed++
	}
	return completed, nil
}

// CreateMeetingLink mints a meeting link for a confirmed booking. Calendar
// errors are returned as is so the caller can retry after reconnecting.
func (m *Manager) CreateMeetingLink(ctx context.Context, id uuid.UUID) (string, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if b.Status != StatusConfirmed {
		return "", fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	if m.linker == nil {
		return "", calendar.ErrNotConnected
	}
	return m.createLink(ctx, b)
}

func (m *Manager) createLink(ctx context.Context, b *Booking) (string, error) {
	meeting, err := m.meeting(ctx, b)
	if err != nil {
		return "", err
	}

	url, err := m.linker.CreateMeetingLink(ctx, b.CreatorID, meeting)
	if err != nil {
		m.metrics.MeetingLink("failed")
		m.logger.Warn("meeting link creation failed", "booking_id", b.ID, "creator_id", b.CreatorID, "error", err)
		return "", err
	}
	if err := m.bookings.SetMeetingURL(ctx, b.ID, url, m.now().UTC()); err != nil {
		return "", fmt.Errorf("set meeting url: %w", err)
	}
	m.metrics.MeetingLink("created")

	b.MeetingURL = url
	m.publish(ctx, *b, "meeting_link_created")
	return url, nil
}

func (m *Manager) meeting(ctx context.Context, b *Booking) (calendar.Meeting, error) {
	meeting := calendar.Meeting{
		RequestID: b.ID.String(),
		Summary:   "Session booking",
		Start:     b.ScheduledAt,
		End:       b.EndsAt(),
	}

	sess, err := m.sessions.GetSession(ctx, b.SessionID)
	if err != nil {
		return meeting, fmt.Errorf("get session: %w", err)
	}
	if sess != nil {
		meeting.Summary = sess.Title
		meeting.Description = sess.Description
	}
	if b.Notes != "" {
		meeting.Description += "\n\n" + b.Notes
	}

	if m.users != nil {
		u, err := m.users.GetUser(ctx, b.UserID)
		if err != nil {
			return meeting, fmt.Errorf("get user: %w", err)
		}
		if u != nil && u.Email != "" {
			meeting.Attendees = append(meeting.Attendees, u.Email)
		}
	}
	return meeting, nil
}

// transition moves the booking to status to. The returned booking is the
// stored one when the move is rejected.
func (m *Manager) transition(ctx context.Context, id uuid.UUID, to Status, reason string) (*Booking, error) {
	b, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(to) {
		return b, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, to)
	}

	now := m.now().UTC()
	ok, err := m.bookings.UpdateStatus(ctx, id, b.Status, to, reason, now)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
	}

	b.Status = to
	b.CancelReason = reason
	b.UpdatedAt = now
	m.metrics.BookingTransition(string(to))
	m.publish(ctx, *b, string(to))
	return b, nil
}

func (m *Manager) release(ctx context.Context, b *Booking) {
	if err := m.slots.Release(ctx, b.SlotID, b.ID, m.now().UTC()); err != nil {
		m.logger.Error("slot release failed", "slot_id", b.SlotID, "booking_id", b.ID, "error", err)
	}
}

func (m *Manager) publish(ctx context.Context, b Booking, eventType string) {
	event := notify.Event{
		Type:       eventType,
		BookingID:  b.ID,
		SessionID:  b.SessionID,
		SlotID:     b.SlotID,
		UserID:     b.UserID,
		CreatorID:  b.CreatorID,
		Status:     string(b.Status),
		MeetingURL: b.MeetingURL,
		Reason:     b.CancelReason,
		OccurredAt: m.now().UTC(),
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("booking event not published", "booking_id", b.ID, "type", eventType, "error", err)
	}
}
