// Package jobs runs the periodic slot regeneration and booking completion.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type SlotRegenerator interface {
	RegenerateAll(ctx context.Context) (int, error)
}

type BookingCompleter interface {
	CompleteElapsed(ctx context.Context) (int, error)
}

type Schedule struct {
	SlotGeneration    string
	BookingCompletion string
}

type Runner struct {
	cron       *cron.Cron
	slots      SlotRegenerator
	bookings   BookingCompleter
	logger     *slog.Logger
	jobTimeout time.Duration
}

func NewRunner(slots SlotRegenerator, bookings BookingCompleter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		slots:      slots,
		bookings:   bookings,
		logger:     logger,
		jobTimeout: 5 * time.Minute,
	}
}

// Register adds both jobs. An empty spec leaves that job unscheduled.
func (r *Runner) Register(s Schedule) error {
	if s.SlotGeneration != "" {
		if _, err := r.cron.AddFunc(s.SlotGeneration, func() { _ = r.RegenerateSlots(context.Background()) }); err != nil {
			return fmt.Errorf("schedule slot generation %q: %w", s.SlotGeneration, err)
		}
	}
	if s.BookingCompletion != "" {
		if _, err := r.cron.AddFunc(s.BookingCompletion, func() { _ = r.CompleteBookings(context.Background()) }); err != nil {
			return fmt.Errorf("schedule booking completion %q: %w", s.BookingCompletion, err)
		}
	}
	return nil
}

func (r *Runner) Entries() int {
	return len(r.cron.Entries())
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (r *Runner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RegenerateSlots refreshes the booking horizon of every session with
// automatic generation enabled.
func (r *Runner) RegenerateSlots(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	r.logger.Info("cron job: regenerating slots")
	n, err := r.slots.RegenerateAll(ctx)
	if err != nil {
		r.logger.Error("cron job: slot regeneration failed", "sessions", n, "error", err)
		return fmt.Errorf("cron job: regenerate slots: %w", err)
	}
	r.logger.Info("cron job: slots regenerated", "sessions", n)
	return nil
}

// CompleteBookings marks confirmed bookings whose session has ended.
func (r *Runner) CompleteBookings(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.jobTimeout)
	defer cancel()

	n, err := r.bookings.CompleteElapsed(ctx)
	if err != nil {
		r.logger.Error("cron job: booking completion failed", "completed", n, "error", err)
		return fmt.Errorf("cron job: complete bookings: %w", err)
	}
	if n > 0 {
		r.logger.Info("cron job: bookings completed", "completed", n)
	}
	return nil
}
