// Package app assembles the service graph with samber/do.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"session-booking/api"
	"session-booking/availability"
	"session-booking/booking"
	"session-booking/calendar"
	"session-booking/config"
	"session-booking/database"
	"session-booking/jobs"
	"session-booking/metrics"
	"session-booking/notify"
	"session-booking/session"
	"session-booking/slot"
	"session-booking/user"
)

const databaseInitTimeout = 15 * time.Second

// postgresDB lets the injector close the pool on shutdown.
type postgresDB struct {
	*sql.DB
}

func (p *postgresDB) Shutdown() error {
	return p.Close()
}

type natsPublisher struct {
	*notify.NATSPublisher
}

func (p natsPublisher) Shutdown() error {
	return p.Close()
}

// New registers every component for cfg. Nothing is built until first
// invoked, so a memory-backed graph never touches Postgres or NATS.
func New(cfg *config.Config, logger *slog.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.Provide(injector, func(do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})

	if cfg.StorageDriver == config.DriverMemory {
		registerMemoryStores(injector)
	} else {
		registerPostgresStores(injector)
	}

	do.Provide(injector, providePublisher)
	do.Provide(injector, provideBridge)
	do.Provide(injector, provideAvailability)
	do.Provide(injector, provideBookings)
	do.Provide(injector, provideAPI)
	do.Provide(injector, provideRunner)

	return injector
}

func registerMemoryStores(injector do.Injector) {
	do.ProvideValue[user.Store](injector, user.NewMemoryStore())
	do.ProvideValue[session.Store](injector, session.NewMemoryStore())
	do.ProvideValue[availability.Store](injector, availability.NewMemoryStore())
	do.ProvideValue[slot.Store](injector, slot.NewMemoryStore())
	do.ProvideValue[booking.Store](injector, booking.NewMemoryStore())
	do.ProvideValue[calendar.TokenStore](injector, calendar.NewMemoryStore())
}

func registerPostgresStores(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*postgresDB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		db, err := database.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		return &postgresDB{DB: db}, nil
	})

	do.Provide(injector, func(i do.Injector) (user.Store, error) {
		db, err := do.Invoke[*postgresDB](i)
		if err != nil {
			return nil, err
		}
		return user.NewAccessor(db.DB), nil
	})
	do.Provide(injector, func(i do.Injector) (session.Store, error) {
		db, err := do.Invoke[*postgresDB](i)
		if err != nil {
			return nil, err
		}
		return session.NewAccessor(db.DB), nil
	})
	do.Provide(injector, func(i do.Injector) (availability.Store, error) {
		db, err := do.Invoke[*postgresDB](i)
		if err != nil {
			return nil, err
		}
		return availability.NewAccessor(db.DB), nil
	})
	do.Provide(injector, func(i do.Injector) (slot.Store, error) {
		db, err := do.Invoke[*postgresDB](i)
		if err != nil {
			return nil, err
		}
		return slot.NewAccessor(db.DB), nil
	})
	do.Provide(injector, func(i do.Injector) (booking.Store, error) {
		db, err := do.Invoke[*postgresDB](i)
		if err != nil {
			return nil, err
		}
		return booking.NewAccessor(db.DB), nil
	})
	do.Provide(injector, func(i do.Injector) (calendar.TokenStore, error) {
		db, err := do.Invoke[*postgresDB](i)
		if err != nil {
			return nil, err
		}
		return calendar.NewAccessor(db.DB), nil
	})
}

func providePublisher(i do.Injector) (notify.Publisher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.NATSURL == "" {
		return notify.Nop{}, nil
	}
	p, err := notify.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	return natsPublisher{NATSPublisher: p}, nil
}

func provideBridge(i do.Injector) (*calendar.Bridge, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tokens, err := do.Invoke[calendar.TokenStore](i)
	if err != nil {
		return nil, err
	}
	oauth := calendar.NewOAuthConfig(calendar.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	logger := do.MustInvoke[*slog.Logger](i)
	return calendar.NewBridge(oauth, tokens, calendar.NewGoogleMeetProvider(), cfg.CalendarConnectTimeout, logger), nil
}

func provideAvailability(i do.Injector) (*availability.Service, error) {
	configs, err := do.Invoke[availability.Store](i)
	if err != nil {
		return nil, err
	}
	slots, err := do.Invoke[slot.Store](i)
	if err != nil {
		return nil, err
	}
	return availability.NewService(configs, slots, do.MustInvoke[*metrics.Metrics](i), do.MustInvoke[*slog.Logger](i)), nil
}

func provideBookings(i do.Injector) (*booking.Manager, error) {
	bookings, err := do.Invoke[booking.Store](i)
	if err != nil {
		return nil, err
	}
	slots, err := do.Invoke[slot.Store](i)
	if err != nil {
		return nil, err
	}
	sessions, err := do.Invoke[session.Store](i)
	if err != nil {
		return nil, err
	}
	users, err := do.Invoke[user.Store](i)
	if err != nil {
		return nil, err
	}
	horizons, err := do.Invoke[*availability.Service](i)
	if err != nil {
		return nil, err
	}
	bridge, err := do.Invoke[*calendar.Bridge](i)
	if err != nil {
		return nil, err
	}
	publisher, err := do.Invoke[notify.Publisher](i)
	if err != nil {
		return nil, err
	}
	return booking.NewManager(booking.Dependencies{
		Bookings:  bookings,
		Slots:     slots,
		Sessions:  sessions,
		Users:     users,
		Horizons:  horizons,
		Linker:    bridge,
		Publisher: publisher,
		Metrics:   do.MustInvoke[*metrics.Metrics](i),
		Logger:    do.MustInvoke[*slog.Logger](i),
	}), nil
}

func provideAPI(i do.Injector) (*api.API, error) {
	cfg := do.MustInvoke[*config.Config](i)
	deps := api.Dependencies{
		Metrics:   do.MustInvoke[*metrics.Metrics](i),
		JWTSecret: []byte(cfg.JWTSecret),
		Logger:    do.MustInvoke[*slog.Logger](i),
	}
	var err error
	if deps.Users, err = do.Invoke[user.Store](i); err != nil {
		return nil, err
	}
	if deps.Sessions, err = do.Invoke[session.Store](i); err != nil {
		return nil, err
	}
	if deps.Availability, err = do.Invoke[*availability.Service](i); err != nil {
		return nil, err
	}
	if deps.Bookings, err = do.Invoke[*booking.Manager](i); err != nil {
		return nil, err
	}
	if deps.Calendar, err = do.Invoke[*calendar.Bridge](i); err != nil {
		return nil, err
	}

	a := api.NewAPI(deps)
	a.RegisterRoutes()
	return a, nil
}

func provideRunner(i do.Injector) (*jobs.Runner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	avail, err := do.Invoke[*availability.Service](i)
	if err != nil {
		return nil, err
	}
	bookings, err := do.Invoke[*booking.Manager](i)
	if err != nil {
		return nil, err
	}

	runner := jobs.NewRunner(avail, bookings, do.MustInvoke[*slog.Logger](i))
	if !cfg.JobsEnabled {
		return runner, nil
	}
	if err := runner.Register(jobs.Schedule{
		SlotGeneration:    cfg.SlotGenerationCron,
		BookingCompletion: cfg.BookingCompletionCron,
	}); err != nil {
		return nil, err
	}
	return runner, nil
}
