package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Timezone data for availability configs on hosts without zoneinfo.
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"session-booking/api"
	"session-booking/app"
	"session-booking/availability"
	"session-booking/config"
	"session-booking/database"
	"session-booking/jobs"
	"session-booking/slot"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessiond",
		Short: "Availability and booking service for 1-on-1 sessions",
		Long: `sessiond serves session availability, bookable slots and the booking
lifecycle over HTTP, and runs the periodic slot regeneration and booking
completion jobs.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd(), migrateCmd(), generateSlotsCmd(), tokenCmd())
	return cmd
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, initLogger(cfg), nil
}

func initLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Info("startup: configuration loaded", "env", cfg.Env, "storage", cfg.StorageDriver, "calendar", cfg.CalendarEnabled())
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	injector := app.New(cfg, logger)
	defer func() {
		if report := injector.Shutdown(); !report.Succeed {
			logger.Error("shutdown incomplete", "error", report.Error())
		}
	}()

	service, err := do.Invoke[*api.API](injector)
	if err != nil {
		return fmt.Errorf("build api: %w", err)
	}
	runner, err := do.Invoke[*jobs.Runner](injector)
	if err != nil {
		return fmt.Errorf("build jobs: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           service.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Calendar connect requests are held open until the OAuth callback.
		WriteTimeout: cfg.CalendarConnectTimeout + time.Minute,
	}

	runner.Start()
	logger.Info("scheduled jobs started", "entries", runner.Entries())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	runner.Stop(shutdownCtx)
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverPostgres {
				return fmt.Errorf("migrate needs STORAGE_DRIVER=%s", config.DriverPostgres)
			}

			db, err := database.Connect(cmd.Context(), cfg.PostgresDSN)
			if err != nil {
				return fmt.Errorf("database connect: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}

func generateSlotsCmd() *cobra.Command {
	var sessionID, from, to string

	cmd := &cobra.Command{
		Use:   "generate-slots",
		Short: "Regenerate one session's slots for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(sessionID)
			if err != nil {
				return fmt.Errorf("invalid --session: %w", err)
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			injector := app.New(cfg, logger)
			defer injector.Shutdown()

			svc, err := do.Invoke[*availability.Service](injector)
			if err != nil {
				return fmt.Errorf("build availability service: %w", err)
			}
			result, err := generateSlots(cmd.Context(), svc, id, from, to)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "inserted=%d removed=%d skipped=%d\n", result.Inserted, result.Removed, result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringVar(&from, "from", "", "First date, YYYY-MM-DD in the session timezone")
	cmd.Flags().StringVar(&to, "to", "", "Last date, YYYY-MM-DD in the session timezone")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func generateSlots(ctx context.Context, svc *availability.Service, sessionID uuid.UUID, from, to string) (slot.ReplaceResult, error) {
	cfg, err := svc.GetAvailableHours(ctx, sessionID)
	if err != nil {
		return slot.ReplaceResult{}, err
	}
	start, err := cfg.ParseDate(from)
	if err != nil {
		return slot.ReplaceResult{}, fmt.Errorf("--from: %w", err)
	}
	end, err := cfg.ParseDate(to)
	if err != nil {
		return slot.ReplaceResult{}, fmt.Errorf("--to: %w", err)
	}
	return svc.GenerateSlots(ctx, sessionID, start, end)
}

func tokenCmd() *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user, for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tok, err := api.IssueToken([]byte(cfg.JWTSecret), id, ttl, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to use as the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
