// Package app wires the Lodge client together: configuration, logging, the
// durable store, the session lifecycle, and a small CLI surface standing in
// for the screens of the full application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openlodge/lodge/internal/client/flows"
	"github.com/openlodge/lodge/internal/client/session"
	"github.com/openlodge/lodge/internal/client/store"
	"github.com/openlodge/lodge/internal/client/store/drivers/sqlite"
	"github.com/openlodge/lodge/internal/client/ui"
	"github.com/openlodge/lodge/pkg/cryptox"
	"github.com/openlodge/lodge/pkg/lodgeapi"
	"github.com/openlodge/lodge/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the client with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db  store.Store
	api *lodgeapi.Client

	term         *ui.TermUI
	sessions     *session.Manager
	revalidator  *session.Revalidator
	passwordFlow *flows.PasswordFlow
	otpFlow      *flows.OTPFlow
}

// New creates an Application with all dependencies initialized and the
// persisted session (if any) restored.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			App:     "lodge",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Master key for sealing the bearer token at rest
	cryptox.SetMasterKeyPath(cfg.MasterKeyPath)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.term = ui.NewTermUI(app.logger)
	app.api = lodgeapi.NewClient(cfg.APIBaseURL)
	app.sessions = session.NewManager(app.db, app.term, app.term, app.logger)
	app.revalidator = session.NewRevalidator(app.db, app.sessions, app.logger, cfg.RevalidateInterval)

	app.passwordFlow = &flows.PasswordFlow{
		API:      app.api,
		Sessions: app.sessions,
		Logger:   app.logger,
	}
	app.otpFlow = &flows.OTPFlow{
		API:      app.api,
		Sessions: app.sessions,
		Logger:   app.logger,
	}

	if err := app.sessions.Restore(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return app, nil
}

// Run dispatches a CLI command. The zero-argument form and "run" start the
// long-running mode with the re-validation worker.
func (app *Application) Run(args []string) error {
	defer app.close()

	ctx := context.Background()

	if len(args) == 0 {
		return app.runForeground()
	}

	switch args[0] {
	case "run":
		return app.runForeground()

	case "status":
		return app.status()

	case "login":
		if len(args) != 3 {
			return fmt.Errorf("usage: lodge login <email> <password>")
		}
		if err := app.passwordFlow.Login(ctx, args[1], args[2]); err != nil {
			return app.reportFlowError(err)
		}
		app.term.Notify(ui.NotifySuccess, "Logged in.")
		return nil

	case "verify-2fa":
		if len(args) != 2 {
			return fmt.Errorf("usage: lodge verify-2fa <code>")
		}
		if err := app.passwordFlow.CompleteTwoFactor(ctx, args[1]); err != nil {
			return app.reportFlowError(err)
		}
		app.term.Notify(ui.NotifySuccess, "Logged in.")
		return nil

	case "send-otp":
		if len(args) != 2 {
			return fmt.Errorf("usage: lodge send-otp <name>")
		}
		message, err := app.otpFlow.Send(ctx, args[1])
		if err != nil {
			return app.reportFlowError(err)
		}
		app.term.Notify(ui.NotifySuccess, message)
		return nil

	case "verify-otp":
		if len(args) != 3 {
			return fmt.Errorf("usage: lodge verify-otp <name> <code>")
		}
		if err := app.otpFlow.Verify(ctx, args[1], args[2]); err != nil {
			return app.reportFlowError(err)
		}
		app.term.Notify(ui.NotifySuccess, "Logged in.")
		return nil

	case "logout":
		app.sessions.Logout(ctx)
		return nil

	default:
		return fmt.Errorf("unknown command %q (expected run, status, login, verify-2fa, send-otp, verify-otp or logout)", args[0])
	}
}

// runForeground blocks with the session lifecycle live: the expiry timer is
// armed (by Restore) and the re-validation worker backs it up.
func (app *Application) runForeground() error {
	app.revalidator.Start()
	defer app.revalidator.Stop()

	if err := app.status(); err != nil {
		return err
	}
	app.logger.Info("lodge client running", "version", BuildVersion)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	app.logger.Info("shutdown signal received", "signal", sig)
	return nil
}

func (app *Application) status() error {
	sess, ok := app.sessions.Current()
	if !ok {
		if pending, isPending := app.sessions.PendingTwoFactor(); isPending {
			app.term.Notify(ui.NotifySuccess,
				fmt.Sprintf("Awaiting second factor for user %s.", pending.UserID))
			return nil
		}
		app.term.Notify(ui.NotifySuccess, "Not logged in.")
		return nil
	}

	app.term.Notify(ui.NotifySuccess, fmt.Sprintf(
		"Logged in as %s via %s, session expires in %s.",
		sess.UserID, sess.Method, sess.Remaining(time.Now()).Round(time.Second)))
	return nil
}

// reportFlowError shows the flow's user-facing message; the second-factor
// branch is a prompt, not a failure.
func (app *Application) reportFlowError(err error) error {
	if twoFA, ok := err.(*flows.TwoFactorRequiredError); ok {
		app.term.Notify(ui.NotifySuccess, twoFA.Error())
		app.term.Notify(ui.NotifySuccess, "Complete the login with: lodge verify-2fa <code>")
		return nil
	}

	app.term.Notify(ui.NotifyError, err.Error())
	return err
}

func (app *Application) close() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
	}
}

// initDatabase initializes the local state database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Debug("database migrations applied")
	return nil
}
