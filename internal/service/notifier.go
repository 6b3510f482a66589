package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Elmeric/cycliti/internal/observability"
)

// ActivationNotification carries what the activation email needs. Nonce
// must never be logged.
type ActivationNotification struct {
	UserID     uint
	Email      string
	Username   string
	Nonce      string
	ValidHours int
}

type ActivationNotifier interface {
	SendActivation(ctx context.Context, notification ActivationNotification) error
}

type PasswordResetNotification struct {
	UserID     uint
	Email      string
	Username   string
	Nonce      string
	ValidHours int
}

type PasswordResetNotifier interface {
	SendPasswordReset(ctx context.Context, notification PasswordResetNotification) error
}

// LogNotifier replaces email delivery when EMAILS_ENABLED is false.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendActivation(ctx context.Context, notification ActivationNotification) error {
	n.logger.InfoContext(ctx, "activation email suppressed",
		"user_id", notification.UserID,
		"email", notification.Email,
		"valid_hours", notification.ValidHours,
	)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, notification PasswordResetNotification) error {
	n.logger.InfoContext(ctx, "password reset email suppressed",
		"user_id", notification.UserID,
		"email", notification.Email,
		"valid_hours", notification.ValidHours,
	)
	return nil
}

// Dispatcher runs notifications outside the request: each send gets its own
// goroutine, detached from request cancellation and bounded by timeout.
// Failures are logged and counted, never returned.
type Dispatcher struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{logger: logger, timeout: timeout}
}

func (d *Dispatcher) Go(ctx context.Context, kind string, send func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		sendCtx, end := observability.StartSpan(sendCtx, "notification.dispatch", attribute.String("kind", kind))
		err := send(sendCtx)
		end(err)
		if err != nil {
			observability.RecordNotificationDispatch(sendCtx, kind, "error")
			d.logger.ErrorContext(sendCtx, "notification dispatch failed", "kind", kind, "error", err)
			return
		}
		observability.RecordNotificationDispatch(sendCtx, kind, "success")
	}()
}

// Wait blocks until every dispatched notification has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
