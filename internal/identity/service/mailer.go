package service

import (
	"context"
	"log/slog"
)

// Mailer delivers the emails the identity flows depend on. Implementations
// own templating and transport; the services only supply the token.
type Mailer interface {
	// SendConfirmation delivers the email-confirmation token.
	SendConfirmation(ctx context.Context, email, token string) error

	// SendPasswordReset delivers the password-reset token.
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes mail contents to the log instead of sending them. It is
// the development and test default; production wires a real transport.
type LogMailer struct {
	Logger *slog.Logger // nil falls back to slog.Default
}

func (m *LogMailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *LogMailer) SendConfirmation(ctx context.Context, email, token string) error {
	m.logger().Info("confirmation email",
		slog.String("to", email),
		slog.String("token", token),
	)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.logger().Info("password reset email",
		slog.String("to", email),
		slog.String("token", token),
	)
	return nil
}
