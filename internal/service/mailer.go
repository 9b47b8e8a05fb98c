package service

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers transactional email
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

type logMailer struct {
	siteURL string
	logger  *zap.Logger
}

// NewLogMailer returns a Mailer that writes each message to the log instead
// of sending it.
func NewLogMailer(siteURL string, logger *zap.Logger) Mailer {
	return &logMailer{siteURL: siteURL, logger: logger}
}

func (m *logMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.logger.Info("Password reset requested",
		zap.String("to", email),
		zap.String("subject", "Reset your password"),
		zap.String("reset_url", ResetURL(m.siteURL, token)),
	)
	return nil
}

// ResetURL is the link a user follows to choose a new password
func ResetURL(siteURL, token string) string {
	return siteURL + "/account/reset-password?token=" + token
}
