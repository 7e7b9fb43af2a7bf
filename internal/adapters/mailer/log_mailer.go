// Package mailer disponibiliza implementações de ports.Mailer.
package mailer

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

// LogMailer registra o envelope da mensagem no log em vez de entregá-la.
type LogMailer struct {
	logger zerolog.Logger
}

var _ ports.Mailer = (*LogMailer)(nil)

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) Send(ctx context.Context, msg domain.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	m.logger.Info().
		Str("message_id", id).
		Str("from", msg.From).
		Int("recipients", len(msg.To)).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTML)).
		Msg("email dispatched")
	return id, nil
}
