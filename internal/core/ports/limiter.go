// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string) (domain.Decision, error)
}

type Mailer interface {
	Send(ctx context.Context, msg domain.Message) (string, error)
}

type ContactSender interface {
	Submit(ctx context.Context, req domain.ContactRequest) (domain.ContactResult, error)
}
