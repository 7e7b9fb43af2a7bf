// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
)

// Storage executa leitura, decisão e escrita de uma chave como um único passo atômico.
type Storage interface {
	CheckAndConsume(ctx context.Context, key string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error)
}

type Clock interface {
	Now() time.Time
}
