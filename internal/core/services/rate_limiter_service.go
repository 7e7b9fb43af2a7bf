package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

const defaultScope = "contact"

// Config agrega a regra e o escopo utilizados pelo serviço de rate limiting.
type Config struct {
	Rule  domain.RateLimitRule
	Scope string
}

// RateLimiterService implementa a lógica central de rate limiting.
type RateLimiterService struct {
	storage ports.Storage
	clock   ports.Clock
	config  Config
}

var _ ports.RateLimiter = (*RateLimiterService)(nil)

// NewRateLimiterService cria uma nova instância do serviço.
func NewRateLimiterService(storage ports.Storage, clock ports.Clock, cfg Config) (*RateLimiterService, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if err := cfg.Rule.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Scope) == "" {
		cfg.Scope = defaultScope
	}

	return &RateLimiterService{storage: storage, clock: clock, config: cfg}, nil
}

// Allow avalia se a requisição pode prosseguir usando o relógio configurado.
func (s *RateLimiterService) Allow(ctx context.Context, key string) (domain.Decision, error) {
	return s.AllowAt(ctx, key, s.clock.Now())
}

// AllowAt é a variante com instante explícito.
func (s *RateLimiterService) AllowAt(ctx context.Context, key string, now time.Time) (domain.Decision, error) {
	identifier := normalizeKey(key)
	if identifier == "" {
		return domain.Decision{}, domain.ErrEmptyKey
	}

	decision, err := s.storage.CheckAndConsume(ctx, s.storageKey(identifier), s.config.Rule, now)
	if err != nil {
		return domain.Decision{}, err
	}
	decision.Identifier = identifier
	return decision, nil
}

func (s *RateLimiterService) storageKey(identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", s.config.Scope, identifier)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
