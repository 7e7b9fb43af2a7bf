// Package redis disponibiliza a implementação do storage baseada em Redis.
//
// Diferente do storage em memória, o estado é compartilhado entre processos,
// então o limite vale para todas as instâncias que usam o mesmo Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

// KEYS[1] = hash do registro; ARGV = now (ms), janela (ms), máximo de requisições.
// Retorna {allowed, remaining, resetInMs}.
const checkAndConsumeScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

local record = redis.call('HMGET', KEYS[1], 'count', 'start')
local count = tonumber(record[1])
local start = tonumber(record[2])

if count == nil or start == nil or now - start > window then
  redis.call('HSET', KEYS[1], 'count', 1, 'start', now)
  redis.call('PEXPIRE', KEYS[1], window + 1)
  return {1, max - 1, window}
end

local reset = window - (now - start)
if reset < 0 then
  reset = 0
end
if reset > window then
  reset = window
end

if count >= max then
  return {0, 0, reset}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, max - count, reset}
`

var script = redis.NewScript(checkAndConsumeScript)

type Storage struct {
	client *redis.Client
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Storage{client: client}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) CheckAndConsume(ctx context.Context, key string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error) {
	res, err := script.Run(ctx, s.client, []string{key}, now.UnixMilli(), rule.Window.Milliseconds(), rule.Requests).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	return domain.Decision{
		Allowed:    res[0] == 1,
		Identifier: key,
		Limit:      rule.Requests,
		Remaining:  int(res[1]),
		ResetIn:    time.Duration(res[2]) * time.Millisecond,
	}, nil
}
