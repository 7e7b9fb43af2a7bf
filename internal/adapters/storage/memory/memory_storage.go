// Package memory disponibiliza a implementação do storage em memória do processo.
//
// O estado não é durável: reiniciar o processo (ou um cold start em ambiente
// serverless) zera todos os contadores. Para limites globais use o storage Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

type Storage struct {
	mu           sync.Mutex
	records      map[string]domain.RateLimitRecord
	sweepOnCheck bool
}

var _ ports.Storage = (*Storage)(nil)

// New cria um storage vazio. Sem sweeper em segundo plano, registros expirados
// são removidos a cada chamada de CheckAndConsume.
func New() *Storage {
	return &Storage{
		records:      make(map[string]domain.RateLimitRecord),
		sweepOnCheck: true,
	}
}

// CheckAndConsume nunca falha; o retorno de erro existe para satisfazer ports.Storage.
func (s *Storage) CheckAndConsume(_ context.Context, key string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweepOnCheck {
		s.sweepLocked(now, rule.Window)
	}

	record, found := s.records[key]
	if !found {
		record.Key = key
	}

	decision, next, changed := rule.Evaluate(record, found, now)
	if changed {
		s.records[key] = next
	}
	decision.Identifier = key
	return decision, nil
}

// Sweep remove os registros cuja janela expirou e devolve quantos foram removidos.
func (s *Storage) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now, window)
}

func (s *Storage) sweepLocked(now time.Time, window time.Duration) int {
	removed := 0
	for key, record := range s.records {
		if now.Sub(record.WindowStart) > window {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// RunSweeper tira a limpeza do caminho da requisição e a executa em um ticker até ctx terminar.
func (s *Storage) RunSweeper(ctx context.Context, interval, window time.Duration, clock ports.Clock) {
	s.mu.Lock()
	s.sweepOnCheck = false
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(clock.Now(), window)
		}
	}
}

func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Reset descarta todo o estado, equivalente a um cold start.
func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.RateLimitRecord)
}
