// Package domain concentra entidades e estruturas centrais do rate limiter e do formulário de contato.
package domain

import (
	"fmt"
	"time"
)

// RateLimitRule define a cota por chave dentro de uma janela.
type RateLimitRule struct {
	Requests int
	Window   time.Duration
}

func (r RateLimitRule) Validate() error {
	if r.Requests <= 0 || r.Window <= 0 {
		return fmt.Errorf("%w: requests=%d window=%s", ErrInvalidRule, r.Requests, r.Window)
	}
	return nil
}

// RateLimitRecord guarda o estado de uma chave na janela corrente.
type RateLimitRecord struct {
	Key         string
	Count       int
	WindowStart time.Time
}

type Decision struct {
	Allowed    bool
	Identifier string
	Limit      int
	Remaining  int
	ResetIn    time.Duration
}

// RetryAfterSeconds arredonda ResetIn para cima em segundos.
func (d Decision) RetryAfterSeconds() int {
	return ceilDiv(d.ResetIn, time.Second)
}

// RetryAfterMinutes arredonda ResetIn para cima em minutos.
func (d Decision) RetryAfterMinutes() int {
	return ceilDiv(d.ResetIn, time.Minute)
}

func ceilDiv(d, unit time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + unit - 1) / unit)
}

// Expired indica se a janela do registro já terminou em now.
// Um registro com exatamente uma janela de idade ainda está vivo.
func (r RateLimitRule) Expired(record RateLimitRecord, now time.Time) bool {
	return now.Sub(record.WindowStart) > r.Window
}

// Evaluate decide a requisição para uma chave. found indica se havia registro.
// O registro devolvido só deve ser persistido quando changed for true.
func (r RateLimitRule) Evaluate(record RateLimitRecord, found bool, now time.Time) (Decision, RateLimitRecord, bool) {
	if !found || r.Expired(record, now) {
		fresh := RateLimitRecord{Key: record.Key, Count: 1, WindowStart: now}
		return Decision{
			Allowed:   true,
			Limit:     r.Requests,
			Remaining: r.Requests - 1,
			ResetIn:   r.Window,
		}, fresh, true
	}

	// now anterior ao início da janela (relógio recuado) não estende a espera.
	resetIn := r.Window - now.Sub(record.WindowStart)
	if resetIn < 0 {
		resetIn = 0
	}
	if resetIn > r.Window {
		resetIn = r.Window
	}

	if record.Count >= r.Requests {
		return Decision{
			Allowed:   false,
			Limit:     r.Requests,
			Remaining: 0,
			ResetIn:   resetIn,
		}, record, false
	}

	record.Count++
	return Decision{
		Allowed:   true,
		Limit:     r.Requests,
		Remaining: r.Requests - record.Count,
		ResetIn:   resetIn,
	}, record, true
}
