// Package clock disponibiliza implementações de ports.Clock.
package clock

import (
	"sync"
	"time"

	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

// Real lê o relógio do sistema.
type Real struct{}

var _ ports.Clock = Real{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fake é um relógio controlável para testes.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
}

var _ ports.Clock = (*Fake)(nil)

func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
