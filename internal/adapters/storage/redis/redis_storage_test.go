package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/contact-limiter/internal/adapters/storage/memory"
	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	storage, err := New(Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage, mr
}

func at(ms int64) time.Time {
	return time.UnixMilli(1_700_000_000_000 + ms)
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(Config{Addr: addr})
	require.Error(t, err)
}

func TestStorage_HourlyScenario(t *testing.T) {
	storage, _ := newTestStorage(t)
	rule := domain.RateLimitRule{Requests: 5, Window: time.Hour}
	ctx := context.Background()

	for i, want := range []int{4, 3, 2, 1, 0} {
		decision, err := storage.CheckAndConsume(ctx, "ratelimit:contact:1.2.3.4", rule, at(int64(i)))
		require.NoError(t, err)
		require.True(t, decision.Allowed, "call %d", i)
		require.Equal(t, want, decision.Remaining)
	}

	decision, err := storage.CheckAndConsume(ctx, "ratelimit:contact:1.2.3.4", rule, at(5))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, 0, decision.Remaining)
	require.Equal(t, time.Hour-5*time.Millisecond, decision.ResetIn)

	decision, err = storage.CheckAndConsume(ctx, "ratelimit:contact:1.2.3.4", rule, at(3_600_001))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, 4, decision.Remaining)
}

func TestStorage_ClockBehindWindowStartCapsResetIn(t *testing.T) {
	storage, _ := newTestStorage(t)
	rule := domain.RateLimitRule{Requests: 1, Window: time.Second}
	ctx := context.Background()

	_, err := storage.CheckAndConsume(ctx, "k", rule, at(10_000))
	require.NoError(t, err)

	decision, err := storage.CheckAndConsume(ctx, "k", rule, at(5_000))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, rule.Window, decision.ResetIn)
}

func TestStorage_SetsExpiryOnNewWindow(t *testing.T) {
	storage, mr := newTestStorage(t)
	rule := domain.RateLimitRule{Requests: 2, Window: time.Minute}

	_, err := storage.CheckAndConsume(context.Background(), "k", rule, at(0))
	require.NoError(t, err)

	ttl := mr.TTL("k")
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, rule.Window+time.Millisecond)

	mr.FastForward(rule.Window + time.Second)
	require.False(t, mr.Exists("k"))
}

func TestStorage_RejectionDoesNotIncrement(t *testing.T) {
	storage, mr := newTestStorage(t)
	rule := domain.RateLimitRule{Requests: 1, Window: time.Minute}
	ctx := context.Background()

	_, err := storage.CheckAndConsume(ctx, "k", rule, at(0))
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		decision, err := storage.CheckAndConsume(ctx, "k", rule, at(int64(i)))
		require.NoError(t, err)
		require.False(t, decision.Allowed)
	}

	require.Equal(t, "1", mr.HGet("k", "count"))
}

func TestStorage_MatchesMemoryStorage(t *testing.T) {
	storage, _ := newTestStorage(t)
	reference := memory.New()
	rule := domain.RateLimitRule{Requests: 3, Window: time.Second}
	ctx := context.Background()

	steps := []struct {
		key string
		ms  int64
	}{
		{"a", 0}, {"a", 10}, {"b", 20}, {"a", 30}, {"a", 40},
		{"b", 500}, {"a", 1000}, {"a", 1001}, {"b", 1600}, {"a", 1500},
	}

	for i, step := range steps {
		got, err := storage.CheckAndConsume(ctx, step.key, rule, at(step.ms))
		require.NoError(t, err)
		want, err := reference.CheckAndConsume(ctx, step.key, rule, at(step.ms))
		require.NoError(t, err)

		require.Equal(t, want.Allowed, got.Allowed, "step %d", i)
		require.Equal(t, want.Remaining, got.Remaining, "step %d", i)
		require.Equal(t, want.ResetIn, got.ResetIn, "step %d", i)
	}
}
