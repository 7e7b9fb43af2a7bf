// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

const (
	rateLimitExceededMessage = "Too many requests. Please try again later."
	unknownClientKey         = "unknown"
)

// DecisionRecorder recebe cada decisão do limiter (métricas).
type DecisionRecorder interface {
	RecordDecision(allowed bool)
}

func NewRateLimiterMiddleware(limiter ports.RateLimiter, logger zerolog.Logger, recorder DecisionRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error().Err(err).Str("client", domain.MaskValue(key, 8)).Msg("rate limiter failed")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
				return
			}
			if recorder != nil {
				recorder.RecordDecision(decision.Allowed)
			}

			if !decision.Allowed {
				logger.Warn().Str("client", domain.MaskValue(key, 8)).Dur("reset_in", decision.ResetIn).Msg("rate limit exceeded")
				writeTooManyRequests(w, decision)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey deriva a chave do cliente a partir dos cabeçalhos encaminhados.
// Os cabeçalhos são controlados pelo cliente e podem ser forjados; a chave
// serve para limitar abuso casual, não para autenticar.
func ClientKey(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}

	for _, header := range []string{"X-Real-IP", "Client-IP"} {
		if value := strings.TrimSpace(r.Header.Get(header)); value != "" {
			return value
		}
	}

	return unknownClientKey
}

func writeTooManyRequests(w http.ResponseWriter, decision domain.Decision) {
	retryAfter := decision.RetryAfterSeconds()
	if retryAfter < 1 {
		retryAfter = 1
	}
	retryMinutes := decision.RetryAfterMinutes()
	if retryMinutes < 1 {
		retryMinutes = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":             rateLimitExceededMessage,
		"retryAfterMinutes": retryMinutes,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
