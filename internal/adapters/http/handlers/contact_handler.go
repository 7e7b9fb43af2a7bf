// Package handlers agrupa os handlers HTTP do serviço de contato.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

const maxBodyBytes = 64 << 10

// SubmissionRecorder recebe o desfecho de cada submissão (métricas).
type SubmissionRecorder interface {
	RecordSubmission(outcome string)
}

type ContactHandler struct {
	sender   ports.ContactSender
	logger   zerolog.Logger
	recorder SubmissionRecorder
}

func NewContactHandler(sender ports.ContactSender, logger zerolog.Logger, recorder SubmissionRecorder) *ContactHandler {
	return &ContactHandler{sender: sender, logger: logger, recorder: recorder}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, http.StatusRequestEntityTooLarge, "invalid", map[string]any{"error": "Request body is too large"})
			return
		}
		h.fail(w, http.StatusBadRequest, "invalid", map[string]any{"error": "Request body is required"})
		return
	}
	if strings.TrimSpace(string(raw)) == "" {
		h.fail(w, http.StatusBadRequest, "invalid", map[string]any{"error": "Request body is required"})
		return
	}

	if !json.Valid(raw) {
		h.fail(w, http.StatusBadRequest, "invalid", map[string]any{"error": "Invalid JSON in request body"})
		return
	}
	req := decodeContactRequest(raw)

	result, err := h.sender.Submit(r.Context(), req)
	if err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			h.logger.Info().Strs("details", validation.Details).Msg("validation failed")
			h.fail(w, http.StatusBadRequest, "invalid", map[string]any{"error": "Invalid input", "details": validation.Details})
			return
		}

		h.logger.Error().Err(err).Msg("failed to send contact emails")
		h.fail(w, http.StatusInternalServerError, "failed", map[string]any{"error": "Failed to send email. Please try again later."})
		return
	}

	outcome := "sent"
	if result.Honeypot {
		outcome = "honeypot"
	}
	h.record(outcome)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// decodeContactRequest lê os campos um a um: um campo com tipo diferente de
// string fica vazio e é reportado pela validação, não como JSON inválido.
// Corpos que não são objetos viram uma submissão sem campos.
func decodeContactRequest(raw []byte) domain.ContactRequest {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.ContactRequest{}
	}

	return domain.ContactRequest{
		Name:    stringField(fields, "name"),
		Email:   stringField(fields, "email"),
		Message: stringField(fields, "message"),
		Website: stringField(fields, "website"),
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var value string
	if err := json.Unmarshal(fields[key], &value); err != nil {
		return ""
	}
	return value
}

func (h *ContactHandler) fail(w http.ResponseWriter, status int, outcome string, body map[string]any) {
	h.record(outcome)
	writeJSON(w, status, body)
}

func (h *ContactHandler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.RecordSubmission(outcome)
	}
}

// MethodNotAllowed responde 405 no mesmo formato JSON dos demais erros.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
