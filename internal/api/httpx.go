package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"hooklog/internal/ingest"
)

// GitHub caps deliveries at 25 MiB; push and pull_request payloads stay far
// below this.
const maxWebhookBodyBytes int64 = 5 << 20

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	writeJSONAs(w, code, "application/json", payload)
}

func writeJSONAs(w http.ResponseWriter, code int, contentType string, payload interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeStatus(w http.ResponseWriter, status string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// statusForWebhookErr maps ingestion failures onto HTTP status codes.
func statusForWebhookErr(err error) int {
	switch {
	case ingest.IsAuthError(err):
		return http.StatusForbidden
	case errors.Is(err, ingest.ErrMissingEventType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func webhookErrMessage(err error) string {
	switch {
	case errors.Is(err, ingest.ErrMissingSignature):
		return "Missing signature"
	case errors.Is(err, ingest.ErrInvalidSignature):
		return "Invalid signature"
	case errors.Is(err, ingest.ErrSecretNotConfigured):
		return "Server misconfigured"
	case errors.Is(err, ingest.ErrMissingEventType):
		return "Missing GitHub event header"
	default:
		return err.Error()
	}
}

func readBodyLimited(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return io.ReadAll(r.Body)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
