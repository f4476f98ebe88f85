package api

import (
	"errors"
	"io"
	"net/http"

	"hooklog/internal/app"
)

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleChallenge(w, r)
	case http.MethodPost:
		s.handleDelivery(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleChallenge answers GET-based endpoint verification by echoing the
// hub.challenge parameter.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("hub.challenge")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

func (s *Server) handleDelivery(w http.ResponseWriter, r *http.Request) {
	eventType := r.Header.Get("X-GitHub-Event")
	if s.rateLimiter != nil && !s.rateLimiter.Allow(r, "webhook") {
		s.observe(eventType, "rate_limited")
		writeError(w, http.StatusTooManyRequests, errRateLimited.Error())
		return
	}
	body, err := readBodyLimited(w, r, maxWebhookBodyBytes)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.observe(eventType, "too_large")
			writeError(w, http.StatusRequestEntityTooLarge, "request body is too large")
			return
		}
		s.observe(eventType, "error")
		writeError(w, http.StatusBadRequest, "unable to read body")
		return
	}

	res, err := s.service.HandleWebhook(r.Context(), app.Delivery{
		Provider: s.provider,
		Headers:  r.Header,
		Body:     body,
	})
	if err != nil {
		code := statusForWebhookErr(err)
		if code == http.StatusForbidden {
			s.auditAuth(r, "deny", "webhook-signature", "", err.Error())
		}
		s.logger.Error(err, "webhook error", "status", code, "event", eventType)
		s.observe(eventType, outcomeLabel(code))
		writeError(w, code, webhookErrMessage(err))
		return
	}

	s.observe(eventType, string(res.Outcome))
	switch res.Outcome {
	case app.OutcomePong:
		writeStatus(w, "pong")
	case app.OutcomeRejected:
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "rejected",
			"error":  res.Reason,
		})
	default:
		writeStatus(w, "success")
	}
}

func (s *Server) observe(eventType, outcome string) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveDelivery(eventType, outcome)
}

func outcomeLabel(code int) string {
	switch code {
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		return "error"
	}
}
