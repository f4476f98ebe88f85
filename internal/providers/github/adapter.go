package github

import (
	"strings"
	"time"

	"hooklog/internal/ingest"
	"hooklog/internal/providers/shared"
)

const (
	defaultSignatureHeader = "X-Hub-Signature-256"
	eventTypeHeader        = "X-GitHub-Event"
	eventIDHeader          = "X-GitHub-Delivery"
)

type Adapter struct {
	Parser          ingest.Normalizer
	SignatureHeader string
	Secret          string
}

func NewAdapter(secret string) Adapter {
	return Adapter{
		Parser:          Parser{},
		SignatureHeader: defaultSignatureHeader,
		Secret:          secret,
	}
}

func (a Adapter) Provider() string { return "github" }
func (a Adapter) EventTypeHeader() string {
	return eventTypeHeader
}
func (a Adapter) EventIDHeader() string {
	return eventIDHeader
}

// Authorize checks the signature header before anything else: a missing
// header is rejected even when the server has no secret configured.
func (a Adapter) Authorize(headers ingest.HeaderReader, body []byte) error {
	header := strings.TrimSpace(headers.Get(shared.NonEmpty(a.SignatureHeader, defaultSignatureHeader)))
	if header == "" {
		return ingest.ErrMissingSignature
	}
	if strings.TrimSpace(a.Secret) == "" {
		return ingest.ErrSecretNotConfigured
	}
	if !shared.ValidSHA256Signature(a.Secret, body, header) {
		return ingest.ErrInvalidSignature
	}
	return nil
}

func (a Adapter) Normalize(eventType string, body []byte, receivedAt time.Time) (ingest.Normalized, error) {
	p := a.Parser
	if p == nil {
		p = Parser{}
	}
	return p.Normalize(eventType, body, receivedAt)
}
