package ingest

import (
	"time"

	"hooklog/internal/model"
)

type HeaderReader interface {
	Get(key string) string
}

// Kind says what a delivery turned into once the provider looked at it.
type Kind string

const (
	KindRecord  Kind = "record"
	KindPing    Kind = "ping"
	KindSkipped Kind = "skipped"
	KindIgnored Kind = "ignored"
)

type Normalized struct {
	Kind   Kind
	Record model.Record
	Reason string
}

type Normalizer interface {
	Normalize(eventType string, body []byte, receivedAt time.Time) (Normalized, error)
}

type WebhookAdapter interface {
	Provider() string
	EventTypeHeader() string
	EventIDHeader() string
	Authorize(headers HeaderReader, body []byte) error
	Normalize(eventType string, body []byte, receivedAt time.Time) (Normalized, error)
}
