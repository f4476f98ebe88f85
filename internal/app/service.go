package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hooklog/internal/ingest"
	"hooklog/internal/model"
	"hooklog/internal/store"

	"github.com/go-logr/logr"
)

// Outcome is what the caller is told about a delivery.
type Outcome string

const (
	OutcomeStored   Outcome = "stored"
	OutcomePong     Outcome = "pong"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeIgnored  Outcome = "ignored"
	OutcomeRejected Outcome = "rejected"
)

type Delivery struct {
	Provider string
	Headers  ingest.HeaderReader
	Body     []byte
}

type Result struct {
	Outcome   Outcome
	EventType string
	Delivery  string
	RecordID  string
	Record    *model.Record
	Reason    string
}

type Service struct {
	repo     store.Repository
	registry *ingest.Registry
	logger   logr.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo store.Repository, registry *ingest.Registry, logger logr.Logger, opts ...Option) *Service {
	if registry == nil {
		registry = ingest.NewRegistry()
	}
	s := &Service{
		repo:     repo,
		registry: registry,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWebhook authenticates a delivery, normalizes it and stores the
// resulting record. Malformed payloads are logged and reported as
// OutcomeRejected without an error so the provider does not redeliver.
func (s *Service) HandleWebhook(ctx context.Context, d Delivery) (Result, error) {
	if err := s.registry.Authorize(d.Provider, d.Headers, d.Body); err != nil {
		return Result{}, err
	}
	typeHeader, idHeader, err := s.registry.Headers(d.Provider)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		EventType: d.Headers.Get(typeHeader),
		Delivery:  d.Headers.Get(idHeader),
	}
	log := s.logger.WithValues("provider", d.Provider, "event", res.EventType, "delivery", res.Delivery)

	n, err := s.registry.NormalizeFromHeaders(d.Provider, d.Headers, d.Body, s.now())
	if err != nil {
		if errors.Is(err, ingest.ErrMalformedPayload) {
			log.Error(err, "payload rejected, no record written")
			res.Outcome = OutcomeRejected
			res.Reason = err.Error()
			return res, nil
		}
		return res, err
	}

	switch n.Kind {
	case ingest.KindPing:
		log.Info("received ping")
		res.Outcome = OutcomePong
		return res, nil
	case ingest.KindSkipped:
		log.V(1).Info("delivery skipped", "reason", n.Reason)
		res.Outcome = OutcomeSkipped
		res.Reason = n.Reason
		return res, nil
	case ingest.KindIgnored:
		log.Info("ignored event type", "reason", n.Reason)
		res.Outcome = OutcomeIgnored
		res.Reason = n.Reason
		return res, nil
	case ingest.KindRecord:
		id, err := s.repo.Insert(ctx, n.Record)
		if err != nil {
			return res, fmt.Errorf("store record: %w", err)
		}
		rec := n.Record
		res.Outcome = OutcomeStored
		res.RecordID = id
		res.Record = &rec
		log.Info("record stored", "id", id, "request_id", rec.RequestID, "action", string(rec.Action))
		return res, nil
	default:
		return res, fmt.Errorf("unexpected normalization kind %q", n.Kind)
	}
}

func (s *Service) RecentRecords(ctx context.Context, limit int) ([]model.StoredRecord, error) {
	items, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.StoredRecord{}
	}
	return items, nil
}

func (s *Service) StoreHealth(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
