package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Registry struct {
	providers map[string]WebhookAdapter
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]WebhookAdapter{}}
}

func (r *Registry) Register(adapter WebhookAdapter) {
	if r == nil || adapter == nil {
		return
	}
	if r.providers == nil {
		r.providers = map[string]WebhookAdapter{}
	}
	r.providers[strings.ToLower(strings.TrimSpace(adapter.Provider()))] = adapter
}

func (r *Registry) Adapter(provider string) (WebhookAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("nil registry")
	}
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	return p, nil
}

func (r *Registry) Authorize(provider string, headers HeaderReader, body []byte) error {
	p, err := r.Adapter(provider)
	if err != nil {
		return err
	}
	return p.Authorize(headers, body)
}

func (r *Registry) NormalizeFromHeaders(provider string, headers HeaderReader, body []byte, receivedAt time.Time) (Normalized, error) {
	p, err := r.Adapter(provider)
	if err != nil {
		return Normalized{}, err
	}
	eventType := strings.TrimSpace(headers.Get(p.EventTypeHeader()))
	if eventType == "" {
		return Normalized{}, ErrMissingEventType
	}
	return p.Normalize(eventType, body, receivedAt)
}

func (r *Registry) Headers(provider string) (string, string, error) {
	p, err := r.Adapter(provider)
	if err != nil {
		return "", "", err
	}
	return p.EventTypeHeader(), p.EventIDHeader(), nil
}

func (r *Registry) Providers() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) MustHaveProviders() error {
	if r == nil {
		return fmt.Errorf("nil registry")
	}
	if len(r.providers) == 0 {
		return fmt.Errorf("empty provider registry")
	}
	return nil
}
