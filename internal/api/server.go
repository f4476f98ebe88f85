package api

import (
	"hooklog/internal/app"
	"hooklog/internal/ingest"
	"hooklog/internal/store"

	"github.com/go-logr/logr"
)

const defaultProvider = "github"

type AuthConfig struct {
	Read  ReadPolicy
	Audit AuditPolicy
	Rate  RateLimitPolicy
}

// ReadPolicy guards GET /events. With neither field set the endpoint is open.
type ReadPolicy struct {
	Token       string
	HS256Secret string
}

type AuditPolicy struct {
	LogFile string
}

type RateLimitPolicy struct {
	Enabled          bool
	ReadPerMinute    int
	WebhookPerMinute int
}

// DeliveryObserver is notified once per POST /webhook with the event type
// and the outcome label written to the client.
type DeliveryObserver interface {
	ObserveDelivery(eventType, outcome string)
}

type ServerOptions struct {
	Auth            AuthConfig
	WebhookRegistry *ingest.Registry
	Provider        string
	StoreMode       string
	Logger          logr.Logger
	Observer        DeliveryObserver
	Service         []app.Option
}

type Server struct {
	service     *app.Service
	auth        AuthConfig
	provider    string
	storeMode   string
	logger      logr.Logger
	observer    DeliveryObserver
	rateLimiter *authRateLimiter
}

func NewServer(repo store.Repository, registry *ingest.Registry) *Server {
	return NewServerWithOptions(repo, ServerOptions{WebhookRegistry: registry})
}

func NewServerWithOptions(repo store.Repository, opts ServerOptions) *Server {
	reg := opts.WebhookRegistry
	if reg == nil {
		reg = ingest.NewRegistry()
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	auth := withAuthDefaults(opts.Auth)
	provider := opts.Provider
	if provider == "" {
		provider = defaultProvider
	}
	return &Server{
		service:     app.NewService(repo, reg, logger.WithName("ingest"), opts.Service...),
		auth:        auth,
		provider:    provider,
		storeMode:   opts.StoreMode,
		logger:      logger,
		observer:    opts.Observer,
		rateLimiter: newAuthRateLimiter(auth.Rate),
	}
}
