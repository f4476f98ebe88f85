package ingest

import "errors"

var (
	ErrMissingSignature    = errors.New("missing signature")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrSecretNotConfigured = errors.New("server misconfigured: webhook secret is not set")
	ErrMissingEventType    = errors.New("missing event type header")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) || errors.Is(err, ErrInvalidSignature)
}
