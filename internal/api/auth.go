package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v4"
)

var errRateLimited = errors.New("rate limited")

func (s *Server) authorizeRead(r *http.Request) error {
	if s.rateLimiter != nil && !s.rateLimiter.Allow(r, "read") {
		s.auditAuth(r, "deny", "rate_limit", "", "read rate limit exceeded")
		return errRateLimited
	}
	token := strings.TrimSpace(s.auth.Read.Token)
	secret := strings.TrimSpace(s.auth.Read.HS256Secret)
	if token == "" && secret == "" {
		return nil
	}
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		s.auditAuth(r, "deny", "bearer", "", "missing bearer token")
		return errors.New("missing bearer token")
	}
	if token != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(token)) == 1 {
		s.auditAuth(r, "allow", "bearer", "static-token", "")
		return nil
	}
	if secret != "" {
		subject, err := subjectFromHS256(raw, secret)
		if err == nil {
			s.auditAuth(r, "allow", "jwt", subject, "")
			return nil
		}
		s.auditAuth(r, "deny", "jwt", "", err.Error())
		return errors.New("invalid bearer token")
	}
	s.auditAuth(r, "deny", "bearer", "", "invalid bearer token")
	return errors.New("invalid bearer token")
}

func subjectFromHS256(raw, secret string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unsupported jwt signing algorithm: %s", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if token == nil || !token.Valid {
		return "", errors.New("invalid jwt token")
	}
	return strings.TrimSpace(claims.Subject), nil
}

func withAuthDefaults(in AuthConfig) AuthConfig {
	if in.Rate.ReadPerMinute <= 0 {
		in.Rate.ReadPerMinute = 600
	}
	if in.Rate.WebhookPerMinute <= 0 {
		in.Rate.WebhookPerMinute = 240
	}
	return in
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
