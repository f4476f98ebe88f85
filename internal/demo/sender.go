package demo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hooklog/internal/providers/shared"

	"github.com/google/uuid"
)

// Sender posts signed GitHub-style deliveries to a hooklog instance.
type Sender struct {
	URL    string
	Secret string
	Client *http.Client
}

type Response struct {
	Status   int
	Body     string
	Delivery string
}

func (s Sender) Send(ctx context.Context, event string, body []byte) (Response, error) {
	if strings.TrimSpace(s.URL) == "" {
		return Response{}, fmt.Errorf("webhook url is required")
	}
	if strings.TrimSpace(event) == "" {
		return Response{}, fmt.Errorf("event type is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	delivery := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "GitHub-Hookshot/hooklog-demo")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", delivery)
	if s.Secret != "" {
		req.Header.Set("X-Hub-Signature-256", shared.Signature(s.Secret, body))
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, err
	}
	return Response{
		Status:   resp.StatusCode,
		Body:     strings.TrimSpace(string(out)),
		Delivery: delivery,
	}, nil
}
