package github

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hooklog/internal/ingest"
	"hooklog/internal/model"
)

var receivedAt = time.Date(2026, 2, 16, 10, 0, 1, 0, time.UTC)

func TestPushNormalization(t *testing.T) {
	n, err := (Parser{}).Normalize("push", readFixture(t, "github_push.json"), receivedAt)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if n.Kind != ingest.KindRecord {
		t.Fatalf("expected record, got %s", n.Kind)
	}
	rec := n.Record
	if rec.RequestID != "abc123" || rec.Author != "alice" || rec.Action != model.ActionPush {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.FromBranch != nil {
		t.Fatalf("expected nil from_branch, got %q", *rec.FromBranch)
	}
	if rec.ToBranch != "main" {
		t.Fatalf("to_branch got %q", rec.ToBranch)
	}
	if rec.Timestamp != "2026-02-16T10:00:01.000000Z" {
		t.Fatalf("timestamp should be receipt time, got %q", rec.Timestamp)
	}
}

func TestPullRequestTransitions(t *testing.T) {
	tests := []struct {
		fixture        string
		expectedKind   ingest.Kind
		expectedAction model.Action
	}{
		{"github_pr_opened.json", ingest.KindRecord, model.ActionPullRequest},
		{"github_pr_merged.json", ingest.KindRecord, model.ActionMerge},
		{"github_pr_closed.json", ingest.KindRecord, model.ActionPullRequest},
		{"github_pr_synchronize.json", ingest.KindSkipped, ""},
	}

	p := Parser{}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			n, err := p.Normalize("pull_request", readFixture(t, tt.fixture), receivedAt)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if n.Kind != tt.expectedKind {
				t.Fatalf("kind got %s want %s", n.Kind, tt.expectedKind)
			}
			if tt.expectedKind != ingest.KindRecord {
				return
			}
			rec := n.Record
			if rec.Action != tt.expectedAction {
				t.Fatalf("action got %s want %s", rec.Action, tt.expectedAction)
			}
			if rec.RequestID != "1842" || rec.Author != "bob" {
				t.Fatalf("unexpected record identity: %+v", rec)
			}
			if rec.FromBranch == nil || *rec.FromBranch != "feature/login" || rec.ToBranch != "main" {
				t.Fatalf("unexpected branches: %+v", rec)
			}
		})
	}
}

func TestMalformedPayloads(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		body      string
		field     string
	}{
		{"push without pusher", "push", `{"ref":"refs/heads/main","head_commit":{"id":"abc"}}`, "pusher.name"},
		{"push without head commit", "push", `{"ref":"refs/heads/main","pusher":{"name":"alice"}}`, "head_commit.id"},
		{"push without ref", "push", `{"pusher":{"name":"alice"},"head_commit":{"id":"abc"}}`, "ref"},
		{"pr without pull_request", "pull_request", `{"action":"opened"}`, "pull_request"},
		{"pr without user", "pull_request", `{"action":"opened","pull_request":{"id":1,"head":{"ref":"a"},"base":{"ref":"b"}}}`, "pull_request.user.login"},
		{"push with empty pusher name", "push", `{"ref":"refs/heads/main","pusher":{"name":""},"head_commit":{"id":"abc123"}}`, "pusher.name"},
		{"push with empty branch", "push", `{"ref":"refs/heads/","pusher":{"name":"alice"},"head_commit":{"id":"abc123"}}`, "ref"},
		{"push with blank head commit id", "push", `{"ref":"refs/heads/main","pusher":{"name":"alice"},"head_commit":{"id":"  "}}`, "head_commit.id"},
		{"pr with empty login", "pull_request", `{"action":"opened","pull_request":{"id":1,"user":{"login":""},"head":{"ref":"a"},"base":{"ref":"b"}}}`, "pull_request.user.login"},
		{"pr with empty head ref", "pull_request", `{"action":"opened","pull_request":{"id":1,"user":{"login":"x"},"head":{"ref":""},"base":{"ref":"b"}}}`, "pull_request.head.ref"},
		{"pr without base", "pull_request", `{"action":"closed","pull_request":{"id":1,"user":{"login":"x"},"head":{"ref":"a"}}}`, "pull_request.base.ref"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (Parser{}).Normalize(tt.eventType, []byte(tt.body), receivedAt)
			if !errors.Is(err, ingest.ErrMalformedPayload) {
				t.Fatalf("expected malformed payload error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected %q in error, got %v", tt.field, err)
			}
		})
	}
}

func TestSkippedActionDoesNotValidateFields(t *testing.T) {
	n, err := (Parser{}).Normalize("pull_request", []byte(`{"action":"labeled"}`), receivedAt)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if n.Kind != ingest.KindSkipped {
		t.Fatalf("expected skipped, got %s", n.Kind)
	}
}

func TestPingAndUnknownEvents(t *testing.T) {
	n, err := (Parser{}).Normalize("ping", readFixture(t, "github_ping.json"), receivedAt)
	if err != nil || n.Kind != ingest.KindPing {
		t.Fatalf("expected ping, got %s err=%v", n.Kind, err)
	}
	n, err = (Parser{}).Normalize("issues", []byte(`not even json`), receivedAt)
	if err != nil || n.Kind != ingest.KindIgnored {
		t.Fatalf("expected ignored, got %s err=%v", n.Kind, err)
	}
}

func TestInvalidJSON(t *testing.T) {
	_, err := (Parser{}).Normalize("push", []byte(`{"ref":`), receivedAt)
	if !errors.Is(err, ingest.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("..", "..", "..", "testdata", "events", name)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("invalid json fixture %s: %v", name, err)
	}
	return b
}
