package github

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hooklog/internal/ingest"
	"hooklog/internal/model"
	"hooklog/internal/providers/shared"

	githubv53 "github.com/google/go-github/v53/github"
)

type Parser struct{}

func (Parser) Normalize(eventType string, body []byte, receivedAt time.Time) (ingest.Normalized, error) {
	eventType = shared.NormalizeEventType(eventType)
	timestamp := model.FormatTimestamp(receivedAt)

	switch eventType {
	case "ping":
		return ingest.Normalized{Kind: ingest.KindPing}, nil
	case "push":
		var p githubv53.PushEvent
		if err := json.Unmarshal(body, &p); err != nil {
			return ingest.Normalized{}, fmt.Errorf("%w: %v", ingest.ErrInvalidPayload, err)
		}
		rec, err := pushRecord(&p, timestamp)
		if err != nil {
			return ingest.Normalized{}, err
		}
		return ingest.Normalized{Kind: ingest.KindRecord, Record: rec}, nil
	case "pull_request":
		var p githubv53.PullRequestEvent
		if err := json.Unmarshal(body, &p); err != nil {
			return ingest.Normalized{}, fmt.Errorf("%w: %v", ingest.ErrInvalidPayload, err)
		}
		action := strings.ToLower(strings.TrimSpace(p.GetAction()))
		if action != "opened" && action != "closed" {
			return ingest.Normalized{
				Kind:   ingest.KindSkipped,
				Reason: fmt.Sprintf("pull_request action %q is not recorded", p.GetAction()),
			}, nil
		}
		rec, err := pullRequestRecord(&p, action, timestamp)
		if err != nil {
			return ingest.Normalized{}, err
		}
		return ingest.Normalized{Kind: ingest.KindRecord, Record: rec}, nil
	default:
		return ingest.Normalized{
			Kind:   ingest.KindIgnored,
			Reason: fmt.Sprintf("event %q is not recorded", eventType),
		}, nil
	}
}

func pushRecord(p *githubv53.PushEvent, timestamp string) (model.Record, error) {
	// Empty strings count as missing so the store never sees a blank field.
	missing := shared.MissingFields(
		shared.Field("pusher.name", present(p.GetPusher().GetName())),
		shared.Field("ref", present(shared.BranchFromRef(p.GetRef()))),
		shared.Field("head_commit.id", present(p.GetHeadCommit().GetID())),
	)
	if len(missing) > 0 {
		return model.Record{}, malformed("push", missing)
	}
	return model.Record{
		RequestID:  p.GetHeadCommit().GetID(),
		Author:     p.GetPusher().GetName(),
		Action:     model.ActionPush,
		FromBranch: nil,
		ToBranch:   shared.BranchFromRef(p.GetRef()),
		Timestamp:  timestamp,
	}, nil
}

func pullRequestRecord(p *githubv53.PullRequestEvent, action, timestamp string) (model.Record, error) {
	pr := p.PullRequest
	missing := shared.MissingFields(
		shared.Field("pull_request", pr != nil),
	)
	if pr != nil {
		missing = shared.MissingFields(
			shared.Field("pull_request.id", pr.ID != nil),
			shared.Field("pull_request.user.login", present(pr.GetUser().GetLogin())),
			shared.Field("pull_request.head.ref", present(pr.GetHead().GetRef())),
			shared.Field("pull_request.base.ref", present(pr.GetBase().GetRef())),
		)
	}
	if len(missing) > 0 {
		return model.Record{}, malformed("pull_request", missing)
	}

	kind := model.ActionPullRequest
	if action == "closed" && pr.GetMerged() {
		kind = model.ActionMerge
	}
	return model.Record{
		RequestID:  strconv.FormatInt(pr.GetID(), 10),
		Author:     pr.GetUser().GetLogin(),
		Action:     kind,
		FromBranch: model.StringPtr(pr.GetHead().GetRef()),
		ToBranch:   pr.GetBase().GetRef(),
		Timestamp:  timestamp,
	}, nil
}

func present(v string) bool {
	return strings.TrimSpace(v) != ""
}

func malformed(event string, missing []string) error {
	return fmt.Errorf("%w: %s payload missing %s", ingest.ErrMalformedPayload, event, strings.Join(missing, ", "))
}
