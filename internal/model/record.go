package model

import (
	"strings"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
)

type Action string

const (
	ActionPush        Action = "PUSH"
	ActionPullRequest Action = "PULL_REQUEST"
	ActionMerge       Action = "MERGE"
)

// TimestampLayout is fixed-width so that lexical order of stored timestamps
// matches chronological order in every backend.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

const CloudEventSource = "github"

// Record is the normalized activity persisted for every accepted webhook.
type Record struct {
	RequestID  string  `json:"request_id"`
	Author     string  `json:"author"`
	Action     Action  `json:"action"`
	FromBranch *string `json:"from_branch"`
	ToBranch   string  `json:"to_branch"`
	Timestamp  string  `json:"timestamp"`
}

// StoredRecord is a Record together with the identifier the store assigned to it.
type StoredRecord struct {
	ID string `json:"_id"`
	Record
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(v string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, v)
	if err == nil {
		return t, nil
	}
	// records written by older deployments carry RFC 3339 offsets
	t, err = time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (a Action) Valid() bool {
	switch a {
	case ActionPush, ActionPullRequest, ActionMerge:
		return true
	}
	return false
}

func (r *StoredRecord) ToCloudEvent() (event.Event, error) {
	ce := cloudevents.NewEvent()
	id := r.ID
	if id == "" {
		id = r.RequestID
	}
	ce.SetID(id)
	ce.SetSource(CloudEventSource)
	ce.SetType("dev.hooklog." + strings.ToLower(string(r.Action)))
	ce.SetSubject(r.ToBranch)
	if ts, err := ParseTimestamp(r.Timestamp); err == nil {
		ce.SetTime(ts)
	}
	ce.SetExtension("author", r.Author)
	ce.SetExtension("requestid", r.RequestID)

	if err := ce.SetData(cloudevents.ApplicationJSON, r); err != nil {
		return ce, err
	}
	return ce, nil
}

func StringPtr(v string) *string {
	return &v
}
