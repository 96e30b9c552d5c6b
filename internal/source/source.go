// Package source implements the ordered fallback chain of lead loaders: the
// remote store, a local export process, and the bundled snapshot.
//
// Every loader reports through the same narrow contract instead of throwing:
// rows on success, ErrNotConfigured when its collaborator is absent, any
// other error when the collaborator misbehaved. The orchestrator turns those
// into per-loader Outcome diagnostics, so a dead store degrades into a
// served snapshot instead of a failed request.
package source

import (
	"context"
	"errors"

	"leadscope/internal/lead"
)

// ErrNotConfigured signals that a loader's collaborator is absent rather
// than broken. Wrap it with the missing piece:
//
//	fmt.Errorf("%w: REMOTE_STORE_URL not set", ErrNotConfigured)
var ErrNotConfigured = errors.New("not configured")

// Query carries the request context a loader may need: the effective filter
// (the local export process receives it as CLI arguments) and the vertical
// whose playbook classifies mapped records.
type Query struct {
	Filter   lead.Filter
	Vertical string
}

// Loader is one strategy for producing classified rows. The detail string
// describes provenance on success (a path, a record count) and may be empty.
type Loader interface {
	Name() string
	Load(ctx context.Context, q Query) (rows []lead.Row, detail string, err error)
}

// Status classifies a loader attempt for diagnostics.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNotConfigured Status = "not_configured"
	StatusFailed        Status = "failed"
)

// Outcome records how one loader attempt went. The orchestrator collects
// one per attempted loader and surfaces them when the whole chain fails.
type Outcome struct {
	Source string `json:"source"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Classify maps a loader result onto its Outcome.
func Classify(name, detail string, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Source: name, Status: StatusOK, Detail: detail}
	case errors.Is(err, ErrNotConfigured):
		return Outcome{Source: name, Status: StatusNotConfigured, Detail: err.Error()}
	default:
		return Outcome{Source: name, Status: StatusFailed, Detail: err.Error()}
	}
}
