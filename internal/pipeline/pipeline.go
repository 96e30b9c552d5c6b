// Package pipeline wires the loader chain to the aggregator. A request walks
// the loaders in order, the first successful one supplies the rows, and the
// aggregated payload goes back tagged with that loader's identity. Only when
// every loader is skipped or broken does the caller see an error.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"leadscope/internal/lead"
	"leadscope/internal/source"
	"leadscope/internal/vertical"
)

// Outer guard per loader attempt. Generous on purpose: the loaders carry
// their own tighter I/O budgets, this one only bounds a pathological hang.
const defaultLoaderTimeout = 90 * time.Second

// Result is the success envelope: the aggregated payload plus the identity
// of the loader that satisfied the request.
type Result struct {
	lead.Payload
	Source       string `json:"source"`
	SourceDetail string `json:"source_detail,omitempty"`
}

// UnavailableError reports that every loader in the chain was skipped or
// failed. Outcomes holds one diagnostic per attempted loader, in chain
// order, so callers can tell "store unreachable" apart from "no rows
// matched".
type UnavailableError struct {
	Outcomes []source.Outcome
}

func (e *UnavailableError) Error() string {
	if len(e.Outcomes) == 0 {
		return "no lead source available"
	}
	parts := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		if o.Detail != "" {
			parts = append(parts, fmt.Sprintf("%s %s (%s)", o.Source, o.Status, o.Detail))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s", o.Source, o.Status))
		}
	}
	return "no lead source available: " + strings.Join(parts, "; ")
}

// Pipeline runs the fallback chain and aggregation. It holds no per-request
// state, so one instance serves concurrent requests.
type Pipeline struct {
	loaders []source.Loader
	timeout time.Duration
}

// New builds a pipeline over the given loaders, tried in argument order.
// A non-positive timeout falls back to the default per-loader guard.
func New(timeout time.Duration, loaders ...source.Loader) *Pipeline {
	if timeout <= 0 {
		timeout = defaultLoaderTimeout
	}
	return &Pipeline{loaders: loaders, timeout: timeout}
}

// Fetch normalizes the query, walks the chain, and aggregates the first
// successful result. Zero rows from a healthy loader still count as success:
// an empty store is not an outage, and falling through would mask it with
// demo data. On total failure the returned error is an *UnavailableError.
func (p *Pipeline) Fetch(ctx context.Context, q source.Query) (*Result, error) {
	q.Vertical = vertical.Normalize(q.Vertical)
	q.Filter = q.Filter.Clamp()

	outcomes := make([]source.Outcome, 0, len(p.loaders))
	for _, l := range p.loaders {
		rows, detail, err := p.tryLoader(ctx, l, q)
		out := source.Classify(l.Name(), detail, err)
		outcomes = append(outcomes, out)
		if err != nil {
			log.Printf("[pipeline] loader %s %s: %s", out.Source, out.Status, out.Detail)
			continue
		}

		payload := lead.BuildPayload(rows, q.Filter, q.Vertical, time.Now())
		log.Printf("[pipeline] loader %s served %d rows (%d after filters)", l.Name(), len(rows), len(payload.Rows))
		return &Result{Payload: payload, Source: l.Name(), SourceDetail: detail}, nil
	}

	return nil, &UnavailableError{Outcomes: outcomes}
}

// tryLoader applies the per-loader timeout and converts a panicking loader
// into a failed result so the chain keeps moving.
func (p *Pipeline) tryLoader(ctx context.Context, l source.Loader, q source.Query) (rows []lead.Row, detail string, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			rows, detail = nil, ""
			err = fmt.Errorf("loader %s panicked: %v", l.Name(), r)
		}
	}()

	return l.Load(ctx, q)
}
