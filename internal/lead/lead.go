// Package lead defines the canonical lead record and the aggregation that
// turns classified rows into a response payload.
//
// A Row is immutable once produced: scores and flags are recomputed from the
// source text on every request and never written back anywhere. The payload
// is likewise assembled fresh per request, so there is no cached state to
// invalidate.
package lead

import (
	"sort"
	"time"

	"leadscope/internal/classify"
)

// Row is one fully classified lead.
type Row struct {
	ExternalID   string               `json:"external_id"`
	Platform     string               `json:"platform"`
	Keyword      string               `json:"keyword"`
	Author       string               `json:"author"`
	AuthorURL    string               `json:"author_url"`
	PostURL      string               `json:"post_url"`
	SourceURL    string               `json:"source_url"`
	Content      string               `json:"content"`
	Contact      string               `json:"contact"`
	Score        int                  `json:"score"`
	BaseScore    int                  `json:"base_score"`
	IntentLevel  classify.IntentLevel `json:"intent_level"`
	IsTarget     bool                 `json:"is_target"`
	IsCompetitor bool                 `json:"is_competitor"`
	DMReady      bool                 `json:"dm_ready"`
	CollectedAt  string               `json:"collected_at"`
	SourceFile   string               `json:"source_file,omitempty"`
}

// Filter carries the effective query parameters, post-clamping.
type Filter struct {
	Limit              int  `json:"limit"`
	MinScore           int  `json:"min_score"`
	OnlyTarget         bool `json:"only_target"`
	ExcludeCompetitors bool `json:"exclude_competitors"`
}

// DefaultFilter returns the server-side defaults applied when a request
// omits parameters.
func DefaultFilter() Filter {
	return Filter{
		Limit:              200,
		MinScore:           65,
		OnlyTarget:         true,
		ExcludeCompetitors: true,
	}
}

// Clamp forces the numeric parameters into their allowed ranges:
// MinScore into [0,100], Limit into [1,1000].
func (f Filter) Clamp() Filter {
	if f.MinScore < 0 {
		f.MinScore = 0
	}
	if f.MinScore > 100 {
		f.MinScore = 100
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}
	return f
}

// Summary aggregates counters over the full unfiltered row set, except
// FilteredRows which counts matches after filtering but before truncation.
type Summary struct {
	TotalRows      int            `json:"total_rows"`
	FilteredRows   int            `json:"filtered_rows"`
	TargetRows     int            `json:"target_rows"`
	CompetitorRows int            `json:"competitor_rows"`
	DMReadyRows    int            `json:"dm_ready_rows"`
	ScoreGE65Rows  int            `json:"score_ge_65_rows"`
	PlatformCounts map[string]int `json:"platform_counts"`
}

// Payload is the response envelope, assembled fresh per request.
type Payload struct {
	GeneratedAt string  `json:"generated_at"`
	Vertical    string  `json:"vertical"`
	Filters     Filter  `json:"filters"`
	Summary     Summary `json:"summary"`
	Rows        []Row   `json:"rows"`
}

// BuildPayload filters, truncates and summarizes rows. Counters other than
// filtered_rows cover the unfiltered set so callers can show "X of Y"
// context. Filter order is fixed: competitor exclusion, then target
// restriction, then the score threshold, then truncation. Classification
// filters run before the numeric one so a high-scoring competitor row is
// never admitted by its score.
func BuildPayload(rows []Row, f Filter, verticalKey string, now time.Time) Payload {
	f = f.Clamp()

	filtered := rows
	if f.ExcludeCompetitors {
		filtered = keep(filtered, func(r Row) bool { return !r.IsCompetitor })
	}
	if f.OnlyTarget {
		filtered = keep(filtered, func(r Row) bool { return r.IsTarget })
	}
	if f.MinScore > 0 {
		filtered = keep(filtered, func(r Row) bool { return r.Score >= f.MinScore })
	}

	out := filtered
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	if out == nil {
		out = []Row{}
	}

	return Payload{
		GeneratedAt: now.Format("2006-01-02T15:04:05"),
		Vertical:    verticalKey,
		Filters:     f,
		Summary:     summarize(rows, len(filtered)),
		Rows:        out,
	}
}

func summarize(rows []Row, filteredCount int) Summary {
	s := Summary{
		TotalRows:      len(rows),
		FilteredRows:   filteredCount,
		PlatformCounts: map[string]int{},
	}
	for _, r := range rows {
		if r.IsTarget {
			s.TargetRows++
		}
		if r.IsCompetitor {
			s.CompetitorRows++
		}
		if r.DMReady {
			s.DMReadyRows++
		}
		if r.Score >= 65 {
			s.ScoreGE65Rows++
		}
		p := r.Platform
		if p == "" {
			p = "unknown"
		}
		s.PlatformCounts[p]++
	}
	return s
}

// Dedupe drops rows whose ExternalID was already seen, keeping the first
// occurrence. Input order is the source's newest-first order, so the first
// occurrence is the freshest copy.
func Dedupe(rows []Row) []Row {
	seen := make(map[string]bool, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if seen[r.ExternalID] {
			continue
		}
		seen[r.ExternalID] = true
		out = append(out, r)
	}
	return out
}

// Sort orders rows by score descending, then collected_at descending as the
// tie-break. collected_at is compared as a string; ISO-ish timestamps sort
// correctly that way and garbage timestamps sort deterministically.
func Sort(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].CollectedAt > rows[j].CollectedAt
	})
}

func keep(rows []Row, pred func(Row) bool) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
