// Package notes implements the metadata-over-notes wire format used to round
// trip structured lead fields through a CRM notes column.
//
// A note is plain text. Metadata lines carry key=value pairs, several of them
// chained with " | " on the first line; everything that is not metadata is the
// free-text body. The format survives manual edits: unknown keys are ignored,
// duplicate keys resolve last-write-wins, and parsing never fails.
package notes

import (
	"fmt"
	"strings"
)

// MarkerKey tags a note as machine-written. Its value is always "1".
const MarkerKey = "leadscope_sync"

// maxContentRunes caps the body length when composing a note.
const maxContentRunes = 1200

var metaKeys = map[string]bool{
	"source":       true,
	"platform":     true,
	"score":        true,
	"intent":       true,
	"keyword":      true,
	"dm_ready":     true,
	"access_hint":  true,
	"post_url":     true,
	"author_url":   true,
	"source_url":   true,
	"collected_at": true,
	"external_id":  true,
	MarkerKey:      true,
}

// IsMetaKey reports whether key belongs to the note metadata vocabulary.
func IsMetaKey(key string) bool {
	return metaKeys[strings.ToLower(strings.TrimSpace(key))]
}

// Meta holds the key=value pairs parsed out of a note.
type Meta map[string]string

// Get returns the value for key, or "" when absent.
func (m Meta) Get(key string) string {
	return m[key]
}

// Synced reports whether the note carries the machine-written marker.
func (m Meta) Synced() bool {
	return m[MarkerKey] == "1"
}

// HasProvenance reports whether the note was plausibly written by this
// system: either the sync marker is set or at least one recognized metadata
// key is present. Notes typed by a human with no such keys fail this check.
func (m Meta) HasProvenance() bool {
	if m.Synced() {
		return true
	}
	for k := range m {
		if metaKeys[k] {
			return true
		}
	}
	return false
}

// ParseMeta extracts every key=value pair from a note. Lines are split on
// "|" into segments first, so a single line can carry several pairs. Keys
// are lowercased and trimmed; later occurrences overwrite earlier ones.
func ParseMeta(raw string) Meta {
	out := Meta{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, piece := range splitSegments(line) {
			k, v, ok := strings.Cut(piece, "=")
			if !ok {
				continue
			}
			out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
	}
	return out
}

// ExtractBody returns the free-text body of a note: every line that is
// neither a recognized metadata line nor contains "=" at all. Survivors are
// joined with single spaces.
//
// A body line that itself contains "=" is indistinguishable from an unknown
// metadata pair and is dropped. Callers fall back to the raw note tail when
// that leaves the body empty.
func ExtractBody(raw string) string {
	var body []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isMeta := false
		for _, piece := range splitSegments(line) {
			k, _, ok := strings.Cut(piece, "=")
			if !ok {
				continue
			}
			if metaKeys[strings.ToLower(strings.TrimSpace(k))] {
				isMeta = true
			}
		}

		if !isMeta && !strings.Contains(line, "=") {
			body = append(body, line)
		}
	}
	return strings.TrimSpace(strings.Join(body, " "))
}

// ComposeInput carries the fields written into a machine-generated note.
type ComposeInput struct {
	Platform    string
	Score       int
	Intent      string
	Keyword     string
	DMReady     bool
	PostURL     string
	AuthorURL   string
	SourceURL   string
	CollectedAt string
	ExternalID  string
	Content     string
}

// Compose renders a note in the canonical layout: a summary line with the
// headline fields, one line per remaining key, the sync marker, then the
// body. Bodies longer than 1200 runes are truncated with an ellipsis so the
// note stays well under CRM column limits.
func Compose(in ComposeInput) string {
	content := strings.TrimSpace(in.Content)
	if runes := []rune(content); len(runes) > maxContentRunes {
		content = string(runes[:maxContentRunes]) + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "source=%s | score=%d | intent=%s | keyword=%s\n", in.Platform, in.Score, in.Intent, in.Keyword)
	fmt.Fprintf(&b, "%s=1\n", MarkerKey)
	fmt.Fprintf(&b, "dm_ready=%t\n", in.DMReady)
	fmt.Fprintf(&b, "post_url=%s\n", in.PostURL)
	fmt.Fprintf(&b, "author_url=%s\n", in.AuthorURL)
	fmt.Fprintf(&b, "source_url=%s\n", in.SourceURL)
	fmt.Fprintf(&b, "collected_at=%s\n", in.CollectedAt)
	fmt.Fprintf(&b, "external_id=%s\n", in.ExternalID)
	b.WriteString(content)
	return b.String()
}

// splitSegments breaks a line on "|" when present, trimming each segment and
// dropping empties. Lines without "|" come back as a single segment.
func splitSegments(line string) []string {
	if !strings.Contains(line, "|") {
		return []string{line}
	}
	parts := strings.Split(line, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
