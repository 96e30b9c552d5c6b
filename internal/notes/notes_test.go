package notes_test

import (
	"strings"
	"testing"

	"leadscope/internal/notes"
)

// ── parsing ──

func TestParseMeta(t *testing.T) {
	raw := "source=xhs | score=78 | intent=high | keyword=留学\n" +
		"leadscope_sync=1\n" +
		"dm_ready=true\n" +
		"post_url=https://example.com/p/1\n" +
		"求推荐靠谱的留学中介"

	meta := notes.ParseMeta(raw)

	tests := []struct {
		key  string
		want string
	}{
		{"source", "xhs"},
		{"score", "78"},
		{"intent", "high"},
		{"keyword", "留学"},
		{"dm_ready", "true"},
		{"post_url", "https://example.com/p/1"},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := meta.Get(tt.key); got != tt.want {
			t.Errorf("meta[%q] = %q, want %q", tt.key, got, tt.want)
		}
	}
	if !meta.Synced() {
		t.Error("Synced() = false for a marked note")
	}
}

func TestParseMetaLastWriteWins(t *testing.T) {
	meta := notes.ParseMeta("score=10\nscore=90")
	if got := meta.Get("score"); got != "90" {
		t.Errorf("meta[score] = %q, want later value 90", got)
	}
}

func TestParseMetaNormalizesKeys(t *testing.T) {
	meta := notes.ParseMeta("  Source = xhs \n POST_URL= https://a ")
	if got := meta.Get("source"); got != "xhs" {
		t.Errorf("meta[source] = %q, want xhs", got)
	}
	if got := meta.Get("post_url"); got != "https://a" {
		t.Errorf("meta[post_url] = %q, want https://a", got)
	}
}

func TestParseMetaEmpty(t *testing.T) {
	if got := notes.ParseMeta(""); len(got) != 0 {
		t.Errorf("ParseMeta(\"\") = %v, want empty", got)
	}
}

// ── body extraction ──

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"meta lines dropped",
			"source=xhs | score=70\nleadscope_sync=1\n想申请英国的研究生\n预算有限求推荐",
			"想申请英国的研究生 预算有限求推荐",
		},
		{
			"unknown pair lines dropped too",
			"budget=5w\n求推荐中介",
			"求推荐中介",
		},
		{
			"pure meta leaves empty body",
			"source=xhs\nexternal_id=abc",
			"",
		},
		{
			"blank lines skipped",
			"\n\n内容在这里\n\n",
			"内容在这里",
		},
		{"empty note", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notes.ExtractBody(tt.raw); got != tt.want {
				t.Errorf("ExtractBody = %q, want %q", got, tt.want)
			}
		})
	}
}

// ── provenance ──

func TestHasProvenance(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"sync marker", "leadscope_sync=1\nhello", true},
		{"recognized key only", "post_url=https://a\nhello", true},
		{"unknown pairs only", "budget=5w | city=sg", false},
		{"plain human note", "called them, follow up friday", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notes.ParseMeta(tt.raw).HasProvenance(); got != tt.want {
				t.Errorf("HasProvenance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMetaKey(t *testing.T) {
	if !notes.IsMetaKey("POST_URL") {
		t.Error("IsMetaKey should be case-insensitive")
	}
	if notes.IsMetaKey("budget") {
		t.Error("budget is not a metadata key")
	}
}

// ── composing ──

func TestComposeRoundTrip(t *testing.T) {
	in := notes.ComposeInput{
		Platform:    "xhs",
		Score:       82,
		Intent:      "high",
		Keyword:     "留学",
		DMReady:     true,
		PostURL:     "https://example.com/p/9",
		AuthorURL:   "https://example.com/user/profile/9",
		SourceURL:   "https://example.com/search?q=留学",
		CollectedAt: "2025-11-02T10:00:00",
		ExternalID:  "0123456789abcdef",
		Content:     "急，这周要交申请，求推荐靠谱文书老师",
	}

	raw := notes.Compose(in)
	meta := notes.ParseMeta(raw)

	if !meta.Synced() {
		t.Fatal("composed note lost the sync marker")
	}
	checks := map[string]string{
		"source":       "xhs",
		"score":        "82",
		"intent":       "high",
		"keyword":      "留学",
		"dm_ready":     "true",
		"post_url":     in.PostURL,
		"author_url":   in.AuthorURL,
		"source_url":   in.SourceURL,
		"collected_at": in.CollectedAt,
		"external_id":  in.ExternalID,
	}
	for k, want := range checks {
		if got := meta.Get(k); got != want {
			t.Errorf("round trip meta[%q] = %q, want %q", k, got, want)
		}
	}
	if got := notes.ExtractBody(raw); got != in.Content {
		t.Errorf("round trip body = %q, want %q", got, in.Content)
	}
}

func TestComposeTruncatesLongContent(t *testing.T) {
	in := notes.ComposeInput{Platform: "xhs", Content: strings.Repeat("学", 1500)}
	raw := notes.Compose(in)

	body := notes.ExtractBody(raw)
	if !strings.HasSuffix(body, "...") {
		t.Fatal("truncated body should end with ellipsis")
	}
	if got := len([]rune(strings.TrimSuffix(body, "..."))); got != 1200 {
		t.Errorf("truncated body has %d runes, want 1200", got)
	}
}

func TestComposeFirstLineCarriesHeadlineFields(t *testing.T) {
	raw := notes.Compose(notes.ComposeInput{Platform: "douyin", Score: 55, Intent: "medium", Keyword: "招生"})
	first := strings.SplitN(raw, "\n", 2)[0]
	if first != "source=douyin | score=55 | intent=medium | keyword=招生" {
		t.Errorf("unexpected summary line %q", first)
	}
}
