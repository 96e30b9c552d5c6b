package lead

import (
	"strings"

	"leadscope/internal/classify"
	"leadscope/internal/vertical"
)

// minContentRunes is the floor below which a record carries too little text
// to classify. Shorter rows are dropped outright rather than scored low.
const minContentRunes = 8

// Fields is the pre-classification input for one record, however it was
// sourced. Everything is an untrusted string; Build owns the defaulting.
type Fields struct {
	Platform    string
	Author      string
	Content     string
	Keyword     string
	Contact     string
	AuthorURL   string
	PostURL     string
	SourceURL   string
	Score       int
	CollectedAt string
	SourceFile  string

	// ExternalID, when set, is the source-supplied identity and wins over
	// the derived hash. DMReady, when true, records that the source already
	// proved a direct-message channel exists.
	ExternalID string
	DMReady    bool
}

// Build normalizes and classifies one record. The second return is false
// when the record is unusable (content under 8 runes).
func Build(f Fields, pb vertical.Playbook) (Row, bool) {
	author := CleanAuthor(f.Author)
	if author == "" {
		author = "Unknown"
	}
	content := strings.TrimSpace(f.Content)
	if len([]rune(content)) < minContentRunes {
		return Row{}, false
	}

	keyword := strings.TrimSpace(f.Keyword)
	platform := NormalizePlatform(f.Platform, f.PostURL, f.SourceURL)
	authorURL := strings.TrimSpace(f.AuthorURL)
	postURL := strings.TrimSpace(f.PostURL)

	blob := author + " " + keyword + " " + content

	competitor := classify.IsCompetitor(author, blob, pb.CompetitorKeywords)
	sig := classify.ScoreIntent(blob, pb.IntentTerms())
	target := classify.IsTarget(blob, competitor, sig.Level, pb.TargetHints)
	dmReady := f.DMReady || reachableProfile(authorURL)
	score := classify.Score(f.Score, blob, sig, dmReady, competitor)

	externalID := strings.TrimSpace(f.ExternalID)
	if externalID == "" {
		externalID = ExternalID(platform, author, postURL, content)
	}

	return Row{
		ExternalID:   externalID,
		Platform:     platform,
		Keyword:      keyword,
		Author:       author,
		AuthorURL:    authorURL,
		PostURL:      postURL,
		SourceURL:    strings.TrimSpace(f.SourceURL),
		Content:      content,
		Contact:      strings.TrimSpace(f.Contact),
		Score:        score,
		BaseScore:    f.Score,
		IntentLevel:  sig.Level,
		IsTarget:     target,
		IsCompetitor: competitor,
		DMReady:      dmReady,
		CollectedAt:  strings.TrimSpace(f.CollectedAt),
		SourceFile:   strings.TrimSpace(f.SourceFile),
	}, true
}

// reachableProfile recognizes author profile URLs that allow direct
// messaging without a follow-back.
func reachableProfile(authorURL string) bool {
	if authorURL == "" {
		return false
	}
	u := strings.ToLower(authorURL)
	return strings.Contains(u, "/user/profile/") || strings.Contains(u, "xiaohongshu.com/user")
}
