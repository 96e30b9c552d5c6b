// Package classify scores lead text for buying intent and separates genuine
// prospects from competitors and noise.
//
// All checks run over a lowercased text blob of "author keyword content".
// Term lists are substring matches, which is the right tool for CJK text
// where word boundaries do not exist. Every rule is ordered: the first rule
// that fires decides, so the tables below read top to bottom.
package classify

import "strings"

// IntentLevel grades how actively a lead is shopping.
type IntentLevel string

const (
	IntentHigh   IntentLevel = "high"
	IntentMedium IntentLevel = "medium"
	IntentLow    IntentLevel = "low"
)

// urgencyTerms signal a deadline is close.
var urgencyTerms = []string{"急", "ddl", "deadline", "来不及", "本周", "这周", "马上", "尽快"}

// questionTerms signal the author is asking, not telling.
var questionTerms = []string{"?", "？", "请问", "有没有", "哪家", "怎么", "如何"}

// demandTerms signal an explicit ask for a service or recommendation.
var demandTerms = []string{"求推荐", "求助", "请问", "有没有", "哪家", "想找", "怎么选", "预算", "费用", "急", "避雷"}

// noiseAuthors are placeholder names produced by scrapers and anonymized
// feeds. Rows with these authors cannot be contacted and never count as
// prospects.
var noiseAuthors = map[string]bool{
	"search_card": true,
	"unknown":     true,
	"匿名":          true,
	"none":        true,
	"null":        true,
}

// institutionalAuthorHints mark the author name itself as a business.
var institutionalAuthorHints = []string{
	"中介", "机构", "顾问", "工作室", "教育", "老师", "官方", "播报",
	"留学服务", "留学咨询", "留学攻略", "留学干货",
}

// selfPromoTerms are phrases only a seller writes.
var selfPromoTerms = []string{
	"私信我", "加我微信", "微信咨询", "欢迎咨询", "咨询我", "服务报价", "套餐", "保录", "代办", "点击主页",
}

// directSellTerms are weaker sales markers; two distinct hits equal one
// strong self-promo phrase.
var directSellTerms = []string{
	"私信", "加v", "微信", "咨询", "报价", "套餐", "保录", "代办", "服务", "报名", "讲座", "直播", "点击主页",
}

// Signal is the outcome of intent scoring for one lead.
type Signal struct {
	Level    IntentLevel
	Bonus    int
	Hits     int
	Urgent   bool
	Question bool
}

// ScoreIntent grades text against the vertical's intent terms. Two term hits,
// or one hit under time pressure, read as high intent; a single hit or a
// question reads as medium.
func ScoreIntent(text string, intentTerms []string) Signal {
	t := strings.ToLower(text)
	hits := countHits(t, intentTerms)
	urgent := containsAny(t, urgencyTerms)
	question := containsAny(t, questionTerms)

	sig := Signal{Hits: hits, Urgent: urgent, Question: question}
	switch {
	case hits >= 2 || (hits >= 1 && urgent):
		sig.Level, sig.Bonus = IntentHigh, 22
	case hits >= 1 || question:
		sig.Level, sig.Bonus = IntentMedium, 12
	default:
		sig.Level, sig.Bonus = IntentLow, 0
	}
	return sig
}

// IsCompetitor reports whether the row was written by a business rather than
// a buyer. Noise and institutional author names decide immediately; after
// that, sales language decides unless the text also reads as a genuine ask.
func IsCompetitor(author, text string, competitorTerms []string) bool {
	authorL := strings.ToLower(strings.TrimSpace(author))
	textL := strings.ToLower(text)

	if authorL == "" || noiseAuthors[authorL] {
		return true
	}
	if containsAny(authorL, institutionalAuthorHints) {
		return true
	}

	if containsAny(textL, selfPromoTerms) || countHits(textL, directSellTerms) >= 2 {
		return true
	}

	if containsAny(textL, competitorTerms) && !demandLike(textL) {
		return true
	}
	return false
}

// IsTarget reports whether the row matches the vertical's ideal customer.
// Competitors never qualify. Medium or better intent qualifies outright;
// otherwise the vertical's target hints and demand language decide. The
// 25-rune floor keeps bare exclamations like 求推荐 from qualifying alone.
func IsTarget(text string, competitor bool, level IntentLevel, targetTerms []string) bool {
	if competitor {
		return false
	}
	if level == IntentHigh || level == IntentMedium {
		return true
	}

	textL := strings.ToLower(text)
	hits := countHits(textL, targetTerms)

	if hits >= 2 {
		return true
	}
	if hits >= 1 && (demandLike(textL) || containsAny(textL, questionTerms)) {
		return true
	}
	if containsAny(textL, demandTerms) && len([]rune(textL)) >= 25 {
		return true
	}
	return false
}

// Score converts a raw collector score plus classification signals into the
// final 0..100 score. The raw score is rebased onto a 35..85 band first so
// collectors with different scales land in the same range, then intent,
// demand language, reachability and competitor status adjust it.
func Score(base int, text string, sig Signal, dmReady, competitor bool) int {
	calibrated := 30 + int(float64(base)*2.2)
	if calibrated > 85 {
		calibrated = 85
	}
	if calibrated < 35 {
		calibrated = 35
	}

	textL := strings.ToLower(text)
	demandBonus := 0
	switch {
	case containsAny(textL, demandTerms):
		demandBonus = 14
	case sig.Question:
		demandBonus = 6
	}

	score := calibrated + sig.Bonus + demandBonus
	if dmReady {
		score += 8
	}
	if competitor {
		score -= 18
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// demandLike treats both explicit demand phrases and question markers as a
// genuine ask.
func demandLike(lowerText string) bool {
	return containsAny(lowerText, demandTerms) || containsAny(lowerText, questionTerms)
}

func containsAny(lowerText string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowerText, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// countHits counts how many distinct terms occur, not total occurrences.
func countHits(lowerText string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(lowerText, strings.ToLower(term)) {
			n++
		}
	}
	return n
}
