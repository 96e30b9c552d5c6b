// Package vertical holds the per-business-vertical keyword playbooks that
// parameterize lead classification.
//
// A playbook is an immutable configuration value: callers receive copies and
// the classifier never reaches back into this package. Unknown vertical keys
// resolve to the default vertical instead of erroring, so a stale dashboard
// selector can never take the pipeline down.
package vertical

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default is the vertical used when a requested key is unknown or empty.
const Default = "study_abroad"

// Playbook is the keyword configuration for one business vertical.
type Playbook struct {
	Key                string   `json:"key" yaml:"key"`
	Label              string   `json:"label" yaml:"label"`
	ICP                string   `json:"icp" yaml:"icp"`
	ReachKeywords      []string `json:"reach_keywords" yaml:"reach_keywords"`
	IntentKeywords     []string `json:"intent_keywords" yaml:"intent_keywords"`
	TargetHints        []string `json:"target_hints" yaml:"target_hints"`
	CompetitorKeywords []string `json:"competitor_keywords" yaml:"competitor_keywords"`
}

// IntentTerms returns the combined intent + reach keyword list used by the
// intent scorer. Intent keywords come first so the stronger signals win the
// order-preserving dedupe.
func (p Playbook) IntentTerms() []string {
	return dedupeTerms(append(append([]string{}, p.IntentKeywords...), p.ReachKeywords...))
}

// baseCompetitorTerms apply to every vertical; sector-specific competitor
// keywords are merged on top of them in Get.
var baseCompetitorTerms = []string{
	"机构", "中介", "顾问", "工作室", "代理", "官方", "课程顾问", "服务报价",
	"代运营", "代办", "欢迎咨询", "私信我", "加v", "加微", "VX", "wechat",
}

var builtins = map[string]Playbook{
	"study_abroad": {
		Key:                "study_abroad",
		Label:              "留学服务",
		ICP:                "计划出国读书、对选校/申请/文书/签证有明确需求的个人",
		ReachKeywords:      []string{"留学", "选校", "申请", "文书", "签证", "雅思", "托福", "offer", "gpa", "deadline"},
		IntentKeywords:     []string{"求推荐", "求助", "请问", "怎么办", "怎么选", "预算", "中介", "文书", "签证", "ddl"},
		TargetHints:        []string{"求推荐", "预算", "申请", "选校", "文书", "签证", "offer", "雅思", "托福", "gpa"},
		CompetitorKeywords: []string{"保录", "留学咨询", "申请服务", "背景提升"},
	},
	"indie_ai_tools": {
		Key:                "indie_ai_tools",
		Label:              "独立开发 AI 工具",
		ICP:                "在做或准备购买 AI 自动化/增长工具的独立开发者与小团队",
		ReachKeywords:      []string{"独立开发", "vibe coding", "MVP", "AI工具", "自动化", "no-code", "增长", "订阅", "SaaS", "agent"},
		IntentKeywords:     []string{"求推荐", "有啥工具", "怎么获客", "转化低", "留存低", "想买", "预算", "付费", "ROI", "自动化"},
		TargetHints:        []string{"MVP", "订阅", "月活", "留存", "CAC", "LTV", "付费墙", "冷启动", "增长"},
		CompetitorKeywords: []string{"代运营", "包获客", "包变现", "代投放"},
	},
	"cross_border_ecom": {
		Key:                "cross_border_ecom",
		Label:              "跨境电商",
		ICP:                "在 Amazon/Shopify/独立站经营并有投放和转化压力的商家",
		ReachKeywords:      []string{"跨境电商", "亚马逊", "shopify", "独立站", "listing", "投流", "广告", "选品", "复购", "ROI"},
		IntentKeywords:     []string{"转化低", "广告亏损", "客单价", "复购", "退货", "求推荐", "找工具", "预算", "增长"},
		TargetHints:        []string{"广告", "ROAS", "选品", "转化率", "复购率", "客单价", "库存压力"},
		CompetitorKeywords: []string{"代运营公司", "包上首页", "刷单", "代投"},
	},
	"education_training": {
		Key:                "education_training",
		Label:              "教育培训",
		ICP:                "语言培训/职业教育机构的招生与增长负责人",
		ReachKeywords:      []string{"培训", "招生", "课程", "转化", "试听", "私域", "投放", "线索", "报名", "续费"},
		IntentKeywords:     []string{"招生难", "转化低", "续费低", "求推荐", "怎么做", "预算", "线索质量"},
		TargetHints:        []string{"招生", "报名", "试听", "续费", "课程顾问", "转化"},
		CompetitorKeywords: []string{"教培机构", "招生代理", "包过"},
	},
	"local_services": {
		Key:                "local_services",
		Label:              "本地生活服务",
		ICP:                "医美/律所/装修/家政等高客单本地服务商家负责人",
		ReachKeywords:      []string{"本地服务", "同城", "客资", "私信", "到店", "咨询", "美团", "大众点评", "转化", "预约"},
		IntentKeywords:     []string{"获客难", "到店低", "咨询少", "转化低", "求推荐", "预算", "复购"},
		TargetHints:        []string{"到店", "预约", "私信", "电话咨询", "转化率", "复购"},
		CompetitorKeywords: []string{"地推团队", "代运营", "全包获客"},
	},
}

// Normalize maps a raw vertical key onto a known one, falling back to Default.
func Normalize(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := builtins[k]; ok {
		return k
	}
	return Default
}

// Get returns a copy of the playbook for key (normalized), with the shared
// base competitor terms merged ahead of the sector-specific ones.
func Get(key string) Playbook {
	pb := builtins[Normalize(key)]
	merged := append(append([]string{}, baseCompetitorTerms...), pb.CompetitorKeywords...)
	pb.CompetitorKeywords = dedupeTerms(merged)
	pb.ReachKeywords = dedupeTerms(pb.ReachKeywords)
	pb.IntentKeywords = dedupeTerms(pb.IntentKeywords)
	pb.TargetHints = dedupeTerms(pb.TargetHints)
	return pb
}

// List returns every playbook (base competitor terms merged), sorted by key
// for stable catalog output.
func List() []Playbook {
	keys := make([]string, 0, len(builtins))
	for k := range builtins {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Playbook, 0, len(keys))
	for _, k := range keys {
		out = append(out, Get(k))
	}
	return out
}

// BuildQuery assembles a search query string from the playbook's reach and
// intent keywords, capped at maxTerms (minimum 3).
func BuildQuery(key string, maxTerms int) string {
	pb := Get(key)
	limit := maxTerms
	if limit < 3 {
		limit = 3
	}
	terms := dedupeTerms(append(append([]string{}, pb.ReachKeywords...), pb.IntentKeywords...))
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return strings.Join(terms, " ")
}

// overrideFile mirrors the optional verticals.yaml layout.
type overrideFile struct {
	Verticals []Playbook `yaml:"verticals"`
}

// LoadOverrides merges playbooks from a YAML file over the built-ins.
// A missing file is not an error; a malformed one is.
func LoadOverrides(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, pb := range file.Verticals {
		key := strings.ToLower(strings.TrimSpace(pb.Key))
		if key == "" {
			return fmt.Errorf("%s: vertical entry without a key", path)
		}
		pb.Key = key
		builtins[key] = pb
	}
	return nil
}

// dedupeTerms drops empty strings and duplicates, preserving first-seen order.
func dedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		s := strings.TrimSpace(t)
		if s == "" {
			continue
		}
		low := strings.ToLower(s)
		if seen[low] {
			continue
		}
		seen[low] = true
		out = append(out, s)
	}
	return out
}
