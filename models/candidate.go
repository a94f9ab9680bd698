package models

// RegionStrength 政策地区与用户居住地的匹配强度
type RegionStrength string

const (
	RegionExact      RegionStrength = "exact"
	RegionPartial    RegionStrength = "partial"
	RegionNationwide RegionStrength = "nationwide"
	RegionUnknown    RegionStrength = "unknown"
	RegionMismatch   RegionStrength = "mismatch"
)

// AgeInfo 年龄条件摘要
type AgeInfo struct {
	Limit string `json:"limit"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	User  int    `json:"user"`
}

// IncomeInfo 收入条件摘要
type IncomeInfo struct {
	Type string `json:"type"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	User int    `json:"user"`
}

// Matches 单个候选政策的匹配信号
type Matches struct {
	RegionStrength RegionStrength `json:"region_strength"`
	RegionHint     []string       `json:"region_hint"`
	Age            AgeInfo        `json:"age"`
	Income         IncomeInfo     `json:"income"`
	Keywords       []string       `json:"keywords"`
	KeywordOverlap int            `json:"keyword_overlap"`
}

// CandidateSummary 交给下游选择器的候选政策摘要，每次调用临时计算
type CandidateSummary struct {
	ID          int64      `json:"id"`
	PolicyType  PolicyType `json:"policy_type"`
	Name        string     `json:"name"`
	Category    []string   `json:"category"`
	Method      string     `json:"method"`
	Support     string     `json:"support"`
	Description string     `json:"desc"`
	Matches     Matches    `json:"matches"`
}

// ScoredCandidate 带排序分数的候选摘要
type ScoredCandidate struct {
	CandidateSummary
	Score float64 `json:"score"`
}
