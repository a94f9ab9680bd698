package models

import "time"

// RecommendedPolicy 最终推荐给用户的政策
type RecommendedPolicy struct {
	Policy
	Reason string   `json:"reason"`
	Badges []string `json:"badges"`
}

// Recommendation 一次推荐运行的结果（会写入 recommendation_cache）
type Recommendation struct {
	RunID        string              `json:"run_id"`
	Email        string              `json:"email"`
	Preference   string              `json:"preference"`
	Intent       PolicyType          `json:"intent"`
	Seed         uint64              `json:"seed"`
	CandidateIDs []int64             `json:"candidate_ids"`
	Items        []RecommendedPolicy `json:"recommendations"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// CandidateViewResult 候选视图（不经过 LLM 选择）
type CandidateViewResult struct {
	Email      string             `json:"email"`
	Intent     PolicyType         `json:"intent"`
	Seed       uint64             `json:"seed"`
	Eligible   int                `json:"eligible"`
	Candidates []CandidateSummary `json:"candidates"`
}
