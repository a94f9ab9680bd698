package ranking

import (
	"errors"
	"fmt"
	"math"

	"policy_reco/config"
	"policy_reco/intent"
	"policy_reco/models"
	"policy_reco/shuffle"
)

// ErrInvalidTopN 候选视图大小不是正数
var ErrInvalidTopN = errors.New("ranking: top_n_view must be positive")

// Builder 按只读的排序配置组装候选视图，可并发使用
type Builder struct {
	cfg config.Ranking
}

// NewBuilder 校验配置并创建 Builder
func NewBuilder(cfg config.Ranking) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg}, nil
}

// Config 返回当前使用的配置快照
func (b *Builder) Config() config.Ranking {
	return b.cfg
}

// BuildCandidateView 为符合资格的政策打分并组装候选视图
//
// 有意图时先为同类型政策预留名额，没有意图时保留排名靠前的政策，
// 剩余名额从其余政策按 seed 打乱后补齐，最后整体再按 seed 打乱。
// 结果不超过 topN 条且 id 不重复，相同输入得到相同顺序。
func (b *Builder) BuildCandidateView(
	policies []models.Policy,
	user models.UserProfile,
	preference string,
	topN int,
	seed uint64,
) ([]models.CandidateSummary, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	if len(policies) == 0 {
		return []models.CandidateSummary{}, nil
	}

	summaries := make([]models.CandidateSummary, 0, len(policies))
	seen := make(map[int64]bool, len(policies))
	for _, p := range policies {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		summaries = append(summaries, Summarize(p, user))
	}

	scored := Rank(b.cfg, summaries, preference)
	in := intent.Detect(preference)
	fillerSeed := seed ^ b.cfg.ShuffleMix

	var view []models.CandidateSummary
	if in != models.PolicyTypeNone {
		view = b.intentView(scored, in, topN, fillerSeed)
	} else {
		view = b.rankedView(scored, topN, fillerSeed)
	}

	shuffle.Shuffle(view, seed)
	return view, nil
}

// IntentQuota 为同意图政策预留的前部名额
func (b *Builder) IntentQuota(topN int) int {
	quota := ceilRatio(topN, b.cfg.IntentQuotaRatio)
	if quota < b.cfg.IntentQuotaMin {
		quota = b.cfg.IntentQuotaMin
	}
	return clamp(quota, 0, topN)
}

// MainSlots 没有意图时原样保留的高分政策数
func (b *Builder) MainSlots(topN int) int {
	return clamp(ceilRatio(topN, b.cfg.MainRatio), 0, topN)
}

func (b *Builder) intentView(scored []models.ScoredCandidate, in models.PolicyType, topN int, fillerSeed uint64) []models.CandidateSummary {
	var same, other []models.CandidateSummary
	for _, s := range scored {
		if s.PolicyType == in {
			same = append(same, s.CandidateSummary)
		} else {
			other = append(other, s.CandidateSummary)
		}
	}

	quota := b.IntentQuota(topN)
	view := make([]models.CandidateSummary, 0, topN)
	view = append(view, same[:min(quota, len(same))]...)

	remain := clamp(topN-len(view), 0, topN)
	shuffle.Shuffle(other, fillerSeed)
	view = append(view, other[:min(remain, len(other))]...)
	return view
}

func (b *Builder) rankedView(scored []models.ScoredCandidate, topN int, fillerSeed uint64) []models.CandidateSummary {
	keep := b.MainSlots(topN)
	mainEnd := min(keep, len(scored))

	view := make([]models.CandidateSummary, 0, topN)
	for _, s := range scored[:mainEnd] {
		view = append(view, s.CandidateSummary)
	}

	windowEnd := min(mainEnd+b.cfg.FillerWindow, len(scored))
	pool := make([]models.CandidateSummary, 0, windowEnd-mainEnd)
	for _, s := range scored[mainEnd:windowEnd] {
		pool = append(pool, s.CandidateSummary)
	}
	shuffle.Shuffle(pool, fillerSeed)

	extra := clamp(topN-keep, 0, topN)
	view = append(view, pool[:min(extra, len(pool))]...)
	return view
}

func ceilRatio(n int, ratio float64) int {
	return int(math.Ceil(float64(n) * ratio))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
