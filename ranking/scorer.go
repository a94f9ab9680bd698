// Package ranking 为符合资格的政策打分，并组装交给最终选择的候选视图
package ranking

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"policy_reco/config"
	"policy_reco/intent"
	"policy_reco/models"
)

// Tokenize 大小写折叠后按非字母数字下划线切分
func Tokenize(text string) []string {
	return strings.FieldsFunc(intent.Fold(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

// Score 综合偏好重合度、地区匹配、关键词重合、内容长度和意图一致性打分
func Score(cfg config.Ranking, s models.CandidateSummary, prefTokens []string, in models.PolicyType) float64 {
	m := s.Matches

	text := intent.Fold(strings.Join([]string{
		s.Name, strings.Join(m.Keywords, " "), s.Support, s.Description,
	}, " "))
	prefHit := 0
	for _, tok := range prefTokens {
		if tok != "" && strings.Contains(text, tok) {
			prefHit++
		}
	}

	overlap := m.KeywordOverlap
	if overlap > cfg.KwBonusCap {
		overlap = cfg.KwBonusCap
	}
	kwBonus := float64(overlap) * cfg.KwBonusPerOverlap

	lengthPenalty := 0.0
	if utf8.RuneCountInString(s.Support) < cfg.SupportShortLen &&
		utf8.RuneCountInString(s.Description) < cfg.DescShortLen {
		lengthPenalty = cfg.LengthPenaltyShort
	}

	prefWeight := cfg.PrefWeightDefault
	intentBonus := 0.0
	if in != models.PolicyTypeNone {
		prefWeight = cfg.PrefWeightWithIntent
		if s.PolicyType == in {
			intentBonus = cfg.IntentMatchBonus
			kwBonus *= cfg.KwScaleIntentMatch
		} else {
			intentBonus = cfg.IntentMismatchBonus
			kwBonus *= cfg.KwScaleIntentMismatch
		}
	}

	return float64(prefHit)*prefWeight +
		cfg.RegionBonus(m.RegionStrength) +
		kwBonus +
		lengthPenalty +
		intentBonus
}

// Rank 按偏好文本打分并按分数降序稳定排序，同分保持输入顺序
func Rank(cfg config.Ranking, summaries []models.CandidateSummary, preference string) []models.ScoredCandidate {
	tokens := Tokenize(preference)
	in := intent.Detect(preference)

	scored := make([]models.ScoredCandidate, len(summaries))
	for i, s := range summaries {
		scored[i] = models.ScoredCandidate{
			CandidateSummary: s,
			Score:            Score(cfg, s, tokens, in),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
