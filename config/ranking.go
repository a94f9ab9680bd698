package config

import (
	"fmt"
	"strconv"

	"policy_reco/models"
)

// Ranking 候选排序与候选视图构建的全部系数
// 所有系数都由外部配置提供，核心排序代码中不出现任何硬编码常量
type Ranking struct {
	PrefWeightDefault    float64 `yaml:"pref_weight_default" validate:"finite"`
	PrefWeightWithIntent float64 `yaml:"pref_weight_with_intent" validate:"finite"`

	RegionBonusExact      float64 `yaml:"region_bonus_exact" validate:"finite"`
	RegionBonusPartial    float64 `yaml:"region_bonus_partial" validate:"finite"`
	RegionBonusNationwide float64 `yaml:"region_bonus_nationwide" validate:"finite"`
	RegionBonusUnknown    float64 `yaml:"region_bonus_unknown" validate:"finite"`
	RegionBonusMismatch   float64 `yaml:"region_bonus_mismatch" validate:"finite"`

	KwBonusPerOverlap     float64 `yaml:"kw_bonus_per_overlap" validate:"finite"`
	KwBonusCap            int     `yaml:"kw_bonus_cap" validate:"gte=0"`
	KwScaleIntentMatch    float64 `yaml:"kw_scale_intent_match" validate:"finite"`
	KwScaleIntentMismatch float64 `yaml:"kw_scale_intent_mismatch" validate:"finite"`

	IntentMatchBonus    float64 `yaml:"intent_match_bonus" validate:"finite"`
	IntentMismatchBonus float64 `yaml:"intent_mismatch_bonus" validate:"finite"`

	LengthPenaltyShort float64 `yaml:"length_penalty_short" validate:"finite"`
	SupportShortLen    int     `yaml:"support_short_len" validate:"gte=0"`
	DescShortLen       int     `yaml:"desc_short_len" validate:"gte=0"`

	TopNView int `yaml:"top_n_view" validate:"gt=0"`
	SelectK  int `yaml:"select_k" validate:"gt=0"`

	// 候选视图构建参数（经验值，可配置）
	IntentQuotaMin   int     `yaml:"intent_quota_min" validate:"gte=0"`
	IntentQuotaRatio float64 `yaml:"intent_quota_ratio" validate:"finite,gte=0,lte=1"`
	MainRatio        float64 `yaml:"main_ratio" validate:"finite,gte=0,lte=1"`
	FillerWindow     int     `yaml:"filler_window" validate:"gte=0"`
	ShuffleMix       uint64  `yaml:"shuffle_mix"`
}

// DefaultRanking 默认排序系数
func DefaultRanking() Ranking {
	return Ranking{
		PrefWeightDefault:    1.5,
		PrefWeightWithIntent: 2.8,

		RegionBonusExact:      6.0,
		RegionBonusPartial:    4.0,
		RegionBonusNationwide: 0.0,
		RegionBonusUnknown:    0.5,
		RegionBonusMismatch:   -10.0,

		KwBonusPerOverlap:     2.2,
		KwBonusCap:            5,
		KwScaleIntentMatch:    1.0,
		KwScaleIntentMismatch: 0.25,

		IntentMatchBonus:    10.0,
		IntentMismatchBonus: -4.0,

		LengthPenaltyShort: -1.5,
		SupportShortLen:    20,
		DescShortLen:       30,

		TopNView: 40,
		SelectK:  5,

		IntentQuotaMin:   3,
		IntentQuotaRatio: 0.6,
		MainRatio:        0.7,
		FillerWindow:     120,
		ShuffleMix:       0xA5A5A5A5,
	}
}

// applyEnv 用环境变量覆盖排序系数，变量名为 yaml 键的大写形式
func (r *Ranking) applyEnv(getenv func(string) string) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"PREF_WEIGHT_DEFAULT", &r.PrefWeightDefault},
		{"PREF_WEIGHT_WITH_INTENT", &r.PrefWeightWithIntent},
		{"REGION_BONUS_EXACT", &r.RegionBonusExact},
		{"REGION_BONUS_PARTIAL", &r.RegionBonusPartial},
		{"REGION_BONUS_NATIONWIDE", &r.RegionBonusNationwide},
		{"REGION_BONUS_UNKNOWN", &r.RegionBonusUnknown},
		{"REGION_BONUS_MISMATCH", &r.RegionBonusMismatch},
		{"KW_BONUS_PER_OVERLAP", &r.KwBonusPerOverlap},
		{"KW_SCALE_INTENT_MATCH", &r.KwScaleIntentMatch},
		{"KW_SCALE_INTENT_MISMATCH", &r.KwScaleIntentMismatch},
		{"INTENT_MATCH_BONUS", &r.IntentMatchBonus},
		{"INTENT_MISMATCH_BONUS", &r.IntentMismatchBonus},
		{"LENGTH_PENALTY_SHORT", &r.LengthPenaltyShort},
		{"INTENT_QUOTA_RATIO", &r.IntentQuotaRatio},
		{"MAIN_RATIO", &r.MainRatio},
	}
	for _, f := range floats {
		v := getenv(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("环境变量 %s 无效: %w", f.key, err)
		}
		*f.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"KW_BONUS_CAP", &r.KwBonusCap},
		{"SUPPORT_SHORT_LEN", &r.SupportShortLen},
		{"DESC_SHORT_LEN", &r.DescShortLen},
		{"TOP_N_VIEW", &r.TopNView},
		{"SELECT_K", &r.SelectK},
		{"INTENT_QUOTA_MIN", &r.IntentQuotaMin},
		{"FILLER_WINDOW", &r.FillerWindow},
	}
	for _, f := range ints {
		v := getenv(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("环境变量 %s 无效: %w", f.key, err)
		}
		*f.dst = parsed
	}

	if v := getenv("SHUFFLE_MIX"); v != "" {
		parsed, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("环境变量 SHUFFLE_MIX 无效: %w", err)
		}
		r.ShuffleMix = parsed
	}
	return nil
}

// RegionBonus 按匹配强度查表
func (r Ranking) RegionBonus(strength models.RegionStrength) float64 {
	switch strength {
	case models.RegionExact:
		return r.RegionBonusExact
	case models.RegionPartial:
		return r.RegionBonusPartial
	case models.RegionNationwide:
		return r.RegionBonusNationwide
	case models.RegionUnknown:
		return r.RegionBonusUnknown
	case models.RegionMismatch:
		return r.RegionBonusMismatch
	}
	return 0
}
