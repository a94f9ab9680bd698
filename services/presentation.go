package services

import (
	"fmt"
	"strings"

	"policy_reco/models"
	"policy_reco/region"
	"policy_reco/utils"
)

const (
	maxBadges      = 3
	maxReasonParts = 3
	defaultReason  = "사용자 조건과 전반적으로 무난하게 맞는 정책"
)

// BuildReasonAndBadges 根据匹配信号生成本地推荐理由和最多3个徽章
// LLM 理由生成失败时使用这里的结果
func BuildReasonAndBadges(p models.Policy, user models.UserProfile) (string, []string) {
	badges := make([]string, 0, maxBadges)
	parts := make([]string, 0, maxReasonParts)

	if kw := utils.Intersect(p.Keywords, user.InterestKeywords); len(kw) > 0 {
		badges = append(badges, "관심:"+kw[0])
		shown := kw
		if len(shown) > 2 {
			shown = shown[:2]
		}
		parts = append(parts, fmt.Sprintf("관심 키워드(%s)와 연관", strings.Join(shown, ", ")))
	}

	switch region.MatchStrength(p.Regions, user.Region) {
	case models.RegionExact, models.RegionPartial:
		if hint := region.Hint(p.Regions, 1); len(hint) > 0 {
			badges = append(badges, "지역:"+hint[0])
		}
		parts = append(parts, "거주/신청 지역 조건이 맞는 편")
	}

	if !p.AgeUnlimited() {
		parts = append(parts, fmt.Sprintf("연령 %d~%d세 대상", p.MinAge, p.MaxAge))
	}

	if method := strings.TrimSpace(p.ProvisionMethod); method != "" {
		badges = append(badges, method)
	}

	reason := defaultReason
	if len(parts) > 0 {
		if len(parts) > maxReasonParts {
			parts = parts[:maxReasonParts]
		}
		reason = strings.Join(parts, " / ")
	}
	if len(badges) > maxBadges {
		badges = badges[:maxBadges]
	}
	return reason, badges
}
