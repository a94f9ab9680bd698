package services

import (
	"policy_reco/logger"
	"policy_reco/models"
	"policy_reco/region"
)

// FilterEligible 硬过滤：只剔除"不可能"符合的政策
// 年龄、地区、收入三项任一明确不符即剔除；用户信息缺失时不剔除
// 婚姻/学历/职业/专业不作为硬过滤条件
func FilterEligible(policies []models.Policy, user models.UserProfile) []models.Policy {
	result := make([]models.Policy, 0, len(policies))
	for _, p := range policies {
		if !ageEligible(p, user.Age) {
			continue
		}
		if !region.Match(p.Regions, user.Region) {
			continue
		}
		if !incomeEligible(p, user.Income) {
			continue
		}
		result = append(result, p)
	}

	logger.Info("资格过滤完成", "before", len(policies), "after", len(result))
	return result
}

func ageEligible(p models.Policy, age int) bool {
	if p.AgeUnlimited() || age == 0 {
		return true
	}
	return inRange(age, p.MinAge, p.MaxAge)
}

func incomeEligible(p models.Policy, income int) bool {
	if p.IncomeUnconditioned() || income == 0 {
		return true
	}
	return inRange(income, p.MinIncome, p.MaxIncome)
}

// inRange 上限为0表示不设上限
func inRange(v, lo, hi int) bool {
	if v < lo {
		return false
	}
	return hi == 0 || v <= hi
}
