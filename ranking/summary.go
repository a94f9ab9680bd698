package ranking

import (
	"policy_reco/intent"
	"policy_reco/models"
	"policy_reco/region"
	"policy_reco/utils"
)

const (
	nameMaxRunes    = 120
	supportMaxRunes = 240
	descMaxRunes    = 240
	keywordsShown   = 5
	regionHintSize  = 2
)

// Summarize 计算政策相对用户的匹配信号，不修改 p
func Summarize(p models.Policy, u models.UserProfile) models.CandidateSummary {
	kw := utils.Intersect(p.Keywords, u.InterestKeywords)
	shown := kw
	if len(shown) > keywordsShown {
		shown = shown[:keywordsShown]
	}

	limit := p.AgeLimit
	if limit == "" {
		limit = "N"
	}

	return models.CandidateSummary{
		ID:          p.ID,
		PolicyType:  intent.Resolve(p),
		Name:        utils.TruncateRunes(p.Name, nameMaxRunes),
		Category:    []string{p.CategoryLarge, p.CategoryMid},
		Method:      p.ProvisionMethod,
		Support:     utils.TruncateRunes(p.Support, supportMaxRunes),
		Description: utils.TruncateRunes(p.Description, descMaxRunes),
		Matches: models.Matches{
			RegionStrength: region.MatchStrength(p.Regions, u.Region),
			RegionHint:     region.Hint(p.Regions, regionHintSize),
			Age: models.AgeInfo{
				Limit: limit,
				Min:   p.MinAge,
				Max:   p.MaxAge,
				User:  u.Age,
			},
			Income: models.IncomeInfo{
				Type: p.IncomeType,
				Min:  p.MinIncome,
				Max:  p.MaxIncome,
				User: u.Income,
			},
			Keywords:       shown,
			KeywordOverlap: len(kw),
		},
	}
}
