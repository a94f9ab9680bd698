package repository

import (
	"context"
	"database/sql"
	"strings"

	"policy_reco/db"
	"policy_reco/intent"
	"policy_reco/logger"
	"policy_reco/models"
	"policy_reco/utils"
)

// policyColumns policies 表中参与推荐的列，顺序与 scanPolicy 一致
const policyColumns = `id, plcyNm, lclsfNm, mclsfNm, plcySprtCn, plcyExplnCn, plcyPvsnMthdCd,
	zipCd, sprtTrgtAgeLmtYn, sprtTrgtMinAge, sprtTrgtMaxAge,
	earnCndSeCd, earnMinAmt, earnMaxAmt, plcyKywdNm,
	mrgSttsCd, schoolCd, jobCd, plcyMajorCd, sbizCd`

// policyRow policies 表原始行，所有列都可能为 NULL
type policyRow struct {
	ID, Name, CategoryLarge, CategoryMid, Support, Description, Method sql.NullString
	Regions, AgeLimit, MinAge, MaxAge                                  sql.NullString
	IncomeType, MinIncome, MaxIncome, Keywords                         sql.NullString
	Marriage, School, Job, Major, SpecialBiz                           sql.NullString
}

func (r *policyRow) dest() []any {
	return []any{
		&r.ID, &r.Name, &r.CategoryLarge, &r.CategoryMid, &r.Support, &r.Description, &r.Method,
		&r.Regions, &r.AgeLimit, &r.MinAge, &r.MaxAge,
		&r.IncomeType, &r.MinIncome, &r.MaxIncome, &r.Keywords,
		&r.Marriage, &r.School, &r.Job, &r.Major, &r.SpecialBiz,
	}
}

// buildPolicyPrefilter 按年龄、收入生成宽松的 SQL 预过滤条件
// 这里只做粗筛，结果必须是 services.FilterEligible 通过集合的超集
// 上限为 0 或 NULL 视为不设上限，与 FilterEligible 保持一致
// 地区不在 SQL 中过滤：region.MatchStrength 的部分匹配是双向子串，zipCd 又是逗号分隔列表，LIKE 无法覆盖
func buildPolicyPrefilter(user models.UserProfile) (string, []any) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if user.Age > 0 {
		where = append(where, "(sprtTrgtAgeLmtYn='N'"+
			" OR (sprtTrgtMinAge=0 AND sprtTrgtMaxAge=0)"+
			" OR (COALESCE(sprtTrgtMinAge,0) <= ? AND (sprtTrgtMaxAge >= ? OR COALESCE(sprtTrgtMaxAge,0) = 0)))")
		args = append(args, user.Age, user.Age)
	}

	if user.Income > 0 {
		where = append(where, "(earnCndSeCd IN ('무관','제한없음','')"+
			" OR earnCndSeCd IS NULL"+
			" OR (COALESCE(earnMinAmt,0) <= ? AND (earnMaxAmt >= ? OR COALESCE(earnMaxAmt,0) = 0)))")
		args = append(args, user.Income, user.Income)
	}

	q := "SELECT " + policyColumns + " FROM policies"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return q, args
}

// LoadPoliciesPrefiltered 读取经过 SQL 粗筛的政策列表
func LoadPoliciesPrefiltered(ctx context.Context, user models.UserProfile) ([]models.Policy, error) {
	q, args := buildPolicyPrefilter(user)
	rows, err := db.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	policies := make([]models.Policy, 0, 256)
	for rows.Next() {
		var r policyRow
		if err := rows.Scan(r.dest()...); err != nil {
			logger.Warn("跳过无法解析的政策行", "error", err)
			continue
		}
		policies = append(policies, preprocessPolicy(r))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.Info("政策加载完成(SQL预过滤)", "count", len(policies), "email", user.Email)
	return policies, nil
}

// preprocessPolicy 清洗原始行：拆分列表字段、整数缺省为0、去除空白并识别政策类别
func preprocessPolicy(r policyRow) models.Policy {
	p := models.Policy{
		ID:              int64(utils.ToInt(r.ID.String, 0)),
		Name:            strings.TrimSpace(r.Name.String),
		CategoryLarge:   strings.TrimSpace(r.CategoryLarge.String),
		CategoryMid:     strings.TrimSpace(r.CategoryMid.String),
		Support:         strings.TrimSpace(r.Support.String),
		Description:     strings.TrimSpace(r.Description.String),
		ProvisionMethod: strings.TrimSpace(r.Method.String),
		Regions:         utils.SplitField(r.Regions.String),
		AgeLimit:        strings.TrimSpace(r.AgeLimit.String),
		MinAge:          utils.ToInt(r.MinAge.String, 0),
		MaxAge:          utils.ToInt(r.MaxAge.String, 0),
		IncomeType:      strings.TrimSpace(r.IncomeType.String),
		MinIncome:       utils.ToInt(r.MinIncome.String, 0),
		MaxIncome:       utils.ToInt(r.MaxIncome.String, 0),
		Keywords:        utils.SplitField(r.Keywords.String),
		Marriage:        utils.SplitField(r.Marriage.String),
		School:          utils.SplitField(r.School.String),
		Job:             utils.SplitField(r.Job.String),
		Major:           utils.SplitField(r.Major.String),
		SpecialBiz:      utils.SplitField(r.SpecialBiz.String),
	}

	if p.AgeLimit == "" || (p.MinAge == 0 && p.MaxAge == 0) {
		p.AgeLimit = "N"
	}
	if p.IncomeType == "" {
		p.IncomeType = "무관"
	}
	p.PolicyType = intent.Classify(p)
	return p
}
