package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"policy_reco/db"
	"policy_reco/models"
)

// SaveRecommendation 写入一次推荐运行的结果，RunID 为空时自动生成
func SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}

	ids, err := json.Marshal(rec.CandidateIDs)
	if err != nil {
		return err
	}
	items, err := json.Marshal(map[string]any{"recommendations": rec.Items})
	if err != nil {
		return err
	}

	_, err = db.DB.ExecContext(ctx, `
		INSERT INTO recommendation_cache
			(run_id, email, preference, intent, seed, candidate_ids, recommendations, generated_at)
		VALUES (?, ?, ?, ?, ?, CAST(? AS JSON), CAST(? AS JSON), ?)
	`, rec.RunID, rec.Email, rec.Preference, string(rec.Intent),
		strconv.FormatUint(rec.Seed, 10), string(ids), string(items), rec.GeneratedAt)
	return err
}

// GetLatestRecommendation 获取用户最近一次推荐结果
// 没有记录时返回 sql.ErrNoRows
func GetLatestRecommendation(ctx context.Context, email string) (*models.Recommendation, error) {
	var (
		rec       models.Recommendation
		intent    string
		seed      string
		idsJSON   string
		itemsJSON string
	)
	err := db.DB.QueryRowContext(ctx, `
		SELECT run_id, email, preference, intent, seed, candidate_ids, recommendations, generated_at
		FROM recommendation_cache
		WHERE email = ?
		ORDER BY generated_at DESC
		LIMIT 1
	`, email).Scan(&rec.RunID, &rec.Email, &rec.Preference, &intent, &seed, &idsJSON, &itemsJSON, &rec.GeneratedAt)
	if err != nil {
		return nil, err
	}

	rec.Intent = models.PolicyType(intent)
	rec.Seed, _ = strconv.ParseUint(seed, 10, 64)

	if idsJSON != "" {
		if err := json.Unmarshal([]byte(idsJSON), &rec.CandidateIDs); err != nil {
			return nil, err
		}
	}

	var result struct {
		Recommendations []models.RecommendedPolicy `json:"recommendations"`
	}
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &result); err != nil {
			return nil, err
		}
	}
	rec.Items = result.Recommendations

	return &rec, nil
}

// PurgeRecommendationsBefore 删除 cutoff 之前生成的推荐缓存，返回删除行数
func PurgeRecommendationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.DB.ExecContext(ctx, `DELETE FROM recommendation_cache WHERE generated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
