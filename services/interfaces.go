package services

import (
	"context"
	"time"

	"policy_reco/models"
)

// Store 推荐流程依赖的存储接口
type Store interface {
	// 读取用户画像，不存在时返回 sql.ErrNoRows
	GetUser(ctx context.Context, email string, now time.Time) (*models.UserProfile, error)

	// 读取经过 SQL 粗筛的政策
	LoadPolicies(ctx context.Context, user models.UserProfile) ([]models.Policy, error)

	SaveRecommendation(ctx context.Context, rec *models.Recommendation) error
	GetLatestRecommendation(ctx context.Context, email string) (*models.Recommendation, error)

	// 删除 cutoff 之前的推荐缓存
	PurgeRecommendationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Selector 从候选视图中做最终选择并生成推荐理由
type Selector interface {
	// 返回不超过 k 个、且都存在于 candidates 中的政策 id
	SelectIDs(ctx context.Context, candidates []models.CandidateSummary, user models.UserProfile, preference string, k int) ([]int64, error)

	// 返回 id -> 推荐理由，失败的分块直接缺省
	GenerateReasons(ctx context.Context, summaries []models.CandidateSummary, preference string) map[int64]string
}

// Recommender 推荐服务接口（供 HTTP 层和 CLI 使用）
type Recommender interface {
	// 完整推荐流程
	Recommend(ctx context.Context, email, preference string) (*models.Recommendation, error)

	// 只构建候选视图，不调用选择器
	CandidateView(ctx context.Context, email, preference string) (*models.CandidateViewResult, error)

	// 获取最近一次推荐结果
	Latest(ctx context.Context, email string) (*models.Recommendation, error)
}

// CachePurger 推荐缓存清理接口（供调度器使用）
type CachePurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}
