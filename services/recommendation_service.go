package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"policy_reco/config"
	"policy_reco/intent"
	"policy_reco/logger"
	"policy_reco/metrics"
	"policy_reco/models"
	"policy_reco/ranking"
	"policy_reco/shuffle"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrNoSelection 选择器与本地兜底都没有产生任何政策
	ErrNoSelection = errors.New("no policy selected")
	// ErrNoRecommendation 用户还没有推荐记录
	ErrNoRecommendation = errors.New("no recommendation cached")
)

// RecommendationService 推荐流程：用户 -> 预过滤政策 -> 资格过滤 -> 候选视图 -> 最终选择 -> 理由与徽章
type RecommendationService struct {
	store    Store
	selector Selector // 为 nil 时直接使用本地评分兜底
	builder  *ranking.Builder
	ranking  config.Ranking
	now      func() time.Time
}

// NewRecommendationService 创建推荐服务，排序配置非法时返回 *config.ValidationError
func NewRecommendationService(store Store, selector Selector, cfg config.Ranking) (*RecommendationService, error) {
	builder, err := ranking.NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	return &RecommendationService{
		store:    store,
		selector: selector,
		builder:  builder,
		ranking:  cfg,
		now:      time.Now,
	}, nil
}

// WithClock 替换时间来源，daily seed 和年龄计算都依赖它
func (s *RecommendationService) WithClock(now func() time.Time) *RecommendationService {
	s.now = now
	return s
}

// pipelineState 候选视图阶段的中间结果
type pipelineState struct {
	user     *models.UserProfile
	eligible []models.Policy
	intent   models.PolicyType
	seed     uint64
	view     []models.CandidateSummary
}

func (s *RecommendationService) prepare(ctx context.Context, email, preference string) (*pipelineState, error) {
	now := s.now()

	user, err := s.store.GetUser(ctx, email, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	policies, err := s.store.LoadPolicies(ctx, *user)
	if err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}

	st := &pipelineState{
		user:     user,
		eligible: FilterEligible(policies, *user),
		intent:   intent.Detect(preference),
		seed:     shuffle.DailySeed(email, now),
	}
	metrics.EligiblePolicies.Observe(float64(len(st.eligible)))

	st.view, err = s.builder.BuildCandidateView(st.eligible, *user, preference, s.ranking.TopNView, st.seed)
	if err != nil {
		return nil, err
	}
	metrics.CandidateViewSize.Observe(float64(len(st.view)))

	logger.Info("候选视图构建完成",
		"email", email,
		"intent", st.intent,
		"loaded", len(policies),
		"eligible", len(st.eligible),
		"view", len(st.view),
		"seed", st.seed)
	return st, nil
}

// CandidateView 只构建候选视图，不调用选择器
func (s *RecommendationService) CandidateView(ctx context.Context, email, preference string) (*models.CandidateViewResult, error) {
	st, err := s.prepare(ctx, email, preference)
	if err != nil {
		return nil, err
	}
	return &models.CandidateViewResult{
		Email:      email,
		Intent:     st.intent,
		Seed:       st.seed,
		Eligible:   len(st.eligible),
		Candidates: st.view,
	}, nil
}

// Recommend 执行完整推荐流程并写入缓存
func (s *RecommendationService) Recommend(ctx context.Context, email, preference string) (*models.Recommendation, error) {
	start := time.Now()
	outcome := "error"
	defer func() { metrics.RecordRecommendation(outcome, time.Since(start)) }()

	st, err := s.prepare(ctx, email, preference)
	if err != nil {
		return nil, err
	}

	rec := &models.Recommendation{
		Email:        email,
		Preference:   preference,
		Intent:       st.intent,
		Seed:         st.seed,
		CandidateIDs: candidateIDs(st.view),
		Items:        []models.RecommendedPolicy{},
		GeneratedAt:  s.now().UTC(),
	}

	if len(st.view) == 0 {
		outcome = "empty"
		s.save(ctx, rec)
		return rec, nil
	}

	ids, outcome := s.selectIDs(ctx, st, preference)
	if len(ids) == 0 {
		outcome = "error"
		return nil, ErrNoSelection
	}

	byID := make(map[int64]models.Policy, len(st.eligible))
	for _, p := range st.eligible {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p
		}
	}

	details := make([]models.Policy, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			details = append(details, p)
		}
	}

	var llmReasons map[int64]string
	if s.selector != nil && len(details) > 0 {
		summaries := make([]models.CandidateSummary, len(details))
		for i, p := range details {
			summaries[i] = ranking.Summarize(p, *st.user)
		}
		llmReasons = s.selector.GenerateReasons(ctx, summaries, preference)
	}

	for _, p := range details {
		reason, badges := BuildReasonAndBadges(p, *st.user)
		if r, ok := llmReasons[p.ID]; ok && r != "" {
			reason = r
		}
		rec.Items = append(rec.Items, models.RecommendedPolicy{Policy: p, Reason: reason, Badges: badges})
	}

	s.save(ctx, rec)
	logger.Info("推荐生成完成", "email", email, "run_id", rec.RunID, "count", len(rec.Items), "outcome", outcome)
	return rec, nil
}

// selectIDs 调用选择器，失败或为空时退回本地评分前 select_k 个
func (s *RecommendationService) selectIDs(ctx context.Context, st *pipelineState, preference string) ([]int64, string) {
	k := s.ranking.SelectK
	if s.selector != nil {
		ids, err := s.selector.SelectIDs(ctx, st.view, *st.user, preference, k)
		if err == nil && len(ids) > 0 {
			return ids, "llm"
		}
		logger.Warn("LLM选择失败，使用本地评分前K个", "error", err)
	}
	return LocalTopK(s.ranking, st.view, preference, k), "fallback"
}

// LocalTopK 按本地评分取前 k 个候选 id
func LocalTopK(cfg config.Ranking, view []models.CandidateSummary, preference string, k int) []int64 {
	ranked := ranking.Rank(cfg, view, preference)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}

func (s *RecommendationService) save(ctx context.Context, rec *models.Recommendation) {
	if err := s.store.SaveRecommendation(ctx, rec); err != nil {
		logger.Error("保存推荐结果失败", "email", rec.Email, "error", err)
	}
}

// Latest 获取最近一次推荐结果
func (s *RecommendationService) Latest(ctx context.Context, email string) (*models.Recommendation, error) {
	rec, err := s.store.GetLatestRecommendation(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecommendation
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpired 删除超过保留期的推荐缓存
func (s *RecommendationService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.store.PurgeRecommendationsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.CachePurgedRows.Add(float64(n))
	logger.Info("推荐缓存清理完成", "cutoff", cutoff.Format(time.RFC3339), "deleted", n)
	return n, nil
}

func candidateIDs(view []models.CandidateSummary) []int64 {
	ids := make([]int64, len(view))
	for i, c := range view {
		ids[i] = c.ID
	}
	return ids
}
