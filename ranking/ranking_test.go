package ranking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy_reco/config"
	"policy_reco/models"
)

const longSupport = "월 최대 20만원을 최대 12개월 동안 지원하는 청년 대상 사업입니다"

func newPolicy(id int64, name string, regions ...string) models.Policy {
	return models.Policy{
		ID:            id,
		Name:          name,
		CategoryLarge: "복지문화",
		CategoryMid:   "취약계층 및 금융지원",
		Support:       longSupport,
		Regions:       regions,
		AgeLimit:      "N",
	}
}

func seoulUser() models.UserProfile {
	return models.UserProfile{
		Email:            "user@example.com",
		Age:              27,
		Income:           2400,
		Region:           []string{"서울특별시 강남구"},
		InterestKeywords: []string{"주거"},
	}
}

func mustBuilder(t *testing.T, cfg config.Ranking) *Builder {
	t.Helper()
	b, err := NewBuilder(cfg)
	require.NoError(t, err)
	return b
}

func ids(view []models.CandidateSummary) []int64 {
	out := make([]int64, len(view))
	for i, c := range view {
		out[i] = c.ID
	}
	return out
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"월세", "지원", "원해요"}, Tokenize("월세, 지원 원해요!"))
	assert.Equal(t, []string{"job_fair", "2026"}, Tokenize("Job_Fair / 2026"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestSummarize(t *testing.T) {
	p := newPolicy(7, strings.Repeat("가", 130), "11")
	p.AgeLimit = ""
	p.Description = strings.Repeat("나", 300)
	p.Keywords = []string{"a", "b", "c", "d", "e", "f", "g"}
	u := seoulUser()
	u.InterestKeywords = []string{"g", "f", "e", "d", "c", "b", "a"}

	s := Summarize(p, u)

	assert.Equal(t, int64(7), s.ID)
	assert.Equal(t, 120, len([]rune(s.Name)))
	assert.Equal(t, 240, len([]rune(s.Description)))
	assert.Equal(t, []string{"복지문화", "취약계층 및 금융지원"}, s.Category)
	assert.Equal(t, "N", s.Matches.Age.Limit)
	assert.Equal(t, 27, s.Matches.Age.User)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, s.Matches.Keywords)
	assert.Equal(t, 7, s.Matches.KeywordOverlap)
	assert.Equal(t, models.RegionExact, s.Matches.RegionStrength)
	assert.Equal(t, []string{"서울", "11"}, s.Matches.RegionHint)
	assert.Equal(t, models.PolicyTypeOther, s.PolicyType)
	assert.Empty(t, p.PolicyType, "input policy must not be modified")
}

func TestScoreWithMatchingIntent(t *testing.T) {
	cfg := config.DefaultRanking()
	p := newPolicy(1, "청년 월세 지원", "11")
	p.Keywords = []string{"주거", "청년"}

	s := Summarize(p, seoulUser())
	require.Equal(t, models.PolicyTypeHousing, s.PolicyType)

	got := Score(cfg, s, Tokenize("월세 지원 원해요"), models.PolicyTypeHousing)
	// 偏好命中 2 * 2.8 + 地区精确 6 + 关键词 2.2 + 意图 10
	assert.InDelta(t, 23.8, got, 1e-9)
}

func TestScoreWithMismatchedIntent(t *testing.T) {
	cfg := config.DefaultRanking()
	p := newPolicy(2, "청년 구직 활동 지원", "26")
	p.Keywords = []string{"주거"}

	s := Summarize(p, seoulUser())
	require.Equal(t, models.PolicyTypeEmployment, s.PolicyType)
	require.Equal(t, models.RegionMismatch, s.Matches.RegionStrength)

	got := Score(cfg, s, Tokenize("월세"), models.PolicyTypeHousing)
	// 地区不符 -10 + 关键词 2.2*0.25 + 意图不符 -4
	assert.InDelta(t, -13.45, got, 1e-9)
}

func TestScoreShortContentPenalty(t *testing.T) {
	cfg := config.DefaultRanking()
	s := models.CandidateSummary{
		ID:          3,
		Name:        "짧은 정책",
		Support:     "짧음",
		Description: "설명",
		Matches:     models.Matches{RegionStrength: models.RegionNationwide},
	}
	assert.InDelta(t, -1.5, Score(cfg, s, nil, models.PolicyTypeNone), 1e-9)

	s.Description = strings.Repeat("설", cfg.DescShortLen)
	assert.InDelta(t, 0.0, Score(cfg, s, nil, models.PolicyTypeNone), 1e-9)
}

func TestScoreKeywordBonusIsCapped(t *testing.T) {
	cfg := config.DefaultRanking()
	s := models.CandidateSummary{
		Support: longSupport,
		Matches: models.Matches{RegionStrength: models.RegionNationwide, KeywordOverlap: 9},
	}
	assert.InDelta(t, 11.0, Score(cfg, s, nil, models.PolicyTypeNone), 1e-9)
}

func TestRankOrdersByScoreAndKeepsTies(t *testing.T) {
	cfg := config.DefaultRanking()
	u := seoulUser()
	summaries := []models.CandidateSummary{
		Summarize(newPolicy(1, "정책 하나", "26"), u),
		Summarize(newPolicy(2, "정책 둘"), u),
		Summarize(newPolicy(3, "정책 셋", "11"), u),
		Summarize(newPolicy(4, "정책 넷"), u),
	}

	ranked := Rank(cfg, summaries, "")

	got := make([]int64, len(ranked))
	for i, r := range ranked {
		got[i] = r.ID
	}
	assert.Equal(t, []int64{3, 2, 4, 1}, got)
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
}

func TestNewBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.MainRatio = 1.5
	_, err := NewBuilder(cfg)
	require.Error(t, err)
}

func TestBuildCandidateViewInvalidTopN(t *testing.T) {
	b := mustBuilder(t, config.DefaultRanking())
	for _, n := range []int{0, -3} {
		_, err := b.BuildCandidateView([]models.Policy{newPolicy(1, "정책")}, seoulUser(), "", n, 1)
		assert.ErrorIs(t, err, ErrInvalidTopN)
	}
}

func TestBuildCandidateViewEmptyInput(t *testing.T) {
	b := mustBuilder(t, config.DefaultRanking())
	view, err := b.BuildCandidateView(nil, seoulUser(), "월세", 40, 123456789)
	require.NoError(t, err)
	assert.NotNil(t, view)
	assert.Empty(t, view)
}

func TestBuildCandidateViewSmallPool(t *testing.T) {
	b := mustBuilder(t, config.DefaultRanking())
	policies := []models.Policy{newPolicy(1, "정책 하나"), newPolicy(2, "정책 둘")}

	view, err := b.BuildCandidateView(policies, seoulUser(), "", 5, 42)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids(view))
}

func TestBuildCandidateViewIsDeterministic(t *testing.T) {
	policies := make([]models.Policy, 0, 60)
	for i := int64(1); i <= 60; i++ {
		region := "26"
		if i%3 == 0 {
			region = "11"
		}
		policies = append(policies, newPolicy(i, fmt.Sprintf("정책 %d", i), region))
	}

	first, err := mustBuilder(t, config.DefaultRanking()).
		BuildCandidateView(policies, seoulUser(), "", 20, 123456789)
	require.NoError(t, err)
	second, err := mustBuilder(t, config.DefaultRanking()).
		BuildCandidateView(policies, seoulUser(), "", 20, 123456789)
	require.NoError(t, err)

	assert.Len(t, first, 20)
	assert.Equal(t, first, second)
}

func TestBuildCandidateViewIntentOrderIsPinned(t *testing.T) {
	policies := make([]models.Policy, 0, 40)
	for i := int64(1); i <= 40; i++ {
		p := newPolicy(i, fmt.Sprintf("정책 %d", i))
		p.PolicyType = models.PolicyTypeEmployment
		if i%2 == 1 {
			p.PolicyType = models.PolicyTypeHousing
		}
		policies = append(policies, p)
	}

	// 同类型内分数相同：住房政策占满 6 个意图名额(1,3,5,7,9,11)，其余 4 个取自就业政策打乱后的前部
	want := []int64{3, 11, 7, 10, 5, 9, 2, 16, 22, 1}
	for run := 0; run < 3; run++ {
		view, err := mustBuilder(t, config.DefaultRanking()).
			BuildCandidateView(policies, seoulUser(), "월세", 10, 123456789)
		require.NoError(t, err)
		assert.Equal(t, want, ids(view))
	}
}

func TestBuildCandidateViewDropsDuplicateIDs(t *testing.T) {
	b := mustBuilder(t, config.DefaultRanking())
	policies := []models.Policy{
		newPolicy(1, "정책 하나"),
		newPolicy(2, "정책 둘"),
		newPolicy(1, "정책 하나 사본"),
		newPolicy(3, "정책 셋"),
	}

	view, err := b.BuildCandidateView(policies, seoulUser(), "", 10, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids(view))
	for _, c := range view {
		if c.ID == 1 {
			assert.Equal(t, "정책 하나", c.Name)
		}
	}
}

func TestBuildCandidateViewReservesIntentQuota(t *testing.T) {
	b := mustBuilder(t, config.DefaultRanking())

	var policies []models.Policy
	for i := int64(1); i <= 10; i++ {
		policies = append(policies, newPolicy(i, fmt.Sprintf("청년 월세 지원 %d", i), "11"))
	}
	for i := int64(11); i <= 40; i++ {
		policies = append(policies, newPolicy(i, fmt.Sprintf("청년 구직 지원 %d", i)))
	}

	view, err := b.BuildCandidateView(policies, seoulUser(), "월세가 부담돼요", 10, 123456789)
	require.NoError(t, err)
	require.Len(t, view, 10)

	housing := 0
	for _, c := range view {
		if c.PolicyType == models.PolicyTypeHousing {
			housing++
		}
	}
	assert.Equal(t, 6, b.IntentQuota(10))
	assert.Equal(t, 6, housing)
}

func TestBuildCandidateViewIntentQuotaWithFewMatches(t *testing.T) {
	b := mustBuilder(t, config.DefaultRanking())

	policies := []models.Policy{
		newPolicy(1, "청년 월세 지원", "11"),
		newPolicy(2, "청년 전세 대출이자 지원", "11"),
	}
	for i := int64(3); i <= 20; i++ {
		policies = append(policies, newPolicy(i, fmt.Sprintf("직업 훈련 %d", i)))
	}

	view, err := b.BuildCandidateView(policies, seoulUser(), "월세", 10, 99)
	require.NoError(t, err)
	require.Len(t, view, 10)
	assert.Contains(t, ids(view), int64(1))
	assert.Contains(t, ids(view), int64(2))
}

func TestBuildCandidateViewKeepsTopRankedWithoutIntent(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.MainRatio = 0.5
	cfg.FillerWindow = 0
	b := mustBuilder(t, cfg)

	var policies []models.Policy
	for i := int64(1); i <= 20; i++ {
		region := "26"
		if i > 15 {
			region = "11"
		}
		policies = append(policies, newPolicy(i, fmt.Sprintf("정책 %d", i), region))
	}

	view, err := b.BuildCandidateView(policies, seoulUser(), "", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, b.MainSlots(10))
	assert.ElementsMatch(t, []int64{16, 17, 18, 19, 20}, ids(view))
}

func TestBuildCandidateViewFillsFromWindow(t *testing.T) {
	cfg := config.DefaultRanking()
	cfg.MainRatio = 0.5
	b := mustBuilder(t, cfg)

	var policies []models.Policy
	for i := int64(1); i <= 30; i++ {
		region := "26"
		if i > 25 {
			region = "11"
		}
		policies = append(policies, newPolicy(i, fmt.Sprintf("정책 %d", i), region))
	}

	view, err := b.BuildCandidateView(policies, seoulUser(), "", 10, 5)
	require.NoError(t, err)
	require.Len(t, view, 10)

	got := ids(view)
	for _, id := range []int64{26, 27, 28, 29, 30} {
		assert.Contains(t, got, id)
	}
	seen := map[int64]bool{}
	for _, id := range got {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}
