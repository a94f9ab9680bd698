package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy_reco/db"
	"policy_reco/models"
	"policy_reco/region"
)

func setupMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	prev := db.DB
	db.DB = conn
	t.Cleanup(func() {
		db.DB = prev
		conn.Close()
	})
	return mock
}

var policyColumnNames = []string{
	"id", "plcyNm", "lclsfNm", "mclsfNm", "plcySprtCn", "plcyExplnCn", "plcyPvsnMthdCd",
	"zipCd", "sprtTrgtAgeLmtYn", "sprtTrgtMinAge", "sprtTrgtMaxAge",
	"earnCndSeCd", "earnMinAmt", "earnMaxAmt", "plcyKywdNm",
	"mrgSttsCd", "schoolCd", "jobCd", "plcyMajorCd", "sbizCd",
}

func TestBuildPolicyPrefilter(t *testing.T) {
	q, args := buildPolicyPrefilter(models.UserProfile{
		Age:    27,
		Income: 2400,
		Region: []string{"서울특별시 강남구"},
	})

	assert.Contains(t, q, "FROM policies WHERE")
	assert.Contains(t, q, "COALESCE(sprtTrgtMinAge,0) <= ? AND (sprtTrgtMaxAge >= ?")
	assert.Contains(t, q, "COALESCE(earnMinAmt,0) <= ? AND (earnMaxAmt >= ?")
	assert.NotContains(t, q, "zipCd LIKE")
	assert.Equal(t, []any{27, 27, 2400, 2400}, args)
}

// 地区只交给 FilterEligible 判定，SQL 不能丢掉 region.Match 认为匹配的政策
func TestPrefilterKeepsRegionMatchedPolicies(t *testing.T) {
	mock := setupMock(t)
	user := models.UserProfile{Email: "a@b.c", Age: 27, Region: []string{"서울특별시 강남구"}}

	rows := sqlmock.NewRows(policyColumnNames)
	for i, zip := range []string{"11", "서울", "강남", "11,26"} {
		rows.AddRow(fmt.Sprint(200+i), "청년 지원", nil, nil, nil, nil, nil,
			zip, "N", "0", "0",
			nil, nil, nil, nil,
			nil, nil, nil, nil, nil)
	}
	mock.ExpectQuery("FROM policies WHERE").WithArgs(27, 27).WillReturnRows(rows)

	q, args := buildPolicyPrefilter(user)
	assert.NotContains(t, q, "zipCd LIKE")
	assert.Equal(t, []any{27, 27}, args)

	got, err := LoadPoliciesPrefiltered(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.True(t, region.Match(p.Regions, user.Region), "zipCd %v", p.Regions)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildPolicyPrefilterWithoutSignals(t *testing.T) {
	q, args := buildPolicyPrefilter(models.UserProfile{})
	assert.NotContains(t, q, "WHERE")
	assert.Empty(t, args)
}

func TestLoadPoliciesPrefiltered(t *testing.T) {
	mock := setupMock(t)

	rows := sqlmock.NewRows(policyColumnNames).
		AddRow("101", " 청년 월세 지원 ", "주거", "주거지원", "월 20만원", "월세 부담 완화", "현금",
			"11,26", nil, "0", "0",
			nil, nil, nil, "주거, 청년",
			"제한없음", nil, nil, nil, nil).
		AddRow("102", "청년 구직 활동 지원", "일자리", "취업", "구직촉진수당", "구직 청년 지원", "현금",
			"", "Y", "19", "34",
			"연소득", "0", "5000", nil,
			nil, nil, nil, nil, nil)

	mock.ExpectQuery("FROM policies WHERE").
		WithArgs(27, 27).
		WillReturnRows(rows)

	got, err := LoadPoliciesPrefiltered(context.Background(), models.UserProfile{Email: "a@b.c", Age: 27})
	require.NoError(t, err)
	require.Len(t, got, 2)

	housing := got[0]
	assert.Equal(t, int64(101), housing.ID)
	assert.Equal(t, "청년 월세 지원", housing.Name)
	assert.Equal(t, []string{"11", "26"}, housing.Regions)
	assert.Equal(t, "N", housing.AgeLimit)
	assert.Equal(t, "무관", housing.IncomeType)
	assert.Equal(t, []string{"주거", "청년"}, housing.Keywords)
	assert.Empty(t, housing.Marriage)
	assert.Equal(t, models.PolicyTypeHousing, housing.PolicyType)

	job := got[1]
	assert.Equal(t, "Y", job.AgeLimit)
	assert.Equal(t, 19, job.MinAge)
	assert.Equal(t, 34, job.MaxAge)
	assert.Equal(t, 5000, job.MaxIncome)
	assert.Empty(t, job.Regions)
	assert.Equal(t, models.PolicyTypeEmployment, job.PolicyType)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail(t *testing.T) {
	mock := setupMock(t)

	cols := []string{"email", "location", "maritalStatus", "education", "major",
		"job", "employmentstatus", "interests", "specialGroup", "birthDate", "income"}
	mock.ExpectQuery("FROM users WHERE email = ?").
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"user@example.com", "서울특별시 강남구", "미혼", "대학 졸업", "",
			nil, "구직중", `["주거","취업","주거"]`, "not-json", "1999-10-20", "2400",
		))

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	u, err := GetUserByEmail(context.Background(), "user@example.com", now)
	require.NoError(t, err)

	assert.Equal(t, 26, u.Age)
	assert.Equal(t, 2400, u.Income)
	assert.Equal(t, []string{"서울특별시 강남구"}, u.Region)
	assert.Equal(t, []string{"구직중"}, u.Job)
	assert.Equal(t, []string{}, u.Major)
	assert.Equal(t, []string{"주거", "취업"}, u.InterestKeywords)
	assert.Equal(t, []string{}, u.Special)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectQuery("FROM users").WillReturnError(sql.ErrNoRows)

	_, err := GetUserByEmail(context.Background(), "nobody@example.com", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 27, AgeAt("1999-10-19", now))
	assert.Equal(t, 26, AgeAt("1999-10-20", now))
	assert.Equal(t, 27, AgeAt("1999-01-02T00:00:00Z", now))
	assert.Equal(t, 0, AgeAt("unknown", now))
	assert.Equal(t, 0, AgeAt("", now))
}

func TestSaveRecommendationAssignsRunID(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectExec("INSERT INTO recommendation_cache").
		WithArgs(sqlmock.AnyArg(), "user@example.com", "월세", "housing", "123456789",
			"[1,2]", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.Recommendation{
		Email:        "user@example.com",
		Preference:   "월세",
		Intent:       models.PolicyTypeHousing,
		Seed:         123456789,
		CandidateIDs: []int64{1, 2},
	}
	require.NoError(t, SaveRecommendation(context.Background(), rec))
	assert.NotEmpty(t, rec.RunID)
	assert.False(t, rec.GeneratedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestRecommendation(t *testing.T) {
	mock := setupMock(t)
	generated := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	cols := []string{"run_id", "email", "preference", "intent", "seed", "candidate_ids", "recommendations", "generated_at"}
	mock.ExpectQuery("FROM recommendation_cache").
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"run-1", "user@example.com", "월세", "housing", "1336551891", "[3,1]",
			`{"recommendations":[{"id":3,"plcyNm":"청년 월세 지원","reason":"월세 부담을 덜 수 있어요","badges":["관심:주거"]}]}`,
			generated,
		))

	rec, err := GetLatestRecommendation(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, models.PolicyTypeHousing, rec.Intent)
	assert.Equal(t, uint64(1336551891), rec.Seed)
	assert.Equal(t, []int64{3, 1}, rec.CandidateIDs)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, int64(3), rec.Items[0].ID)
	assert.Equal(t, "청년 월세 지원", rec.Items[0].Name)
	assert.Equal(t, []string{"관심:주거"}, rec.Items[0].Badges)
	assert.Equal(t, generated, rec.GeneratedAt)
}

func TestPurgeRecommendationsBefore(t *testing.T) {
	mock := setupMock(t)
	cutoff := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM recommendation_cache").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := PurgeRecommendationsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
