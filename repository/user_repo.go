package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"policy_reco/db"
	"policy_reco/models"
	"policy_reco/utils"
)

const birthDateLayout = "2006-01-02"

// userRow users 表原始行
type userRow struct {
	Email, Location, Marital, Education, Major     sql.NullString
	Job, EmploymentStatus, Interests, SpecialGroup sql.NullString
	BirthDate, Income                              sql.NullString
}

// GetUserByEmail 根据邮箱读取用户并转换为画像
// 用户不存在时返回 sql.ErrNoRows
func GetUserByEmail(ctx context.Context, email string, now time.Time) (*models.UserProfile, error) {
	var r userRow
	err := db.DB.QueryRowContext(ctx, `
		SELECT email, location, maritalStatus, education, major,
		       job, employmentstatus, interests, specialGroup,
		       birthDate, income
		FROM users WHERE email = ?`, email).Scan(
		&r.Email, &r.Location, &r.Marital, &r.Education, &r.Major,
		&r.Job, &r.EmploymentStatus, &r.Interests, &r.SpecialGroup,
		&r.BirthDate, &r.Income,
	)
	if err != nil {
		return nil, err
	}

	return r.toProfile(email, now), nil
}

func (r userRow) toProfile(email string, now time.Time) *models.UserProfile {
	job := strings.TrimSpace(r.Job.String)
	if job == "" {
		job = strings.TrimSpace(r.EmploymentStatus.String)
	}

	return &models.UserProfile{
		Email:            email,
		Age:              AgeAt(r.BirthDate.String, now),
		Income:           utils.ToInt(r.Income.String, 0),
		Region:           single(r.Location.String),
		Marriage:         single(r.Marital.String),
		Education:        single(r.Education.String),
		Job:              single(job),
		Major:            single(r.Major.String),
		Special:          parseStringArray(r.SpecialGroup.String),
		InterestKeywords: parseStringArray(r.Interests.String),
	}
}

// AgeAt 按出生日期计算 now 时的周岁，无法解析时返回0
func AgeAt(birth string, now time.Time) int {
	birth = strings.TrimSpace(birth)
	if len(birth) < len(birthDateLayout) {
		return 0
	}
	t, err := time.Parse(birthDateLayout, birth[:len(birthDateLayout)])
	if err != nil {
		return 0
	}

	age := now.Year() - t.Year()
	if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

func single(v string) []string {
	if v = strings.TrimSpace(v); v == "" {
		return []string{}
	}
	return []string{v}
}

// parseStringArray 宽松解析 JSON 字符串数组，格式错误时返回空列表
func parseStringArray(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return utils.DeduplicateSlice(out)
}
