// Package region 规范化韩国地区标识，并评估政策地区与用户居住地的匹配程度
package region

import (
	"strings"
	"unicode/utf8"

	"policy_reco/models"
	"policy_reco/utils"
)

// sidoCodes 两位시도代码到标准地名，只读
var sidoCodes = map[string]string{
	"11": "서울", "26": "부산", "27": "대구", "28": "인천", "29": "광주", "30": "대전", "31": "울산",
	"36": "세종",
	"41": "경기", "42": "강원", "43": "충북", "44": "충남",
	"45": "전북", "46": "전남",
	"47": "경북", "48": "경남",
	"50": "제주",
}

const provinceSuffix = "도"

var adminSuffixes = []string{"특별시", "광역시", "자치시", "자치도"}

// ProvinceName 返回시도代码对应的标准地名
func ProvinceName(code string) (string, bool) {
	if !isDigits(code) {
		return "", false
	}
	name, ok := sidoCodes[code]
	return name, ok
}

// NormalizeUserRegions 把 "경기도 수원시" 这类居住地展开为原文、各部分及去掉行政后缀的形式
func NormalizeUserRegions(tokens []string) []string {
	out := make([]string, 0, len(tokens)*4)
	for _, raw := range tokens {
		phrase := strings.TrimSpace(raw)
		if phrase == "" {
			continue
		}
		parts := strings.Fields(phrase)
		out = append(out, phrase)
		out = append(out, parts...)

		for _, p := range parts {
			if stripped, ok := stripProvince(p); ok {
				out = append(out, stripped)
			}
			if hasAdminSuffix(p) {
				out = append(out, stripAdmin(p))
			}
		}
	}
	return utils.DeduplicateSlice(out)
}

// NormalizePolicyRegions 把政策地区代码("11"、"경기도"等)展开为标准地名、原值和去掉"도"的形式
func NormalizePolicyRegions(codes []string) []string {
	out := make([]string, 0, len(codes)*3)
	for _, raw := range codes {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if name, ok := ProvinceName(s); ok {
			out = append(out, name)
		}
		out = append(out, s)
		if stripped, ok := stripProvince(s); ok {
			out = append(out, stripped)
		}
	}
	return utils.DeduplicateSlice(out)
}

// MatchStrength 评估政策地区与用户地区的匹配强度
func MatchStrength(policyRegions, userRegions []string) models.RegionStrength {
	if len(policyRegions) == 0 {
		return models.RegionNationwide
	}
	if len(userRegions) == 0 {
		return models.RegionUnknown
	}

	pr := NormalizePolicyRegions(policyRegions)
	ur := NormalizeUserRegions(userRegions)

	userSet := make(map[string]struct{}, len(ur))
	for _, u := range ur {
		userSet[u] = struct{}{}
	}
	for _, p := range pr {
		if _, ok := userSet[p]; ok {
			return models.RegionExact
		}
	}

	for _, p := range pr {
		for _, u := range ur {
			if strings.Contains(u, p) || strings.Contains(p, u) {
				return models.RegionPartial
			}
		}
	}
	return models.RegionMismatch
}

// Match 地区是否兼容
func Match(policyRegions, userRegions []string) bool {
	return MatchStrength(policyRegions, userRegions) != models.RegionMismatch
}

// Hint 返回前 n 个规范化后的政策地区
func Hint(codes []string, n int) []string {
	if len(codes) == 0 || n <= 0 {
		return []string{}
	}
	norm := NormalizePolicyRegions(codes)
	if len(norm) > n {
		norm = norm[:n]
	}
	return norm
}

func stripProvince(s string) (string, bool) {
	if !strings.HasSuffix(s, provinceSuffix) || utf8.RuneCountInString(s) < 2 {
		return "", false
	}
	return strings.TrimSuffix(s, provinceSuffix), true
}

func hasAdminSuffix(s string) bool {
	for _, suf := range adminSuffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func stripAdmin(s string) string {
	for _, suf := range adminSuffixes {
		s = strings.ReplaceAll(s, suf, "")
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
