package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DeduplicateSlice 去重字符串切片（保持顺序，去掉空白项）
func DeduplicateSlice(input []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(input))

	for _, val := range input {
		val = strings.TrimSpace(val)
		if val != "" && !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}

	return result
}

// unrestricted 表示"不限"的字段取值
var unrestricted = map[string]bool{
	"":     true,
	"제한없음": true,
	"무관":   true,
}

// IsUnrestricted 判断字段值是否表示不限
func IsUnrestricted(val string) bool {
	return unrestricted[strings.TrimSpace(val)]
}

// SplitField 将逗号分隔的字段拆成列表，"제한없음"/"무관"/空 视为空列表
func SplitField(val string) []string {
	s := strings.TrimSpace(val)
	if IsUnrestricted(s) {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToInt 宽松地解析整数，失败时返回默认值
func ToInt(val string, def int) int {
	s := strings.TrimSpace(val)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// 兼容 "25.0" 这类脏数据
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}

// TruncateRunes 按字符（而非字节）截断
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Intersect 返回 a 中同时出现在 b 中的元素，保持 a 的顺序
func Intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return []string{}
	}
	sb := make(map[string]bool, len(b))
	for _, x := range b {
		sb[x] = true
	}
	out := make([]string, 0, len(a))
	for _, x := range a {
		if sb[x] {
			out = append(out, x)
		}
	}
	return out
}

// StripCodeFence 去掉 LLM 输出中的 ```json 代码块标记
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
