// Package intent 按有序关键词规则把文本映射为政策类型
package intent

import (
	"strings"

	"golang.org/x/text/cases"

	"policy_reco/models"
)

// Rule 类型标签及其触发关键词
type Rule struct {
	Label    models.PolicyType
	Keywords []string
}

// Rules 按顺序匹配，先命中者生效
type Rules []Rule

// Match 返回第一个关键词出现在 text 中的规则标签
func (rs Rules) Match(text string) (models.PolicyType, bool) {
	folded := Fold(text)
	for _, r := range rs {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(folded, Fold(kw)) {
				return r.Label, true
			}
		}
	}
	return models.PolicyTypeNone, false
}

// Fold 大小写折叠，用于不区分大小写的子串比较
// cases.Caser 不能并发使用，每次调用新建
func Fold(text string) string {
	return cases.Fold().String(text)
}

// Detect 从偏好文本识别意图，没有命中时返回 models.PolicyTypeNone
func Detect(text string) models.PolicyType {
	label, _ := PreferenceRules.Match(text)
	return label
}

// Classify 根据政策名称、支援内容和说明归类，兜底为 models.PolicyTypeOther
func Classify(p models.Policy) models.PolicyType {
	return ClassifyText(p.Name, p.Support, p.Description)
}

// ClassifyText 对拼接后的文本应用政策规则
func ClassifyText(parts ...string) models.PolicyType {
	if label, ok := PolicyRules.Match(strings.Join(parts, " ")); ok {
		return label
	}
	return models.PolicyTypeOther
}

// Resolve 返回政策已有的类型，缺失时现场归类
func Resolve(p models.Policy) models.PolicyType {
	if p.PolicyType != models.PolicyTypeNone {
		return p.PolicyType
	}
	return Classify(p)
}
