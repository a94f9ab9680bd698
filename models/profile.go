package models

// UserProfile 用户画像（来自 users 表，只读）
type UserProfile struct {
	Email            string   `json:"email"`
	Age              int      `json:"age"`
	Income           int      `json:"income"`
	Region           []string `json:"region"`
	Marriage         []string `json:"marriage"`
	Education        []string `json:"education"`
	Job              []string `json:"job"`
	Major            []string `json:"major"`
	Special          []string `json:"special"`
	InterestKeywords []string `json:"interest_keywords"`
}
