package models

// PreferenceRequest 推荐请求体
type PreferenceRequest struct {
	Preference string `json:"preference" example:"취업 준비중입니다" validate:"max=500"`
}

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// RecommendationResponse 推荐结果响应
type RecommendationResponse struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message" example:"success"`
	Data    Recommendation `json:"data"`
}

// CandidateViewResponse 候选视图响应
type CandidateViewResponse struct {
	Code    int                 `json:"code" example:"0"`
	Message string              `json:"message" example:"success"`
	Data    CandidateViewResult `json:"data"`
}

// IntentResponse 意图识别响应
type IntentResponse struct {
	Code    int    `json:"code" example:"0"`
	Message string `json:"message" example:"success"`
	Data    struct {
		Text   string     `json:"text" example:"취업 준비중입니다"`
		Intent PolicyType `json:"intent" example:"employment"`
	} `json:"data"`
}
