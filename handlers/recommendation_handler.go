package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"policy_reco/config"
	_ "policy_reco/docs" // 导入 swagger 文档
	"policy_reco/intent"
	"policy_reco/logger"
	"policy_reco/models"
	"policy_reco/ranking"
	"policy_reco/services"
	"policy_reco/utils"
)

// RecommendHandler godoc
// @Summary 为指定用户生成政策推荐
// @Description 执行完整推荐流程：预过滤 → 资格过滤 → 候选视图 → 最终选择 → 推荐理由，并写入缓存
// @Tags 推荐
// @Accept json
// @Produce json
// @Param email path string true "用户邮箱"
// @Param body body models.PreferenceRequest false "用户偏好"
// @Success 200 {object} models.RecommendationResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/recommendation/{email} [post]
func RecommendHandler(w http.ResponseWriter, r *http.Request, svc services.Recommender) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	req, ok := decodePreference(w, r)
	if !ok {
		return
	}

	rec, err := svc.Recommend(r.Context(), email, req.Preference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, rec)
}

// LatestRecommendationHandler godoc
// @Summary 获取用户最近一次推荐结果
// @Description 从推荐缓存读取最近一次生成的结果，不重新计算
// @Tags 推荐
// @Produce json
// @Param email path string true "用户邮箱"
// @Success 200 {object} models.RecommendationResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 404 {object} models.APIResponse "没有推荐数据"
// @Router /api/recommendation/{email} [get]
func LatestRecommendationHandler(w http.ResponseWriter, r *http.Request, svc services.Recommender) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	rec, err := svc.Latest(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, rec)
}

// CandidateViewHandler godoc
// @Summary 查看用户的候选视图
// @Description 只执行到候选视图阶段，返回当日 seed、识别到的意图和打乱后的候选摘要
// @Tags 推荐
// @Accept json
// @Produce json
// @Param email path string true "用户邮箱"
// @Param body body models.PreferenceRequest false "用户偏好"
// @Success 200 {object} models.CandidateViewResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/candidates/{email} [post]
func CandidateViewHandler(w http.ResponseWriter, r *http.Request, svc services.Recommender) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}
	req, ok := decodePreference(w, r)
	if !ok {
		return
	}

	view, err := svc.CandidateView(r.Context(), email, req.Preference)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, view)
}

// IntentHandler godoc
// @Summary 识别偏好文本的意图
// @Description 按关键词表识别偏好文本对应的政策类型，没有命中时返回空字符串
// @Tags 推荐
// @Produce json
// @Param text query string true "偏好文本"
// @Success 200 {object} models.IntentResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Router /api/intent [get]
func IntentHandler(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if !utils.RequireParam(w, "text", text) {
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"text":   text,
		"intent": intent.Detect(text),
	})
}

// emailParam 读取并校验路径中的邮箱
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := chi.URLParam(r, "email")
	if !utils.RequireParam(w, "email", email) {
		return "", false
	}
	if err := config.Validator().Var(email, "email"); err != nil {
		utils.WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{
			"email": email,
		})
		return "", false
	}
	return email, true
}

// decodePreference 解析请求体，空请求体视为没有偏好
func decodePreference(w http.ResponseWriter, r *http.Request) (models.PreferenceRequest, bool) {
	var req models.PreferenceRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "请求体不是合法的JSON", map[string]interface{}{})
			return req, false
		}
	}
	if err := config.ValidateStruct(req); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, err.Error(), map[string]interface{}{})
		return req, false
	}
	return req, true
}

// writeServiceError 将服务层错误映射为响应码
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *config.ValidationError
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.WriteErrorResponse(w, models.CodeUserNotFound, map[string]interface{}{})
	case errors.Is(err, services.ErrNoRecommendation):
		utils.WriteErrorResponse(w, models.CodeNoRecommendData, map[string]interface{}{})
	case errors.Is(err, ranking.ErrInvalidTopN), errors.As(err, &verr):
		utils.WriteCustomErrorResponse(w, models.CodeConfigError, err.Error(), map[string]interface{}{})
	case errors.Is(err, services.ErrNoSelection):
		utils.WriteErrorResponse(w, models.CodeRecommendGenError, map[string]interface{}{})
	default:
		logger.Error("请求处理失败", "error", err)
		utils.WriteCustomErrorResponse(w, models.CodeServerError, err.Error(), map[string]interface{}{})
	}
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r chi.Router, cfg *config.Config, svc services.Recommender) {
	r.Use(Metrics)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.Server.RateLimitRequests > 0 {
			window := time.Duration(cfg.Server.RateLimitWindowSec) * time.Second
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(cfg.Server.RateLimitRequests, window))
		}

		r.Post("/recommendation/{email}", func(w http.ResponseWriter, r *http.Request) {
			RecommendHandler(w, r, svc)
		})
		r.Get("/recommendation/{email}", func(w http.ResponseWriter, r *http.Request) {
			LatestRecommendationHandler(w, r, svc)
		})
		r.Post("/candidates/{email}", func(w http.ResponseWriter, r *http.Request) {
			CandidateViewHandler(w, r, svc)
		})
		r.Get("/intent", IntentHandler)
	})
}
