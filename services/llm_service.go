package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"policy_reco/config"
	"policy_reco/intent"
	"policy_reco/logger"
	"policy_reco/metrics"
	"policy_reco/models"
	"policy_reco/utils"
)

// 定义 OpenAI 兼容的 chat completion 请求和响应结构
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// reasonItem LLM 返回的单条推荐理由
type reasonItem struct {
	ID     int64  `json:"id" validate:"required"`
	Reason string `json:"reason" validate:"min=6,max=200"`
}

const (
	selectTemperature = 0.2
	selectMaxTokens   = 120
	reasonTemperature = 0.3
)

// ErrEmptySelection LLM 返回的 id 列表在过滤后为空
var ErrEmptySelection = errors.New("llm returned no usable policy id")

// LLMClient OpenAI 兼容接口客户端，实现 Selector
type LLMClient struct {
	baseURL           string
	apiKey            string
	model             string
	retries           int
	reasonChunkSize   int
	reasonMaxTokens   int
	reasonConcurrency int

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]

	selectBackoff time.Duration
	reasonBackoff time.Duration
}

// NewLLMClient 根据配置创建 LLM 客户端
func NewLLMClient(cfg *config.Config) *LLMClient {
	timeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.LLM.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.LLM.RequestsPerSecond)
	}

	chunk := cfg.LLM.ReasonChunkSize
	if chunk <= 0 {
		chunk = 20
	}
	concurrency := cfg.LLM.ReasonConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &LLMClient{
		baseURL:           strings.TrimRight(cfg.LLM.BaseURL, "/"),
		apiKey:            cfg.LLM.APIKey,
		model:             cfg.LLM.Model,
		retries:           cfg.LLM.Retries,
		reasonChunkSize:   chunk,
		reasonMaxTokens:   cfg.LLM.ReasonMaxTokens,
		reasonConcurrency: concurrency,
		httpClient:        &http.Client{Timeout: timeout},
		limiter:           rate.NewLimiter(limit, 1),
		breaker:           newBreaker(cfg.LLM.BreakerFailures, cfg.LLM.BreakerTimeoutSec),
		selectBackoff:     600 * time.Millisecond,
		reasonBackoff:     700 * time.Millisecond,
	}
}

// newBreaker 连续失败 failures 次后熔断，timeoutSec 秒后放行一个探测请求
func newBreaker(failures, timeoutSec int) *gobreaker.CircuitBreaker[string] {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("LLM熔断器状态变化", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// chat 经过熔断器调用 chat completion 接口，熔断期间直接返回 gobreaker.ErrOpenState
func (c *LLMClient) chat(ctx context.Context, op string, messages []message, temperature float64, maxTokens int) (string, error) {
	return c.breaker.Execute(func() (string, error) {
		return c.doChat(ctx, op, messages, temperature, maxTokens)
	})
}

// doChat 调用一次 chat completion 接口，返回第一条回复内容
func (c *LLMClient) doChat(ctx context.Context, op string, messages []message, temperature float64, maxTokens int) (content string, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	defer func() { metrics.RecordLLMRequest(op, time.Since(start), err) }()

	reqJSON, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API请求失败: %d - %s", resp.StatusCode, utils.TruncateRunes(string(body), 500))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("API响应中没有内容")
	}

	logger.Debug("LLM响应",
		"operation", op,
		"tokens_total", cr.Usage.TotalTokens,
		"finish_reason", cr.Choices[0].FinishReason,
		"duration_ms", time.Since(start).Milliseconds())

	return cr.Choices[0].Message.Content, nil
}

// wait 按 unit*(attempt+1) 线性退避，ctx 取消时提前返回
func wait(ctx context.Context, unit time.Duration, attempt int) error {
	d := unit * time.Duration(attempt+1)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SelectIDs 让 LLM 从候选视图中选出 k 个政策 id
// 失败时按 0.6s*attempt 退避重试，全部失败返回最后一次错误
func (c *LLMClient) SelectIDs(ctx context.Context, candidates []models.CandidateSummary, user models.UserProfile, preference string, k int) ([]int64, error) {
	if len(candidates) == 0 || k <= 0 {
		return nil, ErrEmptySelection
	}

	in := intent.Detect(preference)
	valid := make(map[int64]bool, len(candidates))
	for _, s := range candidates {
		valid[s.ID] = true
	}

	prompt, err := buildSelectPrompt(candidates, user, preference, in, k)
	if err != nil {
		return nil, err
	}
	messages := []message{
		{Role: "system", Content: selectSystemPrompt(in, k)},
		{Role: "user", Content: prompt},
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		txt, err := c.chat(ctx, "select", messages, selectTemperature, selectMaxTokens)
		if err == nil {
			var ids []int64
			if ids, err = parseSelectedIDs(txt, valid, k); err == nil {
				return ids, nil
			}
		}

		lastErr = err
		logger.Warn("LLM选择政策失败", "attempt", attempt+1, "error", err)
		if attempt == c.retries {
			break
		}
		if werr := wait(ctx, c.selectBackoff, attempt); werr != nil {
			return nil, werr
		}
	}

	logger.Error("LLM选择政策最终失败", "error", lastErr)
	return nil, lastErr
}

func selectSystemPrompt(in models.PolicyType, k int) string {
	label := string(in)
	if label == "" {
		label = "없음"
	}
	return "역할: 한국 청년정책 추천 편집자.\n" +
		"데이터에 있는 정보만 사용.\n" +
		"우선순위:\n" +
		"1) region_strength가 exact/partial인 것 우선\n" +
		"2) keyword_overlap 높은 것 우선\n" +
		"3) 사용자 추가 희망 조건(user_preference)과 제목/설명/지원내용이 맞는 것\n" +
		"4) 비슷한 정책만 고르지 말고 성격이 다른 정책으로 분산(예: 세금/금융/취업/주거 등)\n" +
		"사용자 intent: " + label + "\n" +
		"제약:\n" +
		fmt.Sprintf("- intent가 있으면, 선택 %d개 중 최소 3개는 policy_type이 intent와 같아야 한다(가능한 경우).\n", k) +
		"- 후보에 없는 id 금지, 중복 금지.\n" +
		fmt.Sprintf("반드시 순수 JSON 배열만 반환: 정수 id %d개.", k)
}

func buildSelectPrompt(candidates []models.CandidateSummary, user models.UserProfile, preference string, in models.PolicyType, k int) (string, error) {
	userInfo := map[string]any{
		"age":               user.Age,
		"region":            user.Region,
		"education":         user.Education,
		"job":               user.Job,
		"major":             user.Major,
		"marriage":          user.Marriage,
		"special":           user.Special,
		"income":            user.Income,
		"interest_keywords": user.InterestKeywords,
		"intent":            in,
	}
	userJSON, err := json.Marshal(userInfo)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("사용자 정보: %s\n추가 희망 조건(user_preference): %s\n"+
		"아래 후보 데이터에서 가장 적합한 정책 %d개를 고르고, id 배열만 출력하라.\n%s",
		userJSON, preference, k, payload), nil
}

// parseSelectedIDs 解析 LLM 返回的 id 数组
// 只接受整数或纯数字字符串，丢弃不在候选中的和重复的 id，最多保留 k 个
func parseSelectedIDs(text string, valid map[int64]bool, k int) ([]int64, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(utils.StripCodeFence(text)), &raw); err != nil {
		return nil, fmt.Errorf("解析id数组失败: %w", err)
	}

	out := make([]int64, 0, k)
	seen := make(map[int64]bool, k)
	for _, item := range raw {
		id, ok := rawID(item)
		if !ok || !valid[id] || seen[id] {
			continue
		}
		out = append(out, id)
		seen[id] = true
		if len(out) >= k {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

func rawID(item json.RawMessage) (int64, bool) {
	var n int64
	if err := json.Unmarshal(item, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(item, &s); err != nil || s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

const reasonSystemPrompt = "역할: 한국 청년정책 추천 에디터. 데이터에 있는 사실만 사용.\n" +
	"반드시 JSON 배열만 반환. 각 요소는 {\"id\": number, \"reason\": string}.\n" +
	"reason은 60~110자. 상투어/과장 금지. 사용자 조건(지역/키워드/연령/지원내용) 중 최소 2개를 근거로 써라."

// GenerateReasons 分块并发调用 LLM 生成推荐理由
// 单个分块失败只记录日志，对应政策保留本地理由
func (c *LLMClient) GenerateReasons(ctx context.Context, summaries []models.CandidateSummary, preference string) map[int64]string {
	reasons := make(map[int64]string, len(summaries))
	if len(summaries) == 0 {
		return reasons
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.reasonConcurrency)

	for start := 0; start < len(summaries); start += c.reasonChunkSize {
		end := min(start+c.reasonChunkSize, len(summaries))
		chunk := summaries[start:end]
		offset := start

		g.Go(func() error {
			items, err := c.reasonChunk(ctx, chunk, preference)
			if err != nil {
				logger.Warn("推荐理由分块生成失败", "offset", offset, "error", err)
				return nil
			}
			inChunk := make(map[int64]bool, len(chunk))
			for _, s := range chunk {
				inChunk[s.ID] = true
			}
			mu.Lock()
			for _, it := range items {
				if inChunk[it.ID] {
					reasons[it.ID] = it.Reason
				}
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return reasons
}

func (c *LLMClient) reasonChunk(ctx context.Context, chunk []models.CandidateSummary, preference string) ([]reasonItem, error) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}
	messages := []message{
		{Role: "system", Content: reasonSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("사용자 의도: %s\n데이터: %s\n각 정책에 대해 추천 이유를 JSON 배열로 작성하라.", preference, payload)},
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		txt, err := c.chat(ctx, "reason", messages, reasonTemperature, c.reasonMaxTokens)
		if err == nil {
			var items []reasonItem
			if items, err = parseReasons(txt); err == nil {
				return items, nil
			}
		}

		lastErr = err
		if attempt == c.retries {
			break
		}
		if werr := wait(ctx, c.reasonBackoff, attempt); werr != nil {
			return nil, werr
		}
	}
	return nil, lastErr
}

// parseReasons 解析并校验理由数组，任一条不合法则整体失败
func parseReasons(text string) ([]reasonItem, error) {
	var items []reasonItem
	if err := json.Unmarshal([]byte(utils.StripCodeFence(text)), &items); err != nil {
		return nil, fmt.Errorf("解析理由数组失败: %w", err)
	}
	for i := range items {
		items[i].Reason = strings.TrimSpace(items[i].Reason)
		if err := config.ValidateStruct(items[i]); err != nil {
			return nil, fmt.Errorf("理由 %d 校验失败: %w", items[i].ID, err)
		}
	}
	return items, nil
}
