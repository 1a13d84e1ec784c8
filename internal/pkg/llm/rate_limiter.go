package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

// unavailableMarker 可将模型标记为暂不可用
type unavailableMarker interface {
	MarkModelUnavailable(ctx context.Context, m *PooledModel, resetTime time.Time) error
}

// RateLimiter 识别限流错误并让对应的 Key 进入冷却
type RateLimiter struct {
	marker          unavailableMarker
	defaultCooldown time.Duration
	now             func() time.Time
}

var rateLimitKeywords = []string{
	"rate limit",
	"quota exceeded",
	"too many requests",
	"rate-limited",
	"request rate exceeded",
	"resource_exhausted",
	"请求次数超过限制",
	"超过限制",
	"每分钟请求次数",
}

var durationPatterns = []struct {
	re   *regexp.Regexp
	unit time.Duration
}{
	{regexp.MustCompile(`(?i)(?:try again in|retry after) (\d+)\s*s`), time.Second},
	{regexp.MustCompile(`(?i)(?:try again in|retry after) (\d+)\s*m`), time.Minute},
	{regexp.MustCompile(`(?i)(?:try again in|retry after) (\d+)\s*h`), time.Hour},
}

var (
	resetAtPattern   = regexp.MustCompile(`Reset at (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
	timestampPattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:\d{2})?)`)
)

// NewRateLimiter 创建限流处理器
func NewRateLimiter(marker unavailableMarker, defaultCooldown time.Duration) *RateLimiter {
	if defaultCooldown <= 0 {
		defaultCooldown = 2 * time.Minute
	}
	return &RateLimiter{
		marker:          marker,
		defaultCooldown: defaultCooldown,
		now:             time.Now,
	}
}

// IsRateLimitError 判断错误是否为限流错误
func (r *RateLimiter) IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "429") {
		return true
	}
	for _, keyword := range rateLimitKeywords {
		if strings.Contains(errMsg, keyword) {
			return true
		}
	}
	return false
}

// ParseResetTime 从错误信息中解析重置时间，解析失败返回零值
func (r *RateLimiter) ParseResetTime(err error) time.Time {
	if err == nil {
		return time.Time{}
	}
	errMsg := err.Error()

	// Try again in 60s / Retry after 1m
	for _, pt := range durationPatterns {
		matches := pt.re.FindStringSubmatch(errMsg)
		if len(matches) < 2 {
			continue
		}
		if n, convErr := strconv.Atoi(matches[1]); convErr == nil {
			return r.now().Add(time.Duration(n) * pt.unit)
		}
	}

	// Reset at 2026-02-04 12:00:00
	if matches := resetAtPattern.FindStringSubmatch(errMsg); len(matches) >= 2 {
		if t, parseErr := time.ParseInLocation(time.DateTime, matches[1], time.Local); parseErr == nil {
			return t
		}
	}
	if matches := timestampPattern.FindStringSubmatch(errMsg); len(matches) >= 2 {
		if t, parseErr := time.Parse(time.RFC3339, matches[1]); parseErr == nil {
			return t
		}
		if t, parseErr := time.ParseInLocation("2006-01-02T15:04:05", matches[1], time.Local); parseErr == nil {
			return t
		}
	}
	return time.Time{}
}

// HandleRateLimit 标记模型进入冷却，原样返回错误（不切换、不重试）
func (r *RateLimiter) HandleRateLimit(ctx context.Context, m *PooledModel, err error) error {
	klog.Warningf("[RateLimiter] 模型 %s 触发限流: %v", m.APIKeyName, err)

	resetTime := r.ParseResetTime(err)
	if resetTime.IsZero() {
		resetTime = r.now().Add(r.defaultCooldown)
	}
	if markErr := r.marker.MarkModelUnavailable(ctx, m, resetTime); markErr != nil {
		klog.Errorf("[RateLimiter] 标记模型不可用失败: %v", markErr)
	}
	return err
}
