package stats

import (
	"context"
	"errors"
	"time"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	next         providers.Provider
	statsManager *StatsManager
}

var _ providers.Provider = (*StatisticsMiddleware)(nil)

// NewStatisticsMiddleware 创建统计中间件
func NewStatisticsMiddleware(next providers.Provider, statsManager *StatsManager) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		next:         next,
		statsManager: statsManager,
	}
}

// Translate 带统计的翻译方法
func (sm *StatisticsMiddleware) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	startTime := time.Now()

	resp, err := sm.next.Translate(ctx, req)

	result := RequestResult{
		Success: err == nil,
		Latency: time.Since(startTime),
	}
	if err != nil {
		result.ErrorType = classifyError(err)
	} else if resp != nil {
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
	}

	sm.statsManager.RecordRequest(sm.next.GetName(), result)

	return resp, err
}

// GetName 获取被包装提供商的名称
func (sm *StatisticsMiddleware) GetName() string {
	return sm.next.GetName()
}

// Stats 返回被包装提供商的统计快照
func (sm *StatisticsMiddleware) Stats() ProviderStats {
	return sm.statsManager.GetStats(sm.next.GetName())
}

// classifyError 错误分类
func classifyError(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
