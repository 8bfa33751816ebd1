package stats

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProviderStats 提供商请求统计
type ProviderStats struct {
	ProviderName       string `json:"provider_name"`
	TotalRequests      int64  `json:"total_requests"`
	SuccessfulRequests int64  `json:"successful_requests"`
	FailedRequests     int64  `json:"failed_requests"`
	TotalTokensIn      int64  `json:"total_tokens_in"`
	TotalTokensOut     int64  `json:"total_tokens_out"`

	// 延迟
	MinLatency   time.Duration `json:"min_latency"`
	MaxLatency   time.Duration `json:"max_latency"`
	TotalLatency time.Duration `json:"total_latency"`

	// 按错误类型统计
	ErrorTypes map[string]int64 `json:"error_types"`

	FirstRequestTime time.Time `json:"first_request_time"`
	LastRequestTime  time.Time `json:"last_request_time"`
}

// AverageLatency 平均延迟
func (ps ProviderStats) AverageLatency() time.Duration {
	if ps.TotalRequests == 0 {
		return 0
	}
	return ps.TotalLatency / time.Duration(ps.TotalRequests)
}

// SuccessRate 成功率（百分比）
func (ps ProviderStats) SuccessRate() float64 {
	if ps.TotalRequests == 0 {
		return 0
	}
	return float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success   bool
	Latency   time.Duration
	TokensIn  int
	TokensOut int
	ErrorType string
}

// StatsManager 统计管理器
type StatsManager struct {
	stats  map[string]*ProviderStats
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStatsManager 创建统计管理器
func NewStatsManager(logger *zap.Logger) *StatsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsManager{
		stats:  make(map[string]*ProviderStats),
		logger: logger,
	}
}

// RecordRequest 记录请求结果
func (sm *StatsManager) RecordRequest(provider string, result RequestResult) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stats, ok := sm.stats[provider]
	if !ok {
		stats = &ProviderStats{
			ProviderName: provider,
			ErrorTypes:   make(map[string]int64),
		}
		sm.stats[provider] = stats
	}

	now := time.Now()
	if stats.FirstRequestTime.IsZero() {
		stats.FirstRequestTime = now
	}
	stats.LastRequestTime = now

	stats.TotalRequests++
	if result.Success {
		stats.SuccessfulRequests++
		stats.TotalTokensIn += int64(result.TokensIn)
		stats.TotalTokensOut += int64(result.TokensOut)
	} else {
		stats.FailedRequests++
		if result.ErrorType != "" {
			stats.ErrorTypes[result.ErrorType]++
		}
	}

	stats.TotalLatency += result.Latency
	if stats.MinLatency == 0 || result.Latency < stats.MinLatency {
		stats.MinLatency = result.Latency
	}
	if result.Latency > stats.MaxLatency {
		stats.MaxLatency = result.Latency
	}

	sm.logger.Debug("provider request recorded",
		zap.String("provider", provider),
		zap.Bool("success", result.Success),
		zap.Duration("latency", result.Latency),
		zap.String("error_type", result.ErrorType))
}

// GetStats 获取单个提供商的统计快照
func (sm *StatsManager) GetStats(provider string) ProviderStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stats, ok := sm.stats[provider]
	if !ok {
		return ProviderStats{ProviderName: provider, ErrorTypes: map[string]int64{}}
	}
	return stats.clone()
}

// GetAllStats 获取所有统计快照，按提供商名称排序
func (sm *StatsManager) GetAllStats() []ProviderStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	out := make([]ProviderStats, 0, len(sm.stats))
	for _, stats := range sm.stats {
		out = append(out, stats.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderName < out[j].ProviderName })
	return out
}

func (ps *ProviderStats) clone() ProviderStats {
	c := *ps
	c.ErrorTypes = make(map[string]int64, len(ps.ErrorTypes))
	for k, v := range ps.ErrorTypes {
		c.ErrorTypes[k] = v
	}
	return c
}
