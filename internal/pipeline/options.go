package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/cache"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/overlay"
)

const (
	DefaultTargetLanguage = "vi"
	DefaultMinTextLength  = 2
	DefaultMaxInFlight    = 4
)

// Option 控制器配置选项函数
type Option func(*options)

type options struct {
	logger         *zap.Logger
	cache          *cache.Tracker
	source         FragmentSource
	renderer       overlay.Renderer
	targetLang     string
	minTextLength  int
	maxInFlight    int
	requestTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:        zap.NewNop(),
		source:        NewSelectorSource(nil),
		renderer:      overlay.ClassRenderer{},
		targetLang:    DefaultTargetLanguage,
		minTextLength: DefaultMinTextLength,
		maxInFlight:   DefaultMaxInFlight,
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCache 使用外部缓存（多个控制器共享时使用）
func WithCache(tracker *cache.Tracker) Option {
	return func(o *options) {
		o.cache = tracker
	}
}

// WithSource 设置片段来源
func WithSource(source FragmentSource) Option {
	return func(o *options) {
		if source != nil {
			o.source = source
		}
	}
}

// WithRenderer 设置渲染器
func WithRenderer(renderer overlay.Renderer) Option {
	return func(o *options) {
		if renderer != nil {
			o.renderer = renderer
		}
	}
}

// WithTargetLanguage 设置目标语言
func WithTargetLanguage(lang string) Option {
	return func(o *options) {
		if lang != "" {
			o.targetLang = lang
		}
	}
}

// WithMinTextLength 设置最短文本长度（按字符计）
func WithMinTextLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minTextLength = n
		}
	}
}

// WithMaxInFlight 设置同时进行的翻译请求上限
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInFlight = n
		}
	}
}

// WithRequestTimeout 设置单次翻译超时，0 表示只受 ctx 控制
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.requestTimeout = d
	}
}
