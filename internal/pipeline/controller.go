// Package pipeline 实现增量字幕翻译管线
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/semaphore"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/cache"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/marker"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/observer"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/overlay"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/translate"
)

// Stats 管线统计
type Stats struct {
	cache.Stats
	Scans      int64 // 执行的扫描次数
	Dispatched int64 // 发出的翻译请求
	Deferred   int64 // 因同文本请求未完成而推迟的片段
	Marked     int64 // 标记的片段
	Stale      int64 // 状态切换后才返回的结果（只写缓存）
	Failed     int64 // 失败的翻译请求
	InFlight   int   // 当前未完成的请求
}

// Controller 管线控制器
//
// 每个文档一个控制器，持有缓存、观察器和启用状态。
// 扫描、提交和状态切换在 mu 下串行执行；网络请求在独立 goroutine 中进行，
// 由信号量限制并发数。
type Controller struct {
	id     string
	doc    *dom.Document
	client translate.Client
	cache  *cache.Tracker
	source FragmentSource
	render overlay.Renderer
	logger *zap.Logger
	obs    *observer.Observer
	sem    *semaphore.Weighted

	minTextLength  int
	requestTimeout time.Duration

	mu         sync.Mutex
	idle       *sync.Cond
	enabled    bool
	generation uint64
	ctx        context.Context
	targetLang string
	deferred   map[cache.Key]struct{}
	inFlight   int
	stats      Stats
}

// New 创建控制器，初始为禁用状态
func New(doc *dom.Document, client translate.Client, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = cache.New(cache.DefaultCapacity)
	}

	id := uuid.NewString()
	c := &Controller{
		id:             id,
		doc:            doc,
		client:         client,
		cache:          o.cache,
		source:         o.source,
		render:         o.renderer,
		logger:         o.logger.With(zap.String("controller", id)),
		sem:            semaphore.NewWeighted(int64(o.maxInFlight)),
		minTextLength:  o.minTextLength,
		requestTimeout: o.requestTimeout,
		ctx:            context.Background(),
		targetLang:     o.targetLang,
		deferred:       make(map[cache.Key]struct{}),
	}
	c.idle = sync.NewCond(&c.mu)
	c.obs = observer.New(doc, nil, c.observedScan, observer.WithLogger(c.logger))
	return c
}

// ID 控制器实例 ID
func (c *Controller) ID() string {
	return c.id
}

// Cache 返回控制器使用的缓存
func (c *Controller) Cache() *cache.Tracker {
	return c.cache
}

// Enabled 是否已启用
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enabled
}

// TargetLanguage 当前目标语言
func (c *Controller) TargetLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.targetLang
}

// Enable 启用管线：开始观察文档并立即扫描一次
//
// ctx 同时约束之后由观察器触发的翻译请求。已启用时无操作。
func (c *Controller) Enable(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return nil
	}
	if err := c.obs.Start(); err != nil {
		return err
	}

	c.enabled = true
	c.generation++
	c.ctx = ctx
	c.logger.Info("pipeline enabled", zap.String("target_lang", c.targetLang))

	c.scanLocked(ctx)
	return nil
}

// Disable 禁用管线：停止观察并撤销所有已标记片段
//
// 缓存和待处理集合保持不变。已禁用时无操作。
func (c *Controller) Disable() {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = false
	c.generation++

	reverted := 0
	for _, n := range marker.Marked(c.doc) {
		c.render.Detach(c.doc, n)
		marker.Unmark(c.doc, n)
		reverted++
	}
	clear(c.deferred)
	c.mu.Unlock()

	// 观察器的扫描回调需要 mu，必须在释放锁之后停止
	c.obs.Stop()

	c.logger.Info("pipeline disabled", zap.Int("reverted", reverted))
}

// Toggle 切换启用状态，返回切换后的状态
func (c *Controller) Toggle(ctx context.Context) (bool, error) {
	if c.Enabled() {
		c.Disable()
		return false, nil
	}
	if err := c.Enable(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SetTargetLanguage 修改目标语言，之后的扫描使用新语言
func (c *Controller) SetTargetLanguage(lang string) {
	c.mu.Lock()
	c.targetLang = lang
	c.mu.Unlock()

	c.obs.Trigger()
}

// Scan 扫描一次文档，禁用时无操作
func (c *Controller) Scan(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scanLocked(ctx)
}

// Wait 等待所有未完成的翻译请求结束
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.inFlight > 0 {
		c.idle.Wait()
	}
}

// Stats 返回统计快照
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Stats = c.cache.Stats()
	s.InFlight = c.inFlight
	return s
}

func (c *Controller) observedScan() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scanLocked(c.ctx)
}

// scanLocked 调用方必须持有 c.mu
func (c *Controller) scanLocked(ctx context.Context) {
	if !c.enabled {
		return
	}
	c.stats.Scans++

	for _, n := range c.source.Fragments(c.doc) {
		if marker.IsMarked(c.doc, n) || marker.HasMarkedAncestor(c.doc, n) {
			continue
		}

		text := strings.TrimSpace(c.doc.TextContent(n))
		if utf8.RuneCountInString(text) < c.minTextLength {
			continue
		}

		key := cache.Key{Text: text, Lang: c.targetLang}
		if translated, ok := c.cache.Lookup(key); ok {
			c.apply(n, translated)
			continue
		}

		if !c.cache.Reserve(key) {
			c.deferred[key] = struct{}{}
			c.stats.Deferred++
			continue
		}
		c.dispatch(ctx, c.generation, key, n)
	}
}

// dispatch 异步翻译，调用方必须持有 c.mu
func (c *Controller) dispatch(ctx context.Context, gen uint64, key cache.Key, n *html.Node) {
	c.inFlight++
	c.stats.Dispatched++

	go func() {
		translated, err := c.translate(ctx, key)
		c.complete(gen, key, n, translated, err)
	}()
}

func (c *Controller) translate(ctx context.Context, key cache.Key) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	return c.client.Translate(ctx, key.Text, key.Lang)
}

func (c *Controller) complete(gen uint64, key cache.Key, n *html.Node, translated string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		c.inFlight--
		if c.inFlight == 0 {
			c.idle.Broadcast()
		}
	}()

	if err != nil {
		c.cache.Abort(key)
		c.stats.Failed++
		c.logger.Debug("translation failed", zap.String("text", key.Text), zap.Error(err))
		return
	}

	translated = strings.TrimSpace(translated)
	if translated == "" || translated == key.Text {
		c.cache.Abort(key)
		return
	}

	if gen != c.generation || !c.enabled {
		// 状态已切换：结果仍然写入缓存，但不再标记片段
		c.cache.Commit(key, translated)
		c.stats.Stale++
		c.rescanDeferred(key)
		return
	}

	if !c.doc.IsConnected(n) {
		c.cache.Abort(key)
		c.rescanDeferred(key)
		return
	}

	c.cache.Commit(key, translated)
	c.apply(n, translated)
	c.rescanDeferred(key)
}

// rescanDeferred 如果有片段因为 key 被推迟，立即重新扫描，调用方必须持有 c.mu
func (c *Controller) rescanDeferred(key cache.Key) {
	if _, ok := c.deferred[key]; !ok {
		return
	}
	delete(c.deferred, key)
	c.scanLocked(c.ctx)
}

func (c *Controller) apply(n *html.Node, translated string) {
	marker.Mark(c.doc, n, translated)
	c.render.Attach(c.doc, n, translated)
	c.stats.Marked++
}
