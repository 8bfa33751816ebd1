// Package observer 把文档变更折叠成扫描请求
package observer

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
)

// Option 观察器配置选项函数
type Option func(*Observer)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *Observer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Observer 监听子树的结构和文本变化，并在工作 goroutine 上调用 scan
//
// 每批变更记录只投递一个信号；信号通道容量为 1，扫描排队或执行期间到达的批次
// 合并进同一个待处理信号。
type Observer struct {
	doc    *dom.Document
	root   *html.Node
	scan   func()
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	mo      *dom.MutationObserver
	signal  chan struct{}
	stop    chan struct{}
	done    chan struct{}

	batches atomic.Int64
	records atomic.Int64
	scans   atomic.Int64
}

// New 创建观察器，root 为 nil 时观察 body
func New(doc *dom.Document, root *html.Node, scan func(), opts ...Option) *Observer {
	o := &Observer{
		doc:    doc,
		root:   root,
		scan:   scan,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.root == nil {
		o.root = doc.Body()
	}
	return o
}

// Start 开始观察，重复调用无副作用
func (o *Observer) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil
	}

	signal := make(chan struct{}, 1)
	mo := dom.NewMutationObserver(func(records []dom.MutationRecord) {
		o.batches.Add(1)
		o.records.Add(int64(len(records)))
		notify(signal)
	})
	err := mo.Observe(o.doc, o.root, dom.ObserveOptions{
		ChildList:     true,
		CharacterData: true,
		Subtree:       true,
	})
	if err != nil {
		return err
	}

	o.mo = mo
	o.signal = signal
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	o.running = true

	go o.run(o.signal, o.stop, o.done)

	o.logger.Debug("observer started")
	return nil
}

// Stop 停止观察并等待工作 goroutine 退出，重复调用无副作用
//
// 不要在 scan 回调内部调用 Stop。
func (o *Observer) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	mo, stop, done := o.mo, o.stop, o.done
	o.mo = nil
	o.mu.Unlock()

	mo.Disconnect()
	close(stop)
	<-done

	o.logger.Debug("observer stopped",
		zap.Int64("batches", o.batches.Load()),
		zap.Int64("scans", o.scans.Load()))
}

// Running 是否正在观察
func (o *Observer) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.running
}

// Trigger 手动请求一次扫描，与待处理的信号合并；未启动时忽略
func (o *Observer) Trigger() {
	o.mu.Lock()
	signal, running := o.signal, o.running
	o.mu.Unlock()

	if running {
		notify(signal)
	}
}

// Batches 已收到的变更批次数
func (o *Observer) Batches() int64 { return o.batches.Load() }

// Records 已收到的变更记录数
func (o *Observer) Records() int64 { return o.records.Load() }

// Scans 已执行的扫描次数
func (o *Observer) Scans() int64 { return o.scans.Load() }

func (o *Observer) run(signal <-chan struct{}, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case <-signal:
		}

		// 停止优先于排队的信号
		select {
		case <-stop:
			return
		default:
		}

		o.scans.Add(1)
		o.scan()
	}
}

func notify(signal chan<- struct{}) {
	select {
	case signal <- struct{}{}:
	default:
	}
}
