package dom

import (
	"errors"
	"sync"

	"golang.org/x/net/html"
)

// MutationType 变更类型
type MutationType int

const (
	MutationChildList     MutationType = iota // 子节点增删
	MutationCharacterData                     // 文本节点内容变化
	MutationAttributes                        // 属性变化
)

// String 返回变更类型名称
func (t MutationType) String() string {
	switch t {
	case MutationChildList:
		return "childList"
	case MutationCharacterData:
		return "characterData"
	case MutationAttributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// MutationRecord 一条变更记录
type MutationRecord struct {
	Type          MutationType
	Target        *html.Node
	AttributeName string
	Added         []*html.Node
	Removed       []*html.Node
}

// ObserveOptions 观察选项
type ObserveOptions struct {
	ChildList     bool
	CharacterData bool
	Attributes    bool
	Subtree       bool
}

// ErrObserverDisconnected 观察器已断开
var ErrObserverDisconnected = errors.New("mutation observer is disconnected")

type registration struct {
	observer *MutationObserver
	target   *html.Node
	opts     ObserveOptions
}

func (r *registration) matches(rec MutationRecord) bool {
	switch rec.Type {
	case MutationChildList:
		if !r.opts.ChildList {
			return false
		}
	case MutationCharacterData:
		if !r.opts.CharacterData {
			return false
		}
	case MutationAttributes:
		if !r.opts.Attributes {
			return false
		}
	}
	if rec.Target == r.target {
		return true
	}
	return r.opts.Subtree && isDescendant(r.target, rec.Target)
}

// MutationObserver 文档变更观察器
//
// 变更记录先进入队列，再由观察器自己的 goroutine 异步投递；
// 一次投递会带走投递前积压的全部记录，所以回调收到的是一批记录。
type MutationObserver struct {
	callback func([]MutationRecord)

	mu       sync.Mutex
	queue    []MutationRecord
	docs     map[*Document]struct{}
	wake     chan struct{}
	done     chan struct{}
	stopped  bool
	started  bool
	finished chan struct{}
}

// NewMutationObserver 创建观察器
func NewMutationObserver(callback func([]MutationRecord)) *MutationObserver {
	return &MutationObserver{
		callback: callback,
		docs:     make(map[*Document]struct{}),
	}
}

// Observe 开始观察 target，可以多次调用以观察多个目标
func (o *MutationObserver) Observe(doc *Document, target *html.Node, opts ObserveOptions) error {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return ErrObserverDisconnected
	}
	if !o.started {
		o.started = true
		o.wake = make(chan struct{}, 1)
		o.done = make(chan struct{})
		o.finished = make(chan struct{})
		go o.deliver()
	}
	o.docs[doc] = struct{}{}
	o.mu.Unlock()

	doc.register(&registration{observer: o, target: target, opts: opts})
	return nil
}

// Disconnect 停止观察并丢弃尚未投递的记录
//
// 返回后不会再有新的回调开始执行。不要在回调内部调用 Disconnect 后再等待回调结束。
func (o *MutationObserver) Disconnect() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.queue = nil
	docs := o.docs
	o.docs = nil
	started := o.started
	o.mu.Unlock()

	for doc := range docs {
		doc.unregister(o)
	}
	if started {
		close(o.done)
	}
}

// TakeRecords 取走队列中尚未投递的记录
func (o *MutationObserver) TakeRecords() []MutationRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	records := o.queue
	o.queue = nil
	return records
}

// Done 投递 goroutine 退出后关闭；从未 Observe 过的观察器返回 nil
func (o *MutationObserver) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.finished
}

func (o *MutationObserver) push(rec MutationRecord) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, rec)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *MutationObserver) deliver() {
	defer close(o.finished)

	for {
		select {
		case <-o.done:
			return
		case <-o.wake:
		}

		o.mu.Lock()
		if o.stopped {
			o.mu.Unlock()
			return
		}
		batch := o.queue
		o.queue = nil
		o.mu.Unlock()

		if len(batch) > 0 {
			o.callback(batch)
		}
	}
}

func (d *Document) register(r *registration) {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	d.registrations = append(d.registrations, r)
}

func (d *Document) unregister(o *MutationObserver) {
	d.regMu.Lock()
	defer d.regMu.Unlock()

	kept := d.registrations[:0]
	for _, r := range d.registrations {
		if r.observer != o {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(d.registrations); i++ {
		d.registrations[i] = nil
	}
	d.registrations = kept
}

// enqueue 把记录分发给匹配的观察器，调用方必须持有 d.mu
func (d *Document) enqueue(rec MutationRecord) {
	d.regMu.Lock()
	var targets []*MutationObserver
	for _, r := range d.registrations {
		if r.matches(rec) {
			targets = append(targets, r.observer)
		}
	}
	d.regMu.Unlock()

	seen := make(map[*MutationObserver]struct{}, len(targets))
	for _, o := range targets {
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		o.push(rec)
	}
}
