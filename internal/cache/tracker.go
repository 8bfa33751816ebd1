// Package cache 提供有界的翻译缓存和在途请求去重
package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity 默认缓存容量
const DefaultCapacity = 500

// Key 缓存键：原文与目标语言
type Key struct {
	Text string
	Lang string
}

// Stats 缓存统计信息
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	Pending   int
	Evictions int64
}

// Tracker 翻译缓存与在途请求集合
//
// 缓存按插入顺序 FIFO 淘汰，命中不会刷新条目的淘汰顺序。
// 同一个键在 Reserve 与 Commit/Abort 之间只允许一个在途请求。
type Tracker struct {
	mu       sync.Mutex
	capacity int
	entries  map[Key]*list.Element
	order    *list.List // 队首为最早插入的条目
	pending  map[Key]struct{}
	stats    Stats
}

type entry struct {
	key   Key
	value string
}

// New 创建缓存，capacity <= 0 时使用 DefaultCapacity
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		entries:  make(map[Key]*list.Element, capacity),
		order:    list.New(),
		pending:  make(map[Key]struct{}),
	}
}

// Lookup 查询缓存
func (t *Tracker) Lookup(key Key) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.entries[key]
	if !ok {
		t.stats.Misses++
		return "", false
	}
	t.stats.Hits++
	return el.Value.(*entry).value, true
}

// Reserve 登记在途请求
//
// 键不在在途集合中时登记并返回 true；已在途时返回 false，调用方不应再发请求。
func (t *Tracker) Reserve(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.pending[key]; busy {
		return false
	}
	t.pending[key] = struct{}{}
	return true
}

// Commit 写入缓存并结束在途状态
//
// 缓存先于在途集合更新，满时淘汰最早插入的一条。已存在的条目保持不变。
func (t *Tracker) Commit(key Key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[key]; !exists {
		if t.order.Len() >= t.capacity {
			t.evictOldest()
		}
		t.entries[key] = t.order.PushBack(&entry{key: key, value: value})
	}
	delete(t.pending, key)
}

// Abort 结束在途状态，不写缓存
func (t *Tracker) Abort(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pending, key)
}

// Pending 键是否在途
func (t *Tracker) Pending(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.pending[key]
	return ok
}

// Len 当前缓存条目数
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.order.Len()
}

// Capacity 缓存容量
func (t *Tracker) Capacity() int {
	return t.capacity
}

// Stats 获取统计信息
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stats
	s.Size = t.order.Len()
	s.Pending = len(t.pending)
	return s
}

func (t *Tracker) evictOldest() {
	front := t.order.Front()
	if front == nil {
		return
	}
	t.order.Remove(front)
	delete(t.entries, front.Value.(*entry).key)
	t.stats.Evictions++
}
