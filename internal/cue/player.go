package cue

import (
	"context"
	"time"

	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
)

// DefaultSegmentClass 播放器为每行字幕生成的节点类名
const DefaultSegmentClass = "ytp-caption-segment"

// Event 一条字幕显示后的回调参数
type Event struct {
	Position int // 在字幕列表中的位置
	Cue      Cue
	Segments []*html.Node
}

// PlayerOption 播放器配置选项函数
type PlayerOption func(*Player)

// WithSpeed 设置播放倍速，<= 0 时忽略
func WithSpeed(speed float64) PlayerOption {
	return func(p *Player) {
		if speed > 0 {
			p.speed = speed
		}
	}
}

// WithSegmentClass 设置字幕行节点的类名
func WithSegmentClass(class string) PlayerOption {
	return func(p *Player) {
		if class != "" {
			p.segmentClass = class
		}
	}
}

// WithCueHook 每条字幕显示后调用，在播放 goroutine 上同步执行
func WithCueHook(hook func(Event)) PlayerOption {
	return func(p *Player) {
		p.onCue = hook
	}
}

// Player 把字幕逐条写入字幕容器，模拟网页播放器对文档的持续修改
type Player struct {
	doc          *dom.Document
	container    *html.Node
	speed        float64
	segmentClass string
	onCue        func(Event)
}

// NewPlayer 创建播放器
func NewPlayer(doc *dom.Document, container *html.Node, opts ...PlayerOption) *Player {
	p := &Player{
		doc:          doc,
		container:    container,
		speed:        1,
		segmentClass: DefaultSegmentClass,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Show 用新的字幕行节点替换容器内容
func (p *Player) Show(c Cue) []*html.Node {
	segments := make([]*html.Node, 0, len(c.Lines))
	for _, line := range c.Lines {
		seg := dom.CreateElement("span", "class", p.segmentClass)
		seg.AppendChild(dom.CreateText(line))
		segments = append(segments, seg)
	}
	p.doc.ReplaceChildren(p.container, segments...)
	return segments
}

// Clear 清空字幕容器
func (p *Player) Clear() {
	p.doc.ReplaceChildren(p.container)
}

// Play 按时间轴播放字幕，ctx 取消时返回 ctx.Err()
func (p *Player) Play(ctx context.Context, cues []Cue) error {
	begin := time.Now()

	for i, c := range cues {
		if err := p.sleepUntil(ctx, begin, c.Start); err != nil {
			return err
		}

		segments := p.Show(c)
		if p.onCue != nil {
			p.onCue(Event{Position: i, Cue: c, Segments: segments})
		}

		if err := p.sleepUntil(ctx, begin, c.End); err != nil {
			return err
		}
		p.Clear()
	}
	return nil
}

// sleepUntil 等待到（按倍速缩放后的）时间点 at
func (p *Player) sleepUntil(ctx context.Context, begin time.Time, at time.Duration) error {
	wait := time.Until(begin.Add(time.Duration(float64(at) / p.speed)))
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
