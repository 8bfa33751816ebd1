package pipeline

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
)

// DefaultSelectors 常见网页播放器的字幕节点（YouTube、Netflix、Vimeo、Bilibili、Prime Video、Video.js 等）
var DefaultSelectors = []string{
	".ytp-caption-segment",
	".player-timedtext-text-container > span",
	".vp-captions > span",
	".captions-text",
	".bpx-player-subtitle-panel-text",
	".atvwebplayersdk-captions-text",
	".cue-container > span",
	".caption-window > span",
	".subtitle > span",
	".vjs-text-track-cue > span",
}

// FragmentSource 枚举当前文档中的字幕片段
type FragmentSource interface {
	Fragments(doc *dom.Document) []*html.Node
}

// SelectorSource 按 CSS 选择器枚举片段，结果按文档顺序去重
type SelectorSource struct {
	Selectors []string
}

// NewSelectorSource 创建选择器来源，为空时使用 DefaultSelectors
func NewSelectorSource(selectors []string) SelectorSource {
	if len(selectors) == 0 {
		selectors = DefaultSelectors
	}
	return SelectorSource{Selectors: append([]string(nil), selectors...)}
}

// Fragments 实现 FragmentSource
func (s SelectorSource) Fragments(doc *dom.Document) []*html.Node {
	if len(s.Selectors) == 0 {
		return nil
	}
	return doc.Select(strings.Join(s.Selectors, ", "))
}
