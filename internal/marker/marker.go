// Package marker 在字幕片段节点上记录处理状态
package marker

import (
	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
)

const (
	// AttrDone 已处理标记
	AttrDone = "data-vst-done"
	// AttrText 附加的译文
	AttrText = "data-vst-text"
)

// IsMarked 片段是否已处理
func IsMarked(doc *dom.Document, n *html.Node) bool {
	return doc.HasAttr(n, AttrDone)
}

// HasMarkedAncestor 是否存在已处理的祖先节点
func HasMarkedAncestor(doc *dom.Document, n *html.Node) bool {
	return doc.AncestorWithAttr(n, AttrDone) != nil
}

// Mark 标记片段并附加译文，重复标记不会出错
func Mark(doc *dom.Document, n *html.Node, translated string) {
	if IsMarked(doc, n) {
		return
	}
	doc.SetAttr(n, AttrText, translated)
	doc.SetAttr(n, AttrDone, "1")
}

// Unmark 清除标记和译文
func Unmark(doc *dom.Document, n *html.Node) {
	doc.RemoveAttr(n, AttrDone)
	doc.RemoveAttr(n, AttrText)
}

// Translation 读取附加的译文
func Translation(doc *dom.Document, n *html.Node) (string, bool) {
	if !IsMarked(doc, n) {
		return "", false
	}
	return doc.Attr(n, AttrText)
}

// Marked 返回文档中所有已处理的片段
func Marked(doc *dom.Document) []*html.Node {
	return doc.Select("[" + AttrDone + "]")
}
