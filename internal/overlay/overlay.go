// Package overlay 负责把译文显示到字幕片段上
package overlay

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
	"github.com/nerdneilsfield/go-subtitle-translator/internal/marker"
)

const (
	// ClassHasTranslation 已显示译文的片段 class
	ClassHasTranslation = "vst-has-translation"
	// StyleElementID 样式表节点 id
	StyleElementID = "vst-styles"
)

// Renderer 渲染协作方接口
type Renderer interface {
	// Attach 在片段上显示译文
	Attach(doc *dom.Document, n *html.Node, translated string)
	// Detach 移除片段上的译文显示
	Detach(doc *dom.Document, n *html.Node)
}

// ClassRenderer 通过 class 切换译文显示，译文内容由样式表从 data-vst-text 读取
type ClassRenderer struct{}

// Attach 添加 class
func (ClassRenderer) Attach(doc *dom.Document, n *html.Node, _ string) {
	doc.AddClass(n, ClassHasTranslation)
}

// Detach 移除 class
func (ClassRenderer) Detach(doc *dom.Document, n *html.Node) {
	doc.RemoveClass(n, ClassHasTranslation)
}

// NopRenderer 不产生任何视觉效果
type NopRenderer struct{}

func (NopRenderer) Attach(*dom.Document, *html.Node, string) {}
func (NopRenderer) Detach(*dom.Document, *html.Node)         {}

// Style 译文显示样式
type Style struct {
	FontSize     int
	Color        string
	ShowOriginal bool
}

// DefaultStyle 默认样式
func DefaultStyle() Style {
	return Style{
		FontSize:     16,
		Color:        "#ffeb3b",
		ShowOriginal: true,
	}
}

// Stylesheet 生成译文显示用的 CSS
func Stylesheet(s Style) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ".%s[%s]::after {\n", ClassHasTranslation, marker.AttrText)
	fmt.Fprintf(&sb, "  content: attr(%s);\n", marker.AttrText)
	sb.WriteString("  display: block;\n")
	fmt.Fprintf(&sb, "  color: %s;\n", s.Color)
	fmt.Fprintf(&sb, "  font-size: %dpx;\n", s.FontSize)
	sb.WriteString("  text-shadow: 1px 1px 2px rgba(0,0,0,0.9), -1px -1px 2px rgba(0,0,0,0.9);\n")
	sb.WriteString("  margin-top: 4px;\n")
	sb.WriteString("  line-height: 1.3;\n")
	sb.WriteString("}\n")
	if !s.ShowOriginal {
		fmt.Fprintf(&sb, ".%s { font-size: 0 !important; }\n", ClassHasTranslation)
	}
	return sb.String()
}

// InstallStyles 在 <head> 中创建或更新样式表节点
func InstallStyles(doc *dom.Document, s Style) *html.Node {
	css := Stylesheet(s)

	if existing := doc.Select("style#" + StyleElementID); len(existing) > 0 {
		doc.SetText(existing[0], css)
		return existing[0]
	}

	parent := doc.Head()
	if parent == nil {
		parent = doc.Body()
	}
	style := dom.CreateElement("style", "id", StyleElementID)
	style.AppendChild(dom.CreateText(css))
	doc.AppendChild(parent, style)
	return style
}
