package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotChild 节点不是指定父节点的子节点
var ErrNotChild = errors.New("node is not a child of the given parent")

// Document 可变的 HTML 文档树
//
// 所有读写都通过 Document 的方法进行，方法内部持锁，可以被多个 goroutine 并发调用。
// 结构和属性变更会投递给已注册的 MutationObserver。
type Document struct {
	mu   sync.RWMutex
	root *html.Node

	regMu         sync.Mutex
	registrations []*registration
}

// Parse 解析 HTML 文档
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return NewDocument(root), nil
}

// NewDocument 用已有的节点树创建文档
func NewDocument(root *html.Node) *Document {
	return &Document{root: root}
}

// Root 返回文档根节点
func (d *Document) Root() *html.Node {
	return d.root
}

// Body 返回 <body> 元素，没有时返回根节点
func (d *Document) Body() *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n := findElement(d.root, atom.Body); n != nil {
		return n
	}
	return d.root
}

// Head 返回 <head> 元素，没有时返回 nil
func (d *Document) Head() *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return findElement(d.root, atom.Head)
}

// TextContent 返回节点及其子孙的全部文本
func (d *Document) TextContent(n *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var sb strings.Builder
	collectText(n, &sb)
	return sb.String()
}

// IsConnected 节点是否仍挂在文档根上
func (d *Document) IsConnected(n *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return isDescendant(d.root, n)
}

// Parent 返回父节点
func (d *Document) Parent(n *html.Node) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return n.Parent
}

// Attr 读取属性
func (d *Document) Attr(n *html.Node, key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return getAttr(n, key)
}

// HasAttr 是否存在属性
func (d *Document) HasAttr(n *html.Node, key string) bool {
	_, ok := d.Attr(n, key)
	return ok
}

// HasClass 是否包含 class
func (d *Document) HasClass(n *html.Node, class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, _ := getAttr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// AncestorWithAttr 返回最近的带有指定属性的祖先节点（不含自身）
func (d *Document) AncestorWithAttr(n *html.Node, key string) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for p := n.Parent; p != nil; p = p.Parent {
		if _, ok := getAttr(p, key); ok {
			return p
		}
	}
	return nil
}

// Select 在整个文档中按 CSS 选择器查找元素
func (d *Document) Select(selector string) []*html.Node {
	return d.SelectFrom(d.root, selector)
}

// SelectFrom 在子树中按 CSS 选择器查找元素，按文档顺序返回
func (d *Document) SelectFrom(n *html.Node, selector string) []*html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n == nil {
		return nil
	}
	nodes := goquery.NewDocumentFromNode(n).Find(selector).Nodes
	out := make([]*html.Node, len(nodes))
	copy(out, nodes)
	return out
}

// Render 将文档序列化为 HTML
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return html.Render(w, d.root)
}

// CreateElement 创建一个游离的元素节点，attrs 按 key, value 成对给出
func CreateElement(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// CreateText 创建一个游离的文本节点
func CreateText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// AppendChild 追加子节点，子节点原来有父节点时先摘下
func (d *Document) AppendChild(parent, child *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if old := child.Parent; old != nil {
		old.RemoveChild(child)
		d.enqueue(MutationRecord{Type: MutationChildList, Target: old, Removed: []*html.Node{child}})
	}
	parent.AppendChild(child)
	d.enqueue(MutationRecord{Type: MutationChildList, Target: parent, Added: []*html.Node{child}})
}

// RemoveChild 移除子节点
func (d *Document) RemoveChild(parent, child *html.Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if child.Parent != parent {
		return ErrNotChild
	}
	parent.RemoveChild(child)
	d.enqueue(MutationRecord{Type: MutationChildList, Target: parent, Removed: []*html.Node{child}})
	return nil
}

// ReplaceChildren 用新的子节点整体替换原有子节点，只产生一条变更记录
func (d *Document) ReplaceChildren(parent *html.Node, children ...*html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := detachChildren(parent)
	for _, c := range children {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.AppendChild(c)
	}
	d.enqueue(MutationRecord{Type: MutationChildList, Target: parent, Added: children, Removed: removed})
}

// SetText 设置文本
//
// 文本节点直接改写内容（characterData 变更）；元素节点的子节点被替换为单个文本节点。
func (d *Document) SetText(n *html.Node, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n.Type == html.TextNode {
		n.Data = text
		d.enqueue(MutationRecord{Type: MutationCharacterData, Target: n})
		return
	}

	removed := detachChildren(n)
	t := CreateText(text)
	n.AppendChild(t)
	d.enqueue(MutationRecord{Type: MutationChildList, Target: n, Added: []*html.Node{t}, Removed: removed})
}

// SetAttr 设置属性
func (d *Document) SetAttr(n *html.Node, key, val string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	setAttr(n, key, val)
	d.enqueue(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: key})
}

// RemoveAttr 删除属性
func (d *Document) RemoveAttr(n *html.Node, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if removeAttr(n, key) {
		d.enqueue(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: key})
	}
}

// AddClass 添加 class
func (d *Document) AddClass(n *html.Node, class string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, _ := getAttr(n, "class")
	fields := strings.Fields(v)
	for _, c := range fields {
		if c == class {
			return
		}
	}
	setAttr(n, "class", strings.Join(append(fields, class), " "))
	d.enqueue(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: "class"})
}

// RemoveClass 移除 class
func (d *Document) RemoveClass(n *html.Node, class string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := getAttr(n, "class")
	if !ok {
		return
	}
	fields := strings.Fields(v)
	kept := fields[:0]
	for _, c := range fields {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(fields) {
		return
	}
	if len(kept) == 0 {
		removeAttr(n, "class")
	} else {
		setAttr(n, "class", strings.Join(kept, " "))
	}
	d.enqueue(MutationRecord{Type: MutationAttributes, Target: n, AttributeName: "class"})
}

func detachChildren(n *html.Node) []*html.Node {
	var removed []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	return removed
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// isDescendant 判断 n 是否是 root 本身或其子孙
func isDescendant(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) bool {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}
