package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const playerPage = `<html><body>
<div class="ytp-caption-window-container">
  <div class="caption-window"><span class="ytp-caption-segment" id="yt">Hello</span></div>
</div>
<div class="vjs-text-track-cue"><span id="vjs">Goodbye</span></div>
<div class="comments"><span id="comment">Not a caption</span></div>
</body></html>`

func TestSelectorSource(t *testing.T) {
	doc := parse(t, playerPage)

	nodes := NewSelectorSource(nil).Fragments(doc)
	var ids []string
	for _, n := range nodes {
		id, _ := doc.Attr(n, "id")
		ids = append(ids, id)
	}
	// .ytp-caption-segment 和 .caption-window > span 匹配同一节点，只出现一次
	assert.Equal(t, []string{"yt", "vjs"}, ids)
}

func TestSelectorSourceCustom(t *testing.T) {
	doc := parse(t, playerPage)

	nodes := NewSelectorSource([]string{".comments > span"}).Fragments(doc)
	assert.Len(t, nodes, 1)
	assert.Empty(t, SelectorSource{}.Fragments(doc))
}
