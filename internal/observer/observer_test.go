package observer

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
)

const page = `<html><head></head><body>
<div class="html5-video-player"><div class="caption-window"></div></div>
<div class="sidebar"></div>
</body></html>`

func parse(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestStartStopIdempotent(t *testing.T) {
	doc := parse(t)
	o := New(doc, nil, func() {})

	assert.False(t, o.Running())
	require.NoError(t, o.Start())
	require.NoError(t, o.Start())
	assert.True(t, o.Running())

	o.Stop()
	o.Stop()
	assert.False(t, o.Running())

	// 可以再次启动
	require.NoError(t, o.Start())
	o.Stop()
}

func TestMutationTriggersScan(t *testing.T) {
	doc := parse(t)
	var scans atomic.Int32
	o := New(doc, nil, func() { scans.Add(1) })
	require.NoError(t, o.Start())
	defer o.Stop()

	window := doc.Select(".caption-window")[0]
	doc.AppendChild(window, dom.CreateElement("span", "class", "ytp-caption-segment"))

	assert.Eventually(t, func() bool { return scans.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, o.Scans())
}

func TestAttributeChangesIgnored(t *testing.T) {
	doc := parse(t)
	var scans atomic.Int32
	o := New(doc, nil, func() { scans.Add(1) })
	require.NoError(t, o.Start())
	defer o.Stop()

	window := doc.Select(".caption-window")[0]
	doc.SetAttr(window, "data-vst-done", "1")
	doc.AddClass(window, "vst-has-translation")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, scans.Load())
	assert.Zero(t, o.Batches())
}

func TestMutationsOutsideRootIgnored(t *testing.T) {
	doc := parse(t)
	var scans atomic.Int32
	o := New(doc, doc.Select(".html5-video-player")[0], func() { scans.Add(1) })
	require.NoError(t, o.Start())
	defer o.Stop()

	doc.AppendChild(doc.Select(".sidebar")[0], dom.CreateText("related videos"))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, scans.Load())
}

func TestBurstCoalescesWhileScanRuns(t *testing.T) {
	doc := parse(t)
	entered := make(chan struct{}, 1)
	gate := make(chan struct{})
	var scans atomic.Int32

	o := New(doc, nil, func() {
		if scans.Add(1) == 1 {
			entered <- struct{}{}
			<-gate
		}
	})
	require.NoError(t, o.Start())
	defer o.Stop()

	window := doc.Select(".caption-window")[0]
	doc.AppendChild(window, dom.CreateElement("span"))

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first scan never started")
	}

	for i := 0; i < 50; i++ {
		doc.AppendChild(window, dom.CreateElement("span"))
	}
	require.Eventually(t, func() bool { return o.Records() == 51 }, 2*time.Second, 5*time.Millisecond)
	close(gate)

	require.Eventually(t, func() bool { return scans.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, scans.Load(), "fifty mutations during one scan fold into a single rescan")
}

func TestTrigger(t *testing.T) {
	doc := parse(t)
	var scans atomic.Int32
	o := New(doc, nil, func() { scans.Add(1) })

	o.Trigger()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, scans.Load(), "trigger before start is ignored")

	require.NoError(t, o.Start())
	defer o.Stop()

	o.Trigger()
	assert.Eventually(t, func() bool { return scans.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestStopWaitsForScan(t *testing.T) {
	doc := parse(t)
	entered := make(chan struct{})
	var finished atomic.Bool

	o := New(doc, nil, func() {
		close(entered)
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
	})
	require.NoError(t, o.Start())

	o.Trigger()
	<-entered
	o.Stop()
	assert.True(t, finished.Load())
}
