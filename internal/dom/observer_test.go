package dom

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	mu      sync.Mutex
	batches [][]MutationRecord
	got     chan struct{}
}

func newRecordSink() *recordSink {
	return &recordSink{got: make(chan struct{}, 64)}
}

func (s *recordSink) callback(records []MutationRecord) {
	s.mu.Lock()
	s.batches = append(s.batches, records)
	s.mu.Unlock()
	s.got <- struct{}{}
}

func (s *recordSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func (s *recordSink) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mutation records")
	}
}

func TestObserverDeliversSubtreeMutations(t *testing.T) {
	doc := mustParse(t, playerPage)
	sink := newRecordSink()
	obs := NewMutationObserver(sink.callback)
	defer obs.Disconnect()

	require.NoError(t, obs.Observe(doc, doc.Body(), ObserveOptions{ChildList: true, CharacterData: true, Subtree: true}))

	seg := doc.Select(".ytp-caption-segment")[0]
	doc.SetText(seg, "Next cue")
	sink.wait(t)

	assert.Eventually(t, func() bool { return sink.total() >= 1 }, time.Second, 10*time.Millisecond)
	sink.mu.Lock()
	rec := sink.batches[0][0]
	sink.mu.Unlock()
	assert.Equal(t, MutationChildList, rec.Type)
	assert.Equal(t, seg, rec.Target)
}

func TestObserverIgnoresAttributesUnlessRequested(t *testing.T) {
	doc := mustParse(t, playerPage)
	sink := newRecordSink()
	obs := NewMutationObserver(sink.callback)
	defer obs.Disconnect()

	require.NoError(t, obs.Observe(doc, doc.Body(), ObserveOptions{ChildList: true, Subtree: true}))

	seg := doc.Select(".ytp-caption-segment")[0]
	doc.SetAttr(seg, "data-vst-done", "1")
	doc.AddClass(seg, "vst-has-translation")

	assert.Empty(t, obs.TakeRecords())
	assert.Never(t, func() bool { return sink.total() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestObserverOutsideTargetNotDelivered(t *testing.T) {
	doc := mustParse(t, playerPage)
	sink := newRecordSink()
	obs := NewMutationObserver(sink.callback)
	defer obs.Disconnect()

	window := doc.Select(".caption-window")[0]
	require.NoError(t, obs.Observe(doc, window, ObserveOptions{ChildList: true, Subtree: true}))

	doc.AppendChild(doc.Head(), CreateElement("style"))
	assert.Never(t, func() bool { return sink.total() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestObserverDisconnect(t *testing.T) {
	doc := mustParse(t, playerPage)
	sink := newRecordSink()
	obs := NewMutationObserver(sink.callback)

	require.NoError(t, obs.Observe(doc, doc.Body(), ObserveOptions{ChildList: true, Subtree: true}))
	obs.Disconnect()
	obs.Disconnect()

	select {
	case <-obs.Done():
	case <-time.After(time.Second):
		t.Fatal("delivery goroutine did not exit")
	}

	doc.SetText(doc.Select(".ytp-caption-segment")[0], "after disconnect")
	assert.Never(t, func() bool { return sink.total() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.ErrorIs(t, obs.Observe(doc, doc.Body(), ObserveOptions{ChildList: true}), ErrObserverDisconnected)
}

func TestObserverBatchesRecords(t *testing.T) {
	doc := mustParse(t, playerPage)

	block := make(chan struct{})
	var mu sync.Mutex
	var batches [][]MutationRecord
	first := make(chan struct{}, 1)
	obs := NewMutationObserver(func(records []MutationRecord) {
		mu.Lock()
		batches = append(batches, records)
		n := len(batches)
		mu.Unlock()
		if n == 1 {
			first <- struct{}{}
			<-block
		}
	})
	defer obs.Disconnect()
	require.NoError(t, obs.Observe(doc, doc.Body(), ObserveOptions{ChildList: true, CharacterData: true, Subtree: true}))

	seg := doc.Select(".ytp-caption-segment")[0]
	doc.SetText(seg, "one")
	<-first

	// 回调阻塞期间产生的记录会在下一次投递中一起送达
	for i := 0; i < 10; i++ {
		doc.SetText(seg, "more")
	}
	close(block)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		total := 0
		for _, b := range batches {
			total += len(b)
		}
		return total == 11
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, batches, 2)
}
