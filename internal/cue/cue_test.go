package cue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-subtitle-translator/internal/dom"
)

const sample = "\ufeff1\r\n00:00:01,000 --> 00:00:02,500\r\nHello\r\n\r\n" +
	"2\n00:00:03,000 --> 00:00:04,000\nGood morning everyone,\nwelcome back to the channel.\n\n\n" +
	"3\n00:00:04.500 --> 00:00:05.000\nGoodbye"

func TestParseSRT(t *testing.T) {
	cues, err := ParseSRT(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, cues, 3)

	assert.Equal(t, Cue{Index: 1, Start: time.Second, End: 2500 * time.Millisecond, Lines: []string{"Hello"}}, cues[0])
	assert.Equal(t, "Good morning everyone,\nwelcome back to the channel.", cues[1].Text())
	assert.Equal(t, time.Second, cues[1].Duration())
	assert.Equal(t, 3, cues[2].Index)
	assert.Equal(t, 4500*time.Millisecond, cues[2].Start)
	assert.Equal(t, []string{"Goodbye"}, cues[2].Lines)
}

func TestParseSRTErrors(t *testing.T) {
	_, err := ParseSRT(strings.NewReader("1\nnot a timestamp\nHello\n"))
	assert.Error(t, err)

	_, err = ParseSRT(strings.NewReader("1\n00:00:05,000 --> 00:00:01,000\nBackwards\n"))
	assert.Error(t, err)

	cues, err := ParseSRT(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cues)
}

func TestDetectLanguage(t *testing.T) {
	cues := []Cue{
		{Lines: []string{"The weather today is going to be sunny with a light breeze in the afternoon."}},
		{Lines: []string{"We should probably leave before the traffic gets really bad on the highway."}},
		{Lines: []string{"I have never seen anything like this before in my entire life, have you?"}},
	}
	assert.Equal(t, "en", DetectLanguage(cues))
	assert.Equal(t, "", DetectLanguage(nil))
}

const playerPage = `<html><body><div class="html5-video-player"><div class="caption-window"></div></div></body></html>`

func newPlayerDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(playerPage))
	require.NoError(t, err)
	return doc
}

func TestShowAndClear(t *testing.T) {
	doc := newPlayerDoc(t)
	window := doc.Select(".caption-window")[0]
	p := NewPlayer(doc, window)

	segs := p.Show(Cue{Lines: []string{"Good morning everyone,", "welcome back."}})
	require.Len(t, segs, 2)
	assert.Len(t, doc.Select(".caption-window > span.ytp-caption-segment"), 2)
	assert.Equal(t, "welcome back.", doc.TextContent(segs[1]))

	p.Clear()
	assert.Empty(t, doc.Select(".caption-window > span"))
	assert.False(t, doc.IsConnected(segs[0]))
}

func TestPlay(t *testing.T) {
	doc := newPlayerDoc(t)
	window := doc.Select(".caption-window")[0]

	var events []Event
	p := NewPlayer(doc, window,
		WithSpeed(1000),
		WithSegmentClass("captions-text"),
		WithCueHook(func(e Event) {
			events = append(events, e)
			assert.Len(t, doc.Select(".caption-window > .captions-text"), len(e.Cue.Lines))
		}))

	cues, err := ParseSRT(strings.NewReader(sample))
	require.NoError(t, err)
	require.NoError(t, p.Play(context.Background(), cues))

	require.Len(t, events, 3)
	assert.Equal(t, 1, events[1].Position)
	assert.Len(t, events[1].Segments, 2)
	assert.Empty(t, doc.Select(".caption-window > span"), "container cleared after the last cue")
}

func TestPlayCancelled(t *testing.T) {
	doc := newPlayerDoc(t)
	p := NewPlayer(doc, doc.Select(".caption-window")[0])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Play(ctx, []Cue{{Start: time.Hour, End: 2 * time.Hour, Lines: []string{"never"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
