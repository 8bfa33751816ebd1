package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

type fakeProvider struct {
	err error
}

func (f *fakeProvider) GetName() string { return "fake" }

func (f *fakeProvider) Translate(ctx context.Context, req *providers.ProviderRequest) (*providers.ProviderResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ProviderResponse{Text: "Xin chào", TokensIn: 3, TokensOut: 4}, nil
}

func TestStatisticsMiddlewareCountsRequests(t *testing.T) {
	inner := &fakeProvider{}
	mw := NewStatisticsMiddleware(inner, NewStatsManager(nil))
	assert.Equal(t, "fake", mw.GetName())

	resp, err := mw.Translate(context.Background(), &providers.ProviderRequest{Text: "Hello", TargetLanguage: "vi"})
	require.NoError(t, err)
	assert.Equal(t, "Xin chào", resp.Text)

	inner.err = providers.NewTransportError("fake", "boom", nil)
	_, err = mw.Translate(context.Background(), &providers.ProviderRequest{Text: "Hello", TargetLanguage: "vi"})
	require.Error(t, err)

	inner.err = context.DeadlineExceeded
	_, err = mw.Translate(context.Background(), &providers.ProviderRequest{Text: "Hello", TargetLanguage: "vi"})
	require.Error(t, err)

	stats := mw.Stats()
	assert.EqualValues(t, 3, stats.TotalRequests)
	assert.EqualValues(t, 1, stats.SuccessfulRequests)
	assert.EqualValues(t, 2, stats.FailedRequests)
	assert.EqualValues(t, 3, stats.TotalTokensIn)
	assert.EqualValues(t, 4, stats.TotalTokensOut)
	assert.Equal(t, map[string]int64{providers.ErrCodeTransport: 1, "timeout": 1}, stats.ErrorTypes)
	assert.InDelta(t, 33.3, stats.SuccessRate(), 0.1)
	assert.LessOrEqual(t, stats.MinLatency, stats.MaxLatency)
}

func TestStatsManagerSnapshots(t *testing.T) {
	sm := NewStatsManager(nil)
	assert.Zero(t, sm.GetStats("google").TotalRequests)
	assert.Zero(t, sm.GetStats("google").AverageLatency())

	sm.RecordRequest("openai", RequestResult{Success: false, ErrorType: "parse"})
	sm.RecordRequest("google", RequestResult{Success: true})

	all := sm.GetAllStats()
	require.Len(t, all, 2)
	assert.Equal(t, "google", all[0].ProviderName)
	assert.Equal(t, "openai", all[1].ProviderName)

	all[1].ErrorTypes["parse"] = 99
	assert.EqualValues(t, 1, sm.GetStats("openai").ErrorTypes["parse"])
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, providers.ErrCodeParse, classifyError(providers.NewParseError("x", "bad", nil)))
	assert.Equal(t, "canceled", classifyError(context.Canceled))
	assert.Equal(t, "unknown", classifyError(errors.New("other")))
}
