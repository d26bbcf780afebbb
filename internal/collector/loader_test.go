package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockForecast/internal/model"
)

var (
	testStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)
	fastRetry = RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
)

// flakyFetcher fails the first n calls with err.
type flakyFetcher struct {
	MockFetcher
	failures int64
	err      error
	seen     atomic.Int64
}

func (f *flakyFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	if f.seen.Add(1) <= f.failures {
		return nil, f.err
	}
	return f.MockFetcher.FetchDailyBars(ctx, symbol, start, end)
}

func TestLoader_CachesPerTicker(t *testing.T) {
	mock := &MockFetcher{Price: 50}
	l := NewLoader(mock, []string{"HMY", "KOS"}, fastRetry, 0)

	first, err := l.Load(context.Background(), "HMY", testStart, testEnd)
	require.NoError(t, err)
	second, err := l.Load(context.Background(), "HMY", testStart, testEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mock.Calls(), "one provider call")
	assert.Same(t, first, second, "cache hit should return the same series")

	_, err = l.Load(context.Background(), "KOS", testStart, testEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mock.Calls(), "different ticker should miss")
}

func TestLoader_SortedWithoutDuplicates(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2023, 3, day, 15, 0, 0, 0, time.UTC) }
	mock := &MockFetcher{Bars: map[string][]model.PriceBar{
		"NL": {{Date: d(3), Close: 3}, {Date: d(1), Close: 1}, {Date: d(2), Close: 2}, {Date: d(1), Close: 1.5}},
	}}
	l := NewLoader(mock, []string{"NL"}, fastRetry, 0)
	s, err := l.Load(context.Background(), "NL", testStart, testEnd)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	for i := 1; i < s.Len(); i++ {
		assert.True(t, s.Bars[i-1].Date.Before(s.Bars[i].Date), "bars not strictly ascending at %d", i)
	}
	assert.Equal(t, 1.5, s.Bars[0].Close, "last duplicate wins")
}

func TestLoader_RejectsInvalidInput(t *testing.T) {
	l := NewLoader(&MockFetcher{}, []string{"HMY"}, fastRetry, 0)
	_, err := l.Load(context.Background(), "AAPL", testStart, testEnd)
	assert.ErrorIs(t, err, model.ErrInvalidRequest, "unknown ticker")
	_, err = l.Load(context.Background(), "HMY", testEnd, testStart)
	assert.ErrorIs(t, err, model.ErrInvalidRequest, "start after end")
}

func TestLoader_RetriesTemporaryFailures(t *testing.T) {
	f := &flakyFetcher{failures: 2, err: &StatusError{Provider: "test", Code: 503}}
	l := NewLoader(f, []string{"HMY"}, fastRetry, 0)
	s, err := l.Load(context.Background(), "HMY", testStart, testEnd)
	require.NoError(t, err, "expected success after retries")
	assert.False(t, s.Empty(), "expected bars after recovery")
	assert.EqualValues(t, 3, f.seen.Load(), "attempts")
}

func TestLoader_PermanentFailureIsDataUnavailable(t *testing.T) {
	f := &flakyFetcher{failures: 100, err: &StatusError{Provider: "test", Code: 401}}
	l := NewLoader(f, []string{"HMY"}, fastRetry, 0)
	_, err := l.Load(context.Background(), "HMY", testStart, testEnd)
	require.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.EqualValues(t, 1, f.seen.Load(), "401 must not be retried")
}

func TestLoader_ExhaustedRetries(t *testing.T) {
	f := &flakyFetcher{failures: 100, err: errors.New("connection reset")}
	l := NewLoader(f, []string{"HMY"}, fastRetry, 0)
	_, err := l.Load(context.Background(), "HMY", testStart, testEnd)
	require.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.EqualValues(t, fastRetry.MaxRetries+1, f.seen.Load(), "attempts")
}

func TestLoader_EmptyResultNotCached(t *testing.T) {
	mock := &MockFetcher{Missing: true}
	l := NewLoader(mock, []string{"JMIA"}, fastRetry, 0)
	for i := 0; i < 2; i++ {
		s, err := l.Load(context.Background(), "JMIA", testStart, testEnd)
		require.NoError(t, err)
		require.True(t, s.Empty(), "expected empty series")
	}
	assert.EqualValues(t, 2, mock.Calls(), "empty results should not be cached")
}

func TestLoader_TTLAndInvalidate(t *testing.T) {
	mock := &MockFetcher{}
	l := NewLoader(mock, []string{"SSL"}, fastRetry, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := l.Load(ctx, "SSL", testStart, testEnd)
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	_, err = l.Load(ctx, "SSL", testStart, testEnd)
	require.NoError(t, err)
	require.EqualValues(t, 1, mock.Calls(), "within TTL")

	now = now.Add(time.Hour)
	_, err = l.Load(ctx, "SSL", testStart, testEnd)
	require.NoError(t, err)
	require.EqualValues(t, 2, mock.Calls(), "after TTL")

	l.Invalidate("SSL")
	_, err = l.Load(ctx, "SSL", testStart, testEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, mock.Calls(), "after invalidate")
}

func TestLoader_Refresh(t *testing.T) {
	mock := &MockFetcher{Bars: map[string][]model.PriceBar{
		"DRD": {},
	}}
	l := NewLoader(mock, []string{"HMY", "DRD", "SBSW"}, fastRetry, 0)
	assert.Equal(t, 2, l.Refresh(context.Background(), testStart, testEnd), "tickers with data")

	calls := mock.Calls()
	_, err := l.Load(context.Background(), "HMY", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, calls, mock.Calls(), "refresh should pre-warm the cache")
}
