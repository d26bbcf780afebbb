package dashboard

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockForecast/internal/collector"
	"StockForecast/internal/config"
	"StockForecast/internal/forecast"
	"StockForecast/internal/model"
	"StockForecast/internal/recorder"
)

var today = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

type memRecorder struct {
	mu     sync.Mutex
	events []recorder.RunEvent
	err    error
}

func (m *memRecorder) RecordRun(evt *recorder.RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *evt)
	return m.err
}

func (m *memRecorder) RecentRuns(limit int) ([]recorder.RunEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recorder.RunEvent(nil), m.events...), nil
}

func (m *memRecorder) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("TICKERS", "HMY,KOS")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.App.StartDate = "2023-01-01"
	cfg.Model.Order = config.Order{P: 2, D: 1}
	cfg.App.DaysPerYear = 10
	require.NoError(t, cfg.Validate())
	return cfg
}

func newDashboard(t *testing.T, fetcher collector.Fetcher, rec recorder.Recorder) *Dashboard {
	cfg := testConfig(t)
	retry := collector.RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	loader := collector.NewLoader(fetcher, cfg.App.Tickers, retry, 0)
	fc := forecast.NewForecaster(forecast.Order{P: cfg.Model.Order.P, D: cfg.Model.Order.D}, time.Minute)
	d := New(cfg, loader, fc, rec)
	d.now = func() time.Time { return today }
	return d
}

// constantOpenBars returns bars whose open never moves while the other
// columns follow a random walk.
func constantOpenBars(n int) []model.PriceBar {
	rng := rand.New(rand.NewSource(7))
	bars := make([]model.PriceBar, n)
	price := 40.0
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price += rng.NormFloat64() * 0.5
		bars[i] = model.PriceBar{
			Date:  day.AddDate(0, 0, i),
			Open:  40,
			High:  price + 1 + math.Abs(rng.NormFloat64()),
			Low:   price - 1 - math.Abs(rng.NormFloat64()),
			Close: price,
		}
	}
	return bars
}

func TestRender_FullPipeline(t *testing.T) {
	rec := &memRecorder{}
	d := newDashboard(t, &collector.MockFetcher{Price: 30}, rec)

	vm, err := d.Render(context.Background(), "hmy", 2)
	require.NoError(t, err)

	assert.Equal(t, "HMY", vm.Ticker)
	assert.Equal(t, 20, vm.Horizon)
	assert.Len(t, vm.RawTail, 5)
	assert.Len(t, vm.ForecastTail, 5)
	require.Len(t, vm.Forecasts, len(model.ForecastColumns))
	for _, fc := range vm.Forecasts {
		assert.True(t, fc.Available, "column %s", fc.Column)
		assert.Len(t, fc.Values, 20)
	}
	assert.True(t, vm.Change.Available)
	assert.Contains(t, []string{"green", "red"}, vm.Change.Color)

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, vm.Rows, evt.Rows)
	assert.Len(t, evt.ColumnsOK, 4)
	assert.Empty(t, evt.ColumnsFailed)
	assert.Empty(t, evt.Error)
}

func TestRender_InvalidRequest(t *testing.T) {
	d := newDashboard(t, &collector.MockFetcher{}, nil)
	tests := []struct {
		name   string
		ticker string
		years  int
	}{
		{"years too small", "HMY", 0},
		{"years too large", "HMY", 5},
		{"unknown ticker", "AAPL", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Render(context.Background(), tt.ticker, tt.years)
			assert.ErrorIs(t, err, model.ErrInvalidRequest)
		})
	}
}

func TestRender_EmptyHistoryIsDataUnavailable(t *testing.T) {
	rec := &memRecorder{}
	d := newDashboard(t, &collector.MockFetcher{Missing: true}, rec)

	vm, err := d.Render(context.Background(), "KOS", 1)
	require.Error(t, err)
	assert.Nil(t, vm)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	require.Len(t, rec.events, 1)
	assert.NotEmpty(t, rec.events[0].Error)
}

func TestRender_ProviderOutageIsDataUnavailable(t *testing.T) {
	d := newDashboard(t, &collector.MockFetcher{Err: errors.New("connection refused")}, nil)
	_, err := d.Render(context.Background(), "KOS", 1)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestRender_ConstantColumnDoesNotAbort(t *testing.T) {
	rec := &memRecorder{}
	fetcher := &collector.MockFetcher{Bars: map[string][]model.PriceBar{"HMY": constantOpenBars(120)}}
	d := newDashboard(t, fetcher, rec)

	vm, err := d.Render(context.Background(), "HMY", 1)
	require.NoError(t, err)

	open, ok := vm.Forecast(model.ColumnOpen)
	require.True(t, ok)
	assert.False(t, open.Available)
	assert.NotEmpty(t, open.Error)

	for _, c := range []model.Column{model.ColumnClose, model.ColumnHigh, model.ColumnLow} {
		fc, ok := vm.Forecast(c)
		require.True(t, ok)
		assert.True(t, fc.Available, "column %s", c)
	}
	assert.True(t, vm.Change.Available)
	for _, row := range vm.ForecastTail {
		assert.Nil(t, row.Open)
		assert.NotNil(t, row.Close)
	}

	require.Len(t, rec.events, 1)
	assert.Equal(t, []string{"Open"}, rec.events[0].ColumnsFailed)
}

func TestRender_RecorderErrorIsLoggedOnly(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	d := newDashboard(t, &collector.MockFetcher{}, rec)
	_, err := d.Render(context.Background(), "HMY", 1)
	assert.NoError(t, err)
}

func TestView_DoesNotRecord(t *testing.T) {
	rec := &memRecorder{}
	d := newDashboard(t, &collector.MockFetcher{Price: 30}, rec)

	viewed, err := d.View(context.Background(), "HMY", 1)
	require.NoError(t, err)
	assert.Empty(t, rec.events)

	rendered, err := d.Render(context.Background(), "HMY", 1)
	require.NoError(t, err)
	assert.Len(t, rec.events, 1)
	assert.Equal(t, rendered.ForecastTail, viewed.ForecastTail)

	_, err = d.View(context.Background(), "KOS", 9)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}
