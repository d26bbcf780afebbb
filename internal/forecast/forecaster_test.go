package forecast

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockForecast/internal/model"
)

func priceSeries(symbol string, closes []float64) *model.PriceSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Date:  start.AddDate(0, 0, i),
			Open:  c - 0.5,
			High:  c + 1,
			Low:   c - 1 - float64(i%3)*0.1,
			Close: c,
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}
}

func countingForecaster(calls *atomic.Int64) *Forecaster {
	f := NewForecaster(defaultOrder, time.Second)
	f.fit = func(v []float64, o Order) (*Model, error) {
		calls.Add(1)
		return Fit(v, o)
	}
	return f
}

func TestForecaster_SeriesShapeAndDates(t *testing.T) {
	series := priceSeries("HMY", arima110(400, 0.2, 9))
	f := NewForecaster(defaultOrder, time.Second)

	fs, err := f.Forecast(context.Background(), series, model.ColumnClose, 30)
	require.NoError(t, err)
	require.Len(t, fs.Points, 30)

	last, _ := series.Last()
	assert.Equal(t, last.Date.AddDate(0, 0, 1), fs.Points[0].Date)
	for i := 1; i < len(fs.Points); i++ {
		assert.Equal(t, fs.Points[i-1].Date.AddDate(0, 0, 1), fs.Points[i].Date)
	}
}

func TestForecaster_CachesFitPerSeriesAndColumn(t *testing.T) {
	var calls atomic.Int64
	f := countingForecaster(&calls)
	series := priceSeries("KOS", arima110(300, 0.1, 4))
	ctx := context.Background()

	_, err := f.Forecast(ctx, series, model.ColumnClose, 10)
	require.NoError(t, err)
	_, err = f.Forecast(ctx, series, model.ColumnClose, 365)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load(), "horizon change must not refit")

	_, err = f.Forecast(ctx, series, model.ColumnOpen, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	reloaded := priceSeries("KOS", arima110(300, 0.1, 4))
	reloaded.FetchedAt = series.FetchedAt.Add(time.Second)
	_, err = f.Forecast(ctx, reloaded, model.ColumnClose, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load(), "a new load must refit")
	assert.Len(t, f.cache, 1, "older loads of the same symbol are dropped")
}

func TestForecaster_TableIsolatesFailures(t *testing.T) {
	series := priceSeries("DRD", arima110(300, 0.3, 8))
	for i := range series.Bars {
		series.Bars[i].High = 50
	}
	f := NewForecaster(defaultOrder, time.Second)

	table := f.ForecastTable(context.Background(), series, 20)
	require.Len(t, table.Dates, 20)
	require.Len(t, table.Columns, 4)

	high := table.Columns[model.ColumnHigh]
	assert.False(t, high.OK())
	assert.ErrorIs(t, high.Err, model.ErrFitFailure)

	for _, c := range []model.Column{model.ColumnOpen, model.ColumnClose, model.ColumnLow} {
		fs, ok := table.Column(c)
		require.True(t, ok, "column %s should succeed", c)
		assert.Len(t, fs.Points, 20)
	}

	rows := table.Rows()
	require.Len(t, rows, 20)
	assert.Nil(t, rows[0].High)
	assert.NotNil(t, rows[0].Close)
}

func TestForecaster_Timeout(t *testing.T) {
	f := NewForecaster(defaultOrder, 10*time.Millisecond)
	f.fit = func(v []float64, o Order) (*Model, error) {
		time.Sleep(200 * time.Millisecond)
		return Fit(v, o)
	}
	_, err := f.Forecast(context.Background(), priceSeries("NL", arima110(200, 0.1, 1)), model.ColumnClose, 5)
	assert.ErrorIs(t, err, model.ErrFitFailure)
}

func TestForecaster_CachesFailures(t *testing.T) {
	var calls atomic.Int64
	f := NewForecaster(defaultOrder, 10*time.Millisecond)
	f.fit = func(v []float64, o Order) (*Model, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		return Fit(v, o)
	}
	series := priceSeries("NL", arima110(200, 0.1, 1))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.Forecast(ctx, series, model.ColumnClose, 5)
		assert.ErrorIs(t, err, model.ErrFitFailure)
	}
	assert.EqualValues(t, 1, calls.Load(), "a timed-out fit must not be retried on unchanged data")

	reloaded := priceSeries("NL", arima110(200, 0.1, 1))
	reloaded.FetchedAt = series.FetchedAt.Add(time.Second)
	_, err := f.Forecast(ctx, reloaded, model.ColumnClose, 5)
	assert.ErrorIs(t, err, model.ErrFitFailure)
	assert.EqualValues(t, 2, calls.Load(), "a new load must refit")
}

func TestForecaster_CancelledRequestIsNotCached(t *testing.T) {
	var calls atomic.Int64
	f := NewForecaster(defaultOrder, time.Second)
	f.fit = func(v []float64, o Order) (*Model, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return Fit(v, o)
	}
	series := priceSeries("IHS", arima110(200, 0.1, 2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Forecast(ctx, series, model.ColumnClose, 5)
	require.Error(t, err)

	_, err = f.Forecast(context.Background(), series, model.ColumnClose, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestForecaster_EmptySeries(t *testing.T) {
	f := NewForecaster(defaultOrder, time.Second)
	_, err := f.Forecast(context.Background(), &model.PriceSeries{Symbol: "SSL"}, model.ColumnClose, 5)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}
