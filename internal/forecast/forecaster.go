package forecast

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"StockForecast/internal/model"
)

type fitKey struct {
	symbol string
	series string
	column model.Column
}

// fitResult is a memoized fit outcome. A failed fit is kept as well so that
// unchanged data is never refitted.
type fitResult struct {
	m   *Model
	err error
}

// Forecaster fits one model per (series, column) and memoizes the outcome, so
// repeated renders with unchanged data only re-project the horizon.
type Forecaster struct {
	Order   Order
	Timeout time.Duration
	// Parallel limits how many columns are fitted at once.
	Parallel int

	fit   func([]float64, Order) (*Model, error)
	mu    sync.RWMutex
	cache map[fitKey]fitResult
	group singleflight.Group
}

// NewForecaster creates a new Forecaster.
func NewForecaster(order Order, timeout time.Duration) *Forecaster {
	return &Forecaster{
		Order:    order,
		Timeout:  timeout,
		Parallel: len(model.ForecastColumns),
		fit:      Fit,
		cache:    make(map[fitKey]fitResult),
	}
}

// Forecast projects column c of series h days ahead.
func (f *Forecaster) Forecast(ctx context.Context, series *model.PriceSeries, c model.Column, h int) (*model.ForecastSeries, error) {
	if h < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1, got %d", model.ErrInvalidRequest, h)
	}
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("forecast %s: %w", c, model.ErrDataUnavailable)
	}
	m, err := f.model(ctx, series, c)
	if err != nil {
		return nil, err
	}
	values, err := m.Forecast(h)
	if err != nil {
		return nil, fmt.Errorf("forecast %s %s: %w", series.Symbol, c, err)
	}
	dates := DateAxis(last.Date, h)
	fs := &model.ForecastSeries{Column: c, Points: make([]model.ForecastPoint, h)}
	for i := range values {
		fs.Points[i] = model.ForecastPoint{Date: dates[i], Value: values[i]}
	}
	return fs, nil
}

// ForecastTable forecasts every column independently. A failing column is
// recorded in the table and does not affect the others.
func (f *Forecaster) ForecastTable(ctx context.Context, series *model.PriceSeries, h int) *model.ForecastTable {
	table := &model.ForecastTable{
		Symbol:  series.Symbol,
		Horizon: h,
		Columns: make(map[model.Column]model.ColumnForecast, len(model.ForecastColumns)),
	}
	if last, ok := series.Last(); ok {
		table.Dates = DateAxis(last.Date, h)
	}

	var mu sync.Mutex
	var g errgroup.Group
	if f.Parallel > 0 {
		g.SetLimit(f.Parallel)
	}
	for _, c := range model.ForecastColumns {
		c := c
		g.Go(func() error {
			fs, err := f.Forecast(ctx, series, c, h)
			if err != nil {
				log.Printf("[WARN] %s %s forecast unavailable: %v", series.Symbol, c, err)
			}
			mu.Lock()
			table.Columns[c] = model.ColumnForecast{Column: c, Series: fs, Err: err}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return table
}

func (f *Forecaster) model(ctx context.Context, series *model.PriceSeries, c model.Column) (*Model, error) {
	key := fitKey{symbol: series.Symbol, series: series.ID(), column: c}
	f.mu.RLock()
	r, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		if r.err != nil {
			return nil, fmt.Errorf("fit %s %s: %w", series.Symbol, c, r.err)
		}
		return r.m, nil
	}

	v, err, _ := f.group.Do(fmt.Sprintf("%s|%s", key.series, c), func() (interface{}, error) {
		values, err := series.Values(c)
		if err != nil {
			return nil, err
		}
		m, err := f.fitWithTimeout(ctx, values)
		if err != nil {
			// a cancelled request says nothing about the data
			if ctx.Err() == nil {
				f.store(key, fitResult{err: err})
			}
			return nil, err
		}
		f.store(key, fitResult{m: m})
		log.Printf("[INFO] fitted %s %s %s on %d obs (sigma2=%.4g, aic=%.1f, stationary=%t)",
			series.Symbol, c, m.Order, m.NObs, m.Sigma2, m.AIC, m.Stationary)
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fit %s %s: %w", series.Symbol, c, err)
	}
	return v.(*Model), nil
}

// store caches r and drops fits of older loads of the same symbol.
func (f *Forecaster) store(key fitKey, r fitResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.cache {
		if k.symbol == key.symbol && k.series != key.series {
			delete(f.cache, k)
		}
	}
	f.cache[key] = r
}

// fitWithTimeout bounds the fit by f.Timeout. The estimator cannot be
// interrupted, so a fit that overruns finishes in the background and its
// result is discarded.
func (f *Forecaster) fitWithTimeout(ctx context.Context, values []float64) (*Model, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	ch := make(chan fitResult, 1)
	go func() {
		m, err := f.fit(values, f.Order)
		ch <- fitResult{m, err}
	}()
	select {
	case r := <-ch:
		return r.m, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", model.ErrFitFailure, ctx.Err())
	}
}
