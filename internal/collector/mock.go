package collector

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"StockForecast/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols present in Bars are served from the map; others get a generated
// deterministic weekday series around Price unless Missing is set.
type MockFetcher struct {
	Price   float64
	Bars    map[string][]model.PriceBar
	Missing bool
	Err     error

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchDailyBars has been invoked.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return normalizeBars(bars, start, end), nil
	}
	if m.Missing {
		return nil, nil
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	return generateMockBars(price, start, end), nil
}

// generateMockBars produces one bar per weekday in [start, end]: a slow
// cycle plus a seeded random walk, so repeated calls return the same bars.
func generateMockBars(basePrice float64, start, end time.Time) []model.PriceBar {
	var bars []model.PriceBar
	rng := rand.New(rand.NewSource(model.Day(start).Unix()))
	walk := 0.0
	i := 0
	for d := model.Day(start); !d.After(model.Day(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		walk += rng.NormFloat64() * 0.004
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/15) + float64(i)*0.0002 + walk)
		bars = append(bars, model.PriceBar{
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
