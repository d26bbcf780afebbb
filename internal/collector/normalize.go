package collector

import (
	"sort"
	"time"

	"StockForecast/internal/model"
)

// normalizeBars truncates dates to the calendar day, drops bars outside
// [start, end], sorts ascending and removes duplicate dates keeping the last one seen.
func normalizeBars(bars []model.PriceBar, start, end time.Time) []model.PriceBar {
	start, end = model.Day(start), model.Day(end)
	byDay := make(map[time.Time]model.PriceBar, len(bars))
	for _, b := range bars {
		b.Date = model.Day(b.Date)
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		byDay[b.Date] = b
	}
	out := make([]model.PriceBar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
