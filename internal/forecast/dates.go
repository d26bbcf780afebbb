package forecast

import (
	"time"

	"StockForecast/internal/model"
)

// DateAxis returns h consecutive calendar days starting the day after last.
func DateAxis(last time.Time, h int) []time.Time {
	if h < 1 {
		return nil
	}
	day := model.Day(last)
	out := make([]time.Time, h)
	for i := range out {
		out[i] = day.AddDate(0, 0, i+1)
	}
	return out
}
