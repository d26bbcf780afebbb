package collector

import (
	"context"
	"fmt"
	"time"

	"StockForecast/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
// An unknown symbol or a range without trading yields no bars and no error.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error)
	Name() string
}

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Provider, e.Code, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == 429 || e.Code >= 500
}
