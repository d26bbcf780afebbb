package model

import (
	"fmt"
	"time"
)

// Column names one of the four price points of a daily bar.
type Column string

const (
	ColumnOpen  Column = "Open"
	ColumnHigh  Column = "High"
	ColumnLow   Column = "Low"
	ColumnClose Column = "Close"
)

// ForecastColumns is the order in which columns are fitted and displayed.
var ForecastColumns = []Column{ColumnOpen, ColumnClose, ColumnHigh, ColumnLow}

// PriceBar is a single daily OHLC record. Date is midnight UTC of the trading day.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Value returns the bar's price for the given column.
func (b PriceBar) Value(c Column) (float64, error) {
	switch c {
	case ColumnOpen:
		return b.Open, nil
	case ColumnHigh:
		return b.High, nil
	case ColumnLow:
		return b.Low, nil
	case ColumnClose:
		return b.Close, nil
	default:
		return 0, fmt.Errorf("unknown column %q", c)
	}
}

// PriceSeries holds the daily bars of one ticker ordered by ascending date.
// A loaded series is never mutated; a new one is built on reload.
type PriceSeries struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	Bars      []PriceBar
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series holds no bars.
func (s *PriceSeries) Empty() bool { return s.Len() == 0 }

// ID identifies this particular load of the series. Two loads of the same
// ticker have different IDs.
func (s *PriceSeries) ID() string {
	return fmt.Sprintf("%s/%d/%d", s.Symbol, s.FetchedAt.UnixNano(), len(s.Bars))
}

// Last returns the most recent bar.
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s.Empty() {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Values extracts one column as a plain slice.
func (s *PriceSeries) Values(c Column) ([]float64, error) {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		v, err := b.Value(c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dates returns the date axis of the series.
func (s *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

// Tail returns up to n most recent bars.
func (s *PriceSeries) Tail(n int) []PriceBar {
	if n <= 0 || s.Empty() {
		return nil
	}
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	return s.Bars[len(s.Bars)-n:]
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
