package model

import "time"

// ForecastPoint is one projected value.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ForecastSeries is the projection of a single column. It has exactly
// horizon points on consecutive calendar days after the last history date.
type ForecastSeries struct {
	Column Column
	Points []ForecastPoint
}

// Last returns the final projected point.
func (f *ForecastSeries) Last() (ForecastPoint, bool) {
	if f == nil || len(f.Points) == 0 {
		return ForecastPoint{}, false
	}
	return f.Points[len(f.Points)-1], true
}

// Values returns the projected values without dates.
func (f *ForecastSeries) Values() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Value
	}
	return out
}

// ColumnForecast is the outcome of forecasting one column. Exactly one of
// Series and Err is set.
type ColumnForecast struct {
	Column Column
	Series *ForecastSeries
	Err    error
}

// OK reports whether the column produced a forecast.
func (c ColumnForecast) OK() bool { return c.Err == nil && c.Series != nil }

// ForecastTable joins the per-column forecasts on a shared date axis.
type ForecastTable struct {
	Symbol  string
	Horizon int
	Dates   []time.Time
	Columns map[Column]ColumnForecast
}

// Column returns the forecast of c, or false when it is missing or failed.
func (t *ForecastTable) Column(c Column) (*ForecastSeries, bool) {
	if t == nil {
		return nil, false
	}
	cf, ok := t.Columns[c]
	if !ok || !cf.OK() {
		return nil, false
	}
	return cf.Series, true
}

// ForecastRow is one joined row of the table. A nil value marks a column whose
// forecast is unavailable.
type ForecastRow struct {
	Date  time.Time
	Open  *float64
	Close *float64
	High  *float64
	Low   *float64
}

// Rows joins all columns on the date axis.
func (t *ForecastTable) Rows() []ForecastRow {
	rows := make([]ForecastRow, len(t.Dates))
	for i, d := range t.Dates {
		rows[i].Date = d
	}
	for _, c := range ForecastColumns {
		s, ok := t.Column(c)
		if !ok {
			continue
		}
		for i := range rows {
			if i >= len(s.Points) {
				break
			}
			v := s.Points[i].Value
			switch c {
			case ColumnOpen:
				rows[i].Open = &v
			case ColumnClose:
				rows[i].Close = &v
			case ColumnHigh:
				rows[i].High = &v
			case ColumnLow:
				rows[i].Low = &v
			}
		}
	}
	return rows
}
