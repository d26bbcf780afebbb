package presenter

import (
	"time"

	"StockForecast/internal/model"
)

// TailRows is the number of rows shown in the tabular previews.
const TailRows = 5

const dateLayout = "2006-01-02"

// BarRow is one row of the raw data preview.
type BarRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// ForecastRow is one row of the forecast preview. Nil marks an unavailable column.
type ForecastRow struct {
	Date  string   `json:"date"`
	Open  *float64 `json:"open"`
	Close *float64 `json:"close"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
}

// History is the raw time series shown in the charts.
type History struct {
	Dates []string  `json:"dates"`
	Open  []float64 `json:"open"`
	High  []float64 `json:"high"`
	Low   []float64 `json:"low"`
	Close []float64 `json:"close"`
}

// ColumnForecast is the chart data of one forecast column.
type ColumnForecast struct {
	Column    model.Column `json:"column"`
	Available bool         `json:"available"`
	Error     string       `json:"error,omitempty"`
	Dates     []string     `json:"dates,omitempty"`
	Values    []float64    `json:"values,omitempty"`
}

// ViewModel is everything the rendering surface needs for one request.
type ViewModel struct {
	Title        string           `json:"title"`
	Ticker       string           `json:"ticker"`
	Years        int              `json:"years"`
	Horizon      int              `json:"horizon"`
	Rows         int              `json:"rows"`
	RawTail      []BarRow         `json:"raw_tail"`
	ForecastTail []ForecastRow    `json:"forecast_tail"`
	History      History          `json:"history"`
	Forecasts    []ColumnForecast `json:"forecasts"`
	Change       Indicator        `json:"change"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// Forecast returns the chart data of column c.
func (vm *ViewModel) Forecast(c model.Column) (ColumnForecast, bool) {
	for _, f := range vm.Forecasts {
		if f.Column == c {
			return f, true
		}
	}
	return ColumnForecast{}, false
}

// Build assembles the view model from a loaded series and its forecasts.
func Build(title string, series *model.PriceSeries, table *model.ForecastTable, years int) *ViewModel {
	vm := &ViewModel{
		Title:       title,
		Ticker:      series.Symbol,
		Years:       years,
		Horizon:     table.Horizon,
		Rows:        series.Len(),
		GeneratedAt: time.Now(),
	}

	for _, b := range series.Tail(TailRows) {
		vm.RawTail = append(vm.RawTail, BarRow{
			Date: b.Date.Format(dateLayout), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}

	rows := table.Rows()
	if len(rows) > TailRows {
		rows = rows[len(rows)-TailRows:]
	}
	for _, r := range rows {
		vm.ForecastTail = append(vm.ForecastTail, ForecastRow{
			Date: r.Date.Format(dateLayout), Open: r.Open, Close: r.Close, High: r.High, Low: r.Low,
		})
	}

	h := History{
		Dates: make([]string, series.Len()),
		Open:  make([]float64, series.Len()),
		High:  make([]float64, series.Len()),
		Low:   make([]float64, series.Len()),
		Close: make([]float64, series.Len()),
	}
	for i, b := range series.Bars {
		h.Dates[i] = b.Date.Format(dateLayout)
		h.Open[i], h.High[i], h.Low[i], h.Close[i] = b.Open, b.High, b.Low, b.Close
	}
	vm.History = h

	for _, c := range model.ForecastColumns {
		cf := ColumnForecast{Column: c}
		if fs, ok := table.Column(c); ok {
			cf.Available = true
			cf.Dates = make([]string, len(fs.Points))
			cf.Values = fs.Values()
			for i, p := range fs.Points {
				cf.Dates[i] = p.Date.Format(dateLayout)
			}
		} else if res, ok := table.Columns[c]; ok && res.Err != nil {
			cf.Error = res.Err.Error()
		} else {
			cf.Error = model.ErrFitFailure.Error()
		}
		vm.Forecasts = append(vm.Forecasts, cf)
	}

	vm.Change = ChangeFromTable(series, table)
	return vm
}
