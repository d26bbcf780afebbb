package presenter

import (
	"errors"

	"github.com/shopspring/decimal"

	"StockForecast/internal/calculator"
	"StockForecast/internal/model"
)

// Indicator colors.
const (
	ColorGain = "green"
	ColorLoss = "red"
	ColorNA   = "gray"
)

// Indicator is the gain/loss display comparing the last historical close to
// the last forecasted close.
type Indicator struct {
	Available bool    `json:"available"`
	Percent   float64 `json:"percent"`
	Text      string  `json:"text"`
	Color     string  `json:"color"`
	Reason    string  `json:"reason,omitempty"`
}

func unavailable(reason string) Indicator {
	return Indicator{Text: "N/A", Color: ColorNA, Reason: reason}
}

// Change computes the indicator for a move from lastClose to forecastClose.
func Change(lastClose, forecastClose float64) Indicator {
	pct, err := calculator.PercentChange(lastClose, forecastClose)
	if err != nil {
		if errors.Is(err, model.ErrDivideByZero) {
			return unavailable("last close is zero")
		}
		return unavailable(err.Error())
	}
	// color follows the displayed value so that "0.00%" is never red
	shown := decimal.NewFromFloat(pct).Round(2)
	color := ColorGain
	if shown.IsNegative() {
		color = ColorLoss
	}
	return Indicator{
		Available: true,
		Percent:   pct,
		Text:      shown.StringFixed(2) + "%",
		Color:     color,
	}
}

// ChangeFromTable derives the indicator from the close column.
func ChangeFromTable(series *model.PriceSeries, table *model.ForecastTable) Indicator {
	last, ok := series.Last()
	if !ok {
		return unavailable("no history")
	}
	fs, ok := table.Column(model.ColumnClose)
	if !ok {
		return unavailable("close forecast unavailable")
	}
	p, _ := fs.Last()
	return Change(last.Close, p.Value)
}
