package presenter

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"StockForecast/internal/model"
)

// column chart colors
var columnColors = map[model.Column]string{
	model.ColumnOpen:  "orange",
	model.ColumnClose: "green",
	model.ColumnHigh:  "red",
	model.ColumnLow:   "blue",
}

func newLine(title string, x []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(x)
	return line
}

// lineData pads values with pad leading gaps so series with different start
// dates can share one category axis.
func lineData(pad int, values []float64) []opts.LineData {
	out := make([]opts.LineData, 0, pad+len(values))
	for i := 0; i < pad; i++ {
		out = append(out, opts.LineData{Value: "-"})
	}
	for _, v := range values {
		out = append(out, opts.LineData{Value: v})
	}
	return out
}

func lineStyle(color, kind string) charts.SeriesOpts {
	return charts.WithLineStyleOpts(opts.LineStyle{Color: color, Type: kind})
}

// Charts builds the dashboard charts in display order: raw data, forecast
// overlay, then one chart per available forecast column.
func Charts(vm *ViewModel) []*charts.Line {
	if vm == nil || len(vm.History.Dates) == 0 {
		return nil
	}
	out := make([]*charts.Line, 0, 2+len(vm.Forecasts))

	raw := newLine("Time Series Data", vm.History.Dates)
	raw.AddSeries("Stock Open", lineData(0, vm.History.Open))
	raw.AddSeries("Stock Close", lineData(0, vm.History.Close))
	out = append(out, raw)

	if fc, ok := vm.Forecast(model.ColumnClose); ok && fc.Available {
		axis := append(append([]string(nil), vm.History.Dates...), fc.Dates...)
		overlay := newLine("Forecasted Data", axis)
		overlay.AddSeries("Actual Close Price", lineData(0, vm.History.Close), lineStyle("blue", "solid"))
		overlay.AddSeries("Forecasted Close Price", lineData(len(vm.History.Dates), fc.Values), lineStyle("green", "dotted"))
		out = append(out, overlay)
	}

	for _, fc := range vm.Forecasts {
		if !fc.Available {
			continue
		}
		name := "Forecasted " + string(fc.Column) + " Price"
		line := newLine(name, fc.Dates)
		line.AddSeries(name, lineData(0, fc.Values), lineStyle(columnColors[fc.Column], "solid"))
		out = append(out, line)
	}
	return out
}

// RenderCharts writes a self-contained HTML page with all charts of vm.
func RenderCharts(w io.Writer, vm *ViewModel) error {
	page := components.NewPage()
	if vm != nil {
		page.PageTitle = vm.Title
	}
	for _, c := range Charts(vm) {
		page.AddCharts(c)
	}
	return page.Render(w)
}
