package server

import (
	"html/template"
	"net/url"
	"strconv"

	"StockForecast/internal/presenter"
)

type pageData struct {
	Title    string
	Tickers  []string
	Ticker   string
	Years    int
	MinYears int
	MaxYears int
	View     *presenter.ViewModel
	Message  string
}

// ChartsURL is the chart page of the current selection.
func (p pageData) ChartsURL() string {
	q := url.Values{}
	q.Set("ticker", p.Ticker)
	q.Set("years", strconv.Itoa(p.Years))
	return "/charts?" + q.Encode()
}

var pageFuncs = template.FuncMap{
	"price": func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) },
	"optPrice": func(v *float64) string {
		if v == nil {
			return "N/A"
		}
		return strconv.FormatFloat(*v, 'f', 4, 64)
	},
	"volume": func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) },
}

var pageTemplate = template.Must(template.New("page").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ddd; padding: 4px 10px; text-align: right; }
.message { padding: 1em; background: #fdecea; color: #611a15; }
.change { font-size: 1.6em; font-weight: bold; }
.unavailable { color: gray; }
iframe { border: none; width: 100%; height: 2600px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="get" action="/">
  <label>Select dataset for prediction
    <select name="ticker" onchange="this.form.submit()">
    {{- range .Tickers}}
      <option value="{{.}}"{{if eq . $.Ticker}} selected{{end}}>{{.}}</option>
    {{- end}}
    </select>
  </label>
  <label>Years of prediction: <output id="years-out">{{.Years}}</output>
    <input type="range" name="years" min="{{.MinYears}}" max="{{.MaxYears}}" value="{{.Years}}"
      oninput="document.getElementById('years-out').value = this.value" onchange="this.form.submit()">
  </label>
  <noscript><button type="submit">Run</button></noscript>
</form>
{{if .Message}}
<p class="message">{{.Message}}</p>
{{end}}
{{with .View}}
<h2>Raw data</h2>
<table>
<tr><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Volume</th></tr>
{{- range .RawTail}}
<tr><td>{{.Date}}</td><td>{{price .Open}}</td><td>{{price .High}}</td><td>{{price .Low}}</td><td>{{price .Close}}</td><td>{{volume .Volume}}</td></tr>
{{- end}}
</table>
<h2>Forecast data</h2>
<table>
<tr><th>Date</th><th>Open</th><th>Close</th><th>High</th><th>Low</th></tr>
{{- range .ForecastTail}}
<tr><td>{{.Date}}</td><td>{{optPrice .Open}}</td><td>{{optPrice .Close}}</td><td>{{optPrice .High}}</td><td>{{optPrice .Low}}</td></tr>
{{- end}}
</table>
{{- range .Forecasts}}{{if not .Available}}
<p class="unavailable">{{.Column}} forecast unavailable: {{.Error}}</p>
{{- end}}{{end}}
<h2>Predicted change in close price</h2>
<p class="change" style="color: {{.Change.Color}}">{{.Change.Text}}</p>
{{- if .Change.Reason}}<p class="unavailable">{{.Change.Reason}}</p>{{end}}
<iframe src="{{$.ChartsURL}}" title="charts"></iframe>
{{end}}
</body>
</html>
`))
