// Package dashboard turns a (ticker, years) selection into a view model:
// validate, load history, forecast every price column and present the result.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"StockForecast/internal/config"
	"StockForecast/internal/model"
	"StockForecast/internal/presenter"
	"StockForecast/internal/recorder"
)

// Loader provides daily price history.
type Loader interface {
	Load(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error)
}

// Forecaster projects every forecast column of a series.
type Forecaster interface {
	ForecastTable(ctx context.Context, series *model.PriceSeries, h int) *model.ForecastTable
}

// Dashboard handles render requests.
type Dashboard struct {
	Config     *config.Config
	Loader     Loader
	Forecaster Forecaster
	Recorder   recorder.Recorder

	now func() time.Time
}

// New creates a new Dashboard. A nil recorder disables run history.
func New(cfg *config.Config, loader Loader, fc Forecaster, rec recorder.Recorder) *Dashboard {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Dashboard{
		Config:     cfg,
		Loader:     loader,
		Forecaster: fc,
		Recorder:   rec,
		now:        time.Now,
	}
}

// Title returns the configured page title.
func (d *Dashboard) Title() string { return d.Config.App.Title }

// Tickers returns the selectable tickers in display order.
func (d *Dashboard) Tickers() []string {
	return append([]string(nil), d.Config.App.Tickers...)
}

// YearRange returns the inclusive bounds of the years selection.
func (d *Dashboard) YearRange() (int, int) {
	return d.Config.App.MinYears, d.Config.App.MaxYears
}

// Render runs one full pipeline pass for ticker and a horizon of years and
// records it in the run history. Loading failures and empty histories abort
// the run with model.ErrDataUnavailable; failing forecast columns are marked
// unavailable in the view model.
func (d *Dashboard) Render(ctx context.Context, ticker string, years int) (*presenter.ViewModel, error) {
	vm, evt, err := d.run(ctx, ticker, years)
	if evt != nil {
		d.record(evt)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] rendered %s years=%d rows=%d horizon=%d change=%s", vm.Ticker, years, vm.Rows, vm.Horizon, vm.Change.Text)
	return vm, nil
}

// View builds the same view model as Render without recording a run. It
// serves secondary views of a render already recorded, such as the chart page.
func (d *Dashboard) View(ctx context.Context, ticker string, years int) (*presenter.ViewModel, error) {
	vm, _, err := d.run(ctx, ticker, years)
	return vm, err
}

// run executes the pipeline. The returned event is nil when the request was
// rejected before loading.
func (d *Dashboard) run(ctx context.Context, ticker string, years int) (*presenter.ViewModel, *recorder.RunEvent, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if lo, hi := d.YearRange(); years < lo || years > hi {
		return nil, nil, fmt.Errorf("%w: years must be between %d and %d, got %d", model.ErrInvalidRequest, lo, hi, years)
	}
	if !d.Config.Allowed(ticker) {
		return nil, nil, fmt.Errorf("%w: unknown ticker %q", model.ErrInvalidRequest, ticker)
	}
	start, err := d.Config.Start()
	if err != nil {
		return nil, nil, err
	}
	horizon := d.Config.Horizon(years)
	evt := &recorder.RunEvent{Timestamp: d.now(), Ticker: ticker, Years: years, Horizon: horizon}

	series, err := d.Loader.Load(ctx, ticker, start, model.Day(d.now()))
	if err == nil && series.Empty() {
		err = fmt.Errorf("%s: no price history since %s: %w", ticker, d.Config.App.StartDate, model.ErrDataUnavailable)
	}
	if err != nil {
		if errors.Is(err, model.ErrDataUnavailable) {
			evt.Error = err.Error()
			return nil, evt, err
		}
		return nil, nil, err
	}

	table := d.Forecaster.ForecastTable(ctx, series, horizon)
	vm := presenter.Build(d.Config.App.Title, series, table, years)

	evt.Rows = series.Len()
	if last, ok := series.Last(); ok {
		evt.LastClose = last.Close
	}
	if fs, ok := table.Column(model.ColumnClose); ok {
		if p, ok := fs.Last(); ok {
			evt.ForecastClose = p.Value
		}
	}
	evt.ChangeOK = vm.Change.Available
	evt.Percent = vm.Change.Percent
	for _, fc := range vm.Forecasts {
		if fc.Available {
			evt.ColumnsOK = append(evt.ColumnsOK, string(fc.Column))
		} else {
			evt.ColumnsFailed = append(evt.ColumnsFailed, string(fc.Column))
		}
	}
	return vm, evt, nil
}

// RecentRuns returns the latest recorded renders, newest first.
func (d *Dashboard) RecentRuns(limit int) ([]recorder.RunEvent, error) {
	return d.Recorder.RecentRuns(limit)
}

func (d *Dashboard) record(evt *recorder.RunEvent) {
	if err := d.Recorder.RecordRun(evt); err != nil {
		log.Printf("[ERROR] record run %s: %v", evt.Ticker, err)
	}
}
