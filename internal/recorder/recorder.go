package recorder

import "time"

// RunEvent holds the outcome of one dashboard render.
type RunEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Ticker        string    `json:"ticker"`
	Years         int       `json:"years"`
	Horizon       int       `json:"horizon"`
	Rows          int       `json:"rows"`
	LastClose     float64   `json:"last_close"`
	ForecastClose float64   `json:"forecast_close"`
	Percent       float64   `json:"percent"`
	ChangeOK      bool      `json:"change_ok"`
	ColumnsOK     []string  `json:"columns_ok,omitempty"`
	ColumnsFailed []string  `json:"columns_failed,omitempty"`
	Error         string    `json:"error,omitempty"` // set when the run aborted, e.g. data unavailable
}

// Recorder persists render history for later analysis.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecentRuns(limit int) ([]RunEvent, error)
	Close() error
}
