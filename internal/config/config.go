package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of dates in the config file.
const DateLayout = "2006-01-02"

// Provider names accepted in data_source.provider.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderMock  = "mock"
)

// Order is the (p, d, q) order of the forecasting model.
type Order struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
}

func (o Order) String() string { return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q) }

// Config holds all application configuration.
type Config struct {
	App struct {
		Title       string   `yaml:"title"`
		StartDate   string   `yaml:"start_date"`
		Tickers     []string `yaml:"tickers"`
		MinYears    int      `yaml:"min_years"`
		MaxYears    int      `yaml:"max_years"`
		DaysPerYear int      `yaml:"days_per_year"`
	} `yaml:"app"`
	Model struct {
		Order      Order         `yaml:"order"`
		FitTimeout time.Duration `yaml:"fit_timeout"`
	} `yaml:"model"`
	DataSource struct {
		Provider       string        `yaml:"provider"`
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		InitialBackoff time.Duration `yaml:"initial_backoff"`
		MaxBackoff     time.Duration `yaml:"max_backoff"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Server struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// DefaultTickers is the allow-list used when none is configured.
var DefaultTickers = []string{"HMY", "IHS", "JMIA", "DRD", "SSL", "MIXT", "SBSW", "KOS", "IMPUY", "NL"}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v, ok := os.LookupEnv("REFRESH_CRON"); ok {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		var tickers []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				tickers = append(tickers, t)
			}
		}
		c.App.Tickers = tickers
	}
	if v := os.Getenv("FIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FIT_TIMEOUT: %w", err)
		}
		c.Model.FitTimeout = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Title == "" {
		c.App.Title = "Stock Prediction App"
	}
	if c.App.StartDate == "" {
		c.App.StartDate = "2014-01-01"
	}
	if len(c.App.Tickers) == 0 {
		c.App.Tickers = append([]string(nil), DefaultTickers...)
	}
	if c.App.MinYears == 0 {
		c.App.MinYears = 1
	}
	if c.App.MaxYears == 0 {
		c.App.MaxYears = 4
	}
	if c.App.DaysPerYear == 0 {
		c.App.DaysPerYear = 365
	}
	if c.Model.Order == (Order{}) {
		c.Model.Order = Order{P: 5, D: 1, Q: 0}
	}
	if c.Model.FitTimeout == 0 {
		c.Model.FitTimeout = 60 * time.Second
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = ProviderREST
		}
	}
	if c.DataSource.RequestTimeout == 0 {
		c.DataSource.RequestTimeout = 30 * time.Second
	}
	if c.DataSource.MaxRetries == 0 {
		c.DataSource.MaxRetries = 3
	}
	if c.DataSource.InitialBackoff == 0 {
		c.DataSource.InitialBackoff = 500 * time.Millisecond
	}
	if c.DataSource.MaxBackoff == 0 {
		c.DataSource.MaxBackoff = 5 * time.Second
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}
}

// Start returns the parsed start date of the history window.
func (c *Config) Start() (time.Time, error) {
	t, err := time.Parse(DateLayout, c.App.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse app.start_date: %w", err)
	}
	return t, nil
}

// Allowed reports whether ticker is in the allow-list.
func (c *Config) Allowed(ticker string) bool {
	for _, t := range c.App.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Horizon converts a years selection into forecast periods. The value is used
// directly as a step count for the daily model.
func (c *Config) Horizon(years int) int {
	return years * c.App.DaysPerYear
}

// Validate checks that all fields are consistent.
func (c *Config) Validate() error {
	if len(c.App.Tickers) == 0 {
		return fmt.Errorf("app.tickers must not be empty")
	}
	seen := make(map[string]bool, len(c.App.Tickers))
	for _, t := range c.App.Tickers {
		if t == "" {
			return fmt.Errorf("app.tickers contains an empty symbol")
		}
		if seen[t] {
			return fmt.Errorf("app.tickers contains duplicate %q", t)
		}
		seen[t] = true
	}
	if _, err := c.Start(); err != nil {
		return err
	}
	if c.App.MinYears < 1 {
		return fmt.Errorf("app.min_years must be at least 1")
	}
	if c.App.MaxYears < c.App.MinYears {
		return fmt.Errorf("app.max_years must be >= app.min_years")
	}
	if c.App.DaysPerYear < 1 {
		return fmt.Errorf("app.days_per_year must be positive")
	}
	o := c.Model.Order
	if o.P < 0 || o.D < 0 {
		return fmt.Errorf("model.order %s: p and d must be non-negative", o)
	}
	if o.Q != 0 {
		return fmt.Errorf("model.order %s: moving-average terms are not supported", o)
	}
	if o.P == 0 && o.D == 0 {
		return fmt.Errorf("model.order %s: at least one of p or d must be set", o)
	}
	if c.Model.FitTimeout < 0 {
		return fmt.Errorf("model.fit_timeout must not be negative")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.MaxRetries < 0 {
		return fmt.Errorf("data_source.max_retries must not be negative")
	}
	return nil
}
