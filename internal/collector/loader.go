package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"StockForecast/internal/model"
)

// RetryConfig bounds the retries around a single provider fetch.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (rc RetryConfig) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if rc.InitialBackoff > 0 {
		eb.InitialInterval = rc.InitialBackoff
	}
	if rc.MaxBackoff > 0 {
		eb.MaxInterval = rc.MaxBackoff
	}
	eb.MaxElapsedTime = 0
	retries := rc.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

type cacheEntry struct {
	series   *model.PriceSeries
	start    time.Time
	end      time.Time
	storedAt time.Time
}

// Loader fetches daily price history for allow-listed tickers and memoizes
// the result per ticker.
type Loader struct {
	Fetcher Fetcher
	Tickers []string
	Retry   RetryConfig
	// TTL bounds how long an entry is served. Zero keeps entries for the
	// lifetime of the process.
	TTL time.Duration

	now   func() time.Time
	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewLoader creates a new Loader.
func NewLoader(fetcher Fetcher, tickers []string, retry RetryConfig, ttl time.Duration) *Loader {
	return &Loader{
		Fetcher: fetcher,
		Tickers: tickers,
		Retry:   retry,
		TTL:     ttl,
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

func (l *Loader) allowed(ticker string) bool {
	for _, t := range l.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Load returns the daily bars of ticker in [start, end]. An empty series is
// returned when the provider has no data. Provider failures are reported as
// model.ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	if !l.allowed(ticker) {
		return nil, fmt.Errorf("%w: ticker %q is not in the allow-list", model.ErrInvalidRequest, ticker)
	}
	start, end = model.Day(start), model.Day(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", model.ErrInvalidRequest,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	if s, ok := l.lookup(ticker, start, end); ok {
		log.Printf("[INFO] cache hit: %s (%d bars)", ticker, s.Len())
		return s, nil
	}

	key := fmt.Sprintf("%s|%d|%d", ticker, start.Unix(), end.Unix())
	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		return l.fetch(ctx, ticker, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", ticker, model.ErrDataUnavailable, err)
	}
	s := v.(*model.PriceSeries)
	if shared {
		log.Printf("[INFO] shared in-flight load: %s", ticker)
	}
	return s, nil
}

func (l *Loader) lookup(ticker string, start, end time.Time) (*model.PriceSeries, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.cache[ticker]
	if !ok || !e.start.Equal(start) || !e.end.Equal(end) {
		return nil, false
	}
	if l.TTL > 0 && l.now().Sub(e.storedAt) > l.TTL {
		return nil, false
	}
	return e.series, true
}

func (l *Loader) fetch(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	log.Printf("[INFO] cache miss: fetching %s from %s", ticker, l.Fetcher.Name())
	var bars []model.PriceBar
	op := func() error {
		var err error
		bars, err = l.Fetcher.FetchDailyBars(ctx, ticker, start, end)
		if err != nil && (ctx.Err() != nil || !retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("[WARN] fetch %s failed, retrying in %v: %v", ticker, wait, err)
	}
	if err := backoff.RetryNotify(op, l.Retry.backOff(ctx), notify); err != nil {
		return nil, err
	}

	s := &model.PriceSeries{
		Symbol:    ticker,
		Start:     start,
		End:       end,
		Bars:      normalizeBars(bars, start, end),
		FetchedAt: l.now(),
	}
	if s.Empty() {
		// not cached so that an outage does not stick
		log.Printf("[WARN] %s returned no bars for %s", l.Fetcher.Name(), ticker)
		return s, nil
	}

	l.mu.Lock()
	l.cache[ticker] = cacheEntry{series: s, start: start, end: end, storedAt: s.FetchedAt}
	l.mu.Unlock()
	return s, nil
}

// Invalidate drops the cached entry of ticker.
func (l *Loader) Invalidate(ticker string) {
	l.mu.Lock()
	delete(l.cache, ticker)
	l.mu.Unlock()
}

// Refresh purges the cache and pre-loads every allow-listed ticker. It
// returns the number of tickers loaded with data.
func (l *Loader) Refresh(ctx context.Context, start, end time.Time) int {
	l.mu.Lock()
	l.cache = make(map[string]cacheEntry)
	l.mu.Unlock()

	loaded := 0
	for _, t := range l.Tickers {
		if ctx.Err() != nil {
			break
		}
		s, err := l.Load(ctx, t, start, end)
		if err != nil {
			log.Printf("[ERROR] refresh %s: %v", t, err)
			continue
		}
		if !s.Empty() {
			loaded++
		}
	}
	log.Printf("[INFO] refreshed %d/%d tickers", loaded, len(l.Tickers))
	return loaded
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	return true
}
