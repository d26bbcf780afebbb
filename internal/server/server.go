package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"StockForecast/internal/model"
	"StockForecast/internal/presenter"
	"StockForecast/internal/recorder"
)

// Renderer is the dashboard behind the HTTP surface.
type Renderer interface {
	Render(ctx context.Context, ticker string, years int) (*presenter.ViewModel, error)
	// View builds the view model without recording a run.
	View(ctx context.Context, ticker string, years int) (*presenter.ViewModel, error)
	Title() string
	Tickers() []string
	YearRange() (int, int)
	RecentRuns(limit int) ([]recorder.RunEvent, error)
}

// Options controls the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the dashboard page, the chart page and the JSON API.
type Server struct {
	dash Renderer
}

// New returns an http.Server with all routes mounted.
func New(dash Renderer, opts Options) *http.Server {
	return &http.Server{
		Addr:           opts.Addr,
		Handler:        Router(dash, opts.WriteTimeout),
		ReadTimeout:    opts.ReadTimeout,
		WriteTimeout:   opts.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

// Router builds the chi router. A positive timeout bounds each request.
func Router(dash Renderer, timeout time.Duration) http.Handler {
	s := &Server{dash: dash}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/", s.handlePage)
	r.Get("/charts", s.handleCharts)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/tickers", s.handleTickers)
		r.Get("/render", s.handleRender)
		r.Get("/runs", s.handleRuns)
	})
	return r
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to users in place of an internal error.
func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusServiceUnavailable:
		return "Price data is not available for this ticker right now. Please try again later or pick another ticker."
	case http.StatusGatewayTimeout:
		return "The forecast took too long. Please try again."
	default:
		return "Something went wrong while building the forecast."
	}
}
