package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"StockForecast/internal/model"
	"StockForecast/internal/presenter"
)

// response is the JSON envelope of every API reply.
type response[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error,omitempty"`
}

func writeJSON[T any](w http.ResponseWriter, status int, data *T, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response[T]{Data: data, Error: errMsg}); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

// selection reads ticker and years from the query, falling back to the first
// ticker and the smallest horizon.
func (s *Server) selection(r *http.Request) (string, int, error) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		if tickers := s.dash.Tickers(); len(tickers) > 0 {
			ticker = tickers[0]
		}
	}
	years, _ := s.dash.YearRange()
	if v := r.URL.Query().Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ticker, years, fmt.Errorf("%w: years %q is not a number", model.ErrInvalidRequest, v)
		}
		years = n
	}
	return ticker, years, nil
}

type buildFunc func(ctx context.Context, ticker string, years int) (*presenter.ViewModel, error)

// render builds the view model of the request's selection with build, which
// is either the recording Render or the side-effect free View.
func (s *Server) render(r *http.Request, build buildFunc) (*presenter.ViewModel, string, int, error) {
	ticker, years, err := s.selection(r)
	if err != nil {
		return nil, ticker, years, err
	}
	vm, err := build(r.Context(), ticker, years)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			log.Printf("[ERROR] render %s years=%d: %v", ticker, years, err)
		}
		return nil, ticker, years, err
	}
	return vm, ticker, years, nil
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	vm, _, _, err := s.render(r, s.dash.Render)
	if err != nil {
		writeJSON[presenter.ViewModel](w, statusFor(err), nil, userMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, vm, "")
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	type tickers struct {
		Tickers  []string `json:"tickers"`
		MinYears int      `json:"min_years"`
		MaxYears int      `json:"max_years"`
	}
	lo, hi := s.dash.YearRange()
	writeJSON(w, http.StatusOK, &tickers{Tickers: s.dash.Tickers(), MinYears: lo, MaxYears: hi}, "")
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON[any](w, http.StatusBadRequest, nil, "limit must be a positive number")
			return
		}
		limit = n
	}
	runs, err := s.dash.RecentRuns(limit)
	if err != nil {
		log.Printf("[ERROR] recent runs: %v", err)
		writeJSON[any](w, http.StatusInternalServerError, nil, "run history is not available")
		return
	}
	writeJSON(w, http.StatusOK, &runs, "")
}

// handleCharts serves the chart frame of the page. The page view already
// recorded the run, so the frame does not record again.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	vm, _, _, err := s.render(r, s.dash.View)
	if err != nil {
		http.Error(w, userMessage(err), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := presenter.RenderCharts(w, vm); err != nil {
		log.Printf("[ERROR] render charts %s: %v", vm.Ticker, err)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	lo, hi := s.dash.YearRange()
	data := pageData{Title: s.dash.Title(), Tickers: s.dash.Tickers(), MinYears: lo, MaxYears: hi}

	vm, ticker, years, err := s.render(r, s.dash.Render)
	data.Ticker, data.Years = ticker, years
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		data.Message = userMessage(err)
	} else {
		data.View = vm
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("[ERROR] render page: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &map[string]string{"status": "ok"}, "")
}
