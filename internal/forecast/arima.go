// Package forecast fits ARIMA(p,d,0) models to daily price columns and
// projects them forward.
//
// Coefficients are estimated by conditional least squares on the d-times
// differenced series, which is the conditional maximum-likelihood estimate
// under Gaussian innovations. No intercept is fitted when d > 0.
package forecast

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"StockForecast/internal/calculator"
	"StockForecast/internal/model"
)

// Order is the (p, d, q) order of the model. Only q = 0 is supported.
type Order struct {
	P, D, Q int
}

func (o Order) String() string { return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q) }

// MinObservations is the shortest series Fit accepts for order o.
func (o Order) MinObservations() int { return 2*o.P + o.D + 1 }

// Model is a fitted ARIMA(p,d,0).
type Model struct {
	Order Order
	// Coefficients[j] multiplies the lag j+1 difference.
	Coefficients []float64
	Sigma2       float64
	LogLik       float64
	AIC          float64
	Stationary   bool
	NObs         int

	anchor []float64 // last d+1 observations in the original scale
	lags   []float64 // last p differenced observations, oldest first
}

// Fit estimates the model on series.
func Fit(series []float64, order Order) (*Model, error) {
	if order.Q != 0 {
		return nil, fmt.Errorf("%w: %s: moving-average terms are not supported", model.ErrInvalidRequest, order)
	}
	if order.P < 0 || order.D < 0 {
		return nil, fmt.Errorf("%w: %s: negative order", model.ErrInvalidRequest, order)
	}
	if n := order.MinObservations(); len(series) < n {
		return nil, fmt.Errorf("%w: %s needs at least %d observations, got %d", model.ErrFitFailure, order, n, len(series))
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: observation %d is not finite", model.ErrFitFailure, i)
		}
	}

	w, err := calculator.Difference(series, order.D)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFitFailure, err)
	}
	if v := stat.Variance(w, nil); len(w) > 1 && v == 0 {
		return nil, fmt.Errorf("%w: %s: differenced series is constant", model.ErrFitFailure, order)
	}

	p := order.P
	rows := len(w) - p
	coef := make([]float64, p)
	resid := make([]float64, rows)
	if p > 0 {
		x := mat.NewDense(rows, p, nil)
		y := mat.NewVecDense(rows, nil)
		for t := 0; t < rows; t++ {
			for j := 0; j < p; j++ {
				x.Set(t, j, w[t+p-1-j])
			}
			y.SetVec(t, w[t+p])
		}
		var beta mat.VecDense
		if err := beta.SolveVec(x, y); err != nil {
			return nil, fmt.Errorf("%w: %s: least squares: %v", model.ErrFitFailure, order, err)
		}
		var fitted mat.VecDense
		fitted.MulVec(x, &beta)
		for t := 0; t < rows; t++ {
			resid[t] = y.AtVec(t) - fitted.AtVec(t)
		}
		for j := range coef {
			coef[j] = beta.AtVec(j)
		}
	} else {
		copy(resid, w)
	}

	var ss float64
	for _, e := range resid {
		ss += e * e
	}
	sigma2 := ss / float64(rows)
	if sigma2 == 0 || math.IsNaN(sigma2) {
		return nil, fmt.Errorf("%w: %s: zero residual variance", model.ErrFitFailure, order)
	}
	for _, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: %s: non-finite coefficient", model.ErrFitFailure, order)
		}
	}
	logLik := -0.5 * float64(rows) * (math.Log(2*math.Pi*sigma2) + 1)

	m := &Model{
		Order:        order,
		Coefficients: coef,
		Sigma2:       sigma2,
		LogLik:       logLik,
		AIC:          -2*logLik + 2*float64(p+1),
		Stationary:   stationary(coef),
		NObs:         len(series),
		anchor:       append([]float64(nil), series[len(series)-order.D-1:]...),
		lags:         append([]float64(nil), w[len(w)-p:]...),
	}
	return m, nil
}

// stationary reports whether every root of the AR polynomial lies outside the
// unit circle, i.e. every eigenvalue of the companion matrix is inside it.
func stationary(coef []float64) bool {
	p := len(coef)
	if p == 0 {
		return true
	}
	companion := mat.NewDense(p, p, nil)
	for j, c := range coef {
		companion.Set(0, j, c)
	}
	for i := 1; i < p; i++ {
		companion.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return false
		}
	}
	return true
}

// Forecast projects h steps past the end of the fitted series.
func (m *Model) Forecast(h int) ([]float64, error) {
	if h < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1, got %d", model.ErrInvalidRequest, h)
	}
	p := m.Order.P
	buf := make([]float64, 0, p+h)
	buf = append(buf, m.lags...)
	for i := 0; i < h; i++ {
		var next float64
		for j, c := range m.Coefficients {
			next += c * buf[len(buf)-1-j]
		}
		buf = append(buf, next)
	}
	out, err := calculator.Integrate(m.anchor, buf[p:], m.Order.D)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFitFailure, err)
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: forecast diverged at step %d", model.ErrFitFailure, i+1)
		}
	}
	return out, nil
}

// FitAndForecast fits order to series and returns h projected values.
func FitAndForecast(series []float64, order Order, h int) ([]float64, error) {
	if h < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1, got %d", model.ErrInvalidRequest, h)
	}
	m, err := Fit(series, order)
	if err != nil {
		return nil, err
	}
	return m.Forecast(h)
}
