package calculator

import "errors"

// Difference applies d rounds of first differencing. The result has
// len(values)-d elements.
func Difference(values []float64, d int) ([]float64, error) {
	if d < 0 {
		return nil, errors.New("differencing order must not be negative")
	}
	if len(values) <= d {
		return nil, errors.New("not enough data for differencing")
	}
	out := append([]float64(nil), values...)
	for k := 0; k < d; k++ {
		for i := len(out) - 1; i > 0; i-- {
			out[i] -= out[i-1]
		}
		out = out[1:]
	}
	return out, nil
}

// Integrate reverses Difference for values projected past the end of history.
// history is the original undifferenced series; increments are the projected
// d-th differences. The returned slice has len(increments) elements in the
// original scale.
func Integrate(history, increments []float64, d int) ([]float64, error) {
	if d < 0 {
		return nil, errors.New("differencing order must not be negative")
	}
	if len(history) < d {
		return nil, errors.New("not enough history to integrate")
	}
	out := append([]float64(nil), increments...)
	// undo one differencing level at a time, innermost first
	for k := d; k > 0; k-- {
		level, err := Difference(history, k-1)
		if err != nil {
			return nil, err
		}
		prev := level[len(level)-1]
		for i := range out {
			prev += out[i]
			out[i] = prev
		}
	}
	return out, nil
}
