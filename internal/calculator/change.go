package calculator

import (
	"fmt"
	"math"

	"StockForecast/internal/model"
)

// PercentChange returns (to-from)/from*100.
func PercentChange(from, to float64) (float64, error) {
	if from == 0 {
		return 0, fmt.Errorf("percent change from %.2f: %w", from, model.ErrDivideByZero)
	}
	pct := (to - from) / from * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, fmt.Errorf("percent change from %v to %v is not finite", from, to)
	}
	return pct, nil
}
