package marketdata

import (
	"errors"
	"math"
)

// ErrInsufficientHistory is returned when a close series is too short to
// produce a sample standard deviation.
var ErrInsufficientHistory = errors.New("price series too short for volatility estimate")

// tradingDaysPerYear annualizes daily return volatility.
const tradingDaysPerYear = 252

// HistoricalVolatility estimates annualized volatility from a daily close
// series: sample standard deviation (n-1 denominator) of log returns,
// scaled by sqrt(252). At least three closes (two returns) are required;
// anything shorter returns ErrInsufficientHistory rather than a zero or
// negative denominator.
func HistoricalVolatility(closes []float64) (float64, error) {
	if len(closes) < 3 {
		return 0, ErrInsufficientHistory
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, ErrInsufficientHistory
		}
		returns = append(returns, math.Log(closes[i])-math.Log(closes[i-1]))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	sumSq := 0.0
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(returns)-1))

	return std * math.Sqrt(tradingDaysPerYear), nil
}
