package calculator

import (
	"github.com/moznion/go-optional"

	"StockResearch/internal/errors"
)

// RSI neutral value used when a window has neither gains nor losses.
const RSINeutral = 50.0

// RSI computes the relative strength index using a trailing simple mean of
// gains and losses over period deltas. Position i is defined iff i >= period.
//
// avgLoss == 0 saturates at 100 when there were gains and at RSINeutral when
// the window was flat.
func RSI(closes []float64, period int) ([]optional.Option[float64], error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "rsi period must be positive, got %d", period)
	}
	out := make([]optional.Option[float64], len(closes))
	for i := range closes {
		if i < period {
			out[i] = optional.None[float64]()
			continue
		}
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		out[i] = optional.Some(rsiValue(gain/float64(period), loss/float64(period)))
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0
		}
		return RSINeutral
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
