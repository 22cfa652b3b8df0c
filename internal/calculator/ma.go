package calculator

import (
	"github.com/moznion/go-optional"

	"StockResearch/internal/errors"
)

// SMA computes the simple moving average of values over window.
// The result is aligned to values: position i is defined iff i >= window-1.
func SMA(values []float64, window int) ([]optional.Option[float64], error) {
	if window <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "sma window must be positive, got %d", window)
	}
	out := make([]optional.Option[float64], len(values))
	for i := range values {
		if i < window-1 {
			out[i] = optional.None[float64]()
			continue
		}
		out[i] = optional.Some(windowMean(values[i-window+1 : i+1]))
	}
	return out, nil
}

// EMA computes the exponential moving average with the given span, seeded
// with the first value. Every position is defined.
func EMA(values []float64, span int) ([]optional.Option[float64], error) {
	raw, err := emaRaw(values, span)
	if err != nil {
		return nil, err
	}
	return wrapAll(raw), nil
}

// emaRaw evaluates EMA[i] = EMA[i-1] + k*(x[i]-EMA[i-1]), k = 2/(span+1).
// This is the same recursion as x*k + prev*(1-k) but keeps a constant input exactly constant.
func emaRaw(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "ema span must be positive, got %d", span)
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	k := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + k*(values[i]-out[i-1])
	}
	return out, nil
}

// windowMean averages w around its first element so a constant window
// yields that constant exactly.
func windowMean(w []float64) float64 {
	base := w[0]
	sum := 0.0
	for _, v := range w {
		sum += v - base
	}
	return base + sum/float64(len(w))
}

func wrapAll(values []float64) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(values))
	for i, v := range values {
		out[i] = optional.Some(v)
	}
	return out
}
