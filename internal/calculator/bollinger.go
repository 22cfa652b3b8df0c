package calculator

import (
	"math"

	"github.com/moznion/go-optional"

	"StockResearch/internal/errors"
)

// Bollinger band defaults.
const (
	BollingerWindow = 20
	BollingerWidth  = 2.0
)

// Bands holds the three Bollinger series, aligned to the input.
type Bands struct {
	Middle []optional.Option[float64]
	Upper  []optional.Option[float64]
	Lower  []optional.Option[float64]
}

// Bollinger computes middle = SMA(window) and middle +/- k * population
// standard deviation of the same window.
func Bollinger(closes []float64, window int, k float64) (Bands, error) {
	if window <= 0 {
		return Bands{}, errors.Newf(errors.ErrCodeInvalidParameter, "bollinger window must be positive, got %d", window)
	}
	if k < 0 {
		return Bands{}, errors.Newf(errors.ErrCodeInvalidParameter, "bollinger width must not be negative, got %v", k)
	}
	n := len(closes)
	b := Bands{
		Middle: make([]optional.Option[float64], n),
		Upper:  make([]optional.Option[float64], n),
		Lower:  make([]optional.Option[float64], n),
	}
	for i := range closes {
		if i < window-1 {
			b.Middle[i] = optional.None[float64]()
			b.Upper[i] = optional.None[float64]()
			b.Lower[i] = optional.None[float64]()
			continue
		}
		w := closes[i-window+1 : i+1]
		mid := windowMean(w)
		dev := k * populationStdDev(w)
		b.Middle[i] = optional.Some(mid)
		b.Upper[i] = optional.Some(mid + dev)
		b.Lower[i] = optional.Some(mid - dev)
	}
	return b, nil
}

// populationStdDev works on offsets from the first element; a constant
// window has a deviation of exactly zero.
func populationStdDev(w []float64) float64 {
	base := w[0]
	n := float64(len(w))
	var sum float64
	for _, v := range w {
		sum += v - base
	}
	mean := sum / n
	var sq float64
	for _, v := range w {
		d := v - base - mean
		sq += d * d
	}
	return math.Sqrt(sq / n)
}
