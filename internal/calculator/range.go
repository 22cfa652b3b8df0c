package calculator

import (
	"math"

	"github.com/moznion/go-optional"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// TradingDaysPerYear is the lookback used for the 52-week range.
const TradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(bars []model.PriceBar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.NewInsufficientDataError(1, 0, "", "no daily bars provided")
	}
	start := len(bars) - TradingDaysPerYear
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// KeyLevels summarises the latest close against the Bollinger bands and the
// 52-week range. Support and resistance are None until the bands are defined.
func KeyLevels(series model.PriceSeries, ind model.Indicators) (model.KeyLevels, error) {
	last, ok := series.Last()
	if !ok {
		return model.KeyLevels{}, errors.NewInsufficientDataError(1, 0, series.Symbol, "price series is empty")
	}
	high, low, err := Calculate52WeekRange(series.Bars)
	if err != nil {
		return model.KeyLevels{}, err
	}
	pos, err := Calculate52WeekPosition(last.Close, high, low)
	if err != nil {
		return model.KeyLevels{}, err
	}

	levels := model.KeyLevels{
		Close:       last.Close,
		PrevClose:   optional.None[float64](),
		Support:     ind[model.BollingerLower].Latest(),
		Resistance:  ind[model.BollingerUpper].Latest(),
		High52w:     high,
		Low52w:      low,
		Position52w: pos,
	}
	if n := series.Len(); n > 1 {
		levels.PrevClose = optional.Some(series.Bars[n-2].Close)
	}
	return levels, nil
}
