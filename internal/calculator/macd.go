package calculator

import (
	"github.com/moznion/go-optional"

	"StockResearch/internal/errors"
)

// MACD periods.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACD returns the MACD line (EMA fast - EMA slow) and its signal line
// (EMA of the MACD line). Both are defined at every position.
func MACD(closes []float64, fast, slow, signal int) (line, sig []optional.Option[float64], err error) {
	if fast >= slow {
		return nil, nil, errors.Newf(errors.ErrCodeInvalidParameter, "macd fast period %d must be below slow period %d", fast, slow)
	}
	emaFast, err := emaRaw(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	emaSlow, err := emaRaw(closes, slow)
	if err != nil {
		return nil, nil, err
	}
	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = emaFast[i] - emaSlow[i]
	}
	signalLine, err := emaRaw(diff, signal)
	if err != nil {
		return nil, nil, err
	}
	return wrapAll(diff), wrapAll(signalLine), nil
}
