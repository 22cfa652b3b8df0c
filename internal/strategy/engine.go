package strategy

import (
	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// RSI thresholds. Values strictly beyond them are labelled.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// rule maps one signal to the indicators it reads and the bars needed for
// all of them to be defined at the latest date.
type rule struct {
	name     model.SignalName
	inputs   []model.IndicatorName
	required int
	classify func(close float64, v []float64) model.SignalLabel
}

var rules = []rule{
	{model.SignalPriceVsSMA20, []model.IndicatorName{model.SMA20}, 20, trend},
	{model.SignalPriceVsSMA50, []model.IndicatorName{model.SMA50}, 50, trend},
	{model.SignalPriceVsSMA200, []model.IndicatorName{model.SMA200}, 200, trend},
	{model.SignalRSI, []model.IndicatorName{model.RSI14}, 15, momentum},
	{model.SignalMACD, []model.IndicatorName{model.MACD, model.MACDSignal}, 1, crossover},
	{model.SignalBollinger, []model.IndicatorName{model.BollingerUpper, model.BollingerLower}, 20, bands},
}

// trend is Bullish only when the close is strictly above the average; a tie is Bearish.
func trend(close float64, v []float64) model.SignalLabel {
	if close > v[0] {
		return model.Bullish
	}
	return model.Bearish
}

func momentum(_ float64, v []float64) model.SignalLabel {
	switch {
	case v[0] > RSIOverbought:
		return model.Overbought
	case v[0] < RSIOversold:
		return model.Oversold
	default:
		return model.Neutral
	}
}

// crossover compares MACD with its signal line; a tie is Bearish.
func crossover(_ float64, v []float64) model.SignalLabel {
	if v[0] > v[1] {
		return model.Bullish
	}
	return model.Bearish
}

// bands labels a close sitting exactly on a band as MiddleBand.
func bands(close float64, v []float64) model.SignalLabel {
	switch {
	case close > v[0]:
		return model.UpperBand
	case close < v[1]:
		return model.LowerBand
	default:
		return model.MiddleBand
	}
}

// ClassifySignals derives the categorical signals from the latest bar.
// A signal whose inputs are undefined at the latest date is left out and
// recorded in Omitted; the remaining signals are still produced. An empty
// series is an InsufficientDataError and indicators computed over different
// dates are rejected with ErrCodeInvalidParameter.
func ClassifySignals(series model.PriceSeries, ind model.Indicators) (model.SignalSet, error) {
	last, ok := series.Last()
	if !ok {
		return model.SignalSet{}, errors.NewInsufficientDataError(1, 0, series.Symbol, "cannot classify signals of an empty series")
	}
	if err := checkDomain(series, ind); err != nil {
		return model.SignalSet{}, err
	}

	set := model.SignalSet{
		Symbol:  series.Symbol,
		AsOf:    last.Date,
		Signals: make(map[model.SignalName]model.SignalLabel, len(rules)),
	}
	for _, r := range rules {
		values := make([]float64, 0, len(r.inputs))
		var missing model.IndicatorName
		for _, name := range r.inputs {
			v, err := ind[name].Latest().Take()
			if err != nil {
				missing = name
				break
			}
			values = append(values, v)
		}
		if missing != "" {
			set.Omitted = append(set.Omitted, model.OmittedSignal{
				Name:      r.name,
				Indicator: missing,
				Required:  r.required,
				Available: series.Len(),
			})
			continue
		}
		set.Signals[r.name] = r.classify(last.Close, values)
	}
	return set, nil
}

func checkDomain(series model.PriceSeries, ind model.Indicators) error {
	for _, r := range rules {
		for _, name := range r.inputs {
			s, ok := ind[name]
			if !ok {
				return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s missing", name)
			}
			if s.Len() != series.Len() {
				return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s has %d points, series has %d bars",
					name, s.Len(), series.Len())
			}
			for i, p := range s.Points {
				if !p.Date.Equal(series.Bars[i].Date) {
					return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %s date %d does not match series", name, i)
				}
			}
		}
	}
	return nil
}
