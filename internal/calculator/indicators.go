package calculator

import (
	"time"

	"github.com/moznion/go-optional"

	"StockResearch/internal/model"
)

// Trend windows and the RSI period.
const (
	ShortWindow  = 20
	MediumWindow = 50
	LongWindow   = 200
	RSIPeriod    = 14
)

// ComputeIndicators derives every indicator series from series.
// Each returned series spans exactly the dates of the input. The call either
// returns all series or an error; an empty series is an InsufficientDataError.
func ComputeIndicators(series model.PriceSeries) (model.Indicators, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	closes := series.Closes()
	dates := series.Dates()

	out := make(model.Indicators, len(model.AllIndicators()))
	for name, w := range map[model.IndicatorName]int{
		model.SMA20:  ShortWindow,
		model.SMA50:  MediumWindow,
		model.SMA200: LongWindow,
	} {
		values, err := SMA(closes, w)
		if err != nil {
			return nil, err
		}
		out[name] = seriesOf(name, dates, values)
	}

	rsi, err := RSI(closes, RSIPeriod)
	if err != nil {
		return nil, err
	}
	out[model.RSI14] = seriesOf(model.RSI14, dates, rsi)

	line, sig, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		return nil, err
	}
	out[model.MACD] = seriesOf(model.MACD, dates, line)
	out[model.MACDSignal] = seriesOf(model.MACDSignal, dates, sig)

	bands, err := Bollinger(closes, BollingerWindow, BollingerWidth)
	if err != nil {
		return nil, err
	}
	out[model.BollingerMiddle] = seriesOf(model.BollingerMiddle, dates, bands.Middle)
	out[model.BollingerUpper] = seriesOf(model.BollingerUpper, dates, bands.Upper)
	out[model.BollingerLower] = seriesOf(model.BollingerLower, dates, bands.Lower)

	return out, nil
}

func seriesOf(name model.IndicatorName, dates []time.Time, values []optional.Option[float64]) model.IndicatorSeries {
	points := make([]model.IndicatorPoint, len(dates))
	for i, d := range dates {
		points[i] = model.IndicatorPoint{Date: d, Value: values[i]}
	}
	return model.IndicatorSeries{Name: name, Points: points}
}
