package strategy

import (
	"time"

	"StockResearch/internal/model"
)

// Changes lists the signals whose label differs between prev and next.
// A nil prev means the symbol has never been classified and yields no changes.
func Changes(prev map[model.SignalName]model.SignalLabel, next model.SignalSet, at time.Time) []model.SignalChange {
	if prev == nil {
		return nil
	}
	var out []model.SignalChange
	for _, name := range model.AllSignals() {
		before := prev[name]
		after := next.Signals[name]
		if before == after {
			continue
		}
		out = append(out, model.SignalChange{
			Symbol: next.Symbol,
			Name:   name,
			From:   before,
			To:     after,
			At:     at,
		})
	}
	return out
}

// Bias counts bullish-leaning minus bearish-leaning signals.
// Oversold and LowerBand count as bullish, Overbought and UpperBand as bearish.
func Bias(set model.SignalSet) int {
	score := 0
	for _, label := range set.Signals {
		switch label {
		case model.Bullish, model.Oversold, model.LowerBand:
			score++
		case model.Bearish, model.Overbought, model.UpperBand:
			score--
		}
	}
	return score
}
