package model

import "time"

// SignalName identifies a categorical signal.
type SignalName string

const (
	SignalPriceVsSMA20  SignalName = "Price vs SMA20"
	SignalPriceVsSMA50  SignalName = "Price vs SMA50"
	SignalPriceVsSMA200 SignalName = "Price vs SMA200"
	SignalRSI           SignalName = "RSI"
	SignalMACD          SignalName = "MACD"
	SignalBollinger     SignalName = "Bollinger Bands"
)

// AllSignals lists every signal in display order.
func AllSignals() []SignalName {
	return []SignalName{
		SignalPriceVsSMA20, SignalPriceVsSMA50, SignalPriceVsSMA200,
		SignalRSI, SignalMACD,
		SignalBollinger,
	}
}

// SignalCategory groups signals for display.
type SignalCategory string

const (
	CategoryTrend      SignalCategory = "Trend Signals"
	CategoryMomentum   SignalCategory = "Momentum Signals"
	CategoryVolatility SignalCategory = "Volatility Signals"
)

// Category returns the display group of a signal.
func (n SignalName) Category() SignalCategory {
	switch n {
	case SignalRSI, SignalMACD:
		return CategoryMomentum
	case SignalBollinger:
		return CategoryVolatility
	default:
		return CategoryTrend
	}
}

// SignalLabel is the categorical outcome of a signal.
type SignalLabel string

const (
	Bullish    SignalLabel = "Bullish"
	Bearish    SignalLabel = "Bearish"
	Overbought SignalLabel = "Overbought"
	Oversold   SignalLabel = "Oversold"
	Neutral    SignalLabel = "Neutral"
	UpperBand  SignalLabel = "UpperBand"
	LowerBand  SignalLabel = "LowerBand"
	MiddleBand SignalLabel = "MiddleBand"
)

// OmittedSignal records a signal that could not be produced because an
// input indicator was undefined at the latest date.
type OmittedSignal struct {
	Name      SignalName    `json:"name"`
	Indicator IndicatorName `json:"indicator"`
	Required  int           `json:"required"`
	Available int           `json:"available"`
}

// SignalEntry pairs a signal with its label.
type SignalEntry struct {
	Name     SignalName     `json:"name"`
	Category SignalCategory `json:"category"`
	Label    SignalLabel    `json:"label"`
}

// SignalSet is the set of signals derived from the latest bar.
type SignalSet struct {
	Symbol  string                     `json:"symbol"`
	AsOf    time.Time                  `json:"as_of"`
	Signals map[SignalName]SignalLabel `json:"signals"`
	Omitted []OmittedSignal            `json:"omitted,omitempty"`
}

// Get returns the label for name and whether it was produced.
func (s SignalSet) Get(name SignalName) (SignalLabel, bool) {
	label, ok := s.Signals[name]
	return label, ok
}

// Ordered returns the produced signals in display order.
func (s SignalSet) Ordered() []SignalEntry {
	out := make([]SignalEntry, 0, len(s.Signals))
	for _, name := range AllSignals() {
		if label, ok := s.Signals[name]; ok {
			out = append(out, SignalEntry{Name: name, Category: name.Category(), Label: label})
		}
	}
	return out
}

// ByCategory groups the produced signals, keeping display order inside each group.
func (s SignalSet) ByCategory() map[SignalCategory][]SignalEntry {
	out := make(map[SignalCategory][]SignalEntry)
	for _, e := range s.Ordered() {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

// Categories lists the categories in display order.
func Categories() []SignalCategory {
	return []SignalCategory{CategoryTrend, CategoryMomentum, CategoryVolatility}
}

// SignalChange describes a label transition between two analyses.
type SignalChange struct {
	Symbol string      `json:"symbol"`
	Name   SignalName  `json:"name"`
	From   SignalLabel `json:"from"` // empty when the signal was not produced before
	To     SignalLabel `json:"to"`   // empty when the signal is no longer produced
	At     time.Time   `json:"at"`
}
