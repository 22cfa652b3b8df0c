package model

import "time"

// Analysis is the full technical picture for one symbol.
type Analysis struct {
	Symbol      string
	Period      string
	Series      PriceSeries
	Indicators  Indicators
	Signals     SignalSet
	Levels      KeyLevels
	GeneratedAt time.Time
}

// WatchlistState is the persisted set of watched tickers together with the
// last signal labels seen for each.
type WatchlistState struct {
	Tickers     []string                              `json:"tickers"`
	LastSignals map[string]map[SignalName]SignalLabel `json:"last_signals"`
	LastRunAt   map[string]time.Time                  `json:"last_run_at"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}
