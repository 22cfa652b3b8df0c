package server

import (
	"time"

	"github.com/moznion/go-optional"

	"StockResearch/internal/model"
	"StockResearch/internal/recorder"
	"StockResearch/internal/strategy"
)

const dateLayout = "2006-01-02"

// BarDTO is one daily bar.
type BarDTO struct {
	Date   string  `json:"date" jsonschema:"format=date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// IndicatorDTO holds one indicator aligned with AnalysisResponse.Bars.
// Values are null where the lookback window is not yet satisfied.
type IndicatorDTO struct {
	Name   model.IndicatorName `json:"name"`
	Values []*float64          `json:"values"`
}

// LevelsDTO is the key price levels block.
type LevelsDTO struct {
	Close       float64  `json:"close"`
	PrevClose   *float64 `json:"prev_close" jsonschema:"nullable"`
	Change      *float64 `json:"change" jsonschema:"nullable,description=Close-to-close change as a fraction"`
	Support     *float64 `json:"support" jsonschema:"nullable,description=Lower Bollinger band"`
	Resistance  *float64 `json:"resistance" jsonschema:"nullable,description=Upper Bollinger band"`
	High52w     float64  `json:"high_52w"`
	Low52w      float64  `json:"low_52w"`
	Position52w float64  `json:"position_52w" jsonschema:"minimum=0,maximum=1"`
}

// AnalysisResponse is the body of GET /api/v1/analysis/{ticker}.
type AnalysisResponse struct {
	Symbol      string                `json:"symbol" jsonschema:"required"`
	Period      string                `json:"period" jsonschema:"enum=1mo,enum=3mo,enum=6mo,enum=1y,enum=2y,enum=5y"`
	AsOf        string                `json:"as_of" jsonschema:"format=date"`
	GeneratedAt time.Time             `json:"generated_at"`
	Bars        []BarDTO              `json:"bars"`
	Indicators  []IndicatorDTO        `json:"indicators"`
	Signals     []model.SignalEntry   `json:"signals"`
	Omitted     []model.OmittedSignal `json:"omitted"`
	Levels      LevelsDTO             `json:"levels"`
	Bias        int                   `json:"bias" jsonschema:"description=Bullish minus bearish signal count"`
}

// SignalsResponse is the body of GET /api/v1/signals/{ticker}.
type SignalsResponse struct {
	Symbol  string                `json:"symbol"`
	AsOf    string                `json:"as_of"`
	Signals []model.SignalEntry   `json:"signals"`
	Omitted []model.OmittedSignal `json:"omitted"`
	Levels  LevelsDTO             `json:"levels"`
	Bias    int                   `json:"bias"`
}

// HistoryEntryDTO is one recorded analysis.
type HistoryEntryDTO struct {
	RunID      string                                 `json:"run_id"`
	Period     string                                 `json:"period"`
	AsOf       string                                 `json:"as_of"`
	RecordedAt time.Time                              `json:"recorded_at"`
	Close      float64                                `json:"close"`
	Values     map[model.IndicatorName]*float64       `json:"values"`
	Signals    map[model.SignalName]model.SignalLabel `json:"signals"`
}

// HistoryResponse is the body of GET /api/v1/history/{ticker}.
type HistoryResponse struct {
	Symbol  string               `json:"symbol"`
	Entries []HistoryEntryDTO    `json:"entries"`
	Changes []model.SignalChange `json:"changes"`
}

// WatchlistItem is one watched ticker.
type WatchlistItem struct {
	Symbol    string                                 `json:"symbol"`
	Signals   map[model.SignalName]model.SignalLabel `json:"signals,omitempty"`
	Bias      int                                    `json:"bias"`
	LastRunAt *time.Time                             `json:"last_run_at"`
}

// WatchlistResponse is the body of GET /api/v1/watchlist.
type WatchlistResponse struct {
	Tickers []WatchlistItem `json:"tickers"`
}

// WatchRequest is the body of POST /api/v1/watchlist.
type WatchRequest struct {
	Ticker string `json:"ticker" validate:"required,max=20"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// AnalysisEvent is pushed to websocket clients after each refresh.
type AnalysisEvent struct {
	Type        string                `json:"type"`
	Symbol      string                `json:"symbol"`
	AsOf        string                `json:"as_of"`
	GeneratedAt time.Time             `json:"generated_at"`
	Signals     []model.SignalEntry   `json:"signals"`
	Omitted     []model.OmittedSignal `json:"omitted"`
	Levels      LevelsDTO             `json:"levels"`
	Bias        int                   `json:"bias"`
}

func ptr(o optional.Option[float64]) *float64 {
	v, err := o.Take()
	if err != nil {
		return nil
	}
	return &v
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func newLevelsDTO(k model.KeyLevels) LevelsDTO {
	return LevelsDTO{
		Close:       k.Close,
		PrevClose:   ptr(k.PrevClose),
		Change:      ptr(k.Change()),
		Support:     ptr(k.Support),
		Resistance:  ptr(k.Resistance),
		High52w:     k.High52w,
		Low52w:      k.Low52w,
		Position52w: k.Position52w,
	}
}

func omitted(set model.SignalSet) []model.OmittedSignal {
	if set.Omitted == nil {
		return []model.OmittedSignal{}
	}
	return set.Omitted
}

// NewAnalysisResponse converts a into its wire form.
func NewAnalysisResponse(a *model.Analysis) AnalysisResponse {
	bars := make([]BarDTO, len(a.Series.Bars))
	for i, b := range a.Series.Bars {
		bars[i] = BarDTO{
			Date:   b.Date.Format(dateLayout),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	indicators := make([]IndicatorDTO, 0, len(a.Indicators))
	for _, name := range model.AllIndicators() {
		s, ok := a.Indicators[name]
		if !ok {
			continue
		}
		values := make([]*float64, len(s.Points))
		for i, p := range s.Points {
			values[i] = ptr(p.Value)
		}
		indicators = append(indicators, IndicatorDTO{Name: name, Values: values})
	}
	return AnalysisResponse{
		Symbol:      a.Symbol,
		Period:      a.Period,
		AsOf:        formatDate(a.Signals.AsOf),
		GeneratedAt: a.GeneratedAt,
		Bars:        bars,
		Indicators:  indicators,
		Signals:     a.Signals.Ordered(),
		Omitted:     omitted(a.Signals),
		Levels:      newLevelsDTO(a.Levels),
		Bias:        strategy.Bias(a.Signals),
	}
}

// NewSignalsResponse converts the signal part of a into its wire form.
func NewSignalsResponse(a *model.Analysis) SignalsResponse {
	return SignalsResponse{
		Symbol:  a.Symbol,
		AsOf:    formatDate(a.Signals.AsOf),
		Signals: a.Signals.Ordered(),
		Omitted: omitted(a.Signals),
		Levels:  newLevelsDTO(a.Levels),
		Bias:    strategy.Bias(a.Signals),
	}
}

func newAnalysisEvent(a *model.Analysis) AnalysisEvent {
	return AnalysisEvent{
		Type:        "analysis",
		Symbol:      a.Symbol,
		AsOf:        formatDate(a.Signals.AsOf),
		GeneratedAt: a.GeneratedAt,
		Signals:     a.Signals.Ordered(),
		Omitted:     omitted(a.Signals),
		Levels:      newLevelsDTO(a.Levels),
		Bias:        strategy.Bias(a.Signals),
	}
}

func newHistoryEntry(r recorder.AnalysisRecord) HistoryEntryDTO {
	values := make(map[model.IndicatorName]*float64, len(r.Values))
	for name, v := range r.Values {
		values[name] = ptr(v)
	}
	return HistoryEntryDTO{
		RunID:      r.RunID,
		Period:     r.Period,
		AsOf:       formatDate(r.AsOf),
		RecordedAt: r.RecordedAt,
		Close:      r.Close,
		Values:     values,
		Signals:    r.Signals,
	}
}
