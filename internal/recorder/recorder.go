package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"StockResearch/internal/model"
)

// AnalysisRecord is the persisted summary of one analysis run: the latest
// value of every indicator and the signal labels at that bar.
type AnalysisRecord struct {
	RunID      string
	Symbol     string
	Period     string
	AsOf       time.Time // date of the last bar
	RecordedAt time.Time
	Close      float64
	Values     map[model.IndicatorName]optional.Option[float64]
	Signals    map[model.SignalName]model.SignalLabel
	Omitted    int
}

// NewAnalysisRecord flattens a into a record with a fresh run id.
func NewAnalysisRecord(a *model.Analysis) AnalysisRecord {
	rec := AnalysisRecord{
		RunID:      uuid.NewString(),
		Symbol:     a.Symbol,
		Period:     a.Period,
		AsOf:       a.Signals.AsOf,
		RecordedAt: a.GeneratedAt,
		Close:      a.Levels.Close,
		Values:     make(map[model.IndicatorName]optional.Option[float64], len(a.Indicators)),
		Signals:    make(map[model.SignalName]model.SignalLabel, len(a.Signals.Signals)),
		Omitted:    len(a.Signals.Omitted),
	}
	for _, name := range model.AllIndicators() {
		rec.Values[name] = a.Indicators[name].Latest()
	}
	for name, label := range a.Signals.Signals {
		rec.Signals[name] = label
	}
	return rec
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(ctx context.Context, a *model.Analysis) error
	RecordSignalChange(ctx context.Context, c model.SignalChange) error
	// History returns the newest records for symbol first. limit <= 0 means no limit.
	History(ctx context.Context, symbol string, limit int) ([]AnalysisRecord, error)
	// Changes returns the newest signal changes for symbol first.
	Changes(ctx context.Context, symbol string, limit int) ([]model.SignalChange, error)
	Close() error
}
