package recorder

import (
	"context"

	"StockResearch/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(context.Context, *model.Analysis) error        { return nil }
func (n *NoopRecorder) RecordSignalChange(context.Context, model.SignalChange) error { return nil }
func (n *NoopRecorder) Close() error                                                 { return nil }

func (n *NoopRecorder) History(context.Context, string, int) ([]AnalysisRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) Changes(context.Context, string, int) ([]model.SignalChange, error) {
	return nil, nil
}
