package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"StockResearch/internal/model"
)

type SQLiteRecorderTestSuite struct {
	suite.Suite
	rec *SQLiteRecorder
}

func TestSQLiteRecorderTestSuite(t *testing.T) {
	suite.Run(t, new(SQLiteRecorderTestSuite))
}

func (s *SQLiteRecorderTestSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "nested", "history.db")
	rec, err := NewSQLiteRecorder(path, nil)
	s.Require().NoError(err)
	s.rec = rec
}

func (s *SQLiteRecorderTestSuite) TearDownTest() {
	s.Require().NoError(s.rec.Close())
}

func sampleAnalysis(symbol string, at time.Time, closePrice float64) *model.Analysis {
	asOf := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	ind := model.Indicators{}
	for _, name := range model.AllIndicators() {
		v := optional.Some(closePrice)
		if name == model.SMA200 {
			v = optional.None[float64]()
		}
		ind[name] = model.IndicatorSeries{Name: name, Points: []model.IndicatorPoint{{Date: asOf, Value: v}}}
	}
	return &model.Analysis{
		Symbol:     symbol,
		Period:     "1y",
		Indicators: ind,
		Signals: model.SignalSet{
			Symbol: symbol,
			AsOf:   asOf,
			Signals: map[model.SignalName]model.SignalLabel{
				model.SignalRSI:  model.Neutral,
				model.SignalMACD: model.Bullish,
			},
			Omitted: []model.OmittedSignal{{Name: model.SignalPriceVsSMA200, Indicator: model.SMA200, Required: 200, Available: 120}},
		},
		Levels:      model.KeyLevels{Close: closePrice},
		GeneratedAt: at,
	}
}

func (s *SQLiteRecorderTestSuite) TestRecordAndHistory() {
	ctx := context.Background()
	t0 := time.Date(2025, 6, 27, 22, 0, 0, 0, time.UTC)

	s.Require().NoError(s.rec.RecordAnalysis(ctx, sampleAnalysis("AAPL", t0, 190)))
	s.Require().NoError(s.rec.RecordAnalysis(ctx, sampleAnalysis("AAPL", t0.Add(72*time.Hour), 195)))
	s.Require().NoError(s.rec.RecordAnalysis(ctx, sampleAnalysis("MSFT", t0, 420)))

	history, err := s.rec.History(ctx, "AAPL", 0)
	s.Require().NoError(err)
	s.Require().Len(history, 2)

	latest := history[0]
	s.Equal(195.0, latest.Close)
	s.Equal("1y", latest.Period)
	s.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), latest.AsOf)
	s.Equal(t0.Add(72*time.Hour), latest.RecordedAt)
	s.Equal(optional.Some(195.0), latest.Values[model.RSI14])
	s.True(latest.Values[model.SMA200].IsNone())
	s.Equal(model.Bullish, latest.Signals[model.SignalMACD])
	s.Equal(1, latest.Omitted)
	s.NotEmpty(latest.RunID)
	s.NotEqual(history[0].RunID, history[1].RunID)

	limited, err := s.rec.History(ctx, "AAPL", 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	none, err := s.rec.History(ctx, "TSLA", 10)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *SQLiteRecorderTestSuite) TestSignalChanges() {
	ctx := context.Background()
	at := time.Date(2025, 6, 30, 22, 0, 0, 0, time.UTC)

	s.Require().NoError(s.rec.RecordSignalChange(ctx, model.SignalChange{
		Symbol: "AAPL", Name: model.SignalRSI, From: model.Neutral, To: model.Overbought, At: at,
	}))
	s.Require().NoError(s.rec.RecordSignalChange(ctx, model.SignalChange{
		Symbol: "AAPL", Name: model.SignalPriceVsSMA200, From: "", To: model.Bullish, At: at.Add(time.Hour),
	}))

	changes, err := s.rec.Changes(ctx, "AAPL", 10)
	s.Require().NoError(err)
	s.Require().Len(changes, 2)
	s.Equal(model.SignalPriceVsSMA200, changes[0].Name)
	s.Equal(model.SignalLabel(""), changes[0].From)
	s.Equal(model.Overbought, changes[1].To)
	s.Equal(at, changes[1].At)
}

func (s *SQLiteRecorderTestSuite) TestReopenKeepsData() {
	ctx := context.Background()
	path := filepath.Join(s.T().TempDir(), "reopen.db")

	rec, err := NewSQLiteRecorder(path, nil)
	s.Require().NoError(err)
	s.Require().NoError(rec.RecordAnalysis(ctx, sampleAnalysis("SPY", time.Now().UTC(), 500)))
	s.Require().NoError(rec.Close())

	rec, err = NewSQLiteRecorder(path, nil)
	s.Require().NoError(err)
	defer rec.Close()
	history, err := rec.History(ctx, "SPY", 0)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *SQLiteRecorderTestSuite) TestNoopRecorder() {
	var r Recorder = NewNoopRecorder()
	s.NoError(r.RecordAnalysis(context.Background(), sampleAnalysis("X", time.Now(), 1)))
	h, err := r.History(context.Background(), "X", 1)
	s.NoError(err)
	s.Nil(h)
}
