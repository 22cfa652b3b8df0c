package model

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockResearch/internal/errors"
)

func bars(n int) []PriceBar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]PriceBar, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}
	return out
}

func TestPriceSeriesValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]PriceBar) []PriceBar
		code   errors.ErrorCode
	}{
		{"ok", func(b []PriceBar) []PriceBar { return b }, 0},
		{"empty", func([]PriceBar) []PriceBar { return nil }, errors.ErrCodeInsufficientData},
		{"duplicate date", func(b []PriceBar) []PriceBar { b[2].Date = b[1].Date; return b }, errors.ErrCodeInsufficientData},
		{"descending", func(b []PriceBar) []PriceBar { b[0], b[1] = b[1], b[0]; return b }, errors.ErrCodeInsufficientData},
		{"zero close", func(b []PriceBar) []PriceBar { b[1].Close = 0; return b }, errors.ErrCodeInsufficientData},
		{"nan high", func(b []PriceBar) []PriceBar { b[1].High = math.NaN(); return b }, errors.ErrCodeInsufficientData},
		{"negative volume", func(b []PriceBar) []PriceBar { b[1].Volume = -1; return b }, errors.ErrCodeInsufficientData},
		{"missing date", func(b []PriceBar) []PriceBar { b[0].Date = time.Time{}; return b }, errors.ErrCodeInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := PriceSeries{Symbol: "X", Bars: tt.mutate(bars(3))}
			err := s.Validate()
			if tt.code == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestPriceSeriesAccessors(t *testing.T) {
	s := PriceSeries{Bars: bars(3)}
	assert.Equal(t, []float64{100, 101, 102}, s.Closes())
	assert.Len(t, s.Dates(), 3)
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 102.0, last.Close)

	_, ok = PriceSeries{}.Last()
	assert.False(t, ok)
}

func TestIndicatorSeries(t *testing.T) {
	s := IndicatorSeries{Name: SMA20, Points: []IndicatorPoint{
		{Value: optional.None[float64]()},
		{Value: optional.Some(1.5)},
		{Value: optional.Some(2.5)},
	}}
	assert.Equal(t, 2, s.Defined())
	assert.Equal(t, 1, s.FirstDefined())
	assert.Equal(t, 2.5, s.Latest().Unwrap())
	assert.True(t, s.At(-1).IsNone())
	assert.True(t, s.At(3).IsNone())
	assert.True(t, IndicatorSeries{}.Latest().IsNone())
	assert.Equal(t, -1, IndicatorSeries{}.FirstDefined())
}

func TestSignalSetOrdering(t *testing.T) {
	set := SignalSet{Signals: map[SignalName]SignalLabel{
		SignalBollinger:    MiddleBand,
		SignalRSI:          Neutral,
		SignalPriceVsSMA20: Bullish,
		SignalMACD:         Bearish,
	}}
	ordered := set.Ordered()
	require.Len(t, ordered, 4)
	assert.Equal(t, SignalPriceVsSMA20, ordered[0].Name)
	assert.Equal(t, SignalRSI, ordered[1].Name)
	assert.Equal(t, SignalMACD, ordered[2].Name)
	assert.Equal(t, SignalBollinger, ordered[3].Name)

	groups := set.ByCategory()
	assert.Len(t, groups[CategoryTrend], 1)
	assert.Len(t, groups[CategoryMomentum], 2)
	assert.Len(t, groups[CategoryVolatility], 1)

	label, ok := set.Get(SignalRSI)
	assert.True(t, ok)
	assert.Equal(t, Neutral, label)
	_, ok = set.Get(SignalPriceVsSMA200)
	assert.False(t, ok)
}
