package calculator

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

func seriesFromCloses(closes []float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return model.PriceSeries{Symbol: "TEST", Bars: bars}
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price *= 1 + (r.Float64()-0.5)*0.06
		closes[i] = price
	}
	return closes
}

func ramp(from float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)
	}
	return out
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func latest(t *testing.T, ind model.Indicators, name model.IndicatorName) float64 {
	t.Helper()
	v, err := ind[name].Latest().Take()
	require.NoError(t, err, "%s should be defined at the latest date", name)
	return v
}

func TestComputeIndicators_EmptySeries(t *testing.T) {
	_, err := ComputeIndicators(model.PriceSeries{Symbol: "EMPTY"})
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestComputeIndicators_MalformedSeries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.PriceSeries)
		detail string
	}{
		{"duplicate date", func(s *model.PriceSeries) { s.Bars[2].Date = s.Bars[1].Date }, "is not after"},
		{"nan close", func(s *model.PriceSeries) { s.Bars[1].Close = math.NaN() }, "invalid price"},
		{"zero close", func(s *model.PriceSeries) { s.Bars[1].Close = 0 }, "invalid price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seriesFromCloses([]float64{10, 11, 12})
			tt.mutate(&s)
			ind, err := ComputeIndicators(s)
			require.Error(t, err)
			assert.Nil(t, ind)
			assert.True(t, errors.IsInsufficientDataError(err))
			assert.Equal(t, errors.ErrCodeInsufficientData, errors.GetCode(err))
			assert.Contains(t, err.Error(), "malformed series")
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestComputeIndicators_SameDateDomain(t *testing.T) {
	s := seriesFromCloses(randomWalk(60, 1))
	ind, err := ComputeIndicators(s)
	require.NoError(t, err)
	require.Len(t, ind, len(model.AllIndicators()))
	for _, name := range model.AllIndicators() {
		got, ok := ind[name]
		require.True(t, ok, "missing %s", name)
		assert.Equal(t, name, got.Name)
		require.Equal(t, s.Len(), got.Len(), "%s length", name)
		for i, p := range got.Points {
			assert.True(t, p.Date.Equal(s.Bars[i].Date), "%s date %d", name, i)
		}
	}
}

func TestSMA_UndefinedRegion(t *testing.T) {
	for _, n := range []int{1, 5, 19, 20, 21, 250} {
		closes := randomWalk(n, int64(n))
		for _, w := range []int{20, 50, 200} {
			values, err := SMA(closes, w)
			require.NoError(t, err)
			require.Len(t, values, n)
			wantUndefined := w - 1
			if n < w {
				wantUndefined = n
			}
			undefined := 0
			for i, v := range values {
				if v.IsNone() {
					undefined++
					assert.Less(t, i, w-1)
				}
			}
			assert.Equal(t, wantUndefined, undefined, "n=%d w=%d", n, w)
		}
	}
}

func TestSMA_InvalidWindow(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func TestIncreasingTwentyBars(t *testing.T) {
	ind, err := ComputeIndicators(seriesFromCloses(ramp(10, 20)))
	require.NoError(t, err)

	assert.Equal(t, 19.5, latest(t, ind, model.SMA20))

	upper := latest(t, ind, model.BollingerUpper)
	middle := latest(t, ind, model.BollingerMiddle)
	lower := latest(t, ind, model.BollingerLower)
	assert.Equal(t, 19.5, middle)
	assert.Greater(t, upper, middle)
	assert.Greater(t, middle, lower)
	// population stdev of 20 consecutive integers is sqrt((20^2-1)/12)
	assert.InDelta(t, 2*math.Sqrt(399.0/12.0), upper-middle, 1e-9)
}

func TestRSI_AllGainsSaturates(t *testing.T) {
	ind, err := ComputeIndicators(seriesFromCloses(ramp(50, 30)))
	require.NoError(t, err)
	rsi := ind[model.RSI14]
	assert.Equal(t, RSIPeriod, rsi.FirstDefined())
	for i := RSIPeriod; i < rsi.Len(); i++ {
		v, err := rsi.At(i).Take()
		require.NoError(t, err)
		assert.Equal(t, 100.0, v)
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	closes := ramp(100, 20)
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}
	values, err := RSI(closes, RSIPeriod)
	require.NoError(t, err)
	v, err := values[len(values)-1].Take()
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestRSI_HandComputed(t *testing.T) {
	// deltas +1, -0.5: avgGain 0.5, avgLoss 0.25, RS 2
	values, err := RSI([]float64{1, 2, 1.5}, 2)
	require.NoError(t, err)
	assert.True(t, values[0].IsNone())
	assert.True(t, values[1].IsNone())
	v, err := values[2].Take()
	require.NoError(t, err)
	assert.InDelta(t, 100.0-100.0/3.0, v, 1e-12)
}

func TestRSI_BoundedOnRandomSeries(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		values, err := RSI(randomWalk(120, seed), RSIPeriod)
		require.NoError(t, err)
		for i, v := range values {
			if i < RSIPeriod {
				assert.True(t, v.IsNone())
				continue
			}
			x, err := v.Take()
			require.NoError(t, err)
			assert.False(t, math.IsNaN(x))
			assert.GreaterOrEqual(t, x, 0.0)
			assert.LessOrEqual(t, x, 100.0)
		}
	}
}

func TestFlatSeries(t *testing.T) {
	ind, err := ComputeIndicators(seriesFromCloses(flat(42.7, 40)))
	require.NoError(t, err)

	for i := RSIPeriod; i < 40; i++ {
		v, err := ind[model.RSI14].At(i).Take()
		require.NoError(t, err)
		assert.Equal(t, RSINeutral, v)
	}
	for _, name := range []model.IndicatorName{model.MACD, model.MACDSignal} {
		for i, p := range ind[name].Points {
			v, err := p.Value.Take()
			require.NoError(t, err)
			assert.Equal(t, 0.0, v, "%s at %d", name, i)
		}
	}
	for i := BollingerWindow - 1; i < 40; i++ {
		mid, _ := ind[model.BollingerMiddle].At(i).Take()
		up, _ := ind[model.BollingerUpper].At(i).Take()
		lo, _ := ind[model.BollingerLower].At(i).Take()
		assert.Equal(t, 42.7, mid)
		assert.Equal(t, mid, up)
		assert.Equal(t, mid, lo)
	}
}

func TestMACD_DefinedEverywhere(t *testing.T) {
	for _, n := range []int{1, 2, 26, 100} {
		ind, err := ComputeIndicators(seriesFromCloses(randomWalk(n, int64(n))))
		require.NoError(t, err)
		assert.Equal(t, n, ind[model.MACD].Defined())
		assert.Equal(t, n, ind[model.MACDSignal].Defined())
		assert.Equal(t, 0, ind[model.MACD].FirstDefined())
	}
}

func TestMACD_SingleBarIsZero(t *testing.T) {
	line, sig, err := MACD([]float64{123.4}, MACDFast, MACDSlow, MACDSignal)
	require.NoError(t, err)
	assert.Equal(t, 0.0, line[0].Unwrap())
	assert.Equal(t, 0.0, sig[0].Unwrap())
}

func TestMACD_InvalidPeriods(t *testing.T) {
	_, _, err := MACD([]float64{1, 2, 3}, 26, 12, 9)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func TestEMA_Recursion(t *testing.T) {
	values, err := EMA([]float64{10, 20, 30}, 3)
	require.NoError(t, err)
	// k = 0.5
	assert.Equal(t, 10.0, values[0].Unwrap())
	assert.Equal(t, 15.0, values[1].Unwrap())
	assert.Equal(t, 22.5, values[2].Unwrap())
}

func TestComputeIndicators_Idempotent(t *testing.T) {
	s := seriesFromCloses(randomWalk(300, 7))
	first, err := ComputeIndicators(s)
	require.NoError(t, err)
	second, err := ComputeIndicators(s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeIndicators_DoesNotMutateInput(t *testing.T) {
	s := seriesFromCloses(randomWalk(50, 3))
	before := append([]model.PriceBar(nil), s.Bars...)
	_, err := ComputeIndicators(s)
	require.NoError(t, err)
	assert.Equal(t, before, s.Bars)
}

func TestAgainstTalib(t *testing.T) {
	closes := randomWalk(260, 11)

	sma, err := SMA(closes, 50)
	require.NoError(t, err)
	ref := talib.Sma(closes, 50)
	for i := 49; i < len(closes); i++ {
		assert.InDelta(t, ref[i], sma[i].Unwrap(), 1e-6, "sma50 at %d", i)
	}

	bands, err := Bollinger(closes, BollingerWindow, BollingerWidth)
	require.NoError(t, err)
	upper, middle, lower := talib.BBands(closes, BollingerWindow, BollingerWidth, BollingerWidth, talib.SMA)
	for i := BollingerWindow - 1; i < len(closes); i++ {
		assert.InDelta(t, upper[i], bands.Upper[i].Unwrap(), 1e-6, "upper at %d", i)
		assert.InDelta(t, middle[i], bands.Middle[i].Unwrap(), 1e-6, "middle at %d", i)
		assert.InDelta(t, lower[i], bands.Lower[i].Unwrap(), 1e-6, "lower at %d", i)
	}
}

func TestCalculate52WeekRange(t *testing.T) {
	closes := append(flat(500, 10), ramp(100, 252)...)
	s := seriesFromCloses(closes)
	high, low, err := Calculate52WeekRange(s.Bars)
	require.NoError(t, err)
	// the 500s fall outside the window
	assert.InDelta(t, 351*1.01, high, 1e-9)
	assert.InDelta(t, 100*0.99, low, 1e-9)

	_, _, err = Calculate52WeekRange(nil)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestCalculate52WeekPosition(t *testing.T) {
	tests := []struct {
		current, high, low, want float64
	}{
		{150, 200, 100, 0.5},
		{90, 200, 100, 0},
		{250, 200, 100, 1},
		{100, 100, 100, 0.5},
	}
	for _, tt := range tests {
		got, err := Calculate52WeekPosition(tt.current, tt.high, tt.low)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := Calculate52WeekPosition(1, 1, 2)
	assert.Error(t, err)
}

func TestKeyLevels(t *testing.T) {
	s := seriesFromCloses(ramp(10, 30))
	ind, err := ComputeIndicators(s)
	require.NoError(t, err)
	levels, err := KeyLevels(s, ind)
	require.NoError(t, err)

	assert.Equal(t, 39.0, levels.Close)
	assert.Equal(t, 38.0, levels.PrevClose.Unwrap())
	assert.Equal(t, latest(t, ind, model.BollingerLower), levels.Support.Unwrap())
	assert.Equal(t, latest(t, ind, model.BollingerUpper), levels.Resistance.Unwrap())
	assert.Greater(t, levels.Position52w, 0.9)
	assert.InDelta(t, 1.0/38.0, levels.Change().Unwrap(), 1e-12)
}

func TestKeyLevels_ShortSeriesHasNoBands(t *testing.T) {
	s := seriesFromCloses([]float64{10})
	ind, err := ComputeIndicators(s)
	require.NoError(t, err)
	levels, err := KeyLevels(s, ind)
	require.NoError(t, err)
	assert.True(t, levels.Support.IsNone())
	assert.True(t, levels.Resistance.IsNone())
	assert.True(t, levels.PrevClose.IsNone())
	assert.True(t, levels.Change().IsNone())
}
