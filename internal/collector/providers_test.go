package collector

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockResearch/internal/errors"
)

type fakeAggsIter struct {
	aggs []models.Agg
	err  error
	pos  int
}

func (it *fakeAggsIter) Next() bool {
	if it.pos >= len(it.aggs) {
		return false
	}
	it.pos++
	return true
}

func (it *fakeAggsIter) Item() models.Agg { return it.aggs[it.pos-1] }
func (it *fakeAggsIter) Err() error       { return it.err }

type fakePolygon struct {
	iter   *fakeAggsIter
	params *models.ListAggsParams
}

func (f *fakePolygon) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	f.params = params
	return f.iter
}

func TestPolygonFetcher_FetchDaily(t *testing.T) {
	day := func(d int) models.Millis {
		return models.Millis(time.Date(2025, 3, d, 5, 0, 0, 0, time.UTC))
	}
	api := &fakePolygon{iter: &fakeAggsIter{aggs: []models.Agg{
		{Timestamp: day(4), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
		{Timestamp: day(3), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 900},
	}}}
	f := NewPolygonFetcherWithAPI(api)
	now := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	f.Now = func() time.Time { return now }

	series, err := f.FetchDaily(context.Background(), "msft", Period1Mo)
	require.NoError(t, err)

	require.NotNil(t, api.params)
	assert.Equal(t, "MSFT", api.params.Ticker)
	assert.Equal(t, models.Day, api.params.Timespan)
	assert.Equal(t, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), time.Time(api.params.From))

	assert.Equal(t, "MSFT", series.Symbol)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), series.Bars[0].Date)
	assert.Equal(t, 10.5, series.Bars[1].Close)
	assert.Equal(t, int64(1000), series.Bars[1].Volume)
}

func TestPolygonFetcher_Errors(t *testing.T) {
	tests := []struct {
		name string
		iter *fakeAggsIter
		code errors.ErrorCode
	}{
		{"empty", &fakeAggsIter{}, errors.ErrCodeNoDataForPeriod},
		{"not found", &fakeAggsIter{err: stderrors.New("bad request: ticker Not Found")}, errors.ErrCodeTickerNotFound},
		{"transport", &fakeAggsIter{err: stderrors.New("connection reset")}, errors.ErrCodeFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPolygonFetcherWithAPI(&fakePolygon{iter: tt.iter})
			_, err := f.FetchDaily(context.Background(), "ZZZZ", Period1Y)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestNewPolygonFetcher_RequiresKey(t *testing.T) {
	_, err := NewPolygonFetcher("")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

type fakeKlines struct {
	pages [][]*binance.Kline
	err   error
	calls []int64
	pair  string
}

func (f *fakeKlines) Klines(_ context.Context, symbol, _ string, start, _ int64, _ int) ([]*binance.Kline, error) {
	f.pair = symbol
	f.calls = append(f.calls, start)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.calls) > len(f.pages) {
		return nil, nil
	}
	return f.pages[len(f.calls)-1], nil
}

func klinePage(from time.Time, n int) []*binance.Kline {
	page := make([]*binance.Kline, n)
	for i := range page {
		open := from.AddDate(0, 0, i)
		price := strconv.FormatFloat(100+float64(i), 'f', 2, 64)
		page[i] = &binance.Kline{
			OpenTime:  open.UnixMilli(),
			CloseTime: open.Add(24*time.Hour - time.Millisecond).UnixMilli(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "12.5",
		}
	}
	return page
}

func TestBinanceFetcher_Paginates(t *testing.T) {
	first := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	page1 := klinePage(first, binanceKlineLimit)
	page2 := klinePage(first.AddDate(0, 0, binanceKlineLimit), 5)
	api := &fakeKlines{pages: [][]*binance.Kline{page1, page2}}

	f := NewBinanceFetcherWithAPI(api)
	f.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	series, err := f.FetchDaily(context.Background(), "btc-usd", Period5Y)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", api.pair)
	require.Len(t, api.calls, 2)
	assert.Equal(t, page1[len(page1)-1].CloseTime+1, api.calls[1])
	assert.Equal(t, "BTCUSDT", series.Symbol)
	assert.Len(t, series.Bars, binanceKlineLimit+5)
	assert.Equal(t, int64(12), series.Bars[0].Volume)
	assert.NoError(t, series.Validate())
}

func TestBinanceFetcher_Errors(t *testing.T) {
	t.Run("invalid symbol", func(t *testing.T) {
		f := NewBinanceFetcherWithAPI(&fakeKlines{err: &common.APIError{Code: -1121, Message: "Invalid symbol."}})
		_, err := f.FetchDaily(context.Background(), "NOPE", Period1Y)
		assert.Equal(t, errors.ErrCodeTickerNotFound, errors.GetCode(err))
	})
	t.Run("other api error", func(t *testing.T) {
		f := NewBinanceFetcherWithAPI(&fakeKlines{err: &common.APIError{Code: -1003, Message: "Too many requests"}})
		_, err := f.FetchDaily(context.Background(), "BTCUSDT", Period1Y)
		assert.Equal(t, errors.ErrCodeFetchFailed, errors.GetCode(err))
	})
	t.Run("no klines", func(t *testing.T) {
		f := NewBinanceFetcherWithAPI(&fakeKlines{})
		_, err := f.FetchDaily(context.Background(), "BTCUSDT", Period1Y)
		assert.Equal(t, errors.ErrCodeNoDataForPeriod, errors.GetCode(err))
	})
	t.Run("bad number", func(t *testing.T) {
		page := klinePage(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1)
		page[0].Close = "n/a"
		f := NewBinanceFetcherWithAPI(&fakeKlines{pages: [][]*binance.Kline{page}})
		_, err := f.FetchDaily(context.Background(), "BTCUSDT", Period1Y)
		assert.Equal(t, errors.ErrCodeParseFailed, errors.GetCode(err))
	})
}

func TestBinanceSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", BinanceSymbol("BTC-USD"))
	assert.Equal(t, "ETHUSDT", BinanceSymbol("eth/usdt"))
	assert.Equal(t, "SOLBTC", BinanceSymbol("sol_btc"))
}
