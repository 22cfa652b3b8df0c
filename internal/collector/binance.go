package collector

import (
	"context"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// binanceKlineLimit is the maximum number of klines per Binance request.
const binanceKlineLimit = 1000

// binanceInvalidSymbol is the Binance API error code for an unknown pair.
const binanceInvalidSymbol = -1121

// BinanceKlinesAPI fetches one page of klines.
type BinanceKlinesAPI interface {
	Klines(ctx context.Context, symbol, interval string, startMillis, endMillis int64, limit int) ([]*binance.Kline, error)
}

type binanceRESTClient struct {
	client *binance.Client
}

func (c *binanceRESTClient) Klines(ctx context.Context, symbol, interval string, startMillis, endMillis int64, limit int) ([]*binance.Kline, error) {
	return c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startMillis).
		EndTime(endMillis).
		Limit(limit).
		Do(ctx)
}

// BinanceFetcher implements Fetcher with Binance spot daily klines, for crypto pairs.
type BinanceFetcher struct {
	api BinanceKlinesAPI
	Now func() time.Time
}

// NewBinanceFetcher creates a fetcher using the public Binance market data endpoints.
func NewBinanceFetcher() *BinanceFetcher {
	return NewBinanceFetcherWithAPI(&binanceRESTClient{client: binance.NewClient("", "")})
}

// NewBinanceFetcherWithAPI creates a fetcher over any BinanceKlinesAPI.
func NewBinanceFetcherWithAPI(api BinanceKlinesAPI) *BinanceFetcher {
	return &BinanceFetcher{api: api, Now: time.Now}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// BinanceSymbol maps "BTC-USD" or "eth/usdt" style tickers to Binance pairs.
func BinanceSymbol(symbol string) string {
	s := NormalizeSymbol(symbol)
	s = strings.NewReplacer("-", "", "/", "", "_", "").Replace(s)
	if strings.HasSuffix(s, "USD") {
		s += "T"
	}
	return s
}

// FetchDaily pages through daily klines from period.Start(now) to now.
func (f *BinanceFetcher) FetchDaily(ctx context.Context, symbol string, period Period) (model.PriceSeries, error) {
	pair := BinanceSymbol(symbol)
	now := f.Now()
	start := period.Start(now).UnixMilli()
	end := now.UnixMilli()

	var bars []model.PriceBar
	for start < end {
		klines, err := f.api.Klines(ctx, pair, "1d", start, end, binanceKlineLimit)
		if err != nil {
			var apiErr *common.APIError
			if errors.As(err, &apiErr) && apiErr.Code == binanceInvalidSymbol {
				return model.PriceSeries{}, errors.Wrapf(errors.ErrCodeTickerNotFound, err, "pair %s not found", pair)
			}
			return model.PriceSeries{}, errors.Wrapf(errors.ErrCodeFetchFailed, err, "binance klines %s", pair)
		}
		for _, k := range klines {
			bar, err := parseKline(k)
			if err != nil {
				return model.PriceSeries{}, err
			}
			bars = append(bars, bar)
		}
		if len(klines) < binanceKlineLimit {
			break
		}
		start = klines[len(klines)-1].CloseTime + 1
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataForPeriod, "binance: no data for %s over %s", pair, period)
	}

	return model.PriceSeries{Symbol: pair, Bars: normalizeBars(bars), FetchedAt: now}, nil
}

func parseKline(k *binance.Kline) (model.PriceBar, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	values := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.PriceBar{}, errors.Wrapf(errors.ErrCodeParseFailed, err, "kline field %q", s)
		}
		values[i] = v
	}
	return model.PriceBar{
		Date:   time.UnixMilli(k.OpenTime),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: int64(values[4]),
	}, nil
}
