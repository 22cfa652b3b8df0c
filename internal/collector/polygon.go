package collector

import (
	"context"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator we use.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregate bars.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonRESTClient struct {
	client *polygon.Client
}

func (c *polygonRESTClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

// PolygonFetcher implements Fetcher using the Polygon.io aggregates API.
type PolygonFetcher struct {
	api PolygonAPIClient
	Now func() time.Time
}

// NewPolygonFetcher creates a fetcher authenticated with apiKey.
func NewPolygonFetcher(apiKey string) (*PolygonFetcher, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}
	return NewPolygonFetcherWithAPI(&polygonRESTClient{client: polygon.New(apiKey)}), nil
}

// NewPolygonFetcherWithAPI creates a fetcher over any PolygonAPIClient.
func NewPolygonFetcherWithAPI(api PolygonAPIClient) *PolygonFetcher {
	return &PolygonFetcher{api: api, Now: time.Now}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// FetchDaily lists one-day aggregates from period.Start(now) to now.
func (f *PolygonFetcher) FetchDaily(ctx context.Context, symbol string, period Period) (model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	now := f.Now()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(period.Start(now)),
		To:         models.Millis(now),
	}.WithAdjusted(true).WithLimit(50000)

	iter := f.api.ListAggs(ctx, params)
	var bars []model.PriceBar
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, model.PriceBar{
			Date:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: int64(agg.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		if isPolygonNotFound(err) {
			return model.PriceSeries{}, errors.Wrapf(errors.ErrCodeTickerNotFound, err, "ticker %s not found", symbol)
		}
		return model.PriceSeries{}, errors.Wrapf(errors.ErrCodeFetchFailed, err, "polygon aggregates %s", symbol)
	}
	if len(bars) == 0 {
		// polygon answers unknown tickers with an empty result set
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataForPeriod, "polygon: no data for %s over %s", symbol, period)
	}

	return model.PriceSeries{Symbol: symbol, Bars: normalizeBars(bars), FetchedAt: now}, nil
}

func isPolygonNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "status code 404")
}
