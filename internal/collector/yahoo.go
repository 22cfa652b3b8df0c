package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Now       func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. An empty baseURL uses DefaultYahooBaseURL.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
		},
		Now: time.Now,
	}
}

// newHTTPClient builds a client that routes through proxyURL when set.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

// FetchDaily downloads daily bars for symbol over period.
// Unknown symbols yield ErrCodeTickerNotFound and an empty result ErrCodeNoDataForPeriod.
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, period Period) (model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), period)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PriceSeries{}, errors.Wrap(errors.ErrCodeFetchFailed, "yahoo request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, errors.Wrapf(errors.ErrCodeFetchFailed, err, "yahoo fetch %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, errors.Wrap(errors.ErrCodeFetchFailed, "yahoo read body", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if resp.StatusCode == http.StatusNotFound ||
		(decodeErr == nil && chart.Chart.Error != nil && chart.Chart.Error.Code == "Not Found") {
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeTickerNotFound, "ticker %s not found", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeFetchFailed, "yahoo: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	if decodeErr != nil {
		return model.PriceSeries{}, errors.Wrap(errors.ErrCodeParseFailed, "yahoo decode", decodeErr)
	}
	if chart.Chart.Error != nil {
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeFetchFailed, "yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataForPeriod, "yahoo: no data for %s over %s", symbol, period)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 || h == 0 || l == 0 || c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.PriceBar{
			// shift into exchange local time so the calendar date is the trading day
			Date:   time.Unix(ts+result.Meta.GMTOffset, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(at(quote.Volume, i)),
		})
	}
	bars = normalizeBars(bars)
	if len(bars) == 0 {
		return model.PriceSeries{}, errors.Newf(errors.ErrCodeNoDataForPeriod, "yahoo: only null bars for %s over %s", symbol, period)
	}

	return model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: f.Now()}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
