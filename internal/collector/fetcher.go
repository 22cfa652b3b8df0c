package collector

import (
	"context"
	"sort"
	"strings"
	"time"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, period Period) (model.PriceSeries, error)
	Name() string
}

// Period is a lookback window understood by every provider.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"

	DefaultPeriod = Period1Y
)

// Periods lists the supported periods, shortest first.
func Periods() []Period {
	return []Period{Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y, Period5Y}
}

// ParsePeriod validates s. An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods() {
		if p == known {
			return p, nil
		}
	}
	return "", errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported period %q", s)
}

// TradingDays is the approximate number of daily bars in the period.
func (p Period) TradingDays() int {
	switch p {
	case Period1Mo:
		return 21
	case Period3Mo:
		return 63
	case Period6Mo:
		return 126
	case Period2Y:
		return 504
	case Period5Y:
		return 1260
	default:
		return 252
	}
}

// Start returns the first calendar day covered by the period ending at now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case Period1Mo:
		return now.AddDate(0, -1, 0)
	case Period3Mo:
		return now.AddDate(0, -3, 0)
	case Period6Mo:
		return now.AddDate(0, -6, 0)
	case Period2Y:
		return now.AddDate(-2, 0, 0)
	case Period5Y:
		return now.AddDate(-5, 0, 0)
	default:
		return now.AddDate(-1, 0, 0)
	}
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeBars truncates bar times to UTC calendar dates, sorts ascending
// and keeps the last bar for any repeated date, so the result satisfies
// PriceSeries.Validate ordering.
func normalizeBars(bars []model.PriceBar) []model.PriceBar {
	for i := range bars {
		t := bars[i].Date.UTC()
		bars[i].Date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
