package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// MockFetcher returns deterministic synthetic data for development and testing.
// The same symbol, period and Now always produce the same bars.
type MockFetcher struct {
	Price  float64                     // base price; 0 derives one from the symbol
	Series map[string][]model.PriceBar // fixed bars per symbol, used as-is
	Errors map[string]error            // per-symbol failures
	Now    func() time.Time

	mu    sync.Mutex
	calls map[string]int
}

// NewMockFetcher creates a MockFetcher anchored at a fixed date.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Now: func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) },
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[NormalizeSymbol(symbol)]
}

func (m *MockFetcher) FetchDaily(ctx context.Context, symbol string, period Period) (model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, errors.Wrap(errors.ErrCodeFetchFailed, "mock fetch cancelled", err)
	}
	if err, ok := m.Errors[symbol]; ok {
		return model.PriceSeries{}, err
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	if bars, ok := m.Series[symbol]; ok {
		return model.PriceSeries{Symbol: symbol, Bars: append([]model.PriceBar(nil), bars...), FetchedAt: now()}, nil
	}
	return model.PriceSeries{
		Symbol:    symbol,
		Bars:      GenerateMockBars(symbol, m.Price, period.TradingDays(), now()),
		FetchedAt: now(),
	}, nil
}

// GenerateMockBars builds count weekday bars ending on or before end.
// The path is a seeded random walk around a slow sine so trends and
// reversals both appear.
func GenerateMockBars(symbol string, basePrice float64, count int, end time.Time) []model.PriceBar {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()
	r := rand.New(rand.NewSource(int64(seed)))
	if basePrice <= 0 {
		basePrice = 20 + float64(seed%500)
	}

	dates := make([]time.Time, 0, count)
	d := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for len(dates) < count {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, -1)
	}

	bars := make([]model.PriceBar, count)
	p := basePrice
	for i := 0; i < count; i++ {
		date := dates[count-1-i]
		cycle := 0.004 * math.Sin(float64(i)/20)
		p *= 1 + cycle + (r.Float64()-0.5)*0.03
		open := p * (1 + (r.Float64()-0.5)*0.01)
		bars[i] = model.PriceBar{
			Date:   date,
			Open:   open,
			High:   math.Max(open, p) * (1 + r.Float64()*0.01),
			Low:    math.Min(open, p) * (1 - r.Float64()*0.01),
			Close:  p,
			Volume: 500000 + r.Int63n(5000000),
		}
	}
	return bars
}
