package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockResearch/internal/calculator"
	"StockResearch/internal/errors"
	"StockResearch/internal/logger"
	"StockResearch/internal/metrics"
	"StockResearch/internal/model"
	"StockResearch/internal/strategy"
)

// Collector orchestrates data fetching, indicator computation and signal classification.
type Collector struct {
	Fetcher     Fetcher
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	Concurrency int
	Now         func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log *logger.Logger, m *metrics.Metrics) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Collector{Fetcher: fetcher, Logger: log, Metrics: m, Concurrency: 4, Now: time.Now}
}

// Analyze fetches symbol over period and runs the indicator engine on it.
func (c *Collector) Analyze(ctx context.Context, symbol string, period Period) (*model.Analysis, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "ticker is required")
	}

	fetchStart := time.Now()
	series, err := c.Fetcher.FetchDaily(ctx, symbol, period)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(fetchStart))
	if err != nil {
		return nil, c.fail(symbol, fmt.Errorf("fetch %s: %w", symbol, err))
	}

	computeStart := time.Now()
	ind, err := calculator.ComputeIndicators(series)
	if err != nil {
		return nil, c.fail(symbol, fmt.Errorf("compute indicators %s: %w", symbol, err))
	}
	signals, err := strategy.ClassifySignals(series, ind)
	if err != nil {
		return nil, c.fail(symbol, fmt.Errorf("classify signals %s: %w", symbol, err))
	}
	levels, err := calculator.KeyLevels(series, ind)
	if err != nil {
		return nil, c.fail(symbol, fmt.Errorf("key levels %s: %w", symbol, err))
	}
	c.Metrics.ObserveCompute(time.Since(computeStart))
	c.Metrics.ObserveAnalysis(Outcome(nil))

	for _, o := range signals.Omitted {
		c.Logger.Debug("signal omitted",
			zap.String("symbol", symbol),
			zap.String("signal", string(o.Name)),
			zap.Int("required", o.Required),
			zap.Int("available", o.Available))
	}
	c.Logger.Info("analysis complete",
		zap.String("symbol", symbol),
		zap.String("period", string(period)),
		zap.Int("bars", series.Len()),
		zap.Int("signals", len(signals.Signals)),
		zap.Duration("elapsed", time.Since(fetchStart)))

	return &model.Analysis{
		Symbol:      symbol,
		Period:      string(period),
		Series:      series,
		Indicators:  ind,
		Signals:     signals,
		Levels:      levels,
		GeneratedAt: c.Now(),
	}, nil
}

func (c *Collector) fail(symbol string, err error) error {
	outcome := Outcome(err)
	c.Metrics.ObserveAnalysis(outcome)
	c.Logger.Warn("analysis failed",
		zap.String("symbol", symbol),
		zap.String("outcome", outcome),
		zap.Error(err))
	return err
}

// Outcome classifies an analysis error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.IsInsufficientDataError(err):
		return "insufficient_data"
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeTickerNotFound, errors.ErrCodeNoDataForPeriod:
		return "not_found"
	case errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidPeriod:
		return "invalid"
	default:
		return "error"
	}
}

// Result is the outcome of one symbol in AnalyzeMany.
type Result struct {
	Symbol   string
	Analysis *model.Analysis
	Err      error
}

// AnalyzeMany analyzes symbols with at most Concurrency in flight.
// Results keep the order of symbols; onDone, if set, is called as each one finishes.
func (c *Collector) AnalyzeMany(ctx context.Context, symbols []string, period Period, onDone func(Result)) []Result {
	limit := c.Concurrency
	if limit <= 0 {
		limit = 1
	}
	results := make([]Result, len(symbols))
	sem := make(chan struct{}, limit)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			a, err := c.Analyze(ctx, symbol, period)
			r := Result{Symbol: NormalizeSymbol(symbol), Analysis: a, Err: err}
			results[i] = r
			if onDone != nil {
				mu.Lock()
				onDone(r)
				mu.Unlock()
			}
		}(i, symbol)
	}
	wg.Wait()
	return results
}
