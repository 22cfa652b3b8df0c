package model

import (
	"fmt"
	"math"
	"time"

	"StockResearch/internal/errors"
)

// PriceBar represents a single trading-day observation.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries holds daily bars for one symbol, ascending by date.
// The engine only reads it; callers must not mutate Bars once handed over.
type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar. ok is false for an empty series.
func (s PriceSeries) Last() (bar PriceBar, ok bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts the close prices in bar order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates extracts the bar dates in order.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		dates[i] = b.Date
	}
	return dates
}

// Validate checks the series is usable by the indicator engine. Empty and
// malformed series are both reported as an InsufficientDataError; Actual
// counts the leading bars that passed.
func (s PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return &errors.InsufficientDataError{
			Required: 1,
			Actual:   0,
			Symbol:   s.Symbol,
			Message:  "price series is empty",
		}
	}
	for i, b := range s.Bars {
		if b.Date.IsZero() {
			return s.malformed(i, "bar %d has no date", i)
		}
		for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return s.malformed(i, "bar %s has invalid price %v", b.Date.Format(time.DateOnly), p)
			}
		}
		if b.Volume < 0 {
			return s.malformed(i, "bar %s has negative volume", b.Date.Format(time.DateOnly))
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return s.malformed(i, "bar %s is not after %s",
				b.Date.Format(time.DateOnly), s.Bars[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

func (s PriceSeries) malformed(valid int, format string, args ...any) error {
	return errors.NewInsufficientDataErrorf(len(s.Bars), valid, s.Symbol,
		"%s: malformed series: %s", s.Symbol, fmt.Sprintf(format, args...))
}
