package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorName identifies one derived series.
type IndicatorName string

const (
	SMA20           IndicatorName = "SMA20"
	SMA50           IndicatorName = "SMA50"
	SMA200          IndicatorName = "SMA200"
	RSI14           IndicatorName = "RSI14"
	MACD            IndicatorName = "MACD"
	MACDSignal      IndicatorName = "MACDSignal"
	BollingerMiddle IndicatorName = "BollingerMiddle"
	BollingerUpper  IndicatorName = "BollingerUpper"
	BollingerLower  IndicatorName = "BollingerLower"
)

// AllIndicators lists every indicator in display order.
func AllIndicators() []IndicatorName {
	return []IndicatorName{
		SMA20, SMA50, SMA200,
		RSI14,
		MACD, MACDSignal,
		BollingerMiddle, BollingerUpper, BollingerLower,
	}
}

// IndicatorPoint is one dated value. Value is None while the lookback
// window is not yet satisfied.
type IndicatorPoint struct {
	Date  time.Time
	Value optional.Option[float64]
}

// IndicatorSeries is a derived series over the same dates as its input.
type IndicatorSeries struct {
	Name   IndicatorName
	Points []IndicatorPoint
}

// Len returns the number of points, defined or not.
func (s IndicatorSeries) Len() int {
	return len(s.Points)
}

// At returns the value at position i, or None when out of range.
func (s IndicatorSeries) At(i int) optional.Option[float64] {
	if i < 0 || i >= len(s.Points) {
		return optional.None[float64]()
	}
	return s.Points[i].Value
}

// Latest returns the value at the last date.
func (s IndicatorSeries) Latest() optional.Option[float64] {
	return s.At(len(s.Points) - 1)
}

// Defined counts the points that carry a value.
func (s IndicatorSeries) Defined() int {
	n := 0
	for _, p := range s.Points {
		if p.Value.IsSome() {
			n++
		}
	}
	return n
}

// FirstDefined returns the index of the first defined point, or -1.
func (s IndicatorSeries) FirstDefined() int {
	for i, p := range s.Points {
		if p.Value.IsSome() {
			return i
		}
	}
	return -1
}

// Indicators maps each indicator name to its series.
type Indicators map[IndicatorName]IndicatorSeries

// KeyLevels summarises where the latest close sits relative to nearby levels.
type KeyLevels struct {
	Close       float64
	PrevClose   optional.Option[float64]
	Support     optional.Option[float64] // lower Bollinger band
	Resistance  optional.Option[float64] // upper Bollinger band
	High52w     float64
	Low52w      float64
	Position52w float64 // 0.0 ~ 1.0
}

// Change returns the close-to-close change as a fraction, if a previous close exists.
func (k KeyLevels) Change() optional.Option[float64] {
	prev, err := k.PrevClose.Take()
	if err != nil || prev == 0 {
		return optional.None[float64]()
	}
	return optional.Some((k.Close - prev) / prev)
}
