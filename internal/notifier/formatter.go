package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
	"StockResearch/internal/strategy"
)

var categoryIcons = map[model.SignalCategory]string{
	model.CategoryTrend:      "🧭",
	model.CategoryMomentum:   "⚡",
	model.CategoryVolatility: "🌊",
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPercent renders a fraction as a signed percentage, e.g. 0.0123 -> "+1.23%".
func FormatPercent(frac float64) string {
	d := decimal.NewFromFloat(frac).Mul(decimal.NewFromInt(100)).Round(2)
	s := d.StringFixed(2)
	if d.IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

// FormatValue renders an optional indicator value, "n/a" when undefined.
func FormatValue(v optional.Option[float64]) string {
	x, err := v.Take()
	if err != nil {
		return "n/a"
	}
	return FormatPrice(x)
}

func formatBias(bias int) string {
	switch {
	case bias > 0:
		return fmt.Sprintf("🟢 bullish lean (%+d)", bias)
	case bias < 0:
		return fmt.Sprintf("🔴 bearish lean (%+d)", bias)
	default:
		return "⚪ mixed (0)"
	}
}

// FormatAnalysisReport formats a full analysis into a Telegram message.
func FormatAnalysisReport(a *model.Analysis) string {
	var b strings.Builder
	lv := a.Levels

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> technical report | %s (%s)\n\n",
		html.EscapeString(a.Symbol), a.Signals.AsOf.Format("2006-01-02"), a.Period))

	// Price and levels
	b.WriteString(fmt.Sprintf("Close: %s", FormatPrice(lv.Close)))
	if change, err := lv.Change().Take(); err == nil {
		b.WriteString(fmt.Sprintf(" (%s)", FormatPercent(change)))
	}
	b.WriteString("\n")
	if last, ok := a.Series.Last(); ok {
		b.WriteString(fmt.Sprintf("Volume: %s\n", humanize.Comma(last.Volume)))
	}
	b.WriteString(fmt.Sprintf("52w range: %s - %s (position %s)\n",
		FormatPrice(lv.Low52w), FormatPrice(lv.High52w),
		decimal.NewFromFloat(lv.Position52w*100).StringFixed(0)+"%"))
	b.WriteString(fmt.Sprintf("Support: %s | Resistance: %s\n\n", FormatValue(lv.Support), FormatValue(lv.Resistance)))

	b.WriteString("📈 <b>Indicators</b>\n")
	for _, name := range model.AllIndicators() {
		b.WriteString(fmt.Sprintf("  %s: %s\n", name, FormatValue(a.Indicators[name].Latest())))
	}

	grouped := a.Signals.ByCategory()
	for _, cat := range model.Categories() {
		entries := grouped[cat]
		if len(entries) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s <b>%s</b>\n", categoryIcons[cat], cat))
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("  %s: %s\n", e.Name, e.Label))
		}
	}

	if len(a.Signals.Omitted) > 0 {
		b.WriteString("\n⏳ <b>Insufficient data</b>\n")
		for _, o := range a.Signals.Omitted {
			b.WriteString(fmt.Sprintf("  %s: needs %d bars, have %d\n", o.Name, o.Required, o.Available))
		}
	}

	b.WriteString(fmt.Sprintf("\nBias: %s\n", formatBias(strategy.Bias(a.Signals))))
	return b.String()
}

func labelOrPlaceholder(l model.SignalLabel) string {
	if l == "" {
		return "(none)"
	}
	return string(l)
}

// FormatSignalChanges formats label transitions for one symbol.
func FormatSignalChanges(symbol string, changes []model.SignalChange) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>%s</b> signal changes\n\n", html.EscapeString(symbol)))
	for _, c := range changes {
		b.WriteString(fmt.Sprintf("  %s: %s → %s\n", c.Name, labelOrPlaceholder(c.From), labelOrPlaceholder(c.To)))
	}
	return b.String()
}

// FormatWatchlist lists watched tickers with their bias and last refresh relative to now.
func FormatWatchlist(state model.WatchlistState, now time.Time) string {
	var b strings.Builder
	b.WriteString("👀 <b>Watchlist</b>\n\n")
	if len(state.Tickers) == 0 {
		b.WriteString("Empty. Add one with /watch TICKER\n")
		return b.String()
	}
	for _, t := range state.Tickers {
		labels, ok := state.LastSignals[t]
		if !ok {
			b.WriteString(fmt.Sprintf("  %s: not refreshed yet\n", t))
			continue
		}
		bias := strategy.Bias(model.SignalSet{Symbol: t, Signals: labels})
		line := fmt.Sprintf("  %s: %s", t, formatBias(bias))
		if at, ok := state.LastRunAt[t]; ok {
			line += ", " + humanize.RelTime(at, now, "ago", "from now")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatError turns an analysis failure into a user-facing line.
func FormatError(symbol string, err error) string {
	symbol = html.EscapeString(symbol)
	var insufficient *errors.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("⏳ %s: not enough price history", symbol)
	case errors.HasCode(err, errors.ErrCodeTickerNotFound):
		return fmt.Sprintf("❓ %s: ticker not found", symbol)
	case errors.HasCode(err, errors.ErrCodeNoDataForPeriod):
		return fmt.Sprintf("❓ %s: no data for this period", symbol)
	case errors.HasCode(err, errors.ErrCodeInvalidParameter), errors.HasCode(err, errors.ErrCodeInvalidPeriod):
		return fmt.Sprintf("⚠️ %s", html.EscapeString(err.Error()))
	default:
		return fmt.Sprintf("❌ %s: analysis failed", symbol)
	}
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /analyze TICKER [period]: full technical report\n" +
		"• /watch TICKER: add to the watchlist\n" +
		"• /unwatch TICKER: remove from the watchlist\n" +
		"• /watchlist: show watched tickers\n" +
		"• /refresh: refresh the watchlist now\n" +
		"• /help: this message"
}
