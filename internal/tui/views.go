package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/moznion/go-optional"

	"StockResearch/internal/model"
	"StockResearch/internal/notifier"
	"StockResearch/internal/strategy"
)

const (
	rangeBarWidth = 30
	sparkWidth    = 60
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

func indicatorRows(a *model.Analysis) []table.Row {
	rows := make([]table.Row, 0, len(model.AllIndicators()))
	for _, name := range model.AllIndicators() {
		rows = append(rows, table.Row{string(name), notifier.FormatValue(a.Indicators[name].Latest())})
	}
	return rows
}

func renderHeader(a *model.Analysis) string {
	line := fmt.Sprintf("%s  %s (%s)  Close %s",
		TitleStyle.Render(a.Symbol), a.Signals.AsOf.Format("2006-01-02"), a.Period,
		notifier.FormatPrice(a.Levels.Close))
	if change, err := a.Levels.Change().Take(); err == nil {
		style := bullStyle
		if change < 0 {
			style = bearStyle
		}
		line += " " + style.Render(notifier.FormatPercent(change))
	}
	if last, ok := a.Series.Last(); ok {
		line += "  Vol " + humanize.Comma(last.Volume)
	}
	return line
}

func renderTabs(active int) string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if i == active {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderSignals(a *model.Analysis) string {
	var b strings.Builder
	grouped := a.Signals.ByCategory()
	omitted := make(map[model.SignalCategory][]model.OmittedSignal)
	for _, o := range a.Signals.Omitted {
		omitted[o.Name.Category()] = append(omitted[o.Name.Category()], o)
	}

	for _, cat := range model.Categories() {
		if len(grouped[cat]) == 0 && len(omitted[cat]) == 0 {
			continue
		}
		b.WriteString(sectionStyle.Render(string(cat)))
		b.WriteString("\n")
		for _, e := range grouped[cat] {
			b.WriteString(fmt.Sprintf("  %-18s %s\n", e.Name, labelStyle(e.Label).Render(string(e.Label))))
		}
		for _, o := range omitted[cat] {
			b.WriteString(fmt.Sprintf("  %-18s %s\n", o.Name,
				HelpStyle.Render(fmt.Sprintf("insufficient data (%d/%d bars)", o.Available, o.Required))))
		}
		b.WriteString("\n")
	}

	bias := strategy.Bias(a.Signals)
	b.WriteString(fmt.Sprintf("Bias: %+d", bias))
	return b.String()
}

func renderLevels(a *model.Analysis) string {
	lv := a.Levels
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Key Levels"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Resistance", notifier.FormatValue(lv.Resistance)))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Current", notifier.FormatPrice(lv.Close)))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Support", notifier.FormatValue(lv.Support)))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("52-week Range"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "High", notifier.FormatPrice(lv.High52w)))
	b.WriteString(fmt.Sprintf("  %-12s %s\n", "Low", notifier.FormatPrice(lv.Low52w)))
	b.WriteString(fmt.Sprintf("  %s %s %s  %.0f%%", notifier.FormatPrice(lv.Low52w), rangeBar(lv.Position52w),
		notifier.FormatPrice(lv.High52w), lv.Position52w*100))
	return b.String()
}

// rangeBar draws a marker at pos (0..1) along a fixed-width track.
func rangeBar(pos float64) string {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	at := int(pos * float64(rangeBarWidth-1))
	return "[" + strings.Repeat("─", at) + "●" + strings.Repeat("─", rangeBarWidth-1-at) + "]"
}

// sparkline draws the last width values scaled into [lo, hi]. Undefined
// points are blank.
func sparkline(values []optional.Option[float64], width int, lo, hi float64) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	top := len(sparkTicks) - 1
	var b strings.Builder
	for _, o := range values {
		v, err := o.Take()
		if err != nil {
			b.WriteRune(' ')
			continue
		}
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		b.WriteRune(sparkTicks[min(max(idx, 0), top)])
	}
	return b.String()
}

// span returns the min and max of the defined values in the trailing window.
func span(values []optional.Option[float64], width int) (lo, hi float64, ok bool) {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	for _, o := range values {
		v, err := o.Take()
		if err != nil {
			continue
		}
		if !ok || v < lo {
			lo = v
		}
		if !ok || v > hi {
			hi = v
		}
		ok = true
	}
	return lo, hi, ok
}

func pointValues(s model.IndicatorSeries) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// renderCharts draws close, RSI and MACD histogram sparklines over the most
// recent bars.
func renderCharts(a *model.Analysis) string {
	closes := make([]optional.Option[float64], a.Series.Len())
	for i, c := range a.Series.Closes() {
		closes[i] = optional.Some(c)
	}
	macd := pointValues(a.Indicators[model.MACD])
	sig := pointValues(a.Indicators[model.MACDSignal])
	hist := make([]optional.Option[float64], len(macd))
	for i := range macd {
		m, errM := macd[i].Take()
		if i >= len(sig) || errM != nil {
			continue
		}
		if sv, err := sig[i].Take(); err == nil {
			hist[i] = optional.Some(m - sv)
		}
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Last %d bars", min(sparkWidth, a.Series.Len()))))
	b.WriteString("\n")
	if lo, hi, ok := span(closes, sparkWidth); ok {
		b.WriteString(fmt.Sprintf("  %-10s %s  %s-%s\n", "Close", sparkline(closes, sparkWidth, lo, hi),
			notifier.FormatPrice(lo), notifier.FormatPrice(hi)))
	}
	b.WriteString(fmt.Sprintf("  %-10s %s  30/70\n", "RSI(14)",
		sparkline(pointValues(a.Indicators[model.RSI14]), sparkWidth, 0, 100)))
	if lo, hi, ok := span(hist, sparkWidth); ok {
		b.WriteString(fmt.Sprintf("  %-10s %s  %.2f..%.2f", "MACD hist", sparkline(hist, sparkWidth, lo, hi), lo, hi))
	} else {
		b.WriteString(fmt.Sprintf("  %-10s %s", "MACD hist", HelpStyle.Render("insufficient data")))
	}
	return b.String()
}
