package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"StockResearch/internal/model"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	HelpStyle  = lipgloss.NewStyle().Faint(true)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("245"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	bullStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	bearStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

// labelStyle colours a label by the direction it implies.
func labelStyle(l model.SignalLabel) lipgloss.Style {
	switch l {
	case model.Bullish, model.Oversold, model.LowerBand:
		return bullStyle
	case model.Bearish, model.Overbought, model.UpperBand:
		return bearStyle
	default:
		return neutralStyle
	}
}

func newIndicatorTable() table.Model {
	columns := []table.Column{
		{Title: "Indicator", Width: 18},
		{Title: "Value", Width: 14},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(len(model.AllIndicators())+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Cell
	t.SetStyles(s)
	return t
}
