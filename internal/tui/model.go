package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"StockResearch/internal/collector"
	"StockResearch/internal/model"
)

// DefaultTicker is pre-filled in the ticker input.
const DefaultTicker = "AAPL"

// Application states.
const (
	StateInput = iota
	StateLoading
	StateResult
)

// Tabs of the result view.
const (
	TabTechnical = iota
	TabSignals
	TabLevels
)

var tabNames = []string{"Technical", "Signals", "Key Levels"}

// Analyzer runs one analysis. *collector.Collector satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, period collector.Period) (*model.Analysis, error)
}

// AnalysisMsg carries a finished analysis back into Update.
type AnalysisMsg struct {
	Symbol   string
	Analysis *model.Analysis
	Err      error
}

// Model is the Bubble Tea model of the terminal dashboard.
type Model struct {
	state    int
	tab      int
	input    textinput.Model
	table    table.Model
	analyzer Analyzer
	period   collector.Period
	ctx      context.Context

	symbol   string
	analysis *model.Analysis
	err      error
	width    int
	height   int
}

// NewModel creates a Model that analyzes over period.
func NewModel(ctx context.Context, analyzer Analyzer, period collector.Period) Model {
	if period == "" {
		period = collector.DefaultPeriod
	}
	return Model{
		state:    StateInput,
		input:    newTickerInput(),
		table:    newIndicatorTable(),
		analyzer: analyzer,
		period:   period,
		ctx:      ctx,
	}
}

func newTickerInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = DefaultTicker
	ti.SetValue(DefaultTicker)
	ti.Focus()
	ti.CharLimit = 20
	ti.Width = 20
	ti.Prompt = "> "
	return ti
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// q is a valid ticker character while typing
			if m.state != StateInput {
				return m, tea.Quit
			}
		case "esc":
			if m.state == StateResult {
				m.state = StateInput
				m.input.Focus()
				return m, textinput.Blink
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case AnalysisMsg:
		if msg.Symbol != m.symbol {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err
			m.state = StateInput
			m.input.Focus()
			return m, textinput.Blink
		}
		m.err = nil
		m.analysis = msg.Analysis
		m.table.SetRows(indicatorRows(msg.Analysis))
		m.tab = TabTechnical
		m.state = StateResult
		return m, nil
	}

	switch m.state {
	case StateInput:
		return m.updateInput(msg)
	case StateResult:
		return m.updateResult(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		symbol := collector.NormalizeSymbol(m.input.Value())
		if symbol == "" {
			symbol = DefaultTicker
		}
		m.symbol = symbol
		m.input.SetValue(symbol)
		m.input.Blur()
		m.state = StateLoading
		return m, m.analyze(symbol)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % len(tabNames)
			return m, nil
		case "shift+tab", "left", "h":
			m.tab = (m.tab + len(tabNames) - 1) % len(tabNames)
			return m, nil
		}
	}
	return m, nil
}

func (m Model) analyze(symbol string) tea.Cmd {
	analyzer, period, ctx := m.analyzer, m.period, m.ctx
	return func() tea.Msg {
		a, err := analyzer.Analyze(ctx, symbol, period)
		return AnalysisMsg{Symbol: symbol, Analysis: a, Err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateInput:
		s.WriteString(TitleStyle.Render("Stock Research"))
		s.WriteString("\n\n")
		s.WriteString("Ticker symbol:\n\n")
		s.WriteString(m.input.View())
		s.WriteString("\n\n")
		if m.err != nil {
			s.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
			s.WriteString("\n\n")
		}
		s.WriteString(HelpStyle.Render("enter: analyze | ctrl+c: quit"))

	case StateLoading:
		s.WriteString(TitleStyle.Render("Stock Research"))
		s.WriteString("\n\n")
		s.WriteString("Analyzing " + m.symbol + " (" + string(m.period) + ")...\n")

	case StateResult:
		s.WriteString(renderHeader(m.analysis))
		s.WriteString("\n\n")
		s.WriteString(renderTabs(m.tab))
		s.WriteString("\n\n")
		switch m.tab {
		case TabTechnical:
			s.WriteString(m.table.View())
			s.WriteString("\n\n")
			s.WriteString(renderCharts(m.analysis))
		case TabSignals:
			s.WriteString(renderSignals(m.analysis))
		case TabLevels:
			s.WriteString(renderLevels(m.analysis))
		}
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("tab/shift+tab: switch | esc: new ticker | q: quit"))
	}

	return s.String()
}
