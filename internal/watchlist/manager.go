package watchlist

import (
	"sort"
	"strings"
	"sync"
	"time"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// Manager owns the persisted watchlist. All methods are safe for concurrent use
// and every mutation is written to disk before it returns.
type Manager struct {
	mu       sync.Mutex
	state    *model.WatchlistState
	filePath string
	now      func() time.Time
}

// NewManager loads state from filePath. Tickers in seed are added when the
// stored list is empty, so a fresh install starts from the configured list.
func NewManager(filePath string, seed []string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{state: state, filePath: filePath, now: time.Now}

	if len(state.Tickers) == 0 && len(seed) > 0 {
		for _, t := range seed {
			if t = normalize(t); t != "" && !m.contains(t) {
				state.Tickers = append(state.Tickers, t)
			}
		}
		sort.Strings(state.Tickers)
		if err := m.save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func normalize(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func (m *Manager) contains(ticker string) bool {
	for _, t := range m.state.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// List returns the watched tickers in sorted order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Tickers...)
}

// Add watches ticker. It reports false when the ticker was already watched.
func (m *Manager) Add(ticker string) (bool, error) {
	ticker = normalize(ticker)
	if ticker == "" {
		return false, errors.New(errors.ErrCodeInvalidParameter, "ticker is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contains(ticker) {
		return false, nil
	}
	prev := m.state.Tickers
	next := append(append([]string(nil), prev...), ticker)
	sort.Strings(next)
	m.state.Tickers = next
	if err := m.save(); err != nil {
		m.state.Tickers = prev
		return false, err
	}
	return true, nil
}

// Remove stops watching ticker and forgets its last signals. It reports
// false when the ticker was not watched.
func (m *Manager) Remove(ticker string) (bool, error) {
	ticker = normalize(ticker)

	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, t := range m.state.Tickers {
		if t == ticker {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	prevTickers := m.state.Tickers
	prevLabels, hadLabels := m.state.LastSignals[ticker]
	prevRun, hadRun := m.state.LastRunAt[ticker]

	next := make([]string, 0, len(prevTickers)-1)
	next = append(next, prevTickers[:idx]...)
	m.state.Tickers = append(next, prevTickers[idx+1:]...)
	delete(m.state.LastSignals, ticker)
	delete(m.state.LastRunAt, ticker)
	if err := m.save(); err != nil {
		m.state.Tickers = prevTickers
		if hadLabels {
			m.state.LastSignals[ticker] = prevLabels
		}
		if hadRun {
			m.state.LastRunAt[ticker] = prevRun
		}
		return false, err
	}
	return true, nil
}

// LastSignals returns a copy of the labels stored for ticker, or nil if the
// ticker has never been refreshed.
func (m *Manager) LastSignals(ticker string) map[model.SignalName]model.SignalLabel {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.state.LastSignals[normalize(ticker)]
	if !ok {
		return nil
	}
	out := make(map[model.SignalName]model.SignalLabel, len(prev))
	for k, v := range prev {
		out[k] = v
	}
	return out
}

// LastRunAt returns when ticker was last refreshed.
func (m *Manager) LastRunAt(ticker string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.state.LastRunAt[normalize(ticker)]
	return at, ok
}

// UpdateSignals stores set as the latest labels for its symbol. Symbols that
// are no longer watched are ignored.
func (m *Manager) UpdateSignals(set model.SignalSet) error {
	ticker := normalize(set.Symbol)
	labels := make(map[model.SignalName]model.SignalLabel, len(set.Signals))
	for k, v := range set.Signals {
		labels[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.contains(ticker) {
		return nil
	}
	prevLabels, hadLabels := m.state.LastSignals[ticker]
	prevRun, hadRun := m.state.LastRunAt[ticker]
	m.state.LastSignals[ticker] = labels
	m.state.LastRunAt[ticker] = m.now()
	if err := m.save(); err != nil {
		if hadLabels {
			m.state.LastSignals[ticker] = prevLabels
		} else {
			delete(m.state.LastSignals, ticker)
		}
		if hadRun {
			m.state.LastRunAt[ticker] = prevRun
		} else {
			delete(m.state.LastRunAt, ticker)
		}
		return err
	}
	return nil
}

// State returns a snapshot of the full state.
func (m *Manager) State() model.WatchlistState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	s.Tickers = append([]string(nil), m.state.Tickers...)
	// inner label maps are replaced, never mutated, so the outer copy is enough
	s.LastSignals = make(map[string]map[model.SignalName]model.SignalLabel, len(m.state.LastSignals))
	for k, v := range m.state.LastSignals {
		s.LastSignals[k] = v
	}
	s.LastRunAt = make(map[string]time.Time, len(m.state.LastRunAt))
	for k, v := range m.state.LastRunAt {
		s.LastRunAt[k] = v
	}
	return s
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state, m.now())
}
