package watchlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

func TestManager_SeedAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "watchlist.json")

	m, err := NewManager(path, []string{"msft", " aapl ", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, m.List())

	added, err := m.Add("nvda")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = m.Add("NVDA")
	require.NoError(t, err)
	assert.False(t, added)

	reopened, err := NewManager(path, []string{"IGNORED"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, reopened.List())
}

func TestManager_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path, []string{"AAPL", "SPY"})
	require.NoError(t, err)
	require.NoError(t, m.UpdateSignals(model.SignalSet{
		Symbol:  "SPY",
		Signals: map[model.SignalName]model.SignalLabel{model.SignalRSI: model.Neutral},
	}))

	removed, err := m.Remove("spy")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Nil(t, m.LastSignals("SPY"))
	_, ok := m.LastRunAt("SPY")
	assert.False(t, ok)

	removed, err = m.Remove("SPY")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"AAPL"}, m.List())
}

func TestManager_AddRejectsEmpty(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "w.json"), nil)
	require.NoError(t, err)
	_, err = m.Add("  ")
	assert.Equal(t, errors.ErrCodeInvalidParameter, errors.GetCode(err))
	assert.Empty(t, m.List())
}

func TestManager_UpdateSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path, []string{"AAPL"})
	require.NoError(t, err)
	at := time.Date(2025, 6, 30, 22, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	assert.Nil(t, m.LastSignals("AAPL"))

	labels := map[model.SignalName]model.SignalLabel{
		model.SignalRSI:  model.Overbought,
		model.SignalMACD: model.Bullish,
	}
	require.NoError(t, m.UpdateSignals(model.SignalSet{Symbol: "aapl", Signals: labels}))

	got := m.LastSignals("AAPL")
	assert.Equal(t, labels, got)
	got[model.SignalRSI] = model.Neutral
	assert.Equal(t, model.Overbought, m.LastSignals("AAPL")[model.SignalRSI])

	last, ok := m.LastRunAt("AAPL")
	require.True(t, ok)
	assert.Equal(t, at, last)

	reopened, err := NewManager(path, nil)
	require.NoError(t, err)
	assert.Equal(t, labels, reopened.LastSignals("AAPL"))
	state := reopened.State()
	assert.Equal(t, at, state.UpdatedAt.UTC())
}

// breakStorage points m at a path whose parent is a regular file so every
// save fails.
func breakStorage(t *testing.T, m *Manager) {
	t.Helper()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	m.filePath = filepath.Join(blocker, "watchlist.json")
}

func TestManager_UpdateSignalsIgnoresUnwatched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path, []string{"AAPL", "SPY"})
	require.NoError(t, err)

	removed, err := m.Remove("SPY")
	require.NoError(t, err)
	require.True(t, removed)

	require.NoError(t, m.UpdateSignals(model.SignalSet{
		Symbol:  "SPY",
		Signals: map[model.SignalName]model.SignalLabel{model.SignalRSI: model.Overbought},
	}))
	assert.Nil(t, m.LastSignals("SPY"))
	_, ok := m.LastRunAt("SPY")
	assert.False(t, ok)

	added, err := m.Add("SPY")
	require.NoError(t, err)
	require.True(t, added)
	assert.Nil(t, m.LastSignals("SPY"))

	reopened, err := NewManager(path, nil)
	require.NoError(t, err)
	assert.Nil(t, reopened.LastSignals("SPY"))
}

func TestManager_FailedSaveLeavesStateUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	m, err := NewManager(path, []string{"AAPL", "SPY"})
	require.NoError(t, err)
	labels := map[model.SignalName]model.SignalLabel{model.SignalMACD: model.Bullish}
	require.NoError(t, m.UpdateSignals(model.SignalSet{Symbol: "SPY", Signals: labels}))
	before := m.State()

	breakStorage(t, m)

	added, err := m.Add("NVDA")
	assert.False(t, added)
	assert.Equal(t, errors.ErrCodeStorageFailed, errors.GetCode(err))

	removed, err := m.Remove("SPY")
	assert.False(t, removed)
	assert.Equal(t, errors.ErrCodeStorageFailed, errors.GetCode(err))

	err = m.UpdateSignals(model.SignalSet{
		Symbol:  "AAPL",
		Signals: map[model.SignalName]model.SignalLabel{model.SignalRSI: model.Oversold},
	})
	assert.Equal(t, errors.ErrCodeStorageFailed, errors.GetCode(err))

	assert.Equal(t, before, m.State())
	assert.Equal(t, []string{"AAPL", "SPY"}, m.List())
	assert.Equal(t, labels, m.LastSignals("SPY"))
	assert.Nil(t, m.LastSignals("AAPL"))
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadState(path)
	assert.Equal(t, errors.ErrCodeStorageFailed, errors.GetCode(err))
}

func TestLoadState_Missing(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, state.Tickers)
	assert.NotNil(t, state.LastSignals)
}
