package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// LoadState reads the watchlist state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.WatchlistState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return newState(), nil
		}
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "read %s", filePath)
	}
	state := newState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "decode %s", filePath)
	}
	if state.LastSignals == nil {
		state.LastSignals = make(map[string]map[model.SignalName]model.SignalLabel)
	}
	if state.LastRunAt == nil {
		state.LastRunAt = make(map[string]time.Time)
	}
	return state, nil
}

// SaveState writes the state atomically through a temp file in the same directory.
// UpdatedAt is only advanced once the file is in place.
func SaveState(filePath string, state *model.WatchlistState, now time.Time) error {
	snapshot := *state
	snapshot.UpdatedAt = now
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "encode watchlist", err)
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(errors.ErrCodeStorageFailed, err, "create %s", dir)
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeStorageFailed, err, "write %s", tmp)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return errors.Wrapf(errors.ErrCodeStorageFailed, err, "rename %s", tmp)
	}
	state.UpdatedAt = now
	return nil
}

func newState() *model.WatchlistState {
	return &model.WatchlistState{
		LastSignals: make(map[string]map[model.SignalName]model.SignalLabel),
		LastRunAt:   make(map[string]time.Time),
	}
}
