package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"StockResearch/internal/collector"
	"StockResearch/internal/errors"
	"StockResearch/internal/model"
	"StockResearch/internal/strategy"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Debug("encode response", zap.Int("status", status), zap.Error(err))
	}
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInsufficientData:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTickerNotFound, errors.ErrCodeNoDataForPeriod:
		return http.StatusNotFound
	case errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidPeriod:
		return http.StatusBadRequest
	case errors.ErrCodeFetchFailed, errors.ErrCodeParseFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err))
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Code:      int(errors.GetCode(err)),
		RequestID: requestIDFrom(r.Context()),
	})
}

// analyze runs the engine for the {ticker} route variable and ?period= query.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (*model.Analysis, bool) {
	period := s.Period
	if q := r.URL.Query().Get("period"); q != "" {
		p, err := collector.ParsePeriod(q)
		if err != nil {
			s.writeError(w, r, err)
			return nil, false
		}
		period = p
	}
	a, err := s.Collector.Analyze(r.Context(), mux.Vars(r)["ticker"], period)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return a, true
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyze(w, r)
	if !ok {
		return
	}
	if err := s.Recorder.RecordAnalysis(r.Context(), a); err != nil {
		s.Logger.Error("record analysis", zap.String("symbol", a.Symbol), zap.Error(err))
	}
	s.writeJSON(w, http.StatusOK, NewAnalysisResponse(a))
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyze(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, NewSignalsResponse(a))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := collector.NormalizeSymbol(mux.Vars(r)["ticker"])
	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			s.writeError(w, r, errors.Newf(errors.ErrCodeInvalidParameter,
				"limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	records, err := s.Recorder.History(r.Context(), symbol, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	changes, err := s.Recorder.Changes(r.Context(), symbol, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := HistoryResponse{
		Symbol:  symbol,
		Entries: make([]HistoryEntryDTO, 0, len(records)),
		Changes: changes,
	}
	if resp.Changes == nil {
		resp.Changes = []model.SignalChange{}
	}
	for _, rec := range records {
		resp.Entries = append(resp.Entries, newHistoryEntry(rec))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	state := s.Watchlist.State()
	resp := WatchlistResponse{Tickers: make([]WatchlistItem, 0, len(state.Tickers))}
	for _, t := range state.Tickers {
		item := WatchlistItem{Symbol: t}
		if labels, ok := state.LastSignals[t]; ok {
			item.Signals = labels
			item.Bias = strategy.Bias(model.SignalSet{Symbol: t, Signals: labels})
		}
		if at, ok := state.LastRunAt[t]; ok {
			item.LastRunAt = &at
		}
		resp.Tickers = append(resp.Tickers, item)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	var req WatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))
		return
	}
	req.Ticker = strings.TrimSpace(req.Ticker)
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidParameter, "ticker is required", err))
		return
	}

	added, err := s.Watchlist.Add(req.Ticker)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, map[string]any{"ticker": collector.NormalizeSymbol(req.Ticker), "added": added})
}

func (s *Server) handleUnwatch(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeSymbol(mux.Vars(r)["ticker"])
	removed, err := s.Watchlist.Remove(ticker)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !removed {
		s.writeError(w, r, errors.Newf(errors.ErrCodeTickerNotFound, "%s is not on the watchlist", ticker))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var analysisSchema = func() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(&AnalysisResponse{})
}()

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, analysisSchema)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"watchlist":  len(s.Watchlist.List()),
		"ws_clients": s.Hub.ClientCount(),
		"time":       s.Now().UTC(),
	})
}
