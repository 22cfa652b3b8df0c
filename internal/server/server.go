package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"StockResearch/internal/collector"
	"StockResearch/internal/errors"
	"StockResearch/internal/logger"
	"StockResearch/internal/metrics"
	"StockResearch/internal/recorder"
	"StockResearch/internal/watchlist"
)

// Server exposes the analysis engine, the watchlist and the refresh feed over HTTP.
type Server struct {
	Router    *mux.Router
	Collector *collector.Collector
	Watchlist *watchlist.Manager
	Recorder  recorder.Recorder
	Hub       *Hub
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Period    collector.Period
	Now       func() time.Time

	validate *validator.Validate
}

// New builds a Server with all routes registered.
func New(col *collector.Collector, wl *watchlist.Manager, rec recorder.Recorder, hub *Hub, log *logger.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if hub == nil {
		hub = NewHub(log, m)
	}
	s := &Server{
		Router:    mux.NewRouter(),
		Collector: col,
		Watchlist: wl,
		Recorder:  rec,
		Hub:       hub,
		Logger:    log,
		Metrics:   m,
		Period:    collector.DefaultPeriod,
		Now:       time.Now,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Use(s.requestID, s.accessLog)

	api := s.Router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analysis/{ticker}", s.handleAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/signals/{ticker}", s.handleSignals).Methods(http.MethodGet)
	api.HandleFunc("/history/{ticker}", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", s.handleWatchlist).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", s.handleWatch).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/{ticker}", s.handleUnwatch).Methods(http.MethodDelete)
	api.HandleFunc("/schema", s.handleSchema).Methods(http.MethodGet)

	s.Router.HandleFunc("/ws", s.Hub.ServeWS)
	s.Router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.Metrics != nil {
		s.Router.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.Logger.Info("http server stopped")
	return nil
}
