package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockResearch/internal/collector"
	"StockResearch/internal/logger"
	"StockResearch/internal/metrics"
	"StockResearch/internal/model"
	"StockResearch/internal/notifier"
	"StockResearch/internal/recorder"
	"StockResearch/internal/strategy"
	"StockResearch/internal/watchlist"
)

// Broadcaster receives every refreshed analysis, e.g. the websocket hub.
type Broadcaster interface {
	Broadcast(a *model.Analysis)
}

// Scheduler manages the cron refresh and answers bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Watchlist   *watchlist.Manager
	Notifier    notifier.Notifier
	Recorder    recorder.Recorder
	Broadcaster Broadcaster
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	Period      collector.Period
	Ctx         context.Context
	Now         func() time.Time

	refreshMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, wl *watchlist.Manager, n notifier.Notifier, rec recorder.Recorder, log *logger.Logger, m *metrics.Metrics) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.LogNotifier{Logger: log}
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Watchlist: wl,
		Notifier:  n,
		Recorder:  rec,
		Logger:    log,
		Metrics:   m,
		Period:    collector.DefaultPeriod,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the watchlist refresh job.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.Refresh(s.Ctx) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RefreshSummary reports one watchlist refresh.
type RefreshSummary struct {
	Analyzed int
	Failed   []collector.Result
	Changes  []model.SignalChange
}

// Refresh analyzes every watched ticker, records the result, diffs the
// signals against the stored labels and notifies on any change.
// Concurrent calls are serialized.
func (s *Scheduler) Refresh(ctx context.Context) RefreshSummary {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	tickers := s.Watchlist.List()
	s.Logger.Info("running watchlist refresh", zap.Int("tickers", len(tickers)))

	var summary RefreshSummary
	results := s.Collector.AnalyzeMany(ctx, tickers, s.Period, nil)
	for _, r := range results {
		if r.Err != nil {
			summary.Failed = append(summary.Failed, r)
			continue
		}
		summary.Analyzed++
		summary.Changes = append(summary.Changes, s.apply(ctx, r.Analysis)...)
	}

	if len(summary.Failed) > 0 {
		lines := make([]string, 0, len(summary.Failed)+1)
		lines = append(lines, "⚠️ <b>Refresh problems</b>")
		for _, r := range summary.Failed {
			lines = append(lines, notifier.FormatError(r.Symbol, r.Err))
		}
		s.trySend(ctx, strings.Join(lines, "\n"))
	}

	s.Logger.Info("watchlist refresh done",
		zap.Int("analyzed", summary.Analyzed),
		zap.Int("failed", len(summary.Failed)),
		zap.Int("changes", len(summary.Changes)))
	return summary
}

// apply records a, stores its labels and reports what changed.
func (s *Scheduler) apply(ctx context.Context, a *model.Analysis) []model.SignalChange {
	if err := s.Recorder.RecordAnalysis(ctx, a); err != nil {
		s.Logger.Error("record analysis", zap.String("symbol", a.Symbol), zap.Error(err))
	}

	changes := strategy.Changes(s.Watchlist.LastSignals(a.Symbol), a.Signals, s.Now())
	for _, c := range changes {
		s.Metrics.ObserveSignalChange(string(c.Name))
		if err := s.Recorder.RecordSignalChange(ctx, c); err != nil {
			s.Logger.Error("record signal change", zap.String("symbol", c.Symbol), zap.Error(err))
		}
	}
	if err := s.Watchlist.UpdateSignals(a.Signals); err != nil {
		s.Logger.Error("update watchlist state", zap.String("symbol", a.Symbol), zap.Error(err))
	}
	if s.Broadcaster != nil {
		s.Broadcaster.Broadcast(a)
	}
	if len(changes) > 0 {
		s.trySend(ctx, notifier.FormatSignalChanges(a.Symbol, changes))
	}
	return changes
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/watch@MyBot AAPL" in group chats
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch cmd {
	case "/analyze":
		if len(args) == 0 {
			return "Usage: /analyze TICKER [period]"
		}
		period := s.Period
		if len(args) > 1 {
			p, err := collector.ParsePeriod(args[1])
			if err != nil {
				return notifier.FormatError(args[0], err)
			}
			period = p
		}
		a, err := s.Collector.Analyze(ctx, args[0], period)
		if err != nil {
			return notifier.FormatError(collector.NormalizeSymbol(args[0]), err)
		}
		if err := s.Recorder.RecordAnalysis(ctx, a); err != nil {
			s.Logger.Error("record analysis", zap.String("symbol", a.Symbol), zap.Error(err))
		}
		return notifier.FormatAnalysisReport(a)

	case "/watch":
		if len(args) == 0 {
			return "Usage: /watch TICKER"
		}
		ticker := collector.NormalizeSymbol(args[0])
		added, err := s.Watchlist.Add(ticker)
		if err != nil {
			return notifier.FormatError(ticker, err)
		}
		if !added {
			return fmt.Sprintf("%s is already on the watchlist", ticker)
		}
		return fmt.Sprintf("✅ watching %s", ticker)

	case "/unwatch":
		if len(args) == 0 {
			return "Usage: /unwatch TICKER"
		}
		ticker := collector.NormalizeSymbol(args[0])
		removed, err := s.Watchlist.Remove(ticker)
		if err != nil {
			return notifier.FormatError(ticker, err)
		}
		if !removed {
			return fmt.Sprintf("%s is not on the watchlist", ticker)
		}
		return fmt.Sprintf("🗑 stopped watching %s", ticker)

	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist.State(), s.Now())

	case "/refresh":
		summary := s.Refresh(ctx)
		return fmt.Sprintf("🔄 refreshed %d tickers, %d failed, %d signal changes",
			summary.Analyzed, len(summary.Failed), len(summary.Changes))

	default:
		return notifier.FormatHelp()
	}
}

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	send := s.Notifier.Send
	if r, ok := s.Notifier.(retrySender); ok {
		send = func(ctx context.Context, text string) error { return r.SendWithRetry(ctx, text, 3) }
	}
	if err := send(ctx, text); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
