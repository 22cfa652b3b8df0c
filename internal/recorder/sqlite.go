package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"StockResearch/internal/errors"
	"StockResearch/internal/logger"
	"StockResearch/internal/model"
)

// indicatorColumns maps each indicator to its column in the analyses table.
var indicatorColumns = []struct {
	name   model.IndicatorName
	column string
}{
	{model.SMA20, "sma20"},
	{model.SMA50, "sma50"},
	{model.SMA200, "sma200"},
	{model.RSI14, "rsi14"},
	{model.MACD, "macd"},
	{model.MACDSignal, "macd_signal"},
	{model.BollingerMiddle, "bb_middle"},
	{model.BollingerUpper, "bb_upper"},
	{model.BollingerLower, "bb_lower"},
}

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "create %s", dir)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "open sqlite", err)
	}
	// one writer; readers (the dashboard) go through WAL
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "set WAL mode", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: log,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "migrate", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL UNIQUE,
			symbol      TEXT NOT NULL,
			period      TEXT,
			as_of       INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL,
			close       REAL,
			sma20       REAL,
			sma50       REAL,
			sma200      REAL,
			rsi14       REAL,
			macd        REAL,
			macd_signal REAL,
			bb_middle   REAL,
			bb_upper    REAL,
			bb_lower    REAL,
			signals     TEXT,
			omitted     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, recorded_at)`,

		`CREATE TABLE IF NOT EXISTS signal_changes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT NOT NULL,
			signal     TEXT NOT NULL,
			from_label TEXT,
			to_label   TEXT,
			changed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_symbol_ts ON signal_changes(symbol, changed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}
	return v.Unwrap()
}

func fromNull(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}
	return optional.Some(v.Float64)
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, a *model.Analysis) error {
	rec := NewAnalysisRecord(a)
	signals, err := json.Marshal(rec.Signals)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "marshal signals", err)
	}

	columns := []string{"run_id", "symbol", "period", "as_of", "recorded_at", "close"}
	values := []any{rec.RunID, rec.Symbol, rec.Period, rec.AsOf.Unix(), rec.RecordedAt.Unix(), rec.Close}
	for _, c := range indicatorColumns {
		columns = append(columns, c.column)
		values = append(values, nullable(rec.Values[c.name]))
	}
	columns = append(columns, "signals", "omitted")
	values = append(values, string(signals), rec.Omitted)

	query, args, err := r.sq.Insert("analyses").Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "build insert", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeStorageFailed, err, "insert analysis %s", rec.Symbol)
	}
	r.logger.Debug("analysis recorded", zap.String("symbol", rec.Symbol), zap.String("run_id", rec.RunID))
	return nil
}

func (r *SQLiteRecorder) RecordSignalChange(ctx context.Context, c model.SignalChange) error {
	query, args, err := r.sq.Insert("signal_changes").
		Columns("symbol", "signal", "from_label", "to_label", "changed_at").
		Values(c.Symbol, string(c.Name), string(c.From), string(c.To), c.At.Unix()).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "build insert", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeStorageFailed, err, "insert signal change %s", c.Symbol)
	}
	return nil
}

func (r *SQLiteRecorder) History(ctx context.Context, symbol string, limit int) ([]AnalysisRecord, error) {
	columns := []string{"run_id", "symbol", "period", "as_of", "recorded_at", "close"}
	for _, c := range indicatorColumns {
		columns = append(columns, c.column)
	}
	columns = append(columns, "signals", "omitted")

	q := r.sq.Select(columns...).
		From("analyses").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("recorded_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "build select", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "query history %s", symbol)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var (
			rec         AnalysisRecord
			period      sql.NullString
			asOf, at    int64
			values      = make([]sql.NullFloat64, len(indicatorColumns))
			signalsJSON sql.NullString
		)
		dest := []any{&rec.RunID, &rec.Symbol, &period, &asOf, &at, &rec.Close}
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &signalsJSON, &rec.Omitted)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageFailed, "scan history", err)
		}

		rec.Period = period.String
		rec.AsOf = time.Unix(asOf, 0).UTC()
		rec.RecordedAt = time.Unix(at, 0).UTC()
		rec.Values = make(map[model.IndicatorName]optional.Option[float64], len(indicatorColumns))
		for i, c := range indicatorColumns {
			rec.Values[c.name] = fromNull(values[i])
		}
		if signalsJSON.Valid && signalsJSON.String != "" {
			if err := json.Unmarshal([]byte(signalsJSON.String), &rec.Signals); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStorageFailed, "decode signals", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "iterate history", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) Changes(ctx context.Context, symbol string, limit int) ([]model.SignalChange, error) {
	q := r.sq.Select("symbol", "signal", "from_label", "to_label", "changed_at").
		From("signal_changes").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("changed_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "build select", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "query changes %s", symbol)
	}
	defer rows.Close()

	var out []model.SignalChange
	for rows.Next() {
		var (
			c        model.SignalChange
			name     string
			from, to sql.NullString
			at       int64
		)
		if err := rows.Scan(&c.Symbol, &name, &from, &to, &at); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageFailed, "scan change", err)
		}
		c.Name = model.SignalName(name)
		c.From = model.SignalLabel(from.String)
		c.To = model.SignalLabel(to.String)
		c.At = time.Unix(at, 0).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "iterate changes", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
