// Package sqlite persists trades, events, and equity history for the bot.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-botv1/internal/model"
)

// Store is a single-connection SQLite store in WAL mode. One writer
// serializes all mutations, which SQLite rewards with predictable latency.
type Store struct {
	db *sql.DB
}

// New opens (and if needed initializes) the database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db}, nil
}

// DB returns the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS paper_trades (
			position_id  TEXT PRIMARY KEY,
			order_id     TEXT NOT NULL,
			pair         TEXT NOT NULL,
			side         TEXT NOT NULL,
			entry_price  REAL NOT NULL,
			exit_price   REAL,
			quantity     REAL NOT NULL,
			leverage     INTEGER NOT NULL,
			tp_price     REAL,
			sl_price     REAL,
			fee_paid     REAL,
			pnl          REAL,
			total_fee    REAL,
			confidence   REAL,
			status       TEXT NOT NULL DEFAULT 'open',
			close_reason TEXT,
			note         TEXT,
			opened_at    TEXT,
			closed_at    TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_paper_trades_status
			ON paper_trades (status, pair);

		CREATE TABLE IF NOT EXISTS equity_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			balance    REAL NOT NULL,
			created_at TEXT DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS bot_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			level      TEXT,
			message    TEXT,
			created_at TEXT DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// InsertPosition records a freshly opened paper position.
func (s *Store) InsertPosition(ctx context.Context, p model.PaperPosition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO paper_trades
			(position_id, order_id, pair, side, entry_price, quantity, leverage,
			 tp_price, sl_price, fee_paid, confidence, status, note, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'open', ?, ?)
	`, p.ID, p.OrderID, p.Pair, string(p.Side), p.EntryPrice, p.Quantity, p.Leverage,
		p.TPPrice, p.SLPrice, p.FeePaid, p.Confidence, p.Note,
		p.OpenedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite insert position: %w", err)
	}
	return nil
}

// CloseTrade marks a position closed with its settlement outcome.
func (s *Store) CloseTrade(ctx context.Context, t model.PaperTrade) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE paper_trades
		SET exit_price = ?, pnl = ?, total_fee = ?, status = 'closed',
		    close_reason = ?, closed_at = ?
		WHERE position_id = ?
	`, t.ExitPrice, t.PnL, t.TotalFee, string(t.Reason),
		t.ClosedAt.Format(time.RFC3339), t.ID)
	if err != nil {
		return fmt.Errorf("sqlite close trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite close trade: position %s not found", t.ID)
	}
	return nil
}

// OpenPositions loads open positions, optionally filtered by pair, in the
// order they were opened.
func (s *Store) OpenPositions(ctx context.Context, pair string) ([]model.PaperPosition, error) {
	query := `
		SELECT position_id, order_id, pair, side, entry_price, quantity, leverage,
		       tp_price, sl_price, fee_paid, confidence, note, opened_at
		FROM paper_trades
		WHERE status = 'open'`
	args := []any{}
	if pair != "" {
		query += " AND pair = ?"
		args = append(args, pair)
	}
	query += " ORDER BY opened_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query open positions: %w", err)
	}
	defer rows.Close()

	var out []model.PaperPosition
	for rows.Next() {
		var p model.PaperPosition
		var side, openedAt string
		var note sql.NullString
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Pair, &side, &p.EntryPrice,
			&p.Quantity, &p.Leverage, &p.TPPrice, &p.SLPrice, &p.FeePaid,
			&p.Confidence, &note, &openedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan position: %w", err)
		}
		p.Side = model.Side(side)
		p.Note = note.String
		p.OpenedAt, _ = time.Parse(time.RFC3339, openedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// TradeStats summarizes closed paper trades.
type TradeStats struct {
	Total    int     `json:"total"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	TotalPnL float64 `json:"total_pnl"`
}

// Stats aggregates all closed trades.
func (s *Store) Stats(ctx context.Context) (TradeStats, error) {
	var st TradeStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN pnl <= 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(pnl), 0)
		FROM paper_trades
		WHERE status = 'closed'
	`).Scan(&st.Total, &st.Wins, &st.Losses, &st.TotalPnL)
	if err != nil {
		return TradeStats{}, fmt.Errorf("sqlite trade stats: %w", err)
	}
	return st, nil
}

// SetWalletBalance persists the simulated wallet balance.
func (s *Store) SetWalletBalance(ctx context.Context, balance float64) error {
	return s.setSetting(ctx, "paper_wallet_balance", fmt.Sprintf("%.8f", balance))
}

// WalletBalance loads the persisted wallet balance. Returns ok=false when
// the wallet was never initialized.
func (s *Store) WalletBalance(ctx context.Context) (float64, bool, error) {
	value, ok, err := s.setting(ctx, "paper_wallet_balance")
	if err != nil || !ok {
		return 0, false, err
	}
	var balance float64
	if _, err := fmt.Sscanf(value, "%f", &balance); err != nil {
		return 0, false, fmt.Errorf("sqlite wallet balance parse: %w", err)
	}
	return balance, true, nil
}

// SetTradingMode persists PAPER or REAL.
func (s *Store) SetTradingMode(ctx context.Context, mode string) error {
	return s.setSetting(ctx, "trading_mode", mode)
}

// TradingMode loads the persisted trading mode, defaulting to PAPER.
func (s *Store) TradingMode(ctx context.Context) (string, error) {
	value, ok, err := s.setting(ctx, "trading_mode")
	if err != nil {
		return "", err
	}
	if !ok {
		return "PAPER", nil
	}
	return value, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *Store) setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, true, nil
}

// SnapshotEquity appends one equity curve point.
func (s *Store) SnapshotEquity(ctx context.Context, balance float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO equity_snapshots (balance) VALUES (?)`, balance)
	if err != nil {
		return fmt.Errorf("sqlite snapshot equity: %w", err)
	}
	return nil
}

// EquityPoint is one point of the equity curve.
type EquityPoint struct {
	Balance   float64 `json:"balance"`
	CreatedAt string  `json:"created_at"`
}

// EquityHistory returns the newest points of the equity curve.
func (s *Store) EquityHistory(ctx context.Context, limit int) ([]EquityPoint, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT balance, created_at FROM equity_snapshots
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite equity history: %w", err)
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.Balance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan equity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LogEvent appends one line to the persistent event journal.
func (s *Store) LogEvent(ctx context.Context, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_log (level, message) VALUES (?, ?)`, level, message)
	if err != nil {
		return fmt.Errorf("sqlite log event: %w", err)
	}
	return nil
}

// Event is one persisted journal line.
type Event struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// RecentEvents returns the newest journal lines.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT level, message, created_at FROM bot_log
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite recent events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Level, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
