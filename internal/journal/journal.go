// Package journal persists the trade ledger to SQLite so history
// survives restarts. Writes happen on the scheduler goroutine after
// the in-memory state has committed; a journal error is logged and
// never unwinds a trade.
package journal

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"signal-enginev1/internal/model"
)

// Journal is a single-writer SQLite trade ledger.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Open opens or creates the journal database with WAL mode and schema.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[journal] opened database at %s", dbPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY,
			symbol      TEXT    NOT NULL,
			timeframe   TEXT    NOT NULL,
			direction   TEXT    NOT NULL,
			entry_price REAL    NOT NULL,
			stake_cents INTEGER NOT NULL,
			open_time   INTEGER NOT NULL,
			expire_time INTEGER NOT NULL,
			exit_price  REAL,
			pnl_cents   INTEGER,
			outcome     TEXT,
			close_time  INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_trades_open_time ON trades (open_time);
	`)
	return err
}

// RecordOpen inserts a freshly opened trade. The settle columns stay
// NULL until RecordSettle.
func (j *Journal) RecordOpen(t model.OpenTrade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades (id, symbol, timeframe, direction, entry_price, stake_cents, open_time, expire_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Symbol, t.Timeframe, string(t.Direction), t.EntryPrice, t.Stake,
		t.OpenTime.UnixMilli(), t.ExpireTime.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite insert trade %d: %w", t.ID, err)
	}
	return nil
}

// RecordSettle fills in the settle columns for a trade recorded earlier.
func (j *Journal) RecordSettle(r model.TradeRecord) error {
	res, err := j.db.Exec(`
		UPDATE trades SET exit_price = ?, pnl_cents = ?, outcome = ?, close_time = ?
		WHERE id = ?
	`, r.ExitPrice, r.PnL, string(r.Outcome), r.CloseTime.UnixMilli(), r.ID)
	if err != nil {
		return fmt.Errorf("sqlite settle trade %d: %w", r.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sqlite settle trade %d: not found", r.ID)
	}
	return nil
}

// Recent returns the most recently closed trades, newest first.
func (j *Journal) Recent(limit int) ([]model.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, symbol, timeframe, direction, entry_price, stake_cents,
		       open_time, exit_price, pnl_cents, outcome, close_time
		FROM trades
		WHERE close_time IS NOT NULL
		ORDER BY close_time DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query recent: %w", err)
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var (
			r             model.TradeRecord
			dir, oc       string
			openMs, clsMs int64
		)
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Timeframe, &dir, &r.EntryPrice, &r.Stake,
			&openMs, &r.ExitPrice, &r.PnL, &oc, &clsMs); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		r.Direction = model.Direction(dir)
		r.Outcome = model.Outcome(oc)
		r.OpenTime = time.UnixMilli(openMs)
		r.CloseTime = time.UnixMilli(clsMs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AbandonOpenTrades closes out rows left open by a previous run. Account
// state is in-memory, so a trade that was live at shutdown can never
// settle; its stake was already debited, so the row records the stake as
// the loss. Returns the number of rows swept.
func (j *Journal) AbandonOpenTrades(now time.Time) (int64, error) {
	res, err := j.db.Exec(`
		UPDATE trades SET exit_price = 0, pnl_cents = -stake_cents, outcome = ?, close_time = ?
		WHERE close_time IS NULL
	`, string(model.OutcomeAbandoned), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite abandon open trades: %w", err)
	}
	return res.RowsAffected()
}

// MaxTradeID returns the highest trade id ever journaled, 0 when the
// table is empty. The manager seeds its id counter from this so ids
// stay unique across restarts.
func (j *Journal) MaxTradeID() (int64, error) {
	var id sql.NullInt64
	if err := j.db.QueryRow(`SELECT MAX(id) FROM trades`).Scan(&id); err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
