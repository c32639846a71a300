// internal/storage/sqlitestore.go
//
// 以 SQLite 保存整份銀行快照。
// 客戶、帳戶與日誌皆以「位置 (position)」為鍵，而非 ID：
// 同一位客戶可以在銀行中出現多次，ID 不保證唯一。
// Save 在單一交易內清空並重寫所有資料列，失敗時整筆回滾，原有快照不受影響。
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bankreport/internal/logging"

	_ "modernc.org/sqlite"
)

const storageSQLite = "sqlite_snapshot"

// SQLiteStore 以 SQLite 資料庫實作 Store。
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// accountKey 以客戶位置與帳戶位置定位一個帳戶。
type accountKey struct {
	customer int
	account  int
}

// NewSQLiteStore 開啟（必要時建立）dbPath 的資料庫，並套用所有尚未執行的 migration。
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close 關閉資料庫連線。
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save 以 snap 取代資料庫中的全部內容；任何一列寫入失敗都會回滾整筆交易。
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM account_logs`,
		`DELETE FROM accounts`,
		`DELETE FROM customers`,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_meta (id, version, saved_at, note) VALUES (1, ?, ?, ?)`,
		SnapshotVersion, time.Now().UTC().Format(time.RFC3339Nano), snap.Meta.Note,
	); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	for ci, c := range snap.Customers {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO customers (position, id, name) VALUES (?, ?, ?)`,
			ci, c.ID, c.Name,
		); err != nil {
			return fmt.Errorf("insert customer %d (%s): %w", ci, c.ID, err)
		}
		for ai, a := range c.Accounts {
			var ruleKind, ruleRate sql.NullString
			if a.Rule != nil {
				ruleKind = sql.NullString{String: a.Rule.Kind, Valid: true}
				ruleRate = sql.NullString{String: a.Rule.Rate.String(), Valid: true}
			}
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO accounts (customer_position, position, id, kind, balance, rule_kind, rule_rate)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				ci, ai, a.ID, a.Kind, a.Balance.String(), ruleKind, ruleRate,
			); err != nil {
				return fmt.Errorf("insert account %s: %w", a.ID, err)
			}
			for li, l := range a.Logs {
				if _, err = tx.ExecContext(ctx,
					`INSERT INTO account_logs (customer_position, account_position, seq, time, amount, direction, counter_id, note)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					ci, ai, li, l.Time.UTC().Format(time.RFC3339Nano), l.Amount.String(), l.Direction, l.CounterID, l.Note,
				); err != nil {
					return fmt.Errorf("insert log for account %s: %w", a.ID, err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	log.WithFields(log.Fields{
		logging.FieldComponent: logging.ComponentStorage,
		logging.FieldPath:      s.path,
		logging.FieldCount:     len(snap.Customers),
	}).Debug("snapshot saved to sqlite")
	return nil
}

// Load 依位置順序讀回整份快照。
// 尚未保存過時回傳空快照；已保存但版本不符時回傳 ErrSnapshotVersion。
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Meta: Meta{Storage: storageSQLite}}

	var savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT version, saved_at, note FROM snapshot_meta WHERE id = 1`,
	).Scan(&snap.Meta.Version, &savedAt, &snap.Meta.Note)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// 尚未保存過
		return snap, nil
	case err != nil:
		return Snapshot{}, fmt.Errorf("read snapshot meta: %w", err)
	}
	if err := checkVersion(snap.Meta.Version); err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", s.path, err)
	}
	if snap.Meta.Timestamp, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return Snapshot{}, fmt.Errorf("parse saved_at: %w", err)
	}

	logs, err := s.loadLogs(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	accounts, err := s.loadAccounts(ctx, logs)
	if err != nil {
		return Snapshot{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT position, id, name FROM customers ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c        PersistCustomer
			position int
		)
		if err := rows.Scan(&position, &c.ID, &c.Name); err != nil {
			return Snapshot{}, fmt.Errorf("scan customer: %w", err)
		}
		c.Accounts = accounts[position]
		if c.Accounts == nil {
			c.Accounts = []PersistAccount{}
		}
		snap.Customers = append(snap.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate customers: %w", err)
	}
	return snap, nil
}

// loadAccounts 依客戶位置分組，組內依帳戶位置排序。
func (s *SQLiteStore) loadAccounts(ctx context.Context, logs map[accountKey][]PersistLog) (map[int][]PersistAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_position, position, id, kind, balance, rule_kind, rule_rate
		   FROM accounts
		  ORDER BY customer_position, position`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]PersistAccount)
	for rows.Next() {
		var (
			a                  PersistAccount
			key                accountKey
			balance            string
			ruleKind, ruleRate sql.NullString
		)
		if err := rows.Scan(&key.customer, &key.account, &a.ID, &a.Kind, &balance, &ruleKind, &ruleRate); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parse balance of account %s: %w", a.ID, err)
		}
		if ruleKind.Valid {
			rate, err := decimal.NewFromString(ruleRate.String)
			if err != nil {
				return nil, fmt.Errorf("parse rate of account %s: %w", a.ID, err)
			}
			a.Rule = &PersistRule{Kind: ruleKind.String, Rate: rate}
		}
		a.Logs = logs[key]
		if a.Logs == nil {
			a.Logs = []PersistLog{}
		}
		out[key.customer] = append(out[key.customer], a)
	}
	return out, rows.Err()
}

// loadLogs 依帳戶位置分組，組內依 seq 排序。
func (s *SQLiteStore) loadLogs(ctx context.Context) (map[accountKey][]PersistLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_position, account_position, time, amount, direction, counter_id, note
		   FROM account_logs
		  ORDER BY customer_position, account_position, seq`)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	out := make(map[accountKey][]PersistLog)
	for rows.Next() {
		var (
			l          PersistLog
			key        accountKey
			ts, amount string
		)
		if err := rows.Scan(&key.customer, &key.account, &ts, &amount, &l.Direction, &l.CounterID, &l.Note); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if l.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse log time: %w", err)
		}
		if l.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse log amount: %w", err)
		}
		out[key] = append(out[key], l)
	}
	return out, rows.Err()
}
