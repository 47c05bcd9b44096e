package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// SQLiteStore persists session tables in an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an open, migrated SQLite handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// WriteTable replaces the session's table inside one transaction.
func (s *SQLiteStore) WriteTable(ctx context.Context, sessionKey string, table *ledger.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	if err := s.writeTx(ctx, tx, sessionKey, table); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

func (s *SQLiteStore) writeTx(ctx context.Context, tx *sql.Tx, sessionKey string, table *ledger.Table) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_records WHERE session_key = ?`, sessionKey); err != nil {
		return fmt.Errorf("delete previous records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_sessions WHERE session_key = ?`, sessionKey); err != nil {
		return fmt.Errorf("delete previous table: %w", err)
	}

	columns := table.Columns
	if columns == nil {
		columns = []string{}
	}
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_sessions (session_key, columns, normalized_at) VALUES (?, ?, ?)`,
		sessionKey, string(columnsJSON), s.now().Unix(),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_records (session_key, position, occurred_at, tipo, categoria, valor, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range table.Records {
		extra := r.Extra
		if extra == nil {
			extra = map[string]string{}
		}
		extraJSON, err := json.Marshal(extra)
		if err != nil {
			return fmt.Errorf("encode extra columns: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			sessionKey, i, r.Date.UTC().Format(time.RFC3339Nano),
			nullString(r.Type), nullString(r.Category), r.Amount.String(), string(extraJSON),
		); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}

// ReadTable loads the session's table in source order.
func (s *SQLiteStore) ReadTable(ctx context.Context, sessionKey string) (*ledger.Table, error) {
	var columnsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT columns FROM ledger_sessions WHERE session_key = ?`, sessionKey,
	).Scan(&columnsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}

	table := &ledger.Table{}
	if err := json.Unmarshal([]byte(columnsJSON), &table.Columns); err != nil {
		return nil, fmt.Errorf("%w: decode columns: %v", ledger.ErrNotFound, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, tipo, categoria, valor, extra
		FROM ledger_records
		WHERE session_key = ?
		ORDER BY position
	`, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			occurredAt, valor, extraJSON string
			tipo, categoria              sql.NullString
		)
		if err := rows.Scan(&occurredAt, &tipo, &categoria, &valor, &extraJSON); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", ledger.ErrNotFound, err)
		}

		r, err := decodeSQLiteRecord(occurredAt, tipo, categoria, valor, extraJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
		}
		table.Records = append(table.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}
	return table, nil
}

// PurgeBefore deletes sessions normalized before cutoff.
func (s *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ledger_records
		WHERE session_key IN (SELECT session_key FROM ledger_sessions WHERE normalized_at < ?)
	`, cutoff.Unix()); err != nil {
		return 0, fmt.Errorf("purge records: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM ledger_sessions WHERE normalized_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	return int(purged), nil
}

func decodeSQLiteRecord(occurredAt string, tipo, categoria sql.NullString, valor, extraJSON string) (ledger.Record, error) {
	var r ledger.Record

	date, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		return r, fmt.Errorf("decode data: %w", err)
	}
	amount, err := decimal.NewFromString(valor)
	if err != nil {
		return r, fmt.Errorf("decode valor: %w", err)
	}
	r.Date = date
	r.Amount = amount
	if tipo.Valid {
		r.Type = ledger.StringPtr(tipo.String)
	}
	if categoria.Valid {
		r.Category = ledger.StringPtr(categoria.String)
	}
	if extraJSON != "" && extraJSON != "{}" {
		if err := json.Unmarshal([]byte(extraJSON), &r.Extra); err != nil {
			return r, fmt.Errorf("decode extra columns: %w", err)
		}
	}
	return r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
