package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// PgxPool is the subset of *pgxpool.Pool the store needs. pgxmock pools satisfy it too.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var recordColumns = []string{"session_key", "position", "occurred_at", "tipo", "categoria", "valor", "extra"}

// PostgresStore persists session tables in ledger_sessions / ledger_records.
type PostgresStore struct {
	db PgxPool
}

// NewPostgresStore creates a new postgres-backed table store
func NewPostgresStore(db PgxPool) *PostgresStore {
	return &PostgresStore{db: db}
}

// WriteTable replaces the session's table inside one transaction.
func (s *PostgresStore) WriteTable(ctx context.Context, sessionKey string, table *ledger.Table) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}

	if err := s.writeTx(ctx, tx, sessionKey, table); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

func (s *PostgresStore) writeTx(ctx context.Context, tx pgx.Tx, sessionKey string, table *ledger.Table) error {
	// ledger_records rows go with the session through ON DELETE CASCADE
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_sessions WHERE session_key = $1`, sessionKey); err != nil {
		return fmt.Errorf("delete previous table: %w", err)
	}

	columns := table.Columns
	if columns == nil {
		columns = []string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ledger_sessions (session_key, columns, normalized_at) VALUES ($1, $2, now())`,
		sessionKey, columns,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if len(table.Records) == 0 {
		return nil
	}

	records := table.Records
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"ledger_records"}, recordColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			extra := r.Extra
			if extra == nil {
				extra = map[string]string{}
			}
			return []any{
				sessionKey,
				i,
				r.Date,
				r.Type,
				r.Category,
				pgtype.Numeric{Int: r.Amount.Coefficient(), Exp: r.Amount.Exponent(), Valid: true},
				extra,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy records: %w", err)
	}
	if int(copied) != len(records) {
		return fmt.Errorf("copy records: wrote %d of %d rows", copied, len(records))
	}
	return nil
}

// ReadTable loads the session's table in source order.
func (s *PostgresStore) ReadTable(ctx context.Context, sessionKey string) (*ledger.Table, error) {
	var columns []string
	err := s.db.QueryRow(ctx,
		`SELECT columns FROM ledger_sessions WHERE session_key = $1`, sessionKey,
	).Scan(&columns)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT occurred_at, tipo, categoria, valor, extra
		FROM ledger_records
		WHERE session_key = $1
		ORDER BY position
	`, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}
	defer rows.Close()

	table := &ledger.Table{Columns: columns}
	for rows.Next() {
		var (
			r     ledger.Record
			valor pgtype.Numeric
		)
		if err := rows.Scan(&r.Date, &r.Type, &r.Category, &valor, &r.Extra); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", ledger.ErrNotFound, err)
		}
		amount, err := numericToDecimal(valor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
		}
		r.Amount = amount
		if len(r.Extra) == 0 {
			r.Extra = nil
		}
		table.Records = append(table.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}
	return table, nil
}

// PurgeBefore deletes sessions normalized before cutoff.
func (s *PostgresStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM ledger_sessions WHERE normalized_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero, errors.New("non-finite valor")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
