// Package ledger defines the canonical transaction table persisted per session
// and the errors shared by every component that reads it.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names as they appear in uploaded spreadsheets.
const (
	ColumnDate     = "data"
	ColumnType     = "tipo"
	ColumnCategory = "categoria"
	ColumnAmount   = "valor"
)

// Transaction types recognised by the aggregations.
const (
	TypeRevenue = "Receita"
	TypeExpense = "Despesa"
)

// ErrNotFound is returned when a session has no readable canonical table.
var ErrNotFound = errors.New("session not found")

// SchemaError reports that a table exists but lacks columns a view needs.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required columns not found: %s", strings.Join(e.Missing, ", "))
}

// Record is one validated row. Date and Amount are never null; Type and
// Category are nil when the source cell was empty. Extra holds the cells of
// non-canonical columns; a missing key means the cell was empty.
type Record struct {
	Date     time.Time
	Type     *string
	Category *string
	Amount   decimal.Decimal
	Extra    map[string]string
}

// TypeIs reports whether the trimmed type equals want.
func (r Record) TypeIs(want string) bool {
	return r.Type != nil && strings.TrimSpace(*r.Type) == want
}

// Table is the canonical table of a session. Columns is the source header in
// order; a canonical column missing from it was absent from the upload.
type Table struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether the upload carried the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Require returns a SchemaError listing every named column the table lacks.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// ExtraColumns returns the non-canonical columns in header order.
func (t *Table) ExtraColumns() []string {
	var extra []string
	for _, c := range t.Columns {
		if !IsCanonical(c) {
			extra = append(extra, c)
		}
	}
	return extra
}

// IsCanonical reports whether name is one of the four canonical columns.
func IsCanonical(name string) bool {
	switch name {
	case ColumnDate, ColumnType, ColumnCategory, ColumnAmount:
		return true
	}
	return false
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
