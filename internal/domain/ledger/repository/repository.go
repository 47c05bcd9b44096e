// Package repository persists canonical session tables.
package repository

import (
	"context"
	"time"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// Store is a keyed table store. Writing a table replaces whatever was stored
// under the key; reading an unknown key returns ledger.ErrNotFound.
type Store interface {
	WriteTable(ctx context.Context, sessionKey string, table *ledger.Table) error
	ReadTable(ctx context.Context, sessionKey string) (*ledger.Table, error)

	// PurgeBefore removes sessions last written before cutoff and reports how many.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// cloneTable copies a table so callers cannot mutate stored state.
func cloneTable(t *ledger.Table) *ledger.Table {
	out := &ledger.Table{
		Columns: append([]string(nil), t.Columns...),
		Records: make([]ledger.Record, len(t.Records)),
	}
	for i, r := range t.Records {
		c := ledger.Record{Date: r.Date, Amount: r.Amount}
		if r.Type != nil {
			c.Type = ledger.StringPtr(*r.Type)
		}
		if r.Category != nil {
			c.Category = ledger.StringPtr(*r.Category)
		}
		if len(r.Extra) > 0 {
			c.Extra = make(map[string]string, len(r.Extra))
			for k, v := range r.Extra {
				c.Extra[k] = v
			}
		}
		out.Records[i] = c
	}
	return out
}
