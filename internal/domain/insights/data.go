package insights

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// FilterByCategory keeps the records whose category fuzzily contains query,
// ignoring case and accents ("alim" matches "Alimentação"). An empty query
// returns the table unchanged.
func FilterByCategory(table *ledger.Table, query string) *ledger.Table {
	query = strings.TrimSpace(query)
	if query == "" {
		return table
	}

	out := &ledger.Table{Columns: table.Columns}
	for _, r := range table.Records {
		if r.Category != nil && fuzzy.MatchNormalizedFold(query, *r.Category) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Row renders a record keyed by the table's columns. Null cells are nil;
// dates use the ISO layout without zone, amounts are numbers.
func Row(table *ledger.Table, r ledger.Record) map[string]any {
	row := make(map[string]any, len(table.Columns))
	for _, col := range table.Columns {
		switch col {
		case ledger.ColumnDate:
			row[col] = r.Date.Format("2006-01-02T15:04:05")
		case ledger.ColumnAmount:
			row[col] = r.Amount.InexactFloat64()
		case ledger.ColumnType:
			row[col] = optional(r.Type)
		case ledger.ColumnCategory:
			row[col] = optional(r.Category)
		default:
			if v, ok := r.Extra[col]; ok {
				row[col] = v
			} else {
				row[col] = nil
			}
		}
	}
	return row
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
