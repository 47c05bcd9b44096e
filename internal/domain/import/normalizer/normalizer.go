// Package normalizer turns a decoded upload into the canonical ledger table:
// it trims types, parses locale amounts and day-first dates, repairs expense
// signs, removes exact duplicates and drops rows without a date or amount.
package normalizer

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/sheet-insights/internal/domain/import/parser"
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
	"github.com/FACorreiaa/sheet-insights/pkg/money"
)

// Stats describes what normalization did to an upload.
type Stats struct {
	RowsRead       int
	AmountFailures int // valor cells present but unparseable
	DateFailures   int // data cells present but unparseable
	SignsRepaired  int
	Duplicates     int
	Invalid        int // rows dropped for a null date or amount
	RowsKept       int
}

// candidate is a row after cell coercion and before the row-level filters.
type candidate struct {
	record    ledger.Record
	hasDate   bool
	hasAmount bool
}

// columns holds the header positions of the canonical columns; -1 when absent.
type columns struct {
	date, tipo, category, amount int
	extra                        []int
}

func locate(raw *parser.RawTable) columns {
	c := columns{
		date:     raw.Index(ledger.ColumnDate),
		tipo:     raw.Index(ledger.ColumnType),
		category: raw.Index(ledger.ColumnCategory),
		amount:   raw.Index(ledger.ColumnAmount),
	}
	for i, h := range raw.Header {
		if !ledger.IsCanonical(h) {
			c.extra = append(c.extra, i)
		}
	}
	return c
}

// Normalize converts raw into a canonical table. Cell-level failures never
// fail the call; they null the cell and the row is dropped if it needs it.
func Normalize(raw *parser.RawTable) (*ledger.Table, Stats) {
	stats := Stats{RowsRead: len(raw.Rows)}
	cols := locate(raw)

	candidates := make([]candidate, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		candidates = append(candidates, coerce(raw, cols, row, &stats))
	}

	candidates = dedupe(candidates, &stats)

	table := &ledger.Table{
		Columns: append([]string(nil), raw.Header...),
		Records: make([]ledger.Record, 0, len(candidates)),
	}
	for _, c := range candidates {
		if !c.hasDate || !c.hasAmount {
			stats.Invalid++
			continue
		}
		table.Records = append(table.Records, c.record)
	}
	stats.RowsKept = len(table.Records)
	return table, stats
}

func coerce(raw *parser.RawTable, cols columns, row []string, stats *Stats) candidate {
	var c candidate

	if v, ok := raw.Cell(row, cols.tipo); ok {
		c.record.Type = ledger.StringPtr(strings.TrimSpace(v))
	}
	if v, ok := raw.Cell(row, cols.category); ok {
		c.record.Category = ledger.StringPtr(v)
	}

	if v, ok := raw.Cell(row, cols.amount); ok {
		amount, err := money.ParseLocaleAmount(v)
		if err != nil {
			stats.AmountFailures++
		} else {
			c.record.Amount = amount
			c.hasAmount = true
		}
	}

	if v, ok := raw.Cell(row, cols.date); ok {
		if date, parsed := ParseDayFirst(v); parsed {
			c.record.Date = date
			c.hasDate = true
		} else {
			stats.DateFailures++
		}
	}

	if c.hasAmount && c.record.TypeIs(ledger.TypeExpense) && c.record.Amount.IsPositive() {
		c.record.Amount = c.record.Amount.Neg()
		stats.SignsRepaired++
	}

	for _, idx := range cols.extra {
		if v, ok := raw.Cell(row, idx); ok {
			if c.record.Extra == nil {
				c.record.Extra = make(map[string]string, len(cols.extra))
			}
			c.record.Extra[raw.Header[idx]] = v
		}
	}
	return c
}

// dedupe keeps the first of every group of fully identical rows. Null cells
// compare equal to each other and to nothing else.
func dedupe(candidates []candidate, stats *Stats) []candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		key := rowKey(c)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

const (
	fieldSep = "\x00"
	nullCell = "\x01"
)

func rowKey(c candidate) string {
	var b strings.Builder
	if c.hasDate {
		b.WriteString(c.record.Date.Format(time.RFC3339Nano))
	} else {
		b.WriteString(nullCell)
	}
	b.WriteString(fieldSep)
	writeOptional(&b, c.record.Type)
	b.WriteString(fieldSep)
	writeOptional(&b, c.record.Category)
	b.WriteString(fieldSep)
	if c.hasAmount {
		b.WriteString(canonicalAmount(c.record.Amount))
	} else {
		b.WriteString(nullCell)
	}
	for _, k := range slices.Sorted(maps.Keys(c.record.Extra)) {
		b.WriteString(fieldSep)
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(c.record.Extra[k])
	}
	return b.String()
}

func writeOptional(b *strings.Builder, s *string) {
	if s == nil {
		b.WriteString(nullCell)
		return
	}
	b.WriteString(*s)
}

// canonicalAmount renders equal amounts identically ("1000.00" and "1000").
func canonicalAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	return d.String()
}
