package insights

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// Totals are the headline sums of a table. Expense keeps its stored sign.
type Totals struct {
	Revenue decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
	Margin  decimal.Decimal // percent of revenue; zero when revenue is zero
}

var hundred = decimal.NewFromInt(100)

// ComputeTotals sums revenue and expense rows. Types are compared trimmed;
// untyped rows count toward neither.
func ComputeTotals(table *ledger.Table) Totals {
	var t Totals
	for _, r := range table.Records {
		switch {
		case r.TypeIs(ledger.TypeRevenue):
			t.Revenue = t.Revenue.Add(r.Amount)
		case r.TypeIs(ledger.TypeExpense):
			t.Expense = t.Expense.Add(r.Amount)
		}
	}
	t.Net = t.Revenue.Add(t.Expense)
	if !t.Revenue.IsZero() {
		t.Margin = t.Net.Div(t.Revenue).Mul(hundred)
	}
	return t
}

// CategoryAmount is a category label with a summed amount.
type CategoryAmount struct {
	Label  string
	Amount decimal.Decimal
}

// CategoryTotals sums the amounts of rows of the given type per category.
// Rows without a category are left out. With abs the absolute value of each
// sum is taken. The result is sorted by amount descending, then label.
func CategoryTotals(table *ledger.Table, typ string, abs bool) []CategoryAmount {
	index := make(map[string]int)
	var out []CategoryAmount
	for _, r := range table.Records {
		if r.Category == nil || !r.TypeIs(typ) {
			continue
		}
		i, ok := index[*r.Category]
		if !ok {
			i = len(out)
			index[*r.Category] = i
			out = append(out, CategoryAmount{Label: *r.Category})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}

	if abs {
		for i := range out {
			out[i].Amount = out[i].Amount.Abs()
		}
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// MonthlyFlow is the revenue and expense sum of one calendar month.
type MonthlyFlow struct {
	Month   string // "2006-01"
	Revenue decimal.Decimal
	Expense decimal.Decimal
}

// MonthlyFlows groups rows by month. A month is listed when it has any typed
// row, with zero sums for a type it lacks. Months are in ascending order.
func MonthlyFlows(table *ledger.Table) []MonthlyFlow {
	byMonth := make(map[string]*MonthlyFlow)
	for _, r := range table.Records {
		if r.Type == nil {
			continue
		}
		month := r.Date.Format("2006-01")
		flow, ok := byMonth[month]
		if !ok {
			flow = &MonthlyFlow{Month: month}
			byMonth[month] = flow
		}
		switch {
		case r.TypeIs(ledger.TypeRevenue):
			flow.Revenue = flow.Revenue.Add(r.Amount)
		case r.TypeIs(ledger.TypeExpense):
			flow.Expense = flow.Expense.Add(r.Amount)
		}
	}

	out := make([]MonthlyFlow, 0, len(byMonth))
	for _, flow := range byMonth {
		out = append(out, *flow)
	}
	slices.SortFunc(out, func(a, b MonthlyFlow) int {
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}
