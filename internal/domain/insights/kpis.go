package insights

import (
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
	"github.com/FACorreiaa/sheet-insights/pkg/money"
)

// KpiResult carries the four headline numbers as display strings. Expense is
// shown with its stored (non-positive) sign.
type KpiResult struct {
	Totals Totals `json:"-"`

	Revenue string `json:"Receita Total"`
	Expense string `json:"Despesa Total"`
	Net     string `json:"Lucro Líquido"`
	Margin  string `json:"Margem de Lucro"`
}

// ComputeKpis derives the KPI result of a table.
func ComputeKpis(table *ledger.Table) *KpiResult {
	t := ComputeTotals(table)
	return &KpiResult{
		Totals:  t,
		Revenue: money.FormatBRL(t.Revenue),
		Expense: money.FormatBRL(t.Expense),
		Net:     money.FormatBRL(t.Net),
		Margin:  money.FormatPercent(t.Margin),
	}
}
