package insights

import (
	"encoding/json"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
)

// ChartResult holds the dashboard chart series. Category amounts are
// magnitudes; monthly expense sums stay negative.
type ChartResult struct {
	ExpenseByCategory []CategoryAmount
	MonthlyFlow       []MonthlyFlow
}

// PrepareCharts builds both chart series. The table must carry the data,
// tipo and valor columns.
func PrepareCharts(table *ledger.Table) (*ChartResult, error) {
	if err := table.Require(ledger.ColumnDate, ledger.ColumnType, ledger.ColumnAmount); err != nil {
		return nil, err
	}
	return &ChartResult{
		ExpenseByCategory: CategoryTotals(table, ledger.TypeExpense, true),
		MonthlyFlow:       MonthlyFlows(table),
	}, nil
}

type categoryChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type monthlyChart struct {
	Months   []string  `json:"meses"`
	Revenues []float64 `json:"receitas"`
	Expenses []float64 `json:"despesas"`
}

// MarshalJSON renders the series in the column layout the dashboard charts read.
func (c *ChartResult) MarshalJSON() ([]byte, error) {
	cat := categoryChart{
		Labels: make([]string, 0, len(c.ExpenseByCategory)),
		Values: make([]float64, 0, len(c.ExpenseByCategory)),
	}
	for _, e := range c.ExpenseByCategory {
		cat.Labels = append(cat.Labels, e.Label)
		cat.Values = append(cat.Values, e.Amount.InexactFloat64())
	}

	flow := monthlyChart{
		Months:   make([]string, 0, len(c.MonthlyFlow)),
		Revenues: make([]float64, 0, len(c.MonthlyFlow)),
		Expenses: make([]float64, 0, len(c.MonthlyFlow)),
	}
	for _, m := range c.MonthlyFlow {
		flow.Months = append(flow.Months, m.Month)
		flow.Revenues = append(flow.Revenues, m.Revenue.InexactFloat64())
		flow.Expenses = append(flow.Expenses, m.Expense.InexactFloat64())
	}

	return json.Marshal(struct {
		ExpenseByCategory categoryChart `json:"despesas_categoria"`
		MonthlyFlow       monthlyChart  `json:"fluxo_mensal"`
	}{cat, flow})
}
