package insights

import (
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
	"github.com/FACorreiaa/sheet-insights/pkg/money"
)

const reportTopN = 5

// topic keywords, indexed as the matcher reports them
var topicKeywords = []string{"categoria", "despesa", "receita"}

const (
	kwCategory = iota
	kwExpense
	kwRevenue
)

var topicMatcher = ahocorasick.NewStringMatcher(topicKeywords)

// ComposeReport renders the one-paragraph summary. Expense is shown as a
// magnitude. A topic naming categories or expenses appends the top expense
// categories; one naming revenue appends the top revenue sources.
func ComposeReport(table *ledger.Table, topic string) string {
	t := ComputeTotals(table)

	var b strings.Builder
	fmt.Fprintf(&b, "Receita total: %s. Despesa total: %s. Lucro líquido: %s. Margem de lucro: %s.",
		money.FormatBRL(t.Revenue),
		money.FormatBRL(t.Expense.Abs()),
		money.FormatBRL(t.Net),
		money.FormatPercent(t.Margin),
	)

	if topic == "" {
		return b.String()
	}

	matched := make(map[int]bool, len(topicKeywords))
	for _, i := range topicMatcher.MatchThreadSafe([]byte(strings.ToLower(topic))) {
		matched[i] = true
	}

	if matched[kwCategory] || matched[kwExpense] {
		top := CategoryTotals(table, ledger.TypeExpense, true)
		fmt.Fprintf(&b, " Maiores categorias de despesa: %s.", joinTop(top))
	}
	if matched[kwRevenue] {
		top := CategoryTotals(table, ledger.TypeRevenue, false)
		fmt.Fprintf(&b, " Maiores fontes de receita: %s.", joinTop(top))
	}
	return b.String()
}

func joinTop(items []CategoryAmount) string {
	if len(items) > reportTopN {
		items = items[:reportTopN]
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Label + ": " + money.FormatBRL(it.Amount)
	}
	return strings.Join(parts, "; ")
}
