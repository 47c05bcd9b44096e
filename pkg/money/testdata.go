package money

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic spreadsheet uploads using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0),
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// TestRow is one generated spreadsheet line together with the amount the
// normalizer is expected to store for it.
type TestRow struct {
	Date     time.Time
	Type     string // "Receita" or "Despesa"
	Category string
	Amount   *Money // as written in the file, always a positive magnitude
	Padded   bool   // tipo written with surrounding whitespace
}

// Expected returns the canonical signed amount: expenses become negative.
func (r TestRow) Expected() decimal.Decimal {
	if r.Type == "Despesa" {
		return r.Amount.Negate().ToDecimal()
	}
	return r.Amount.ToDecimal()
}

// Row generates a single random row dated inside the given month.
func (g *TestDataGenerator) Row(year int, month time.Month) TestRow {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	row := TestRow{
		Date:   g.faker.DateRange(start, end).Truncate(24 * time.Hour),
		Padded: g.faker.Bool(),
	}
	if g.faker.Number(0, 3) == 0 {
		row.Type = "Receita"
		row.Category = g.faker.RandomString(incomeCategories)
		row.Amount = New(int64(g.faker.Number(100000, 1500000)))
	} else {
		row.Type = "Despesa"
		row.Category = g.faker.RandomString(expenseCategories)
		row.Amount = New(int64(g.faker.Number(500, 250000)))
	}
	return row
}

// Rows generates count rows spread across the months of a year.
func (g *TestDataGenerator) Rows(year int, count int) []TestRow {
	rows := make([]TestRow, count)
	for i := range rows {
		rows[i] = g.Row(year, time.Month(g.faker.Number(1, 12)))
	}
	return rows
}

// CSV renders rows as a comma-separated upload with Brazilian formatted
// amounts and day-first dates, mirroring real bank exports.
func (g *TestDataGenerator) CSV(rows []TestRow) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"data", "tipo", "categoria", "valor"})
	for _, r := range rows {
		tipo := r.Type
		if r.Padded {
			tipo = "  " + tipo + " "
		}
		_ = w.Write([]string{r.Date.Format("02/01/2006"), tipo, r.Category, r.Amount.Brazilian()})
	}
	w.Flush()
	return buf.Bytes()
}

var expenseCategories = []string{
	"Aluguel", "Mercado", "Transporte", "Combustível",
	"Restaurante", "Lazer", "Energia", "Internet",
	"Saúde", "Educação", "Impostos", "Manutenção",
}

var incomeCategories = []string{
	"Salário", "Freelance", "Vendas", "Dividendos",
	"Reembolso", "Aluguel Recebido",
}
