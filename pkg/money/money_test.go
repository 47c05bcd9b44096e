package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocaleAmount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"brazilian thousands and decimals", "1.234,56", "1234.56"},
		{"us style decimal", "789.01", "789.01"},
		{"comma decimal only", "300,00", "300"},
		{"negative brazilian", "-1.000,50", "-1000.5"},
		{"surrounding whitespace", "  42,10 ", "42.1"},
		{"integer", "15", "15"},
		{"many thousands groups", "1.234.567,89", "1234567.89"},
		{"negative plain", "-50", "-50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocaleAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseLocaleAmount_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"empty string", ""},
		{"only whitespace", "   "},
		{"nil", nil},
		{"float is not a string", 12.5},
		{"int is not a string", 7},
		{"letters", "abc"},
		{"currency residue", "R$ 10,00"},
		{"two commas", "1,234,56"},
		{"periods without comma", "1.234.567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLocaleAmount(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParseFailure))
		})
	}
}

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"precise decimal", "123.45", 12345},
		{"many decimals", "99.999", 10000},
		{"whole number", "500", 50000},
		{"negative", "-25.50", -2550},
		{"half away from zero", "-0.005", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFromDecimal(decimal.RequireFromString(tt.amount))
			assert.Equal(t, tt.want, m.Amount())
		})
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"1000", "R$ 1,000.00"},
		{"-300", "R$ -300.00"},
		{"0", "R$ 0.00"},
		{"1234567.891", "R$ 1,234,567.89"},
		{"0.5", "R$ 0.50"},
		{"-0.01", "R$ -0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBRL(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "70.00%", FormatPercent(decimal.NewFromInt(70)))
	assert.Equal(t, "0.00%", FormatPercent(decimal.Zero))
	assert.Equal(t, "-12.35%", FormatPercent(decimal.RequireFromString("-12.345")))
	assert.Equal(t, "33.33%", FormatPercent(decimal.NewFromInt(100).Div(decimal.NewFromInt(3))))
}

func TestMoney_SignHelpers(t *testing.T) {
	m := New(-4550)
	assert.True(t, m.IsNegative())
	assert.False(t, m.IsPositive())
	assert.Equal(t, int64(4550), m.Abs().Amount())
	assert.Equal(t, int64(4550), m.Negate().Amount())
	assert.Equal(t, "R$ -45.50", m.Display())
	assert.Equal(t, "-45,50", m.Brazilian())
	assert.True(t, decimal.RequireFromString("-45.5").Equal(m.ToDecimal()))
}

func TestMoney_Brazilian(t *testing.T) {
	assert.Equal(t, "1.234,56", New(123456).Brazilian())
	assert.Equal(t, "0,05", New(5).Brazilian())
}

func TestTestDataGenerator_RoundTrip(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)
	rows := gen.Rows(2024, 25)
	require.Len(t, rows, 25)

	for _, r := range rows {
		parsed, err := ParseLocaleAmount(r.Amount.Brazilian())
		require.NoError(t, err)
		assert.True(t, r.Amount.ToDecimal().Equal(parsed))
		assert.Equal(t, 2024, r.Date.Year())
		if r.Type == "Despesa" {
			assert.True(t, r.Expected().IsNegative())
		} else {
			assert.True(t, r.Expected().IsPositive())
		}
	}

	assert.Contains(t, string(gen.CSV(rows[:1])), "data,tipo,categoria,valor\n")
}
