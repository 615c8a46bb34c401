package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(33.3333))
	assert.Equal(t, 33.34, Round2(33.335))
	assert.Equal(t, -1.5, Round2(-1.499999999))
	assert.Equal(t, 0.0, Round2(0))
}

func TestLineSubtotal(t *testing.T) {
	assert.Equal(t, 20.0, Line{Quantidade: 2, PrecoUnitario: 10}.Subtotal())
	assert.Equal(t, 4.5, Line{Quantidade: 1, PrecoUnitario: 5, DescontoPct: 10}.Subtotal())
	assert.Equal(t, 0.0, Line{}.Subtotal())
}

func TestOrderTotal(t *testing.T) {
	lines := []Line{
		{Quantidade: 2, PrecoUnitario: 10},
		{Quantidade: 1, PrecoUnitario: 5, DescontoPct: 10},
	}
	// 20 + 4.5 + 3 de frete
	assert.Equal(t, 27.5, OrderTotal(lines, 3, 0))
	assert.Equal(t, 25.5, OrderTotal(lines, 3, 2))
	assert.Equal(t, 0.0, OrderTotal(nil, 0, 0))
}

func TestInvoiceTotals(t *testing.T) {
	tot := Invoice(
		[]float64{100, 50},
		[]float64{18, 9},
		[]float64{5, 2.5},
		10, 3, 1.5, 12,
	)
	assert.Equal(t, 150.0, tot.Produtos)
	assert.Equal(t, 27.0, tot.ICMS)
	assert.Equal(t, 7.5, tot.IPI)
	// produtos + IPI + frete + seguro + outras - desconto
	assert.Equal(t, 160.0, tot.Total)
}

func TestSplitInstallments(t *testing.T) {
	assert.Equal(t, []float64{33.33, 33.33, 33.34}, SplitInstallments(100, 3))
	assert.Equal(t, []float64{100}, SplitInstallments(100, 1))
	assert.Nil(t, SplitInstallments(100, 0))
}

func TestSplitInstallmentsSumsExactly(t *testing.T) {
	totals := []float64{100, 99.99, 0.01, 1234.56, 7, 1000.10}
	for _, total := range totals {
		for n := 1; n <= 12; n++ {
			parts := SplitInstallments(total, n)
			var sum int64
			for _, p := range parts {
				sum += Cents(p)
			}
			assert.Equal(t, Cents(total), sum, "total=%v n=%d", total, n)
		}
	}
}
