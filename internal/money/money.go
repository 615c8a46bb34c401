// Package money centralizes the monetary arithmetic that every order,
// quotation, invoice and installment form shares. Values travel as float64
// reais on the wire; anything that must sum exactly goes through integer
// centavos first.
package money

import "math"

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Cents converts a value in reais to integer centavos.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// FromCents converts integer centavos back to reais.
func FromCents(c int64) float64 {
	return float64(c) / 100
}

// Line is one repeating item of an order, quotation or invoice.
type Line struct {
	Quantidade    float64
	PrecoUnitario float64
	DescontoPct   float64
}

// Subtotal is quantidade*preco minus the percentage discount, rounded to
// two decimals.
func (l Line) Subtotal() float64 {
	gross := l.Quantidade * l.PrecoUnitario
	return Round2(gross - gross*(l.DescontoPct/100))
}

// OrderTotal sums the line subtotals, adds freight and subtracts the
// document-level discount.
func OrderTotal(lines []Line, frete, desconto float64) float64 {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return Round2(total + frete - desconto)
}

// InvoiceTotals is the breakdown of a nota fiscal.
type InvoiceTotals struct {
	Produtos float64
	ICMS     float64
	IPI      float64
	Total    float64
}

// Invoice computes nota fiscal totals:
// total = produtos + IPI + frete + seguro + outras despesas - desconto.
// ICMS is informational and not added on top (it is embedded in the price).
func Invoice(itemTotals, itemICMS, itemIPI []float64, frete, seguro, outras, desconto float64) InvoiceTotals {
	var t InvoiceTotals
	for _, v := range itemTotals {
		t.Produtos += v
	}
	for _, v := range itemICMS {
		t.ICMS += v
	}
	for _, v := range itemIPI {
		t.IPI += v
	}
	t.Produtos = Round2(t.Produtos)
	t.ICMS = Round2(t.ICMS)
	t.IPI = Round2(t.IPI)
	t.Total = Round2(t.Produtos + t.IPI + frete + seguro + outras - desconto)
	return t
}

// SplitInstallments divides total into n parts of two decimals each. Every
// installment gets round2(total/n) and the last one absorbs the rounding
// remainder, so the parts always sum back to total exactly.
// 100.00 into 3 yields 33.33, 33.33, 33.34.
func SplitInstallments(total float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	totalCents := Cents(total)
	per := Cents(Round2(total / float64(n)))
	parts := make([]float64, n)
	var acc int64
	for i := 0; i < n-1; i++ {
		parts[i] = FromCents(per)
		acc += per
	}
	parts[n-1] = FromCents(totalCents - acc)
	return parts
}
