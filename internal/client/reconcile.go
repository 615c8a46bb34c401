package client

import (
	"context"
	"fmt"

	"gestor/internal/money"
)

// Movimentacao is the bank movement row the reconciliation screen works with.
type Movimentacao struct {
	ID            int     `json:"id"`
	Tipo          string  `json:"tipo"`
	Valor         float64 `json:"valor"`
	Descricao     string  `json:"descricao"`
	DataMovimento string  `json:"data_movimento"`
	Conciliada    bool    `json:"conciliada"`
}

type conciliacaoPayload struct {
	Pendentes     []Movimentacao `json:"pendentes"`
	SaldoAtualERP float64        `json:"saldo_atual_erp"`
}

// Reconciliation is the statement-matching workflow for one bank account:
// the user enters the statement balance, ticks the pending movements that
// appear on the statement, and confirms.
type Reconciliation struct {
	client  *Client
	contaID int

	SaldoExtrato float64
	saldoERP     float64
	pendentes    []Movimentacao
	selected     map[int]bool
}

func NewReconciliation(c *Client, contaID int) *Reconciliation {
	return &Reconciliation{client: c, contaID: contaID, selected: make(map[int]bool)}
}

// Load fetches the pending movements and the ERP balance. Selections are
// reset: a reload starts a fresh matching pass.
func (r *Reconciliation) Load(ctx context.Context) error {
	var payload conciliacaoPayload
	path := fmt.Sprintf("/financeiro/conciliacao/%d", r.contaID)
	if err := r.client.Get(ctx, path, &payload); err != nil {
		return err
	}
	r.pendentes = payload.Pendentes
	r.saldoERP = payload.SaldoAtualERP
	r.selected = make(map[int]bool)
	return nil
}

// Pendentes lists the movements still waiting to be matched.
func (r *Reconciliation) Pendentes() []Movimentacao { return r.pendentes }

// Difference is statement balance minus ERP balance; zero means the account
// reconciles.
func (r *Reconciliation) Difference() float64 {
	return money.Round2(r.SaldoExtrato - r.saldoERP)
}

// Toggle flips the selection of one pending movement. Toggling twice is a
// no-op.
func (r *Reconciliation) Toggle(movID int) {
	if r.selected[movID] {
		delete(r.selected, movID)
		return
	}
	for _, m := range r.pendentes {
		if m.ID == movID {
			r.selected[movID] = true
			return
		}
	}
}

// Selected reports whether one movement is ticked.
func (r *Reconciliation) Selected(movID int) bool { return r.selected[movID] }

// SelectedNet is the net effect of the ticked movements: entradas minus
// saídas.
func (r *Reconciliation) SelectedNet() float64 {
	var net float64
	for _, m := range r.pendentes {
		if !r.selected[m.ID] {
			continue
		}
		if m.Tipo == "entrada" {
			net += m.Valor
		} else {
			net -= m.Valor
		}
	}
	return money.Round2(net)
}

// Confirm marks the ticked movements as reconciled on the server and reloads.
func (r *Reconciliation) Confirm(ctx context.Context) error {
	if len(r.selected) == 0 {
		return nil
	}
	ids := make([]int, 0, len(r.selected))
	for id := range r.selected {
		ids = append(ids, id)
	}
	path := fmt.Sprintf("/financeiro/conciliacao/%d/conciliar", r.contaID)
	body := map[string]any{"movimentacao_ids": ids}
	if err := r.client.Post(ctx, path, body, nil); err != nil {
		return err
	}
	return r.Load(ctx)
}
