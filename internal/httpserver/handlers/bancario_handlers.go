package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/models"
	"gestor/internal/money"
)

type movimentacaoReq struct {
	ContaBancariaID int     `json:"conta_bancaria_id"`
	Tipo            string  `json:"tipo"`
	Valor           float64 `json:"valor"`
	Descricao       string  `json:"descricao"`
	DataMovimento   string  `json:"data_movimento"`
}

func ListMovimentacoesBancarias(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Order("data_movimento desc").Limit(200)
		if c := r.URL.Query().Get("conta_bancaria_id"); c != "" {
			q = q.Where("conta_bancaria_id = ?", c)
		}
		if t := r.URL.Query().Get("tipo"); t != "" {
			q = q.Where("tipo = ?", t)
		}
		var list []models.MovimentacaoBancaria
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

// CreateMovimentacaoBancaria posts a manual entry or withdrawal and keeps the
// account balance in step.
func CreateMovimentacaoBancaria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req movimentacaoReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Valor <= 0 {
			respondDetail(w, http.StatusBadRequest, "Valor deve ser maior que zero")
			return
		}
		tipo := models.TipoMovimento(req.Tipo)
		if tipo != models.MovimentoEntrada && tipo != models.MovimentoSaida {
			respondDetail(w, http.StatusBadRequest, "Tipo deve ser entrada ou saida")
			return
		}
		var conta models.ContaBancaria
		if err := db.First(&conta, "id = ? AND ativa = ?", req.ContaBancariaID, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta bancária não encontrada")
			return
		}
		when, ok := parseDate(req.DataMovimento)
		if !ok {
			when = time.Now()
		}
		mov := models.MovimentacaoBancaria{
			ContaBancariaID: conta.ID,
			Tipo:            tipo,
			Valor:           money.Round2(req.Valor),
			Descricao:       req.Descricao,
			DataMovimento:   when,
		}
		delta := mov.Valor
		if tipo == models.MovimentoSaida {
			delta = -mov.Valor
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&mov).Error; err != nil {
				return err
			}
			return tx.Model(&conta).
				Update("saldo_atual", gorm.Expr("saldo_atual + ?", delta)).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, mov)
	}
}

// DeleteMovimentacaoBancaria removes a manual movement and reverses its effect
// on the balance. Reconciled movements are immutable.
func DeleteMovimentacaoBancaria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var mov models.MovimentacaoBancaria
		if err := db.First(&mov, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Movimentação não encontrada")
			return
		}
		if mov.Conciliada {
			respondDetail(w, http.StatusBadRequest, "Movimentação conciliada não pode ser excluída")
			return
		}
		delta := -mov.Valor
		if mov.Tipo == models.MovimentoSaida {
			delta = mov.Valor
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&mov).Error; err != nil {
				return err
			}
			return tx.Model(&models.ContaBancaria{}).Where("id = ?", mov.ContaBancariaID).
				Update("saldo_atual", gorm.Expr("saldo_atual + ?", delta)).Error
		})
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Movimentação excluída com sucesso"})
	}
}

type transferenciaReq struct {
	ContaOrigemID  int     `json:"conta_origem_id"`
	ContaDestinoID int     `json:"conta_destino_id"`
	Valor          float64 `json:"valor"`
	Descricao      string  `json:"descricao"`
	DataMovimento  string  `json:"data_movimento"`
}

// TransferenciaBancaria moves money between two accounts as a paired
// saída/entrada.
func TransferenciaBancaria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferenciaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Valor <= 0 {
			respondDetail(w, http.StatusBadRequest, "Valor deve ser maior que zero")
			return
		}
		if req.ContaOrigemID == req.ContaDestinoID {
			respondDetail(w, http.StatusBadRequest, "Conta de origem e destino devem ser diferentes")
			return
		}
		var origem, destino models.ContaBancaria
		if err := db.First(&origem, "id = ? AND ativa = ?", req.ContaOrigemID, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta de origem não encontrada")
			return
		}
		if err := db.First(&destino, "id = ? AND ativa = ?", req.ContaDestinoID, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta de destino não encontrada")
			return
		}
		when, ok := parseDate(req.DataMovimento)
		if !ok {
			when = time.Now()
		}
		desc := req.Descricao
		if desc == "" {
			desc = "Transferência entre contas"
		}
		valor := money.Round2(req.Valor)
		err := db.Transaction(func(tx *gorm.DB) error {
			saida := models.MovimentacaoBancaria{
				ContaBancariaID: origem.ID,
				Tipo:            models.MovimentoSaida,
				Valor:           valor,
				Descricao:       desc + " → " + destino.Nome,
				DataMovimento:   when,
			}
			entrada := models.MovimentacaoBancaria{
				ContaBancariaID: destino.ID,
				Tipo:            models.MovimentoEntrada,
				Valor:           valor,
				Descricao:       desc + " ← " + origem.Nome,
				DataMovimento:   when,
			}
			if err := tx.Create(&saida).Error; err != nil {
				return err
			}
			if err := tx.Create(&entrada).Error; err != nil {
				return err
			}
			if err := tx.Model(&origem).
				Update("saldo_atual", gorm.Expr("saldo_atual - ?", valor)).Error; err != nil {
				return err
			}
			return tx.Model(&destino).
				Update("saldo_atual", gorm.Expr("saldo_atual + ?", valor)).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("transferencia bancaria", "origem", origem.Nome, "destino", destino.Nome, "valor", valor)
		respondJSON(w, map[string]any{
			"message": "Transferência realizada com sucesso",
			"origem":  origem.Nome,
			"destino": destino.Nome,
			"valor":   valor,
		})
	}
}

// Conciliacao returns the movements of an account still pending
// reconciliation, with the entrada/saída totals the screen needs.
func Conciliacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contaID, err := urlID(r, "contaID")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var conta models.ContaBancaria
		if err := db.First(&conta, "id = ?", contaID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta bancária não encontrada")
			return
		}
		var pendentes []models.MovimentacaoBancaria
		if err := db.Where("conta_bancaria_id = ? AND conciliada = ?", contaID, false).
			Order("data_movimento").Find(&pendentes).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		var entradas, saidas float64
		for _, m := range pendentes {
			if m.Tipo == models.MovimentoEntrada {
				entradas = money.Round2(entradas + m.Valor)
			} else {
				saidas = money.Round2(saidas + m.Valor)
			}
		}
		respondJSON(w, map[string]any{
			"conta":           conta,
			"pendentes":       pendentes,
			"total_entradas":  entradas,
			"total_saidas":    saidas,
			"saldo_pendente":  money.Round2(entradas - saidas),
			"saldo_atual_erp": conta.SaldoAtual,
		})
	}
}

type conciliarReq struct {
	MovimentacaoIDs []int `json:"movimentacao_ids"`
}

// ConciliarMovimentacoes marks the given movements of an account as
// reconciled against the bank statement.
func ConciliarMovimentacoes(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contaID, err := urlID(r, "contaID")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req conciliarReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.MovimentacaoIDs) == 0 {
			respondDetail(w, http.StatusBadRequest, "Nenhuma movimentação informada")
			return
		}
		res := db.Model(&models.MovimentacaoBancaria{}).
			Where("conta_bancaria_id = ? AND id IN ?", contaID, req.MovimentacaoIDs).
			Update("conciliada", true)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		lg.Infow("conciliacao", "conta", contaID, "movimentacoes", res.RowsAffected)
		respondJSON(w, map[string]any{
			"message":     "Movimentações conciliadas",
			"conciliadas": res.RowsAffected,
		})
	}
}
