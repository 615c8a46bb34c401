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

type itemNotaReq struct {
	MaterialID    *int    `json:"material_id"`
	Descricao     string  `json:"descricao"`
	Quantidade    float64 `json:"quantidade"`
	Unidade       string  `json:"unidade"`
	ValorUnitario float64 `json:"valor_unitario"`
	ValorICMS     float64 `json:"valor_icms"`
	ValorIPI      float64 `json:"valor_ipi"`
}

type notaFiscalReq struct {
	ClienteID           int           `json:"cliente_id"`
	PedidoVendaID       *int          `json:"pedido_venda_id"`
	Serie               string        `json:"serie"`
	ValorFrete          float64       `json:"valor_frete"`
	ValorSeguro         float64       `json:"valor_seguro"`
	ValorDesconto       float64       `json:"valor_desconto"`
	ValorOutrasDespesas float64       `json:"valor_outras_despesas"`
	Observacoes         string        `json:"observacoes"`
	Itens               []itemNotaReq `json:"itens"`
}

// buildItens turns the request lines into persisted items and computes the
// invoice totals from them.
func (req *notaFiscalReq) buildItens() ([]models.ItemNotaFiscal, money.InvoiceTotals, string) {
	if len(req.Itens) == 0 {
		return nil, money.InvoiceTotals{}, "Nota deve ter ao menos um item"
	}
	itens := make([]models.ItemNotaFiscal, 0, len(req.Itens))
	totals := make([]float64, 0, len(req.Itens))
	icms := make([]float64, 0, len(req.Itens))
	ipi := make([]float64, 0, len(req.Itens))
	for _, it := range req.Itens {
		if it.Quantidade <= 0 || it.ValorUnitario < 0 {
			return nil, money.InvoiceTotals{}, "Quantidade e valor devem ser positivos"
		}
		valorTotal := money.Round2(it.Quantidade * it.ValorUnitario)
		itens = append(itens, models.ItemNotaFiscal{
			MaterialID:    it.MaterialID,
			Descricao:     it.Descricao,
			Quantidade:    it.Quantidade,
			Unidade:       it.Unidade,
			ValorUnitario: it.ValorUnitario,
			ValorTotal:    valorTotal,
			ValorICMS:     money.Round2(it.ValorICMS),
			ValorIPI:      money.Round2(it.ValorIPI),
		})
		totals = append(totals, valorTotal)
		icms = append(icms, it.ValorICMS)
		ipi = append(ipi, it.ValorIPI)
	}
	t := money.Invoice(totals, icms, ipi,
		req.ValorFrete, req.ValorSeguro, req.ValorOutrasDespesas, req.ValorDesconto)
	return itens, t, ""
}

func ListNotasFiscais(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Itens").Preload("Cliente").Order("id desc")
		if st := r.URL.Query().Get("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		if c := r.URL.Query().Get("cliente_id"); c != "" {
			q = q.Where("cliente_id = ?", c)
		}
		var list []models.NotaFiscal
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateNotaFiscal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notaFiscalReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		var cliente models.Cliente
		if err := db.First(&cliente, "id = ?", req.ClienteID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cliente não encontrado")
			return
		}
		itens, totals, msg := req.buildItens()
		if msg != "" {
			respondDetail(w, http.StatusBadRequest, msg)
			return
		}
		serie := req.Serie
		if serie == "" {
			serie = "1"
		}
		nf := models.NotaFiscal{
			Numero:              nextNumero(db, &models.NotaFiscal{}, "NF", 6),
			Serie:               serie,
			ClienteID:           cliente.ID,
			PedidoVendaID:       req.PedidoVendaID,
			Status:              models.NotaRascunho,
			ValorProdutos:       totals.Produtos,
			ValorICMS:           totals.ICMS,
			ValorIPI:            totals.IPI,
			ValorFrete:          money.Round2(req.ValorFrete),
			ValorSeguro:         money.Round2(req.ValorSeguro),
			ValorDesconto:       money.Round2(req.ValorDesconto),
			ValorOutrasDespesas: money.Round2(req.ValorOutrasDespesas),
			ValorTotal:          totals.Total,
			Observacoes:         req.Observacoes,
			Itens:               itens,
		}
		if err := db.Create(&nf).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("nota fiscal criada", "numero", nf.Numero, "total", nf.ValorTotal)
		respondJSON(w, nf)
	}
}

func GetNotaFiscal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var nf models.NotaFiscal
		if err := db.Preload("Itens").Preload("Cliente").
			First(&nf, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Nota fiscal não encontrada")
			return
		}
		respondJSON(w, nf)
	}
}

func UpdateNotaFiscal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var nf models.NotaFiscal
		if err := db.First(&nf, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Nota fiscal não encontrada")
			return
		}
		if nf.Status != models.NotaRascunho {
			respondDetail(w, http.StatusBadRequest, "Apenas notas em rascunho podem ser alteradas")
			return
		}
		var req notaFiscalReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		itens, totals, msg := req.buildItens()
		if msg != "" {
			respondDetail(w, http.StatusBadRequest, msg)
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("nota_fiscal_id = ?", nf.ID).
				Delete(&models.ItemNotaFiscal{}).Error; err != nil {
				return err
			}
			if req.ClienteID != 0 {
				nf.ClienteID = req.ClienteID
			}
			nf.ValorProdutos = totals.Produtos
			nf.ValorICMS = totals.ICMS
			nf.ValorIPI = totals.IPI
			nf.ValorFrete = money.Round2(req.ValorFrete)
			nf.ValorSeguro = money.Round2(req.ValorSeguro)
			nf.ValorDesconto = money.Round2(req.ValorDesconto)
			nf.ValorOutrasDespesas = money.Round2(req.ValorOutrasDespesas)
			nf.ValorTotal = totals.Total
			nf.Observacoes = req.Observacoes
			nf.Itens = itens
			nf.UpdatedAt = time.Now()
			return tx.Save(&nf).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, nf)
	}
}

func DeleteNotaFiscal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var nf models.NotaFiscal
		if err := db.First(&nf, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Nota fiscal não encontrada")
			return
		}
		if nf.Status != models.NotaRascunho {
			respondDetail(w, http.StatusBadRequest, "Apenas notas em rascunho podem ser excluídas")
			return
		}
		if err := db.Select("Itens").Delete(&nf).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Nota fiscal excluída com sucesso"})
	}
}

// EmitirNotaFiscal moves a draft to emitida and stamps the emission date.
func EmitirNotaFiscal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var nf models.NotaFiscal
		if err := db.First(&nf, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Nota fiscal não encontrada")
			return
		}
		if nf.Status != models.NotaRascunho {
			respondDetail(w, http.StatusBadRequest, "Apenas notas em rascunho podem ser emitidas")
			return
		}
		now := time.Now()
		nf.Status = models.NotaEmitida
		nf.DataEmissao = &now
		if err := db.Save(&nf).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		lg.Infow("nota fiscal emitida", "numero", nf.Numero)
		respondJSON(w, nf)
	}
}

func CancelarNotaFiscal(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var nf models.NotaFiscal
		if err := db.First(&nf, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Nota fiscal não encontrada")
			return
		}
		if nf.Status == models.NotaCancelada {
			respondDetail(w, http.StatusBadRequest, "Nota já está cancelada")
			return
		}
		if err := db.Model(&nf).Update("status", models.NotaCancelada).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		lg.Infow("nota fiscal cancelada", "numero", nf.Numero)
		respondJSON(w, map[string]string{"message": "Nota fiscal cancelada com sucesso"})
	}
}

// ResumoFaturamento aggregates issued invoices for the dashboard cards.
func ResumoFaturamento(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var notas []models.NotaFiscal
		if err := db.Where("status = ?", models.NotaEmitida).Find(&notas).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		var total, icms, ipi float64
		mesAtual := 0.0
		agora := time.Now()
		for _, nf := range notas {
			total = money.Round2(total + nf.ValorTotal)
			icms = money.Round2(icms + nf.ValorICMS)
			ipi = money.Round2(ipi + nf.ValorIPI)
			if nf.DataEmissao != nil &&
				nf.DataEmissao.Year() == agora.Year() && nf.DataEmissao.Month() == agora.Month() {
				mesAtual = money.Round2(mesAtual + nf.ValorTotal)
			}
		}
		var rascunhos int64
		db.Model(&models.NotaFiscal{}).Where("status = ?", models.NotaRascunho).Count(&rascunhos)
		respondJSON(w, map[string]any{
			"notas_emitidas":  len(notas),
			"notas_rascunho":  rascunhos,
			"valor_total":     total,
			"valor_mes_atual": mesAtual,
			"total_icms":      icms,
			"total_ipi":       ipi,
		})
	}
}
