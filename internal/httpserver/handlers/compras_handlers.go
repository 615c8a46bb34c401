package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/models"
	"gestor/internal/money"
)

// Fornecedores ----------------------------------------------------------------

func ListFornecedores(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Order("nome")
		if r.URL.Query().Get("incluir_inativos") == "" {
			q = q.Where("ativo = ?", true)
		}
		var list []models.Fornecedor
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateFornecedor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f models.Fornecedor
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(f.Nome) == "" {
			respondDetail(w, http.StatusBadRequest, "nome obrigatorio")
			return
		}
		f.ID = 0
		f.Ativo = true
		if f.Codigo == "" {
			f.Codigo = nextCodigo(db, &models.Fornecedor{}, "FOR", 4)
		}
		if err := db.Create(&f).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("fornecedor criado", "id", f.ID, "codigo", f.Codigo)
		respondJSON(w, f)
	}
}

func GetFornecedor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var f models.Fornecedor
		if err := db.First(&f, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Fornecedor não encontrado")
			return
		}
		respondJSON(w, f)
	}
}

func UpdateFornecedor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var f models.Fornecedor
		if err := db.First(&f, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Fornecedor não encontrado")
			return
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		// codigo e id não são editáveis
		delete(patch, "id")
		delete(patch, "codigo")
		if err := db.Model(&f).Updates(patch).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, f)
	}
}

// DeleteFornecedor deactivates; purchase history keeps pointing at the row.
func DeleteFornecedor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		res := db.Model(&models.Fornecedor{}).Where("id = ?", id).Update("ativo", false)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		if res.RowsAffected == 0 {
			respondDetail(w, http.StatusNotFound, "Fornecedor não encontrado")
			return
		}
		respondJSON(w, map[string]string{"message": "Fornecedor desativado com sucesso"})
	}
}

// Pedidos de compra -----------------------------------------------------------

func ListPedidosCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Itens").Preload("Fornecedor").Order("created_at desc")
		if s := r.URL.Query().Get("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		if f := r.URL.Query().Get("fornecedor_id"); f != "" {
			q = q.Where("fornecedor_id = ?", f)
		}
		var list []models.PedidoCompra
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

type pedidoCompraReq struct {
	FornecedorID        int                       `json:"fornecedor_id"`
	DataEntregaPrevista *time.Time                `json:"data_entrega_prevista"`
	Observacoes         string                    `json:"observacoes"`
	Itens               []models.ItemPedidoCompra `json:"itens"`
}

func CreatePedidoCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pedidoCompraReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		var fornecedor models.Fornecedor
		if err := db.First(&fornecedor, "id = ?", req.FornecedorID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Fornecedor não encontrado")
			return
		}
		if len(req.Itens) == 0 {
			respondDetail(w, http.StatusBadRequest, "pedido precisa de ao menos um item")
			return
		}
		var seq int64
		db.Model(&models.PedidoCompra{}).Count(&seq)
		pedido := models.PedidoCompra{
			Numero:              fmt.Sprintf("PC-%d-%05d", time.Now().Year(), seq+1),
			FornecedorID:        req.FornecedorID,
			DataPedido:          time.Now(),
			DataEntregaPrevista: req.DataEntregaPrevista,
			Status:              models.CompraRascunho,
			Observacoes:         req.Observacoes,
		}
		var lines []money.Line
		for _, item := range req.Itens {
			if item.Quantidade <= 0 || item.PrecoUnitario < 0 {
				respondDetail(w, http.StatusBadRequest, "quantidade deve ser positiva")
				return
			}
			item.ID = 0
			item.PrecoTotal = money.Round2(item.Quantidade * item.PrecoUnitario)
			lines = append(lines, money.Line{Quantidade: item.Quantidade, PrecoUnitario: item.PrecoUnitario})
			pedido.Itens = append(pedido.Itens, item)
		}
		pedido.ValorTotal = money.OrderTotal(lines, 0, 0)
		if err := db.Create(&pedido).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("pedido de compra criado", "numero", pedido.Numero, "total", pedido.ValorTotal)
		respondJSON(w, pedido)
	}
}

func GetPedidoCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoCompra
		if err := db.Preload("Itens").Preload("Fornecedor").First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		respondJSON(w, pedido)
	}
}

func UpdatePedidoCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoCompra
		if err := db.Preload("Itens").First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		if pedido.Status == models.CompraRecebido || pedido.Status == models.CompraCancelado {
			respondDetail(w, http.StatusBadRequest, "pedido encerrado não pode ser alterado")
			return
		}
		var req pedidoCompraReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		pedido.DataEntregaPrevista = req.DataEntregaPrevista
		pedido.Observacoes = req.Observacoes
		if req.FornecedorID != 0 {
			pedido.FornecedorID = req.FornecedorID
		}
		if len(req.Itens) > 0 {
			if err := db.Where("pedido_compra_id = ?", pedido.ID).Delete(&models.ItemPedidoCompra{}).Error; err != nil {
				respondDetail(w, http.StatusInternalServerError, err.Error())
				return
			}
			pedido.Itens = nil
			var lines []money.Line
			for _, item := range req.Itens {
				item.ID = 0
				item.PedidoCompraID = pedido.ID
				item.PrecoTotal = money.Round2(item.Quantidade * item.PrecoUnitario)
				lines = append(lines, money.Line{Quantidade: item.Quantidade, PrecoUnitario: item.PrecoUnitario})
				pedido.Itens = append(pedido.Itens, item)
			}
			pedido.ValorTotal = money.OrderTotal(lines, 0, 0)
		}
		pedido.UpdatedAt = time.Now()
		if err := db.Save(&pedido).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, pedido)
	}
}

// DeletePedidoCompra cancels instead of removing.
func DeletePedidoCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		res := db.Model(&models.PedidoCompra{}).Where("id = ?", id).Update("status", models.CompraCancelado)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		if res.RowsAffected == 0 {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		respondJSON(w, map[string]string{"message": "Pedido cancelado com sucesso"})
	}
}

func AprovarPedidoCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoCompra
		if err := db.First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		if pedido.Status != models.CompraSolicitado {
			respondDetail(w, http.StatusBadRequest, "Apenas pedidos solicitados podem ser aprovados")
			return
		}
		pedido.Status = models.CompraAprovado
		if err := db.Save(&pedido).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		lg.Infow("pedido aprovado", "numero", pedido.Numero)
		respondJSON(w, map[string]string{"message": "Pedido aprovado com sucesso"})
	}
}

// ReceberPedidoCompra marks the order received and posts stock entries for
// items linked to a material.
func ReceberPedidoCompra(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoCompra
		if err := db.Preload("Itens").First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		if pedido.Status != models.CompraAprovado && pedido.Status != models.CompraPedidoEnviado {
			respondDetail(w, http.StatusBadRequest, "Apenas pedidos aprovados podem ser recebidos")
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			for _, item := range pedido.Itens {
				if item.MaterialID == nil {
					continue
				}
				mov := models.MovimentoEstoque{
					MaterialID:    *item.MaterialID,
					TipoMovimento: models.MovimentoEntrada,
					Quantidade:    item.Quantidade,
					DataMovimento: time.Now(),
					Documento:     pedido.Numero,
					Observacao:    "recebimento de pedido de compra",
				}
				if err := tx.Create(&mov).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.Material{}).Where("id = ?", *item.MaterialID).
					Update("estoque_atual", gorm.Expr("estoque_atual + ?", item.Quantidade)).Error; err != nil {
					return err
				}
			}
			return tx.Model(&pedido).Update("status", models.CompraRecebido).Error
		})
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		lg.Infow("pedido recebido", "numero", pedido.Numero, "itens", strconv.Itoa(len(pedido.Itens)))
		respondJSON(w, map[string]string{"message": "Pedido recebido com sucesso"})
	}
}
