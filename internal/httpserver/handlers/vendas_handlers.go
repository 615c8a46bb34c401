package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/models"
	"gestor/internal/money"
)

// Clientes --------------------------------------------------------------------

func ListClientes(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Order("nome")
		if r.URL.Query().Get("incluir_inativos") == "" {
			q = q.Where("ativo = ?", true)
		}
		if busca := r.URL.Query().Get("busca"); busca != "" {
			like := "%" + strings.ToLower(busca) + "%"
			q = q.Where("lower(nome) LIKE ? OR lower(razao_social) LIKE ? OR cpf_cnpj LIKE ?",
				like, like, "%"+busca+"%")
		}
		var list []models.Cliente
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateCliente(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Cliente
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(c.Nome) == "" {
			respondDetail(w, http.StatusBadRequest, "nome obrigatorio")
			return
		}
		c.ID = 0
		c.Ativo = true
		if c.Codigo == "" {
			c.Codigo = nextCodigo(db, &models.Cliente{}, "CLI", 4)
		}
		if err := db.Create(&c).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("cliente criado", "codigo", c.Codigo, "nome", c.Nome)
		respondJSON(w, c)
	}
}

func GetCliente(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var c models.Cliente
		if err := db.First(&c, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cliente não encontrado")
			return
		}
		respondJSON(w, c)
	}
}

func GetClientePorCodigo(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codigo := chi.URLParam(r, "codigo")
		var c models.Cliente
		if err := db.First(&c, "codigo = ?", codigo).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cliente não encontrado")
			return
		}
		respondJSON(w, c)
	}
}

func UpdateCliente(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var c models.Cliente
		if err := db.First(&c, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cliente não encontrado")
			return
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		delete(patch, "id")
		delete(patch, "codigo")
		if err := db.Model(&c).Updates(patch).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, c)
	}
}

func setClienteAtivo(db *gorm.DB, ativo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		res := db.Model(&models.Cliente{}).Where("id = ?", id).Update("ativo", ativo)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		if res.RowsAffected == 0 {
			respondDetail(w, http.StatusNotFound, "Cliente não encontrado")
			return
		}
		msg := "Cliente desativado com sucesso"
		if ativo {
			msg = "Cliente reativado com sucesso"
		}
		respondJSON(w, map[string]string{"message": msg})
	}
}

func DesativarCliente(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return setClienteAtivo(db, false)
}

func AtivarCliente(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return setClienteAtivo(db, true)
}

// Pedidos de venda ------------------------------------------------------------

type itemVendaReq struct {
	MaterialID    *int    `json:"material_id"`
	Descricao     string  `json:"descricao"`
	Quantidade    float64 `json:"quantidade"`
	Unidade       string  `json:"unidade"`
	PrecoUnitario float64 `json:"preco_unitario"`
	DescontoPct   float64 `json:"desconto_pct"`
}

type pedidoVendaReq struct {
	ClienteID     int            `json:"cliente_id"`
	DataPedido    string         `json:"data_pedido"`
	ValorFrete    float64        `json:"valor_frete"`
	ValorDesconto float64        `json:"valor_desconto"`
	Observacoes   string         `json:"observacoes"`
	Itens         []itemVendaReq `json:"itens"`
}

func (req *pedidoVendaReq) buildItens() ([]models.ItemPedidoVenda, []money.Line, string) {
	if len(req.Itens) == 0 {
		return nil, nil, "Pedido deve ter ao menos um item"
	}
	itens := make([]models.ItemPedidoVenda, 0, len(req.Itens))
	lines := make([]money.Line, 0, len(req.Itens))
	for _, it := range req.Itens {
		if it.Quantidade <= 0 || it.PrecoUnitario < 0 {
			return nil, nil, "Quantidade e preço devem ser positivos"
		}
		line := money.Line{
			Quantidade:    it.Quantidade,
			PrecoUnitario: it.PrecoUnitario,
			DescontoPct:   it.DescontoPct,
		}
		itens = append(itens, models.ItemPedidoVenda{
			MaterialID:    it.MaterialID,
			Descricao:     it.Descricao,
			Quantidade:    it.Quantidade,
			Unidade:       it.Unidade,
			PrecoUnitario: it.PrecoUnitario,
			DescontoPct:   it.DescontoPct,
			PrecoTotal:    line.Subtotal(),
		})
		lines = append(lines, line)
	}
	return itens, lines, ""
}

func ListPedidosVenda(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Itens").Preload("Cliente").Order("id desc")
		if st := r.URL.Query().Get("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		if c := r.URL.Query().Get("cliente_id"); c != "" {
			q = q.Where("cliente_id = ?", c)
		}
		var list []models.PedidoVenda
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreatePedidoVenda(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pedidoVendaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		var cliente models.Cliente
		if err := db.First(&cliente, "id = ? AND ativo = ?", req.ClienteID, true).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cliente não encontrado")
			return
		}
		itens, lines, msg := req.buildItens()
		if msg != "" {
			respondDetail(w, http.StatusBadRequest, msg)
			return
		}
		dataPedido, ok := parseDate(req.DataPedido)
		if !ok {
			dataPedido = time.Now()
		}
		var seq int64
		db.Model(&models.PedidoVenda{}).Count(&seq)
		pedido := models.PedidoVenda{
			Numero:        fmt.Sprintf("PV-%d-%05d", time.Now().Year(), seq+1),
			ClienteID:     cliente.ID,
			DataPedido:    dataPedido,
			Status:        "aberto",
			ValorFrete:    money.Round2(req.ValorFrete),
			ValorDesconto: money.Round2(req.ValorDesconto),
			ValorTotal:    money.OrderTotal(lines, req.ValorFrete, req.ValorDesconto),
			Observacoes:   req.Observacoes,
			Itens:         itens,
		}
		if err := db.Create(&pedido).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("pedido de venda criado", "numero", pedido.Numero, "total", pedido.ValorTotal)
		respondJSON(w, pedido)
	}
}

func GetPedidoVenda(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoVenda
		if err := db.Preload("Itens").Preload("Cliente").
			First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		respondJSON(w, pedido)
	}
}

func UpdatePedidoVenda(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoVenda
		if err := db.First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		if pedido.Status != "aberto" {
			respondDetail(w, http.StatusBadRequest, "Apenas pedidos abertos podem ser alterados")
			return
		}
		var req pedidoVendaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		itens, lines, msg := req.buildItens()
		if msg != "" {
			respondDetail(w, http.StatusBadRequest, msg)
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("pedido_venda_id = ?", pedido.ID).
				Delete(&models.ItemPedidoVenda{}).Error; err != nil {
				return err
			}
			if req.ClienteID != 0 {
				pedido.ClienteID = req.ClienteID
			}
			if d, ok := parseDate(req.DataPedido); ok {
				pedido.DataPedido = d
			}
			pedido.ValorFrete = money.Round2(req.ValorFrete)
			pedido.ValorDesconto = money.Round2(req.ValorDesconto)
			pedido.ValorTotal = money.OrderTotal(lines, req.ValorFrete, req.ValorDesconto)
			pedido.Observacoes = req.Observacoes
			pedido.Itens = itens
			pedido.UpdatedAt = time.Now()
			return tx.Save(&pedido).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, pedido)
	}
}

func DeletePedidoVenda(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoVenda
		if err := db.First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		if pedido.Status == "faturado" {
			respondDetail(w, http.StatusBadRequest, "Pedido faturado não pode ser cancelado")
			return
		}
		if err := db.Model(&pedido).Update("status", "cancelado").Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Pedido cancelado com sucesso"})
	}
}

// FaturarPedidoVenda turns an open sales order into a draft invoice plus a
// receivable for the same amount.
func FaturarPedidoVenda(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var pedido models.PedidoVenda
		if err := db.Preload("Itens").First(&pedido, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		if pedido.Status != "aberto" {
			respondDetail(w, http.StatusBadRequest, "Apenas pedidos abertos podem ser faturados")
			return
		}
		itensNF := make([]models.ItemNotaFiscal, 0, len(pedido.Itens))
		var valorProdutos float64
		for _, it := range pedido.Itens {
			itensNF = append(itensNF, models.ItemNotaFiscal{
				MaterialID:    it.MaterialID,
				Descricao:     it.Descricao,
				Quantidade:    it.Quantidade,
				Unidade:       it.Unidade,
				ValorUnitario: it.PrecoUnitario,
				ValorTotal:    it.PrecoTotal,
			})
			valorProdutos = money.Round2(valorProdutos + it.PrecoTotal)
		}
		pedidoID := pedido.ID
		nf := models.NotaFiscal{
			Numero:        nextNumero(db, &models.NotaFiscal{}, "NF", 6),
			Serie:         "1",
			ClienteID:     pedido.ClienteID,
			PedidoVendaID: &pedidoID,
			Status:        models.NotaRascunho,
			ValorProdutos: valorProdutos,
			ValorFrete:    pedido.ValorFrete,
			ValorDesconto: pedido.ValorDesconto,
			ValorTotal:    pedido.ValorTotal,
			Itens:         itensNF,
		}
		clienteID := pedido.ClienteID
		conta := models.ContaReceber{
			Descricao:      "Faturamento pedido " + pedido.Numero,
			ClienteID:      &clienteID,
			DataEmissao:    time.Now(),
			DataVencimento: time.Now().AddDate(0, 0, 30),
			ValorOriginal:  pedido.ValorTotal,
			Status:         models.PagamentoPendente,
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&nf).Error; err != nil {
				return err
			}
			if err := tx.Create(&conta).Error; err != nil {
				return err
			}
			return tx.Model(&pedido).Update("status", "faturado").Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("pedido faturado", "pedido", pedido.Numero, "nota", nf.Numero)
		respondJSON(w, map[string]any{
			"message":          "Pedido faturado com sucesso",
			"nota_fiscal":      nf,
			"conta_receber_id": conta.ID,
		})
	}
}
