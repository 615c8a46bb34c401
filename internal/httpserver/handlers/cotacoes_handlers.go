package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/models"
	"gestor/internal/money"
)

func ListCotacoes(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Itens").Preload("Respostas.Fornecedor").Order("created_at desc")
		if s := r.URL.Query().Get("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		var list []models.Cotacao
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

type cotacaoReq struct {
	Descricao          string               `json:"descricao"`
	DataLimiteResposta *time.Time           `json:"data_limite_resposta"`
	Observacoes        string               `json:"observacoes"`
	Itens              []models.ItemCotacao `json:"itens"`
}

func CreateCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cotacaoReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Descricao == "" || len(req.Itens) == 0 {
			respondDetail(w, http.StatusBadRequest, "descricao e itens obrigatorios")
			return
		}
		cot := models.Cotacao{
			Numero:             nextNumero(db, &models.Cotacao{}, "COT", 5),
			Descricao:          req.Descricao,
			DataLimiteResposta: req.DataLimiteResposta,
			Observacoes:        req.Observacoes,
			Status:             models.CotacaoAberta,
		}
		for _, item := range req.Itens {
			item.ID = 0
			cot.Itens = append(cot.Itens, item)
		}
		if err := db.Create(&cot).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("cotacao criada", "numero", cot.Numero)
		respondJSON(w, cot)
	}
}

func GetCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var cot models.Cotacao
		if err := db.Preload("Itens").Preload("Respostas.Itens").Preload("Respostas.Fornecedor").
			First(&cot, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		respondJSON(w, cot)
	}
}

func UpdateCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var cot models.Cotacao
		if err := db.Preload("Itens").First(&cot, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		if cot.Status == models.CotacaoConvertida {
			respondDetail(w, http.StatusBadRequest, "Cotação já foi convertida")
			return
		}
		var req cotacaoReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Descricao != "" {
			cot.Descricao = req.Descricao
		}
		cot.DataLimiteResposta = req.DataLimiteResposta
		cot.Observacoes = req.Observacoes
		if len(req.Itens) > 0 {
			if err := db.Where("cotacao_id = ?", cot.ID).Delete(&models.ItemCotacao{}).Error; err != nil {
				respondDetail(w, http.StatusInternalServerError, err.Error())
				return
			}
			cot.Itens = nil
			for _, item := range req.Itens {
				item.ID = 0
				item.CotacaoID = cot.ID
				cot.Itens = append(cot.Itens, item)
			}
		}
		cot.UpdatedAt = time.Now()
		if err := db.Save(&cot).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, cot)
	}
}

func DeleteCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var cot models.Cotacao
		if err := db.First(&cot, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		if cot.Status == models.CotacaoConvertida {
			respondDetail(w, http.StatusBadRequest, "Cotação convertida não pode ser cancelada")
			return
		}
		if err := db.Model(&cot).Update("status", models.CotacaoCancelada).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Cotação cancelada com sucesso"})
	}
}

type respostaReq struct {
	FornecedorID int     `json:"fornecedor_id"`
	PrazoEntrega int     `json:"prazo_entrega_dias"`
	Frete        float64 `json:"valor_frete"`
	Observacoes  string  `json:"observacoes"`
	Itens        []struct {
		ItemCotacaoID int     `json:"item_cotacao_id"`
		PrecoUnitario float64 `json:"preco_unitario"`
	} `json:"itens"`
}

func CreateRespostaCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var cot models.Cotacao
		if err := db.Preload("Itens").First(&cot, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		var req respostaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		var fornecedor models.Fornecedor
		if err := db.First(&fornecedor, "id = ?", req.FornecedorID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Fornecedor não encontrado")
			return
		}
		quantidades := map[int]float64{}
		for _, item := range cot.Itens {
			quantidades[item.ID] = item.Quantidade
		}
		resp := models.RespostaFornecedor{
			CotacaoID:    cot.ID,
			FornecedorID: req.FornecedorID,
			PrazoEntrega: req.PrazoEntrega,
			Frete:        req.Frete,
			Observacoes:  req.Observacoes,
		}
		var lines []money.Line
		for _, item := range req.Itens {
			qtd, ok := quantidades[item.ItemCotacaoID]
			if !ok {
				respondDetail(w, http.StatusBadRequest, fmt.Sprintf("item %d não pertence à cotação", item.ItemCotacaoID))
				return
			}
			lines = append(lines, money.Line{Quantidade: qtd, PrecoUnitario: item.PrecoUnitario})
			resp.Itens = append(resp.Itens, models.ItemRespostaCotacao{
				ItemCotacaoID: item.ItemCotacaoID,
				PrecoUnitario: item.PrecoUnitario,
				PrecoTotal:    money.Round2(qtd * item.PrecoUnitario),
			})
		}
		resp.ValorTotal = money.OrderTotal(lines, req.Frete, 0)
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&resp).Error; err != nil {
				return err
			}
			if cot.Status == models.CotacaoAberta {
				return tx.Model(&cot).Update("status", models.CotacaoRespondida).Error
			}
			return nil
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("resposta registrada", "cotacao", cot.Numero, "fornecedor", fornecedor.Nome, "total", resp.ValorTotal)
		respondJSON(w, resp)
	}
}

func ListRespostasCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var respostas []models.RespostaFornecedor
		if err := db.Preload("Itens").Preload("Fornecedor").
			Where("cotacao_id = ?", id).Find(&respostas).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, respostas)
	}
}

func SelecionarFornecedor(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cotacaoID, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		respostaID, err := urlID(r, "respostaID")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid resposta id")
			return
		}
		var cot models.Cotacao
		if err := db.First(&cot, "id = ?", cotacaoID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		var resp models.RespostaFornecedor
		if err := db.First(&resp, "id = ? AND cotacao_id = ?", respostaID, cotacaoID).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Resposta não encontrada")
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.RespostaFornecedor{}).
				Where("cotacao_id = ?", cotacaoID).Update("selecionada", false).Error; err != nil {
				return err
			}
			if err := tx.Model(&resp).Update("selecionada", true).Error; err != nil {
				return err
			}
			return tx.Model(&cot).Updates(map[string]any{
				"melhor_fornecedor_id": resp.FornecedorID,
				"status":               models.CotacaoAprovada,
			}).Error
		})
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Fornecedor selecionado com sucesso"})
	}
}

// ConverterCotacao turns an approved quotation into a purchase order priced
// by the selected supplier response.
func ConverterCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var cot models.Cotacao
		if err := db.Preload("Itens").First(&cot, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		if cot.Status != models.CotacaoAprovada {
			respondDetail(w, http.StatusBadRequest, "Cotação precisa estar aprovada")
			return
		}
		if cot.ConvertidaPedidoID != nil {
			respondDetail(w, http.StatusBadRequest, "Cotação já foi convertida")
			return
		}
		var resp models.RespostaFornecedor
		if err := db.Preload("Itens").
			First(&resp, "cotacao_id = ? AND selecionada = ?", cot.ID, true).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, "Nenhuma resposta selecionada")
			return
		}
		itensCotacao := map[int]models.ItemCotacao{}
		for _, item := range cot.Itens {
			itensCotacao[item.ID] = item
		}
		var seq int64
		db.Model(&models.PedidoCompra{}).Count(&seq)
		pedido := models.PedidoCompra{
			Numero:       fmt.Sprintf("PC-%d-%05d", time.Now().Year(), seq+1),
			FornecedorID: resp.FornecedorID,
			DataPedido:   time.Now(),
			Status:       models.CompraAprovado,
			ValorTotal:   resp.ValorTotal,
			Observacoes:  fmt.Sprintf("Pedido gerado da cotação %s", cot.Numero),
		}
		for _, itemResp := range resp.Itens {
			itemCot, ok := itensCotacao[itemResp.ItemCotacaoID]
			if !ok {
				continue
			}
			pedido.Itens = append(pedido.Itens, models.ItemPedidoCompra{
				MaterialID:    itemCot.MaterialID,
				Descricao:     itemCot.Descricao,
				Quantidade:    itemCot.Quantidade,
				Unidade:       itemCot.Unidade,
				PrecoUnitario: itemResp.PrecoUnitario,
				PrecoTotal:    itemResp.PrecoTotal,
			})
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&pedido).Error; err != nil {
				return err
			}
			return tx.Model(&cot).Updates(map[string]any{
				"convertida_pedido_id": pedido.ID,
				"status":               models.CotacaoConvertida,
			}).Error
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("cotacao convertida", "cotacao", cot.Numero, "pedido", pedido.Numero)
		respondJSON(w, map[string]any{
			"message":       "Cotação convertida com sucesso",
			"pedido_id":     pedido.ID,
			"numero_pedido": pedido.Numero,
		})
	}
}

// ComparativoCotacao summarizes every supplier response side by side.
func ComparativoCotacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var cot models.Cotacao
		if err := db.First(&cot, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Cotação não encontrada")
			return
		}
		var respostas []models.RespostaFornecedor
		if err := db.Preload("Fornecedor").Where("cotacao_id = ?", id).
			Order("valor_total").Find(&respostas).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		linhas := make([]map[string]any, 0, len(respostas))
		for i, resp := range respostas {
			nome := ""
			if resp.Fornecedor != nil {
				nome = resp.Fornecedor.Nome
			}
			linhas = append(linhas, map[string]any{
				"resposta_id":        resp.ID,
				"fornecedor":         nome,
				"valor_total":        resp.ValorTotal,
				"valor_frete":        resp.Frete,
				"prazo_entrega_dias": resp.PrazoEntrega,
				"selecionada":        resp.Selecionada,
				"melhor_preco":       i == 0,
			})
		}
		respondJSON(w, map[string]any{
			"cotacao":   cot.Numero,
			"status":    cot.Status,
			"respostas": linhas,
		})
	}
}
