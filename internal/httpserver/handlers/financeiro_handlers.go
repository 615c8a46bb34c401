package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/auth"
	"gestor/internal/models"
	"gestor/internal/money"
)

// parseDate accepts the wire formats the frontend sends: bare dates and full
// RFC 3339 timestamps.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Contas bancárias ------------------------------------------------------------

func ListContasBancarias(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []models.ContaBancaria
		if err := db.Where("ativa = ?", true).Order("nome").Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateContaBancaria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.ContaBancaria
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(c.Nome) == "" {
			respondDetail(w, http.StatusBadRequest, "nome obrigatorio")
			return
		}
		c.ID = 0
		c.Ativa = true
		c.SaldoAtual = c.SaldoInicial
		if err := db.Create(&c).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, c)
	}
}

func UpdateContaBancaria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var c models.ContaBancaria
		if err := db.First(&c, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta bancária não encontrada")
			return
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		// saldo muda apenas por movimentação
		delete(patch, "id")
		delete(patch, "saldo_atual")
		delete(patch, "saldo_inicial")
		if err := db.Model(&c).Updates(patch).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, c)
	}
}

func DeleteContaBancaria(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		res := db.Model(&models.ContaBancaria{}).Where("id = ?", id).Update("ativa", false)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		if res.RowsAffected == 0 {
			respondDetail(w, http.StatusNotFound, "Conta bancária não encontrada")
			return
		}
		respondJSON(w, map[string]string{"message": "Conta desativada com sucesso"})
	}
}

// Centros de custo ------------------------------------------------------------

func ListCentrosCusto(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []models.CentroCusto
		if err := db.Where("ativo = ?", true).Order("codigo").Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateCentroCusto(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.CentroCusto
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(c.Nome) == "" || strings.TrimSpace(c.Codigo) == "" {
			respondDetail(w, http.StatusBadRequest, "codigo e nome obrigatorios")
			return
		}
		c.ID = 0
		c.Ativo = true
		if err := db.Create(&c).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, c)
	}
}

func UpdateCentroCusto(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var c models.CentroCusto
		if err := db.First(&c, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Centro de custo não encontrado")
			return
		}
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		delete(patch, "id")
		if err := db.Model(&c).Updates(patch).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, c)
	}
}

func DeleteCentroCusto(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		res := db.Model(&models.CentroCusto{}).Where("id = ?", id).Update("ativo", false)
		if res.Error != nil {
			respondDetail(w, http.StatusInternalServerError, res.Error.Error())
			return
		}
		if res.RowsAffected == 0 {
			respondDetail(w, http.StatusNotFound, "Centro de custo não encontrado")
			return
		}
		respondJSON(w, map[string]string{"message": "Centro de custo desativado com sucesso"})
	}
}

// Contas a pagar --------------------------------------------------------------

type contaReq struct {
	Descricao      string  `json:"descricao"`
	FornecedorID   *int    `json:"fornecedor_id"`
	ClienteID      *int    `json:"cliente_id"`
	PedidoCompraID *int    `json:"pedido_compra_id"`
	CentroCustoID  *int    `json:"centro_custo_id"`
	DataEmissao    string  `json:"data_emissao"`
	DataVencimento string  `json:"data_vencimento"`
	ValorOriginal  float64 `json:"valor_original"`
	Observacoes    string  `json:"observacoes"`
}

func ListContasPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Fornecedor").Preload("Parcelas").Order("data_vencimento")
		if st := r.URL.Query().Get("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		if f := r.URL.Query().Get("fornecedor_id"); f != "" {
			q = q.Where("fornecedor_id = ?", f)
		}
		var list []models.ContaPagar
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		venc, ok := parseDate(req.DataVencimento)
		if !ok || req.Descricao == "" || req.ValorOriginal <= 0 {
			respondDetail(w, http.StatusBadRequest, "descricao, valor e vencimento obrigatorios")
			return
		}
		emissao, ok := parseDate(req.DataEmissao)
		if !ok {
			emissao = time.Now()
		}
		conta := models.ContaPagar{
			Descricao:      req.Descricao,
			FornecedorID:   req.FornecedorID,
			PedidoCompraID: req.PedidoCompraID,
			CentroCustoID:  req.CentroCustoID,
			DataEmissao:    emissao,
			DataVencimento: venc,
			ValorOriginal:  money.Round2(req.ValorOriginal),
			Status:         models.PagamentoPendente,
			Observacoes:    req.Observacoes,
		}
		if err := db.Create(&conta).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, conta)
	}
}

func GetContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var conta models.ContaPagar
		if err := db.Preload("Fornecedor").Preload("Parcelas").
			First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		respondJSON(w, conta)
	}
}

func UpdateContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var conta models.ContaPagar
		if err := db.First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		if conta.Status == models.PagamentoPago {
			respondDetail(w, http.StatusBadRequest, "Conta paga não pode ser alterada")
			return
		}
		var req contaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Descricao != "" {
			conta.Descricao = req.Descricao
		}
		if req.FornecedorID != nil {
			conta.FornecedorID = req.FornecedorID
		}
		if req.CentroCustoID != nil {
			conta.CentroCustoID = req.CentroCustoID
		}
		if venc, ok := parseDate(req.DataVencimento); ok {
			conta.DataVencimento = venc
		}
		if req.ValorOriginal > 0 {
			conta.ValorOriginal = money.Round2(req.ValorOriginal)
		}
		if req.Observacoes != "" {
			conta.Observacoes = req.Observacoes
		}
		if err := db.Save(&conta).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, conta)
	}
}

func DeleteContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var conta models.ContaPagar
		if err := db.First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		if conta.ValorPago > 0 {
			respondDetail(w, http.StatusBadRequest, "Conta com pagamentos não pode ser excluída")
			return
		}
		if err := db.Delete(&conta).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Conta excluída com sucesso"})
	}
}

// Contas parceladas -----------------------------------------------------------

type contaParceladaReq struct {
	Descricao          string  `json:"descricao"`
	FornecedorID       *int    `json:"fornecedor_id"`
	ClienteID          *int    `json:"cliente_id"`
	CentroCustoID      *int    `json:"centro_custo_id"`
	ValorTotal         float64 `json:"valor_total"`
	NumeroParcelas     int     `json:"numero_parcelas"`
	PrimeiroVencimento string  `json:"primeiro_vencimento"`
	IntervaloDias      int     `json:"intervalo_dias"`
	Observacoes        string  `json:"observacoes"`
}

func (req *contaParceladaReq) validate() (time.Time, string) {
	if req.Descricao == "" || req.ValorTotal <= 0 {
		return time.Time{}, "descricao e valor total obrigatorios"
	}
	if req.NumeroParcelas < 1 {
		return time.Time{}, "numero de parcelas deve ser maior que zero"
	}
	first, ok := parseDate(req.PrimeiroVencimento)
	if !ok {
		return time.Time{}, "primeiro vencimento obrigatorio"
	}
	if req.IntervaloDias <= 0 {
		req.IntervaloDias = 30
	}
	return first, ""
}

func (req *contaParceladaReq) parcelas(first time.Time) []models.Parcela {
	valores := money.SplitInstallments(req.ValorTotal, req.NumeroParcelas)
	out := make([]models.Parcela, 0, len(valores))
	for i, v := range valores {
		out = append(out, models.Parcela{
			NumeroParcela:  i + 1,
			TotalParcelas:  req.NumeroParcelas,
			Valor:          v,
			DataVencimento: first.AddDate(0, 0, i*req.IntervaloDias),
			Status:         models.PagamentoPendente,
		})
	}
	return out
}

// CreateContaPagarParcelada creates a payable split into installments. The
// installment values always sum back to the original total.
func CreateContaPagarParcelada(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contaParceladaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		first, msg := req.validate()
		if msg != "" {
			respondDetail(w, http.StatusBadRequest, msg)
			return
		}
		conta := models.ContaPagar{
			Descricao:      req.Descricao,
			FornecedorID:   req.FornecedorID,
			CentroCustoID:  req.CentroCustoID,
			DataEmissao:    time.Now(),
			DataVencimento: first,
			ValorOriginal:  money.Round2(req.ValorTotal),
			Status:         models.PagamentoPendente,
			Observacoes:    req.Observacoes,
			Parcelas:       req.parcelas(first),
		}
		if err := db.Create(&conta).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("conta a pagar parcelada", "id", conta.ID, "parcelas", req.NumeroParcelas)
		respondJSON(w, conta)
	}
}

func CreateContaReceberParcelada(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contaParceladaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		first, msg := req.validate()
		if msg != "" {
			respondDetail(w, http.StatusBadRequest, msg)
			return
		}
		conta := models.ContaReceber{
			Descricao:      req.Descricao,
			ClienteID:      req.ClienteID,
			CentroCustoID:  req.CentroCustoID,
			DataEmissao:    time.Now(),
			DataVencimento: first,
			ValorOriginal:  money.Round2(req.ValorTotal),
			Status:         models.PagamentoPendente,
			Observacoes:    req.Observacoes,
			Parcelas:       req.parcelas(first),
		}
		if err := db.Create(&conta).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("conta a receber parcelada", "id", conta.ID, "parcelas", req.NumeroParcelas)
		respondJSON(w, conta)
	}
}

// Contas a receber ------------------------------------------------------------

func ListContasReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Preload("Cliente").Preload("Parcelas").Order("data_vencimento")
		if st := r.URL.Query().Get("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		if c := r.URL.Query().Get("cliente_id"); c != "" {
			q = q.Where("cliente_id = ?", c)
		}
		var list []models.ContaReceber
		if err := q.Find(&list).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, list)
	}
}

func CreateContaReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		venc, ok := parseDate(req.DataVencimento)
		if !ok || req.Descricao == "" || req.ValorOriginal <= 0 {
			respondDetail(w, http.StatusBadRequest, "descricao, valor e vencimento obrigatorios")
			return
		}
		emissao, ok := parseDate(req.DataEmissao)
		if !ok {
			emissao = time.Now()
		}
		conta := models.ContaReceber{
			Descricao:      req.Descricao,
			ClienteID:      req.ClienteID,
			CentroCustoID:  req.CentroCustoID,
			DataEmissao:    emissao,
			DataVencimento: venc,
			ValorOriginal:  money.Round2(req.ValorOriginal),
			Status:         models.PagamentoPendente,
			Observacoes:    req.Observacoes,
		}
		if err := db.Create(&conta).Error; err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, conta)
	}
}

func GetContaReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var conta models.ContaReceber
		if err := db.Preload("Cliente").Preload("Parcelas").
			First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		respondJSON(w, conta)
	}
}

func DeleteContaReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var conta models.ContaReceber
		if err := db.First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		if conta.ValorRecebido > 0 {
			respondDetail(w, http.StatusBadRequest, "Conta com recebimentos não pode ser excluída")
			return
		}
		if err := db.Delete(&conta).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]string{"message": "Conta excluída com sucesso"})
	}
}

// Baixa (liquidação) ----------------------------------------------------------

type baixaReq struct {
	Valor           float64 `json:"valor"`
	Juros           float64 `json:"juros"`
	Desconto        float64 `json:"desconto"`
	ContaBancariaID int     `json:"conta_bancaria_id"`
	DataLiquidacao  string  `json:"data_liquidacao"`
	Observacoes     string  `json:"observacoes"`
}

func (req *baixaReq) efetivo() float64 {
	return money.Round2(req.Valor + req.Juros - req.Desconto)
}

func usuarioID(db *gorm.DB, r *http.Request) int {
	if sub := auth.Subject(r.Context()); sub != "" {
		var u models.User
		if err := db.Select("id").First(&u, "email = ?", sub).Error; err == nil {
			return u.ID
		}
	}
	return 0
}

// liquidar applies one settlement inside tx: history entry, bank movement and
// balance update. tipo is "pagar" or "receber".
func liquidar(tx *gorm.DB, tipo string, contaID int, req baixaReq, userID int) error {
	when, ok := parseDate(req.DataLiquidacao)
	if !ok {
		when = time.Now()
	}
	hist := models.HistoricoLiquidacao{
		ContaID:         contaID,
		Tipo:            tipo,
		Valor:           money.Round2(req.Valor),
		Juros:           money.Round2(req.Juros),
		Desconto:        money.Round2(req.Desconto),
		ContaBancariaID: req.ContaBancariaID,
		DataLiquidacao:  when,
		Observacoes:     req.Observacoes,
		UsuarioID:       userID,
	}
	if err := tx.Create(&hist).Error; err != nil {
		return err
	}
	if req.ContaBancariaID == 0 {
		return nil
	}
	tipoMov := models.MovimentoSaida
	delta := -req.efetivo()
	if tipo == "receber" {
		tipoMov = models.MovimentoEntrada
		delta = req.efetivo()
	}
	mov := models.MovimentacaoBancaria{
		ContaBancariaID: req.ContaBancariaID,
		Tipo:            tipoMov,
		Valor:           req.efetivo(),
		Descricao:       "Liquidação conta " + tipo,
		DataMovimento:   when,
	}
	if err := tx.Create(&mov).Error; err != nil {
		return err
	}
	return tx.Model(&models.ContaBancaria{}).Where("id = ?", req.ContaBancariaID).
		Update("saldo_atual", gorm.Expr("saldo_atual + ?", delta)).Error
}

// settleParcelas marks a conta's installments pago, oldest first, up to the
// amount settled so far. On full settlement every installment is marked.
func settleParcelas(tx *gorm.DB, contaType string, contaID int, valorPago, valorOriginal float64) error {
	if valorPago >= valorOriginal {
		return tx.Model(&models.Parcela{}).
			Where("conta_id = ? AND conta_type = ?", contaID, contaType).
			Update("status", models.PagamentoPago).Error
	}
	var parcelas []models.Parcela
	if err := tx.Where("conta_id = ? AND conta_type = ?", contaID, contaType).
		Order("numero_parcela").Find(&parcelas).Error; err != nil {
		return err
	}
	restante := money.Cents(valorPago)
	for _, p := range parcelas {
		c := money.Cents(p.Valor)
		if restante < c {
			break
		}
		restante -= c
		if p.Status == models.PagamentoPago {
			continue
		}
		if err := tx.Model(&models.Parcela{}).Where("id = ?", p.ID).
			Update("status", models.PagamentoPago).Error; err != nil {
			return err
		}
	}
	return nil
}

func BaixaContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req baixaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Valor <= 0 {
			respondDetail(w, http.StatusBadRequest, "Valor deve ser maior que zero")
			return
		}
		var conta models.ContaPagar
		if err := db.First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		if conta.Status == models.PagamentoPago {
			respondDetail(w, http.StatusBadRequest, "Conta já está paga")
			return
		}
		userID := usuarioID(db, r)
		err = db.Transaction(func(tx *gorm.DB) error {
			conta.ValorPago = money.Round2(conta.ValorPago + req.Valor)
			if conta.ValorPago >= conta.ValorOriginal {
				conta.Status = models.PagamentoPago
				now := time.Now()
				conta.DataPagamento = &now
			} else {
				conta.Status = models.PagamentoParcial
			}
			if err := tx.Save(&conta).Error; err != nil {
				return err
			}
			if err := settleParcelas(tx, models.ContaTypePagar, conta.ID, conta.ValorPago, conta.ValorOriginal); err != nil {
				return err
			}
			return liquidar(tx, "pagar", conta.ID, req, userID)
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("baixa conta a pagar", "id", conta.ID, "valor", req.Valor, "status", conta.Status)
		respondJSON(w, conta)
	}
}

func BaixaContaReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var req baixaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Valor <= 0 {
			respondDetail(w, http.StatusBadRequest, "Valor deve ser maior que zero")
			return
		}
		var conta models.ContaReceber
		if err := db.First(&conta, "id = ?", id).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Conta não encontrada")
			return
		}
		if conta.Status == models.PagamentoPago {
			respondDetail(w, http.StatusBadRequest, "Conta já está recebida")
			return
		}
		userID := usuarioID(db, r)
		err = db.Transaction(func(tx *gorm.DB) error {
			conta.ValorRecebido = money.Round2(conta.ValorRecebido + req.Valor)
			if conta.ValorRecebido >= conta.ValorOriginal {
				conta.Status = models.PagamentoPago
				now := time.Now()
				conta.DataRecebimento = &now
			} else {
				conta.Status = models.PagamentoParcial
			}
			if err := tx.Save(&conta).Error; err != nil {
				return err
			}
			if err := settleParcelas(tx, models.ContaTypeReceber, conta.ID, conta.ValorRecebido, conta.ValorOriginal); err != nil {
				return err
			}
			return liquidar(tx, "receber", conta.ID, req, userID)
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("baixa conta a receber", "id", conta.ID, "valor", req.Valor, "status", conta.Status)
		respondJSON(w, conta)
	}
}

type baixaMultiplaReq struct {
	ContaIDs        []int  `json:"conta_ids"`
	ContaBancariaID int    `json:"conta_bancaria_id"`
	DataLiquidacao  string `json:"data_liquidacao"`
	Observacoes     string `json:"observacoes"`
}

// BaixaMultiplaContasPagar settles the open balance of several payables at
// once. Accounts already paid are skipped and reported back.
func BaixaMultiplaContasPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req baixaMultiplaReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.ContaIDs) == 0 {
			respondDetail(w, http.StatusBadRequest, "Nenhuma conta informada")
			return
		}
		userID := usuarioID(db, r)
		liquidadas := make([]int, 0, len(req.ContaIDs))
		ignoradas := make([]int, 0)
		var total float64
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, id := range req.ContaIDs {
				var conta models.ContaPagar
				if err := tx.First(&conta, "id = ?", id).Error; err != nil {
					ignoradas = append(ignoradas, id)
					continue
				}
				if conta.Status == models.PagamentoPago {
					ignoradas = append(ignoradas, id)
					continue
				}
				restante := money.Round2(conta.ValorOriginal - conta.ValorPago)
				conta.ValorPago = conta.ValorOriginal
				conta.Status = models.PagamentoPago
				now := time.Now()
				conta.DataPagamento = &now
				if err := tx.Save(&conta).Error; err != nil {
					return err
				}
				if err := settleParcelas(tx, models.ContaTypePagar, conta.ID, conta.ValorPago, conta.ValorOriginal); err != nil {
					return err
				}
				b := baixaReq{
					Valor:           restante,
					ContaBancariaID: req.ContaBancariaID,
					DataLiquidacao:  req.DataLiquidacao,
					Observacoes:     req.Observacoes,
				}
				if err := liquidar(tx, "pagar", conta.ID, b, userID); err != nil {
					return err
				}
				liquidadas = append(liquidadas, id)
				total = money.Round2(total + restante)
			}
			return nil
		})
		if err != nil {
			respondDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		lg.Infow("baixa multipla", "contas", len(liquidadas), "total", total)
		respondJSON(w, map[string]any{
			"liquidadas":  liquidadas,
			"ignoradas":   ignoradas,
			"valor_total": total,
		})
	}
}

// Parcelas are polymorphic; payables and receivables have independent id
// sequences, so every lookup carries the conta type.
func listParcelas(db *gorm.DB, contaType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var parcelas []models.Parcela
		if err := db.Where("conta_id = ? AND conta_type = ?", id, contaType).
			Order("numero_parcela").Find(&parcelas).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, parcelas)
	}
}

func ListParcelasContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return listParcelas(db, models.ContaTypePagar)
}

func ListParcelasContaReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return listParcelas(db, models.ContaTypeReceber)
}

// reagendarParcela moves one installment's due date. A past-due installment
// rescheduled into the future goes back to pendente.
func reagendarParcela(db *gorm.DB, lg *zap.SugaredLogger, contaType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contaID, err := urlID(r, "id")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		parcelaID, err := urlID(r, "parcelaID")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid id")
			return
		}
		nova, ok := parseDate(r.URL.Query().Get("nova_data"))
		if !ok {
			respondDetail(w, http.StatusBadRequest, "nova_data inválida")
			return
		}
		var p models.Parcela
		if err := db.Where("id = ? AND conta_id = ? AND conta_type = ?",
			parcelaID, contaID, contaType).First(&p).Error; err != nil {
			respondDetail(w, http.StatusNotFound, "Parcela não encontrada")
			return
		}
		if p.Status == models.PagamentoPago {
			respondDetail(w, http.StatusBadRequest, "Parcela paga não pode ser reagendada")
			return
		}
		p.DataVencimento = nova
		if p.Status == models.PagamentoAtrasado && nova.After(time.Now()) {
			p.Status = models.PagamentoPendente
		}
		if err := db.Save(&p).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		lg.Infow("parcela reagendada", "id", p.ID, "vencimento", nova.Format("2006-01-02"))
		respondJSON(w, p)
	}
}

func ReagendarParcelaContaPagar(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return reagendarParcela(db, lg, models.ContaTypePagar)
}

func ReagendarParcelaContaReceber(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return reagendarParcela(db, lg, models.ContaTypeReceber)
}

func ListHistoricoLiquidacao(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := db.Order("data_liquidacao desc").Limit(200)
		tipo := r.URL.Query().Get("tipo")
		if tipo != "" {
			q = q.Where("tipo = ?", tipo)
		}
		if c := r.URL.Query().Get("conta_id"); c != "" {
			// conta ids only identify a row together with the side
			if tipo == "" {
				respondDetail(w, http.StatusBadRequest, "Informe tipo (pagar|receber) junto com conta_id")
				return
			}
			q = q.Where("conta_id = ?", c)
		}
		var hist []models.HistoricoLiquidacao
		if err := q.Find(&hist).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, hist)
	}
}

// FluxoCaixa summarizes open payables and receivables plus current bank
// balances.
func FluxoCaixa(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aberto := []models.StatusPagamento{
			models.PagamentoPendente, models.PagamentoParcial, models.PagamentoAtrasado,
		}
		var pagar []models.ContaPagar
		var contasReceber []models.ContaReceber
		if err := db.Where("status IN ?", aberto).Find(&pagar).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := db.Where("status IN ?", aberto).Find(&contasReceber).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		var totalPagar, totalReceber float64
		for _, c := range pagar {
			totalPagar = money.Round2(totalPagar + c.ValorOriginal - c.ValorPago)
		}
		for _, c := range contasReceber {
			totalReceber = money.Round2(totalReceber + c.ValorOriginal - c.ValorRecebido)
		}
		var saldoBancos float64
		var contas []models.ContaBancaria
		if err := db.Where("ativa = ?", true).Find(&contas).Error; err != nil {
			respondDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, c := range contas {
			saldoBancos = money.Round2(saldoBancos + c.SaldoAtual)
		}
		respondJSON(w, map[string]any{
			"total_a_pagar":   totalPagar,
			"total_a_receber": totalReceber,
			"saldo_bancario":  saldoBancos,
			"saldo_projetado": money.Round2(saldoBancos + totalReceber - totalPagar),
		})
	}
}
