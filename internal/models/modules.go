package models

import "time"

// Status values follow the wire contract the web frontend already speaks,
// so they stay in Portuguese.
type StatusCompra string

const (
	CompraRascunho      StatusCompra = "rascunho"
	CompraSolicitado    StatusCompra = "solicitado"
	CompraAprovado      StatusCompra = "aprovado"
	CompraPedidoEnviado StatusCompra = "pedido_enviado"
	CompraRecebido      StatusCompra = "recebido"
	CompraCancelado     StatusCompra = "cancelado"
)

type StatusPagamento string

const (
	PagamentoPendente StatusPagamento = "pendente"
	PagamentoParcial  StatusPagamento = "parcial"
	PagamentoPago     StatusPagamento = "pago"
	PagamentoAtrasado StatusPagamento = "atrasado"
)

type TipoMovimento string

const (
	MovimentoEntrada       TipoMovimento = "entrada"
	MovimentoSaida         TipoMovimento = "saida"
	MovimentoAjuste        TipoMovimento = "ajuste"
	MovimentoTransferencia TipoMovimento = "transferencia"
)

type StatusCotacao string

const (
	CotacaoAberta     StatusCotacao = "aberta"
	CotacaoRespondida StatusCotacao = "respondida"
	CotacaoAprovada   StatusCotacao = "aprovada"
	CotacaoConvertida StatusCotacao = "convertida"
	CotacaoCancelada  StatusCotacao = "cancelada"
)

type StatusNotaFiscal string

const (
	NotaRascunho  StatusNotaFiscal = "rascunho"
	NotaEmitida   StatusNotaFiscal = "emitida"
	NotaCancelada StatusNotaFiscal = "cancelada"
)

// Compras --------------------------------------------------------------------

type Fornecedor struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Codigo      string    `gorm:"uniqueIndex" json:"codigo"`
	Nome        string    `gorm:"index;not null" json:"nome"`
	RazaoSocial string    `json:"razao_social"`
	CNPJ        string    `gorm:"uniqueIndex" json:"cnpj"`
	Email       string    `json:"email"`
	Telefone    string    `json:"telefone"`
	Endereco    string    `json:"endereco"`
	Cidade      string    `json:"cidade"`
	Estado      string    `gorm:"size:2" json:"estado"`
	CEP         string    `json:"cep"`
	Ativo       bool      `gorm:"not null;default:true" json:"ativo"`
	CreatedAt   time.Time `json:"created_at"`
}

type PedidoCompra struct {
	ID                  int                `gorm:"primaryKey;autoIncrement" json:"id"`
	Numero              string             `gorm:"uniqueIndex;not null" json:"numero"`
	FornecedorID        int                `json:"fornecedor_id"`
	Fornecedor          *Fornecedor        `json:"fornecedor,omitempty"`
	DataPedido          time.Time          `json:"data_pedido"`
	DataEntregaPrevista *time.Time         `json:"data_entrega_prevista,omitempty"`
	Status              StatusCompra       `gorm:"not null;default:rascunho" json:"status"`
	ValorTotal          float64            `gorm:"not null;default:0" json:"valor_total"`
	Observacoes         string             `json:"observacoes"`
	CreatedBy           int                `json:"created_by"`
	Itens               []ItemPedidoCompra `gorm:"constraint:OnDelete:CASCADE" json:"itens"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type ItemPedidoCompra struct {
	ID             int     `gorm:"primaryKey;autoIncrement" json:"id"`
	PedidoCompraID int     `gorm:"index" json:"pedido_id"`
	MaterialID     *int    `json:"material_id,omitempty"`
	Descricao      string  `gorm:"not null" json:"descricao"`
	Quantidade     float64 `gorm:"not null" json:"quantidade"`
	Unidade        string  `json:"unidade"`
	PrecoUnitario  float64 `gorm:"not null" json:"preco_unitario"`
	PrecoTotal     float64 `gorm:"not null" json:"preco_total"`
}

type Cotacao struct {
	ID                 int                  `gorm:"primaryKey;autoIncrement" json:"id"`
	Numero             string               `gorm:"uniqueIndex;not null" json:"numero"`
	Descricao          string               `gorm:"not null" json:"descricao"`
	DataLimiteResposta *time.Time           `json:"data_limite_resposta,omitempty"`
	Status             StatusCotacao        `gorm:"not null;default:aberta" json:"status"`
	Observacoes        string               `json:"observacoes"`
	MelhorFornecedorID *int                 `json:"melhor_fornecedor_id,omitempty"`
	ConvertidaPedidoID *int                 `json:"convertida_pedido_id,omitempty"`
	Itens              []ItemCotacao        `gorm:"constraint:OnDelete:CASCADE" json:"itens"`
	Respostas          []RespostaFornecedor `gorm:"constraint:OnDelete:CASCADE" json:"respostas,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

type ItemCotacao struct {
	ID          int     `gorm:"primaryKey;autoIncrement" json:"id"`
	CotacaoID   int     `gorm:"index" json:"cotacao_id"`
	MaterialID  *int    `json:"material_id,omitempty"`
	Descricao   string  `gorm:"not null" json:"descricao"`
	Quantidade  float64 `gorm:"not null" json:"quantidade"`
	Unidade     string  `json:"unidade"`
	Observacoes string  `json:"observacoes"`
}

type RespostaFornecedor struct {
	ID           int                   `gorm:"primaryKey;autoIncrement" json:"id"`
	CotacaoID    int                   `gorm:"index" json:"cotacao_id"`
	FornecedorID int                   `json:"fornecedor_id"`
	Fornecedor   *Fornecedor           `json:"fornecedor,omitempty"`
	PrazoEntrega int                   `json:"prazo_entrega_dias"`
	Frete        float64               `json:"valor_frete"`
	ValorTotal   float64               `json:"valor_total"`
	Observacoes  string                `json:"observacoes"`
	Selecionada  bool                  `gorm:"not null;default:false" json:"selecionada"`
	Itens        []ItemRespostaCotacao `gorm:"constraint:OnDelete:CASCADE" json:"itens_resposta,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// ItemRespostaCotacao is the supplier's price for one quoted item.
type ItemRespostaCotacao struct {
	ID                   int     `gorm:"primaryKey;autoIncrement" json:"id"`
	RespostaFornecedorID int     `gorm:"index" json:"resposta_id"`
	ItemCotacaoID        int     `gorm:"index" json:"item_cotacao_id"`
	PrecoUnitario        float64 `gorm:"not null" json:"preco_unitario"`
	PrecoTotal           float64 `gorm:"not null" json:"preco_total"`
}

// Materiais ------------------------------------------------------------------

type CategoriaMaterial struct {
	ID        int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Nome      string `gorm:"uniqueIndex;not null" json:"nome"`
	Descricao string `json:"descricao"`
	Ativa     bool   `gorm:"not null;default:true" json:"ativa"`
}

type Material struct {
	ID            int                `gorm:"primaryKey;autoIncrement" json:"id"`
	Codigo        string             `gorm:"uniqueIndex;not null" json:"codigo"`
	Nome          string             `gorm:"index;not null" json:"nome"`
	Descricao     string             `json:"descricao"`
	CategoriaID   *int               `json:"categoria_id,omitempty"`
	Categoria     *CategoriaMaterial `json:"categoria,omitempty"`
	UnidadeMedida string             `gorm:"not null" json:"unidade_medida"`
	EstoqueMinimo float64            `gorm:"not null;default:0" json:"estoque_minimo"`
	EstoqueMaximo float64            `gorm:"not null;default:0" json:"estoque_maximo"`
	EstoqueAtual  float64            `gorm:"not null;default:0" json:"estoque_atual"`
	PrecoMedio    float64            `gorm:"not null;default:0" json:"preco_medio"`
	Localizacao   string             `json:"localizacao"`
	Ativo         bool               `gorm:"not null;default:true" json:"ativo"`
	CreatedAt     time.Time          `json:"created_at"`
}

type MovimentoEstoque struct {
	ID            int           `gorm:"primaryKey;autoIncrement" json:"id"`
	MaterialID    int           `gorm:"index;not null" json:"material_id"`
	Material      *Material     `json:"material,omitempty"`
	TipoMovimento TipoMovimento `gorm:"not null" json:"tipo_movimento"`
	Quantidade    float64       `gorm:"not null" json:"quantidade"`
	DataMovimento time.Time     `json:"data_movimento"`
	Documento     string        `json:"documento"`
	Observacao    string        `json:"observacao"`
	UsuarioID     int           `json:"usuario_id"`
}

type LocalEstoque struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nome      string    `gorm:"uniqueIndex;not null" json:"nome"`
	Descricao string    `json:"descricao"`
	Padrao    bool      `gorm:"not null;default:false" json:"padrao"`
	Ativo     bool      `gorm:"not null;default:true" json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

type EstoquePorLocal struct {
	ID             int     `gorm:"primaryKey;autoIncrement" json:"id"`
	LocalEstoqueID int     `gorm:"index;not null;uniqueIndex:idx_local_material" json:"local_id"`
	MaterialID     int     `gorm:"index;not null;uniqueIndex:idx_local_material" json:"material_id"`
	Quantidade     float64 `gorm:"not null;default:0" json:"quantidade"`
}

// Financeiro -----------------------------------------------------------------

type ContaBancaria struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nome         string    `gorm:"not null" json:"nome"`
	Banco        string    `json:"banco"`
	Agencia      string    `json:"agencia"`
	Conta        string    `json:"conta"`
	SaldoInicial float64   `gorm:"not null;default:0" json:"saldo_inicial"`
	SaldoAtual   float64   `gorm:"not null;default:0" json:"saldo_atual"`
	Ativa        bool      `gorm:"not null;default:true" json:"ativa"`
	CreatedAt    time.Time `json:"created_at"`
}

type MovimentacaoBancaria struct {
	ID              int           `gorm:"primaryKey;autoIncrement" json:"id"`
	ContaBancariaID int           `gorm:"index;not null" json:"conta_bancaria_id"`
	Tipo            TipoMovimento `gorm:"not null" json:"tipo"` // entrada | saida
	Valor           float64       `gorm:"not null" json:"valor"`
	Descricao       string        `gorm:"not null" json:"descricao"`
	DataMovimento   time.Time     `json:"data_movimento"`
	Conciliada      bool          `gorm:"not null;default:false" json:"conciliada"`
	CreatedAt       time.Time     `json:"created_at"`
}

type CentroCusto struct {
	ID        int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Codigo    string `gorm:"uniqueIndex;not null" json:"codigo"`
	Nome      string `gorm:"not null" json:"nome"`
	Descricao string `json:"descricao"`
	Ativo     bool   `gorm:"not null;default:true" json:"ativo"`
}

type ContaPagar struct {
	ID             int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Descricao      string          `gorm:"not null" json:"descricao"`
	FornecedorID   *int            `json:"fornecedor_id,omitempty"`
	Fornecedor     *Fornecedor     `json:"fornecedor,omitempty"`
	PedidoCompraID *int            `json:"pedido_compra_id,omitempty"`
	CentroCustoID  *int            `json:"centro_custo_id,omitempty"`
	DataEmissao    time.Time       `json:"data_emissao"`
	DataVencimento time.Time       `gorm:"not null" json:"data_vencimento"`
	DataPagamento  *time.Time      `json:"data_pagamento,omitempty"`
	ValorOriginal  float64         `gorm:"not null" json:"valor_original"`
	ValorPago      float64         `gorm:"not null;default:0" json:"valor_pago"`
	Status         StatusPagamento `gorm:"not null;default:pendente" json:"status"`
	Observacoes    string          `json:"observacoes"`
	Parcelas       []Parcela       `gorm:"polymorphic:Conta" json:"parcelas,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ContaReceber struct {
	ID              int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Descricao       string          `gorm:"not null" json:"descricao"`
	ClienteID       *int            `json:"cliente_id,omitempty"`
	Cliente         *Cliente        `json:"cliente,omitempty"`
	CentroCustoID   *int            `json:"centro_custo_id,omitempty"`
	DataEmissao     time.Time       `json:"data_emissao"`
	DataVencimento  time.Time       `gorm:"not null" json:"data_vencimento"`
	DataRecebimento *time.Time      `json:"data_recebimento,omitempty"`
	ValorOriginal   float64         `gorm:"not null" json:"valor_original"`
	ValorRecebido   float64         `gorm:"not null;default:0" json:"valor_recebido"`
	Status          StatusPagamento `gorm:"not null;default:pendente" json:"status"`
	Observacoes     string          `json:"observacoes"`
	Parcelas        []Parcela       `gorm:"polymorphic:Conta" json:"parcelas,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ContaType values gorm writes for the polymorphic Parcela owner.
const (
	ContaTypePagar   = "conta_pagars"
	ContaTypeReceber = "conta_recebers"
)

// Parcela is one installment of a payable or receivable. ContaType is
// "conta_pagars" or "conta_recebers" (gorm polymorphic naming).
type Parcela struct {
	ID             int             `gorm:"primaryKey;autoIncrement" json:"id"`
	ContaID        int             `gorm:"index" json:"conta_id"`
	ContaType      string          `gorm:"index" json:"-"`
	NumeroParcela  int             `gorm:"not null" json:"numero_parcela"`
	TotalParcelas  int             `gorm:"not null" json:"total_parcelas"`
	Valor          float64         `gorm:"not null" json:"valor"`
	DataVencimento time.Time       `gorm:"not null" json:"data_vencimento"`
	Status         StatusPagamento `gorm:"not null;default:pendente" json:"status"`
}

// HistoricoLiquidacao records a settlement (baixa), full or partial.
type HistoricoLiquidacao struct {
	ID              int       `gorm:"primaryKey;autoIncrement" json:"id"`
	ContaID         int       `gorm:"index;not null" json:"conta_id"`
	Tipo            string    `gorm:"not null" json:"tipo"` // pagar | receber
	Valor           float64   `gorm:"not null" json:"valor"`
	Juros           float64   `gorm:"not null;default:0" json:"juros"`
	Desconto        float64   `gorm:"not null;default:0" json:"desconto"`
	ContaBancariaID int       `json:"conta_bancaria_id"`
	DataLiquidacao  time.Time `json:"data_liquidacao"`
	Observacoes     string    `json:"observacoes"`
	UsuarioID       int       `json:"usuario_id"`
}

// Vendas ---------------------------------------------------------------------

type Cliente struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Codigo      string    `gorm:"uniqueIndex" json:"codigo"`
	Nome        string    `gorm:"index;not null" json:"nome"`
	RazaoSocial string    `json:"razao_social"`
	CPFCNPJ     string    `gorm:"uniqueIndex" json:"cpf_cnpj"`
	Email       string    `json:"email"`
	Telefone    string    `json:"telefone"`
	Endereco    string    `json:"endereco"`
	Cidade      string    `json:"cidade"`
	Estado      string    `gorm:"size:2" json:"estado"`
	CEP         string    `json:"cep"`
	Ativo       bool      `gorm:"not null;default:true" json:"ativo"`
	CreatedAt   time.Time `json:"created_at"`
}

type PedidoVenda struct {
	ID            int               `gorm:"primaryKey;autoIncrement" json:"id"`
	Numero        string            `gorm:"uniqueIndex;not null" json:"numero"`
	ClienteID     int               `json:"cliente_id"`
	Cliente       *Cliente          `json:"cliente,omitempty"`
	DataPedido    time.Time         `json:"data_pedido"`
	Status        string            `gorm:"not null;default:aberto" json:"status"` // aberto | faturado | cancelado
	ValorFrete    float64           `gorm:"not null;default:0" json:"valor_frete"`
	ValorDesconto float64           `gorm:"not null;default:0" json:"valor_desconto"`
	ValorTotal    float64           `gorm:"not null;default:0" json:"valor_total"`
	Observacoes   string            `json:"observacoes"`
	Itens         []ItemPedidoVenda `gorm:"constraint:OnDelete:CASCADE" json:"itens"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type ItemPedidoVenda struct {
	ID            int     `gorm:"primaryKey;autoIncrement" json:"id"`
	PedidoVendaID int     `gorm:"index" json:"pedido_id"`
	MaterialID    *int    `json:"material_id,omitempty"`
	Descricao     string  `gorm:"not null" json:"descricao"`
	Quantidade    float64 `gorm:"not null" json:"quantidade"`
	Unidade       string  `json:"unidade"`
	PrecoUnitario float64 `gorm:"not null" json:"preco_unitario"`
	DescontoPct   float64 `gorm:"not null;default:0" json:"desconto_pct"`
	PrecoTotal    float64 `gorm:"not null" json:"preco_total"`
}

// Faturamento ----------------------------------------------------------------

type NotaFiscal struct {
	ID                  int              `gorm:"primaryKey;autoIncrement" json:"id"`
	Numero              string           `gorm:"uniqueIndex;not null" json:"numero"`
	Serie               string           `gorm:"not null;default:1" json:"serie"`
	ClienteID           int              `json:"cliente_id"`
	Cliente             *Cliente         `json:"cliente,omitempty"`
	PedidoVendaID       *int             `json:"pedido_venda_id,omitempty"`
	DataEmissao         *time.Time       `json:"data_emissao,omitempty"`
	Status              StatusNotaFiscal `gorm:"not null;default:rascunho" json:"status"`
	ValorProdutos       float64          `gorm:"not null;default:0" json:"valor_produtos"`
	ValorICMS           float64          `gorm:"not null;default:0" json:"valor_icms"`
	ValorIPI            float64          `gorm:"not null;default:0" json:"valor_ipi"`
	ValorFrete          float64          `gorm:"not null;default:0" json:"valor_frete"`
	ValorSeguro         float64          `gorm:"not null;default:0" json:"valor_seguro"`
	ValorDesconto       float64          `gorm:"not null;default:0" json:"valor_desconto"`
	ValorOutrasDespesas float64          `gorm:"not null;default:0" json:"valor_outras_despesas"`
	ValorTotal          float64          `gorm:"not null;default:0" json:"valor_total"`
	Observacoes         string           `json:"observacoes"`
	Itens               []ItemNotaFiscal `gorm:"constraint:OnDelete:CASCADE" json:"itens"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type ItemNotaFiscal struct {
	ID            int     `gorm:"primaryKey;autoIncrement" json:"id"`
	NotaFiscalID  int     `gorm:"index" json:"nota_fiscal_id"`
	MaterialID    *int    `json:"material_id,omitempty"`
	Descricao     string  `gorm:"not null" json:"descricao"`
	Quantidade    float64 `gorm:"not null" json:"quantidade"`
	Unidade       string  `json:"unidade"`
	ValorUnitario float64 `gorm:"not null" json:"valor_unitario"`
	ValorTotal    float64 `gorm:"not null" json:"valor_total"`
	ValorICMS     float64 `gorm:"not null;default:0" json:"valor_icms"`
	ValorIPI      float64 `gorm:"not null;default:0" json:"valor_ipi"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Role{}, &Permission{}, &User{},
		&Fornecedor{}, &PedidoCompra{}, &ItemPedidoCompra{},
		&Cotacao{}, &ItemCotacao{}, &RespostaFornecedor{}, &ItemRespostaCotacao{},
		&CategoriaMaterial{}, &Material{}, &MovimentoEstoque{},
		&LocalEstoque{}, &EstoquePorLocal{},
		&ContaBancaria{}, &MovimentacaoBancaria{}, &CentroCusto{},
		&ContaPagar{}, &ContaReceber{}, &Parcela{}, &HistoricoLiquidacao{},
		&Cliente{}, &PedidoVenda{}, &ItemPedidoVenda{},
		&NotaFiscal{}, &ItemNotaFiscal{},
	}
}
