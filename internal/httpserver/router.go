package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestor/internal/auth"
	"gestor/internal/httpserver/handlers"
)

func NewRouter(db *gorm.DB, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Group(func(public chi.Router) {
		public.Use(auth.RateLimitPerIP(2, 5))
		public.Post("/auth/login", handlers.Login(db, lg))
		public.Post("/auth/register", handlers.Register(db, lg))
	})

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth)
		protected.Get("/auth/me", handlers.Me(db, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole("Administrador"))
			admin.Get("/auth/users", handlers.ListUsers(db, lg))
			admin.Put("/auth/users/{id}", handlers.UpdateUser(db, lg))
			admin.Get("/auth/roles", handlers.ListRoles(db, lg))
		})

		protected.Route("/compras", func(c chi.Router) {
			read := c.With(auth.RequirePermission("compras:read"))
			write := c.With(auth.RequirePermission("compras:create"))
			update := c.With(auth.RequirePermission("compras:update"))
			del := c.With(auth.RequirePermission("compras:delete"))

			read.Get("/fornecedores", handlers.ListFornecedores(db, lg))
			write.Post("/fornecedores", handlers.CreateFornecedor(db, lg))
			read.Get("/fornecedores/{id}", handlers.GetFornecedor(db, lg))
			update.Put("/fornecedores/{id}", handlers.UpdateFornecedor(db, lg))
			del.Delete("/fornecedores/{id}", handlers.DeleteFornecedor(db, lg))

			read.Get("/pedidos", handlers.ListPedidosCompra(db, lg))
			write.Post("/pedidos", handlers.CreatePedidoCompra(db, lg))
			read.Get("/pedidos/{id}", handlers.GetPedidoCompra(db, lg))
			update.Put("/pedidos/{id}", handlers.UpdatePedidoCompra(db, lg))
			del.Delete("/pedidos/{id}", handlers.DeletePedidoCompra(db, lg))
			update.Post("/pedidos/{id}/aprovar", handlers.AprovarPedidoCompra(db, lg))
			update.Post("/pedidos/{id}/receber", handlers.ReceberPedidoCompra(db, lg))

			read.Get("/cotacoes", handlers.ListCotacoes(db, lg))
			write.Post("/cotacoes", handlers.CreateCotacao(db, lg))
			read.Get("/cotacoes/{id}", handlers.GetCotacao(db, lg))
			update.Put("/cotacoes/{id}", handlers.UpdateCotacao(db, lg))
			del.Delete("/cotacoes/{id}", handlers.DeleteCotacao(db, lg))
			write.Post("/cotacoes/{id}/respostas", handlers.CreateRespostaCotacao(db, lg))
			read.Get("/cotacoes/{id}/respostas", handlers.ListRespostasCotacao(db, lg))
			read.Get("/cotacoes/{id}/comparativo", handlers.ComparativoCotacao(db, lg))
			update.Post("/cotacoes/{id}/selecionar-fornecedor/{respostaID}", handlers.SelecionarFornecedor(db, lg))
			update.Post("/cotacoes/{id}/converter-pedido", handlers.ConverterCotacao(db, lg))
		})

		protected.Route("/materiais", func(m chi.Router) {
			read := m.With(auth.RequirePermission("materiais:read"))
			write := m.With(auth.RequirePermission("materiais:create"))
			update := m.With(auth.RequirePermission("materiais:update"))
			del := m.With(auth.RequirePermission("materiais:delete"))

			read.Get("/categorias", handlers.ListCategorias(db, lg))
			write.Post("/categorias", handlers.CreateCategoria(db, lg))

			read.Get("/", handlers.ListMateriais(db, lg))
			write.Post("/", handlers.CreateMaterial(db, lg))
			read.Get("/estoque-baixo", handlers.EstoqueBaixo(db, lg))
			read.Get("/{id}", handlers.GetMaterial(db, lg))
			update.Put("/{id}", handlers.UpdateMaterial(db, lg))
			del.Delete("/{id}", handlers.DeleteMaterial(db, lg))
			read.Get("/{id}/historico", handlers.HistoricoMaterial(db, lg))

			read.Get("/movimentos", handlers.ListMovimentosEstoque(db, lg))
			write.Post("/movimentos", handlers.CreateMovimentoEstoque(db, lg))
		})

		protected.Route("/locais", func(l chi.Router) {
			read := l.With(auth.RequirePermission("materiais:read"))
			write := l.With(auth.RequirePermission("materiais:create"))
			update := l.With(auth.RequirePermission("materiais:update"))
			del := l.With(auth.RequirePermission("materiais:delete"))

			read.Get("/", handlers.ListLocaisEstoque(db, lg))
			write.Post("/", handlers.CreateLocalEstoque(db, lg))
			update.Put("/{id}", handlers.UpdateLocalEstoque(db, lg))
			del.Delete("/{id}", handlers.DeleteLocalEstoque(db, lg))
			update.Post("/definir-padrao/{id}", handlers.DefinirLocalPadrao(db, lg))
			read.Get("/{id}/estoque", handlers.EstoqueDoLocal(db, lg))
			update.Post("/{id}/transferir", handlers.TransferirEstoque(db, lg))
		})

		protected.Route("/financeiro", func(f chi.Router) {
			read := f.With(auth.RequirePermission("financeiro:read"))
			write := f.With(auth.RequirePermission("financeiro:create"))
			update := f.With(auth.RequirePermission("financeiro:update"))
			del := f.With(auth.RequirePermission("financeiro:delete"))

			read.Get("/contas-bancarias", handlers.ListContasBancarias(db, lg))
			write.Post("/contas-bancarias", handlers.CreateContaBancaria(db, lg))
			update.Put("/contas-bancarias/{id}", handlers.UpdateContaBancaria(db, lg))
			del.Delete("/contas-bancarias/{id}", handlers.DeleteContaBancaria(db, lg))

			read.Get("/centros-custo", handlers.ListCentrosCusto(db, lg))
			write.Post("/centros-custo", handlers.CreateCentroCusto(db, lg))
			update.Put("/centros-custo/{id}", handlers.UpdateCentroCusto(db, lg))
			del.Delete("/centros-custo/{id}", handlers.DeleteCentroCusto(db, lg))

			read.Get("/contas-pagar", handlers.ListContasPagar(db, lg))
			write.Post("/contas-pagar", handlers.CreateContaPagar(db, lg))
			write.Post("/contas-pagar/parcelada", handlers.CreateContaPagarParcelada(db, lg))
			write.Post("/contas-pagar/baixa-multipla", handlers.BaixaMultiplaContasPagar(db, lg))
			read.Get("/contas-pagar/{id}", handlers.GetContaPagar(db, lg))
			update.Put("/contas-pagar/{id}", handlers.UpdateContaPagar(db, lg))
			del.Delete("/contas-pagar/{id}", handlers.DeleteContaPagar(db, lg))
			update.Post("/contas-pagar/{id}/baixa", handlers.BaixaContaPagar(db, lg))
			read.Get("/contas-pagar/{id}/parcelas", handlers.ListParcelasContaPagar(db, lg))
			update.Put("/contas-pagar/{id}/parcelas/{parcelaID}/reagendar", handlers.ReagendarParcelaContaPagar(db, lg))

			read.Get("/contas-receber", handlers.ListContasReceber(db, lg))
			write.Post("/contas-receber", handlers.CreateContaReceber(db, lg))
			write.Post("/contas-receber/parcelada", handlers.CreateContaReceberParcelada(db, lg))
			read.Get("/contas-receber/{id}", handlers.GetContaReceber(db, lg))
			del.Delete("/contas-receber/{id}", handlers.DeleteContaReceber(db, lg))
			update.Post("/contas-receber/{id}/baixa", handlers.BaixaContaReceber(db, lg))
			read.Get("/contas-receber/{id}/parcelas", handlers.ListParcelasContaReceber(db, lg))
			update.Put("/contas-receber/{id}/parcelas/{parcelaID}/reagendar", handlers.ReagendarParcelaContaReceber(db, lg))

			read.Get("/historico-liquidacao", handlers.ListHistoricoLiquidacao(db, lg))
			read.Get("/fluxo-caixa", handlers.FluxoCaixa(db, lg))

			read.Get("/movimentacoes-bancarias", handlers.ListMovimentacoesBancarias(db, lg))
			write.Post("/movimentacoes-bancarias", handlers.CreateMovimentacaoBancaria(db, lg))
			del.Delete("/movimentacoes-bancarias/{id}", handlers.DeleteMovimentacaoBancaria(db, lg))
			write.Post("/transferencias", handlers.TransferenciaBancaria(db, lg))
			read.Get("/conciliacao/{contaID}", handlers.Conciliacao(db, lg))
			update.Post("/conciliacao/{contaID}/conciliar", handlers.ConciliarMovimentacoes(db, lg))
		})

		protected.Route("/vendas", func(v chi.Router) {
			read := v.With(auth.RequirePermission("vendas:read"))
			write := v.With(auth.RequirePermission("vendas:create"))
			update := v.With(auth.RequirePermission("vendas:update"))
			del := v.With(auth.RequirePermission("vendas:delete"))

			read.Get("/clientes", handlers.ListClientes(db, lg))
			write.Post("/clientes", handlers.CreateCliente(db, lg))
			read.Get("/clientes/codigo/{codigo}", handlers.GetClientePorCodigo(db, lg))
			read.Get("/clientes/{id}", handlers.GetCliente(db, lg))
			update.Put("/clientes/{id}", handlers.UpdateCliente(db, lg))
			del.Delete("/clientes/{id}", handlers.DesativarCliente(db, lg))
			update.Post("/clientes/{id}/ativar", handlers.AtivarCliente(db, lg))

			read.Get("/pedidos", handlers.ListPedidosVenda(db, lg))
			write.Post("/pedidos", handlers.CreatePedidoVenda(db, lg))
			read.Get("/pedidos/{id}", handlers.GetPedidoVenda(db, lg))
			update.Put("/pedidos/{id}", handlers.UpdatePedidoVenda(db, lg))
			del.Delete("/pedidos/{id}", handlers.DeletePedidoVenda(db, lg))
			update.Post("/pedidos/{id}/faturar", handlers.FaturarPedidoVenda(db, lg))
		})

		protected.Route("/faturamento", func(fa chi.Router) {
			read := fa.With(auth.RequirePermission("faturamento:read"))
			write := fa.With(auth.RequirePermission("faturamento:create"))
			update := fa.With(auth.RequirePermission("faturamento:update"))
			del := fa.With(auth.RequirePermission("faturamento:delete"))

			read.Get("/notas-fiscais", handlers.ListNotasFiscais(db, lg))
			write.Post("/notas-fiscais", handlers.CreateNotaFiscal(db, lg))
			read.Get("/estatisticas/resumo", handlers.ResumoFaturamento(db, lg))
			read.Get("/notas-fiscais/{id}", handlers.GetNotaFiscal(db, lg))
			update.Put("/notas-fiscais/{id}", handlers.UpdateNotaFiscal(db, lg))
			del.Delete("/notas-fiscais/{id}", handlers.DeleteNotaFiscal(db, lg))
			update.Post("/notas-fiscais/{id}/emitir", handlers.EmitirNotaFiscal(db, lg))
			update.Post("/notas-fiscais/{id}/cancelar", handlers.CancelarNotaFiscal(db, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
