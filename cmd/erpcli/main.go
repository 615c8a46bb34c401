// erpcli is a small terminal front end for the API: it keeps a session on
// disk, gates each screen by the user's permissions and renders the same
// lists the web frontend shows.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"gestor/internal/client"
	"gestor/internal/models"
)

type app struct {
	api     *client.Client
	session *client.Session
	in      *bufio.Reader
}

func main() {
	_ = godotenv.Load()
	server := flag.String("server", envOr("GESTOR_SERVER", "http://localhost:8080"), "API base URL")
	sessionPath := flag.String("session", "", "session file (default ~/.gestor/session.json)")
	flag.Parse()

	api := client.New(*server)
	a := &app{
		api:     api,
		session: client.NewSession(api, *sessionPath),
		in:      bufio.NewReader(os.Stdin),
	}
	ctx := context.Background()

	if err := a.session.Restore(ctx); err == nil {
		fmt.Printf("sessão restaurada: %s\n", a.session.Email)
	}

	fmt.Println("erpcli — digite 'ajuda' para os comandos")
	for {
		fmt.Print("> ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "sair" || args[0] == "quit" {
			return
		}
		a.dispatch(ctx, args)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (a *app) dispatch(ctx context.Context, args []string) {
	cmd := args[0]
	if cmd != "login" && cmd != "ajuda" && !a.session.Active() {
		fmt.Println("faça login primeiro")
		return
	}
	var err error
	switch cmd {
	case "ajuda":
		a.help()
	case "login":
		err = a.login(ctx)
	case "logout":
		err = a.session.Logout()
		fmt.Println("sessão encerrada")
	case "eu":
		fmt.Printf("%s (%s)\npermissões: %s\n",
			a.session.Email, strings.Join(a.session.Roles, ", "),
			strings.Join(a.session.Permissions, " "))
	case "fornecedores":
		err = a.fornecedores(ctx, args[1:])
	case "clientes":
		err = a.clientes(ctx, args[1:])
	case "materiais":
		err = a.materiais(ctx)
	case "estoque-baixo":
		err = a.estoqueBaixo(ctx)
	case "contas-pagar":
		err = a.contasPagar(ctx, args[1:])
	case "fluxo-caixa":
		err = a.fluxoCaixa(ctx)
	case "conciliacao":
		err = a.conciliacao(ctx, args[1:])
	default:
		fmt.Println("comando desconhecido; 'ajuda' lista os comandos")
	}
	if err != nil {
		fmt.Println("erro:", err)
	}
}

func (a *app) help() {
	fmt.Println(`comandos:
  login                     autentica e salva a sessão
  logout                    encerra a sessão local
  eu                        mostra usuário, perfis e permissões
  fornecedores [filtro]     lista fornecedores ativos
  clientes [filtro]         lista clientes ativos
  materiais                 lista materiais
  estoque-baixo             materiais abaixo do mínimo
  contas-pagar [status]     contas a pagar, opcionalmente por status
  fluxo-caixa               resumo do financeiro
  conciliacao <conta_id>    conciliação bancária interativa
  sair`)
}

func (a *app) login(ctx context.Context) error {
	fmt.Print("email: ")
	email, err := a.in.ReadString('\n')
	if err != nil {
		return err
	}
	fmt.Print("senha: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}
	if err := a.session.Login(ctx, strings.TrimSpace(email), string(pw)); err != nil {
		return err
	}
	fmt.Printf("bem-vindo, %s\n", a.session.FullName)
	return nil
}

func (a *app) requirePerm(perm string) bool {
	if !a.session.HasPermission(perm) {
		fmt.Println("permissão negada:", perm)
		return false
	}
	return true
}

func (a *app) fornecedores(ctx context.Context, args []string) error {
	if !a.requirePerm("compras:read") {
		return nil
	}
	l := client.NewList[models.Fornecedor](a.api, "/compras/fornecedores")
	if err := l.Load(ctx); err != nil {
		return err
	}
	if len(args) > 0 {
		l.FilterSubstring(args[0], func(f models.Fornecedor) []string {
			return []string{f.Nome, f.RazaoSocial, f.CNPJ}
		})
	}
	for _, f := range l.Visible() {
		fmt.Printf("%-10s %-30s %s\n", f.Codigo, f.Nome, f.CNPJ)
	}
	fmt.Printf("(%d de %d)\n", len(l.Visible()), l.Len())
	return nil
}

func (a *app) clientes(ctx context.Context, args []string) error {
	if !a.requirePerm("vendas:read") {
		return nil
	}
	l := client.NewList[models.Cliente](a.api, "/vendas/clientes")
	if err := l.Load(ctx); err != nil {
		return err
	}
	if len(args) > 0 {
		l.FilterSubstring(args[0], func(c models.Cliente) []string {
			return []string{c.Nome, c.RazaoSocial, c.CPFCNPJ}
		})
	}
	for _, c := range l.Visible() {
		fmt.Printf("%-10s %-30s %s\n", c.Codigo, c.Nome, c.CPFCNPJ)
	}
	return nil
}

func (a *app) materiais(ctx context.Context) error {
	if !a.requirePerm("materiais:read") {
		return nil
	}
	var list []models.Material
	if err := a.api.Get(ctx, "/materiais/", &list); err != nil {
		return err
	}
	for _, m := range list {
		fmt.Printf("%-10s %-30s %8.2f %s\n", m.Codigo, m.Nome, m.EstoqueAtual, m.UnidadeMedida)
	}
	return nil
}

func (a *app) estoqueBaixo(ctx context.Context) error {
	if !a.requirePerm("materiais:read") {
		return nil
	}
	var list []struct {
		Codigo  string  `json:"codigo"`
		Nome    string  `json:"nome"`
		Deficit float64 `json:"deficit"`
	}
	if err := a.api.Get(ctx, "/materiais/estoque-baixo", &list); err != nil {
		return err
	}
	for _, m := range list {
		fmt.Printf("%-10s %-30s falta %.2f\n", m.Codigo, m.Nome, m.Deficit)
	}
	return nil
}

func (a *app) contasPagar(ctx context.Context, args []string) error {
	if !a.requirePerm("financeiro:read") {
		return nil
	}
	path := "/financeiro/contas-pagar"
	if len(args) > 0 {
		path += "?status=" + args[0]
	}
	var list []models.ContaPagar
	if err := a.api.Get(ctx, path, &list); err != nil {
		return err
	}
	for _, c := range list {
		fmt.Printf("#%-5d %-30s %10.2f %-8s venc %s\n",
			c.ID, c.Descricao, c.ValorOriginal-c.ValorPago, c.Status,
			c.DataVencimento.Format("2006-01-02"))
	}
	return nil
}

func (a *app) fluxoCaixa(ctx context.Context) error {
	if !a.requirePerm("financeiro:read") {
		return nil
	}
	var fc map[string]float64
	if err := a.api.Get(ctx, "/financeiro/fluxo-caixa", &fc); err != nil {
		return err
	}
	fmt.Printf("a pagar:    %10.2f\na receber:  %10.2f\nbancos:     %10.2f\nprojetado:  %10.2f\n",
		fc["total_a_pagar"], fc["total_a_receber"], fc["saldo_bancario"], fc["saldo_projetado"])
	return nil
}

func (a *app) conciliacao(ctx context.Context, args []string) error {
	if !a.requirePerm("financeiro:update") {
		return nil
	}
	if len(args) == 0 {
		fmt.Println("uso: conciliacao <conta_id>")
		return nil
	}
	contaID, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	rec := client.NewReconciliation(a.api, contaID)
	if err := rec.Load(ctx); err != nil {
		return err
	}
	fmt.Print("saldo do extrato: ")
	line, err := a.in.ReadString('\n')
	if err != nil {
		return err
	}
	if v, convErr := strconv.ParseFloat(strings.TrimSpace(line), 64); convErr == nil {
		rec.SaldoExtrato = v
	}
	fmt.Printf("diferença extrato x ERP: %.2f\n", rec.Difference())
	for {
		for _, m := range rec.Pendentes() {
			marca := " "
			if rec.Selected(m.ID) {
				marca = "x"
			}
			fmt.Printf("[%s] #%-4d %-8s %10.2f %s\n", marca, m.ID, m.Tipo, m.Valor, m.Descricao)
		}
		fmt.Printf("selecionado: %.2f — id para marcar, 'ok' confirma, 'fim' cancela: ", rec.SelectedNet())
		line, err := a.in.ReadString('\n')
		if err != nil {
			return err
		}
		switch cmd := strings.TrimSpace(line); cmd {
		case "fim":
			return nil
		case "ok":
			return rec.Confirm(ctx)
		default:
			if id, convErr := strconv.Atoi(cmd); convErr == nil {
				rec.Toggle(id)
			}
		}
	}
}
