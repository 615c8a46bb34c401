package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fornecedorRow struct {
	ID    int    `json:"id"`
	Nome  string `json:"nome"`
	Ativo bool   `json:"ativo"`
}

func TestSessionLoginAndPermissions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect credentials"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Not authenticated"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"email":       "ana@empresa.com",
				"full_name":   "Ana",
				"roles":       []string{"Comprador"},
				"permissions": []string{"compras:read", "compras:create"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewSession(c, path)

	err := s.Login(context.Background(), "ana@empresa.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, s.Active())

	require.NoError(t, s.Login(context.Background(), "ana@empresa.com", "secret"))
	assert.True(t, s.Active())
	assert.Equal(t, "ana@empresa.com", s.Email)

	assert.True(t, s.HasPermission("compras:read"))
	assert.False(t, s.HasPermission("financeiro:read"))
	assert.True(t, s.HasAnyPermission("financeiro:read", "compras:read"))
	assert.False(t, s.HasAnyPermission())
	assert.True(t, s.HasRole("Comprador"))

	// a fresh session restores from the file
	c2 := New(srv.URL)
	s2 := NewSession(c2, path)
	require.NoError(t, s2.Restore(context.Background()))
	assert.Equal(t, []string{"compras:read", "compras:create"}, s2.Permissions)

	require.NoError(t, s2.Logout())
	assert.False(t, s2.Active())
	require.Error(t, NewSession(New(srv.URL), path).Restore(context.Background()))
}

func TestSessionWildcardPermission(t *testing.T) {
	s := &Session{Permissions: []string{"*:*"}}
	assert.True(t, s.HasPermission("vendas:delete"))
	assert.True(t, s.HasAnyPermission("qualquer:coisa"))
}

func TestListFilterIsNonDestructive(t *testing.T) {
	rows := []fornecedorRow{
		{ID: 1, Nome: "Alfa", Ativo: true},
		{ID: 2, Nome: "Beta", Ativo: false},
		{ID: 3, Nome: "Gama", Ativo: true},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	l := NewList[fornecedorRow](New(srv.URL), "/compras/fornecedores")
	require.NoError(t, l.Load(context.Background()))
	assert.Len(t, l.Visible(), 3)

	l.Filter(func(f fornecedorRow) bool { return f.Ativo })
	assert.Len(t, l.Visible(), 2)
	assert.Equal(t, 3, l.Len(), "filtering must keep the full set")

	l.ClearFilter()
	assert.Len(t, l.Visible(), 3)

	l.FilterSubstring("GAM", func(f fornecedorRow) []string { return []string{f.Nome} })
	require.Len(t, l.Visible(), 1)
	assert.Equal(t, "Gama", l.Visible()[0].Nome)

	l.FilterSubstring("  ", func(f fornecedorRow) []string { return []string{f.Nome} })
	assert.Len(t, l.Visible(), 3, "blank term clears the filter")
}

func TestListStaleLoadIsDiscarded(t *testing.T) {
	var calls atomic.Int64
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			<-release
			_ = json.NewEncoder(w).Encode([]fornecedorRow{{ID: 1, Nome: "velho"}})
			return
		}
		_ = json.NewEncoder(w).Encode([]fornecedorRow{{ID: 2, Nome: "novo"}})
	}))
	defer srv.Close()

	l := NewList[fornecedorRow](New(srv.URL), "/compras/fornecedores")

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background()) }()
	<-firstStarted

	require.NoError(t, l.Load(context.Background()))
	close(release)
	require.NoError(t, <-done)

	vis := l.Visible()
	require.Len(t, vis, 1)
	assert.Equal(t, "novo", vis[0].Nome, "the slow first response must not clobber the newer one")
}

func TestListRemoveNeedsConfirmation(t *testing.T) {
	var deletes atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
			return
		}
		_ = json.NewEncoder(w).Encode([]fornecedorRow{})
	}))
	defer srv.Close()

	l := NewList[fornecedorRow](New(srv.URL), "/compras/fornecedores")

	no := ConfirmFunc(func(string) bool { return false })
	require.NoError(t, l.Remove(context.Background(), "/compras/fornecedores/1", "Desativar?", no))
	assert.EqualValues(t, 0, deletes.Load())

	yes := ConfirmFunc(func(string) bool { return true })
	require.NoError(t, l.Remove(context.Background(), "/compras/fornecedores/1", "Desativar?", yes))
	assert.EqualValues(t, 1, deletes.Load())
}

func TestListExpandCachesChildren(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 10}})
	}))
	defer srv.Close()

	l := NewList[fornecedorRow](New(srv.URL), "/compras/cotacoes")
	var kids []map[string]any
	require.NoError(t, l.Expand(context.Background(), 7, "/compras/cotacoes/7/respostas", &kids))
	require.NoError(t, l.Expand(context.Background(), 7, "/compras/cotacoes/7/respostas", &kids))
	assert.EqualValues(t, 1, hits.Load())

	l.Collapse(7)
	require.NoError(t, l.Expand(context.Background(), 7, "/compras/cotacoes/7/respostas", &kids))
	assert.EqualValues(t, 2, hits.Load())
}

type fornecedorForm struct {
	Nome string `json:"nome"`
	CNPJ string `json:"cnpj"`
}

func TestFormCreateAndUpdate(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody fornecedorForm
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1})
	}))
	defer srv.Close()

	saved := 0
	f := NewForm[fornecedorForm](New(srv.URL), "/compras/fornecedores",
		func(id int) string { return fmt.Sprintf("/compras/fornecedores/%d", id) })
	f.OnSaved = func() { saved++ }

	// submit while closed is refused
	require.Error(t, f.Submit(context.Background()))

	f.Open(fornecedorForm{Nome: "Alfa"})
	f.Value.CNPJ = "11222333000181"
	require.NoError(t, f.Submit(context.Background()))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/compras/fornecedores", gotPath)
	assert.Equal(t, "Alfa", gotBody.Nome)
	assert.Equal(t, FormClosed, f.State())
	assert.Equal(t, 1, saved)

	f.OpenRecord(9, fornecedorForm{Nome: "Alfa Ltda"})
	require.NoError(t, f.Submit(context.Background()))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/compras/fornecedores/9", gotPath)
	assert.Equal(t, 2, saved)
}

func TestFormFailureReturnsToEditing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "CNPJ inválido"})
	}))
	defer srv.Close()

	f := NewForm[fornecedorForm](New(srv.URL), "/compras/fornecedores", nil)
	f.Open(fornecedorForm{Nome: "Alfa"})
	err := f.Submit(context.Background())
	require.Error(t, err)
	ae, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "CNPJ inválido", ae.Detail)
	assert.True(t, f.Editing(), "a rejected submit keeps the form open for correction")
	assert.Equal(t, "Alfa", f.Value.Nome, "typed values survive a failed submit")
}

func TestLineEditor(t *testing.T) {
	e := NewLineEditor()
	require.Len(t, e.Lines, 1)

	e.RemoveLine(0)
	assert.Len(t, e.Lines, 1, "the last line cannot be removed")

	e.Lines[0].Quantidade = 2
	e.Lines[0].PrecoUnitario = 10
	e.AddLine()
	e.Lines[1].Quantidade = 1
	e.Lines[1].PrecoUnitario = 5
	e.Lines[1].DescontoPct = 10
	e.Frete = 3
	assert.Equal(t, 20.0, e.Subtotal(0))
	assert.Equal(t, 4.5, e.Subtotal(1))
	assert.Equal(t, 27.5, e.Total())

	e.RemoveLine(0)
	require.Len(t, e.Lines, 1)
	assert.Equal(t, 4.5, e.Subtotal(0))
}

func TestReconciliation(t *testing.T) {
	var conciliadas []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			var body struct {
				IDs []int `json:"movimentacao_ids"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			conciliadas = body.IDs
			_ = json.NewEncoder(w).Encode(map[string]any{"conciliadas": len(body.IDs)})
		default:
			pend := []Movimentacao{
				{ID: 1, Tipo: "entrada", Valor: 100},
				{ID: 2, Tipo: "saida", Valor: 40},
				{ID: 3, Tipo: "entrada", Valor: 10.5},
			}
			if len(conciliadas) > 0 {
				pend = pend[:1]
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"pendentes":       pend,
				"saldo_atual_erp": 500.0,
			})
		}
	}))
	defer srv.Close()

	rec := NewReconciliation(New(srv.URL), 1)
	require.NoError(t, rec.Load(context.Background()))
	require.Len(t, rec.Pendentes(), 3)

	rec.SaldoExtrato = 560
	assert.Equal(t, 60.0, rec.Difference())

	rec.Toggle(1)
	rec.Toggle(2)
	assert.Equal(t, 60.0, rec.SelectedNet())

	rec.Toggle(2)
	rec.Toggle(2) // toggling twice lands back selected
	assert.True(t, rec.Selected(2))
	rec.Toggle(2)
	assert.False(t, rec.Selected(2))
	assert.Equal(t, 100.0, rec.SelectedNet())

	rec.Toggle(99) // unknown id is ignored
	assert.False(t, rec.Selected(99))

	rec.Toggle(3)
	require.NoError(t, rec.Confirm(context.Background()))
	assert.ElementsMatch(t, []int{1, 3}, conciliadas)
	assert.Len(t, rec.Pendentes(), 1, "confirm reloads the pending set")
	assert.False(t, rec.Selected(1), "selections reset after reload")
}
