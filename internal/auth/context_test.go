package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAnyPermission(t *testing.T) {
	cases := []struct {
		name     string
		have     []string
		required []string
		want     bool
	}{
		{"intersection", []string{"compras:read", "vendas:read"}, []string{"vendas:read"}, true},
		{"wildcard", []string{"*:*"}, []string{"financeiro:update"}, true},
		{"disjoint", []string{"compras:read"}, []string{"vendas:read", "vendas:create"}, false},
		{"empty set", nil, []string{"vendas:read"}, false},
		{"empty required", []string{"compras:read"}, nil, false},
		{"empty both", nil, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Claims{Permissions: tc.have}
			assert.Equal(t, tc.want, c.HasAnyPermission(tc.required...))
		})
	}
}

func TestHasPermissionWildcard(t *testing.T) {
	c := Claims{Permissions: []string{"*:*"}}
	assert.True(t, c.HasPermission("qualquer:coisa"))
	assert.False(t, Claims{}.HasPermission("compras:read"))
}

func TestHasRole(t *testing.T) {
	c := Claims{Roles: []string{"Comprador", "Financeiro"}}
	assert.True(t, c.HasRole("Financeiro"))
	assert.False(t, c.HasRole("Administrador"))
}

func TestClaimsRoundTripContext(t *testing.T) {
	ctx := WithClaims(context.Background(), Claims{Subject: "ana@empresa.com", Roles: []string{"Vendedor"}})
	got := FromContext(ctx)
	assert.Equal(t, "ana@empresa.com", got.Subject)
	assert.Equal(t, "ana@empresa.com", Subject(ctx))
	assert.Equal(t, Claims{}, FromContext(context.Background()))
}
