package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"accents and case", "Preço Máximo ao Consumidor", "preco maximo ao consumidor"},
		{"cedilla month", "MARÇO/24", "marco/24"},
		{"non-breaking space", "Preço\u00a0Fábrica", "preco fabrica"},
		{"whitespace runs", "  compras \n\t públicas ", "compras publicas"},
		{"plain ascii", "pmvg", "pmvg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Lista de Preços – Preço Fábrica (PF)", "preco fabrica"))
	assert.True(t, Contains("COMPRAS PÚBLICAS", "Compras Publicas"))
	assert.False(t, Contains("Resoluções", "preco"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Março", Title("março"))
	assert.Equal(t, "Preço Fábrica", Title("preço fábrica"))
}
