package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips diacritics", "Matériel", "materiel"},
		{"lowercases", "FOURNISSEUR", "fournisseur"},
		{"collapses whitespace", "  bons   de  commande ", "bons de commande"},
		{"mixed", "Numéro  de Série", "numero de serie"},
		{"empty", "", ""},
		{"only spaces", "   \t  ", ""},
		{"keeps apostrophes", "demande d'achat", "demande d'achat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Matériels  Informatiques", "bon de commande", "état"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestCamelSplit(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"BonCommande", []string{"bon", "commande"}},
		{"Materiel", []string{"materiel"}},
		{"DemandeAchat", []string{"demande", "achat"}},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, camelSplit(tt.input))
	}
}

func TestPrepositionalVariants(t *testing.T) {
	assert.Nil(t, prepositionalVariants([]string{"materiel"}))

	got := prepositionalVariants([]string{"bon", "commande"})
	assert.Contains(t, got, "bon commande")
	assert.Contains(t, got, "bon de commande")

	// Vowel-initial second word elides to d'
	got = prepositionalVariants([]string{"demande", "achat"})
	assert.Contains(t, got, "demande d'achat")
}

func TestPluralizePhrase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"materiel", "materiels"},
		{"bon de commande", "bons de commande"},
		{"fournisseurs", "fournisseurs"},
		{"prix", "prix"},
		{"cheval", "chevaux"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, pluralizePhrase(tt.input))
	}
}
