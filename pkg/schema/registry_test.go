package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(DefaultCatalog(), DefaultFuzzyThreshold, zap.NewNop())
	require.NoError(t, r.Build())
	return r
}

func TestRegistryResolve(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "plural french alias",
			query:    "liste des fournisseurs",
			expected: []string{"achats.fournisseur"},
		},
		{
			name:     "prepositional variant",
			query:    "bons de commande du mois",
			expected: []string{"achats.commande"},
		},
		{
			name:     "accented query",
			query:    "où est le matériel affecté ?",
			expected: []string{"parc.materiel"},
		},
		{
			name:     "curated synonym",
			query:    "liste des ordinateurs",
			expected: []string{"parc.materiel"},
		},
		{
			name:     "english synonym",
			query:    "show me all suppliers",
			expected: []string{"achats.fournisseur"},
		},
		{
			name:     "multi entity keeps longest first",
			query:    "commandes et livraisons en attente",
			expected: []string{"achats.livraison", "achats.commande"},
		},
		{
			name:     "no match",
			query:    "zzz qqq www",
			expected: nil,
		},
		{
			name:     "empty",
			query:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.query))
		})
	}
}

func TestRegistryResolveFuzzy(t *testing.T) {
	r := newTestRegistry(t)

	// Single-character typo lands on the right type via the fuzzy pass
	got := r.Resolve("fournizseurs")
	require.Len(t, got, 1)
	assert.Equal(t, "achats.fournisseur", got[0])

	// Fuzzy never returns more than three types
	assert.LessOrEqual(t, len(r.Resolve("commandez")), maxFuzzyMatches)
}

func TestRegistryResolveDeterministic(t *testing.T) {
	r := newTestRegistry(t)

	queries := []string{
		"liste des fournisseurs",
		"commandes et livraisons",
		"fournizseurs",
		"matériels et demandes d'achat",
	}
	for _, q := range queries {
		first := r.Resolve(q)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, r.Resolve(q), "query %q", q)
		}
	}
}

func TestRegistryBuildIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	count := r.AliasCount()
	first := r.Resolve("bons de livraison")

	require.NoError(t, r.Build())
	assert.Equal(t, count, r.AliasCount())
	assert.Equal(t, first, r.Resolve("bons de livraison"))
}

func TestRegistryResolveField(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("direct field by name", func(t *testing.T) {
		path, name, ok := r.ResolveField("achats.commande", "montant total")
		require.True(t, ok)
		assert.Equal(t, "montant_total", name)
		assert.Equal(t, "montant_total", path.Column)
		assert.Equal(t, models.FieldNumber, path.Type)
		assert.False(t, path.IsRelated())
	})

	t.Run("curated synonym", func(t *testing.T) {
		path, name, ok := r.ResolveField("parc.materiel", "prix")
		require.True(t, ok)
		assert.Equal(t, "prix_achat", name)
		assert.Equal(t, models.FieldNumber, path.Type)
	})

	t.Run("accented label", func(t *testing.T) {
		path, _, ok := r.ResolveField("parc.materiel", "numéro de série")
		require.True(t, ok)
		assert.Equal(t, "numero_serie", path.Column)
	})

	t.Run("bare relation label resolves to display column", func(t *testing.T) {
		path, name, ok := r.ResolveField("achats.commande", "fournisseur")
		require.True(t, ok)
		assert.Equal(t, "fournisseur_id", name)
		require.True(t, path.IsRelated())
		assert.Equal(t, "nom", path.Column)
		assert.Equal(t, "achats.fournisseur", path.Relation.Target)
	})

	t.Run("one hop traversal", func(t *testing.T) {
		path, name, ok := r.ResolveField("achats.commande", "fournisseur ville")
		require.True(t, ok)
		assert.Equal(t, "fournisseur_id.ville", name)
		require.True(t, path.IsRelated())
		assert.Equal(t, "ville", path.Column)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, _, ok := r.ResolveField("achats.commande", "couleur")
		assert.False(t, ok)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, _, ok := r.ResolveField("rh.employe", "nom")
		assert.False(t, ok)
	})
}

func TestRegistryBuildValidation(t *testing.T) {
	t.Run("field synonym for missing field fails", func(t *testing.T) {
		// Reuses a key covered by the curated synonym table but drops the
		// fields those synonyms point at.
		catalog := []*models.RecordTypeDescriptor{{
			Key: "achats.commande", App: "achats", Name: "BonCommande",
			Table: "achats_commande", IDColumn: "id",
			Singular: "bon de commande", Plural: "bons de commande",
			Fields: []models.FieldDescriptor{
				{Name: "numero", Type: models.FieldText, Label: "numéro"},
			},
		}}
		r := NewRegistry(catalog, DefaultFuzzyThreshold, zap.NewNop())
		assert.Error(t, r.Build())
	})

	t.Run("relation to unknown target fails", func(t *testing.T) {
		catalog := []*models.RecordTypeDescriptor{{
			Key: "parc.vehicule", App: "parc", Name: "Vehicule",
			Table: "parc_vehicule", IDColumn: "id",
			Singular: "véhicule", Plural: "véhicules",
			Fields: []models.FieldDescriptor{
				{Name: "immatriculation", Type: models.FieldText, Label: "immatriculation"},
			},
			Relations: []models.RelationDescriptor{
				{Field: "fournisseur_id", Target: "achats.fournisseur", Label: "fournisseur", DisplayCol: "nom"},
			},
		}}
		r := NewRegistry(catalog, DefaultFuzzyThreshold, zap.NewNop())
		assert.Error(t, r.Build())
	})
}

func TestRegistryKeysOrder(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, []string{
		"parc.materiel",
		"achats.fournisseur",
		"achats.commande",
		"achats.livraison",
		"demandes.demande",
	}, r.Keys())
}
