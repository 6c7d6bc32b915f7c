package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

func builtRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry(schema.DefaultCatalog(), schema.DefaultFuzzyThreshold, zap.NewNop())
	require.NoError(t, r.Build())
	return r
}

func TestResolveICE(t *testing.T) {
	reader := &repositories.MockDomainReader{
		GetByICEFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error) {
			assert.Equal(t, "achats.fournisseur", d.Key)
			assert.Equal(t, "ice", column)
			return models.Record{"nom": "Atlas Info", "ice": "001234567890123", "ville": "Casablanca"}, nil
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	tests := []string{
		"quel fournisseur a l'ICE 001234567890123 ?",
		"fournisseur avec ice 001 234 567 890 123",
		"fournisseur avec ice 001.234.567.890.123",
	}
	for _, q := range tests {
		m, err := r.Resolve(context.Background(), q)
		require.NoError(t, err, q)
		require.NotNil(t, m, q)
		assert.Equal(t, models.MethodICEExact, m.Method)
		assert.Equal(t, "achats.fournisseur", m.TypeKey)
		assert.Contains(t, m.Response, "Atlas Info")
	}
}

func TestResolveICENotFoundFallsThrough(t *testing.T) {
	r := New(&repositories.MockDomainReader{}, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "ICE 999999999999999 introuvable")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolveOrderNumber(t *testing.T) {
	var gotColumns []string
	reader := &repositories.MockDomainReader{
		GetByCodeFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error) {
			gotColumns = columns
			assert.Equal(t, "achats.commande", d.Key)
			return models.Record{"numero": "BC-2024/001", "statut": "validée"}, nil
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "où en est la commande BC-2024/001 ?")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MethodOrderExact, m.Method)
	assert.Equal(t, []string{"numero"}, gotColumns)
	assert.Contains(t, m.Response, "BC-2024/001")
}

func TestResolveDeliveryNumber(t *testing.T) {
	reader := &repositories.MockDomainReader{
		GetByCodeFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error) {
			assert.Equal(t, "achats.livraison", d.Key)
			assert.Equal(t, []string{"numero_bl"}, columns)
			return models.Record{"numero_bl": "BL-77", "statut": "reçue"}, nil
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "statut du BL-77")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "achats.livraison", m.TypeKey)
}

func TestResolveEquipmentCode(t *testing.T) {
	reader := &repositories.MockDomainReader{
		GetByCodeFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error) {
			assert.Equal(t, "parc.materiel", d.Key)
			assert.Equal(t, []string{"code_inventaire", "numero_serie"}, columns)
			return models.Record{"code_inventaire": "INV-0042", "designation": "Portable Dell"}, nil
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "où se trouve INV-0042 ?")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MethodMaterialExact, m.Method)
	assert.Contains(t, m.Response, "Portable Dell")
}

func TestResolveSupplierNamePrefix(t *testing.T) {
	reader := &repositories.MockDomainReader{
		GetByNameFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, name string) (models.Record, error) {
			assert.Equal(t, "nom", column)
			assert.Equal(t, "Maroc Bureau", name)
			return models.Record{"nom": "Maroc Bureau", "ville": "Rabat"}, nil
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "fournisseur: Maroc Bureau")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MethodSupplierExact, m.Method)
}

func TestResolveNoIdentifier(t *testing.T) {
	r := New(&repositories.MockDomainReader{}, builtRegistry(t), zap.NewNop())

	for _, q := range []string{
		"liste des fournisseurs de Casablanca",
		"combien de commandes ce mois",
		"",
	} {
		m, err := r.Resolve(context.Background(), q)
		require.NoError(t, err, q)
		assert.Nil(t, m, q)
	}
}

func TestResolveRuleFailureCollapsesToNoMatch(t *testing.T) {
	reader := &repositories.MockDomainReader{
		GetByICEFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error) {
			return nil, errors.New("connection reset")
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "ICE 001234567890123")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolveRuleFailureTriesLaterRules(t *testing.T) {
	reader := &repositories.MockDomainReader{
		GetByICEFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error) {
			return nil, errors.New("connection reset")
		},
		GetByNameFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, column, name string) (models.Record, error) {
			assert.Equal(t, "Atlas Info", name)
			return models.Record{"nom": "Atlas Info", "ville": "Casablanca"}, nil
		},
	}
	r := New(reader, builtRegistry(t), zap.NewNop())

	m, err := r.Resolve(context.Background(), "ICE 001234567890123 du fournisseur: Atlas Info")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MethodSupplierExact, m.Method)
}

func TestFormatRecordSpellsOutMissingValues(t *testing.T) {
	reg := builtRegistry(t)
	d, ok := reg.Descriptor("achats.fournisseur")
	require.True(t, ok)

	out := FormatRecord(d, models.Record{"nom": "Atlas Info", "ville": "Casablanca"})
	assert.Contains(t, out, "Fournisseur :")
	assert.Contains(t, out, "Nom : Atlas Info")
	assert.Contains(t, out, "Adresse : non renseigné")
}
