package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
	"github.com/gestinv-inc/gestinv-engine/pkg/testhelpers"
)

func setupDomainReader(t *testing.T) (DomainReader, *schema.Registry) {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	require.NoError(t, testhelpers.SeedDomainData(context.Background(), testDB.DB))

	registry := schema.NewRegistry(schema.DefaultCatalog(), schema.DefaultFuzzyThreshold, zap.NewNop())
	require.NoError(t, registry.Build())

	return NewDomainReader(testDB.DB), registry
}

func descriptor(t *testing.T, registry *schema.Registry, key string) *models.RecordTypeDescriptor {
	t.Helper()
	d, ok := registry.Descriptor(key)
	require.True(t, ok)
	return d
}

func TestGetByICEIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "achats.fournisseur")

	// Spaced or dotted input must match the stored compact identifier.
	for _, input := range []string{"001 234 567 890 123", "001.234.567.890.123"} {
		record, err := reader.GetByICE(context.Background(), d, "ice", input)
		require.NoError(t, err, input)
		assert.Equal(t, "Atlas Info SARL", record["nom"], input)
	}

	_, err := reader.GetByICE(context.Background(), d, "ice", "999999999999999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetByCodeIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "achats.commande")

	record, err := reader.GetByCode(context.Background(), d, []string{"numero"}, "bc-2024/001")
	require.NoError(t, err)
	assert.Equal(t, "BC-2024/001", record["numero"])
	assert.Equal(t, "Atlas Info SARL", record["fournisseur"])
}

func TestGetByNameIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "achats.fournisseur")

	record, err := reader.GetByName(context.Background(), d, "nom", "  atlas info sarl  ")
	require.NoError(t, err)
	assert.Equal(t, "Casablanca", record["ville"])
}

func TestFindWithFiltersIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "achats.commande")

	filters := []models.Filter{{
		Path:  models.FieldPath{Column: "statut", Type: models.FieldText},
		Field: "statut",
		Op:    models.OpEquals,
		Value: "validée",
	}}
	records, err := reader.Find(context.Background(), d, filters, nil, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	filters = []models.Filter{{
		Path:  models.FieldPath{Column: "montant_total", Type: models.FieldNumber},
		Field: "montant_total",
		Op:    models.OpGT,
		Value: float64(10000),
	}}
	sort := &models.Sort{
		Path:      models.FieldPath{Column: "montant_total", Type: models.FieldNumber},
		Field:     "montant_total",
		Direction: models.SortDesc,
	}
	records, err = reader.Find(context.Background(), d, filters, sort, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "BC-2024/001", records[0]["numero"])
}

func TestFindLimitsResultsIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "parc.materiel")

	records, err := reader.Find(context.Background(), d, nil, nil, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCountIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "achats.fournisseur")

	count, err := reader.Count(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAggregateIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "achats.commande")

	path := models.FieldPath{Column: "montant_total", Type: models.FieldNumber}
	filters := []models.Filter{{
		Path:  models.FieldPath{Column: "statut", Type: models.FieldText},
		Field: "statut",
		Op:    models.OpEquals,
		Value: "validée",
	}}

	value, count, err := reader.Aggregate(context.Background(), d, models.ActionSum, path, filters)
	require.NoError(t, err)
	assert.InDelta(t, 133900.50, value, 0.001)
	assert.Equal(t, int64(2), count)

	value, count, err = reader.Aggregate(context.Background(), d, models.ActionMax, path, nil)
	require.NoError(t, err)
	assert.InDelta(t, 125000.50, value, 0.001)
	assert.Equal(t, int64(3), count)
}

func TestListPagesInIDOrderIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "parc.materiel")

	first, err := reader.List(context.Background(), d, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "INV-0042", first[0]["code_inventaire"])

	rest, err := reader.List(context.Background(), d, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "INV-0044", rest[0]["code_inventaire"])
}

func TestExistsIntegration(t *testing.T) {
	reader, registry := setupDomainReader(t)
	d := descriptor(t, registry, "parc.materiel")

	exists, err := reader.Exists(context.Background(), d, "code_inventaire", "inv-0042")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = reader.Exists(context.Background(), d, "code_inventaire", "INV-9999")
	require.NoError(t, err)
	assert.False(t, exists)
}
