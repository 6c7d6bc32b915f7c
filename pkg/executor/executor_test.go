package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

func newExecutor(t *testing.T, reader repositories.DomainReader, maxResults int) Executor {
	t.Helper()
	registry := schema.NewRegistry(schema.DefaultCatalog(), schema.DefaultFuzzyThreshold, zap.NewNop())
	require.NoError(t, registry.Build())
	e, err := New(reader, registry, maxResults, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestExecuteCapsRequestedLimit(t *testing.T) {
	var gotLimit int
	reader := &repositories.MockDomainReader{
		FindFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	e := newExecutor(t, reader, 50)

	plan := &models.QueryPlan{Action: models.ActionList, Targets: []string{"achats.commande"}, Limit: 500}
	_, err := e.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)

	plan.Limit = 5
	_, err = e.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 5, gotLimit)

	plan.Limit = 0
	_, err = e.Execute(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
}

func TestExecuteListFormatsRecords(t *testing.T) {
	reader := &repositories.MockDomainReader{
		FindFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error) {
			return []models.Record{
				{"numero": "BC-2024/001", "statut": "validée", "montant_total": 12500.0},
				{"numero": "BC-2024/002", "statut": "en attente", "fournisseur": "Atlas Info"},
			}, nil
		},
	}
	e := newExecutor(t, reader, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionList,
		Targets: []string{"achats.commande"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Contains(t, res.Response, "2 bons de commande :")
	assert.Contains(t, res.Response, "1. BC-2024/001")
	assert.Contains(t, res.Response, "fournisseur: Atlas Info")
}

func TestExecuteListEmpty(t *testing.T) {
	e := newExecutor(t, &repositories.MockDomainReader{}, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionList,
		Targets: []string{"demandes.demande"},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Contains(t, res.Response, "Aucun résultat")
}

func TestExecuteCount(t *testing.T) {
	reader := &repositories.MockDomainReader{
		CountFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter) (int64, error) {
			return 12, nil
		},
	}
	e := newExecutor(t, reader, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionCount,
		Targets: []string{"achats.livraison"},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Count)
	assert.Equal(t, "Nombre de bons de livraison : 12", res.Response)
}

func TestExecuteAggregateWithoutFieldFails(t *testing.T) {
	e := newExecutor(t, &repositories.MockDomainReader{}, 50)

	_, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionSum,
		Targets: []string{"achats.commande"},
	})
	assert.ErrorIs(t, err, apperrors.ErrNoAggregationField)
}

func TestExecuteAggregate(t *testing.T) {
	reader := &repositories.MockDomainReader{
		AggregateFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, action models.Action, path models.FieldPath, filters []models.Filter) (float64, int64, error) {
			assert.Equal(t, models.ActionSum, action)
			assert.Equal(t, "montant_total", path.Column)
			return 125000.50, 8, nil
		},
	}
	e := newExecutor(t, reader, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:   models.ActionSum,
		Targets:  []string{"achats.commande"},
		AggField: "montant_total",
		AggPath:  &models.FieldPath{Column: "montant_total", Type: models.FieldNumber},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Count)
	assert.Contains(t, res.Response, "Total (montant total)")
	assert.Contains(t, res.Response, "125000.50")
}

func TestExecuteSchemaUsesCatalogOnly(t *testing.T) {
	reader := &repositories.MockDomainReader{
		FindFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error) {
			t.Fatal("schema questions must not hit the database")
			return nil, nil
		},
	}
	e := newExecutor(t, reader, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionSchema,
		Targets: []string{"parc.materiel"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Response, "Champs de matériel :")
	assert.Contains(t, res.Response, "prix d'achat (nombre)")
	assert.Contains(t, res.Response, "fournisseur (lien)")
}

func TestExecuteSchemaFanOutDescribesEachTarget(t *testing.T) {
	e := newExecutor(t, &repositories.MockDomainReader{}, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionSchema,
		Targets: []string{"achats.commande", "achats.livraison"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Response, "Champs de bon de commande :")
	assert.Contains(t, res.Response, "Champs de bon de livraison :")
}

func TestExecuteFanOutIsolatesFailures(t *testing.T) {
	reader := &repositories.MockDomainReader{
		FindFunc: func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error) {
			if d.Key == "achats.livraison" {
				return nil, errors.New("relation does not exist")
			}
			return []models.Record{{"numero": "BC-1", "statut": "validée"}}, nil
		},
	}
	e := newExecutor(t, reader, 50)

	res, err := e.Execute(context.Background(), &models.QueryPlan{
		Action:  models.ActionList,
		Targets: []string{"achats.commande", "achats.livraison"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Response, "BC-1")
	assert.Contains(t, res.Response, "Bons de livraison : données indisponibles")
	assert.Equal(t, 1, res.Count)
}

func TestExecuteNoTargets(t *testing.T) {
	e := newExecutor(t, &repositories.MockDomainReader{}, 50)

	_, err := e.Execute(context.Background(), &models.QueryPlan{Action: models.ActionList})
	assert.ErrorIs(t, err, apperrors.ErrNoTarget)
}
