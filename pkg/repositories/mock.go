package repositories

import (
	"context"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// MockDomainReader implements DomainReader with overridable function fields
// for tests. Unset lookups report not-found; unset collection reads return
// empty results.
type MockDomainReader struct {
	GetByICEFunc  func(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error)
	GetByCodeFunc func(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error)
	GetByNameFunc func(ctx context.Context, d *models.RecordTypeDescriptor, column, name string) (models.Record, error)
	FindFunc      func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error)
	CountFunc     func(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter) (int64, error)
	AggregateFunc func(ctx context.Context, d *models.RecordTypeDescriptor, action models.Action, path models.FieldPath, filters []models.Filter) (float64, int64, error)
	ListFunc      func(ctx context.Context, d *models.RecordTypeDescriptor, offset, limit int) ([]models.Record, error)
	ExistsFunc    func(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error)
}

var _ DomainReader = (*MockDomainReader)(nil)

func (m *MockDomainReader) GetByICE(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error) {
	if m.GetByICEFunc != nil {
		return m.GetByICEFunc(ctx, d, column, ice)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockDomainReader) GetByCode(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, d, columns, code)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockDomainReader) GetByName(ctx context.Context, d *models.RecordTypeDescriptor, column, name string) (models.Record, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, d, column, name)
	}
	return nil, apperrors.ErrNotFound
}

func (m *MockDomainReader) Find(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, d, filters, sort, limit)
	}
	return nil, nil
}

func (m *MockDomainReader) Count(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, d, filters)
	}
	return 0, nil
}

func (m *MockDomainReader) Aggregate(ctx context.Context, d *models.RecordTypeDescriptor, action models.Action, path models.FieldPath, filters []models.Filter) (float64, int64, error) {
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, d, action, path, filters)
	}
	return 0, 0, nil
}

func (m *MockDomainReader) List(ctx context.Context, d *models.RecordTypeDescriptor, offset, limit int) ([]models.Record, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, d, offset, limit)
	}
	return nil, nil
}

func (m *MockDomainReader) Exists(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, d, column, value)
	}
	return false, nil
}

// MockIndexRepository implements IndexRepository with overridable function
// fields for tests.
type MockIndexRepository struct {
	ReplaceAllFunc  func(ctx context.Context, fn func(q database.Querier) error) error
	DeleteAllFunc   func(ctx context.Context, q database.Querier) error
	InsertBatchFunc func(ctx context.Context, q database.Querier, docs []*models.IndexedDocument) error
	GetActiveFunc   func(ctx context.Context) ([]*models.IndexedDocument, error)
	StatsFunc       func(ctx context.Context) (*models.IndexReport, error)
}

var _ IndexRepository = (*MockIndexRepository)(nil)

func (m *MockIndexRepository) ReplaceAll(ctx context.Context, fn func(q database.Querier) error) error {
	if m.ReplaceAllFunc != nil {
		return m.ReplaceAllFunc(ctx, fn)
	}
	if err := m.DeleteAll(ctx, nil); err != nil {
		return err
	}
	return fn(nil)
}

func (m *MockIndexRepository) DeleteAll(ctx context.Context, q database.Querier) error {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc(ctx, q)
	}
	return nil
}

func (m *MockIndexRepository) InsertBatch(ctx context.Context, q database.Querier, docs []*models.IndexedDocument) error {
	if m.InsertBatchFunc != nil {
		return m.InsertBatchFunc(ctx, q, docs)
	}
	return nil
}

func (m *MockIndexRepository) GetActive(ctx context.Context) ([]*models.IndexedDocument, error) {
	if m.GetActiveFunc != nil {
		return m.GetActiveFunc(ctx)
	}
	return nil, nil
}

func (m *MockIndexRepository) Stats(ctx context.Context) (*models.IndexReport, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.IndexReport{PerType: make(map[string]int64)}, nil
}

// MockInteractionRepository implements InteractionRepository and records every
// inserted interaction for assertions.
type MockInteractionRepository struct {
	InsertFunc    func(ctx context.Context, interaction *models.Interaction) error
	GetRecentFunc func(ctx context.Context, limit int) ([]*models.Interaction, error)
	Inserted      []*models.Interaction
}

var _ InteractionRepository = (*MockInteractionRepository)(nil)

func (m *MockInteractionRepository) Insert(ctx context.Context, interaction *models.Interaction) error {
	m.Inserted = append(m.Inserted, interaction)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, interaction)
	}
	return nil
}

func (m *MockInteractionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Interaction, error) {
	if m.GetRecentFunc != nil {
		return m.GetRecentFunc(ctx, limit)
	}
	return nil, nil
}
