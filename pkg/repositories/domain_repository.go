package repositories

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/database"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// DomainReader provides read-only access to the CRUD application's tables.
// Every method is driven by a record-type descriptor; the repository never
// hardcodes a table or column name, so the catalog stays the single source
// of truth for what the engine may touch.
type DomainReader interface {
	// GetByICE finds the single record whose ICE column equals the given
	// identifier. Digit-group separators (spaces or dots) are ignored on
	// both the input and the stored value.
	GetByICE(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error)
	// GetByCode finds the single record where any of the given columns
	// equals the code, case-insensitively.
	GetByCode(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error)
	// GetByName finds the single record whose column equals the name after
	// trimming and case folding.
	GetByName(ctx context.Context, d *models.RecordTypeDescriptor, column, name string) (models.Record, error)

	Find(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error)
	Count(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter) (int64, error)
	// Aggregate computes sum/avg/min/max over a numeric field and also
	// reports how many rows contributed.
	Aggregate(ctx context.Context, d *models.RecordTypeDescriptor, action models.Action, path models.FieldPath, filters []models.Filter) (float64, int64, error)

	// List pages through a table in primary-key order, for index rebuilds.
	List(ctx context.Context, d *models.RecordTypeDescriptor, offset, limit int) ([]models.Record, error)
	// Exists reports whether any record has the given text value in the
	// given column, case-insensitively.
	Exists(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error)
}

type domainReader struct {
	db *database.DB
}

// NewDomainReader creates a DomainReader over the shared pool.
func NewDomainReader(db *database.DB) DomainReader {
	return &domainReader{db: db}
}

var _ DomainReader = (*domainReader)(nil)

// iceSeparatorPattern matches the digit-group separators users (and the CRUD
// app) put inside ICE identifiers.
var iceSeparatorPattern = regexp.MustCompile(`[\s.]+`)

func (r *domainReader) GetByICE(ctx context.Context, d *models.RecordTypeDescriptor, column, ice string) (models.Record, error) {
	cleaned := iceSeparatorPattern.ReplaceAllString(ice, "")
	where := fmt.Sprintf(`regexp_replace(%s, '[\s.]', '', 'g') = $1`, tableRef(column))
	return r.getOne(ctx, d, where, cleaned)
}

func (r *domainReader) GetByCode(ctx context.Context, d *models.RecordTypeDescriptor, columns []string, code string) (models.Record, error) {
	cleaned := strings.TrimSpace(code)
	var clauses []string
	for _, col := range columns {
		clauses = append(clauses, fmt.Sprintf("UPPER(%s) = UPPER($1)", tableRef(col)))
	}
	where := strings.Join(clauses, " OR ")
	return r.getOne(ctx, d, where, cleaned)
}

func (r *domainReader) GetByName(ctx context.Context, d *models.RecordTypeDescriptor, column, name string) (models.Record, error) {
	cleaned := strings.TrimSpace(name)
	where := fmt.Sprintf("LOWER(TRIM(%s)) = LOWER($1)", tableRef(column))
	return r.getOne(ctx, d, where, cleaned)
}

func (r *domainReader) getOne(ctx context.Context, d *models.RecordTypeDescriptor, where string, args ...any) (models.Record, error) {
	query := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT 1",
		selectClause(d), where, tableRef(d.IDColumn))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", d.Table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return records[0], nil
}

func (r *domainReader) Find(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) ([]models.Record, error) {
	query, args, err := buildSelectQuery(d, filters, sort, limit)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", d.Table, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *domainReader) Count(ctx context.Context, d *models.RecordTypeDescriptor, filters []models.Filter) (int64, error) {
	where, args, err := buildWhereClause(d, filters, 1)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s t%s%s", quoteIdent(d.Table), joinClause(d), where)

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", d.Table, err)
	}
	return count, nil
}

var aggregateFuncs = map[models.Action]string{
	models.ActionSum: "SUM",
	models.ActionAvg: "AVG",
	models.ActionMin: "MIN",
	models.ActionMax: "MAX",
}

func (r *domainReader) Aggregate(ctx context.Context, d *models.RecordTypeDescriptor, action models.Action, path models.FieldPath, filters []models.Filter) (float64, int64, error) {
	fn, ok := aggregateFuncs[action]
	if !ok {
		return 0, 0, fmt.Errorf("action %q is not an aggregation", action)
	}
	if path.Type != models.FieldNumber {
		return 0, 0, apperrors.ErrNoAggregationField
	}

	where, args, err := buildWhereClause(d, filters, 1)
	if err != nil {
		return 0, 0, err
	}

	ref, err := fieldRef(d, path)
	if err != nil {
		return 0, 0, err
	}

	query := fmt.Sprintf("SELECT COALESCE(%s(%s)::float8, 0), COUNT(%s) FROM %s t%s%s",
		fn, ref, ref, quoteIdent(d.Table), joinClause(d), where)

	var value float64
	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&value, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate %s on %s: %w", fn, d.Table, err)
	}
	return value, count, nil
}

func (r *domainReader) List(ctx context.Context, d *models.RecordTypeDescriptor, offset, limit int) ([]models.Record, error) {
	query := fmt.Sprintf("%s ORDER BY %s LIMIT %d OFFSET %d",
		selectClause(d), tableRef(d.IDColumn), limit, offset)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.Table, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *domainReader) Exists(ctx context.Context, d *models.RecordTypeDescriptor, column, value string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s t WHERE LOWER(TRIM(%s)) = LOWER($1))",
		quoteIdent(d.Table), tableRef(column))

	var exists bool
	if err := r.db.QueryRow(ctx, query, strings.TrimSpace(value)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", d.Table, err)
	}
	return exists, nil
}

// scanRecords converts pgx rows into generic records keyed by the column
// aliases of the select clause.
func scanRecords(rows pgx.Rows) ([]models.Record, error) {
	records := make([]models.Record, 0)
	fields := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		record := make(models.Record, len(fields))
		for i, fd := range fields {
			record[fd.Name] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return records, nil
}
