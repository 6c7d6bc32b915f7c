package repositories

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// The builders below are pure functions over the descriptor and the plan
// pieces, so they can be tested without a database. All identifiers come from
// the static catalog and are still quoted defensively; values always travel
// as bind parameters.

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func tableRef(column string) string {
	return "t." + quoteIdent(column)
}

// relAlias is the join alias for a relation, the FK column without its _id
// suffix ("fournisseur_id" joins as "fournisseur"). The related display value
// appears under this key in scanned records.
func relAlias(rel *models.RelationDescriptor) string {
	return strings.TrimSuffix(rel.Field, "_id")
}

// fieldRef renders a bound field path as a qualified column reference.
func fieldRef(d *models.RecordTypeDescriptor, path models.FieldPath) (string, error) {
	if !path.IsRelated() {
		if path.Column != d.IDColumn && d.Field(path.Column) == nil {
			return "", fmt.Errorf("column %q does not exist on %s", path.Column, d.Key)
		}
		return tableRef(path.Column), nil
	}

	rel := d.Relation(path.Relation.Field)
	if rel == nil {
		return "", fmt.Errorf("relation %q is not declared on %s", path.Relation.Field, d.Key)
	}
	return quoteIdent(relAlias(rel)) + "." + quoteIdent(path.Column), nil
}

// joinClause renders the LEFT JOINs for every relation of the type. Relations
// must have been resolved by the registry so TargetTable is populated.
func joinClause(d *models.RecordTypeDescriptor) string {
	var b strings.Builder
	for i := range d.Relations {
		rel := &d.Relations[i]
		alias := quoteIdent(relAlias(rel))
		fmt.Fprintf(&b, " LEFT JOIN %s %s ON %s.%s = %s",
			quoteIdent(rel.TargetTable), alias,
			alias, quoteIdent(rel.TargetIDColumn),
			tableRef(rel.Field))
	}
	return b.String()
}

// selectClause renders the full projection for a record type: the id, every
// declared field (numbers cast to float8 so scanning stays uniform) and each
// relation's display column under its join alias.
func selectClause(d *models.RecordTypeDescriptor) string {
	cols := []string{fmt.Sprintf("%s AS %s", tableRef(d.IDColumn), quoteIdent(d.IDColumn))}
	for _, f := range d.Fields {
		ref := tableRef(f.Name)
		if f.Type == models.FieldNumber {
			ref += "::float8"
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", ref, quoteIdent(f.Name)))
	}
	for i := range d.Relations {
		rel := &d.Relations[i]
		alias := quoteIdent(relAlias(rel))
		cols = append(cols, fmt.Sprintf("%s.%s AS %s", alias, quoteIdent(rel.DisplayCol), alias))
	}
	return fmt.Sprintf("SELECT %s FROM %s t%s",
		strings.Join(cols, ", "), quoteIdent(d.Table), joinClause(d))
}

var comparisonOps = map[models.Operator]string{
	models.OpGT:  ">",
	models.OpLT:  "<",
	models.OpGTE: ">=",
	models.OpLTE: "<=",
}

// filterClause renders one filter as a SQL condition with a bind parameter.
func filterClause(d *models.RecordTypeDescriptor, f models.Filter, argn int) (string, any, error) {
	ref, err := fieldRef(d, f.Path)
	if err != nil {
		return "", nil, err
	}

	switch f.Op {
	case models.OpContains:
		return fmt.Sprintf("%s::text ILIKE $%d", ref, argn), "%" + fmt.Sprint(f.Value) + "%", nil
	case models.OpStartsWith:
		return fmt.Sprintf("%s::text ILIKE $%d", ref, argn), fmt.Sprint(f.Value) + "%", nil
	case models.OpEndsWith:
		return fmt.Sprintf("%s::text ILIKE $%d", ref, argn), "%" + fmt.Sprint(f.Value), nil
	case models.OpEquals:
		if f.Path.Type == models.FieldText {
			return fmt.Sprintf("LOWER(TRIM(%s)) = LOWER($%d)", ref, argn), strings.TrimSpace(fmt.Sprint(f.Value)), nil
		}
		return fmt.Sprintf("%s = $%d", ref, argn), f.Value, nil
	default:
		op, ok := comparisonOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		return fmt.Sprintf("%s %s $%d", ref, op, argn), f.Value, nil
	}
}

// buildWhereClause renders all filters ANDed together. startArg is the first
// bind parameter number to use. Returns "" and no args for an empty filter set.
func buildWhereClause(d *models.RecordTypeDescriptor, filters []models.Filter, startArg int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		clause, arg, err := filterClause(d, f, startArg+len(args))
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, arg)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// buildSelectQuery renders a complete list query: projection, filters, an
// explicit or primary-key ordering, and a limit when one is set.
func buildSelectQuery(d *models.RecordTypeDescriptor, filters []models.Filter, sort *models.Sort, limit int) (string, []any, error) {
	where, args, err := buildWhereClause(d, filters, 1)
	if err != nil {
		return "", nil, err
	}

	query := selectClause(d) + where

	if sort != nil {
		ref, err := fieldRef(d, sort.Path)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if sort.Direction == models.SortDesc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s NULLS LAST", ref, dir)
	} else {
		query += " ORDER BY " + tableRef(d.IDColumn)
	}

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query, args, nil
}
