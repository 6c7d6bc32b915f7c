// Package executor runs translated query plans against the domain tables and
// renders the outcome as French text. It never writes anything and always
// enforces the global result cap.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/resolver"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

// DefaultMaxResults is the hard cap on rows a single answer may contain.
const DefaultMaxResults = 50

// fanOutWorkers bounds concurrent per-target queries for multi-target plans.
const fanOutWorkers = 4

// Result is the rendered outcome of a plan execution.
type Result struct {
	Response string
	Count    int
}

// Executor executes query plans.
type Executor interface {
	Execute(ctx context.Context, plan *models.QueryPlan) (*Result, error)
	Close()
}

type executor struct {
	reader     repositories.DomainReader
	registry   *schema.Registry
	maxResults int
	pool       *ants.Pool
	logger     *zap.Logger
}

// New creates an Executor. maxResults <= 0 selects the default cap.
func New(reader repositories.DomainReader, registry *schema.Registry, maxResults int, logger *zap.Logger) (Executor, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	pool, err := ants.NewPool(fanOutWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor pool: %w", err)
	}
	return &executor{
		reader:     reader,
		registry:   registry,
		maxResults: maxResults,
		pool:       pool,
		logger:     logger.Named("executor"),
	}, nil
}

var _ Executor = (*executor)(nil)

func (e *executor) Close() {
	e.pool.Release()
}

func (e *executor) Execute(ctx context.Context, plan *models.QueryPlan) (*Result, error) {
	if len(plan.Targets) == 0 {
		return nil, apperrors.ErrNoTarget
	}
	if len(plan.Targets) > 1 && !plan.Action.IsAggregate() {
		return e.executeFanOut(ctx, plan)
	}
	return e.executeSingle(ctx, plan, plan.Primary())
}

func (e *executor) executeSingle(ctx context.Context, plan *models.QueryPlan, typeKey string) (*Result, error) {
	d, ok := e.registry.Descriptor(typeKey)
	if !ok {
		return nil, apperrors.ErrNoTarget
	}

	switch plan.Action {
	case models.ActionSchema:
		return e.describeType(d), nil
	case models.ActionCount:
		return e.runCount(ctx, plan, d)
	case models.ActionSum, models.ActionAvg, models.ActionMin, models.ActionMax:
		return e.runAggregate(ctx, plan, d)
	default:
		return e.runList(ctx, plan, d)
	}
}

// executeFanOut runs the plan against every detected target concurrently.
// Each target fails or succeeds on its own; a failed target contributes an
// explicit unavailability line instead of poisoning the whole answer.
func (e *executor) executeFanOut(ctx context.Context, plan *models.QueryPlan) (*Result, error) {
	type targetOutcome struct {
		result *Result
		err    error
	}

	outcomes := make([]targetOutcome, len(plan.Targets))
	var wg sync.WaitGroup
	for i, typeKey := range plan.Targets {
		i, typeKey := i, typeKey
		wg.Add(1)
		if err := e.pool.Submit(func() {
			defer wg.Done()
			// Filters are bound to the primary target's fields; secondary
			// targets only answer the bare action.
			sub := &models.QueryPlan{
				Raw:     plan.Raw,
				Action:  plan.Action,
				Targets: []string{typeKey},
				Limit:   plan.Limit,
			}
			if typeKey == plan.Primary() {
				sub.Filters = plan.Filters
				sub.Sort = plan.Sort
			}
			res, err := e.executeSingle(ctx, sub, typeKey)
			outcomes[i] = targetOutcome{result: res, err: err}
		}); err != nil {
			wg.Done()
			outcomes[i] = targetOutcome{err: err}
		}
	}
	wg.Wait()

	var sections []string
	total := 0
	for i, typeKey := range plan.Targets {
		d, ok := e.registry.Descriptor(typeKey)
		if !ok {
			continue
		}
		if outcomes[i].err != nil {
			e.logger.Warn("Fan-out target failed",
				zap.String("record_type", typeKey),
				zap.Error(outcomes[i].err))
			sections = append(sections, fmt.Sprintf("%s : données indisponibles", capitalize(d.Plural)))
			continue
		}
		sections = append(sections, outcomes[i].result.Response)
		total += outcomes[i].result.Count
	}
	return &Result{Response: strings.Join(sections, "\n\n"), Count: total}, nil
}

// effectiveLimit caps the requested limit at the configured maximum.
func (e *executor) effectiveLimit(requested int) int {
	if requested <= 0 || requested > e.maxResults {
		return e.maxResults
	}
	return requested
}

func (e *executor) runList(ctx context.Context, plan *models.QueryPlan, d *models.RecordTypeDescriptor) (*Result, error) {
	limit := e.effectiveLimit(plan.Limit)
	records, err := e.reader.Find(ctx, d, plan.Filters, plan.Sort, limit)
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		return &Result{Response: fmt.Sprintf("Aucun résultat pour %s.", d.Plural), Count: 0}, nil
	case 1:
		return &Result{Response: resolver.FormatRecord(d, records[0]), Count: 1}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %s :", len(records), d.Plural)
	for i, record := range records {
		fmt.Fprintf(&b, "\n%d. %s", i+1, summarizeRecord(d, record))
	}
	if len(records) == limit {
		fmt.Fprintf(&b, "\n(premiers %d résultats)", limit)
	}
	return &Result{Response: b.String(), Count: len(records)}, nil
}

func (e *executor) runCount(ctx context.Context, plan *models.QueryPlan, d *models.RecordTypeDescriptor) (*Result, error) {
	count, err := e.reader.Count(ctx, d, plan.Filters)
	if err != nil {
		return nil, err
	}
	return &Result{
		Response: fmt.Sprintf("Nombre de %s : %d", d.Plural, count),
		Count:    int(count),
	}, nil
}

var aggregateLabels = map[models.Action]string{
	models.ActionSum: "Total",
	models.ActionAvg: "Moyenne",
	models.ActionMin: "Minimum",
	models.ActionMax: "Maximum",
}

func (e *executor) runAggregate(ctx context.Context, plan *models.QueryPlan, d *models.RecordTypeDescriptor) (*Result, error) {
	if plan.AggPath == nil {
		return nil, apperrors.ErrNoAggregationField
	}

	value, count, err := e.reader.Aggregate(ctx, d, plan.Action, *plan.AggPath, plan.Filters)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &Result{Response: fmt.Sprintf("Aucun résultat pour %s.", d.Plural), Count: 0}, nil
	}

	label := fieldLabel(d, plan.AggField)
	return &Result{
		Response: fmt.Sprintf("%s (%s) sur %d %s : %s",
			aggregateLabels[plan.Action], label, count, d.Plural, models.FormatValue(value)),
		Count: int(count),
	}, nil
}

// describeType answers schema questions from the static catalog, without
// touching the database.
func (e *executor) describeType(d *models.RecordTypeDescriptor) *Result {
	var b strings.Builder
	fmt.Fprintf(&b, "Champs de %s :", d.Singular)
	for _, f := range d.Fields {
		fmt.Fprintf(&b, "\n- %s (%s)", f.Label, fieldTypeLabel(f.Type))
	}
	for i := range d.Relations {
		rel := &d.Relations[i]
		fmt.Fprintf(&b, "\n- %s (lien)", rel.Label)
	}
	return &Result{Response: b.String(), Count: len(d.Fields) + len(d.Relations)}
}

var fieldTypeLabels = map[models.FieldType]string{
	models.FieldText:   "texte",
	models.FieldNumber: "nombre",
	models.FieldDate:   "date",
	models.FieldBool:   "oui/non",
}

func fieldTypeLabel(t models.FieldType) string {
	if label, ok := fieldTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func fieldLabel(d *models.RecordTypeDescriptor, name string) string {
	if f := d.Field(name); f != nil {
		return f.Label
	}
	return name
}

// summarizeRecord renders one record as a single line: the first field as
// title, then up to three more informative values.
func summarizeRecord(d *models.RecordTypeDescriptor, record models.Record) string {
	var parts []string
	for _, f := range d.Fields {
		v := models.FormatValue(record[f.Name])
		if v == "" {
			continue
		}
		if len(parts) == 0 {
			parts = append(parts, v)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Label, v))
		if len(parts) == 4 {
			break
		}
	}
	for i := range d.Relations {
		if len(parts) >= 5 {
			break
		}
		rel := &d.Relations[i]
		key := strings.TrimSuffix(rel.Field, "_id")
		if v := models.FormatValue(record[key]); v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", rel.Label, v))
		}
	}
	if len(parts) == 0 {
		return models.FormatValue(record[d.IDColumn])
	}
	return strings.Join(parts, " | ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
