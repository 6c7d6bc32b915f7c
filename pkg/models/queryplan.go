package models

// Action is what a query plan asks the executor to do.
type Action string

const (
	ActionList   Action = "list"
	ActionCount  Action = "count"
	ActionSum    Action = "sum"
	ActionAvg    Action = "avg"
	ActionMin    Action = "min"
	ActionMax    Action = "max"
	ActionSchema Action = "schema"
)

// IsAggregate reports whether the action computes a numeric aggregate over a field.
func (a Action) IsAggregate() bool {
	switch a {
	case ActionSum, ActionAvg, ActionMin, ActionMax:
		return true
	}
	return false
}

// Operator is a filter comparison operator. Exactly these eight values are
// accepted by the executor; anything else is a translation bug.
type Operator string

const (
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpEquals     Operator = "equals"
	OpGT         Operator = "gt"
	OpLT         Operator = "lt"
	OpGTE        Operator = "gte"
	OpLTE        Operator = "lte"
)

// Filter is one resolved condition of a query plan.
type Filter struct {
	Path  FieldPath // bound at translation time via the field alias table
	Field string    // canonical field name, for display and audit
	Op    Operator
	Value any // int64, float64 or string after coercion
}

// SortDirection for an explicit sort clause.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort is an optional ordering clause.
type Sort struct {
	Path      FieldPath
	Field     string
	Direction SortDirection
}

// QueryPlan is the structured form of a parsed analytical request. Built fresh
// per request by the translator and only read afterwards.
type QueryPlan struct {
	Raw         string   // original query text
	Action      Action
	Targets     []string // record-type keys, first one is primary
	Filters     []Filter
	Sort        *Sort
	Limit       int        // requested limit, 0 = unset; executor caps it
	AggField    string     // canonical field for sum/avg/min/max
	AggPath     *FieldPath // resolved aggregation path, nil if unresolved
}

// Primary returns the first detected target key, or "".
func (p *QueryPlan) Primary() string {
	if len(p.Targets) == 0 {
		return ""
	}
	return p.Targets[0]
}
