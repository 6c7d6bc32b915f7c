package models

// FieldType is the semantic type of a record field. It drives filter value
// coercion and index content formatting.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldBool     FieldType = "bool"
	FieldRelation FieldType = "relation"
)

// FieldDescriptor describes one column of a record type.
type FieldDescriptor struct {
	Name  string    `json:"name"`  // canonical field name, equal to the column name
	Type  FieldType `json:"type"`
	Label string    `json:"label"` // human label, used for alias generation
}

// RelationDescriptor describes a one-hop relation to another record type.
// TargetTable and TargetIDColumn are back-filled by the registry at build
// time so query builders never need to look the target up themselves.
type RelationDescriptor struct {
	Field          string `json:"field"`       // local FK column, e.g. "fournisseur_id"
	Target         string `json:"target"`      // target record-type key, e.g. "achats.fournisseur"
	Label          string `json:"label"`       // human phrase, e.g. "fournisseur"
	DisplayCol     string `json:"display_col"` // column on the target used as its display value
	TargetTable    string `json:"-"`
	TargetIDColumn string `json:"-"`
}

// RecordTypeDescriptor is the static description of one domain record type.
// Descriptors are built once at startup from the catalog and are immutable
// afterwards.
type RecordTypeDescriptor struct {
	Key       string               `json:"key"` // "app.entity"
	App       string               `json:"app"`
	Name      string               `json:"name"` // camel-case type name, e.g. "BonCommande"
	Table     string               `json:"table"`
	IDColumn  string               `json:"id_column"`
	Singular  string               `json:"singular"` // human singular label
	Plural    string               `json:"plural"`   // human plural label
	Fields    []FieldDescriptor    `json:"fields"`
	Relations []RelationDescriptor `json:"relations,omitempty"`
}

// Field returns the descriptor for a canonical field name, or nil.
func (d *RecordTypeDescriptor) Field(name string) *FieldDescriptor {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Relation returns the relation declared on the given FK field, or nil.
func (d *RecordTypeDescriptor) Relation(field string) *RelationDescriptor {
	for i := range d.Relations {
		if d.Relations[i].Field == field {
			return &d.Relations[i]
		}
	}
	return nil
}

// FieldPath is a resolved, typed reference to a field, bound at registry build
// time. For direct fields Relation is nil and Column names a column on the
// record type's own table. For one-hop paths Relation carries the join and
// Column names a column on the related table.
type FieldPath struct {
	Column   string
	Type     FieldType
	Relation *RelationDescriptor
}

// IsRelated reports whether the path traverses a relation.
func (p FieldPath) IsRelated() bool { return p.Relation != nil }

// Record is one domain row keyed by column name, as returned by read queries.
type Record map[string]any
