// Package resolver answers queries that carry a structured identifier (an
// ICE, a document number, an equipment code or an explicit supplier name)
// with a direct lookup, bypassing translation entirely.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

// Match is a successful exact-match resolution.
type Match struct {
	Method   string // models.Method* constant identifying the rule family
	TypeKey  string
	Record   models.Record
	Response string
}

// Resolver runs the exact-match rule families over a query. A nil match
// means no identifier was found, none resolved to a record, or a lookup
// failed; the caller falls through to the next strategy. This resolver is
// advisory and never aborts the pipeline.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Match, error)
}

type resolver struct {
	reader   repositories.DomainReader
	registry *schema.Registry
	logger   *zap.Logger
}

// New creates a Resolver over the domain reader and the built registry.
func New(reader repositories.DomainReader, registry *schema.Registry, logger *zap.Logger) Resolver {
	return &resolver{
		reader:   reader,
		registry: registry,
		logger:   logger.Named("resolver"),
	}
}

var _ Resolver = (*resolver)(nil)

// Identifier pattern families, tried in order. The first rule whose pattern
// matches AND whose lookup finds a record wins; a pattern hit that resolves
// to nothing falls through to the next rule.
type rule struct {
	name string
	fn   func(ctx context.Context, query string) (*Match, error)
}

func (r *resolver) rules() []rule {
	return []rule{
		{"supplier_ice", r.matchSupplierICE},
		{"document_number", r.matchDocumentNumber},
		{"equipment_code", r.matchEquipmentCode},
		{"serial_number", r.matchSerialNumber},
		{"supplier_name", r.matchSupplierName},
	}
}

func (r *resolver) Resolve(ctx context.Context, query string) (*Match, error) {
	for _, rl := range r.rules() {
		m, err := rl.fn(ctx, query)
		if err != nil {
			// A failed lookup collapses to no-match; a later rule or
			// strategy may still answer the query.
			r.logger.Warn("Exact-match rule failed",
				zap.String("rule", rl.name),
				zap.Error(err))
			continue
		}
		if m != nil {
			r.logger.Debug("Exact match resolved",
				zap.String("rule", rl.name),
				zap.String("record_type", m.TypeKey))
			return m, nil
		}
	}
	return nil, nil
}

// icePattern matches a 15-digit Moroccan enterprise identifier, tolerating
// spaces or dots between digit groups.
var icePattern = regexp.MustCompile(`\b\d(?:[\s.]?\d){14}\b`)

func (r *resolver) matchSupplierICE(ctx context.Context, query string) (*Match, error) {
	raw := icePattern.FindString(query)
	if raw == "" {
		return nil, nil
	}

	d, ok := r.registry.Descriptor("achats.fournisseur")
	if !ok {
		return nil, nil
	}

	record, err := r.reader.GetByICE(ctx, d, "ice", raw)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.matched(models.MethodICEExact, d, record), nil
}

// documentPattern matches order, delivery, invoice and purchase-request
// numbers: a known prefix followed by digits with optional / or - separators.
var documentPattern = regexp.MustCompile(`(?i)\b(BC|CMD|FACT|BL|DA)[-/ ]?(\d[\d/-]*)\b`)

// documentTargets routes a document prefix to its record type and the
// columns holding the number. Invoice numbers reference their order.
var documentTargets = map[string]struct {
	typeKey string
	columns []string
}{
	"BC":   {"achats.commande", []string{"numero"}},
	"CMD":  {"achats.commande", []string{"numero"}},
	"FACT": {"achats.commande", []string{"numero"}},
	"BL":   {"achats.livraison", []string{"numero_bl"}},
	"DA":   {"demandes.demande", []string{"numero"}},
}

func (r *resolver) matchDocumentNumber(ctx context.Context, query string) (*Match, error) {
	groups := documentPattern.FindStringSubmatch(query)
	if groups == nil {
		return nil, nil
	}

	prefix := strings.ToUpper(groups[1])
	target := documentTargets[prefix]
	d, ok := r.registry.Descriptor(target.typeKey)
	if !ok {
		return nil, nil
	}

	method := models.MethodOrderExact
	// Users write "BC 2024/001" for a stored "BC-2024/001" and vice versa;
	// try the token as typed, then with the separator normalized.
	token := strings.ToUpper(strings.TrimSpace(groups[0]))
	candidates := []string{token, strings.ReplaceAll(token, " ", "-")}
	for _, candidate := range candidates {
		record, err := r.reader.GetByCode(ctx, d, target.columns, candidate)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return r.matched(method, d, record), nil
	}
	return nil, nil
}

// equipmentPattern matches inventory codes like INV-0042, MAT2023-17 or PC-118.
var equipmentPattern = regexp.MustCompile(`(?i)\b(?:INV|MAT|PC|IMP)-?\d[\d-]*\b`)

func (r *resolver) matchEquipmentCode(ctx context.Context, query string) (*Match, error) {
	code := equipmentPattern.FindString(query)
	if code == "" {
		return nil, nil
	}

	d, ok := r.registry.Descriptor("parc.materiel")
	if !ok {
		return nil, nil
	}

	record, err := r.reader.GetByCode(ctx, d, []string{"code_inventaire", "numero_serie"}, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.matched(models.MethodMaterialExact, d, record), nil
}

// serialPattern matches an explicitly announced serial number, in French or
// English, with at least five identifier characters.
var serialPattern = regexp.MustCompile(`(?i)(?:num[ée]ro de s[ée]rie|s[ée]rie|serial(?: number)?|\bsn\b)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]{4,})`)

func (r *resolver) matchSerialNumber(ctx context.Context, query string) (*Match, error) {
	groups := serialPattern.FindStringSubmatch(query)
	if groups == nil {
		return nil, nil
	}

	d, ok := r.registry.Descriptor("parc.materiel")
	if !ok {
		return nil, nil
	}

	record, err := r.reader.GetByCode(ctx, d, []string{"numero_serie"}, groups[1])
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.matched(models.MethodMaterialExact, d, record), nil
}

// supplierNamePattern matches an explicit supplier-name prefix followed by
// at least three characters of name.
var supplierNamePattern = regexp.MustCompile(`(?i)(?:fournisseur|soci[ée]t[ée]|supplier)\s*:\s*(\S.{2,})`)

func (r *resolver) matchSupplierName(ctx context.Context, query string) (*Match, error) {
	groups := supplierNamePattern.FindStringSubmatch(query)
	if groups == nil {
		return nil, nil
	}
	name := strings.TrimSpace(groups[1])
	if len(name) < 3 {
		return nil, nil
	}

	d, ok := r.registry.Descriptor("achats.fournisseur")
	if !ok {
		return nil, nil
	}

	record, err := r.reader.GetByName(ctx, d, "nom", name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.matched(models.MethodSupplierExact, d, record), nil
}

func (r *resolver) matched(method string, d *models.RecordTypeDescriptor, record models.Record) *Match {
	return &Match{
		Method:   method,
		TypeKey:  d.Key,
		Record:   record,
		Response: FormatRecord(d, record),
	}
}

const notProvided = "non renseigné"

// FormatRecord renders a single record as a readable French card, one line
// per declared field, with missing values spelled out rather than omitted.
func FormatRecord(d *models.RecordTypeDescriptor, record models.Record) string {
	var b strings.Builder
	b.WriteString(capitalizeFirst(d.Singular))
	b.WriteString(" :")

	for _, f := range d.Fields {
		writeCardLine(&b, f.Label, record[f.Name])
	}
	for i := range d.Relations {
		rel := &d.Relations[i]
		key := strings.TrimSuffix(rel.Field, "_id")
		writeCardLine(&b, rel.Label, record[key])
	}
	return b.String()
}

func writeCardLine(b *strings.Builder, label string, value any) {
	v := models.FormatValue(value)
	if v == "" {
		v = notProvided
	}
	fmt.Fprintf(b, "\n- %s : %s", capitalizeFirst(label), v)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
