// Package validator cross-checks candidate answers against the canonical
// store before they reach the user: every identifier a response mentions must
// exist, claimed counts must match real counts, and fabricated-looking text
// is replaced rather than returned verbatim.
package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/repositories"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

// Messages substituted for content that fails validation. Sanitize is
// idempotent: neither message matches a fabrication fingerprint.
const (
	UnavailableMarker = "donnée non disponible"
	NoDataMessage     = "Aucune donnée trouvée pour cette demande."
)

// Validator checks answers after resolution.
type Validator interface {
	// ValidateCoherence walks every entity reference in a response and
	// confirms each exists in the store. The first missing reference aborts
	// with a reason; ok=true means every reference checked out.
	ValidateCoherence(ctx context.Context, response string) (ok bool, reason string, err error)

	// ValidateStatistics compares claimed per-type counts against the real
	// counts. Discrepancies are returned and logged, never auto-corrected.
	ValidateStatistics(ctx context.Context, claimed map[string]int64) ([]string, error)

	// Sanitize replaces fabrication fingerprints with an explicit
	// unavailable marker and empty responses with a no-data message.
	Sanitize(response string) string
}

type validator struct {
	reader   repositories.DomainReader
	registry *schema.Registry
	logger   *zap.Logger
}

// New creates a Validator over the domain reader and the built registry.
func New(reader repositories.DomainReader, registry *schema.Registry, logger *zap.Logger) Validator {
	return &validator{
		reader:   reader,
		registry: registry,
		logger:   logger.Named("validator"),
	}
}

var _ Validator = (*validator)(nil)

// referenceRule is one entity-reference family: how its identifiers look in
// text and where to check them. Rules run in declaration order.
type referenceRule struct {
	name    string
	pattern *regexp.Regexp
	typeKey string
	columns map[string]string // uppercased prefix -> column; "" key is the default
}

var referenceRules = []referenceRule{
	{
		name:    "supplier_ice",
		pattern: regexp.MustCompile(`\b\d{15}\b`),
		typeKey: "achats.fournisseur",
		columns: map[string]string{"": "ice"},
	},
	{
		name:    "document_number",
		pattern: regexp.MustCompile(`\b(BC|CMD|FACT|BL|DA)-\d[\d/-]*\b`),
		typeKey: "", // per-prefix, see documentTypes
		columns: map[string]string{
			"BC": "numero", "CMD": "numero", "FACT": "numero",
			"BL": "numero_bl",
			"DA": "numero",
		},
	},
	{
		name:    "equipment_code",
		pattern: regexp.MustCompile(`\b(?:INV|MAT|PC|IMP)-\d[\d-]*\b`),
		typeKey: "parc.materiel",
		columns: map[string]string{"": "code_inventaire"},
	},
}

// documentTypes routes a document prefix to the record type owning it.
var documentTypes = map[string]string{
	"BC":   "achats.commande",
	"CMD":  "achats.commande",
	"FACT": "achats.commande",
	"BL":   "achats.livraison",
	"DA":   "demandes.demande",
}

func (v *validator) ValidateCoherence(ctx context.Context, response string) (bool, string, error) {
	for _, rule := range referenceRules {
		for _, match := range rule.pattern.FindAllStringSubmatch(response, -1) {
			value := match[0]
			typeKey := rule.typeKey
			column := rule.columns[""]
			if len(match) > 1 {
				prefix := strings.ToUpper(match[1])
				typeKey = documentTypes[prefix]
				column = rule.columns[prefix]
			}

			d, ok := v.registry.Descriptor(typeKey)
			if !ok {
				continue
			}
			exists, err := v.reader.Exists(ctx, d, column, value)
			if err != nil {
				return false, "", fmt.Errorf("coherence check %s: %w", rule.name, err)
			}
			if !exists {
				reason := fmt.Sprintf("%s inexistant : %s", d.Singular, value)
				v.logger.Warn("Response references unknown entity",
					zap.String("rule", rule.name),
					zap.String("value", value))
				return false, reason, nil
			}
		}
	}
	return true, "", nil
}

func (v *validator) ValidateStatistics(ctx context.Context, claimed map[string]int64) ([]string, error) {
	var discrepancies []string
	for _, key := range v.registry.Keys() {
		want, ok := claimed[key]
		if !ok {
			continue
		}
		d, found := v.registry.Descriptor(key)
		if !found {
			continue
		}
		got, err := v.reader.Count(ctx, d, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to recount %s: %w", key, err)
		}
		if got != want {
			msg := fmt.Sprintf("%s : annoncé %d, réel %d", key, want, got)
			discrepancies = append(discrepancies, msg)
			v.logger.Warn("Claimed count does not match store",
				zap.String("record_type", key),
				zap.Int64("claimed", want),
				zap.Int64("actual", got))
		}
	}
	return discrepancies, nil
}

// Fabrication fingerprints: explicit unverified placeholders and
// second-precision timestamps, which no stored value ever renders as.
var fingerprintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[?\b(?:non v[ée]rifi[ée]e?|[àa] v[ée]rifier|[àa] compl[ée]ter|unverified|placeholder)\b\]?`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:?\d{2})?\b`),
	regexp.MustCompile(`(?i)\blorem ipsum\b`),
}

var collapseSpaces = regexp.MustCompile(`[^\S\n]{2,}`)

func (v *validator) Sanitize(response string) string {
	out := response
	for _, p := range fingerprintPatterns {
		out = p.ReplaceAllString(out, UnavailableMarker)
	}
	out = strings.TrimSpace(collapseSpaces.ReplaceAllString(out, " "))

	if isEmptyAnswer(out) {
		return NoDataMessage
	}
	return out
}

// isEmptyAnswer reports whether a response carries no usable content once
// punctuation is ignored.
func isEmptyAnswer(s string) bool {
	content := strings.TrimFunc(s, func(r rune) bool {
		return !('0' <= r && r <= '9') && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && r < 0x80
	})
	return len([]rune(content)) < 2
}

// FormatRejection turns a coherence failure into the message shown to the
// user instead of the incoherent answer.
func FormatRejection(reason string) string {
	if reason == "" {
		return UnavailableMarker
	}
	return fmt.Sprintf("%s (%s)", UnavailableMarker, reason)
}
