// Package schema owns the record-type catalog and the alias tables used to
// map free-text phrases onto canonical record types and fields.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// DefaultFuzzyThreshold is the 0-100 similarity floor below which a fuzzy
// alias candidate is discarded.
const DefaultFuzzyThreshold = 88

// maxFuzzyMatches caps how many record types a fuzzy fallback may return.
const maxFuzzyMatches = 3

type aliasEntry struct {
	norm string // normalized alias phrase
	key  string // record-type key
	pos  int    // catalog registration order, the tie-break for equal lengths
}

type fieldBinding struct {
	path models.FieldPath
	name string // canonical field name
}

// Registry holds the immutable record-type descriptors and the derived alias
// tables. Build it once at startup; afterwards it is safe for concurrent reads.
type Registry struct {
	logger         *zap.Logger
	fuzzyThreshold int

	types   map[string]*models.RecordTypeDescriptor
	order   []string
	aliases []aliasEntry                       // sorted longest-first
	fields  map[string]map[string]fieldBinding // type key -> normalized phrase -> binding
}

// NewRegistry creates a registry over the given catalog. Call Build before use.
func NewRegistry(catalog []*models.RecordTypeDescriptor, fuzzyThreshold int, logger *zap.Logger) *Registry {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	r := &Registry{
		logger:         logger.Named("schema"),
		fuzzyThreshold: fuzzyThreshold,
		types:          make(map[string]*models.RecordTypeDescriptor),
		fields:         make(map[string]map[string]fieldBinding),
	}
	for _, d := range catalog {
		if _, dup := r.types[d.Key]; dup {
			continue
		}
		r.types[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r
}

// Build derives the alias and field-alias tables from the catalog. It is
// idempotent: rebuilding over the same catalog produces identical tables.
func (r *Registry) Build() error {
	seen := make(map[string]aliasEntry)
	r.aliases = r.aliases[:0]

	add := func(phrase, key string, pos int) {
		norm := Normalize(phrase)
		if norm == "" {
			return
		}
		if _, dup := seen[norm]; dup {
			return // first registration wins
		}
		e := aliasEntry{norm: norm, key: key, pos: pos}
		seen[norm] = e
		r.aliases = append(r.aliases, e)
	}

	for pos, key := range r.order {
		d := r.types[key]
		words := camelSplit(d.Name)

		var base []string
		base = append(base, strings.Join(words, " "))
		base = append(base, prepositionalVariants(words)...)
		base = append(base, d.Singular, d.Plural)
		base = append(base, d.App+" "+strings.Join(words, " "))
		base = append(base, typeSynonyms[key]...)

		for _, phrase := range base {
			add(phrase, key, pos)
			add(pluralizePhrase(Normalize(phrase)), key, pos)
			// English single words get their irregular plural as well
			if norm := Normalize(phrase); !strings.Contains(norm, " ") {
				add(inflection.Plural(norm), key, pos)
			}
		}

		if err := r.buildFieldAliases(d); err != nil {
			return err
		}
	}

	// Longest alias first so multi-word aliases win over their substrings;
	// equal lengths fall back to catalog registration order, then the alias
	// text itself so the ordering is fully deterministic.
	sort.SliceStable(r.aliases, func(i, j int) bool {
		a, b := r.aliases[i], r.aliases[j]
		if len(a.norm) != len(b.norm) {
			return len(a.norm) > len(b.norm)
		}
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		return a.norm < b.norm
	})

	r.logger.Info("Alias registry built",
		zap.Int("record_types", len(r.order)),
		zap.Int("aliases", len(r.aliases)))
	return nil
}

// buildFieldAliases derives the per-type field alias table, including one-hop
// relation traversals ("fournisseur nom" on a commande).
func (r *Registry) buildFieldAliases(d *models.RecordTypeDescriptor) error {
	table := make(map[string]fieldBinding)

	bind := func(phrase string, b fieldBinding) {
		norm := Normalize(phrase)
		if norm == "" {
			return
		}
		if _, dup := table[norm]; dup {
			return
		}
		table[norm] = b
	}

	for _, f := range d.Fields {
		b := fieldBinding{
			name: f.Name,
			path: models.FieldPath{Column: f.Name, Type: f.Type},
		}
		bind(strings.ReplaceAll(f.Name, "_", " "), b)
		bind(f.Label, b)
	}

	for fieldName, aliases := range fieldSynonyms[d.Key] {
		f := d.Field(fieldName)
		if f == nil {
			return fmt.Errorf("field synonym for %s references unknown field %q", d.Key, fieldName)
		}
		b := fieldBinding{
			name: f.Name,
			path: models.FieldPath{Column: f.Name, Type: f.Type},
		}
		for _, a := range aliases {
			bind(a, b)
		}
	}

	for i := range d.Relations {
		rel := &d.Relations[i]
		target, ok := r.types[rel.Target]
		if !ok {
			return fmt.Errorf("relation %s.%s targets unknown record type %q", d.Key, rel.Field, rel.Target)
		}
		if target.Field(rel.DisplayCol) == nil {
			return fmt.Errorf("relation %s.%s display column %q does not exist on %s", d.Key, rel.Field, rel.DisplayCol, rel.Target)
		}
		rel.TargetTable = target.Table
		rel.TargetIDColumn = target.IDColumn

		// The bare relation label resolves to the target's display column.
		bind(rel.Label, fieldBinding{
			name: rel.Field,
			path: models.FieldPath{Column: rel.DisplayCol, Type: models.FieldText, Relation: rel},
		})

		// "relation field" pairs traverse one hop: "fournisseur ville".
		for _, tf := range target.Fields {
			b := fieldBinding{
				name: rel.Field + "." + tf.Name,
				path: models.FieldPath{Column: tf.Name, Type: tf.Type, Relation: rel},
			}
			bind(rel.Label+" "+strings.ReplaceAll(tf.Name, "_", " "), b)
			bind(rel.Label+" "+tf.Label, b)
		}
	}

	r.fields[d.Key] = table
	return nil
}

// Resolve maps free text onto record-type keys. Known aliases are scanned
// longest-first and every alias contained in the normalized query contributes
// its key, deduplicated, in order of first (longest) match. When nothing
// matches exactly, a fuzzy pass returns up to three keys above the similarity
// threshold. The result is deterministic for an unchanged registry and is
// empty, never an error, on total failure.
func (r *Registry) Resolve(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}

	var out []string
	matched := make(map[string]bool)
	for _, a := range r.aliases {
		if !strings.Contains(norm, a.norm) {
			continue
		}
		if !matched[a.key] {
			matched[a.key] = true
			out = append(out, a.key)
		}
	}
	if len(out) > 0 {
		return out
	}

	return r.resolveFuzzy(norm)
}

type fuzzyCandidate struct {
	entry aliasEntry
	score int
}

func (r *Registry) resolveFuzzy(norm string) []string {
	var candidates []fuzzyCandidate
	for _, a := range r.aliases {
		s := partialRatio(norm, a.norm)
		if s >= r.fuzzyThreshold {
			candidates = append(candidates, fuzzyCandidate{entry: a, score: s})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if len(a.entry.norm) != len(b.entry.norm) {
			return len(a.entry.norm) > len(b.entry.norm)
		}
		return a.entry.pos < b.entry.pos
	})

	var out []string
	matched := make(map[string]bool)
	for _, c := range candidates {
		if matched[c.entry.key] {
			continue
		}
		matched[c.entry.key] = true
		out = append(out, c.entry.key)
		if len(out) == maxFuzzyMatches {
			break
		}
	}
	return out
}

// ResolveField maps a field phrase onto a typed field path for the given
// record type. The returned name is the canonical field identifier
// ("montant_total", or "fournisseur_id.nom" for one-hop paths).
func (r *Registry) ResolveField(typeKey, phrase string) (models.FieldPath, string, bool) {
	table, ok := r.fields[typeKey]
	if !ok {
		return models.FieldPath{}, "", false
	}
	b, ok := table[Normalize(phrase)]
	if !ok {
		return models.FieldPath{}, "", false
	}
	return b.path, b.name, true
}

// Descriptor returns the record-type descriptor for a key.
func (r *Registry) Descriptor(key string) (*models.RecordTypeDescriptor, bool) {
	d, ok := r.types[key]
	return d, ok
}

// Keys returns every record-type key in catalog registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// AliasCount reports the number of derived type aliases, for diagnostics.
func (r *Registry) AliasCount() int { return len(r.aliases) }
