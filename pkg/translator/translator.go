// Package translator turns free-text analytical questions into structured
// query plans: an action, one or more target record types, typed filters, an
// optional sort and limit. It is deliberately rule-based; every family of
// rules is a named function so behavior stays inspectable.
package translator

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
	"github.com/gestinv-inc/gestinv-engine/pkg/schema"
)

// Translator parses a query into a plan. Returns apperrors.ErrNoTarget when
// no record type can be detected; the caller then falls back to semantic
// retrieval.
type Translator interface {
	Translate(query string) (*models.QueryPlan, error)
}

type translator struct {
	registry *schema.Registry
	logger   *zap.Logger
}

// New creates a Translator over the built registry.
func New(registry *schema.Registry, logger *zap.Logger) Translator {
	return &translator{
		registry: registry,
		logger:   logger.Named("translator"),
	}
}

var _ Translator = (*translator)(nil)

func (t *translator) Translate(query string) (*models.QueryPlan, error) {
	targets := t.registry.Resolve(query)
	if len(targets) == 0 {
		return nil, apperrors.ErrNoTarget
	}

	plan := &models.QueryPlan{
		Raw:     query,
		Targets: targets,
	}

	// Parsing runs on a lowercased, whitespace-collapsed copy that keeps
	// accents, so extracted filter values stay usable against the database.
	text := lightNormalize(query)
	plan.Action = detectAction(text)

	d, ok := t.registry.Descriptor(plan.Primary())
	if !ok {
		return nil, apperrors.ErrNoTarget
	}

	plan.Limit, text = extractLimit(text)
	plan.Sort, text = t.extractSort(text, d)
	plan.Filters = t.extractFilters(text, d)

	if plan.Action.IsAggregate() {
		t.resolveAggregation(plan, text, d)
	}
	if plan.Sort == nil {
		t.applySuperlatives(plan, text, d)
	}

	t.logger.Debug("Query translated",
		zap.String("action", string(plan.Action)),
		zap.Strings("targets", plan.Targets),
		zap.Int("filters", len(plan.Filters)))
	return plan, nil
}

// lightNormalize lowercases and collapses whitespace without touching accents.
func lightNormalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// --- action detection ---

var (
	schemaActionPattern = regexp.MustCompile(`\b(?:quels? champs|quelles? informations|structure|sch[ée]ma|schema|fields)\b`)
	countActionPattern  = regexp.MustCompile(`\b(?:combien|nombre des?|how many|count)\b`)
	avgActionPattern    = regexp.MustCompile(`\b(?:moyenne?|average|avg)\b`)
	minActionPattern    = regexp.MustCompile(`\b(?:minimum|min|lowest|le moins [ée]lev[ée]e?)\b`)
	maxActionPattern    = regexp.MustCompile(`\b(?:maximum|max|highest)\b`)
	sumActionPattern    = regexp.MustCompile(`\b(?:somme|sum)\b|\b(?:montant )?total des\b`)
)

// detectAction picks the plan action from intent keywords, most specific
// first. Anything unrecognized lists records.
func detectAction(text string) models.Action {
	switch {
	case schemaActionPattern.MatchString(text):
		return models.ActionSchema
	case countActionPattern.MatchString(text):
		return models.ActionCount
	case avgActionPattern.MatchString(text):
		return models.ActionAvg
	case minActionPattern.MatchString(text):
		return models.ActionMin
	case maxActionPattern.MatchString(text):
		return models.ActionMax
	case sumActionPattern.MatchString(text):
		return models.ActionSum
	default:
		return models.ActionList
	}
}

// --- limit extraction ---

var limitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btop\s+(\d+)\b`),
	regexp.MustCompile(`\b(?:les\s+)?(\d+)\s+(?:premi[èe]re?s?|derni[èe]re?s?)\b`),
	regexp.MustCompile(`\bfirst\s+(\d+)\b`),
	regexp.MustCompile(`\blimite?\s+(?:[àa]\s+)?(\d+)\b`),
}

// extractLimit finds an explicit row limit and strips it from the text so it
// cannot be mistaken for a filter value.
func extractLimit(text string) (int, string) {
	for _, re := range limitPatterns {
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		n, err := strconv.Atoi(groups[1])
		if err != nil || n <= 0 {
			continue
		}
		return n, strings.TrimSpace(re.ReplaceAllString(text, " "))
	}
	return 0, text
}

// --- sort extraction ---

var sortPattern = regexp.MustCompile(`\b(?:tri[ée]?e?s?\s+par|class[ée]?e?s?\s+par|sorted\s+by|order(?:ed)?\s+by)\s+(.+?)(?:\s+(d[ée]croissante?|croissante?|desc(?:ending)?|asc(?:ending)?))?\s*[?.!]?$`)

var descendingDirections = map[string]bool{
	"decroissant": true, "décroissant": true, "decroissante": true, "décroissante": true,
	"desc": true, "descending": true,
}

func (t *translator) extractSort(text string, d *models.RecordTypeDescriptor) (*models.Sort, string) {
	groups := sortPattern.FindStringSubmatch(text)
	if groups == nil {
		return nil, text
	}

	path, name, ok := t.resolveFieldPhrase(d, groups[1])
	if !ok {
		return nil, text
	}

	direction := models.SortAsc
	if descendingDirections[groups[2]] {
		direction = models.SortDesc
	}
	rest := strings.TrimSpace(sortPattern.ReplaceAllString(text, " "))
	return &models.Sort{Path: path, Field: name, Direction: direction}, rest
}

// --- filter extraction ---

// filterMarkerPattern locates the condition part of the query; everything
// after the first marker word is treated as conditions.
var filterMarkerPattern = regexp.MustCompile(`\b(?:avec|dont|o[ùu]|where|with)\b`)

// conditionSplitPattern separates multiple conditions joined by "et"/"and"
// or commas.
var conditionSplitPattern = regexp.MustCompile(`\s+(?:et|and)\s+|\s*,\s*`)

func (t *translator) extractFilters(text string, d *models.RecordTypeDescriptor) []models.Filter {
	loc := filterMarkerPattern.FindStringIndex(text)
	if loc == nil {
		return nil
	}

	var filters []models.Filter
	for _, cond := range conditionSplitPattern.Split(text[loc[1]:], -1) {
		cond = strings.TrimSpace(cond)
		if cond == "" {
			continue
		}
		f, ok := t.parseCondition(d, cond)
		if !ok {
			t.logger.Debug("Condition not understood", zap.String("condition", cond))
			continue
		}
		filters = append(filters, f)
	}
	return filters
}

type operatorPattern struct {
	op models.Operator
	re *regexp.Regexp
}

// operatorPatterns is tried in order; compound phrasings come before the
// comparisons they contain, and the bare copula comes last.
var operatorPatterns = []operatorPattern{
	{models.OpStartsWith, regexp.MustCompile(`^(.+?)\s+(?:commen[cç](?:e|ent|ant)\s+par|starts?\s+with|starting\s+with)\s+(.+)$`)},
	{models.OpEndsWith, regexp.MustCompile(`^(.+?)\s+(?:se\s+termin(?:e|ent)\s+par|fini(?:t|ssent)\s+par|ends?\s+with|ending\s+with)\s+(.+)$`)},
	{models.OpContains, regexp.MustCompile(`^(.+?)\s+(?:contien(?:t|nent)|contenant|contains?|containing|inclu(?:t|ant))\s+(.+)$`)},
	{models.OpGTE, regexp.MustCompile(`^(.+?)(?:\s*>=\s*|\s+(?:sup[ée]rieure?s?\s+ou\s+[ée]gale?s?\s+[àa]|au\s+moins|at\s+least)\s+)(.+)$`)},
	{models.OpLTE, regexp.MustCompile(`^(.+?)(?:\s*<=\s*|\s+(?:inf[ée]rieure?s?\s+ou\s+[ée]gale?s?\s+[àa]|au\s+plus|at\s+most)\s+)(.+)$`)},
	{models.OpGT, regexp.MustCompile(`^(.+?)(?:\s*>\s*|\s+(?:sup[ée]rieure?s?\s+[àa]|plus\s+grande?s?\s+que|plus\s+de|apr[èe]s|greater\s+than|more\s+than|over|after)\s+)(.+)$`)},
	{models.OpLT, regexp.MustCompile(`^(.+?)(?:\s*<\s*|\s+(?:inf[ée]rieure?s?\s+[àa]|plus\s+petite?s?\s+que|moins\s+de|avant|less\s+than|under|below|before)\s+)(.+)$`)},
	{models.OpEquals, regexp.MustCompile(`^(.+?)(?:\s*=\s*|\s+(?:[ée]gale?s?\s+[àa]|est|sont|vaut|is|equals?)\s+)(.+)$`)},
}

// parseCondition splits one condition into field phrase, operator and value.
// When a pattern splits the text but the left side resolves to no known
// field, the next pattern gets a chance.
func (t *translator) parseCondition(d *models.RecordTypeDescriptor, cond string) (models.Filter, bool) {
	for _, p := range operatorPatterns {
		groups := p.re.FindStringSubmatch(cond)
		if groups == nil {
			continue
		}

		path, name, ok := t.resolveFieldPhrase(d, groups[1])
		if !ok {
			continue
		}
		value := cleanValue(groups[2])
		if value == "" {
			continue
		}

		return models.Filter{
			Path:  path,
			Field: name,
			Op:    p.op,
			Value: coerceValue(value, path.Type),
		}, true
	}
	return models.Filter{}, false
}

// resolveFieldPhrase binds a noun phrase to a field, dropping leading words
// ("dont le statut" -> "le statut" -> "statut") until the alias table answers.
func (t *translator) resolveFieldPhrase(d *models.RecordTypeDescriptor, phrase string) (models.FieldPath, string, bool) {
	words := strings.Fields(strings.Trim(phrase, " ?.!,"))
	for len(words) > 0 {
		candidate := strings.Join(words, " ")
		candidate = strings.TrimPrefix(candidate, "l'")
		candidate = strings.TrimPrefix(candidate, "d'")
		if path, name, ok := t.registry.ResolveField(d.Key, candidate); ok {
			return path, name, true
		}
		// "montants" -> "montant"
		if path, name, ok := t.registry.ResolveField(d.Key, strings.TrimSuffix(candidate, "s")); ok {
			return path, name, true
		}
		words = words[1:]
	}
	return models.FieldPath{}, "", false
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'`)
	v = strings.TrimRight(v, " ?.!")
	// Leading articles in values ("est la salle 3") add nothing
	for _, article := range []string{"le ", "la ", "les ", "un ", "une ", "the "} {
		if strings.HasPrefix(v, article) {
			v = v[len(article):]
			break
		}
	}
	return strings.TrimSpace(v)
}

// coerceValue types a raw value: integer first, then float (French digit
// grouping and decimal commas accepted), everything else stays text.
func coerceValue(v string, fieldType models.FieldType) any {
	if fieldType == models.FieldNumber {
		numeric := strings.ReplaceAll(v, " ", "")
		numeric = strings.TrimSuffix(numeric, "dh")
		numeric = strings.TrimSuffix(numeric, "mad")
		numeric = strings.TrimSuffix(numeric, "€")
		if n, err := strconv.ParseInt(numeric, 10, 64); err == nil {
			return n
		}
		numeric = strings.ReplaceAll(numeric, ",", ".")
		if f, err := strconv.ParseFloat(numeric, 64); err == nil {
			return f
		}
	}
	return v
}

// --- aggregation field resolution ---

var aggFieldPattern = regexp.MustCompile(`\b(?:somme|total|moyenne?|maximum|minimum|sum|average|max|min)\s+(?:des?\s+|du\s+|de\s+la\s+|d'|of\s+|from\s+)(.+?)(?:\s+(?:des?|du|pour|par|avec|dont|o[ùu]|where|with)\b.*)?$`)

// resolveAggregation binds the field a sum/avg/min/max applies to: the phrase
// after the aggregate keyword when present, otherwise the first filter's
// field when that field is numeric. Anything else leaves AggPath nil for the
// executor to reject.
func (t *translator) resolveAggregation(plan *models.QueryPlan, text string, d *models.RecordTypeDescriptor) {
	if groups := aggFieldPattern.FindStringSubmatch(text); groups != nil {
		if path, name, ok := t.resolveFieldPhrase(d, groups[1]); ok && path.Type == models.FieldNumber {
			plan.AggField = name
			plan.AggPath = &path
			return
		}
	}

	if len(plan.Filters) > 0 && plan.Filters[0].Path.Type == models.FieldNumber {
		f := plan.Filters[0]
		path := f.Path
		plan.AggField = f.Field
		plan.AggPath = &path
	}
}

// --- superlatives ---

type superlative struct {
	re   *regexp.Regexp
	kind models.FieldType
	dir  models.SortDirection
}

var superlatives = []superlative{
	{regexp.MustCompile(`\bplus\s+ch[èe]re?s?\b`), models.FieldNumber, models.SortDesc},
	{regexp.MustCompile(`\bplus\s+[ée]lev[ée]e?s?\b`), models.FieldNumber, models.SortDesc},
	{regexp.MustCompile(`\bmoins\s+ch[èe]re?s?\b`), models.FieldNumber, models.SortAsc},
	{regexp.MustCompile(`\bplus\s+r[ée]cente?s?\b`), models.FieldDate, models.SortDesc},
	{regexp.MustCompile(`\bplus\s+ancien(?:ne)?s?\b`), models.FieldDate, models.SortAsc},
}

var singleAnswerPattern = regexp.MustCompile(`^quel(?:le)?\s+est\b`)

// applySuperlatives turns "le plus cher" style phrasing into a sort on the
// type's first numeric or date field; "quel est ..." also caps the answer to
// one record.
func (t *translator) applySuperlatives(plan *models.QueryPlan, text string, d *models.RecordTypeDescriptor) {
	for _, s := range superlatives {
		if !s.re.MatchString(text) {
			continue
		}
		f := firstFieldOfType(d, s.kind)
		if f == nil {
			return
		}
		plan.Sort = &models.Sort{
			Path:      models.FieldPath{Column: f.Name, Type: f.Type},
			Field:     f.Name,
			Direction: s.dir,
		}
		if plan.Limit == 0 && singleAnswerPattern.MatchString(text) {
			plan.Limit = 1
		}
		return
	}
}

func firstFieldOfType(d *models.RecordTypeDescriptor, kind models.FieldType) *models.FieldDescriptor {
	for i := range d.Fields {
		if d.Fields[i].Type == kind {
			return &d.Fields[i]
		}
	}
	return nil
}
