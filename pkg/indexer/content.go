package indexer

import (
	"fmt"
	"strings"

	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

// minContentLength is the floor under which a synthesized document is too
// thin to be worth embedding; such records are skipped.
const minContentLength = 30

// contentSpec declares what goes into the index for one record type: its
// rebuild priority (lower first) and the ordered allow-list of fields. Fields
// not listed here never reach the index.
type contentSpec struct {
	priority int
	fields   []string
}

var contentSpecs = map[string]contentSpec{
	"achats.fournisseur": {1, []string{"nom", "ice", "ville", "adresse", "telephone", "email"}},
	"parc.materiel":      {2, []string{"designation", "code_inventaire", "numero_serie", "localisation", "etat", "affecte_a", "date_acquisition", "fin_garantie", "prix_achat"}},
	"achats.commande":    {3, []string{"numero", "statut", "date_commande", "montant_total"}},
	"achats.livraison":   {4, []string{"numero_bl", "statut", "date_livraison"}},
	"demandes.demande":   {5, []string{"numero", "objet", "statut", "demandeur", "date_demande"}},
}

// SynthesizeContent renders one record as the flat text document that gets
// embedded: the type label, then "label: value" segments for every allow-listed
// non-empty field, then related display values. Returns "" when the result is
// too short to index.
func SynthesizeContent(d *models.RecordTypeDescriptor, record models.Record) string {
	spec, ok := contentSpecs[d.Key]
	if !ok {
		return ""
	}

	parts := []string{fmt.Sprintf("Type: %s", d.Singular)}
	for _, name := range spec.fields {
		f := d.Field(name)
		if f == nil {
			continue
		}
		v := models.FormatValue(record[name])
		if v == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Label, v))
	}
	for i := range d.Relations {
		rel := &d.Relations[i]
		key := strings.TrimSuffix(rel.Field, "_id")
		if v := models.FormatValue(record[key]); v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", rel.Label, v))
		}
	}

	content := strings.Join(parts, " | ")
	if len(content) < minContentLength {
		return ""
	}
	return content
}

// typePriority returns the rebuild priority for a record type; unknown types
// sort last.
func typePriority(key string) int {
	if spec, ok := contentSpecs[key]; ok {
		return spec.priority
	}
	return len(contentSpecs) + 1
}
