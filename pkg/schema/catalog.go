package schema

import "github.com/gestinv-inc/gestinv-engine/pkg/models"

// DefaultCatalog returns the static description of every domain record type
// the engine can answer questions about. The CRUD application owns the
// underlying tables; the engine only reads them. Registration order matters:
// it is the documented tie-break for equal-length alias matches, and the
// rebuild order of the semantic index.
func DefaultCatalog() []*models.RecordTypeDescriptor {
	return []*models.RecordTypeDescriptor{
		{
			Key:      "parc.materiel",
			App:      "parc",
			Name:     "Materiel",
			Table:    "parc_materiel",
			IDColumn: "id",
			Singular: "matériel",
			Plural:   "matériels",
			Fields: []models.FieldDescriptor{
				{Name: "code_inventaire", Type: models.FieldText, Label: "code inventaire"},
				{Name: "numero_serie", Type: models.FieldText, Label: "numéro de série"},
				{Name: "designation", Type: models.FieldText, Label: "désignation"},
				{Name: "localisation", Type: models.FieldText, Label: "localisation"},
				{Name: "etat", Type: models.FieldText, Label: "état"},
				{Name: "date_acquisition", Type: models.FieldDate, Label: "date d'acquisition"},
				{Name: "fin_garantie", Type: models.FieldDate, Label: "fin de garantie"},
				{Name: "prix_achat", Type: models.FieldNumber, Label: "prix d'achat"},
				{Name: "affecte_a", Type: models.FieldText, Label: "affecté à"},
			},
			Relations: []models.RelationDescriptor{
				{Field: "fournisseur_id", Target: "achats.fournisseur", Label: "fournisseur", DisplayCol: "nom"},
			},
		},
		{
			Key:      "achats.fournisseur",
			App:      "achats",
			Name:     "Fournisseur",
			Table:    "achats_fournisseur",
			IDColumn: "id",
			Singular: "fournisseur",
			Plural:   "fournisseurs",
			Fields: []models.FieldDescriptor{
				{Name: "nom", Type: models.FieldText, Label: "nom"},
				{Name: "ice", Type: models.FieldText, Label: "ice"},
				{Name: "adresse", Type: models.FieldText, Label: "adresse"},
				{Name: "ville", Type: models.FieldText, Label: "ville"},
				{Name: "telephone", Type: models.FieldText, Label: "téléphone"},
				{Name: "email", Type: models.FieldText, Label: "email"},
			},
		},
		{
			Key:      "achats.commande",
			App:      "achats",
			Name:     "BonCommande",
			Table:    "achats_commande",
			IDColumn: "id",
			Singular: "bon de commande",
			Plural:   "bons de commande",
			Fields: []models.FieldDescriptor{
				{Name: "numero", Type: models.FieldText, Label: "numéro"},
				{Name: "date_commande", Type: models.FieldDate, Label: "date de commande"},
				{Name: "montant_total", Type: models.FieldNumber, Label: "montant total"},
				{Name: "statut", Type: models.FieldText, Label: "statut"},
			},
			Relations: []models.RelationDescriptor{
				{Field: "fournisseur_id", Target: "achats.fournisseur", Label: "fournisseur", DisplayCol: "nom"},
			},
		},
		{
			Key:      "achats.livraison",
			App:      "achats",
			Name:     "BonLivraison",
			Table:    "achats_livraison",
			IDColumn: "id",
			Singular: "bon de livraison",
			Plural:   "bons de livraison",
			Fields: []models.FieldDescriptor{
				{Name: "numero_bl", Type: models.FieldText, Label: "numéro de bl"},
				{Name: "date_livraison", Type: models.FieldDate, Label: "date de livraison"},
				{Name: "statut", Type: models.FieldText, Label: "statut"},
			},
			Relations: []models.RelationDescriptor{
				{Field: "commande_id", Target: "achats.commande", Label: "commande", DisplayCol: "numero"},
				{Field: "fournisseur_id", Target: "achats.fournisseur", Label: "fournisseur", DisplayCol: "nom"},
			},
		},
		{
			Key:      "demandes.demande",
			App:      "demandes",
			Name:     "DemandeAchat",
			Table:    "demandes_demande",
			IDColumn: "id",
			Singular: "demande d'achat",
			Plural:   "demandes d'achat",
			Fields: []models.FieldDescriptor{
				{Name: "numero", Type: models.FieldText, Label: "numéro"},
				{Name: "objet", Type: models.FieldText, Label: "objet"},
				{Name: "statut", Type: models.FieldText, Label: "statut"},
				{Name: "date_demande", Type: models.FieldDate, Label: "date de demande"},
				{Name: "demandeur", Type: models.FieldText, Label: "demandeur"},
			},
		},
	}
}

// typeSynonyms is the manually curated synonym list merged into the alias
// table at build time. Keys must exist in the catalog.
var typeSynonyms = map[string][]string{
	"parc.materiel": {
		"équipement", "machine", "ordinateur", "pc", "matériel informatique",
		"equipment", "material", "asset",
	},
	"achats.fournisseur": {
		"société", "prestataire", "vendeur", "supplier", "vendor",
	},
	"achats.commande": {
		"commande", "bc", "bon d'achat", "order", "purchase order",
	},
	"achats.livraison": {
		"livraison", "bl", "delivery", "delivery note",
	},
	"demandes.demande": {
		"demande", "requête", "request",
	},
}

// fieldSynonyms is the curated per-type field alias list. Every referenced
// field must exist on its record type; Build fails otherwise.
var fieldSynonyms = map[string]map[string][]string{
	"parc.materiel": {
		"code_inventaire": {"code", "inventory code"},
		"numero_serie":    {"série", "serial", "serial number"},
		"designation":     {"libellé", "name", "description"},
		"localisation":    {"emplacement", "salle", "location"},
		"etat":            {"statut", "status", "state"},
		"prix_achat":      {"prix", "price", "montant"},
		"fin_garantie":    {"garantie", "warranty"},
		"affecte_a":       {"utilisateur", "user", "assigned to"},
	},
	"achats.fournisseur": {
		"nom":       {"name", "raison sociale"},
		"ville":     {"city"},
		"telephone": {"tél", "phone"},
	},
	"achats.commande": {
		"numero":        {"numéro de commande", "number"},
		"montant_total": {"montant", "total", "amount"},
		"date_commande": {"date"},
		"statut":        {"status", "état"},
	},
	"achats.livraison": {
		"numero_bl":      {"numéro", "number"},
		"date_livraison": {"date"},
		"statut":         {"status", "état"},
	},
	"demandes.demande": {
		"numero":    {"numéro de demande", "number"},
		"objet":     {"sujet", "subject"},
		"statut":    {"status", "état"},
		"demandeur": {"requester", "demandé par"},
	},
}
