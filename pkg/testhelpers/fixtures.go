package testhelpers

import (
	"context"
	"fmt"

	"github.com/gestinv-inc/gestinv-engine/pkg/database"
)

// domainSchema mirrors the tables the CRUD application owns. The engine only
// ever reads them, so plain fixtures are enough for integration tests.
const domainSchema = `
CREATE TABLE IF NOT EXISTS achats_fournisseur (
	id BIGSERIAL PRIMARY KEY,
	nom TEXT NOT NULL,
	ice TEXT,
	adresse TEXT,
	ville TEXT,
	telephone TEXT,
	email TEXT
);

CREATE TABLE IF NOT EXISTS parc_materiel (
	id BIGSERIAL PRIMARY KEY,
	code_inventaire TEXT,
	numero_serie TEXT,
	designation TEXT NOT NULL,
	localisation TEXT,
	etat TEXT,
	date_acquisition DATE,
	fin_garantie DATE,
	prix_achat NUMERIC(12, 2),
	affecte_a TEXT,
	fournisseur_id BIGINT REFERENCES achats_fournisseur(id)
);

CREATE TABLE IF NOT EXISTS achats_commande (
	id BIGSERIAL PRIMARY KEY,
	numero TEXT NOT NULL,
	date_commande DATE,
	montant_total NUMERIC(12, 2),
	statut TEXT,
	fournisseur_id BIGINT REFERENCES achats_fournisseur(id)
);

CREATE TABLE IF NOT EXISTS achats_livraison (
	id BIGSERIAL PRIMARY KEY,
	numero_bl TEXT NOT NULL,
	date_livraison DATE,
	statut TEXT,
	commande_id BIGINT REFERENCES achats_commande(id),
	fournisseur_id BIGINT REFERENCES achats_fournisseur(id)
);

CREATE TABLE IF NOT EXISTS demandes_demande (
	id BIGSERIAL PRIMARY KEY,
	numero TEXT NOT NULL,
	objet TEXT,
	statut TEXT,
	date_demande DATE,
	demandeur TEXT
);`

// seedData is a small, stable dataset the integration tests assert against.
const seedData = `
INSERT INTO achats_fournisseur (nom, ice, adresse, ville, telephone, email) VALUES
	('Atlas Info SARL', '001234567890123', '12 rue des FAR', 'Casablanca', '0522334455', 'contact@atlasinfo.ma'),
	('Maroc Bureau SA', '002222333344445', '5 avenue Hassan II', 'Rabat', '0537112233', 'vente@marocbureau.ma'),
	('TechnoPlus', NULL, NULL, 'Tanger', NULL, NULL);

INSERT INTO parc_materiel (code_inventaire, numero_serie, designation, localisation, etat, date_acquisition, fin_garantie, prix_achat, affecte_a, fournisseur_id) VALUES
	('INV-0042', 'SN-7745-AZ', 'Portable Dell Latitude 5540', 'Étage 2', 'en service', '2023-05-10', '2026-05-10', 12500.00, 'k.alami', 1),
	('INV-0043', 'SN-9921-QB', 'Imprimante HP LaserJet', 'Étage 1', 'en service', '2022-11-02', '2024-11-02', 4300.50, NULL, 2),
	('INV-0044', NULL, 'Écran Samsung 27"', 'Étage 2', 'en panne', '2021-03-15', '2023-03-15', 1800.00, 'm.berrada', 1);

INSERT INTO achats_commande (numero, date_commande, montant_total, statut, fournisseur_id) VALUES
	('BC-2024/001', '2024-01-15', 125000.50, 'validée', 1),
	('BC-2024/002', '2024-02-20', 43000.00, 'en attente', 2),
	('BC-2024/003', '2024-03-05', 8900.00, 'validée', 1);

INSERT INTO achats_livraison (numero_bl, date_livraison, statut, commande_id, fournisseur_id) VALUES
	('BL-2024-7', '2024-02-01', 'reçue', 1, 1),
	('BL-2024-8', NULL, 'en cours', 2, 2);

INSERT INTO demandes_demande (numero, objet, statut, date_demande, demandeur) VALUES
	('DA-2024-11', 'Renouvellement postes comptabilité', 'approuvée', '2024-01-08', 's.idrissi'),
	('DA-2024-12', 'Licences antivirus', 'en attente', '2024-02-14', 'k.alami');`

// CreateDomainTables creates the domain fixture tables.
func CreateDomainTables(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, domainSchema); err != nil {
		return fmt.Errorf("failed to create domain tables: %w", err)
	}
	return nil
}

// SeedDomainData resets the domain tables to the standard fixture dataset.
func SeedDomainData(ctx context.Context, db *database.DB) error {
	if err := TruncateDomainTables(ctx, db); err != nil {
		return err
	}
	if _, err := db.Exec(ctx, seedData); err != nil {
		return fmt.Errorf("failed to seed domain data: %w", err)
	}
	return nil
}

// TruncateDomainTables empties every domain and engine table between tests.
func TruncateDomainTables(ctx context.Context, db *database.DB) error {
	_, err := db.Exec(ctx, `
		TRUNCATE achats_livraison, achats_commande, parc_materiel,
			achats_fournisseur, demandes_demande,
			engine_index_documents, engine_interactions
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
