package models

import (
	"time"

	"github.com/google/uuid"
)

// IndexedDocument is one synthesized text document in the semantic index.
// Documents are replaced wholesale on each full rebuild, never patched.
type IndexedDocument struct {
	ID         uuid.UUID `json:"id"`
	RecordType string    `json:"record_type"` // record-type key, e.g. "achats.fournisseur"
	RecordID   string    `json:"record_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	Priority   int       `json:"priority"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IndexReport summarizes one rebuild run (or, for dry runs, the current state).
type IndexReport struct {
	Total   int64            `json:"total"`
	PerType map[string]int64 `json:"per_type"`
	Skipped int              `json:"skipped"` // records dropped during the run
	DryRun  bool             `json:"dry_run"`
}
