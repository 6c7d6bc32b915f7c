package models

import (
	"time"

	"github.com/google/uuid"
)

// Resolution methods recorded on interactions and returned to callers.
const (
	MethodICEExact      = "ice_exact"
	MethodOrderExact    = "order_exact"
	MethodMaterialExact = "material_exact"
	MethodSupplierExact = "supplier_exact"
	MethodTranslator    = "translator"
	MethodSemantic      = "semantic"
	MethodRejected      = "rejected"
)

// Interaction is one resolved query, appended to the audit log. Never mutated.
type Interaction struct {
	ID          uuid.UUID `json:"id"`
	Query       string    `json:"query"`
	Action      string    `json:"action"`   // detected action/intent
	Method      string    `json:"method"`   // which strategy answered
	ResultCount int       `json:"result_count"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
}

// EngineResponse is what the engine returns to the web/CLI/MCP layer.
type EngineResponse struct {
	Response   string  `json:"response"`
	Action     string  `json:"action"`
	Method     string  `json:"method"`
	Confidence float64 `json:"confidence"`
}
