// Package tools provides the MCP tool implementations for gestinv-engine.
package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewErrorResult builds a structured tool error result so MCP clients get a
// machine-readable code alongside the message.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	payload, err := json.Marshal(map[string]string{
		"error":   code,
		"message": message,
	})
	if err != nil {
		return mcp.NewToolResultError(message)
	}

	result := mcp.NewToolResultText(string(payload))
	result.IsError = true
	return result
}
