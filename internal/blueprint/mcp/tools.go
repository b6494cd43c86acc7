package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		lookupTool(),
		searchTool(),
	}
}

func lookupTool() ToolDefinition {
	return ToolDefinition{
		Name: "blueprint_lookup",
		Description: "Look up a blueprint by fuzzy name with optional skill levels (e.g. \"rifter 4/2/1\"). " +
			"Returns the resource bill, production stats and market cost/profit summary as a chat message.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Blueprint name followed by optional basic/advanced/expert skill levels",
				},
				"mobile": {
					Type:        "boolean",
					Description: "Use the narrow layout with values on their own line",
					Default:     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// lookupResult wraps the rendered message so misses are explicit.
type lookupResult struct {
	Found   bool               `json:"found"`
	Message *blueprint.Message `json:"message,omitempty"`
}

func (s *Server) toolLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var req blueprint.LookupRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("query is required")
	}
	msg, err := s.service.Respond(ctx, req)
	if err != nil {
		return nil, err
	}
	return lookupResult{Found: msg != nil, Message: msg}, nil
}

func searchTool() ToolDefinition {
	minLimit := 1.0
	maxLimit := 50.0

	return ToolDefinition{
		Name:        "blueprint_search",
		Description: "List blueprints whose names fuzzily match a query, best match first.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Blueprint name to search for",
				},
				"limit": {
					Type:        "integer",
					Description: "Max results",
					Default:     10,
					Minimum:     &minLimit,
					Maximum:     &maxLimit,
				},
			},
			Required: []string{"query"},
		},
	}
}

func (s *Server) toolSearch(ctx context.Context, args json.RawMessage) (any, error) {
	var req blueprint.SearchRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	if req.Limit > 50 {
		req.Limit = 50
	}
	return s.service.Search(ctx, req)
}
