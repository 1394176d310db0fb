package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/bills-tracker/constants"
)

// BuildBillJSONSchema returns the JSON Schema (draft 2020-12 subset) every candidate must satisfy.
// When a vocabulary is provided, category is restricted to it.
func BuildBillJSONSchema(allowedCategories []string) map[string]any {
	if len(allowedCategories) == 0 {
		allowedCategories = constants.AsStringSlice()
	}
	props := map[string]any{
		"name":      map[string]any{"type": "string", "minLength": 1},
		"amount":    map[string]any{"type": "number", "exclusiveMinimum": 0},
		"dueDate":   map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"category":  map[string]any{"type": "string", "enum": allowedCategories},
		"frequency": map[string]any{"type": "string", "enum": constants.FrequenciesAsStringSlice()},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"name", "amount", "dueDate", "category", "frequency"},
	}
}

// CompileSchema compiles a schema map once so it can be reused across responses.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("bill.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("bill.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
