package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SimpleInput struct {
	Query string `json:"query" jsonschema:"required,description=The search query"`
	Scope string `json:"scope" jsonschema:"required,description=The scope to search in"`
}

type InputWithOptional struct {
	Label string `json:"label" jsonschema:"required,description=The block label"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum characters"`
}

type InputWithPointer struct {
	Name   string `json:"name" jsonschema:"required"`
	Offset *int   `json:"offset,omitempty" jsonschema:"description=Line offset to start reading from"`
	Count  *int   `json:"count,omitempty" jsonschema:"description=Number of lines to read"`
}

type InputWithBool struct {
	Name      string `json:"name" jsonschema:"required"`
	OldValue  string `json:"old_value" jsonschema:"required"`
	NewValue  string `json:"new_value" jsonschema:"required"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

func requireObjectSchema(t *testing.T, schema map[string]any) map[string]any {
	t.Helper()
	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "properties should be map[string]any")
	return props
}

func TestGenerateSimple(t *testing.T) {
	schema := Generate[SimpleInput]()
	props := requireObjectSchema(t, schema)

	// Check query property
	q, ok := props["query"].(map[string]any)
	require.True(t, ok, "query should exist")
	assert.Equal(t, "string", q["type"])
	assert.Equal(t, "The search query", q["description"])

	// Check scope property
	sc, ok := props["scope"].(map[string]any)
	require.True(t, ok, "scope should exist")
	assert.Equal(t, "string", sc["type"])

	// Check required fields
	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "query")
	assert.Contains(t, required, "scope")
}

func TestGenerateOptionalFields(t *testing.T) {
	schema := Generate[InputWithOptional]()

	// label is required, limit is not
	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "label")
	assert.NotContains(t, required, "limit")

	props := requireObjectSchema(t, schema)
	limit, ok := props["limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Maximum characters", limit["description"])
	assert.Equal(t, "integer", limit["type"])
}

func TestGeneratePointerFields(t *testing.T) {
	schema := Generate[InputWithPointer]()

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "name")

	props := requireObjectSchema(t, schema)

	// Pointer fields should be present
	_, hasOffset := props["offset"]
	assert.True(t, hasOffset, "offset should be in properties")

	_, hasCount := props["count"]
	assert.True(t, hasCount, "count should be in properties")
}

func TestGenerateBoolField(t *testing.T) {
	schema := Generate[InputWithBool]()
	props := requireObjectSchema(t, schema)

	ow, ok := props["overwrite"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "boolean", ow["type"])
}

func TestGenerateNoRequiredFields(t *testing.T) {
	type AllOptional struct {
		A string `json:"a,omitempty"`
		B string `json:"b,omitempty"`
	}
	schema := Generate[AllOptional]()

	_, hasRequired := schema["required"]
	assert.False(t, hasRequired, "empty required list should be omitted")
}

func TestGenerateJSONRoundtrip(t *testing.T) {
	data, err := GenerateJSON[SimpleInput]()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	// Should have "type": "object" and "properties"
	assert.Equal(t, "object", m["type"])
	assert.NotNil(t, m["properties"])
	assert.NotNil(t, m["required"])
}
