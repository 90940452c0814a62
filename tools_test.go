package letta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsList(t *testing.T) {
	var path, query string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.RawQuery
		fmt.Fprint(w, `[
			{"id":"tool-550e8400-e29b-41d4-a716-446655440000","name":"send_message","tool_type":"letta_core"},
			{"name":"unregistered"}
		]`)
	})
	c := newTestClient(t, handler)

	tools, err := c.Tools.List(context.Background(), &ListToolsParams{Limit: 5, Name: "send_message"})
	require.NoError(t, err)

	assert.Equal(t, "/v1/tools/", path)
	assert.Contains(t, query, "limit=5")
	assert.Contains(t, query, "name=send_message")

	require.Len(t, tools, 2)
	assert.Equal(t, ToolTypeLettaCore, tools[0].ToolType)
	assert.Nil(t, tools[1].ID)
}

func TestToolsGet(t *testing.T) {
	var path string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{
			"id": "tool-550e8400-e29b-41d4-a716-446655440000",
			"name": "add",
			"source_type": "python",
			"metadata_": {"origin": "sdk"}
		}`)
	})
	c := newTestClient(t, handler)

	tool, err := c.Tools.Get(context.Background(), MustParseID("tool-550e8400-e29b-41d4-a716-446655440000"))
	require.NoError(t, err)

	assert.Equal(t, "/v1/tools/tool-550e8400-e29b-41d4-a716-446655440000", path)
	assert.Equal(t, "add", tool.Name)
	assert.Equal(t, SourceTypePython, tool.SourceType)
	assert.Equal(t, "sdk", tool.Metadata["origin"], "the server spells the field metadata_")
}

func TestToolsCreate(t *testing.T) {
	var method, path string
	var body map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"id":"tool-550e8400-e29b-41d4-a716-446655440000","name":"add"}`)
	})
	c := newTestClient(t, handler)

	tool, err := c.Tools.Create(context.Background(), CreateToolRequest{
		Description: "Add two numbers",
		SourceCode:  "def add(a: float, b: float) -> float:\n    return a + b\n",
		SourceType:  SourceTypePython,
		PipRequirements: []PipRequirement{
			{Package: "numpy", Version: "1.26.0"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/v1/tools/", path)
	assert.Equal(t, "Add two numbers", body["description"])
	assert.Contains(t, body["source_code"], "def add")
	reqs := body["pip_requirements"].([]any)
	require.Len(t, reqs, 1)
	assert.Equal(t, "numpy", reqs[0].(map[string]any)["package"])

	assert.Equal(t, "add", tool.Name)
}

func TestToolsUpsert(t *testing.T) {
	var method, path string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		fmt.Fprint(w, `{"id":"tool-550e8400-e29b-41d4-a716-446655440000","name":"add"}`)
	})
	c := newTestClient(t, handler)

	_, err := c.Tools.Upsert(context.Background(), CreateToolRequest{SourceCode: "def add(): pass"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/v1/tools/", path)
}

func TestToolsDelete(t *testing.T) {
	var method, path string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
	})
	c := newTestClient(t, handler)

	err := c.Tools.Delete(context.Background(), MustParseID("tool-550e8400-e29b-41d4-a716-446655440000"))
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/tools/tool-550e8400-e29b-41d4-a716-446655440000", path)
}

func TestToolsPaginated(t *testing.T) {
	first := "tool-550e8400-e29b-41d4-a716-446655440000"
	second := "tool-550e8400-e29b-41d4-a716-446655440001"
	var afters []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		if after == "" {
			fmt.Fprintf(w, `[{"id":"%s","name":"t0"},{"id":"%s","name":"t1"}]`, first, second)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	c := newTestClient(t, handler)

	stream := c.Tools.Paginated(context.Background(), PaginationParams{Limit: 2})
	tools, err := stream.Collect()
	require.NoError(t, err)

	require.Len(t, tools, 2)
	assert.Equal(t, []string{"", second}, afters)
}

func TestToolArgsSchema(t *testing.T) {
	type AddArgs struct {
		A float64 `json:"a" jsonschema:"required,description=First number"`
		B float64 `json:"b,omitempty" jsonschema:"description=Second number"`
	}
	schema := ToolArgsSchema[AddArgs]()

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "properties should be map[string]any")
	a, ok := props["a"].(map[string]any)
	require.True(t, ok, "a should exist")
	assert.Equal(t, "number", a["type"])
	assert.Equal(t, "First number", a["description"])

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "a")
	assert.NotContains(t, required, "b")
}

func TestToolMetadataFieldName(t *testing.T) {
	tool := Tool{Name: "x", Metadata: map[string]any{"k": "v"}}
	data, err := json.Marshal(tool)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"metadata_"`)
}
