package letta

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/orual/letta-go/internal/schema"
)

// ToolType identifies where a tool comes from.
type ToolType string

const (
	ToolTypeLettaCore          ToolType = "letta_core"
	ToolTypeLettaMemoryCore    ToolType = "letta_memory_core"
	ToolTypeLettaMultiAgent    ToolType = "letta_multi_agent_core"
	ToolTypeLettaSleeptimeCore ToolType = "letta_sleeptime_core"
	ToolTypeLettaBuiltin       ToolType = "letta_builtin"
	ToolTypeLettaFilesCore     ToolType = "letta_files_core"
	ToolTypeExternalComposio   ToolType = "external_composio"
	ToolTypeExternalLangchain  ToolType = "external_langchain"
	ToolTypeExternalMCP        ToolType = "external_mcp"
	ToolTypeCustom             ToolType = "custom"
)

// SourceType is the language a tool's source code is written in.
type SourceType string

const (
	SourceTypePython     SourceType = "python"
	SourceTypeJavaScript SourceType = "javascript"
)

// PipRequirement names a Python package a tool depends on.
type PipRequirement struct {
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
}

// Tool is a callable function registered with the server.
type Tool struct {
	ID              *ID              `json:"id,omitempty"`
	ToolType        ToolType         `json:"tool_type,omitempty"`
	Description     string           `json:"description,omitempty"`
	SourceType      SourceType       `json:"source_type,omitempty"`
	OrganizationID  *ID              `json:"organization_id,omitempty"`
	Name            string           `json:"name"`
	Tags            []string         `json:"tags,omitempty"`
	SourceCode      string           `json:"source_code,omitempty"`
	JSONSchema      map[string]any   `json:"json_schema,omitempty"`
	ArgsJSONSchema  map[string]any   `json:"args_json_schema,omitempty"`
	ReturnCharLimit int              `json:"return_char_limit,omitempty"`
	PipRequirements []PipRequirement `json:"pip_requirements,omitempty"`
	CreatedByID     *ID              `json:"created_by_id,omitempty"`
	LastUpdatedByID *ID              `json:"last_updated_by_id,omitempty"`
	Metadata        map[string]any   `json:"metadata_,omitempty"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

// CreateToolRequest registers a new tool from source code.
type CreateToolRequest struct {
	Description     string           `json:"description,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	SourceCode      string           `json:"source_code"`
	SourceType      SourceType       `json:"source_type,omitempty"`
	JSONSchema      map[string]any   `json:"json_schema,omitempty"`
	ArgsJSONSchema  map[string]any   `json:"args_json_schema,omitempty"`
	ReturnCharLimit int              `json:"return_char_limit,omitempty"`
	PipRequirements []PipRequirement `json:"pip_requirements,omitempty"`
}

// ToolArgsSchema derives a JSON schema for a tool's argument struct, for use
// as a CreateToolRequest.ArgsJSONSchema value:
//
//	type AddArgs struct {
//	    A float64 `json:"a" jsonschema:"description=First number"`
//	    B float64 `json:"b" jsonschema:"description=Second number"`
//	}
//
//	req.ArgsJSONSchema = letta.ToolArgsSchema[AddArgs]()
func ToolArgsSchema[T any]() map[string]any {
	return schema.Generate[T]()
}

// ListToolsParams filters and pages tool listings.
type ListToolsParams struct {
	Limit  int
	Before string
	After  string
	Name   string
}

func (p *ListToolsParams) values() url.Values {
	if p == nil {
		return nil
	}
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Before != "" {
		q.Set("before", p.Before)
	}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Name != "" {
		q.Set("name", p.Name)
	}
	return q
}

// ToolService manages tools. Access it through Client.Tools.
type ToolService struct {
	client *Client
}

// List returns tools matching the given filters.
func (s *ToolService) List(ctx context.Context, params *ListToolsParams) ([]Tool, error) {
	var out []Tool
	if err := s.client.get(ctx, "v1/tools/", params.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one tool by ID.
func (s *ToolService) Get(ctx context.Context, toolID ID) (*Tool, error) {
	var out Tool
	if err := s.client.get(ctx, "v1/tools/"+toolID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registers a new tool.
func (s *ToolService) Create(ctx context.Context, req CreateToolRequest) (*Tool, error) {
	var out Tool
	if err := s.client.post(ctx, "v1/tools/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert creates a tool or updates an existing one with the same name.
func (s *ToolService) Upsert(ctx context.Context, req CreateToolRequest) (*Tool, error) {
	var out Tool
	if err := s.client.put(ctx, "v1/tools/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a tool.
func (s *ToolService) Delete(ctx context.Context, toolID ID) error {
	return s.client.delete(ctx, "v1/tools/"+toolID.String())
}

// Paginated returns a lazy stream over all tools, fetching pages on demand
// and cursoring on the tool ID's string form.
func (s *ToolService) Paginated(ctx context.Context, params PaginationParams) *PaginatedStream[Tool] {
	fetch := func(ctx context.Context, p PaginationParams) ([]Tool, error) {
		return s.List(ctx, &ListToolsParams{Before: p.Before, After: p.After, Limit: p.Limit})
	}
	return NewStringPaginatedStream(ctx, params, fetch, func(t Tool) string {
		if t.ID == nil {
			return ""
		}
		return t.ID.String()
	})
}
