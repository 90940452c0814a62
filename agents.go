package letta

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// AgentType selects the agent architecture.
type AgentType string

const (
	AgentTypeMemGPT         AgentType = "memgpt_agent"
	AgentTypeMemGPTv2       AgentType = "memgpt_v2_agent"
	AgentTypeReact          AgentType = "react_agent"
	AgentTypeWorkflow       AgentType = "workflow_agent"
	AgentTypeSplitThread    AgentType = "split_thread_agent"
	AgentTypeSleeptime      AgentType = "sleeptime_agent"
	AgentTypeVoiceConvo     AgentType = "voice_convo_agent"
	AgentTypeVoiceSleeptime AgentType = "voice_sleeptime_agent"
)

// Block is one labeled section of agent core memory.
type Block struct {
	ID          *ID            `json:"id,omitempty"`
	Label       string         `json:"label"`
	Value       string         `json:"value"`
	Limit       int            `json:"limit,omitempty"`
	IsTemplate  bool           `json:"is_template,omitempty"`
	ReadOnly    bool           `json:"read_only,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// HumanBlock returns a "human" memory block with the given content.
func HumanBlock(value string) Block {
	return Block{Label: "human", Value: value}
}

// PersonaBlock returns a "persona" memory block with the given content.
func PersonaBlock(value string) Block {
	return Block{Label: "persona", Value: value}
}

// AgentMemory is an agent's core memory.
type AgentMemory struct {
	Blocks         []Block `json:"blocks"`
	FileBlocks     []Block `json:"file_blocks,omitempty"`
	PromptTemplate string  `json:"prompt_template,omitempty"`
}

// LLMConfig describes the model an agent runs on.
type LLMConfig struct {
	Model             string  `json:"model"`
	ModelEndpointType string  `json:"model_endpoint_type,omitempty"`
	ModelEndpoint     string  `json:"model_endpoint,omitempty"`
	ContextWindow     int     `json:"context_window,omitempty"`
	ProviderName      string  `json:"provider_name,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`
	MaxTokens         int     `json:"max_tokens,omitempty"`
}

// EmbeddingConfig describes the embedding model attached to an agent.
type EmbeddingConfig struct {
	EmbeddingModel        string `json:"embedding_model,omitempty"`
	EmbeddingEndpointType string `json:"embedding_endpoint_type,omitempty"`
	EmbeddingEndpoint     string `json:"embedding_endpoint,omitempty"`
	EmbeddingDim          int    `json:"embedding_dim,omitempty"`
	EmbeddingChunkSize    int    `json:"embedding_chunk_size,omitempty"`
}

// AgentState is the server's view of an agent.
type AgentState struct {
	ID              ID               `json:"id"`
	Name            string           `json:"name"`
	System          string           `json:"system,omitempty"`
	AgentType       AgentType        `json:"agent_type,omitempty"`
	LLMConfig       *LLMConfig       `json:"llm_config,omitempty"`
	EmbeddingConfig *EmbeddingConfig `json:"embedding_config,omitempty"`
	Memory          *AgentMemory     `json:"memory,omitempty"`
	// Tools holds tool references, which arrive either as bare ID strings
	// or as full tool objects.
	Tools       []json.RawMessage `json:"tools,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	ProjectID   *ID               `json:"project_id,omitempty"`
	MessageIDs  []ID              `json:"message_ids,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateAgentRequest configures a new agent. All fields are optional; the
// server fills defaults. Model and Embedding are shorthands for full
// LLMConfig and EmbeddingConfig values.
type CreateAgentRequest struct {
	Name               string           `json:"name,omitempty"`
	System             string           `json:"system,omitempty"`
	AgentType          AgentType        `json:"agent_type,omitempty"`
	LLMConfig          *LLMConfig       `json:"llm_config,omitempty"`
	EmbeddingConfig    *EmbeddingConfig `json:"embedding_config,omitempty"`
	MemoryBlocks       []Block          `json:"memory_blocks,omitempty"`
	Tools              []string         `json:"tools,omitempty"`
	ToolIDs            []ID             `json:"tool_ids,omitempty"`
	SourceIDs          []ID             `json:"source_ids,omitempty"`
	BlockIDs           []ID             `json:"block_ids,omitempty"`
	Tags               []string         `json:"tags,omitempty"`
	Description        string           `json:"description,omitempty"`
	Metadata           map[string]any   `json:"metadata,omitempty"`
	Timezone           string           `json:"timezone,omitempty"`
	IncludeBaseTools   *bool            `json:"include_base_tools,omitempty"`
	Model              string           `json:"model,omitempty"`
	Embedding          string           `json:"embedding,omitempty"`
	ContextWindowLimit int              `json:"context_window_limit,omitempty"`
}

// ListAgentsParams filters and pages agent listings.
type ListAgentsParams struct {
	Name         string
	Tags         []string
	MatchAllTags *bool
	Before       string
	After        string
	Limit        int
	QueryText    string
	ProjectID    *ID
	Ascending    *bool
}

func (p *ListAgentsParams) values() url.Values {
	if p == nil {
		return nil
	}
	q := url.Values{}
	if p.Name != "" {
		q.Set("name", p.Name)
	}
	for _, tag := range p.Tags {
		q.Add("tags", tag)
	}
	if p.MatchAllTags != nil {
		q.Set("match_all_tags", strconv.FormatBool(*p.MatchAllTags))
	}
	if p.Before != "" {
		q.Set("before", p.Before)
	}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.QueryText != "" {
		q.Set("query_text", p.QueryText)
	}
	if p.ProjectID != nil {
		q.Set("project_id", p.ProjectID.String())
	}
	if p.Ascending != nil {
		q.Set("ascending", strconv.FormatBool(*p.Ascending))
	}
	return q
}

// AgentService manages agents. Access it through Client.Agents.
type AgentService struct {
	client *Client
}

// List returns agents matching the given filters.
func (s *AgentService) List(ctx context.Context, params *ListAgentsParams) ([]AgentState, error) {
	var out []AgentState
	if err := s.client.get(ctx, "v1/agents", params.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one agent by ID.
func (s *AgentService) Get(ctx context.Context, agentID ID) (*AgentState, error) {
	var out AgentState
	if err := s.client.get(ctx, "v1/agents/"+agentID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates a new agent.
func (s *AgentService) Create(ctx context.Context, req CreateAgentRequest) (*AgentState, error) {
	var out AgentState
	if err := s.client.post(ctx, "v1/agents", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an agent and its history.
func (s *AgentService) Delete(ctx context.Context, agentID ID) error {
	return s.client.delete(ctx, "v1/agents/"+agentID.String())
}

// Paginated returns a lazy stream over all agents, fetching pages on demand
// and cursoring on agent IDs.
func (s *AgentService) Paginated(ctx context.Context, params PaginationParams) *PaginatedStream[AgentState] {
	fetch := func(ctx context.Context, p PaginationParams) ([]AgentState, error) {
		return s.List(ctx, &ListAgentsParams{Before: p.Before, After: p.After, Limit: p.Limit})
	}
	return NewIDPaginatedStream(ctx, params, fetch, func(a AgentState) ID { return a.ID })
}
