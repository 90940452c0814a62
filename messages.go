package letta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// MessageRole identifies the author of an outbound message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
	MessageRoleTool      MessageRole = "tool"
	// MessageRoleFunction is the legacy spelling of MessageRoleTool.
	MessageRoleFunction MessageRole = "function"
)

// MessageType is the wire discriminant carried in the message_type field of
// every message and streaming event.
type MessageType string

const (
	MessageTypeSystem          MessageType = "system_message"
	MessageTypeUser            MessageType = "user_message"
	MessageTypeAssistant       MessageType = "assistant_message"
	MessageTypeReasoning       MessageType = "reasoning_message"
	MessageTypeHiddenReasoning MessageType = "hidden_reasoning_message"
	MessageTypeToolCall        MessageType = "tool_call_message"
	MessageTypeToolReturn      MessageType = "tool_return_message"
	MessageTypeStopReason      MessageType = "stop_reason"
	MessageTypeUsage           MessageType = "usage_statistics"
)

// StreamingEvent is the interface implemented by everything a message stream
// can yield: the seven message kinds plus StopReason and Usage.
type StreamingEvent interface {
	Type() MessageType
}

// Message is the interface implemented by the seven agent message kinds.
// StopReason and Usage are stream bookkeeping, not messages.
type Message interface {
	StreamingEvent
	Envelope() MessageEnvelope
}

// MessageEnvelope holds the fields common to every message kind.
type MessageEnvelope struct {
	// MessageType mirrors the wire discriminant. It is populated when a
	// message is decoded; use Type() to branch on the message kind.
	MessageType MessageType `json:"message_type,omitempty"`
	ID          ID          `json:"id"`
	Date        time.Time   `json:"date"`
	Name        string      `json:"name,omitempty"`
	OTID        string      `json:"otid,omitempty"`
	SenderID    *ID         `json:"sender_id,omitempty"`
	StepID      *ID         `json:"step_id,omitempty"`
}

// Envelope returns the common message fields. It also satisfies the Message
// interface for every struct that embeds MessageEnvelope.
func (e *MessageEnvelope) Envelope() MessageEnvelope { return *e }

// SystemMessage is a system prompt entry in the agent's history.
type SystemMessage struct {
	MessageEnvelope
	Content string `json:"content"`
}

func (m *SystemMessage) Type() MessageType { return MessageTypeSystem }

// UserMessage is a message sent to the agent by a user.
type UserMessage struct {
	MessageEnvelope
	Content string `json:"content"`
}

func (m *UserMessage) Type() MessageType { return MessageTypeUser }

// AssistantMessage is the agent's visible reply.
type AssistantMessage struct {
	MessageEnvelope
	Content string `json:"content"`
}

func (m *AssistantMessage) Type() MessageType { return MessageTypeAssistant }

// ReasoningSource identifies where reasoning content came from.
type ReasoningSource string

const (
	ReasoningSourceReasonerModel    ReasoningSource = "reasoner_model"
	ReasoningSourceNonReasonerModel ReasoningSource = "non_reasoner_model"
)

// ReasoningMessage carries the agent's internal thoughts.
type ReasoningMessage struct {
	MessageEnvelope
	Source    ReasoningSource `json:"source,omitempty"`
	Reasoning string          `json:"reasoning"`
	Signature string          `json:"signature,omitempty"`
}

func (m *ReasoningMessage) Type() MessageType { return MessageTypeReasoning }

// HiddenReasoningState says why reasoning content is unavailable.
type HiddenReasoningState string

const (
	HiddenReasoningRedacted HiddenReasoningState = "redacted"
	HiddenReasoningOmitted  HiddenReasoningState = "omitted"
)

// HiddenReasoningMessage marks reasoning the server withheld.
type HiddenReasoningMessage struct {
	MessageEnvelope
	State           HiddenReasoningState `json:"state"`
	HiddenReasoning string               `json:"hidden_reasoning,omitempty"`
}

func (m *HiddenReasoningMessage) Type() MessageType { return MessageTypeHiddenReasoning }

// ToolCall describes a tool invocation requested by the agent.
type ToolCall struct {
	Name string `json:"name"`
	// Arguments is the raw JSON-encoded argument object.
	Arguments  string `json:"arguments"`
	ToolCallID string `json:"tool_call_id"`
}

// ToolCallMessage is emitted when the agent invokes a tool.
type ToolCallMessage struct {
	MessageEnvelope
	ToolCall ToolCall `json:"tool_call"`
}

func (m *ToolCallMessage) Type() MessageType { return MessageTypeToolCall }

// ToolReturnStatus is the outcome of a tool invocation.
type ToolReturnStatus string

const (
	ToolReturnSuccess ToolReturnStatus = "success"
	ToolReturnError   ToolReturnStatus = "error"
)

// ToolReturnMessage carries the result of a tool invocation.
type ToolReturnMessage struct {
	MessageEnvelope
	ToolReturn string           `json:"tool_return"`
	Status     ToolReturnStatus `json:"status"`
	ToolCallID string           `json:"tool_call_id"`
	Stdout     []string         `json:"stdout,omitempty"`
	Stderr     []string         `json:"stderr,omitempty"`
}

func (m *ToolReturnMessage) Type() MessageType { return MessageTypeToolReturn }

// StopReasonType enumerates why the server stopped processing.
type StopReasonType string

const (
	StopReasonEndTurn         StopReasonType = "end_turn"
	StopReasonError           StopReasonType = "error"
	StopReasonInvalidToolCall StopReasonType = "invalid_tool_call"
	StopReasonMaxSteps        StopReasonType = "max_steps"
	StopReasonNoToolCall      StopReasonType = "no_tool_call"
	StopReasonToolRule        StopReasonType = "tool_rule"
)

// StopReason is emitted once per run to report why processing stopped.
type StopReason struct {
	MessageType MessageType    `json:"message_type,omitempty"`
	StopReason  StopReasonType `json:"stop_reason"`
}

func (s *StopReason) Type() MessageType { return MessageTypeStopReason }

// Usage reports token and step consumption for a run.
type Usage struct {
	MessageType      MessageType         `json:"message_type,omitempty"`
	CompletionTokens int                 `json:"completion_tokens,omitempty"`
	PromptTokens     int                 `json:"prompt_tokens,omitempty"`
	TotalTokens      int                 `json:"total_tokens,omitempty"`
	StepCount        int                 `json:"step_count,omitempty"`
	StepsMessages    [][]json.RawMessage `json:"steps_messages,omitempty"`
	RunIDs           []ID                `json:"run_ids,omitempty"`
}

func (u *Usage) Type() MessageType { return MessageTypeUsage }

// Messages is a list of decoded messages. It exists so message arrays can be
// unmarshaled through the message_type discriminant.
type Messages []Message

func (m *Messages) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Messages, 0, len(raw))
	for _, item := range raw {
		msg, err := unmarshalMessage(item)
		if err != nil {
			return err
		}
		out = append(out, msg)
	}
	*m = out
	return nil
}

// unmarshalMessage decodes one message by its message_type discriminant.
func unmarshalMessage(data []byte) (Message, error) {
	tag := gjson.GetBytes(data, "message_type")
	if !tag.Exists() {
		return nil, &SerializationError{Message: "message missing message_type"}
	}
	var msg Message
	switch MessageType(tag.String()) {
	case MessageTypeSystem:
		msg = &SystemMessage{}
	case MessageTypeUser:
		msg = &UserMessage{}
	case MessageTypeAssistant:
		msg = &AssistantMessage{}
	case MessageTypeReasoning:
		msg = &ReasoningMessage{}
	case MessageTypeHiddenReasoning:
		msg = &HiddenReasoningMessage{}
	case MessageTypeToolCall:
		msg = &ToolCallMessage{}
	case MessageTypeToolReturn:
		msg = &ToolReturnMessage{}
	default:
		return nil, &SerializationError{Message: fmt.Sprintf("unknown message type %q", tag.String())}
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, &SerializationError{Message: "decode " + tag.String(), Err: err}
	}
	return msg, nil
}

// decodeStreamingEvent decodes one server-sent event payload. Events normally
// carry a message_type discriminant; stop-reason and usage frames are also
// accepted without one, recognized by shape.
func decodeStreamingEvent(data []byte) (StreamingEvent, error) {
	tag := gjson.GetBytes(data, "message_type")
	switch MessageType(tag.String()) {
	case MessageTypeStopReason:
		var s StopReason
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, &SerializationError{Message: "decode stop_reason", Err: err}
		}
		return &s, nil
	case MessageTypeUsage:
		var u Usage
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, &SerializationError{Message: "decode usage_statistics", Err: err}
		}
		return &u, nil
	}
	if tag.Exists() {
		return unmarshalMessage(data)
	}
	if gjson.GetBytes(data, "stop_reason").Exists() {
		var s StopReason
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, &SerializationError{Message: "decode stop_reason", Err: err}
		}
		return &s, nil
	}
	if hasUsageShape(data) {
		var u Usage
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, &SerializationError{Message: "decode usage_statistics", Err: err}
		}
		return &u, nil
	}
	return nil, &SerializationError{Message: "unrecognized streaming event"}
}

func hasUsageShape(data []byte) bool {
	for _, key := range []string{"completion_tokens", "prompt_tokens", "total_tokens", "step_count"} {
		if gjson.GetBytes(data, key).Exists() {
			return true
		}
	}
	return false
}

// MessageContent is the content of an outbound message. Exactly one of Text
// or Parts should be set: Text marshals as a bare JSON string, Parts as an
// array of content parts.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

// TextContent returns plain text message content.
func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// PartsContent returns multi-modal message content.
func PartsContent(parts ...ContentPart) MessageContent {
	return MessageContent{Parts: parts}
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		c.Parts = nil
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	c.Parts = parts
	c.Text = ""
	return nil
}

// ContentPartType discriminates multi-modal content parts.
type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image"
)

// ContentPart is one element of multi-modal message content.
type ContentPart struct {
	Type     ContentPartType `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *ImageURL       `json:"image_url,omitempty"`
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartText, Text: text}
}

// ImagePart returns an image content part referencing a URL or base64 data.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: ContentPartImage, ImageURL: &ImageURL{URL: url}}
}

// ImageURL points at image content by URL or inline base64 data.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// MessageCreate is one outbound message in a send request.
type MessageCreate struct {
	Role        MessageRole    `json:"role"`
	Content     MessageContent `json:"content"`
	Name        string         `json:"name,omitempty"`
	OTID        string         `json:"otid,omitempty"`
	SenderID    *ID            `json:"sender_id,omitempty"`
	BatchItemID *ID            `json:"batch_item_id,omitempty"`
	GroupID     *ID            `json:"group_id,omitempty"`
}

// CreateMessagesRequest asks an agent to process one or more messages.
type CreateMessagesRequest struct {
	Messages []MessageCreate `json:"messages"`
	MaxSteps int             `json:"max_steps,omitempty"`
	// UseAssistantMessage controls whether replies arrive as assistant
	// messages or raw send_message tool calls. The server default is true.
	UseAssistantMessage       *bool         `json:"use_assistant_message,omitempty"`
	AssistantMessageToolName  string        `json:"assistant_message_tool_name,omitempty"`
	AssistantMessageToolKwarg string        `json:"assistant_message_tool_kwarg,omitempty"`
	IncludeReturnMessageTypes []MessageType `json:"include_return_message_types,omitempty"`
}

// MessageResponse is the reply to a non-streaming send.
type MessageResponse struct {
	Messages   Messages   `json:"messages"`
	StopReason StopReason `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// ListMessagesRequest filters and pages an agent's message history.
type ListMessagesRequest struct {
	Before                    string
	After                     string
	Limit                     int
	GroupID                   *ID
	UseAssistantMessage       *bool
	AssistantMessageToolName  string
	AssistantMessageToolKwarg string
}

func (r *ListMessagesRequest) values() url.Values {
	if r == nil {
		return nil
	}
	q := url.Values{}
	if r.Before != "" {
		q.Set("before", r.Before)
	}
	if r.After != "" {
		q.Set("after", r.After)
	}
	if r.Limit > 0 {
		q.Set("limit", strconv.Itoa(r.Limit))
	}
	if r.GroupID != nil {
		q.Set("group_id", r.GroupID.String())
	}
	if r.UseAssistantMessage != nil {
		q.Set("use_assistant_message", strconv.FormatBool(*r.UseAssistantMessage))
	}
	if r.AssistantMessageToolName != "" {
		q.Set("assistant_message_tool_name", r.AssistantMessageToolName)
	}
	if r.AssistantMessageToolKwarg != "" {
		q.Set("assistant_message_tool_kwarg", r.AssistantMessageToolKwarg)
	}
	return q
}

// MessageService sends messages to agents and reads conversation history.
// Access it through Client.Messages.
type MessageService struct {
	client *Client
}

// List returns one page of an agent's message history.
func (s *MessageService) List(ctx context.Context, agentID ID, opts *ListMessagesRequest) ([]Message, error) {
	var out Messages
	if err := s.client.get(ctx, "v1/agents/"+agentID.String()+"/messages", opts.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create sends messages to an agent and waits for the complete response.
func (s *MessageService) Create(ctx context.Context, agentID ID, req CreateMessagesRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := s.client.post(ctx, "v1/agents/"+agentID.String()+"/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Paginated returns a lazy stream over an agent's message history, fetching
// pages on demand and cursoring on message IDs.
func (s *MessageService) Paginated(ctx context.Context, agentID ID, params PaginationParams) *PaginatedStream[Message] {
	fetch := func(ctx context.Context, p PaginationParams) ([]Message, error) {
		return s.List(ctx, agentID, &ListMessagesRequest{Before: p.Before, After: p.After, Limit: p.Limit})
	}
	return NewIDPaginatedStream(ctx, params, fetch, func(m Message) ID { return m.Envelope().ID })
}
