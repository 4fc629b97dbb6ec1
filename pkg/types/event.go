package types

import "encoding/json"

// AgentEventKind discriminates the AgentEvent union. Kept in sync with
// SPEC_FULL.md §9 — these discriminant names are also what the session
// journal serializes under the "type" field, so renaming one is a wire
// format break.
type AgentEventKind string

const (
	EventTextDelta    AgentEventKind = "text_delta"
	EventCodeBlock    AgentEventKind = "code_block"
	EventCodeOutput   AgentEventKind = "code_output"
	EventToolCall     AgentEventKind = "tool_call"
	EventSubAgentDone AgentEventKind = "sub_agent_done"
	EventLlmRequest   AgentEventKind = "llm_request"
	EventLlmResponse  AgentEventKind = "llm_response"
	EventMessage      AgentEventKind = "message"
	EventError        AgentEventKind = "error"
	EventDone         AgentEventKind = "done"
)

// MessageKind classifies an EventMessage.
type MessageKind string

const (
	MessageProgress MessageKind = "progress"
	MessageFinal    MessageKind = "final"
	MessageSay      MessageKind = "say"
)

// AgentEvent is the tagged union emitted on an Agent run's event stream.
// Kind selects the variant; each constructor fills only the fields that
// variant uses and leaves the rest zero. Some fields are shared across
// variants (LlmResponse also sets DurationMS and Content, SubAgentDone
// also sets Success). A struct-of-optional-fields is used instead of an interface
// union so the type is trivially JSON-serializable for the session journal
// without a custom marshaler per variant.
type AgentEvent struct {
	Kind AgentEventKind `json:"type"`

	// EventTextDelta
	Content string `json:"content,omitempty"`

	// EventCodeBlock
	Code string `json:"code,omitempty"`

	// EventCodeOutput
	Output string  `json:"output,omitempty"`
	Error  *string `json:"error,omitempty"`

	// EventToolCall
	ToolName   string          `json:"toolName,omitempty"`
	ToolArgs   json.RawMessage `json:"toolArgs,omitempty"`
	ToolResult json.RawMessage `json:"toolResult,omitempty"`
	Success    bool            `json:"success,omitempty"`
	DurationMS int64           `json:"durationMs,omitempty"`

	// EventSubAgentDone
	Task       string     `json:"task,omitempty"`
	Usage      TokenUsage `json:"usage,omitempty"`
	ToolCalls  int        `json:"toolCalls,omitempty"`
	Iterations int        `json:"iterations,omitempty"`

	// EventLlmRequest / EventLlmResponse
	Iteration int `json:"iteration,omitempty"`

	// EventMessage
	Text        string      `json:"text,omitempty"`
	MessageKind MessageKind `json:"messageKind,omitempty"`

	// EventError
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// TextDelta builds an EventTextDelta.
func TextDelta(content string) AgentEvent { return AgentEvent{Kind: EventTextDelta, Content: content} }

// CodeBlock builds an EventCodeBlock.
func CodeBlock(code string) AgentEvent { return AgentEvent{Kind: EventCodeBlock, Code: code} }

// CodeOutput builds an EventCodeOutput.
func CodeOutput(output string, errStr *string) AgentEvent {
	return AgentEvent{Kind: EventCodeOutput, Output: output, Error: errStr}
}

// ToolCallEvent builds an EventToolCall from a ToolCallRecord.
func ToolCallEvent(r ToolCallRecord) AgentEvent {
	return AgentEvent{
		Kind:       EventToolCall,
		ToolName:   r.Tool,
		ToolArgs:   r.Args,
		ToolResult: r.Result,
		Success:    r.Success,
		DurationMS: r.DurationMS,
	}
}

// SubAgentDone builds an EventSubAgentDone.
func SubAgentDone(task string, usage TokenUsage, toolCalls, iterations int, success bool) AgentEvent {
	return AgentEvent{
		Kind:       EventSubAgentDone,
		Task:       task,
		Usage:      usage,
		ToolCalls:  toolCalls,
		Iterations: iterations,
		Success:    success,
	}
}

// LlmRequest builds an EventLlmRequest.
func LlmRequest(iteration int) AgentEvent {
	return AgentEvent{Kind: EventLlmRequest, Iteration: iteration}
}

// LlmResponse builds an EventLlmResponse.
func LlmResponse(iteration int, durationMS int64, content string) AgentEvent {
	return AgentEvent{Kind: EventLlmResponse, Iteration: iteration, DurationMS: durationMS, Content: content}
}

// Msg builds an EventMessage.
func Msg(text string, kind MessageKind) AgentEvent {
	return AgentEvent{Kind: EventMessage, Text: text, MessageKind: kind}
}

// ErrorEvent builds a terminal EventError.
func ErrorEvent(message string) AgentEvent {
	return AgentEvent{Kind: EventError, ErrorMessage: message}
}

// DoneEvent builds the one-shot terminator EventDone.
func DoneEvent() AgentEvent { return AgentEvent{Kind: EventDone} }
