package types

import "encoding/json"

// ToolParam is one typed parameter of a ToolDefinition.
type ToolParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "str", "int", "float", "bool", "list", "dict", "any"
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// TypedParam returns a required parameter of the given type.
func TypedParam(name, typ string) ToolParam {
	return ToolParam{Name: name, Type: typ, Required: true}
}

// OptionalParam returns an optional parameter of the given type.
func OptionalParam(name, typ string) ToolParam {
	return ToolParam{Name: name, Type: typ, Required: false}
}

// ToolDefinition describes one tool's name, description, parameters and
// return type as exposed to the sandboxed interpreter and, transitively,
// to the LLM.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ToolParam `json:"params,omitempty"`
	Returns     string      `json:"returns,omitempty"`
	Hidden      bool        `json:"hidden,omitempty"`
}

// Signature formats the definition as a typed signature, e.g.
// "grep(pattern: str, path: str = None) -> list".
func (d ToolDefinition) Signature() string {
	out := d.Name + "("
	for i, p := range d.Params {
		if i > 0 {
			out += ", "
		}
		out += p.Name + ": " + p.Type
		if !p.Required {
			out += " = None"
		}
	}
	ret := d.Returns
	if ret == "" {
		ret = "any"
	}
	out += ") -> " + ret
	return out
}

// FormatToolDocs renders a documentation block for a set of tool
// definitions, suitable for the sandbox `init` frame and for the system
// prompt's tool catalog.
func FormatToolDocs(defs []ToolDefinition) string {
	out := ""
	for i, d := range defs {
		if d.Hidden {
			continue
		}
		if i > 0 {
			out += "\n"
		}
		line := "- `" + d.Signature() + "`"
		if d.Description != "" {
			line += " — " + d.Description
		}
		for _, p := range d.Params {
			if p.Description != "" {
				line += "\n    - `" + p.Name + "`: " + p.Description
			}
		}
		out += line
	}
	return out
}

// ToolResult is the outcome of executing a tool.
type ToolResult struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// OK wraps a successful result value, marshaling it to JSON.
func OK(v any) ToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(err.Error())
		return ToolResult{Success: false, Result: b}
	}
	return ToolResult{Success: true, Result: b}
}

// Err wraps a failed result message.
func Err(msg string) ToolResult {
	b, _ := json.Marshal(msg)
	return ToolResult{Success: false, Result: b}
}

// ToolCallRecord is a reified record of one tool invocation performed
// during an exec, carried on ExecResponse.ToolCalls.
type ToolCallRecord struct {
	Tool       string          `json:"tool"`
	Args       json.RawMessage `json:"args"`
	Result     json.RawMessage `json:"result"`
	Success    bool            `json:"success"`
	DurationMS int64           `json:"durationMs"`
}

// ToolImage is an image attachment produced by a tool during an exec.
type ToolImage struct {
	Filename  string `json:"filename"`
	MediaType string `json:"mediaType"`
	URL       string `json:"url"`
}

// ExecResponse is the result of one Sandbox exec cycle.
type ExecResponse struct {
	Output     string           `json:"output"`
	Response   string           `json:"response,omitempty"`
	Error      *string          `json:"error,omitempty"`
	ToolCalls  []ToolCallRecord `json:"toolCalls,omitempty"`
	Images     []ToolImage      `json:"images,omitempty"`
}
