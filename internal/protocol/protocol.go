// Package protocol defines the newline-delimited JSON wire protocol spoken
// between the Sandbox host and the cmd/sandboxworker child process.
// Grounded on original_source/kaml/src/protocol.rs.
package protocol

// HostFrame is one frame sent from host to child (stdin of the child).
type HostFrame struct {
	Type string `json:"type"`

	// init
	Tools string `json:"tools,omitempty"`

	// exec / snapshot / restore / tool_result share Id
	ID string `json:"id,omitempty"`

	// exec
	Code string `json:"code,omitempty"`

	// tool_result
	Success bool   `json:"success,omitempty"`
	Result  string `json:"result,omitempty"`

	// restore
	Data string `json:"data,omitempty"`
}

// Host frame type discriminants.
const (
	HostInit       = "init"
	HostExec       = "exec"
	HostToolResult = "tool_result"
	HostSnapshot   = "snapshot"
	HostRestore    = "restore"
	HostShutdown   = "shutdown"
	HostCancel     = "cancel"
)

// ChildFrame is one frame sent from child to host (stdout of the child).
type ChildFrame struct {
	Type string `json:"type"`

	// tool_call
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Args string `json:"args,omitempty"`

	// message
	Text string `json:"text,omitempty"`
	Kind string `json:"kind,omitempty"`

	// exec_result
	Output   string  `json:"output,omitempty"`
	Response string  `json:"response,omitempty"`
	Error    *string `json:"error,omitempty"`

	// snapshot_result / restore
	Data string `json:"data,omitempty"`
}

// Child frame type discriminants.
const (
	ChildReady          = "ready"
	ChildToolCall       = "tool_call"
	ChildMessage        = "message"
	ChildExecResult     = "exec_result"
	ChildSnapshotResult = "snapshot_result"
)

func NewInit(tools string) HostFrame { return HostFrame{Type: HostInit, Tools: tools} }

func NewExec(id, code string) HostFrame { return HostFrame{Type: HostExec, ID: id, Code: code} }

func NewToolResult(id string, success bool, result string) HostFrame {
	return HostFrame{Type: HostToolResult, ID: id, Success: success, Result: result}
}

func NewSnapshot(id string) HostFrame { return HostFrame{Type: HostSnapshot, ID: id} }

func NewRestore(id, data string) HostFrame { return HostFrame{Type: HostRestore, ID: id, Data: data} }

func NewShutdown() HostFrame { return HostFrame{Type: HostShutdown} }

func NewCancel(id string) HostFrame { return HostFrame{Type: HostCancel, ID: id} }
