// Package toolprovider defines the ToolProvider composition contract:
// flat name->handler registries plus the Composite, Filtered and ArcTool
// combinators required by spec.md §4.2. Grounded on
// original_source/lash/src/tools/composite.rs.
package toolprovider

import (
	"context"
	"fmt"

	"github.com/lashdev/lash/pkg/types"
)

// Provider exposes a flat registry of tools to a Session's sandbox bridge.
// Implementations must be safe for concurrent Execute calls on distinct
// names; concurrent calls to the same name are also allowed unless the
// handler itself serializes internally.
type Provider interface {
	Definitions() []types.ToolDefinition
	Execute(ctx context.Context, name string, args []byte) types.ToolResult
}

// StreamingProvider is an optional extension: a Provider may additionally
// accept a progress channel to emit intermediate status during a long
// tool call. Composite forwards it through unchanged.
type StreamingProvider interface {
	Provider
	ExecuteStreaming(ctx context.Context, name string, args []byte, progress chan<- string) types.ToolResult
}

// HandlerFunc implements one tool's Execute logic.
type HandlerFunc func(ctx context.Context, args []byte) types.ToolResult

// Static is a single fixed tool: one ToolDefinition plus its handler.
// Grounded on the teacher's BaseTool/NewBaseTool pattern
// (internal/tool/tool.go).
type Static struct {
	def     types.ToolDefinition
	handler HandlerFunc
}

// NewStatic builds a Static provider exposing exactly one tool.
func NewStatic(def types.ToolDefinition, handler HandlerFunc) *Static {
	return &Static{def: def, handler: handler}
}

func (s *Static) Definitions() []types.ToolDefinition { return []types.ToolDefinition{s.def} }

func (s *Static) Execute(ctx context.Context, name string, args []byte) types.ToolResult {
	if name != s.def.Name {
		return types.Err(fmt.Sprintf("unknown tool: %s", name))
	}
	return s.handler(ctx, args)
}
