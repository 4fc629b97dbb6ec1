package toolprovider

import (
	"context"
	"fmt"

	"github.com/lashdev/lash/pkg/types"
)

// Composite dispatches execute(name) to the first provider whose
// definitions include name; definitions() concatenates all providers'
// definitions in order. An unknown name yields a structured error result,
// never a panic.
type Composite struct {
	providers []Provider
}

// NewComposite builds a Composite over the given providers, in dispatch
// order.
func NewComposite(providers ...Provider) *Composite {
	return &Composite{providers: append([]Provider(nil), providers...)}
}

// Add appends a provider and returns the receiver, for builder-style
// construction.
func (c *Composite) Add(p Provider) *Composite {
	c.providers = append(c.providers, p)
	return c
}

func (c *Composite) Definitions() []types.ToolDefinition {
	var defs []types.ToolDefinition
	for _, p := range c.providers {
		defs = append(defs, p.Definitions()...)
	}
	return defs
}

func (c *Composite) find(name string) Provider {
	for _, p := range c.providers {
		for _, d := range p.Definitions() {
			if d.Name == name {
				return p
			}
		}
	}
	return nil
}

func (c *Composite) Execute(ctx context.Context, name string, args []byte) types.ToolResult {
	if p := c.find(name); p != nil {
		return p.Execute(ctx, name, args)
	}
	return types.Err(fmt.Sprintf("unknown tool: %s", name))
}

func (c *Composite) ExecuteStreaming(ctx context.Context, name string, args []byte, progress chan<- string) types.ToolResult {
	if p := c.find(name); p != nil {
		if sp, ok := p.(StreamingProvider); ok {
			return sp.ExecuteStreaming(ctx, name, args, progress)
		}
		return p.Execute(ctx, name, args)
	}
	return types.Err(fmt.Sprintf("unknown tool: %s", name))
}

// Filtered wraps one provider behind an allow-set of names: filtered names
// are hidden from Definitions and rejected by Execute.
type Filtered struct {
	inner   Provider
	allowed map[string]struct{}
}

// NewFiltered builds a Filtered view over inner exposing only allowed
// names.
func NewFiltered(inner Provider, allowed ...string) *Filtered {
	set := make(map[string]struct{}, len(allowed))
	for _, n := range allowed {
		set[n] = struct{}{}
	}
	return &Filtered{inner: inner, allowed: set}
}

func (f *Filtered) Definitions() []types.ToolDefinition {
	var defs []types.ToolDefinition
	for _, d := range f.inner.Definitions() {
		if _, ok := f.allowed[d.Name]; ok {
			defs = append(defs, d)
		}
	}
	return defs
}

func (f *Filtered) Execute(ctx context.Context, name string, args []byte) types.ToolResult {
	if _, ok := f.allowed[name]; !ok {
		return types.Err(fmt.Sprintf("unknown tool: %s", name))
	}
	return f.inner.Execute(ctx, name, args)
}

func (f *Filtered) ExecuteStreaming(ctx context.Context, name string, args []byte, progress chan<- string) types.ToolResult {
	if _, ok := f.allowed[name]; !ok {
		return types.Err(fmt.Sprintf("unknown tool: %s", name))
	}
	if sp, ok := f.inner.(StreamingProvider); ok {
		return sp.ExecuteStreaming(ctx, name, args, progress)
	}
	return f.inner.Execute(ctx, name, args)
}

// ArcTool shares one Provider across multiple Composites — e.g. fanning the
// same tool set out to several sub-agents — without cloning it. It is a
// pure wrapper: both methods forward unchanged. The name recalls the
// source's Arc<dyn ToolProvider>; Go's garbage-collected pointers make the
// wrapper trivial, but it is kept as a distinct type so call sites document
// the sharing intent the way CompositeTools::add_arc does.
type ArcTool struct {
	inner Provider
}

// NewArcTool wraps inner for sharing across composites.
func NewArcTool(inner Provider) *ArcTool {
	return &ArcTool{inner: inner}
}

func (a *ArcTool) Definitions() []types.ToolDefinition { return a.inner.Definitions() }

func (a *ArcTool) Execute(ctx context.Context, name string, args []byte) types.ToolResult {
	return a.inner.Execute(ctx, name, args)
}

func (a *ArcTool) ExecuteStreaming(ctx context.Context, name string, args []byte, progress chan<- string) types.ToolResult {
	if sp, ok := a.inner.(StreamingProvider); ok {
		return sp.ExecuteStreaming(ctx, name, args, progress)
	}
	return a.inner.Execute(ctx, name, args)
}
