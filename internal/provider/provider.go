// Package provider defines the narrow LLM provider client surface the
// agent core consumes (spec.md §6): Stream(model, messages) -> <-chan
// Chunk. Everything else — retries, authentication, base_url selection,
// model routing — is the provider's concern, not the core's.
package provider

import (
	"context"

	"github.com/lashdev/lash/pkg/types"
)

// ChunkKind discriminates a streamed Chunk.
type ChunkKind string

const (
	// ChunkText is an incremental text fragment of the model's response.
	ChunkText ChunkKind = "text"
	// ChunkDone signals the stream completed normally, carrying final
	// usage counters.
	ChunkDone ChunkKind = "done"
	// ChunkError signals the stream failed.
	ChunkError ChunkKind = "error"
)

// Chunk is one unit of a streamed completion.
type Chunk struct {
	Kind  ChunkKind
	Text  string
	Usage types.TokenUsage
	Err   error
}

// Client is the narrow surface the agent core calls against an LLM
// provider. Implementations own retries, authentication, base_url
// selection and model routing, and must be cancel-safe: cancelling ctx
// must close the returned channel promptly.
type Client interface {
	Stream(ctx context.Context, model string, messages []types.ChatMsg) (<-chan Chunk, error)
}
