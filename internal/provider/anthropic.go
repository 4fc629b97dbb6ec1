package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lashdev/lash/pkg/types"
)

// AnthropicConfig configures the Anthropic-backed Client, mirroring the
// teacher's internal/provider/anthropic.go AnthropicConfig shape (minus
// the Eino/Bedrock surface, which is out of this core's narrow contract).
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	MaxTokens int64
}

// AnthropicClient implements Client against the real Anthropic Messages
// API, used as the default provider when ANTHROPIC_API_KEY is set.
type AnthropicClient struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropicClient builds an AnthropicClient, falling back to
// ANTHROPIC_API_KEY from the environment when cfg.APIKey is empty.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("provider: ANTHROPIC_API_KEY not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}, nil
}

// Stream implements Client.
func (c *AnthropicClient) Stream(ctx context.Context, model string, messages []types.ChatMsg) (<-chan Chunk, error) {
	out := make(chan Chunk, 16)

	var system string
	msgs := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		if m.Role == types.RoleSystem {
			system = m.Content
			continue
		}
		if m.Kind == "image" {
			// Image attachments are resolved by the caller into actual
			// image blocks before reaching the wire format in a fuller
			// build; the core's narrow contract only requires that image
			// entries are distinguishable from text ones.
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == types.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		msgs = append(msgs, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)

	go func() {
		defer close(out)
		var usage types.TokenUsage
		for stream.Next() {
			event := stream.Current()
			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if text := variant.Delta.Text; text != "" {
					select {
					case out <- Chunk{Kind: ChunkText, Text: text}:
					case <-ctx.Done():
						return
					}
				}
			case anthropic.MessageDeltaEvent:
				usage.Output += int(variant.Usage.OutputTokens)
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- Chunk{Kind: ChunkError, Err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case out <- Chunk{Kind: ChunkDone, Usage: usage}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}
