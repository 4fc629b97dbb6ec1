// Package agent implements the Agent–Session–Sandbox driver loop: rendering
// history into a prompt, streaming an LLM response, extracting and running
// code blocks against a Session, and emitting the resulting AgentEvent
// stream. Grounded on original_source/lash/src/agent/exec.rs and the
// teacher's internal/session/loop.go iteration/retry shape.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lashdev/lash/internal/provider"
	"github.com/lashdev/lash/internal/session"
	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/pkg/types"
)

// MaxLLMRetries caps LLM call retries at exactly one retry, per spec.md's
// "retried once" contract — narrower than the teacher's default of three.
const MaxLLMRetries = 1

// DefaultMaxContextChars is the conservative chars-per-token proxy compaction
// threshold, used when Config.MaxContextChars is zero.
const DefaultMaxContextChars = 120_000

// EventBufferSize is the AgentEvent stream's channel capacity, matching the
// "bounded ~100, blocking send" backpressure policy.
const EventBufferSize = 100

// DelegateModels resolves the model used by each delegation tier.
type DelegateModels struct {
	Quick    string // used by delegate_search
	Balanced string // used by delegate_task
	Thorough string // used by delegate_deep
}

// Config controls one Agent's behavior.
type Config struct {
	Model           string
	MaxIterations   int
	MaxContextChars int
	DelegateModels  DelegateModels
	// SubAgent marks this Agent as a delegation child: sub-agents do not
	// themselves expose delegate_* tools, bounding recursion depth.
	SubAgent bool
}

func (c Config) maxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return 20
}

func (c Config) maxContextChars() int {
	if c.MaxContextChars > 0 {
		return c.MaxContextChars
	}
	return DefaultMaxContextChars
}

// Agent binds one Session to one LLM provider client and drives the
// iteration loop described in spec.md §4.5.
type Agent struct {
	sess    *session.Session
	client  provider.Client
	store   *store.Store
	cfg     Config
	rebuild SessionFactory
	log     zerolog.Logger
}

// New builds an Agent over an already-constructed Session. rebuild may be
// nil, in which case a sandbox death aborts the run instead of being
// recovered — callers that want S6-style recovery pass the same
// SessionFactory they used to boot sess in the first place; the Agent
// reuses sess.Tools() so the rebuilt Session gets an equivalent tool set.
func New(sess *session.Session, client provider.Client, st *store.Store, cfg Config, rebuild SessionFactory) *Agent {
	return &Agent{
		sess:    sess,
		client:  client,
		store:   st,
		cfg:     cfg,
		rebuild: rebuild,
		log:     log.With().Str("component", "agent").Logger(),
	}
}

// Result is the aggregate outcome of one Run, used by delegate tools to
// build their SubAgentDone summary. Its fields are only safe to read after
// the AgentEvent channel returned alongside it has been drained to closure —
// the channel's close is the happens-before edge that makes the final
// writes to Result visible to the reader.
type Result struct {
	Usage      types.TokenUsage
	ToolCalls  int
	Iterations int
	Success    bool
}

// Run starts the iteration loop on its own goroutine and returns at once.
// The loop emits AgentEvents to events and closes events when it finishes
// (completion or cancellation); result is complete once events is closed.
// Model and tool failures surface as EventError on the stream.
func (a *Agent) Run(scope CancelScope, history []types.Message) (<-chan types.AgentEvent, *Result) {
	events := make(chan types.AgentEvent, EventBufferSize)
	result := &Result{}
	go a.run(scope, history, events, result)
	return events, result
}

func (a *Agent) run(scope CancelScope, history []types.Message, events chan<- types.AgentEvent, result *Result) {
	defer close(events)

	ctx := scope.Context()
	msgs := append([]types.Message(nil), history...)

	var pendingFinal string

iterationLoop:
	for iteration := 0; iteration < a.cfg.maxIterations(); iteration++ {
		if ctx.Err() != nil {
			trySend(events, types.ErrorEvent(fmt.Sprintf("cancelled: %v", ctx.Err())))
			return
		}
		result.Iterations = iteration + 1

		if shouldCompact(msgs, a.cfg.maxContextChars()) {
			compact(a.store, msgs)
		}

		pendingFinal = ""
		send(ctx, events, types.LlmRequest(iteration))

		content, usage, err := a.streamOnce(ctx, msgs)
		if err != nil {
			send(ctx, events, types.ErrorEvent(fmt.Sprintf("llm call failed: %v", err)))
			return
		}
		result.Usage = result.Usage.Add(usage)

		blocks, tail := extractFences(content)
		pendingFinal = tail

		if len(blocks) == 0 {
			send(ctx, events, types.TextDelta(content))
			send(ctx, events, types.LlmResponse(iteration, 0, content))
			assistantMsg := newAssistantMessage(proseParts(content))
			msgs = append(msgs, assistantMsg)
			if pendingFinal != "" {
				send(ctx, events, types.Msg(pendingFinal, types.MessageFinal))
			}
			result.Success = true
			send(ctx, events, types.DoneEvent())
			return
		}

		parts := make([]types.Part, 0, len(blocks)*3)
		for _, b := range blocks {
			if b.Prose != "" {
				send(ctx, events, types.TextDelta(b.Prose))
				parts = append(parts, newPart(types.PartProse, b.Prose))
			}
			pendingFinal = "" // discarded: trailing prose in an iteration that runs code never becomes the final answer

			send(ctx, events, types.CodeBlock(b.Code))
			parts = append(parts, newPart(types.PartCode, b.Code))

			execResult, err := a.sess.RunCode(ctx, b.Code)
			if err != nil {
				if ctx.Err() != nil {
					trySend(events, types.ErrorEvent(fmt.Sprintf("cancelled: %v", ctx.Err())))
					return
				}

				errStr := "sandbox died"
				send(ctx, events, types.CodeOutput("", &errStr))
				parts = append(parts, newPart(types.PartError, errStr))
				msgs = append(msgs, newAssistantMessageFrom(parts))
				send(ctx, events, types.Msg("sandbox restarted", types.MessageProgress))

				newSess, rebuildErr := a.rebuildSession(ctx)
				if rebuildErr != nil {
					send(ctx, events, types.ErrorEvent(fmt.Sprintf("sandbox rebuild failed: %v", rebuildErr)))
					return
				}
				a.sess = newSess
				continue iterationLoop
			}

			for _, tc := range execResult.ToolCalls {
				result.ToolCalls++
				send(ctx, events, types.ToolCallEvent(tc))
				if isDelegateTool(tc.Tool) {
					send(ctx, events, subAgentDoneFromResult(tc))
				}
			}

			send(ctx, events, types.CodeOutput(execResult.Output, execResult.Error))
			if execResult.Output != "" {
				parts = append(parts, newPart(types.PartOutput, execResult.Output))
			}
			if execResult.Error != nil {
				parts = append(parts, newPart(types.PartError, *execResult.Error))
			}
			if execResult.Response != "" {
				// response(...) is an explicit final-answer call from inside
				// the sandbox; it wins over any trailing prose in the stream,
				// which the CodeBlock discard above has already cleared.
				pendingFinal = execResult.Response
			}
		}
		send(ctx, events, types.LlmResponse(iteration, 0, content))
		msgs = append(msgs, newAssistantMessageFrom(parts))
	}

	if pendingFinal != "" {
		send(ctx, events, types.Msg(pendingFinal, types.MessageFinal))
	}
	result.Success = true
	send(ctx, events, types.DoneEvent())
}

// streamOnce drives one LLM call with a single retry on failure, using
// exponential backoff with jitter — grounded on the teacher's
// internal/session/loop.go newRetryBackoff, capped at MaxLLMRetries.
func (a *Agent) streamOnce(ctx context.Context, history []types.Message) (string, types.TokenUsage, error) {
	chat := types.MessagesToChat(history)

	var content string
	var usage types.TokenUsage

	op := func() error {
		content, usage = "", types.TokenUsage{}
		ch, err := a.client.Stream(ctx, a.cfg.Model, chat)
		if err != nil {
			return err
		}
		for chunk := range ch {
			switch chunk.Kind {
			case provider.ChunkText:
				content += chunk.Text
			case provider.ChunkDone:
				usage = chunk.Usage
			case provider.ChunkError:
				return chunk.Err
			}
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newRetryBackoff(), MaxLLMRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", types.TokenUsage{}, err
	}
	return content, usage, nil
}

// newRetryBackoff mirrors the teacher's internal/session/loop.go
// newRetryBackoff constants; only the retry count (MaxLLMRetries) differs.
func newRetryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	b.RandomizationFactor = 0.5
	return b
}

func send(ctx context.Context, events chan<- types.AgentEvent, ev types.AgentEvent) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// trySend delivers ev without waiting, for events sent once ctx is already
// done, where send could pick ctx.Done() over a free buffer slot.
func trySend(events chan<- types.AgentEvent, ev types.AgentEvent) {
	select {
	case events <- ev:
	default:
	}
}

func newPart(kind types.PartKind, content string) types.Part {
	return types.Part{ID: uuid.NewString(), Kind: kind, Content: content, PruneState: types.PruneState{Status: types.PruneIntact}}
}

func proseParts(text string) []types.Part {
	if text == "" {
		return nil
	}
	return []types.Part{newPart(types.PartProse, text)}
}

func newAssistantMessage(parts []types.Part) types.Message {
	return types.Message{ID: uuid.NewString(), Role: types.RoleAssistant, Parts: parts}
}

func newAssistantMessageFrom(parts []types.Part) types.Message {
	return newAssistantMessage(parts)
}

func isDelegateTool(name string) bool {
	return name == DelegateSearchName || name == DelegateTaskName || name == DelegateDeepName
}

// rebuildSession boots a replacement Session over the same tool set as the
// dying one and closes the old one, per the S6 sandbox-death recovery
// scenario. It returns an error if no SessionFactory was configured or the
// rebuild itself fails, in which case the caller aborts the run.
func (a *Agent) rebuildSession(ctx context.Context) (*session.Session, error) {
	if a.rebuild == nil {
		return nil, fmt.Errorf("no session factory configured for sandbox recovery")
	}
	newSess, err := a.rebuild(ctx, a.sess.Tools())
	if err != nil {
		return nil, err
	}
	a.sess.Close()
	return newSess, nil
}

// subAgentDoneFromResult builds a SubAgentDone event from a delegate tool's
// ToolCallRecord, extracting the embedded _sub_agent statistics object
// instead of fabricating them — grounded on
// original_source/lash/src/agent/exec.rs's delegate bookkeeping.
func subAgentDoneFromResult(tc types.ToolCallRecord) types.AgentEvent {
	var parsed struct {
		SubAgent subAgentStats `json:"_sub_agent"`
	}
	if err := json.Unmarshal(tc.Result, &parsed); err != nil {
		return types.SubAgentDone(tc.Tool, types.TokenUsage{}, 0, 0, tc.Success)
	}
	stats := parsed.SubAgent
	return types.SubAgentDone(stats.Task, stats.Usage, stats.ToolCalls, stats.Iterations, tc.Success)
}
