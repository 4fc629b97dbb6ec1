package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lashdev/lash/internal/provider"
	"github.com/lashdev/lash/internal/session"
	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/internal/toolprovider"
	"github.com/lashdev/lash/pkg/types"
)

// Delegation tool names, recognized specially by the parent loop (see
// isDelegateTool) only to decide whether to additionally emit
// SubAgentDone — the tools themselves are otherwise ordinary ToolProviders.
const (
	DelegateSearchName = "delegate_search"
	DelegateTaskName   = "delegate_task"
	DelegateDeepName   = "delegate_deep"
)

// maxTurns per tier, grounded 1:1 on
// original_source/lash/src/tools/delegate_task.rs's Tier::max_turns.
const (
	tierSearchMaxTurns = 5
	tierTaskMaxTurns   = 10
	tierDeepMaxTurns   = 20
)

// SessionFactory boots a fresh Session for a delegated sub-agent over the
// given tool set — each delegation gets its own sandbox, never the
// parent's.
type SessionFactory func(ctx context.Context, tools toolprovider.Provider) (*session.Session, error)

// DelegateDeps carries everything a delegation tool needs beyond its own
// tier-specific name, description and max_turns.
type DelegateDeps struct {
	// Base is the tool set the sub-agent is allowed to use. It must not
	// itself contain delegate_search/delegate_task/delegate_deep — callers
	// build it from the non-delegate provider set, bounding recursion depth
	// the way delegate_task.rs composes only its non-delegate tools.
	Base       toolprovider.Provider
	Client     provider.Client
	Store      *store.Store
	NewSession SessionFactory
}

type delegateArgs struct {
	Task string `json:"task"`
}

// subAgentStats is the "_sub_agent" object embedded in a delegate tool's
// JSON result, read back by the parent loop (subAgentDoneFromResult) to
// build a truthful SubAgentDone event instead of fabricating one.
type subAgentStats struct {
	Task       string           `json:"task"`
	Usage      types.TokenUsage `json:"usage"`
	ToolCalls  int              `json:"tool_calls"`
	Iterations int              `json:"iterations"`
	Success    bool             `json:"success"`
}

// delegateResult is a delegate tool's JSON return value: the sub-agent's
// final prose plus the breadcrumb trail of prose that preceded each of its
// code blocks, grounded on original_source/lash/src/tools/delegate_task.rs's
// {"result": ..., "context": [...]} shape, plus the _sub_agent stats object
// original_source/lash/src/agent/exec.rs expects to find on delegate
// ToolCall results.
type delegateResult struct {
	Result   string        `json:"result"`
	Context  []string      `json:"context"`
	SubAgent subAgentStats `json:"_sub_agent"`
}

// NewDelegateSearch builds the delegate_search tool: a short, cheap
// sub-agent lookup, tier Quick, max_turns 5.
func NewDelegateSearch(deps DelegateDeps, model string) *toolprovider.Static {
	return newDelegateTool(deps, DelegateSearchName,
		"Delegate a quick, narrow lookup to a sub-agent.", model, tierSearchMaxTurns)
}

// NewDelegateTask builds the delegate_task tool: a balanced sub-agent run,
// tier Balanced, max_turns 10.
func NewDelegateTask(deps DelegateDeps, model string) *toolprovider.Static {
	return newDelegateTool(deps, DelegateTaskName,
		"Delegate a self-contained task to a sub-agent.", model, tierTaskMaxTurns)
}

// NewDelegateDeep builds the delegate_deep tool: a long-running, thorough
// sub-agent run, tier Thorough, max_turns 20.
func NewDelegateDeep(deps DelegateDeps, model string) *toolprovider.Static {
	return newDelegateTool(deps, DelegateDeepName,
		"Delegate an open-ended, multi-step investigation to a sub-agent.", model, tierDeepMaxTurns)
}

func newDelegateTool(deps DelegateDeps, name, description, model string, maxTurns int) *toolprovider.Static {
	def := types.ToolDefinition{
		Name:        name,
		Description: description + ` Returns {"result": str, "context": [str]}.`,
		Params:      []types.ToolParam{types.TypedParam("task", "str")},
		Returns:     "dict",
	}
	handler := func(ctx context.Context, raw []byte) types.ToolResult {
		var args delegateArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return types.Err(fmt.Sprintf("%s: invalid args: %v", name, err))
		}
		if args.Task == "" {
			return types.Err(fmt.Sprintf("%s: task is required", name))
		}

		sess, err := deps.NewSession(ctx, deps.Base)
		if err != nil {
			return types.Err(fmt.Sprintf("%s: boot sub-agent session: %v", name, err))
		}
		defer sess.Close()

		child := New(sess, deps.Client, deps.Store, Config{
			Model:         model,
			MaxIterations: maxTurns,
			SubAgent:      true,
		}, deps.NewSession)

		history := []types.Message{
			{ID: uuid.NewString(), Role: types.RoleUser, Parts: []types.Part{newPart(types.PartProse, args.Task)}},
		}
		scope := NewCancelScope(ctx)
		events, result := child.Run(scope, history)

		var final string
		var failed bool
		var breadcrumbs []string
		var currentProse string
		for ev := range events {
			switch ev.Kind {
			case types.EventTextDelta:
				currentProse += ev.Content
			case types.EventCodeBlock:
				// Preceding prose was intermediate reasoning, not the final
				// answer — capture it as a breadcrumb, matching
				// delegate_task.rs.
				if trimmed := strings.TrimSpace(currentProse); trimmed != "" {
					breadcrumbs = append(breadcrumbs, trimmed)
				}
				currentProse = ""
			case types.EventMessage:
				if ev.MessageKind == types.MessageFinal {
					final = ev.Text
				}
			case types.EventError:
				failed = true
				final = ev.ErrorMessage
			}
		}
		if final == "" {
			final = strings.TrimSpace(currentProse)
		}

		if failed || !result.Success {
			return types.Err(fmt.Sprintf("%s: sub-agent did not complete: %s", name, final))
		}

		return types.OK(delegateResult{
			Result:  final,
			Context: breadcrumbs,
			SubAgent: subAgentStats{
				Task:       args.Task,
				Usage:      result.Usage,
				ToolCalls:  result.ToolCalls,
				Iterations: result.Iterations,
				Success:    result.Success,
			},
		})
	}
	return toolprovider.NewStatic(def, handler)
}
