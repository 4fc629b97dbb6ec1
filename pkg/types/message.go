// Package types holds the wire-stable structures shared across the
// agent, session, sandbox and store packages: the structured Message/Part
// history, tool definitions and results, and the AgentEvent stream.
package types

import "fmt"

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one logical turn in the dialogue.
//
// A Message is mutated only by pruning: pruning replaces a Part's
// PruneState in place and archives the original content in the Store. Part
// ids are never renumbered after creation — they are the stable reference
// used by breadcrumbs and the view_message tool.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// CharCount returns the total rendered length of all parts. Used by the
// agent's compaction trigger as a conservative proxy for token count.
func (m Message) CharCount() int {
	total := 0
	for _, p := range m.Parts {
		total += len(p.Render())
	}
	return total
}

// PartKind classifies the semantic content of a Part.
type PartKind string

const (
	PartText   PartKind = "text"
	PartCode   PartKind = "code"
	PartOutput PartKind = "output"
	PartError  PartKind = "error"
	PartProse  PartKind = "prose"
)

// PruneStatus discriminates the three states a Part's content can be in.
type PruneStatus string

const (
	PruneIntact     PruneStatus = "intact"
	PruneDeleted    PruneStatus = "deleted"
	PruneSummarized PruneStatus = "summarized"
)

// PruneState carries the full pruning state of a Part. Only the fields
// relevant to Status are meaningful; Render uses Status as the discriminant
// the way the source Rust enum does.
type PruneState struct {
	Status      PruneStatus `json:"status"`
	Breadcrumb  string      `json:"breadcrumb,omitempty"`  // set when Status == PruneDeleted
	Summary     string      `json:"summary,omitempty"`     // set when Status == PruneSummarized
	ArchiveHash string      `json:"archiveHash,omitempty"` // set when Status != PruneIntact
}

// Part is the finest-grained unit of Message content.
type Part struct {
	ID         string      `json:"id"`
	Kind       PartKind    `json:"kind"`
	Content    string      `json:"content"`
	PruneState PruneState  `json:"pruneState"`
}

// Render renders a Part deterministically and purely from its current
// content and prune state, per the rendering contract in spec.md §3.
func (p Part) Render() string {
	switch p.PruneState.Status {
	case PruneDeleted:
		return fmt.Sprintf("[pruned:%s — %s]", p.PruneState.ArchiveHash, p.PruneState.Breadcrumb)
	case PruneSummarized:
		return fmt.Sprintf("[SUMMARY of original %s]\n%s", p.PruneState.ArchiveHash, p.PruneState.Summary)
	default:
		return p.Content
	}
}

// ImageRefPrefix marks a User Part whose rendered content references an
// attachment by index rather than carrying literal text — see
// SPEC_FULL.md §3.
const ImageRefPrefix = "__LASH_IMAGE_IDX:"

// ChatMsg is one entry of the rendered wire format handed to the LLM
// provider client. Kind is "text" or "image"; for "image" ImageIdx is the
// attachment index parsed from the Part's ImageRefPrefix reference.
type ChatMsg struct {
	Role    Role
	Content string
	Kind    string
	ImageIdx int
}

// ToChatMsgs renders a Message into the provider wire format, following the
// tagging contract of spec.md §4.5 step 1: System parts are wrapped in
// <code>/<output>/<error> tags by kind, Assistant parts wrap only Code in
// <code> tags, User/Assistant otherwise render without tags. A User message
// is expanded into one ChatMsg per Part so that image references can be
// split out as distinct entries.
func (m Message) ToChatMsgs() []ChatMsg {
	if m.Role != RoleUser {
		return []ChatMsg{m.toSingleChatMsg()}
	}
	if len(m.Parts) == 0 {
		return []ChatMsg{m.toSingleChatMsg()}
	}
	out := make([]ChatMsg, 0, len(m.Parts))
	for _, part := range m.Parts {
		rendered := part.Render()
		if idx, ok := parseImageRef(rendered); ok {
			out = append(out, ChatMsg{Role: RoleUser, Kind: "image", ImageIdx: idx})
			continue
		}
		out = append(out, ChatMsg{Role: RoleUser, Content: rendered, Kind: "text", ImageIdx: -1})
	}
	return out
}

func (m Message) toSingleChatMsg() ChatMsg {
	content := ""
	switch m.Role {
	case RoleSystem:
		parts := make([]string, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, tagPart(p, true))
		}
		content = joinDouble(parts)
	case RoleAssistant:
		parts := make([]string, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, tagPart(p, false))
		}
		content = joinDouble(parts)
	default:
		parts := make([]string, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, p.Render())
		}
		content = joinDouble(parts)
	}
	return ChatMsg{Role: m.Role, Content: content, Kind: "text", ImageIdx: -1}
}

func tagPart(p Part, includeOutputError bool) string {
	rendered := p.Render()
	switch p.Kind {
	case PartCode:
		return fmt.Sprintf("<code>\n%s\n</code>", rendered)
	case PartOutput:
		if includeOutputError {
			return fmt.Sprintf("<output>\n%s\n</output>", rendered)
		}
		return rendered
	case PartError:
		if includeOutputError {
			return fmt.Sprintf("<error>\n%s\n</error>", rendered)
		}
		return rendered
	default:
		return rendered
	}
}

func joinDouble(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func parseImageRef(rendered string) (int, bool) {
	if len(rendered) <= len(ImageRefPrefix) || rendered[:len(ImageRefPrefix)] != ImageRefPrefix {
		return 0, false
	}
	var idx int
	if _, err := fmt.Sscanf(rendered[len(ImageRefPrefix):], "%d", &idx); err != nil {
		return 0, false
	}
	return idx, true
}

// MessagesToChat converts a full history into the provider wire format,
// expanding User messages part-by-part for image splitting — the Go
// counterpart of original_source/lash's messages_to_chat.
func MessagesToChat(msgs []Message) []ChatMsg {
	out := make([]ChatMsg, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToChatMsgs()...)
	}
	return out
}

// TokenUsage holds cumulative prompt/completion counters with
// addition-by-summation semantics across iterations and sub-agents.
type TokenUsage struct {
	Input     int `json:"input"`
	Output    int `json:"output"`
	Reasoning int `json:"reasoning,omitempty"`
}

// Add returns the element-wise sum of two TokenUsage values.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		Input:     u.Input + o.Input,
		Output:    u.Output + o.Output,
		Reasoning: u.Reasoning + o.Reasoning,
	}
}
