package agent

import (
	"fmt"

	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/pkg/types"
)

// shouldCompact reports whether the rendered history exceeds maxChars, a
// conservative chars-per-token proxy for the model's context window,
// grounded on the teacher's session.shouldCompact/MaxContextTokens check in
// internal/session/loop.go (adapted here since this repo carries no
// tokenizer dependency to count real tokens).
func shouldCompact(msgs []types.Message, maxChars int) bool {
	total := 0
	for _, m := range msgs {
		total += m.CharCount()
	}
	return total > maxChars
}

// compact prunes the oldest eligible Parts in place, archiving their
// original content in st and replacing PruneState with Summarized or
// Deleted — the operational half of the Message/Part pruning lifecycle.
// Output and Error parts are pruned first (cheapest to summarize, least
// useful once superseded), then Code; Prose and already-pruned parts are
// left alone. Pruning stops once msgs is at or below half the total
// rendered size it had when compact was called.
func compact(st *store.Store, msgs []types.Message) {
	budget := totalChars(msgs) / 2

	for _, kind := range []types.PartKind{types.PartOutput, types.PartError, types.PartCode} {
		for i := range msgs {
			for j := range msgs[i].Parts {
				if totalChars(msgs) <= budget {
					return
				}
				p := &msgs[i].Parts[j]
				if p.Kind != kind || p.PruneState.Status != types.PruneIntact {
					continue
				}
				archiveAndPrune(st, p)
			}
		}
	}
}

func archiveAndPrune(st *store.Store, p *types.Part) {
	hash, err := st.Archive(p.Content)
	if err != nil {
		// A hash collision is an internal invariant violation (spec.md
		// §4.4): leave the part intact rather than lose content.
		return
	}
	if len(p.Content) <= 200 {
		p.PruneState = types.PruneState{Status: types.PruneDeleted, ArchiveHash: hash,
			Breadcrumb: fmt.Sprintf("%s part, %d chars", p.Kind, len(p.Content))}
		p.Content = ""
		return
	}
	p.PruneState = types.PruneState{Status: types.PruneSummarized, ArchiveHash: hash,
		Summary: summarize(p.Content)}
	p.Content = ""
}

// summarize produces a short, deterministic stand-in summary. A real
// implementation would ask the model for one; this core keeps pruning
// synchronous and dependency-free, truncating instead.
func summarize(content string) string {
	const head = 160
	if len(content) <= head {
		return content
	}
	return content[:head] + fmt.Sprintf("... (%d more chars, archived)", len(content)-head)
}

func totalChars(msgs []types.Message) int {
	total := 0
	for _, m := range msgs {
		total += m.CharCount()
	}
	return total
}
