package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/pkg/types"
)

func msgWithParts(parts ...types.Part) types.Message {
	return types.Message{ID: "m", Role: types.RoleAssistant, Parts: parts}
}

func intactPart(kind types.PartKind, content string) types.Part {
	return types.Part{ID: "p", Kind: kind, Content: content,
		PruneState: types.PruneState{Status: types.PruneIntact}}
}

func TestShouldCompactThreshold(t *testing.T) {
	small := []types.Message{msgWithParts(intactPart(types.PartProse, "hi"))}
	require.False(t, shouldCompact(small, 100))

	big := []types.Message{msgWithParts(intactPart(types.PartProse, strings.Repeat("x", 200)))}
	require.True(t, shouldCompact(big, 100))
}

func TestCompactPrunesOutputBeforeCode(t *testing.T) {
	st := store.New()
	longOutput := strings.Repeat("o", 500)
	longCode := strings.Repeat("c", 500)
	msgs := []types.Message{
		msgWithParts(
			intactPart(types.PartCode, longCode),
			intactPart(types.PartOutput, longOutput),
		),
	}

	compact(st, msgs)

	require.Equal(t, types.PruneSummarized, msgs[0].Parts[1].PruneState.Status, "output part should be pruned first")
	_, archived := st.GetArchive(msgs[0].Parts[1].PruneState.ArchiveHash)
	require.True(t, archived)
}

func TestCompactLeavesProsePartsAlone(t *testing.T) {
	st := store.New()
	msgs := []types.Message{msgWithParts(intactPart(types.PartProse, strings.Repeat("p", 1000)))}
	compact(st, msgs)
	require.Equal(t, types.PruneIntact, msgs[0].Parts[0].PruneState.Status,
		"compact only targets Output/Error/Code parts, never Prose")
}
