package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFencesNoFence(t *testing.T) {
	blocks, tail := extractFences("just some prose, no code here")
	require.Empty(t, blocks)
	require.Equal(t, "just some prose, no code here", tail)
}

func TestExtractFencesSingleBlock(t *testing.T) {
	raw := "intro text\n```python\nprint(1)\n```\noutro text"
	blocks, tail := extractFences(raw)
	require.Len(t, blocks, 1)
	require.Equal(t, "intro text\n", blocks[0].Prose)
	require.Equal(t, "print(1)", blocks[0].Code)
	require.Equal(t, "\noutro text", tail)
}

func TestExtractFencesMultipleBlocks(t *testing.T) {
	raw := "a\n```\none()\n```\nb\n```\ntwo()\n```\nc"
	blocks, tail := extractFences(raw)
	require.Len(t, blocks, 2)
	require.Equal(t, "one()", blocks[0].Code)
	require.Equal(t, "two()", blocks[1].Code)
	require.Equal(t, "\nb\n", blocks[1].Prose)
	require.Equal(t, "\nc", tail)
}

func TestExtractFencesUnterminatedIsLeftInTail(t *testing.T) {
	raw := "done so far\n```python\nprint('oops, never closes')"
	blocks, tail := extractFences(raw)
	require.Empty(t, blocks)
	require.Equal(t, raw, tail)
}

func TestExtractFencesNoLanguageTag(t *testing.T) {
	raw := "```\nbare()\n```"
	blocks, _ := extractFences(raw)
	require.Len(t, blocks, 1)
	require.Equal(t, "bare()", blocks[0].Code)
}
