package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	frames := []HostFrame{
		NewInit("- `grep(pattern: str) -> list`"),
		NewExec("e1", "print(1)"),
		NewToolResult("t1", true, `{"ok":true}`),
		NewSnapshot("s1"),
		NewRestore("s1", "blob"),
		NewShutdown(),
	}
	for _, f := range frames {
		require.NoError(t, enc.Encode(f))
	}

	dec := NewDecoder(&buf)
	for _, want := range frames {
		var got HostFrame
		require.NoError(t, dec.Decode(&got))
		require.Equal(t, want, got)
	}
}

func TestChildFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	errStr := "boom"
	frames := []ChildFrame{
		{Type: ChildReady},
		{Type: ChildToolCall, ID: "c1", Name: "grep", Args: `{"pattern":"foo"}`},
		{Type: ChildMessage, Text: "working", Kind: "progress"},
		{Type: ChildExecResult, ID: "e1", Output: "4\n"},
		{Type: ChildExecResult, ID: "e2", Error: &errStr},
		{Type: ChildSnapshotResult, ID: "s1", Data: "blob"},
	}
	for _, f := range frames {
		require.NoError(t, enc.Encode(f))
	}

	dec := NewDecoder(&buf)
	for _, want := range frames {
		var got ChildFrame
		require.NoError(t, dec.Decode(&got))
		require.Equal(t, want, got)
	}
}
