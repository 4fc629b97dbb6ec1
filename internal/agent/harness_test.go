package agent

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lashdev/lash/internal/protocol"
	"github.com/lashdev/lash/internal/sandbox"
	"github.com/lashdev/lash/internal/session"
	"github.com/lashdev/lash/internal/toolprovider"
)

// fakeChild drives a Session's Sandbox from the child side of an in-memory
// pipe pair, standing in for cmd/sandboxworker in tests that cannot spawn a
// real process.
type fakeChild struct {
	enc *protocol.Encoder
	dec *protocol.Decoder
	out *io.PipeWriter
}

// newSessionHarness boots a Session backed by a fake child, consuming the
// init-frame handshake before returning.
func newSessionHarness(t *testing.T, tools toolprovider.Provider) (*session.Session, *fakeChild) {
	t.Helper()
	hostToChild, hostToChildW := io.Pipe()
	childToHostR, childToHostW := io.Pipe()

	child := &fakeChild{
		enc: protocol.NewEncoder(childToHostW),
		dec: protocol.NewDecoder(hostToChild),
		out: childToHostW,
	}
	go func() { _ = child.enc.Encode(protocol.ChildFrame{Type: protocol.ChildReady}) }()

	sb, err := sandbox.NewFromPipes(context.Background(), hostToChildW, childToHostR)
	require.NoError(t, err)

	if tools == nil {
		tools = toolprovider.NewComposite()
	}
	require.NoError(t, sb.Init(tools))

	var initFrame protocol.HostFrame
	require.NoError(t, child.dec.Decode(&initFrame))
	require.Equal(t, protocol.HostInit, initFrame.Type)

	return session.NewFromSandbox(sb, tools), child
}

// echoExecOnce replies to exactly one exec frame with output.
func echoExecOnce(t *testing.T, child *fakeChild, output string) {
	t.Helper()
	go func() {
		var f protocol.HostFrame
		if err := child.dec.Decode(&f); err != nil {
			return
		}
		_ = child.enc.Encode(protocol.ChildFrame{Type: protocol.ChildExecResult, ID: f.ID, Output: output})
	}()
}

// killChildOnExecOnce waits for the next exec frame, then kills the child
// side of the pipe without replying — simulating the sandbox process dying
// mid-exec, per scenario S6.
func killChildOnExecOnce(t *testing.T, child *fakeChild) {
	t.Helper()
	go func() {
		var f protocol.HostFrame
		if err := child.dec.Decode(&f); err != nil {
			return
		}
		_ = child.out.Close()
	}()
}
