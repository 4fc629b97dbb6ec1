package manager

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lashdev/lash/internal/protocol"
	"github.com/lashdev/lash/internal/sandbox"
	"github.com/lashdev/lash/internal/session"
	"github.com/lashdev/lash/internal/toolprovider"
)

func newFakeSession(t *testing.T) *session.Session {
	t.Helper()
	hostToChild, hostToChildW := io.Pipe()
	childToHostR, childToHostW := io.Pipe()
	enc := protocol.NewEncoder(childToHostW)
	go func() { _ = enc.Encode(protocol.ChildFrame{Type: protocol.ChildReady}) }()
	go func() {
		dec := protocol.NewDecoder(hostToChild)
		for {
			var f protocol.HostFrame
			if err := dec.Decode(&f); err != nil {
				return
			}
			if f.Type == protocol.HostShutdown {
				return
			}
		}
	}()

	sb, err := sandbox.NewFromPipes(context.Background(), hostToChildW, childToHostR)
	require.NoError(t, err)
	tools := toolprovider.NewComposite()
	require.NoError(t, sb.Init(tools))
	return session.NewFromSandbox(sb, tools)
}

func TestTakePutBracket(t *testing.T) {
	m := New(time.Minute)
	_, ok := m.Take("conv-1")
	require.False(t, ok)

	sess := newFakeSession(t)
	m.Put("conv-1", sess)
	require.Equal(t, 1, m.Len())

	got, ok := m.Take("conv-1")
	require.True(t, ok)
	require.Same(t, sess, got)
	require.Equal(t, 0, m.Len())

	_, ok = m.Take("conv-1")
	require.False(t, ok)
}

func TestIdleTimeoutDropsSession(t *testing.T) {
	m := New(30 * time.Millisecond)
	sess := newFakeSession(t)
	m.Put("conv-2", sess)

	time.Sleep(100 * time.Millisecond)
	_, ok := m.Take("conv-2")
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestDestroyCancelsTimer(t *testing.T) {
	m := New(time.Hour)
	sess := newFakeSession(t)
	m.Put("conv-3", sess)
	m.Destroy("conv-3")
	require.Equal(t, 0, m.Len())
}
