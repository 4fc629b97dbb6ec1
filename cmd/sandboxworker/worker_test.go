package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lashdev/lash/internal/protocol"
)

func newTestWorker(t *testing.T) (*worker, *protocol.Decoder) {
	t.Helper()
	r, w := io.Pipe()
	enc := protocol.NewEncoder(w)
	dec := protocol.NewDecoder(r)
	return newWorker(t.TempDir(), enc), dec
}

func TestExecRunsPlainShellAndCapturesStdout(t *testing.T) {
	w, dec := newTestWorker(t)
	go drainFrames(dec)

	output, response, errStr := w.exec(context.Background(), "1", "echo -n hello")
	require.Nil(t, errStr)
	require.Equal(t, "hello", output)
	require.Empty(t, response)
}

func TestExecReportsNonZeroExitAsError(t *testing.T) {
	w, dec := newTestWorker(t)
	go drainFrames(dec)

	_, _, errStr := w.exec(context.Background(), "1", "exit 1")
	require.NotNil(t, errStr)
}

func TestExecPersistsVariablesAcrossCalls(t *testing.T) {
	w, dec := newTestWorker(t)
	go drainFrames(dec)

	_, _, errStr := w.exec(context.Background(), "1", "export FOO=bar")
	require.Nil(t, errStr)

	output, _, errStr := w.exec(context.Background(), "2", "echo -n $FOO")
	require.Nil(t, errStr)
	require.Equal(t, "bar", output)
}

func TestExecCapturesResponseCall(t *testing.T) {
	w, dec := newTestWorker(t)
	go drainFrames(dec)

	_, response, errStr := w.exec(context.Background(), "1", `response "final answer"`)
	require.Nil(t, errStr)
	require.Equal(t, "final answer", response)
}

func TestExecToolCallRoundTrips(t *testing.T) {
	w, dec := newTestWorker(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var frame protocol.ChildFrame
		require.NoError(t, dec.Decode(&frame))
		require.Equal(t, protocol.ChildToolCall, frame.Type)
		require.Equal(t, "read_file", frame.Name)
		w.deliverToolResult(protocol.HostFrame{Type: protocol.HostToolResult, ID: frame.ID, Success: true, Result: `"file contents"`})
	}()

	output, _, errStr := w.exec(context.Background(), "1", `tool_call read_file '{"path":"a.txt"}'`)
	require.Nil(t, errStr)
	require.Equal(t, `"file contents"`, output)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tool_call frame was never observed")
	}
}

func TestExecToolCallFailurePropagatesNonZeroExit(t *testing.T) {
	w, dec := newTestWorker(t)

	go func() {
		var frame protocol.ChildFrame
		_ = dec.Decode(&frame)
		w.deliverToolResult(protocol.HostFrame{Type: protocol.HostToolResult, ID: frame.ID, Success: false, Result: `"not found"`})
	}()

	output, _, errStr := w.exec(context.Background(), "1", `tool_call read_file '{"path":"missing.txt"}' || echo -n failed`)
	require.Nil(t, errStr)
	require.Equal(t, `"not found"failed`, output)
}

func TestCancelCurrentInterruptsRunningExec(t *testing.T) {
	w, dec := newTestWorker(t)
	go drainFrames(dec)

	resultCh := make(chan *string, 1)
	go func() {
		_, _, errStr := w.exec(context.Background(), "1", "sleep 5")
		resultCh <- errStr
	}()

	// Give exec a moment to register itself as current before cancelling.
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.currentID == "1"
	}, time.Second, time.Millisecond)

	w.cancelCurrent("1")

	select {
	case errStr := <-resultCh:
		require.NotNil(t, errStr)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled exec never returned")
	}
}

func drainFrames(dec *protocol.Decoder) {
	for {
		var frame protocol.ChildFrame
		if err := dec.Decode(&frame); err != nil {
			return
		}
	}
}
