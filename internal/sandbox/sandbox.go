// Package sandbox manages a persistent child interpreter process and
// exposes a single async Exec(code) -> ExecResponse operation, handling
// interleaved tool calls the child issues mid-exec. Grounded on
// original_source/kaml/src/protocol.rs and spec.md §4.1. The concrete
// child is cmd/sandboxworker, a persistent mvdan.cc/sh interpreter.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/lashdev/lash/internal/protocol"
	"github.com/lashdev/lash/internal/toolprovider"
	"github.com/lashdev/lash/pkg/types"
)

// CancelGrace is how long Exec waits for a cooperative interrupt to take
// effect before the child is killed outright.
const CancelGrace = 2 * time.Second

// ErrSandboxDead is returned by Exec once the child has exited or the pipe
// has failed; the Sandbox must be recreated.
var ErrSandboxDead = fmt.Errorf("sandbox: child process is dead")

// ErrExecInFlight is returned when Exec is called while another exec is
// already outstanding on the same Sandbox.
var ErrExecInFlight = fmt.Errorf("sandbox: exec already in flight")

type pendingExec struct {
	resultCh  chan execOutcome
	toolCalls []types.ToolCallRecord
	images    []types.ToolImage
	mu        sync.Mutex
}

type execOutcome struct {
	resp *types.ExecResponse
	err  error
}

// OnMessage is invoked for out-of-band "message" frames from the child
// (progress/final narration emitted during a running exec).
type OnMessageFunc func(text, kind string)

// Sandbox owns one child process for the lifetime of a Session.
type Sandbox struct {
	cmd    *exec.Cmd
	enc    *protocol.Encoder
	dec    *protocol.Decoder
	stderr *bytes.Buffer

	log zerolog.Logger

	mu      sync.Mutex
	dead    bool
	current *pendingExec
	currentID string

	readyCh chan struct{}
	readyOnce sync.Once

	snapshotWaiters map[string]chan string

	OnMessage OnMessageFunc

	tools toolprovider.Provider
}

// New spawns binPath as a child process and waits for its "ready" frame.
func New(ctx context.Context, binPath string, args []string, workDir string) (*Sandbox, error) {
	cmd := exec.CommandContext(context.Background(), binPath, args...) // lifetime independent of caller ctx; killed explicitly
	cmd.Dir = workDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("sandbox: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("sandbox: stdout pipe: %w", err)
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sandbox: start: %w", err)
	}

	sb := newFromPipes(stdin, stdout, &stderrBuf)
	sb.cmd = cmd

	return sb, waitReady(ctx, sb)
}

// newFromPipes wires the protocol encoder/decoder over an arbitrary
// stdin/stdout pair and starts the read loop, without spawning a process.
// Used by New (over a real child's pipes) and by tests (over an in-memory
// pipe driven by a fake child goroutine).
func newFromPipes(stdin io.Writer, stdout io.Reader, stderr *bytes.Buffer) *Sandbox {
	if stderr == nil {
		stderr = &bytes.Buffer{}
	}
	sb := &Sandbox{
		enc:             protocol.NewEncoder(stdin),
		dec:             protocol.NewDecoder(stdout),
		stderr:          stderr,
		log:             zerolog.Nop(),
		readyCh:         make(chan struct{}),
		snapshotWaiters: make(map[string]chan string),
	}
	go sb.readLoop()
	return sb
}

func waitReady(ctx context.Context, sb *Sandbox) error {
	select {
	case <-sb.readyCh:
		return nil
	case <-ctx.Done():
		sb.Kill()
		return ctx.Err()
	case <-time.After(10 * time.Second):
		sb.Kill()
		return fmt.Errorf("sandbox: timed out waiting for child ready")
	}
}

// NewFromPipes exposes newFromPipes/waitReady for package-external tests
// (e.g. internal/session) that need a Sandbox backed by a fake child.
func NewFromPipes(ctx context.Context, stdin io.Writer, stdout io.Reader) (*Sandbox, error) {
	sb := newFromPipes(stdin, stdout, nil)
	return sb, waitReady(ctx, sb)
}

// SetLogger attaches a structured logger used for diagnostic surfacing of
// stderr and protocol errors.
func (s *Sandbox) SetLogger(l zerolog.Logger) { s.log = l }

// Init sends the init frame documenting the tool catalog and records the
// provider used to service tool_call frames during execs.
func (s *Sandbox) Init(tools toolprovider.Provider) error {
	s.tools = tools
	docs := types.FormatToolDocs(tools.Definitions())
	return s.enc.Encode(protocol.NewInit(docs))
}

func (s *Sandbox) readLoop() {
	for {
		var frame protocol.ChildFrame
		if err := s.dec.Decode(&frame); err != nil {
			s.onDeath(err)
			return
		}
		switch frame.Type {
		case protocol.ChildReady:
			s.readyOnce.Do(func() { close(s.readyCh) })
		case protocol.ChildToolCall:
			go s.handleToolCall(frame)
		case protocol.ChildMessage:
			if s.OnMessage != nil {
				s.OnMessage(frame.Text, frame.Kind)
			}
		case protocol.ChildExecResult:
			s.resolveExec(frame)
		case protocol.ChildSnapshotResult:
			s.resolveSnapshot(frame.ID, frame.Data)
		default:
			s.onDeath(fmt.Errorf("sandbox: malformed frame type %q", frame.Type))
			return
		}
	}
}

func (s *Sandbox) handleToolCall(frame protocol.ChildFrame) {
	start := time.Now()

	result := func() (res types.ToolResult) {
		defer func() {
			if r := recover(); r != nil {
				res = types.Err(fmt.Sprintf("panic: %v", r))
			}
		}()
		if s.tools == nil {
			return types.Err("no tool provider configured")
		}
		return s.tools.Execute(context.Background(), frame.Name, []byte(frame.Args))
	}()

	duration := time.Since(start).Milliseconds()

	s.mu.Lock()
	pending := s.current
	s.mu.Unlock()
	if pending != nil {
		pending.mu.Lock()
		pending.toolCalls = append(pending.toolCalls, types.ToolCallRecord{
			Tool:       frame.Name,
			Args:       json.RawMessage(frame.Args),
			Result:     result.Result,
			Success:    result.Success,
			DurationMS: duration,
		})
		pending.mu.Unlock()
	}

	_ = s.enc.Encode(protocol.NewToolResult(frame.ID, result.Success, string(result.Result)))
}

func (s *Sandbox) resolveExec(frame protocol.ChildFrame) {
	s.mu.Lock()
	pending := s.current
	if pending == nil || frame.ID != s.currentID {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.currentID = ""
	s.mu.Unlock()

	pending.mu.Lock()
	resp := &types.ExecResponse{
		Output:    frame.Output,
		Response:  frame.Response,
		Error:     frame.Error,
		ToolCalls: pending.toolCalls,
		Images:    pending.images,
	}
	pending.mu.Unlock()

	pending.resultCh <- execOutcome{resp: resp}
}

func (s *Sandbox) resolveSnapshot(id, data string) {
	s.mu.Lock()
	ch, ok := s.snapshotWaiters[id]
	if ok {
		delete(s.snapshotWaiters, id)
	}
	s.mu.Unlock()
	if ok {
		ch <- data
	}
}

func (s *Sandbox) onDeath(err error) {
	s.mu.Lock()
	s.dead = true
	pending := s.current
	s.current = nil
	s.mu.Unlock()

	if pending != nil {
		select {
		case pending.resultCh <- execOutcome{err: fmt.Errorf("%w: %v", ErrSandboxDead, err)}:
		default:
		}
	}
	s.log.Error().Err(err).Str("stderr", s.stderr.String()).Msg("sandbox child died")
	s.killProcess()
}

func (s *Sandbox) killProcess() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// Exec runs one code block to completion, servicing any tool calls the
// child issues along the way. Only one exec may be in flight at a time.
func (s *Sandbox) Exec(ctx context.Context, code string) (*types.ExecResponse, error) {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return nil, ErrSandboxDead
	}
	if s.current != nil {
		s.mu.Unlock()
		return nil, ErrExecInFlight
	}
	id := ulid.Make().String()
	pending := &pendingExec{resultCh: make(chan execOutcome, 1)}
	s.current = pending
	s.currentID = id
	s.mu.Unlock()

	if err := s.enc.Encode(protocol.NewExec(id, code)); err != nil {
		s.mu.Lock()
		s.current = nil
		s.currentID = ""
		s.mu.Unlock()
		return nil, fmt.Errorf("sandbox: write exec frame: %w", err)
	}

	select {
	case out := <-pending.resultCh:
		return out.resp, out.err
	case <-ctx.Done():
		return s.cancelExec(id, pending)
	}
}

// cancelExec sends a cooperative interrupt, waits a grace window, then
// kills the child if it has not resumed cleanly.
func (s *Sandbox) cancelExec(id string, pending *pendingExec) (*types.ExecResponse, error) {
	_ = s.enc.Encode(protocol.NewCancel(id))
	select {
	case out := <-pending.resultCh:
		return out.resp, out.err
	case <-time.After(CancelGrace):
		s.Kill()
		return nil, context.Canceled
	}
}

// Snapshot requests the child serialize its interpreter state.
func (s *Sandbox) Snapshot(ctx context.Context) (string, error) {
	id := ulid.Make().String()
	ch := make(chan string, 1)
	s.mu.Lock()
	s.snapshotWaiters[id] = ch
	s.mu.Unlock()

	if err := s.enc.Encode(protocol.NewSnapshot(id)); err != nil {
		return "", fmt.Errorf("sandbox: write snapshot frame: %w", err)
	}

	select {
	case data := <-ch:
		return data, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Restore replaces the child's interpreter state with a previously
// snapshotted blob.
func (s *Sandbox) Restore(ctx context.Context, data string) error {
	id := ulid.Make().String()
	return s.enc.Encode(protocol.NewRestore(id, data))
}

// Shutdown asks the child to terminate cooperatively and reaps it.
func (s *Sandbox) Shutdown() {
	s.mu.Lock()
	dead := s.dead
	s.mu.Unlock()
	if dead {
		return
	}
	_ = s.enc.Encode(protocol.NewShutdown())
	if s.cmd == nil {
		s.mu.Lock()
		s.dead = true
		s.mu.Unlock()
		return
	}
	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.Kill()
	}
}

// Kill forcibly terminates the child process.
func (s *Sandbox) Kill() {
	s.mu.Lock()
	s.dead = true
	s.mu.Unlock()
	s.killProcess()
}

// Dead reports whether the Sandbox's child process has died.
func (s *Sandbox) Dead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dead
}

var _ io.Closer = (*sandboxCloser)(nil)

type sandboxCloser struct{ s *Sandbox }

func (c *sandboxCloser) Close() error { c.s.Shutdown(); return nil }

// Closer adapts Shutdown to io.Closer for defer-friendly call sites.
func (s *Sandbox) Closer() io.Closer { return &sandboxCloser{s: s} }
