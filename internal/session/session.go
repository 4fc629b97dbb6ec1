// Package session wraps one Sandbox plus one ToolProvider behind a single
// atomic run_code interaction. Grounded on spec.md §4.3 and the shape of
// original_source/lash's Session type (referenced from
// lash/src/agent/exec.rs and lash/src/tools/delegate_task.rs).
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/lashdev/lash/internal/sandbox"
	"github.com/lashdev/lash/internal/toolprovider"
	"github.com/lashdev/lash/pkg/types"
)

// Config controls how a Session boots its Sandbox.
type Config struct {
	// WorkerPath is the path to the cmd/sandboxworker binary.
	WorkerPath string
	// WorkDir is the child process's working directory.
	WorkDir string
	// Args are extra arguments passed to the worker.
	Args []string
}

// Session owns exactly one Sandbox and one ToolProvider for its lifetime.
// Its mutable interior (pending-exec state) is never shared across
// goroutines beyond the single in-flight-exec guard below.
type Session struct {
	sb    *sandbox.Sandbox
	tools toolprovider.Provider

	mu      sync.Mutex
	running bool
}

// ErrRunCodeInFlight is returned when run_code is called concurrently on
// the same Session.
var ErrRunCodeInFlight = fmt.Errorf("session: run_code already in flight")

// New boots a Sandbox over tools and sends the init frame documenting
// tools.Definitions().
func New(ctx context.Context, tools toolprovider.Provider, cfg Config) (*Session, error) {
	sb, err := sandbox.New(ctx, cfg.WorkerPath, cfg.Args, cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("session: boot sandbox: %w", err)
	}
	if err := sb.Init(tools); err != nil {
		sb.Kill()
		return nil, fmt.Errorf("session: init sandbox: %w", err)
	}
	return &Session{sb: sb, tools: tools}, nil
}

// NewFromSandbox wraps an already-booted Sandbox (used by tests; the CLI's
// session factory, which the Agent also uses for rebuilds, calls New).
func NewFromSandbox(sb *sandbox.Sandbox, tools toolprovider.Provider) *Session {
	return &Session{sb: sb, tools: tools}
}

// RunCode drives the sandbox through one exec round-trip, including all
// nested tool calls, returning the resulting ExecResponse. Only one
// RunCode may be outstanding at a time.
func (s *Session) RunCode(ctx context.Context, code string) (*types.ExecResponse, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunCodeInFlight
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.sb.Exec(ctx, code)
}

// Snapshot serializes the sandbox's interpreter state.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	return s.sb.Snapshot(ctx)
}

// Restore replaces the sandbox's interpreter state.
func (s *Session) Restore(ctx context.Context, data string) error {
	return s.sb.Restore(ctx, data)
}

// OnMessage registers a callback for out-of-band progress/final messages
// emitted by the sandbox mid-exec.
func (s *Session) OnMessage(fn sandbox.OnMessageFunc) { s.sb.OnMessage = fn }

// Dead reports whether the underlying Sandbox has died and the Session
// must be rebuilt.
func (s *Session) Dead() bool { return s.sb.Dead() }

// Close shuts down the underlying Sandbox.
func (s *Session) Close() { s.sb.Shutdown() }

// Tools returns the Session's ToolProvider, e.g. so a sub-agent can reuse
// the same (possibly filtered) tool set.
func (s *Session) Tools() toolprovider.Provider { return s.tools }
