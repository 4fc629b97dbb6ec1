package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/lashdev/lash/internal/protocol"
)

func environPairs() []string { return os.Environ() }

type responseSinkKey struct{}

func withResponseSink(ctx context.Context, ch chan string) context.Context {
	return context.WithValue(ctx, responseSinkKey{}, ch)
}

func responseSink(ctx context.Context) chan string {
	ch, _ := ctx.Value(responseSinkKey{}).(chan string)
	return ch
}

// worker holds the shell state a sandboxworker process keeps for its entire
// lifetime (environment and working directory) and builds a fresh
// interp.Runner over that state for each exec frame.
// Grounded on _examples/telnet2-opencode/go-memsh/shell.go's Shell and
// SPEC_FULL.md §4.1 (tool_call/response as intercepted shell functions).
type worker struct {
	dir string
	env *environMap
	enc *protocol.Encoder

	mu           sync.Mutex
	toolWaiters  map[string]chan protocol.HostFrame
	currentID    string
	currentCancel context.CancelFunc
}

func newWorker(dir string, enc *protocol.Encoder) *worker {
	return &worker{
		dir:         dir,
		env:         newEnvironFromOS(environPairs()),
		enc:         enc,
		toolWaiters: make(map[string]chan protocol.HostFrame),
	}
}

func (w *worker) newRunner(stdout, stderr *bytes.Buffer) (*interp.Runner, error) {
	return interp.New(
		interp.StdIO(nil, stdout, stderr),
		interp.Env(w.env),
		interp.Dir(w.dir),
		interp.ExecHandlers(w.execHandler),
	)
}

// runExec runs one exec frame to completion and writes its exec_result
// frame. Invoked from main's read loop in its own goroutine so that
// in-flight tool_call/cancel frames for this exec keep being read and
// dispatched while the interpreter blocks on Run.
func (w *worker) runExec(ctx context.Context, enc *protocol.Encoder, id, code string) {
	output, response, execErr := w.exec(ctx, id, code)
	_ = enc.Encode(protocol.ChildFrame{
		Type:     protocol.ChildExecResult,
		ID:       id,
		Output:   output,
		Response: response,
		Error:    execErr,
	})
}

// exec parses and runs one code block, returning its stdout, any
// response(...) text captured mid-run, and a non-nil error string on
// failure. The interpreter's Vars/Dir persist across calls via w.env/w.dir,
// which are threaded back into a freshly Reset runner each time.
func (w *worker) exec(ctx context.Context, id, code string) (output, response string, execErr *string) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(code), "exec")
	if err != nil {
		msg := fmt.Sprintf("parse error: %v", err)
		return "", "", &msg
	}

	var stdout, stderr bytes.Buffer
	runner, err := w.newRunner(&stdout, &stderr)
	if err != nil {
		msg := fmt.Sprintf("interpreter error: %v", err)
		return "", "", &msg
	}

	execCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.currentID = id
	w.currentCancel = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.currentID = ""
		w.currentCancel = nil
		w.mu.Unlock()
		cancel()
	}()

	respCh := make(chan string, 1)
	runCtx := withResponseSink(execCtx, respCh)

	runErr := runner.Run(runCtx, prog)
	w.dir = runner.Dir

	select {
	case response = <-respCh:
	default:
	}

	if runErr != nil {
		msg := runErr.Error()
		if stderr.Len() > 0 {
			msg = stderr.String() + "\n" + msg
		}
		return stdout.String(), response, &msg
	}
	return stdout.String(), response, nil
}

// execHandler intercepts two pseudo-commands the model's code issues
// mid-script: "tool_call <name> <json-args>" round-trips through the host
// over the protocol, and "response <text>" records the exec's final
// structured answer without a round trip. Everything else falls through to
// the default handler, which runs a real subprocess.
func (w *worker) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			return nil
		}
		switch args[0] {
		case "tool_call":
			return w.handleToolCall(ctx, args)
		case "response":
			return w.handleResponse(ctx, args)
		default:
			return next(ctx, args)
		}
	}
}

func (w *worker) handleToolCall(ctx context.Context, args []string) error {
	hc := interp.HandlerCtx(ctx)
	if len(args) < 3 {
		fmt.Fprintln(hc.Stderr, "tool_call: usage: tool_call <name> <json-args>")
		return interp.NewExitStatus(1)
	}
	name, jsonArgs := args[1], args[2]

	id := ulid.Make().String()
	ch := make(chan protocol.HostFrame, 1)
	w.mu.Lock()
	w.toolWaiters[id] = ch
	w.mu.Unlock()

	if err := w.enc.Encode(protocol.ChildFrame{Type: protocol.ChildToolCall, ID: id, Name: name, Args: jsonArgs}); err != nil {
		w.mu.Lock()
		delete(w.toolWaiters, id)
		w.mu.Unlock()
		return err
	}

	select {
	case frame := <-ch:
		fmt.Fprint(hc.Stdout, frame.Result)
		if !frame.Success {
			return interp.NewExitStatus(1)
		}
		return nil
	case <-ctx.Done():
		w.mu.Lock()
		delete(w.toolWaiters, id)
		w.mu.Unlock()
		return ctx.Err()
	}
}

func (w *worker) handleResponse(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return interp.NewExitStatus(1)
	}
	if sink := responseSink(ctx); sink != nil {
		select {
		case sink <- args[1]:
		default:
		}
	}
	return nil
}

// deliverToolResult routes an incoming tool_result host frame to the
// tool_call invocation awaiting it.
func (w *worker) deliverToolResult(frame protocol.HostFrame) {
	w.mu.Lock()
	ch, ok := w.toolWaiters[frame.ID]
	if ok {
		delete(w.toolWaiters, frame.ID)
	}
	w.mu.Unlock()
	if ok {
		ch <- frame
	}
}

// cancelCurrent interrupts the in-flight exec, if frame.ID matches it.
func (w *worker) cancelCurrent(id string) {
	w.mu.Lock()
	cancel := w.currentCancel
	matches := w.currentID == id
	w.mu.Unlock()
	if matches && cancel != nil {
		cancel()
	}
}
