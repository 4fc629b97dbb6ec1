package main

import (
	"sort"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/expand"
)

// environMap implements expand.Environ over a plain map, kept outside the
// interp.Runner so that interp.Runner.Reset (required before every Run to
// pick up a freshly parsed program) never discards variables set by a
// previous exec — the Runner is rebuilt with interp.Env(worker.env) applied
// again on each call. Its own mutex guards against a snapshot/restore host
// frame racing the exec goroutine's Run call. Grounded on
// _examples/telnet2-opencode/go-memsh/env.go's EnvironMap.
type environMap struct {
	mu   sync.RWMutex
	vars map[string]expand.Variable
}

func newEnvironFromOS(pairs []string) *environMap {
	e := &environMap{vars: make(map[string]expand.Variable)}
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			e.vars[parts[0]] = expand.Variable{Exported: true, Kind: expand.String, Str: parts[1]}
		}
	}
	return e
}

func (e *environMap) Get(name string) expand.Variable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.vars[name]; ok {
		return v
	}
	return expand.Variable{}
}

func (e *environMap) Each(fn func(name string, vr expand.Variable) bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for name, vr := range e.vars {
		if !fn(name, vr) {
			break
		}
	}
}

func (e *environMap) Set(name string, vr expand.Variable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = vr
}

func (e *environMap) Unset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.vars, name)
}

// snapshot serializes exported variables as NAME=value lines. Only the
// exported-variable surface round-trips through snapshot/restore — a
// deliberate simplification, since mvdan.cc/sh does not expose a way to
// serialize arbitrary interpreter state (open file descriptors, function
// definitions) wholesale.
func (e *environMap) snapshot() string {
	var lines []string
	e.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported {
			lines = append(lines, name+"="+vr.Str)
		}
		return true
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func (e *environMap) restore(data string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, line := range strings.Split(data, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		e.vars[parts[0]] = expand.Variable{Exported: true, Kind: expand.String, Str: parts[1]}
	}
}
