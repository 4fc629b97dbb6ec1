// Command sandboxworker is the persistent child interpreter process that
// internal/sandbox spawns and drives over the newline-delimited JSON
// protocol in internal/protocol. Grounded on SPEC_FULL.md §4.1 and
// original_source/kaml/src/protocol.rs.
package main

import (
	"context"
	"os"

	"github.com/lashdev/lash/internal/protocol"
)

func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	enc := protocol.NewEncoder(os.Stdout)
	dec := protocol.NewDecoder(os.Stdin)
	w := newWorker(dir, enc)

	if err := enc.Encode(protocol.ChildFrame{Type: protocol.ChildReady}); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()
	for {
		var frame protocol.HostFrame
		if err := dec.Decode(&frame); err != nil {
			return
		}

		switch frame.Type {
		case protocol.HostInit:
			// Tool docs are consumed by the LLM prompt, not by the worker;
			// acknowledging the frame is enough.
		case protocol.HostExec:
			go w.runExec(ctx, enc, frame.ID, frame.Code)
		case protocol.HostToolResult:
			w.deliverToolResult(frame)
		case protocol.HostSnapshot:
			_ = enc.Encode(protocol.ChildFrame{Type: protocol.ChildSnapshotResult, ID: frame.ID, Data: w.env.snapshot()})
		case protocol.HostRestore:
			w.env.restore(frame.Data)
		case protocol.HostCancel:
			w.cancelCurrent(frame.ID)
		case protocol.HostShutdown:
			return
		}
	}
}
