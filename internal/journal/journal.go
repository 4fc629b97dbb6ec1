// Package journal implements the append-only JSONL session log, grounded
// on original_source/lash-cli/src/session_log.rs's sessions_dir/
// list_sessions/load_session trio, adapted to lash's structured
// Message/Part history instead of the original's flat ChatMsg/DisplayBlock
// pair.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lashdev/lash/internal/event"
	"github.com/lashdev/lash/pkg/types"
)

// StartMeta is the first record written to a session's journal file.
type StartMeta struct {
	Model           string `json:"model"`
	Cwd             string `json:"cwd,omitempty"`
	ParentSessionID string `json:"parent_session_id,omitempty"`
}

type startRecord struct {
	Type string `json:"type"`
	Ts   string `json:"ts"`
	StartMeta
}

type userInputRecord struct {
	Type    string `json:"type"`
	Ts      string `json:"ts"`
	Content string `json:"content"`
}

type eventRecord struct {
	types.AgentEvent
	Ts string `json:"ts"`
}

// Writer appends session_start, user_input and AgentEvent records to a
// single JSONL file. A Writer is not safe for concurrent use from multiple
// goroutines; callers serialize through the owning Session/Agent's event
// loop, which already delivers events one at a time.
type Writer struct {
	f *os.File
}

// New opens (creating if necessary) the journal file at path. If the file
// is new or empty, meta is written as the first line.
func New(path string, meta StartMeta) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	info, statErr := os.Stat(path)
	needsHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f}

	if needsHeader {
		if err := w.writeLine(startRecord{Type: "session_start", Ts: now(), StartMeta: meta}); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

// WriteUserInput appends a user_input record. Agent.Run never emits this
// event itself — the caller already folds the user's turn into the history
// it passes to Run — so the journal writer records it directly.
func (w *Writer) WriteUserInput(text string) error {
	return w.writeLine(userInputRecord{Type: "user_input", Ts: now(), Content: text})
}

// WriteEvent appends one AgentEvent record. Suitable as an
// event.Bus.SubscribeAll callback via Attach.
func (w *Writer) WriteEvent(ev types.AgentEvent) error {
	return w.writeLine(eventRecord{AgentEvent: ev, Ts: now()})
}

// Attach subscribes w to every event on bus. Write errors are discarded
// without being logged, so a full disk never crashes the agent loop. The
// returned func unsubscribes.
func (w *Writer) Attach(bus *event.Bus) func() {
	return bus.SubscribeAll(func(ev types.AgentEvent) {
		_ = w.WriteEvent(ev)
	})
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

func (w *Writer) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.f.Write(data)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// Replay reads a journal file and reconstructs the Message history and
// start metadata a new Agent.Run call should be seeded with to resume the
// session. It mirrors the accumulate-then-flush shape of load_session:
// Prose/Code/Output/Error parts accumulate across an iteration and flush
// into one assistant Message at iteration boundaries (llm_request,
// done, error) or a user turn.
func Replay(path string) (StartMeta, []types.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return StartMeta{}, nil, err
	}
	defer f.Close()

	var meta StartMeta
	var msgs []types.Message
	var pending []types.Part

	flush := func() {
		if len(pending) == 0 {
			return
		}
		msgs = append(msgs, types.Message{ID: uuid.NewString(), Role: types.RoleAssistant, Parts: pending})
		pending = nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			continue
		}

		if first {
			first = false
			if probe.Type == "session_start" {
				var rec startRecord
				if err := json.Unmarshal(line, &rec); err == nil {
					meta = rec.StartMeta
				}
				continue
			}
		}

		switch probe.Type {
		case "user_input":
			flush()
			var rec userInputRecord
			if err := json.Unmarshal(line, &rec); err == nil {
				msgs = append(msgs, types.Message{
					ID:   uuid.NewString(),
					Role: types.RoleUser,
					Parts: []types.Part{{
						ID:         uuid.NewString(),
						Kind:       types.PartProse,
						Content:    rec.Content,
						PruneState: types.PruneState{Status: types.PruneIntact},
					}},
				})
			}
		case string(types.EventLlmRequest):
			flush()
		case string(types.EventTextDelta):
			var rec eventRecord
			if err := json.Unmarshal(line, &rec); err == nil && rec.Content != "" {
				pending = append(pending, newReplayPart(types.PartProse, rec.Content))
			}
		case string(types.EventCodeBlock):
			var rec eventRecord
			if err := json.Unmarshal(line, &rec); err == nil {
				pending = append(pending, newReplayPart(types.PartCode, rec.Code))
			}
		case string(types.EventCodeOutput):
			var rec eventRecord
			if err := json.Unmarshal(line, &rec); err == nil {
				if rec.Output != "" {
					pending = append(pending, newReplayPart(types.PartOutput, rec.Output))
				}
				if rec.Error != nil {
					pending = append(pending, newReplayPart(types.PartError, *rec.Error))
				}
			}
		case string(types.EventDone), string(types.EventError):
			flush()
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return meta, msgs, err
	}
	return meta, msgs, nil
}

func newReplayPart(kind types.PartKind, content string) types.Part {
	return types.Part{ID: uuid.NewString(), Kind: kind, Content: content,
		PruneState: types.PruneState{Status: types.PruneIntact}}
}

// Info summarizes one journal file for a session picker, grounded on
// SessionInfo/list_sessions.
type Info struct {
	Path         string
	Model        string
	MessageCount int
	FirstMessage string
	ModTime      time.Time
	IsChild      bool // true when the session has a parent (spawned by a delegation)
}

// List scans dir for *.jsonl journal files, most recently modified first.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := inspect(path)
		if err != nil {
			continue
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

func inspect(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	info := Info{Path: path, ModTime: fi.ModTime()}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			continue
		}
		if first {
			first = false
			if probe.Type == "session_start" {
				var rec startRecord
				if err := json.Unmarshal(line, &rec); err == nil {
					info.Model = rec.Model
					info.IsChild = rec.ParentSessionID != ""
				}
			}
		}
		if probe.Type == "user_input" {
			info.MessageCount++
			if info.FirstMessage == "" {
				var rec userInputRecord
				if err := json.Unmarshal(line, &rec); err == nil {
					info.FirstMessage = rec.Content
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Info{}, err
	}
	return info, nil
}

// RelativeTime formats how long ago ModTime was, the Go counterpart of
// SessionInfo::relative_time.
func (i Info) RelativeTime() string {
	elapsed := time.Since(i.ModTime)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(elapsed.Hours()/24/7))
	}
}
