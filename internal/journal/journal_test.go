package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lashdev/lash/internal/event"
	"github.com/lashdev/lash/pkg/types"
)

func TestNewWritesSessionStartOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")

	w, err := New(path, StartMeta{Model: "test-model"})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w2, err := New(path, StartMeta{Model: "should-not-appear"})
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	meta, _, err := Replay(path)
	require.NoError(t, err)
	require.Equal(t, "test-model", meta.Model)
}

func TestWriteEventAndReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")

	w, err := New(path, StartMeta{Model: "m"})
	require.NoError(t, err)

	require.NoError(t, w.WriteUserInput("what is 1+1"))
	require.NoError(t, w.WriteEvent(types.LlmRequest(0)))
	require.NoError(t, w.WriteEvent(types.CodeBlock("print(1+1)")))
	require.NoError(t, w.WriteEvent(types.CodeOutput("2\n", nil)))
	require.NoError(t, w.WriteEvent(types.DoneEvent()))
	require.NoError(t, w.Close())

	meta, msgs, err := Replay(path)
	require.NoError(t, err)
	require.Equal(t, "m", meta.Model)
	require.Len(t, msgs, 2)
	require.Equal(t, types.RoleUser, msgs[0].Role)
	require.Equal(t, "what is 1+1", msgs[0].Parts[0].Content)
	require.Equal(t, types.RoleAssistant, msgs[1].Role)

	var hasCode, hasOutput bool
	for _, p := range msgs[1].Parts {
		if p.Kind == types.PartCode {
			hasCode = true
			require.Equal(t, "print(1+1)", p.Content)
		}
		if p.Kind == types.PartOutput {
			hasOutput = true
			require.Equal(t, "2\n", p.Content)
		}
	}
	require.True(t, hasCode)
	require.True(t, hasOutput)
}

func TestAttachWritesBusEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")

	w, err := New(path, StartMeta{Model: "m"})
	require.NoError(t, err)

	bus := event.New()
	defer bus.Close()
	unsub := w.Attach(bus)
	defer unsub()

	bus.PublishSync(types.DoneEvent())
	require.NoError(t, w.Close())

	_, msgs, err := Replay(path)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestListOrdersByModTimeDescending(t *testing.T) {
	dir := t.TempDir()

	older := filepath.Join(dir, "older.jsonl")
	wOlder, err := New(older, StartMeta{Model: "m1"})
	require.NoError(t, err)
	require.NoError(t, wOlder.WriteUserInput("first session"))
	require.NoError(t, wOlder.Close())

	newer := filepath.Join(dir, "newer.jsonl")
	wNewer, err := New(newer, StartMeta{Model: "m2"})
	require.NoError(t, err)
	require.NoError(t, wNewer.WriteUserInput("second session"))
	require.NoError(t, wNewer.Close())

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, newer, infos[0].Path)
	require.Equal(t, older, infos[1].Path)
	for _, info := range infos {
		require.Equal(t, 1, info.MessageCount)
	}
}

func TestListSkipsNonJSONLFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")
	w, err := New(path, StartMeta{Model: "m"})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644))

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 1)
}
