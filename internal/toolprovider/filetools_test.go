package toolprovider

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFileReturnsContentWithinLimit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\ntwo\nthree\n"), 0644))

	rf := NewReadFile(dir)
	res := rf.Execute(context.Background(), "read_file", []byte(`{"path":"a.txt","limit":2}`))
	require.True(t, res.Success)
	require.JSONEq(t, `"one\ntwo\n"`, string(res.Result))
}

func TestReadFileMissingPathErrors(t *testing.T) {
	rf := NewReadFile(t.TempDir())
	res := rf.Execute(context.Background(), "read_file", []byte(`{"path":"missing.txt"}`))
	require.False(t, res.Success)
}

func TestListDirListsAndSorts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "afile.txt"), []byte("x"), 0644))

	ld := NewListDir(dir)
	res := ld.Execute(context.Background(), "list_dir", nil)
	require.True(t, res.Success)

	var entries []DirEntry
	require.NoError(t, json.Unmarshal(res.Result, &entries))
	require.Len(t, entries, 2)
	require.Equal(t, "afile.txt", entries[0].Name)
	require.False(t, entries[0].IsDir)
	require.Equal(t, "zdir", entries[1].Name)
	require.True(t, entries[1].IsDir)
}
