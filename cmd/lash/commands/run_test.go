package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveWorkerPathUsesPathSeparatorAsIs(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "myworker")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	got, err := resolveWorkerPath(bin)
	require.NoError(t, err)
	require.Equal(t, bin, got)
}

func TestResolveWorkerPathFallsBackToPATH(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "lash-test-worker")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	got, err := resolveWorkerPath("lash-test-worker")
	require.NoError(t, err)
	require.Equal(t, bin, got)
}

func TestResolveWorkerPathErrorsWhenMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := resolveWorkerPath("definitely-not-a-real-binary")
	require.Error(t, err)
}
