package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchiveIdempotent(t *testing.T) {
	s := New()
	h1, err := s.Archive("hello world")
	require.NoError(t, err)
	h2, err := s.Archive("hello world")
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	content, ok := s.GetArchive(h1)
	require.True(t, ok)
	require.Equal(t, "hello world", content)
}

func TestGetArchiveMissing(t *testing.T) {
	s := New()
	_, ok := s.GetArchive("deadbeefdead")
	require.False(t, ok)
}

func TestPutGet(t *testing.T) {
	s := New()
	s.Put("breadcrumb:task-1", "found X at line 42")
	v, ok := s.Get("breadcrumb:task-1")
	require.True(t, ok)
	require.Equal(t, "found X at line 42", v)

	_, ok = s.Get("missing")
	require.False(t, ok)
}

func TestArchiveConcurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	hashes := make([]string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := s.Archive("same content")
			require.NoError(t, err)
			hashes[i] = h
		}(i)
	}
	wg.Wait()
	for _, h := range hashes {
		require.Equal(t, hashes[0], h)
	}
}
