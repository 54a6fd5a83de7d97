package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "session.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			got, err := s.Get(ctx)
			require.NoError(t, err)
			assert.True(t, got.IsAbsent(), "fresh store must be empty")

			tok, err := Token(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, "", tok)

			require.NoError(t, s.Set(ctx, "first"))
			require.NoError(t, s.Set(ctx, "eyJhbGciOiJIUzI1NiJ9.payload.sig"))

			got, err = s.Get(ctx)
			require.NoError(t, err)
			v, ok := got.Get()
			assert.True(t, ok)
			assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", v)

			require.NoError(t, s.Set(ctx, ""))
			got, err = s.Get(ctx)
			require.NoError(t, err)
			assert.True(t, got.IsPresent(), "empty token is still a stored value")
			assert.Equal(t, "", got.OrEmpty())

			require.NoError(t, s.Clear(ctx))
			require.NoError(t, s.Clear(ctx), "clearing twice is fine")
			got, err = s.Get(ctx)
			require.NoError(t, err)
			assert.True(t, got.IsAbsent())
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "tok"))

	b, err := NewFileStore(dir)
	require.NoError(t, err)
	tok, err := Token(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	info, err := os.Stat(a.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err = s.Get(context.Background())
	assert.Error(t, err)
}

func TestFileStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := NewFileStore(dir)
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, s.Set(ctx, "tok"))
		}()
	}
	wg.Wait()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	tok, err := Token(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestSQLiteStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	a, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "tok"))
	require.NoError(t, a.Close())

	b, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer b.Close()

	tok, err := Token(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}
