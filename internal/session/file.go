package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/samber/mo"
)

const lockRetryDelay = 20 * time.Millisecond

// FileStore keeps the token in <dir>/auth.json as {"token": "..."}.
// Writes go through a temp file and rename under an exclusive flock, so a
// concurrent reader sees either the old or the new document.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore creates the state directory (0700) if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dir, Namespace+".json"),
		lock: flock.New(filepath.Join(dir, Namespace+".lock")),
	}, nil
}

// Path is the location of the token document.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context) (mo.Option[string], error) {
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return mo.None[string](), fmt.Errorf("lock session file: %w", err)
	}
	if locked {
		defer s.lock.Unlock()
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return mo.None[string](), nil
	}
	if err != nil {
		return mo.None[string](), fmt.Errorf("read session file: %w", err)
	}

	doc := map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return mo.None[string](), fmt.Errorf("decode session file: %w", err)
	}

	tok, ok := doc[Key]
	if !ok {
		return mo.None[string](), nil
	}
	return mo.Some(tok), nil
}

func (s *FileStore) Set(ctx context.Context, token string) error {
	return s.write(ctx, map[string]string{Key: token})
}

func (s *FileStore) Clear(ctx context.Context) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	if locked {
		defer s.lock.Unlock()
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) write(ctx context.Context, doc map[string]string) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	if locked {
		defer s.lock.Unlock()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), Namespace+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
