// Package session persists the bearer token between commands. Each backend
// keeps a single value under a fixed namespace and key, so a token written by
// login is read back by the next authenticated call on the same installation.
package session

import (
	"context"

	"github.com/samber/mo"
)

const (
	Namespace = "auth"
	Key       = "token"
)

// Store holds the last bearer token obtained by login.
type Store interface {
	// Get returns the stored token, or None when nothing was stored.
	Get(ctx context.Context) (mo.Option[string], error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Token reads the stored token. Absence yields the empty string.
func Token(ctx context.Context, s Store) (string, error) {
	tok, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return tok.OrEmpty(), nil
}
