// Package tokenstore persists the bearer credential between runs when the
// client is started with session persistence. Both stores satisfy
// session.TokenStore; the session cell is their only caller.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/libcat/internal/client/session"
	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/zalando/go-keyring"
)

const (
	// KindSQLite keeps the credential in the local state database.
	KindSQLite = "sqlite"
	// KindKeyring keeps the credential in the OS keyring.
	KindKeyring = "keyring"
)

// ErrUnknownKind is returned by callers validating a configured store kind.
var ErrUnknownKind = errors.New("unknown token store")

// tokenKeyPrefix is followed by the server URL in the metadata key.
const tokenKeyPrefix = "access_token@"

// Server reports the catalogue the credential belongs to. Stores call it on
// every access, so a server switch moves them to that server's entry.
type Server func() string

// SQLite stores one credential per server in the metadata table.
type SQLite struct {
	repo   metadata.Repository
	server Server
}

var _ session.TokenStore = (*SQLite)(nil)

func NewSQLite(repo metadata.Repository, server Server) *SQLite {
	return &SQLite{repo: repo, server: server}
}

func (s *SQLite) key() string { return tokenKeyPrefix + s.server() }

func (s *SQLite) Load(ctx context.Context) (string, error) {
	e, err := s.repo.Get(ctx, s.key())
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", nil
	}
	return string(e.Value), nil
}

// SavedAt reports when the current server's credential was last written.
// ok is false when none is stored.
func (s *SQLite) SavedAt(ctx context.Context) (at time.Time, ok bool, err error) {
	e, err := s.repo.Get(ctx, s.key())
	if err != nil || e == nil {
		return time.Time{}, false, err
	}
	return e.UpdatedAt, true, nil
}

func (s *SQLite) Save(ctx context.Context, token string) error {
	return s.repo.Set(ctx, s.key(), []byte(token))
}

func (s *SQLite) Delete(ctx context.Context) error {
	return s.repo.Delete(ctx, s.key())
}

// Keyring stores the credential as a generic secret of the OS keyring,
// under service common.AppName with the server URL as account.
type Keyring struct {
	service string
	server  Server
}

var _ session.TokenStore = (*Keyring)(nil)

func NewKeyring(server Server) *Keyring {
	return &Keyring{service: common.AppName, server: server}
}

func (k *Keyring) Load(ctx context.Context) (string, error) {
	tok, err := keyring.Get(k.service, k.server())
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return tok, nil
}

func (k *Keyring) Save(ctx context.Context, token string) error {
	if err := keyring.Set(k.service, k.server(), token); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (k *Keyring) Delete(ctx context.Context) error {
	err := keyring.Delete(k.service, k.server())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
