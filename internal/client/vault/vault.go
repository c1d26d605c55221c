// Package vault remembers the last username and, when asked to, its
// password, encrypted with a key bound to the current OS account.
//
// The vault never reports failures to its callers. Encryption and I/O
// errors are logged and the operation degrades to "nothing remembered";
// an unreadable record is deleted so the next load starts clean.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/filex"
	"github.com/dmitrijs2005/libcat/internal/logging"
	"github.com/fxamacker/cbor/v2"
)

// FileName is the record file inside the vault directory.
const FileName = "user.dat"

// ErrCorrupt marks a record that exists but cannot be decoded or decrypted.
// It is only ever logged.
var ErrCorrupt = errors.New("vault record corrupt")

// Protector seals secrets for the current user.
type Protector interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Secret is what Load hands back.
type Secret struct {
	Username string
	Password string
	Remember bool
}

type record struct {
	Username        string `cbor:"username"`
	EncryptedSecret []byte `cbor:"encrypted_secret"`
	Remember        bool   `cbor:"remember"`
}

type Vault struct {
	mu        sync.Mutex
	path      string
	protector Protector
	log       logging.Logger
}

type Option func(*Vault)

func WithProtector(p Protector) Option {
	return func(v *Vault) { v.protector = p }
}

func WithLogger(l logging.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// New returns a vault storing its record as dir/user.dat. The directory is
// created on first save.
func New(dir string, opts ...Option) *Vault {
	v := &Vault{
		path: filepath.Join(dir, FileName),
		log:  logging.Discard(),
	}
	for _, o := range opts {
		o(v)
	}
	if v.protector == nil {
		v.protector = NewPlatformProtector()
	}
	return v
}

// Path returns the record location.
func (v *Vault) Path() string { return v.path }

// Save stores username and secret, replacing any prior record.
// remember=false clears the vault instead, and so does a failed save.
func (v *Vault) Save(ctx context.Context, username, secret string, remember bool) {
	if !remember {
		v.Clear(ctx)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.write(username, secret); err != nil {
		v.log.Error(ctx, "vault save failed", "path", v.path, "error", err)
		// The previous record must not outlive a failed save.
		v.remove(ctx)
		return
	}
	v.log.Debug(ctx, "vault saved", "username", username)
}

func (v *Vault) write(username, secret string) error {
	plain := []byte(secret)
	defer common.WipeByteArray(plain)

	enc, err := v.protector.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	data, err := cbor.Marshal(record{Username: username, EncryptedSecret: enc, Remember: true})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if _, err := filex.EnsureDir(filepath.Dir(v.path)); err != nil {
		return err
	}
	return filex.WriteFileAtomic(v.path, data, 0o600)
}

// Load returns the remembered secret. ok is false when nothing usable is
// stored; a corrupt record is removed as a side effect.
func (v *Vault) Load(ctx context.Context) (s Secret, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.read()
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, os.ErrNotExist):
		return Secret{}, false
	case errors.Is(err, ErrCorrupt):
		v.log.Warn(ctx, "vault record discarded", "path", v.path, "error", err)
		v.remove(ctx)
		return Secret{}, false
	default:
		v.log.Error(ctx, "vault load failed", "path", v.path, "error", err)
		return Secret{}, false
	}
}

func (v *Vault) read() (Secret, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return Secret{}, err
	}

	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return Secret{}, fmt.Errorf("%w: decode: %v", ErrCorrupt, err)
	}
	if rec.Username == "" || !rec.Remember {
		return Secret{}, fmt.Errorf("%w: incomplete record", ErrCorrupt)
	}

	plain, err := v.protector.Decrypt(rec.EncryptedSecret)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: decrypt: %v", ErrCorrupt, err)
	}
	defer common.WipeByteArray(plain)

	return Secret{Username: rec.Username, Password: string(plain), Remember: true}, nil
}

// Clear deletes the record. Clearing an empty vault is a no-op.
func (v *Vault) Clear(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remove(ctx)
}

func (v *Vault) remove(ctx context.Context) {
	if err := filex.RemoveIfExists(v.path); err != nil {
		v.log.Error(ctx, "vault clear failed", "path", v.path, "error", err)
	}
}
