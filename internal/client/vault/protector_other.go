//go:build !windows

package vault

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/cryptox"
	"github.com/zalando/go-keyring"
)

var machineIDFiles = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// keyringAccount names the vault key inside the common.AppName keyring
// service.
const keyringAccount = "vault-key"

// The first byte of a sealed blob names the key that sealed it.
const (
	sourceKeyring byte = 'k'
	sourceAccount byte = 'a'
)

var (
	errKeySource  = errors.New("unknown key source")
	errKeyringKey = errors.New("malformed keyring key")
)

// keyringProtector seals with a random key held in the OS keyring, which
// only the logged-in user can read. Where no keyring is reachable
// (headless sessions without a secret service) it seals with the
// account-derived key instead.
type keyringProtector struct {
	service  string
	fallback accountProtector
}

// NewPlatformProtector returns the keyring protector with the
// account-bound key as fallback.
func NewPlatformProtector() Protector {
	return keyringProtector{
		service:  common.AppName,
		fallback: accountProtector{material: accountMaterial},
	}
}

func (p keyringProtector) Encrypt(plaintext []byte) ([]byte, error) {
	k, err := p.key(true)
	if err != nil {
		blob, err := p.fallback.Encrypt(plaintext)
		if err != nil {
			return nil, err
		}
		return append([]byte{sourceAccount}, blob...), nil
	}
	defer common.WipeByteArray(k)

	blob, err := cryptox.Seal(k, plaintext, entropy)
	if err != nil {
		return nil, err
	}
	return append([]byte{sourceKeyring}, blob...), nil
}

func (p keyringProtector) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, errKeySource
	}
	switch ciphertext[0] {
	case sourceKeyring:
		k, err := p.key(false)
		if err != nil {
			return nil, fmt.Errorf("vault key: %w", err)
		}
		defer common.WipeByteArray(k)
		return cryptox.Open(k, ciphertext[1:], entropy)
	case sourceAccount:
		return p.fallback.Decrypt(ciphertext[1:])
	default:
		return nil, errKeySource
	}
}

// key loads the vault key, generating and storing one when create is set
// and none exists yet.
func (p keyringProtector) key(create bool) ([]byte, error) {
	enc, err := keyring.Get(p.service, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) && create {
		k := common.GenerateRandByteArray(cryptox.KeySize)
		if err := keyring.Set(p.service, keyringAccount, base64.StdEncoding.EncodeToString(k)); err != nil {
			return nil, err
		}
		return k, nil
	}
	if err != nil {
		return nil, err
	}

	k, err := base64.StdEncoding.DecodeString(enc)
	if err != nil || len(k) != cryptox.KeySize {
		return nil, errKeyringKey
	}
	return k, nil
}

// accountProtector seals with AES-GCM under a key derived from the machine
// and account identity, so a copied record does not open elsewhere.
type accountProtector struct {
	material func() ([]byte, error)
}

func (p accountProtector) key() ([]byte, error) {
	m, err := p.material()
	if err != nil {
		return nil, fmt.Errorf("key material: %w", err)
	}
	return cryptox.DeriveKey(m, entropy), nil
}

func (p accountProtector) Encrypt(plaintext []byte) ([]byte, error) {
	k, err := p.key()
	if err != nil {
		return nil, err
	}
	return cryptox.Seal(k, plaintext, entropy)
}

func (p accountProtector) Decrypt(ciphertext []byte) ([]byte, error) {
	k, err := p.key()
	if err != nil {
		return nil, err
	}
	return cryptox.Open(k, ciphertext, entropy)
}

func accountMaterial() ([]byte, error) {
	var b bytes.Buffer
	b.Write(machineID())
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(os.Getuid()))
	b.WriteByte(0)

	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	b.WriteString(u.Username)
	return b.Bytes(), nil
}

func machineID() []byte {
	for _, f := range machineIDFiles {
		if id, err := os.ReadFile(f); err == nil {
			if id = bytes.TrimSpace(id); len(id) > 0 {
				return id
			}
		}
	}
	// no machine id (macOS, containers): the hostname is the best we have
	h, _ := os.Hostname()
	return []byte(h)
}
