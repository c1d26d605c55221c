// Package cryptox holds the symmetric primitives used to protect local
// secrets: an argon2id key derivation and AES-256-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/libcat/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of keys returned by DeriveKey.
const KeySize = 32

// ErrShortCiphertext is returned by Open for blobs shorter than a nonce.
var ErrShortCiphertext = errors.New("ciphertext too short")

// DeriveKey stretches material into a 256-bit key with argon2id.
// The same material and salt always produce the same key.
func DeriveKey(material []byte, salt []byte) []byte {
	return argon2.IDKey(material, salt, 1, 64*1024, 4, KeySize)
}

// Seal encrypts plaintext with AES-GCM under key.
//
// A fresh random nonce is generated for each call and prepended to the
// ciphertext, so the result can be passed to Open as is. additional is
// authenticated but not encrypted; Open must be given the same value.
func Seal(key, plaintext, additional []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	// nonce || ciphertext || tag
	return aesgcm.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal. A wrong key, a modified blob or a different
// additional value all fail authentication.
func Open(key, blob, additional []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(blob) < ns {
		return nil, ErrShortCiphertext
	}

	return aesgcm.Open(nil, blob[:ns], blob[ns:], additional)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
