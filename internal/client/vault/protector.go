package vault

import (
	"bytes"
	"errors"
)

// entropy is mixed into every protected blob so that secrets of other
// applications sealed for the same account never decrypt as ours.
var entropy = []byte("libcat.vault.v1")

var errEntropyMismatch = errors.New("entropy mismatch")

// withEntropy prefixes plaintext with the application entropy.
func withEntropy(plaintext []byte) []byte {
	out := make([]byte, 0, len(entropy)+len(plaintext))
	out = append(out, entropy...)
	return append(out, plaintext...)
}

// stripEntropy checks and removes the prefix added by withEntropy.
func stripEntropy(b []byte) ([]byte, error) {
	if !bytes.HasPrefix(b, entropy) {
		return nil, errEntropyMismatch
	}
	return b[len(entropy):], nil
}
