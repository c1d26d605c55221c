package common

import "crypto/rand"

// GenerateRandByteArray returns n bytes from crypto/rand.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray zeroes b in place. Passwords read from the terminal and
// decrypted vault payloads go through it once they are no longer needed.
func WipeByteArray(b []byte) {
	clear(b)
}
