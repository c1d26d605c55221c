package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("m"), []byte("s"))

	blob, err := Seal(key, []byte("hunter2"), []byte("alice"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "hunter2")

	plain, err := Open(key, blob, []byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(plain))
}

func TestSeal_FreshNonce(t *testing.T) {
	key := DeriveKey([]byte("m"), []byte("s"))

	a, err := Seal(key, []byte("same"), nil)
	require.NoError(t, err)
	b, err := Seal(key, []byte("same"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpen_Failures(t *testing.T) {
	key := DeriveKey([]byte("m"), []byte("s"))
	other := DeriveKey([]byte("other"), []byte("s"))
	blob, err := Seal(key, []byte("secret"), []byte("ad"))
	require.NoError(t, err)

	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name string
		key  []byte
		blob []byte
		ad   []byte
		want error
	}{
		{name: "wrong key", key: other, blob: blob, ad: []byte("ad")},
		{name: "tampered", key: key, blob: tampered, ad: []byte("ad")},
		{name: "other additional data", key: key, blob: blob, ad: []byte("xx")},
		{name: "short", key: key, blob: []byte{1, 2, 3}, ad: []byte("ad"), want: ErrShortCiphertext},
		{name: "bad key size", key: []byte("short"), blob: blob, ad: []byte("ad")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.key, tt.blob, tt.ad)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
