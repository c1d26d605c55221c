//go:build windows

package vault

import (
	"github.com/billgraziano/dpapi"
	"github.com/dmitrijs2005/libcat/internal/common"
)

// dpapiProtector seals with DPAPI in CurrentUser scope.
type dpapiProtector struct{}

// NewPlatformProtector returns the DPAPI protector.
func NewPlatformProtector() Protector { return dpapiProtector{} }

func (dpapiProtector) Encrypt(plaintext []byte) ([]byte, error) {
	b := withEntropy(plaintext)
	defer common.WipeByteArray(b)
	return dpapi.EncryptBytes(b)
}

func (dpapiProtector) Decrypt(ciphertext []byte) ([]byte, error) {
	b, err := dpapi.DecryptBytes(ciphertext)
	if err != nil {
		return nil, err
	}
	return stripEntropy(b)
}
