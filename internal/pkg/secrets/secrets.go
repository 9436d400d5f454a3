// Package secrets generates the one-time material used by the account
// flows: high-entropy reset tokens and 6-digit verification codes. Only
// the sha256 digest of either is ever stored; a plain sha256 (rather than
// bcrypt) is deliberate, since reset tokens are high-entropy and codes are
// short-lived, and a deterministic digest allows lookup by hash.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewResetToken returns a 32-byte random token hex-encoded, plus its digest.
func NewResetToken() (plain string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(buf)
	return plain, Hash(plain), nil
}

// NewVerificationCode returns a code drawn uniformly from 100000-999999,
// plus its digest.
func NewVerificationCode() (plain string, hash string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", "", err
	}
	plain = fmt.Sprintf("%06d", n.Int64()+100000)
	return plain, Hash(plain), nil
}

func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
