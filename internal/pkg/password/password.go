// Package password wraps bcrypt for credential storage. Digests are salted
// and one-way; cost is fixed at bcrypt's default (10).
package password

import "golang.org/x/crypto/bcrypt"

func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
