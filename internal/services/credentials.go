package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore hashes and verifies robot pairing passwords and dashboard
// PINs. Plaintext secrets are never stored or logged; the same secret hashed
// twice yields different outputs because bcrypt salts per call.
type CredentialStore struct {
	cost int
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{cost: bcrypt.DefaultCost}
}

func (s *CredentialStore) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash. bcrypt's comparison is
// constant-time over the derived key.
func (s *CredentialStore) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
