package domain

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// SecretHash is the Keccak-256 commitment to an event's attendance secret.
type SecretHash [32]byte

// HashSecret computes the commitment for secret.
func HashSecret(secret string) SecretHash {
	var out SecretHash
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(secret))
	h.Sum(out[:0])
	return out
}

// ParseSecretHash accepts 64 hex characters, optionally prefixed with 0x.
func ParseSecretHash(s string) (SecretHash, error) {
	var out SecretHash
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != hex.EncodedLen(len(out)) {
		return out, ErrInvalidSecretHash
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, ErrInvalidSecretHash
	}
	return out, nil
}

func (h SecretHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h SecretHash) IsZero() bool {
	return h == SecretHash{}
}

// Matches reports whether secret is the preimage of h.
func (h SecretHash) Matches(secret string) bool {
	candidate := HashSecret(secret)
	return subtle.ConstantTimeCompare(h[:], candidate[:]) == 1
}
