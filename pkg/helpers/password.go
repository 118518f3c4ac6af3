package helpers

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// NewSalt returns a random per-user salt that is appended to the password before hashing.
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// HashPassword hashes password+salt with bcrypt
func HashPassword(plain, salt string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether plain+salt matches the bcrypt hash
func CompareHashAndPassword(hash, plain, salt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain+salt)) == nil
}
