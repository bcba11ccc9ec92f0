package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// Password digest: argon2id over the password keyed by a 16-byte random salt.
// Hash and salt are stored base64 (standard alphabet) encoded.
const (
	saltLength    = 16
	argonTime     = 1
	argonMemory   = 64 * 1024
	argonThreads  = 4
	argonKeyBytes = 32
)

func newSalt() (string, error) {
	b := make([]byte, saltLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func hashPassword(password, encodedSalt string) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyBytes)
	return base64.StdEncoding.EncodeToString(key), nil
}

// newCredentials returns a fresh salt and the matching hash of password.
func newCredentials(password string) (hash, salt string, err error) {
	salt, err = newSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = hashPassword(password, salt)
	if err != nil {
		return "", "", err
	}
	return hash, salt, nil
}

func verifyPassword(password, storedHash, encodedSalt string) bool {
	got, err := hashPassword(password, encodedSalt)
	if err != nil {
		return false
	}
	return ConstantTimeCompare(got, storedHash)
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
