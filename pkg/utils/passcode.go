package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength  = 16
	keyLength   = 32
	timeCost    = 2
	memoryCost  = 32 * 1024
	parallelism = 2
)

// passcodePattern is exactly four digits, the last 4 of the vehicle number.
var passcodePattern = regexp.MustCompile(`^\d{4}$`)

// ValidPasscode reports whether v4 is syntactically a 4-digit passcode.
// Syntactic rejection happens locally; whether the code actually matches
// the card is decided only by the record lookup.
func ValidPasscode(v4 string) bool {
	return passcodePattern.MatchString(strings.TrimSpace(v4))
}

// HashPasscode hashes the vehicle passcode with Argon2id so the stored
// record never carries the plain digits.
func HashPasscode(v4 string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(v4), salt, timeCost, memoryCost, parallelism, keyLength)

	saltBase64 := base64.RawStdEncoding.EncodeToString(salt)
	hashBase64 := base64.RawStdEncoding.EncodeToString(hash)

	// Format: $argon2id$v=19$m=32768,t=2,p=2$salt$hash
	return "$argon2id$v=19$m=32768,t=2,p=2$" + saltBase64 + "$" + hashBase64, nil
}

// VerifyPasscode verifies a submitted passcode against a stored hash.
func VerifyPasscode(v4, hashed string) (bool, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errors.New("invalid hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(v4), salt, timeCost, memoryCost, parallelism, keyLength)

	// Constant-time comparison
	if len(computed) != len(hash) {
		return false, nil
	}
	result := 0
	for i := 0; i < len(hash); i++ {
		result |= int(computed[i]) ^ int(hash[i])
	}
	return result == 0, nil
}
