package user

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

const (
	pbkdf2Scheme = "pbkdf2_sha256"

	DefaultIterations = 310_000
	// MinIterations is the floor for hashes produced in production.
	MinIterations = 100_000
	// upper bound accepted when decoding, so a tampered row cannot stall a login
	maxIterations = 10_000_000

	saltLen = 16
	keyLen  = 32
)

var errMalformedHash = errors.New("malformed password hash")

// PBKDF2Hasher derives PBKDF2-HMAC-SHA256 keys. The encoded form is
// pbkdf2_sha256$<iterations>$<salt>$<key> so verification needs no
// external parameters.
type PBKDF2Hasher struct{ Iterations int }

func (h PBKDF2Hasher) iterations() int {
	if h.Iterations <= 0 {
		return DefaultIterations
	}
	return h.Iterations
}

func (h PBKDF2Hasher) Hash(pw string) (string, string, error) {
	iter := h.iterations()
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(pw), salt, iter, keyLen, sha256.New)
	enc := base64.RawStdEncoding
	encoded := fmt.Sprintf("%s$%d$%s$%s", pbkdf2Scheme, iter, enc.EncodeToString(salt), enc.EncodeToString(key))
	return encoded, fmt.Sprintf("pbkdf2-sha256:%d", iter), nil
}

// Verify fails closed: any decoding problem is a mismatch.
func (h PBKDF2Hasher) Verify(hash, pw string) bool {
	iter, salt, key, err := decodePBKDF2(hash)
	if err != nil {
		return false
	}
	computed := pbkdf2.Key([]byte(pw), salt, iter, len(key), sha256.New)
	return subtle.ConstantTimeCompare(key, computed) == 1
}

func (h PBKDF2Hasher) NeedsRehash(hash string) bool {
	iter, _, _, err := decodePBKDF2(hash)
	if err != nil {
		return true
	}
	return iter < h.iterations()
}

func decodePBKDF2(encoded string) (int, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Scheme {
		return 0, nil, nil, errMalformedHash
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter <= 0 || iter > maxIterations {
		return 0, nil, nil, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) < 16 || len(key) > 64 {
		return 0, nil, nil, errMalformedHash
	}
	return iter, salt, key, nil
}
