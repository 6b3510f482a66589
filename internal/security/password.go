package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/argon2"
)

type PasswordParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	SaltLen   int
	KeyLen    uint32
}

var DefaultPasswordParams = PasswordParams{
	Time:      1,
	MemoryKiB: 47104,
	Threads:   1,
	SaltLen:   16,
	KeyLen:    32,
}

type PasswordHasher struct {
	params PasswordParams
}

func NewPasswordHasher(params PasswordParams) *PasswordHasher {
	if params.SaltLen <= 0 {
		params.SaltLen = DefaultPasswordParams.SaltLen
	}
	if params.KeyLen == 0 {
		params.KeyLen = DefaultPasswordParams.KeyLen
	}
	return &PasswordHasher{params: params}
}

// Hash returns the argon2id PHC string for password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// Verify reports whether password matches encoded. The cost parameters are
// read from encoded, so hashes made with older settings keep verifying.
// A malformed hash never matches.
func (h *PasswordHasher) Verify(encoded, password string) bool {
	memory, timeCost, threads, salt, expected, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	expectedLen := len(expected)
	if expectedLen == 0 || uint64(expectedLen) > uint64(math.MaxUint32) {
		return false
	}
	// #nosec G115 -- bounded by explicit MaxUint32 check above.
	keyLen := uint32(expectedLen)
	actual := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, keyLen)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

func HashPassword(password string) (string, error) {
	return NewPasswordHasher(DefaultPasswordParams).Hash(password)
}

func VerifyPassword(encoded, password string) bool {
	return NewPasswordHasher(DefaultPasswordParams).Verify(encoded, password)
}

func decodeHash(encoded string) (memory uint32, timeCost uint32, threads uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid password hash format")
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash params")
	}
	if timeCost == 0 || threads == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash params")
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash salt")
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("invalid hash payload")
	}
	return memory, timeCost, threads, salt, hash, nil
}
