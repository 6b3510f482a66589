package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
	"time"
)

const (
	nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	nonceRawLen   = 24
	// NonceGrace is the clock-skew allowance added to every nonce window.
	NonceGrace = 60 * time.Second
)

// GenerateNonce draws 24 alphanumeric characters from crypto/rand and
// returns them base64 URL-safe encoded (32 characters).
func GenerateNonce() (string, error) {
	raw := make([]byte, nonceRawLen)
	limit := big.NewInt(int64(len(nonceAlphabet)))
	for i := range raw {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		raw[i] = nonceAlphabet[n.Int64()]
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// VerifyNonce reports whether nonce equals expected and was issued no more
// than windowHours (plus NonceGrace) before now. issuedAt and now are UNIX
// seconds.
func VerifyNonce(nonce, expected string, issuedAt int64, windowHours int, now int64) bool {
	if expected == "" {
		return false
	}
	if now-issuedAt > int64(windowHours)*3600+int64(NonceGrace/time.Second) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(nonce), []byte(expected)) == 1
}
