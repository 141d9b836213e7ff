package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// verifyHMACSHA256 checks a hex-encoded HMAC-SHA256 digest computed over the
// exact raw request body. Comparison is constant-time. A missing credential
// or an unset secret fails closed.
func verifyHMACSHA256(body []byte, providedHex, secret string) bool {
	if providedHex == "" || secret == "" {
		return false
	}

	provided, err := hex.DecodeString(providedHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(provided, mac.Sum(nil))
}

// verifyToken compares a static shared token in constant time.
func verifyToken(provided, configured string) bool {
	if provided == "" || configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) == 1
}
