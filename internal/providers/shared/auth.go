package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const SignaturePrefix = "sha256="

// Signature returns the X-Hub-Signature-256 value for body signed with secret.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// ValidSHA256Signature compares the received header with the expected
// signature in constant time. The comparison is on the full header string.
func ValidSHA256Signature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	expected := Signature(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
