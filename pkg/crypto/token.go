package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashToken computes the keyed digest of a raw refresh token for storage
// and lookup. The digest is deterministic under one key, so sessions can be
// found by hash, while the key keeps stolen rows useless for forging
// lookups offline.
func HashToken(key []byte, token string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
