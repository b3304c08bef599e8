package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// fingerprint computes a stable hash over a canonicalized payload: Go's
// json.Marshal already serializes map[string]interface{} keys in sorted
// order, which gives us the deterministic serialization the dedup ledger
// requires without a bespoke canonicalizer.
func fingerprint(payload map[string]interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
