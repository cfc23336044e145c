package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Signature is the integrity stamp attached to a saved report.
type Signature struct {
	Algorithm string `json:"algorithm"`
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
	KeyID     string `json:"key_id"`
}

// Sign produces an HMAC-SHA256 signature over the canonical JSON
// encoding of data. An empty key gets a random one; the signature then
// proves integrity within this run only.
func Sign(data interface{}, key string) (*Signature, error) {
	if key == "" {
		key = uuid.New().String()
	}

	canonical, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode report for signing")
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(canonical)

	keyID := key
	if len(keyID) > 8 {
		keyID = keyID[:8]
	}
	return &Signature{
		Algorithm: "HMAC-SHA256",
		Timestamp: time.Now().Format(time.RFC3339),
		Value:     hex.EncodeToString(mac.Sum(nil)),
		KeyID:     keyID + "...",
	}, nil
}

// Verify recomputes the signature over data and compares in constant
// time.
func (s *Signature) Verify(data interface{}, key string) (bool, error) {
	canonical, err := json.Marshal(data)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode report for verification")
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(canonical)

	expected, err := hex.DecodeString(s.Value)
	if err != nil {
		return false, errors.Wrap(err, "malformed signature value")
	}
	return hmac.Equal(expected, mac.Sum(nil)), nil
}
