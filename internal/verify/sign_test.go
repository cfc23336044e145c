package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignDeterministicForSameKey(t *testing.T) {
	data := map[string]string{"path": "/tmp/x", "status": "securely deleted"}

	a, err := Sign(data, "report-key")
	require.NoError(t, err)
	b, err := Sign(data, "report-key")
	require.NoError(t, err)

	assert.Equal(t, a.Value, b.Value)
	assert.Equal(t, "HMAC-SHA256", a.Algorithm)
	assert.Equal(t, "report-k...", a.KeyID)
}

func TestSignDiffersAcrossKeys(t *testing.T) {
	data := map[string]string{"path": "/tmp/x"}

	a, err := Sign(data, "key-one")
	require.NoError(t, err)
	b, err := Sign(data, "key-two")
	require.NoError(t, err)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestSignEmptyKeyGetsRandomOne(t *testing.T) {
	data := map[string]string{"path": "/tmp/x"}

	a, err := Sign(data, "")
	require.NoError(t, err)
	b, err := Sign(data, "")
	require.NoError(t, err)

	assert.NotEqual(t, a.Value, b.Value, "random keys must differ per call")
	assert.Len(t, a.Value, 64, "hex encoded sha256 mac")
}

func TestSignatureVerifyRoundTrip(t *testing.T) {
	data := map[string]int{"records": 3}

	sig, err := Sign(data, "shared-key")
	require.NoError(t, err)

	ok, err := sig.Verify(data, "shared-key")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sig.Verify(data, "wrong-key")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = sig.Verify(map[string]int{"records": 4}, "shared-key")
	require.NoError(t, err)
	assert.False(t, ok)
}
