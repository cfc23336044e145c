package reporting

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure_eraser/internal/logging"
	"secure_eraser/internal/verify"
)

func sampleData() *verify.Data {
	d := verify.NewData()
	d.AddRecord(verify.Record{Path: "/tmp/a", Status: "securely deleted", Verified: true})
	d.AddRecord(verify.Record{Path: "/tmp/b", Status: "failed", Verified: false})
	return d
}

func TestWriterSaveRoundTrip(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "", logging.Nop())
	require.NoError(t, err)

	report := w.Build("directory", "dod7", 7, sampleData(), nil)
	path, err := w.Save(report)
	require.NoError(t, err)
	require.FileExists(t, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded Report
	require.NoError(t, json.Unmarshal(raw, &loaded))

	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, "directory", loaded.Operation)
	assert.Equal(t, "dod7", loaded.Method)
	assert.Equal(t, 7, loaded.Passes)
	assert.Equal(t, 2, loaded.TotalRecords)
	assert.Equal(t, 1, loaded.VerifiedCount)
	assert.Len(t, loaded.Records, 2)
	assert.Nil(t, loaded.Signature)
	assert.NotEmpty(t, loaded.System.Hostname)
}

func TestWriterSignsWhenKeyed(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "audit-key", logging.Nop())
	require.NoError(t, err)

	report := w.Build("file", "gutmann", 35, sampleData(), nil)
	path, err := w.Save(report)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded Report
	require.NoError(t, json.Unmarshal(raw, &loaded))

	require.NotNil(t, loaded.Signature)
	assert.Equal(t, "HMAC-SHA256", loaded.Signature.Algorithm)
	assert.Equal(t, "audit-ke...", loaded.Signature.KeyID)

	sig := loaded.Signature
	loaded.Signature = nil
	ok, err := sig.Verify(&loaded, "audit-key")
	require.NoError(t, err)
	assert.True(t, ok, "signature covers the report without itself")
}
