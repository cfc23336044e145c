package verify

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure_eraser/internal/logging"
)

func TestRecordVerifiedWhenTargetGone(t *testing.T) {
	e := NewEngine([]string{"sha256"}, logging.Nop())

	gone := filepath.Join(t.TempDir(), "was-here")
	r := e.Record(gone, "was-here", "securely deleted",
		map[string]string{"sha256": "abc"}, nil, 42)

	assert.True(t, r.Verified)
	assert.Equal(t, "securely deleted", r.Status)
	assert.Equal(t, map[string]string{"sha256": "abc"}, r.BeforeHashes)
	assert.Empty(t, r.AfterHashes)
	assert.Contains(t, r.Algorithms, "sha256")
}

func TestRecordPerAlgorithmChange(t *testing.T) {
	e := NewEngine([]string{"sha256", "md5"}, logging.Nop())

	path := filepath.Join(t.TempDir(), "survivor")
	require.NoError(t, os.WriteFile(path, []byte("still here"), 0o644))

	before := map[string]string{"sha256": "aaa", "md5": "bbb"}
	after := map[string]string{"sha256": "ccc", "md5": "bbb"}
	r := e.Record(path, "survivor", "overwritten", before, after, 10)

	assert.True(t, r.Algorithms["sha256"], "sha256 changed")
	assert.False(t, r.Algorithms["md5"], "md5 unchanged")
	assert.False(t, r.Verified, "one unchanged algorithm fails the record")

	after["md5"] = "ddd"
	r = e.Record(path, "survivor", "overwritten", before, after, 10)
	assert.True(t, r.Verified)
}

func TestRecordNoComparableHashes(t *testing.T) {
	e := NewEngine([]string{"sha256"}, logging.Nop())

	path := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	r := e.Record(path, "present", "overwritten", nil, nil, 1)
	assert.False(t, r.Verified)
}

func TestRecordEmptyFile(t *testing.T) {
	e := NewEngine([]string{"sha256"}, logging.Nop())
	r := e.RecordEmptyFile("/tmp/zero", "zero")

	assert.Equal(t, "removed (empty file)", r.Status)
	assert.True(t, r.Verified)
	assert.Empty(t, r.BeforeHashes)
	assert.Empty(t, r.AfterHashes)
	assert.Zero(t, r.Size)
}

func TestRecordFailure(t *testing.T) {
	e := NewEngine([]string{"sha256"}, logging.Nop())
	r := e.RecordFailure("/tmp/locked", "locked", 100, errors.New("permission denied"))

	assert.Equal(t, "failed", r.Status)
	assert.False(t, r.Verified)
	assert.Equal(t, "permission denied", r.Error)
}

func TestDataConcurrentAdd(t *testing.T) {
	d := NewData()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.AddRecord(Record{Verified: true})
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, d.Len())
	assert.Equal(t, 32, d.VerifiedCount())
}
