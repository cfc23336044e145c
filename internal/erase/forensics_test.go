package erase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure_eraser/internal/pattern"
)

func TestSecureDeleteFileWithCountermeasures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("account,balance\n1,100\n"), 0o644))

	e := newTestEngine(t, Options{
		Method:        pattern.MethodStandard,
		Passes:        1,
		Verify:        true,
		AntiForensics: true,
	})
	require.NoError(t, e.SecureDeleteFile(context.Background(), path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "original path must be gone")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "renamed file must be gone too")

	records := e.Data().Snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "securely deleted", records[0].Status)
	assert.Equal(t, "ledger.csv", records[0].FileName)
	assert.True(t, records[0].Verified)
}

func TestScrambleNameKeepsDirAndExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	renamed, err := scrambleName(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "original name must be gone")
	_, err = os.Stat(renamed)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(renamed))
	assert.Equal(t, ".txt", filepath.Ext(renamed))
	base := filepath.Base(renamed)
	stem := base[:len(base)-len(".txt")]
	assert.GreaterOrEqual(t, len(stem), 10)
	assert.LessOrEqual(t, len(stem), 20)
	assert.NotEqual(t, "secret", stem)
}

func TestScrambleSlackPreservesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("do not disturb the logical bytes")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	e := newTestEngine(t, Options{})
	require.NoError(t, e.scrambleSlack(path, int64(len(content))))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestScrambleTimestampsWithinWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stamped")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	e := newTestEngine(t, Options{})
	require.NoError(t, e.scrambleTimestamps(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	now := time.Now()
	assert.True(t, info.ModTime().Before(now.Add(time.Second)))
	assert.True(t, info.ModTime().After(now.Add(-31*24*time.Hour)))
}

func TestScrambleModeKeepsOwnerReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modes")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, scrambleMode(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm()&0o600)
}
