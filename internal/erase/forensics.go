package erase

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// applyCountermeasures obfuscates filesystem metadata of an already
// overwritten file right before it is unlinked: timestamps and mode
// bits are scrambled, slack space past the logical size is flushed
// with random bytes, and the file is renamed to a random name so the
// original name does not survive in directory entries. Every step is
// best effort; the returned path is whatever the file is called now.
func (e *Engine) applyCountermeasures(path string, size int64) string {
	if err := e.scrambleTimestamps(path); err != nil {
		e.logger.Log("WARN", "Timestamp scramble failed", "path", path, "error", err.Error())
	}
	if err := scrambleMode(path); err != nil {
		e.logger.Log("WARN", "Mode scramble failed", "path", path, "error", err.Error())
	}
	if err := e.scrambleSlack(path, size); err != nil {
		e.logger.Log("WARN", "Slack flush failed", "path", path, "error", err.Error())
	}
	renamed, err := scrambleName(path)
	if err != nil {
		e.logger.Log("WARN", "Rename failed", "path", path, "error", err.Error())
		return path
	}
	return renamed
}

// scrambleTimestamps sets atime and mtime to random points within the
// last thirty days.
func (e *Engine) scrambleTimestamps(path string) error {
	window := 30 * 24 * time.Hour
	now := time.Now()
	atime := now.Add(-time.Duration(rand.Int63n(int64(window))))
	mtime := now.Add(-time.Duration(rand.Int63n(int64(window))))
	return os.Chtimes(path, atime, mtime)
}

// scrambleMode toggles the execute bits at random, keeping owner
// read/write so the file stays unlinkable.
func scrambleMode(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	for _, bit := range []os.FileMode{0o100, 0o010, 0o001} {
		if rand.Intn(2) == 1 {
			mode |= bit
		} else {
			mode &^= bit
		}
	}
	return os.Chmod(path, mode|0o600)
}

// scrambleSlack appends 1-4 KiB of random bytes past the current end
// of the file, syncs, then truncates back to size. The extra write
// drags random data through the tail allocation block.
func (e *Engine) scrambleSlack(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	pad := make([]byte, 1024+rand.Intn(3*1024+1))
	if err := e.patterns.Fill(pad, nil); err != nil {
		return err
	}
	if _, err := f.Write(pad); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Truncate(size); err != nil {
		return err
	}
	return f.Sync()
}

// scrambleName renames the file to a random 10-20 character name in
// the same directory, preserving the extension.
func scrambleName(path string) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)

	name := make([]byte, 10+rand.Intn(11))
	for i := range name {
		name[i] = nameAlphabet[rand.Intn(len(nameAlphabet))]
	}

	renamed := filepath.Join(dir, string(name)+ext)
	if err := os.Rename(path, renamed); err != nil {
		return "", err
	}
	return renamed, nil
}
