package erase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/pattern"
)

// SecureDeleteFile overwrites one regular file pass by pass, truncates
// it and unlinks it. Passes run strictly sequentially; each starts at
// offset zero and re-covers the whole file.
func (e *Engine) SecureDeleteFile(ctx context.Context, path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return eraserr.NotFound(path)
		}
		return eraserr.IoFailure(err, path)
	}
	if !info.Mode().IsRegular() {
		return eraserr.NotFound(path)
	}

	name := filepath.Base(path)
	size := info.Size()

	if size == 0 {
		if err := os.Remove(path); err != nil {
			return eraserr.IoFailure(err, path)
		}
		e.data.AddRecord(e.verifier.RecordEmptyFile(path, name))
		e.logger.Log("INFO", "Removed empty file", "path", path)
		return nil
	}

	var before map[string]string
	if e.opts.Verify {
		before = e.verifier.HashFile(path)
	}

	if err := e.overwriteFile(ctx, path, size); err != nil {
		e.data.AddRecord(e.verifier.RecordFailure(path, name, size, err))
		return err
	}

	unlinkPath := path
	if e.opts.AntiForensics {
		unlinkPath = e.applyCountermeasures(path, size)
	}

	if err := os.Remove(unlinkPath); err != nil {
		e.data.AddRecord(e.verifier.RecordFailure(path, name, size, err))
		return eraserr.IoFailure(err, path)
	}

	e.data.AddRecord(e.verifier.Record(path, name, "securely deleted", before, nil, size))
	e.logger.Log("INFO", "Securely deleted file",
		"path", path, "size", size, "passes", e.passes, "method", string(e.opts.Method))
	return nil
}

// overwriteFile runs every pass over the open file and truncates it.
func (e *Engine) overwriteFile(ctx context.Context, path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return eraserr.IoFailure(err, path)
	}
	defer f.Close()

	w := e.wrapWriter(NewFileWriter(f))
	buf := e.pool.get(e.opts.ChunkSize)
	defer e.pool.put(buf)

	for pass := 0; pass < e.passes; pass++ {
		spec := e.patterns.Spec(e.opts.Method, pass)
		if err := e.runPass(ctx, w, buf, spec, size, path); err != nil {
			return err
		}
		e.progress(fmt.Sprintf("%s: %s", filepath.Base(path), spec.Description),
			float64(pass+1)/float64(e.passes)*100, pass+1, e.passes)
	}

	if err := f.Truncate(0); err != nil {
		return eraserr.IoFailure(err, path)
	}
	return f.Sync()
}

// runPass writes one full pass. The context is polled between chunks;
// an in-flight write always completes.
func (e *Engine) runPass(ctx context.Context, w Writer, buf []byte, spec pattern.PassSpec, size int64, path string) error {
	if _, err := w.Seek(0, 0); err != nil {
		return eraserr.IoFailure(err, path)
	}

	remaining := size
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk := buf
		if remaining < int64(len(buf)) {
			chunk = buf[:remaining]
		}
		if err := e.patterns.FillSpec(chunk, spec); err != nil {
			return eraserr.IoFailure(err, path)
		}
		n, err := w.Write(chunk)
		if err != nil {
			return eraserr.IoFailure(err, path)
		}
		if err := w.Flush(); err != nil {
			return eraserr.IoFailure(err, path)
		}
		if err := w.Sync(); err != nil {
			return eraserr.IoFailure(err, path)
		}
		remaining -= int64(n)
	}
	return nil
}
