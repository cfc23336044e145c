package erase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/pattern"
	"secure_eraser/internal/system"
	"secure_eraser/internal/verify"
)

// syncEvery is how many chunks a free-space worker writes between
// fsyncs. Per-chunk fsync on a saturation workload wastes most of the
// disk bandwidth on barriers.
const syncEvery = 16

// FreeSpaceResult summarizes a free-space wipe.
type FreeSpaceResult struct {
	BytesWritten int64
	Passes       int
	Report       *verify.FreeSpaceReport
}

// WipeFreeSpace saturates the free space of the filesystem holding
// mount with pattern data, pass by pass. Running out of space is the
// expected end of a pass, not a failure. MaxScratchBytes bounds each
// pass when set.
func (e *Engine) WipeFreeSpace(ctx context.Context, mount string) (*FreeSpaceResult, error) {
	if !system.IsWritableDir(mount) {
		return nil, eraserr.IoFailure(fmt.Errorf("not a writable directory"), mount)
	}

	opID := uuid.New().String()[:8]
	scratchDir := filepath.Join(mount, ".secure_wipe_"+opID)
	if err := os.Mkdir(scratchDir, 0o700); err != nil {
		return nil, eraserr.IoFailure(err, scratchDir)
	}
	defer os.RemoveAll(scratchDir)

	free, err := system.FreeBytes(mount)
	if err != nil {
		return nil, eraserr.IoFailure(err, mount)
	}
	workers := e.opts.Concurrency
	e.logger.Log("INFO", "Wiping free space",
		"mount", mount, "free_bytes", free, "passes", e.passes, "workers", workers)

	result := &FreeSpaceResult{Passes: e.passes}

	for pass := 0; pass < e.passes; pass++ {
		spec := e.patterns.Spec(e.opts.Method, pass)
		written, err := e.fillPass(ctx, scratchDir, spec, pass, workers)
		result.BytesWritten += written
		if err != nil {
			return result, err
		}
		// Drop the scratch files so the next pass can claim the space
		// again.
		if err := clearDir(scratchDir); err != nil {
			return result, eraserr.IoFailure(err, scratchDir)
		}
	}

	if e.opts.Verify {
		report, err := e.verifier.SampleFreeSpace(mount, e.opts.SampleCount, e.opts.SampleSize)
		if err != nil {
			e.logger.Log("WARN", "Free space sampling failed", "mount", mount, "error", err.Error())
		} else {
			result.Report = report
			if !report.Passed {
				e.logger.Log("WARN", "Free space verification flagged suspicious samples",
					"mount", mount, "suspicious", report.SuspiciousCount)
			}
		}
	}

	e.logger.Log("INFO", "Free space wipe complete",
		"mount", mount, "bytes_written", result.BytesWritten)
	return result, nil
}

// fillPass runs one saturation pass: every worker appends to its own
// scratch file until the disk is full, the shared cap is hit, or the
// context is canceled.
func (e *Engine) fillPass(ctx context.Context, scratchDir string, spec pattern.PassSpec, pass, workers int) (int64, error) {
	var total int64
	var firstErr error
	var errOnce sync.Once

	done := make(chan struct{})
	go e.pollProgress(ctx, done, &total, pass)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			path := filepath.Join(scratchDir, fmt.Sprintf("fill_%02d.dat", id))
			if err := e.fillOne(ctx, path, spec, &total); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}(i)
	}
	wg.Wait()
	close(done)

	if err := ctx.Err(); err != nil {
		return atomic.LoadInt64(&total), err
	}
	return atomic.LoadInt64(&total), firstErr
}

// fillOne appends chunks to one scratch file until ENOSPC or the cap.
func (e *Engine) fillOne(ctx context.Context, path string, spec pattern.PassSpec, total *int64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return eraserr.IoFailure(err, path)
	}
	defer f.Close()

	w := e.wrapWriter(NewFileWriter(f))
	buf := e.pool.get(e.opts.ChunkSize)
	defer e.pool.put(buf)

	chunks := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if e.opts.MaxScratchBytes > 0 && atomic.LoadInt64(total) >= e.opts.MaxScratchBytes {
			return f.Sync()
		}

		if err := e.patterns.FillSpec(buf, spec); err != nil {
			return eraserr.IoFailure(err, path)
		}
		n, err := w.Write(buf)
		atomic.AddInt64(total, int64(n))
		if err != nil {
			if eraserr.IsDiskFull(err) {
				// Expected pass terminator.
				f.Sync()
				return nil
			}
			return eraserr.IoFailure(err, path)
		}

		chunks++
		if chunks%syncEvery == 0 {
			if err := w.Sync(); err != nil && !eraserr.IsDiskFull(err) {
				return eraserr.IoFailure(err, path)
			}
		}
	}
}

// pollProgress reports aggregate bytes written once a second. Stale
// reads are fine here.
func (e *Engine) pollProgress(ctx context.Context, done <-chan struct{}, total *int64, pass int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			written := atomic.LoadInt64(total)
			e.progress(fmt.Sprintf("free space pass %d: %d MB written",
				pass+1, written/(1024*1024)), 0, pass+1, e.passes)
		}
	}
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
