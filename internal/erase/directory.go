package erase

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"secure_eraser/internal/eraserr"
)

// DirResult summarizes a recursive directory wipe. Per-target failures
// are collected, not fatal; the batch keeps going.
type DirResult struct {
	FilesWiped int
	Failed     int
	Errors     []error
}

// SecureDeleteDirectory wipes every file under root across a bounded
// worker pool, removes the emptied directories bottom-up and finally
// escalates to os.RemoveAll for anything left (sockets, fifos, dangling
// symlinks).
func (e *Engine) SecureDeleteDirectory(ctx context.Context, root string) (*DirResult, error) {
	info, err := os.Lstat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eraserr.NotFound(root)
		}
		return nil, eraserr.IoFailure(err, root)
	}
	if !info.IsDir() {
		return nil, eraserr.NotFound(root)
	}

	var files, dirs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eraserr.IoFailure(err, root)
	}

	e.logger.Log("INFO", "Wiping directory",
		"path", root, "files", len(files), "workers", e.opts.Concurrency)

	result := &DirResult{}
	var mu sync.Mutex

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				err := e.SecureDeleteFile(ctx, path)
				mu.Lock()
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, err)
					e.logger.Log("ERROR", "File wipe failed", "path", path, "error", err.Error())
				} else {
					result.FilesWiped++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, path := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Deepest directories first.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			e.logger.Log("DEBUG", "Directory not empty, will escalate", "path", dir)
		}
	}
	if _, err := os.Lstat(root); err == nil {
		if err := os.RemoveAll(root); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, eraserr.IoFailure(err, root))
		}
	}

	if result.Failed > 0 {
		return result, errors.Newf("wiped %d of %d files under %s",
			result.FilesWiped, len(files), root)
	}
	return result, nil
}
