package erase

import (
	"context"
	"os"
	"path/filepath"

	"secure_eraser/internal/eraserr"
)

// DriveResult summarizes a whole-drive wipe.
type DriveResult struct {
	Dir  *DirResult
	Free *FreeSpaceResult
}

// WipeEntireDrive purges everything under a mount point: every
// top-level entry is wiped, then the free space is saturated. Refuses
// outright without force; there is no interactive confirmation here,
// the caller owns that decision. Sub-step failures are logged and the
// wipe keeps going.
func (e *Engine) WipeEntireDrive(ctx context.Context, mount string, force bool) (*DriveResult, error) {
	if !force {
		return nil, eraserr.ErrForceRequired
	}
	info, err := os.Stat(mount)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eraserr.NotFound(mount)
		}
		return nil, eraserr.IoFailure(err, mount)
	}
	if !info.IsDir() {
		return nil, eraserr.NotFound(mount)
	}

	e.logger.Log("WARN", "Wiping entire drive", "mount", mount)
	result := &DriveResult{Dir: &DirResult{}}

	entries, err := os.ReadDir(mount)
	if err != nil {
		return nil, eraserr.IoFailure(err, mount)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		path := filepath.Join(mount, entry.Name())

		if entry.IsDir() {
			sub, err := e.SecureDeleteDirectory(ctx, path)
			if sub != nil {
				result.Dir.FilesWiped += sub.FilesWiped
				result.Dir.Failed += sub.Failed
				result.Dir.Errors = append(result.Dir.Errors, sub.Errors...)
			}
			if err != nil && ctx.Err() == nil {
				e.logger.Log("ERROR", "Directory purge failed, continuing", "path", path, "error", err.Error())
			}
			continue
		}

		if !entry.Type().IsRegular() {
			// Symlinks, sockets and the like carry no recoverable
			// content; unlinking is enough.
			if err := os.Remove(path); err != nil {
				e.logger.Log("ERROR", "Cannot remove special file", "path", path, "error", err.Error())
			}
			continue
		}

		if err := e.SecureDeleteFile(ctx, path); err != nil {
			result.Dir.Failed++
			result.Dir.Errors = append(result.Dir.Errors, err)
			e.logger.Log("ERROR", "File purge failed, continuing", "path", path, "error", err.Error())
		} else {
			result.Dir.FilesWiped++
		}
	}

	free, err := e.WipeFreeSpace(ctx, mount)
	result.Free = free
	if err != nil {
		return result, err
	}
	return result, nil
}
