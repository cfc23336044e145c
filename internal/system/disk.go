package system

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// FreeBytes returns the free space available to unprivileged callers
// on the filesystem containing path.
func FreeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// IsWritableDir reports whether path is an existing directory the
// current user can create files in.
func IsWritableDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	return unix.Access(path, unix.W_OK) == nil
}

// WorkerCount is the free-space saturation worker heuristic: one per
// logical CPU minus one for the coordinator, capped at 8 and never
// below 1. All workers share a single disk, so more does not help.
func WorkerCount() int {
	w := runtime.NumCPU() - 1
	if w > 8 {
		w = 8
	}
	if w < 1 {
		w = 1
	}
	return w
}
