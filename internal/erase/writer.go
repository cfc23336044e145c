// Package erase implements the overwrite engine: multi-pass file
// destruction, recursive directory wiping, free-space saturation and
// whole-drive purging.
package erase

import (
	"io"
	"os"
	"sync"
	"time"
)

// Writer is the capability the pass loop needs from a target. Plain
// files, throttled wrappers and future block-device adapters all fit.
type Writer interface {
	Seek(offset int64, whence int) (int64, error)
	Write(p []byte) (n int, err error)
	Flush() error
	Sync() error
}

// fileWriter adapts *os.File. Flush is a no-op since os.File writes
// are unbuffered; Sync is the durability point.
type fileWriter struct {
	f *os.File
}

// NewFileWriter wraps an open file as a pass target.
func NewFileWriter(f *os.File) Writer {
	return fileWriter{f: f}
}

func (w fileWriter) Seek(offset int64, whence int) (int64, error) { return w.f.Seek(offset, whence) }
func (w fileWriter) Write(p []byte) (int, error)                  { return w.f.Write(p) }
func (w fileWriter) Flush() error                                 { return nil }
func (w fileWriter) Sync() error                                  { return w.f.Sync() }

// ThrottledWriter limits write speed over an inner Writer. Thread-safe.
type ThrottledWriter struct {
	inner        Writer
	maxSpeedMBps float64
	lastWrite    time.Time
	mu           sync.Mutex
	closed       bool
}

// NewThrottledWriter wraps inner with a speed cap in MB/s. A zero or
// negative cap disables throttling.
func NewThrottledWriter(inner Writer, maxSpeedMBps float64) *ThrottledWriter {
	return &ThrottledWriter{
		inner:        inner,
		maxSpeedMBps: maxSpeedMBps,
		lastWrite:    time.Now(),
	}
}

// Write writes data, sleeping first when the previous write finished
// too recently for the configured speed.
func (tw *ThrottledWriter) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, io.ErrClosedPipe
	}

	if tw.maxSpeedMBps > 0 {
		bytesPerSec := tw.maxSpeedMBps * 1024 * 1024
		expected := time.Duration(float64(len(data)) / bytesPerSec * float64(time.Second))
		actual := time.Since(tw.lastWrite)
		if actual < expected {
			time.Sleep(expected - actual)
		}
	}

	n, err := tw.inner.Write(data)
	tw.lastWrite = time.Now()
	return n, err
}

// Seek delegates to the inner writer.
func (tw *ThrottledWriter) Seek(offset int64, whence int) (int64, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return 0, io.ErrClosedPipe
	}
	return tw.inner.Seek(offset, whence)
}

// Flush delegates to the inner writer.
func (tw *ThrottledWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return io.ErrClosedPipe
	}
	return tw.inner.Flush()
}

// Sync delegates to the inner writer.
func (tw *ThrottledWriter) Sync() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return io.ErrClosedPipe
	}
	return tw.inner.Sync()
}

// Close marks the writer closed. Later calls fail with ErrClosedPipe.
func (tw *ThrottledWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.closed = true
	return nil
}
