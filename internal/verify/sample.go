package verify

import (
	"bytes"
	"fmt"
	"math"
	mrand "math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"secure_eraser/internal/eraserr"
)

// captureSize is how much free space the sampler tries to claim for
// inspection.
const captureSize int64 = 100 * 1024 * 1024

// suspiciousRatio is the tolerated fraction of suspicious samples
// before the whole check fails.
const suspiciousRatio = 0.05

// fileSignatures are magic prefixes of common recoverable formats.
// Finding one inside supposedly wiped free space means data survived.
var fileSignatures = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},       // ZIP / office documents
	[]byte("%PDF"),                 // PDF
	{0xFF, 0xD8, 0xFF},             // JPEG
	{0x89, 0x50, 0x4E, 0x47},       // PNG
	[]byte("GIF8"),                 // GIF
	{0x37, 0x7A, 0xBC, 0xAF},       // 7z
	[]byte("Rar!"),                 // RAR
	{0x1F, 0x8B},                   // gzip
	{0x7F, 0x45, 0x4C, 0x46},       // ELF
	[]byte("SQLite format 3"),      // SQLite database
	[]byte("-----BEGIN "),          // PEM keys and certificates
	[]byte("<?xml"),                // XML documents
	[]byte("CREATE TABLE"),         // SQL dumps
	[]byte("package main"),         // source code
}

// SampleResult is one inspected region of the capture file.
type SampleResult struct {
	Offset     int64   `json:"offset"`
	Size       int     `json:"size"`
	Entropy    float64 `json:"entropy"`
	Suspicious bool    `json:"suspicious"`
	Reason     string  `json:"reason,omitempty"`
}

// FreeSpaceReport summarizes a free-space recovery check.
type FreeSpaceReport struct {
	Path            string         `json:"path"`
	Timestamp       string         `json:"timestamp"`
	CapturedBytes   int64          `json:"captured_bytes"`
	SampleCount     int            `json:"sample_count"`
	SuspiciousCount int            `json:"suspicious_count"`
	Passed          bool           `json:"passed"`
	Samples         []SampleResult `json:"samples"`
}

// NormalizedEntropy returns Shannon entropy of data scaled to [0, 1].
// Empty data reads as zero entropy.
func NormalizedEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy / 8.0
}

// distinctValues counts distinct byte values, stopping early once it
// passes max.
func distinctValues(data []byte, max int) int {
	var seen [256]bool
	n := 0
	for _, b := range data {
		if !seen[b] {
			seen[b] = true
			n++
			if n > max {
				return n
			}
		}
	}
	return n
}

// classifySample decides whether one sample looks like surviving data.
// Uniform fills and simple repeating patterns are what a wipe leaves
// behind; real files show either compressed/encrypted entropy or the
// structured mid-range of text and executables.
func classifySample(data []byte) (bool, string) {
	for _, sig := range fileSignatures {
		if bytes.Contains(data, sig) {
			return true, fmt.Sprintf("file signature %x", sig[:min(len(sig), 4)])
		}
	}

	if distinctValues(data, 2) <= 2 {
		return false, ""
	}

	entropy := NormalizedEntropy(data)
	if entropy > 0.95 {
		return true, "entropy of encrypted or compressed data"
	}
	if entropy >= 0.4 && entropy <= 0.85 {
		return true, "entropy typical of structured data"
	}
	return false, ""
}

// allocate backs the capture file with size bytes of real extents.
// Filesystems without fallocate support (tmpfs on old kernels, some
// network mounts) get a sparse file of the same logical size.
func allocate(f *os.File, size int64) error {
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == nil {
		return nil
	}
	if err == unix.EOPNOTSUPP || err == unix.ENOSYS {
		return f.Truncate(size)
	}
	return err
}

// SampleFreeSpace claims a chunk of free space under dir, reads
// sampleCount random regions of sampleSize bytes out of it and
// classifies each. The capture file is removed before returning.
func (e *Engine) SampleFreeSpace(dir string, sampleCount, sampleSize int) (*FreeSpaceReport, error) {
	if sampleCount < 1 {
		sampleCount = 20
	}
	if sampleSize < 256 {
		sampleSize = 4096
	}

	capturePath := filepath.Join(dir, fmt.Sprintf(".verify_capture_%s", uuid.New().String()[:8]))
	f, err := os.OpenFile(capturePath, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0o600)
	if err != nil {
		return nil, eraserr.IoFailure(err, capturePath)
	}
	defer func() {
		f.Close()
		os.Remove(capturePath)
	}()

	// Allocate real extents so the capture actually claims free
	// blocks. Journaling filesystems return zeros for fresh extents;
	// a suspicious sample here means the allocator handed back raw
	// residue, which only happens when the wipe missed it.
	size := captureSize
	if err := allocate(f, size); err != nil {
		// Quota or tiny filesystems: claim what fits instead.
		size = 1 * 1024 * 1024
		if err := allocate(f, size); err != nil {
			return nil, eraserr.IoFailure(err, capturePath)
		}
	}

	report := &FreeSpaceReport{
		Path:        dir,
		Timestamp:   time.Now().Format(time.RFC3339),
		SampleCount: sampleCount,
	}
	report.CapturedBytes = size

	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	buf := make([]byte, sampleSize)
	maxOffset := size - int64(sampleSize)
	if maxOffset < 0 {
		maxOffset = 0
	}

	for i := 0; i < sampleCount; i++ {
		offset := int64(0)
		if maxOffset > 0 {
			offset = rng.Int63n(maxOffset)
		}
		n, err := f.ReadAt(buf, offset)
		if err != nil && n == 0 {
			e.logger.Log("WARN", "Free space sample read failed", "offset", offset, "error", err.Error())
			continue
		}
		data := buf[:n]

		suspicious, reason := classifySample(data)
		if suspicious {
			report.SuspiciousCount++
		}
		report.Samples = append(report.Samples, SampleResult{
			Offset:     offset,
			Size:       n,
			Entropy:    NormalizedEntropy(data),
			Suspicious: suspicious,
			Reason:     reason,
		})
	}

	taken := len(report.Samples)
	report.Passed = taken == 0 ||
		float64(report.SuspiciousCount)/float64(taken) <= suspiciousRatio
	return report, nil
}
