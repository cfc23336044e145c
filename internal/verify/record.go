package verify

import (
	"os"
	"sync"
	"time"
)

// Record is one file's verification evidence inside a report. Built
// once per target, never mutated afterward.
type Record struct {
	Path         string            `json:"path"`
	FileName     string            `json:"file_name"`
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Size         int64             `json:"size"`
	Verified     bool              `json:"verified"`
	BeforeHashes map[string]string `json:"before_hashes"`
	AfterHashes  map[string]string `json:"after_hashes"`
	Algorithms   map[string]bool   `json:"algorithms_verified"`
	Error        string            `json:"error,omitempty"`
}

// Data accumulates records across a wiping run. Safe for concurrent
// use by directory workers.
type Data struct {
	mu      sync.Mutex
	Records []Record `json:"records"`
}

// NewData returns an empty record set.
func NewData() *Data {
	return &Data{}
}

// AddRecord appends one record.
func (d *Data) AddRecord(r Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Records = append(d.Records, r)
}

// Snapshot returns a copy of the accumulated records.
func (d *Data) Snapshot() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Record, len(d.Records))
	copy(out, d.Records)
	return out
}

// Len returns the record count.
func (d *Data) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Records)
}

// VerifiedCount returns how many records carry verified evidence.
func (d *Data) VerifiedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.Records {
		if r.Verified {
			n++
		}
	}
	return n
}

// Record builds the verification record for one target. Per-algorithm
// verification means the hash changed between before and after;
// overall Verified is the AND over algorithms with both sides present.
// A target that no longer exists on disk counts as verified outright,
// since removal is the goal of every operation recorded here.
func (e *Engine) Record(path, fileName, status string, before, after map[string]string, size int64) Record {
	r := Record{
		Path:         path,
		FileName:     fileName,
		Status:       status,
		Timestamp:    time.Now().Format(time.RFC3339),
		Size:         size,
		BeforeHashes: nonNil(before),
		AfterHashes:  nonNil(after),
		Algorithms:   make(map[string]bool, len(e.algorithms)),
	}

	comparable := 0
	allChanged := true
	for _, algo := range e.algorithms {
		b, hasBefore := before[algo]
		a, hasAfter := after[algo]
		changed := hasBefore && hasAfter && b != a
		r.Algorithms[algo] = changed
		if hasBefore && hasAfter {
			comparable++
			if !changed {
				allChanged = false
			}
		}
	}
	r.Verified = comparable > 0 && allChanged

	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.Verified = true
	}
	return r
}

// RecordEmptyFile is the record for a zero-byte target: there is no
// data to overwrite, removal is the whole job.
func (e *Engine) RecordEmptyFile(path, fileName string) Record {
	r := e.Record(path, fileName, "removed (empty file)", nil, nil, 0)
	r.Verified = true
	return r
}

// RecordFailure is the record for a target that could not be wiped.
func (e *Engine) RecordFailure(path, fileName string, size int64, err error) Record {
	r := e.Record(path, fileName, "failed", nil, nil, size)
	r.Verified = false
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
