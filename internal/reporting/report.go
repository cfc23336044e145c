// Package reporting persists verification evidence as JSON documents.
// The saved file is the only artifact external renderers consume.
package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"secure_eraser/internal/logging"
	"secure_eraser/internal/system"
	"secure_eraser/internal/verify"
)

// Report is the full verification document for one wiping run.
type Report struct {
	RunID         string                  `json:"run_id"`
	Timestamp     string                  `json:"timestamp"`
	Operation     string                  `json:"operation"`
	Method        string                  `json:"method"`
	Passes        int                     `json:"passes"`
	System        system.Info             `json:"system"`
	Records       []verify.Record         `json:"records"`
	FreeSpace     *verify.FreeSpaceReport `json:"free_space,omitempty"`
	TotalRecords  int                     `json:"total_records"`
	VerifiedCount int                     `json:"verified_count"`
	Signature     *verify.Signature       `json:"signature,omitempty"`
}

// Writer saves reports into a fixed directory.
type Writer struct {
	dir     string
	signKey string
	logger  *logging.EnterpriseLogger
}

// NewWriter builds a report writer. signKey enables HMAC signing of
// every saved report; empty disables it.
func NewWriter(dir, signKey string, logger *logging.EnterpriseLogger) (*Writer, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create reports directory %s", dir)
	}
	return &Writer{dir: dir, signKey: signKey, logger: logger}, nil
}

// Build assembles a report from accumulated records.
func (w *Writer) Build(operation, method string, passes int, data *verify.Data, freeSpace *verify.FreeSpaceReport) *Report {
	return &Report{
		RunID:         uuid.New().String(),
		Timestamp:     time.Now().Format(time.RFC3339),
		Operation:     operation,
		Method:        method,
		Passes:        passes,
		System:        system.CollectInfo(),
		Records:       data.Snapshot(),
		FreeSpace:     freeSpace,
		TotalRecords:  data.Len(),
		VerifiedCount: data.VerifiedCount(),
	}
}

// Save signs the report when a key is configured and writes it as a
// timestamped JSON file. Returns the saved path.
func (w *Writer) Save(report *Report) (string, error) {
	if w.signKey != "" {
		// The signature covers everything except itself.
		report.Signature = nil
		sig, err := verify.Sign(report, w.signKey)
		if err != nil {
			return "", err
		}
		report.Signature = sig
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to encode report")
	}

	name := fmt.Sprintf("erase_report_%s_%s.json",
		time.Now().Format("20060102_150405"), report.RunID[:8])
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write report %s", path)
	}

	w.logger.Log("INFO", "Report saved",
		"path", path, "records", report.TotalRecords, "verified", report.VerifiedCount)
	return path, nil
}
