// Package job tracks pausable, resumable wiping runs. A job survives
// process restarts through per-job checkpoint files and skips items it
// already completed.
package job

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/logging"
)

// Status is the lifecycle state of a wiping job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Config is the operation description stored with a job so a resumed
// run re-executes with identical settings.
type Config struct {
	Operation string   `json:"operation"` // file, directory, freespace, drive
	Targets   []string `json:"targets"`
	Method    string   `json:"method"`
	Passes    int      `json:"passes"`
	Verify    bool     `json:"verify"`
	Force     bool     `json:"force,omitempty"`

	AntiForensics bool `json:"anti_forensics,omitempty"` // metadata scrambling before unlink
}

// Progress mirrors the checkpoint schema. Timestamps are RFC3339
// strings, empty when unset; durations are seconds.
type Progress struct {
	TotalItems             int     `json:"total_items"`
	ProcessedItems         int     `json:"processed_items"`
	CurrentItem            string  `json:"current_item"`
	CurrentItemProgress    float64 `json:"current_item_progress"`
	CurrentPass            int     `json:"current_pass"`
	TotalPasses            int     `json:"total_passes"`
	BytesProcessed         int64   `json:"bytes_processed"`
	BytesTotal             int64   `json:"bytes_total"`
	StartTime              string  `json:"start_time"`
	EndTime                string  `json:"end_time"`
	PauseTime              string  `json:"pause_time"`
	ResumeTime             string  `json:"resume_time"`
	PausedDuration         float64 `json:"paused_duration"`
	Duration               float64 `json:"duration,omitempty"`
	EstimatedTimeRemaining float64 `json:"estimated_time_remaining"`
}

// ItemError is one failed item in the results.
type ItemError struct {
	Item      string `json:"item"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Results counts outcomes across a job.
type Results struct {
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	Errors       []ItemError `json:"errors"`
}

// Checkpoint is the resumption state saved with a job.
type Checkpoint struct {
	LastCheckpoint string   `json:"last_checkpoint"`
	CompletedItems []string `json:"completed_items"`
	SkippedItems   []string `json:"skipped_items"`
}

// Job is one wiping run. All state changes go through its methods;
// fields are exported for serialization only.
type Job struct {
	ID         string     `json:"job_id"`
	CreatedAt  string     `json:"created_at"`
	UpdatedAt  string     `json:"updated_at"`
	Status     Status     `json:"status"`
	Config     Config     `json:"config"`
	Progress   Progress   `json:"progress"`
	Results    Results    `json:"results"`
	Checkpoint Checkpoint `json:"checkpoint"`

	mu        sync.Mutex
	path      string
	completed map[string]bool
	logger    *logging.EnterpriseLogger
}

// ProgressUpdate carries partial progress; nil fields leave the
// current value untouched.
type ProgressUpdate struct {
	TotalItems          *int
	ProcessedItems      *int
	CurrentItem         *string
	CurrentItemProgress *float64
	CurrentPass         *int
	TotalPasses         *int
	BytesProcessed      *int64
	BytesTotal          *int64
}

func now() string { return time.Now().Format(time.RFC3339Nano) }

// New builds a pending job persisted at path.
func New(id string, cfg Config, path string, logger *logging.EnterpriseLogger) *Job {
	if logger == nil {
		logger = logging.Nop()
	}
	ts := now()
	return &Job{
		ID:        id,
		CreatedAt: ts,
		UpdatedAt: ts,
		Status:    StatusPending,
		Config:    cfg,
		Progress:  Progress{TotalPasses: cfg.Passes},
		path:      path,
		completed: make(map[string]bool),
		logger:    logger,
	}
}

// Start moves a pending job to running, or resumes a paused one. On
// resume the paused interval is added to PausedDuration so ETA math
// keeps excluding it.
func (j *Job) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch j.Status {
	case StatusPending:
		j.Progress.StartTime = now()
	case StatusPaused:
		j.Progress.ResumeTime = now()
		if pause, err := time.Parse(time.RFC3339Nano, j.Progress.PauseTime); err == nil {
			if resume, err := time.Parse(time.RFC3339Nano, j.Progress.ResumeTime); err == nil {
				j.Progress.PausedDuration += resume.Sub(pause).Seconds()
			}
		}
		j.Progress.PauseTime = ""
	default:
		return eraserr.Mark(
			errors.Newf("cannot start job %s in status %s", j.ID, j.Status),
			eraserr.ErrJobStateViolation)
	}

	j.Status = StatusRunning
	j.UpdatedAt = now()
	j.saveLocked()
	j.logger.Log("INFO", "Job started", "job_id", j.ID)
	return nil
}

// Pause suspends a running job. Pausing anything else is a silent
// no-op so signal handlers can fire it unconditionally.
func (j *Job) Pause() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != StatusRunning {
		return nil
	}
	j.Status = StatusPaused
	j.Progress.PauseTime = now()
	j.UpdatedAt = now()
	j.saveLocked()
	j.logger.Log("INFO", "Job paused", "job_id", j.ID)
	return nil
}

// Complete finishes a running job as completed or failed and records
// the active duration.
func (j *Job) Complete(success bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != StatusRunning {
		return eraserr.Mark(
			errors.Newf("cannot complete job %s in status %s", j.ID, j.Status),
			eraserr.ErrJobStateViolation)
	}

	if success {
		j.Status = StatusCompleted
	} else {
		j.Status = StatusFailed
	}
	j.Progress.EndTime = now()
	if start, err := time.Parse(time.RFC3339Nano, j.Progress.StartTime); err == nil {
		if end, err := time.Parse(time.RFC3339Nano, j.Progress.EndTime); err == nil {
			j.Progress.Duration = end.Sub(start).Seconds() - j.Progress.PausedDuration
		}
	}
	j.UpdatedAt = now()
	j.saveLocked()
	j.logger.Log("INFO", "Job finished", "job_id", j.ID, "status", string(j.Status))
	return nil
}

// Cancel aborts a running or paused job.
func (j *Job) Cancel() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Status != StatusRunning && j.Status != StatusPaused {
		return eraserr.Mark(
			errors.Newf("cannot cancel job %s in status %s", j.ID, j.Status),
			eraserr.ErrJobStateViolation)
	}
	j.Status = StatusCanceled
	j.Progress.EndTime = now()
	j.UpdatedAt = now()
	j.saveLocked()
	j.logger.Log("INFO", "Job canceled", "job_id", j.ID)
	return nil
}

// UpdateProgress merges the update, recomputes the remaining-time
// estimate and checkpoints whenever processed items cross a 5% bucket.
func (j *Job) UpdateProgress(u ProgressUpdate) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if u.TotalItems != nil {
		j.Progress.TotalItems = *u.TotalItems
	}
	if u.ProcessedItems != nil {
		j.Progress.ProcessedItems = *u.ProcessedItems
	}
	if u.CurrentItem != nil {
		j.Progress.CurrentItem = *u.CurrentItem
	}
	if u.CurrentItemProgress != nil {
		j.Progress.CurrentItemProgress = *u.CurrentItemProgress
	}
	if u.CurrentPass != nil {
		j.Progress.CurrentPass = *u.CurrentPass
	}
	if u.TotalPasses != nil {
		j.Progress.TotalPasses = *u.TotalPasses
	}
	if u.BytesProcessed != nil {
		j.Progress.BytesProcessed = *u.BytesProcessed
	}
	if u.BytesTotal != nil {
		j.Progress.BytesTotal = *u.BytesTotal
	}

	if j.Progress.TotalItems > 0 && j.Progress.ProcessedItems > 0 &&
		j.Progress.StartTime != "" && j.Progress.EndTime == "" {
		if start, err := time.Parse(time.RFC3339Nano, j.Progress.StartTime); err == nil {
			elapsed := time.Since(start).Seconds() - j.Progress.PausedDuration
			if elapsed > 0 {
				ratio := float64(j.Progress.ProcessedItems) / float64(j.Progress.TotalItems)
				remaining := elapsed/ratio - elapsed
				if remaining > 0 {
					j.Progress.EstimatedTimeRemaining = remaining
				}
			}
		}
	}
	j.UpdatedAt = now()

	if j.Progress.TotalItems > 0 {
		oldBucket := (j.Progress.ProcessedItems - 1) * 20 / j.Progress.TotalItems
		newBucket := j.Progress.ProcessedItems * 20 / j.Progress.TotalItems
		if newBucket > oldBucket {
			j.saveLocked()
		}
	}
}

// AddSuccess records one completed item into the idempotence set.
func (j *Job) AddSuccess(item string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Results.SuccessCount++
	if !j.completed[item] {
		j.completed[item] = true
		j.Checkpoint.CompletedItems = append(j.Checkpoint.CompletedItems, item)
	}
	j.UpdatedAt = now()
}

// AddError records one failed item.
func (j *Job) AddError(item string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Results.ErrorCount++
	j.Results.Errors = append(j.Results.Errors, ItemError{
		Item:      item,
		Error:     err.Error(),
		Timestamp: now(),
	})
	j.UpdatedAt = now()
}

// AddSkipped records an item bypassed during resumption.
func (j *Job) AddSkipped(item string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Checkpoint.SkippedItems = append(j.Checkpoint.SkippedItems, item)
	j.UpdatedAt = now()
}

// IsItemCompleted reports whether a resumed job already wiped item.
func (j *Job) IsItemCompleted(item string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completed[item]
}

// Path returns the checkpoint file location.
func (j *Job) Path() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.path
}

// SaveCheckpoint persists the job durably.
func (j *Job) SaveCheckpoint() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.saveCheckpointLocked()
}

// saveLocked checkpoints without surfacing the error; state
// transitions never fail on a full or read-only checkpoint dir.
func (j *Job) saveLocked() {
	if err := j.saveCheckpointLocked(); err != nil {
		j.logger.Log("ERROR", "Checkpoint save failed", "job_id", j.ID, "error", err.Error())
	}
}

// saveCheckpointLocked writes the checkpoint atomically: temp file in
// the same directory, fsync, rename.
func (j *Job) saveCheckpointLocked() error {
	if j.path == "" {
		return nil
	}
	j.Checkpoint.LastCheckpoint = now()

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode checkpoint")
	}

	tmp := j.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrapf(err, "failed to create checkpoint temp file %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to write checkpoint")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to sync checkpoint")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to close checkpoint")
	}
	if err := os.Rename(tmp, j.path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to publish checkpoint %s", j.path)
	}
	return nil
}

// LoadFromCheckpoint reconstructs a job from its checkpoint file.
func LoadFromCheckpoint(path string, logger *logging.EnterpriseLogger) (*Job, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eraserr.NotFound(path)
		}
		return nil, errors.Wrapf(err, "failed to read checkpoint %s", path)
	}

	j := &Job{}
	if err := json.Unmarshal(data, j); err != nil {
		return nil, errors.Wrapf(err, "corrupt checkpoint %s", filepath.Base(path))
	}
	j.path = path
	j.logger = logger
	j.completed = make(map[string]bool, len(j.Checkpoint.CompletedItems))
	for _, item := range j.Checkpoint.CompletedItems {
		j.completed[item] = true
	}
	return j, nil
}
