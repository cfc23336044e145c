package job

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/logging"
)

// DefaultCheckpointDir is where jobs persist unless configured
// otherwise.
func DefaultCheckpointDir() string {
	return filepath.Join(os.TempDir(), "secure_eraser_checkpoints")
}

// Manager creates, lists and reloads jobs out of one checkpoint
// directory.
type Manager struct {
	dir    string
	logger *logging.EnterpriseLogger
}

// NewManager ensures the checkpoint directory exists.
func NewManager(dir string, logger *logging.EnterpriseLogger) (*Manager, error) {
	if dir == "" {
		dir = DefaultCheckpointDir()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create checkpoint directory %s", dir)
	}
	return &Manager{dir: dir, logger: logger}, nil
}

// Dir returns the checkpoint directory.
func (m *Manager) Dir() string { return m.dir }

// CreateJob builds a new pending job with a fresh ID and saves its
// first checkpoint.
func (m *Manager) CreateJob(cfg Config) (*Job, error) {
	id := uuid.New().String()
	path := filepath.Join(m.dir, "job_"+id+".json")

	j := New(id, cfg, path, m.logger)
	if err := j.SaveCheckpoint(); err != nil {
		return nil, err
	}
	m.logger.Log("INFO", "Job created", "job_id", id, "operation", cfg.Operation)
	return j, nil
}

// Summary is one row of a job listing.
type Summary struct {
	ID             string `json:"job_id"`
	Status         Status `json:"status"`
	Operation      string `json:"operation"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	ProcessedItems int    `json:"processed_items"`
	TotalItems     int    `json:"total_items"`
}

// ListJobs returns summaries of every stored job, newest first.
// Unreadable checkpoints are skipped with a warning.
func (m *Manager) ListJobs() ([]Summary, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read checkpoint directory %s", m.dir)
	}

	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "job_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		j, err := LoadFromCheckpoint(filepath.Join(m.dir, name), m.logger)
		if err != nil {
			m.logger.Log("WARN", "Skipping unreadable checkpoint", "file", name, "error", err.Error())
			continue
		}
		out = append(out, Summary{
			ID:             j.ID,
			Status:         j.Status,
			Operation:      j.Config.Operation,
			CreatedAt:      j.CreatedAt,
			UpdatedAt:      j.UpdatedAt,
			ProcessedItems: j.Progress.ProcessedItems,
			TotalItems:     j.Progress.TotalItems,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UpdatedAt > out[k].UpdatedAt })
	return out, nil
}

// LoadJob reloads one job by ID.
func (m *Manager) LoadJob(id string) (*Job, error) {
	return LoadFromCheckpoint(filepath.Join(m.dir, "job_"+id+".json"), m.logger)
}

// DeleteJob removes a job's checkpoint.
func (m *Manager) DeleteJob(id string) error {
	path := filepath.Join(m.dir, "job_"+id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return eraserr.NotFound("job " + id)
		}
		return errors.Wrapf(err, "failed to delete checkpoint for job %s", id)
	}
	m.logger.Log("INFO", "Job deleted", "job_id", id)
	return nil
}
