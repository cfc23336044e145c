// Package app wires the configuration, pattern registry, erase engine,
// job manager and reporting into the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"secure_eraser/internal/config"
	"secure_eraser/internal/erase"
	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/job"
	"secure_eraser/internal/logging"
	"secure_eraser/internal/pattern"
	"secure_eraser/internal/reporting"
)

// App is the assembled application.
type App struct {
	Cfg      *config.Config
	Logger   *logging.EnterpriseLogger
	Registry *pattern.Registry
	Patterns *pattern.Engine
	Jobs     *job.Manager
	Reports  *reporting.Writer
}

// New assembles the application from a validated configuration.
func New(cfg *config.Config, logger *logging.EnterpriseLogger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	registry, err := pattern.NewRegistry(cfg.Patterns.File, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pattern registry")
	}

	gen := pattern.SelectGenerator(logger)
	patterns := pattern.NewEngine(registry, gen, logger)

	jobs, err := job.NewManager(cfg.Jobs.CheckpointDir, logger)
	if err != nil {
		return nil, err
	}

	var reports *reporting.Writer
	if cfg.Reporting.Enabled {
		reports, err = reporting.NewWriter(cfg.Reporting.LocalPath, cfg.Reporting.SignKey, logger)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		Cfg:      cfg,
		Logger:   logger,
		Registry: registry,
		Patterns: patterns,
		Jobs:     jobs,
		Reports:  reports,
	}, nil
}

// WipeRequest describes one wiping run from the CLI.
type WipeRequest struct {
	Operation     string // file, directory, freespace, drive
	Targets       []string
	Method        string
	Passes        int
	Verify        bool
	Force         bool
	AntiForensics bool
	Progress      erase.ProgressFunc
}

// engineFor validates the method and builds the erase engine for a
// request, layering request values over the configuration.
func (a *App) engineFor(req WipeRequest) (*erase.Engine, pattern.Method, error) {
	methodName := req.Method
	if methodName == "" {
		methodName = a.Cfg.Wipe.Method
	}
	method, err := pattern.ParseMethod(methodName, a.Registry)
	if err != nil {
		return nil, "", err
	}

	passes := req.Passes
	if passes == 0 {
		passes = a.Cfg.Wipe.Passes
	}

	opts := erase.Options{
		Method:          method,
		Passes:          passes,
		ChunkSize:       a.Cfg.Wipe.ChunkSize,
		Verify:          req.Verify || a.Cfg.Verification.Enabled,
		HashAlgorithms:  a.Cfg.Verification.HashAlgorithms,
		Concurrency:     a.Cfg.Wipe.Concurrency,
		MaxSpeedMBps:    a.Cfg.Wipe.MaxSpeedMBps,
		MaxScratchBytes: a.Cfg.Wipe.MaxScratchBytes,
		SampleCount:     a.Cfg.Verification.Samples,
		SampleSize:      a.Cfg.Verification.SampleSize,
		AntiForensics:   req.AntiForensics || a.Cfg.Wipe.AntiForensics,
		Progress:        req.Progress,
	}
	return erase.NewEngine(a.Patterns, opts, a.Logger), method, nil
}

// RunWipe executes a wiping run under a fresh job, saving a report at
// the end. Per-target failures are recorded in the job; the run fails
// only when every target fails or the context is canceled.
func (a *App) RunWipe(ctx context.Context, req WipeRequest) (*job.Job, error) {
	engine, method, err := a.engineFor(req)
	if err != nil {
		return nil, err
	}

	j, err := a.Jobs.CreateJob(job.Config{
		Operation: req.Operation,
		Targets:   req.Targets,
		Method:    string(method),
		Passes:    engine.Passes(),
		Verify:    req.Verify,
		Force:     req.Force,

		AntiForensics: req.AntiForensics,
	})
	if err != nil {
		return nil, err
	}
	return j, a.execute(ctx, j, engine, method, req)
}

// ResumeJob reloads a paused or pending job and re-executes it,
// skipping items already completed.
func (a *App) ResumeJob(ctx context.Context, id string) (*job.Job, error) {
	j, err := a.Jobs.LoadJob(id)
	if err != nil {
		return nil, err
	}
	switch j.Status {
	case job.StatusPaused, job.StatusPending:
	default:
		return nil, eraserr.Mark(
			errors.Newf("cannot resume job %s in status %s", id, j.Status),
			eraserr.ErrJobStateViolation)
	}

	req := WipeRequest{
		Operation:     j.Config.Operation,
		Targets:       j.Config.Targets,
		Method:        j.Config.Method,
		Passes:        j.Config.Passes,
		Verify:        j.Config.Verify,
		Force:         j.Config.Force,
		AntiForensics: j.Config.AntiForensics,
	}
	engine, method, err := a.engineFor(req)
	if err != nil {
		return nil, err
	}
	return j, a.execute(ctx, j, engine, method, req)
}

func (a *App) execute(ctx context.Context, j *job.Job, engine *erase.Engine, method pattern.Method, req WipeRequest) error {
	if err := j.Start(); err != nil {
		return err
	}

	total := len(req.Targets)
	j.UpdateProgress(job.ProgressUpdate{TotalItems: &total})

	var freeReport *erase.FreeSpaceResult
	processed := 0
	failed := 0

	for _, target := range req.Targets {
		if err := ctx.Err(); err != nil {
			j.Pause()
			return err
		}
		if j.IsItemCompleted(target) {
			a.Logger.Log("INFO", "Skipping already completed target", "target", target)
			j.AddSkipped(target)
			processed++
			j.UpdateProgress(job.ProgressUpdate{ProcessedItems: &processed})
			continue
		}

		j.UpdateProgress(job.ProgressUpdate{CurrentItem: &target})
		err := a.wipeOne(ctx, engine, req, target, &freeReport)
		if err != nil {
			if ctx.Err() != nil {
				j.Pause()
				return ctx.Err()
			}
			failed++
			j.AddError(target, err)
			a.Logger.Log("ERROR", "Target failed", "target", target, "error", err.Error())
		} else {
			j.AddSuccess(target)
		}
		processed++
		j.UpdateProgress(job.ProgressUpdate{ProcessedItems: &processed})
	}

	success := failed < total || total == 0
	if err := j.Complete(success); err != nil {
		return err
	}

	if a.Reports != nil {
		report := a.Reports.Build(req.Operation, string(method), engine.Passes(), engine.Data(), nil)
		if freeReport != nil {
			report.FreeSpace = freeReport.Report
		}
		if _, err := a.Reports.Save(report); err != nil {
			a.Logger.Log("ERROR", "Report save failed", "error", err.Error())
		}
	}

	if !success {
		return errors.Newf("all %d targets failed", total)
	}
	return nil
}

func (a *App) wipeOne(ctx context.Context, engine *erase.Engine, req WipeRequest, target string, freeReport **erase.FreeSpaceResult) error {
	switch req.Operation {
	case "file":
		return engine.SecureDeleteFile(ctx, target)
	case "directory":
		_, err := engine.SecureDeleteDirectory(ctx, target)
		return err
	case "freespace":
		result, err := engine.WipeFreeSpace(ctx, target)
		if result != nil {
			*freeReport = result
		}
		return err
	case "drive":
		result, err := engine.WipeEntireDrive(ctx, target, req.Force)
		if result != nil && result.Free != nil {
			*freeReport = result.Free
		}
		return err
	default:
		return errors.Newf("unknown operation %q", req.Operation)
	}
}

// PatternSummary is one row of the patterns listing.
type PatternSummary struct {
	Name        string
	Kind        string
	Description string
}

// ListPatterns returns stored custom patterns plus the builtin method
// names, for the CLI.
func (a *App) ListPatterns() []PatternSummary {
	var out []PatternSummary
	for _, name := range a.Registry.Names() {
		cp, _ := a.Registry.Get(name)
		out = append(out, PatternSummary{
			Name:        fmt.Sprintf("custom:%s", name),
			Kind:        string(cp.Type),
			Description: cp.Description,
		})
	}
	return out
}

// ReportDir returns where reports land, empty when disabled.
func (a *App) ReportDir() string {
	if a.Reports == nil {
		return ""
	}
	return filepath.Clean(a.Cfg.Reporting.LocalPath)
}
