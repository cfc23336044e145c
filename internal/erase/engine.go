package erase

import (
	"secure_eraser/internal/logging"
	"secure_eraser/internal/pattern"
	"secure_eraser/internal/system"
	"secure_eraser/internal/verify"
)

const defaultChunkSize = 1024 * 1024

// ProgressFunc receives human-readable progress during an operation.
// percent is 0..100 for the current item; pass and total describe the
// overwrite pass in flight.
type ProgressFunc func(message string, percent float64, pass, total int)

// Options configures an erase engine for one run.
type Options struct {
	Method          pattern.Method
	Passes          int     // requested; floors apply per method
	ChunkSize       int     // bytes per write, default 1MB
	Verify          bool    // hash before wiping and record evidence
	HashAlgorithms  []string
	Concurrency     int     // directory and free-space workers, 0 = auto
	MaxSpeedMBps    float64 // 0 = unthrottled
	MaxScratchBytes int64   // free-space fill cap, 0 = until full
	SampleCount     int     // free-space verification samples
	SampleSize      int     // bytes per sample
	AntiForensics   bool    // scramble metadata and name before unlink
	Progress        ProgressFunc
}

// Engine runs erase operations. One engine serves one logical run and
// accumulates verification records across its operations.
type Engine struct {
	patterns *pattern.Engine
	verifier *verify.Engine
	logger   *logging.EnterpriseLogger
	pool     *bufferPool
	opts     Options
	passes   int
	data     *verify.Data
}

// NewEngine resolves options against the pattern engine and returns a
// ready erase engine. The pass count is fixed here, once.
func NewEngine(patterns *pattern.Engine, opts Options, logger *logging.EnterpriseLogger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Method == "" {
		opts.Method = pattern.MethodStandard
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = system.WorkerCount()
	}

	return &Engine{
		patterns: patterns,
		verifier: verify.NewEngine(opts.HashAlgorithms, logger),
		logger:   logger,
		pool:     newBufferPool(),
		opts:     opts,
		passes:   patterns.PassCount(opts.Method, opts.Passes),
		data:     verify.NewData(),
	}
}

// Passes returns the resolved overwrite pass count.
func (e *Engine) Passes() int { return e.passes }

// Data exposes the verification records gathered so far.
func (e *Engine) Data() *verify.Data { return e.data }

// Verifier exposes the hash engine, for free-space sampling reports.
func (e *Engine) Verifier() *verify.Engine { return e.verifier }

func (e *Engine) progress(message string, percent float64, pass, total int) {
	if e.opts.Progress != nil {
		e.opts.Progress(message, percent, pass, total)
	}
}

// wrapWriter applies throttling when a speed cap is configured.
func (e *Engine) wrapWriter(w Writer) Writer {
	if e.opts.MaxSpeedMBps > 0 {
		return NewThrottledWriter(w, e.opts.MaxSpeedMBps)
	}
	return w
}
