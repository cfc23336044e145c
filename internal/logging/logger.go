package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"secure_eraser/internal/config"
)

// EnterpriseLogger is the audit logger used across the eraser. The
// Log(level, message, kv...) surface stays stable for every caller;
// underneath it tees a console core and an optional file core.
type EnterpriseLogger struct {
	zl      *zap.Logger
	level   zapcore.Level
	verbose bool
	file    *os.File
}

// NewEnterpriseLogger builds a logger from the loaded configuration.
// A log file that cannot be opened degrades to console-only output
// with a warning rather than failing startup.
func NewEnterpriseLogger(cfg *config.Config, verbose bool) (*EnterpriseLogger, error) {
	level := parseLevel(cfg.Logging.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleLevel := level
	if !verbose {
		// Quiet console unless something needs attention.
		consoleLevel = zapcore.ErrorLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	var logFile *os.File
	if cfg.Logging.File != "" {
		logDir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] cannot create log directory %s: %v, logging to console only\n", logDir, err)
		} else {
			f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] cannot open log file %s: %v, logging to console only\n", cfg.Logging.File, err)
			} else {
				logFile = f
				cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(f), level))
			}
		}
	}

	return &EnterpriseLogger{
		zl:      zap.New(zapcore.NewTee(cores...)),
		level:   level,
		verbose: verbose,
		file:    logFile,
	}, nil
}

// FromZap wraps an existing zap logger. Tests hand in zaptest loggers
// through this.
func FromZap(zl *zap.Logger) *EnterpriseLogger {
	return &EnterpriseLogger{zl: zl, level: zapcore.DebugLevel, verbose: true}
}

// Nop returns a logger that discards everything.
func Nop() *EnterpriseLogger {
	return FromZap(zap.NewNop())
}

// Log emits one entry. Fields are alternating key/value pairs; a
// trailing odd value is kept under the key "extra".
func (l *EnterpriseLogger) Log(level, message string, fields ...interface{}) {
	zf := make([]zap.Field, 0, len(fields)/2+1)
	i := 0
	for ; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		zf = append(zf, zap.Any(key, fields[i+1]))
	}
	if i < len(fields) {
		zf = append(zf, zap.Any("extra", fields[i]))
	}

	switch parseLevel(level) {
	case zapcore.DebugLevel:
		l.zl.Debug(message, zf...)
	case zapcore.InfoLevel:
		l.zl.Info(message, zf...)
	case zapcore.WarnLevel:
		l.zl.Warn(message, zf...)
	case zapcore.FatalLevel:
		l.zl.Fatal(message, zf...)
	default:
		l.zl.Error(message, zf...)
	}
}

// Zap exposes the underlying logger for packages that want structured
// calls directly.
func (l *EnterpriseLogger) Zap() *zap.Logger {
	return l.zl
}

func (l *EnterpriseLogger) Close() error {
	_ = l.zl.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
