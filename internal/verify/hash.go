// Package verify computes the evidence that wiping actually happened:
// before/after file hashes, free-space recovery sampling and signed
// verification reports.
package verify

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"secure_eraser/internal/logging"
)

// SupportedAlgorithms is the closed set of hash algorithms a
// verification engine can compute.
var SupportedAlgorithms = []string{"md5", "sha1", "sha256", "sha512"}

const hashChunkSize = 64 * 1024

// Engine computes file hashes for the configured algorithm set.
type Engine struct {
	algorithms []string
	logger     *logging.EnterpriseLogger
}

// NewEngine builds a verification engine. Unknown algorithm names are
// dropped with a warning; an empty result set falls back to sha256.
func NewEngine(algorithms []string, logger *logging.EnterpriseLogger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}

	var kept []string
	for _, name := range algorithms {
		name = strings.ToLower(strings.TrimSpace(name))
		if isSupported(name) {
			kept = append(kept, name)
			continue
		}
		logger.Log("WARN", "Ignoring unsupported hash algorithm", "algorithm", name)
	}
	if len(kept) == 0 {
		kept = []string{"sha256"}
	}
	return &Engine{algorithms: kept, logger: logger}
}

func isSupported(name string) bool {
	for _, s := range SupportedAlgorithms {
		if s == name {
			return true
		}
	}
	return false
}

// Algorithms returns the effective algorithm set.
func (e *Engine) Algorithms() []string {
	out := make([]string, len(e.algorithms))
	copy(out, e.algorithms)
	return out
}

func newHasher(name string) hash.Hash {
	switch name {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	case "sha512":
		return sha512.New()
	default:
		return sha256.New()
	}
}

// HashFile streams the file once through all configured hashers and
// returns hex digests keyed by algorithm name. Unreadable files yield
// an empty map, logged but never fatal: hashing is evidence gathering,
// not a gate.
func (e *Engine) HashFile(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Log("WARN", "Cannot open file for hashing", "path", path, "error", err.Error())
		return map[string]string{}
	}
	defer f.Close()

	hashers := make(map[string]hash.Hash, len(e.algorithms))
	writers := make([]io.Writer, 0, len(e.algorithms))
	for _, name := range e.algorithms {
		h := newHasher(name)
		hashers[name] = h
		writers = append(writers, h)
	}

	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(io.MultiWriter(writers...), f, buf); err != nil {
		e.logger.Log("WARN", "Hashing failed mid-read", "path", path, "error", err.Error())
		return map[string]string{}
	}

	digests := make(map[string]string, len(hashers))
	for name, h := range hashers {
		digests[name] = hex.EncodeToString(h.Sum(nil))
	}
	return digests
}
