package pattern

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/logging"
)

// Kind tags the three custom pattern shapes.
type Kind string

const (
	KindHex       Kind = "hex"
	KindMultiPass Kind = "multi_pass"
	KindGenerator Kind = "generator"
)

// Known generator names for KindGenerator patterns.
const (
	GenRandom       = "random"
	GenZeros        = "zeros"
	GenOnes         = "ones"
	GenAlternating  = "alternating"
	GenASCIINoise   = "ascii_noise"
	GenFibonacci    = "fibonacci"
	GenCounter      = "counter"
	GenRandomBlocks = "random_blocks"
)

// KnownGenerators maps generator names to their descriptions, for
// listing in the CLI and validating stored patterns.
var KnownGenerators = map[string]string{
	GenRandom:       "cryptographically secure random data",
	GenZeros:        "all zeros (0x00)",
	GenOnes:         "all ones (0xFF)",
	GenAlternating:  "alternating bits (0x55) or bytes (0x00 0xFF)",
	GenASCIINoise:   "random printable ASCII characters",
	GenFibonacci:    "Fibonacci sequence bytes",
	GenCounter:      "incrementing counter bytes",
	GenRandomBlocks: "random blocks of random data",
}

// CustomPattern is one user-defined wiping pattern, validated at
// creation or load time.
type CustomPattern struct {
	Type        Kind              `json:"type"`
	HexValue    string            `json:"hex_value,omitempty"`
	Passes      []CustomPass      `json:"passes,omitempty"`
	Generator   string            `json:"generator,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	Description string            `json:"description"`
}

// CustomPass is one pass of a multi-pass custom pattern.
type CustomPass struct {
	Type      string            `json:"type"` // hex, random, zeros, ones, generator
	HexValue  string            `json:"hex_value,omitempty"`
	Generator string            `json:"generator,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

var hexUnitRe = regexp.MustCompile(`^[0-9A-Fa-f]*$`)

func validHex(s string) bool {
	return hexUnitRe.MatchString(s) && len(s) > 0 && len(s)%2 == 0
}

// unitBytes decodes a hex pattern's repeating unit.
func (cp CustomPattern) unitBytes() ([]byte, error) {
	return hex.DecodeString(cp.HexValue)
}

// spec turns a multi-pass entry into a PassSpec.
func (p CustomPass) spec(pass int, name string) PassSpec {
	desc := fmt.Sprintf("custom pattern %q pass %d", name, pass+1)
	switch p.Type {
	case "hex":
		unit, err := hex.DecodeString(p.HexValue)
		if err != nil || len(unit) == 0 {
			return PassSpec{Index: pass, Description: "random data"}
		}
		return PassSpec{Index: pass, Pattern: unit, Description: desc}
	case "zeros":
		return PassSpec{Index: pass, Pattern: []byte{0x00}, Description: desc}
	case "ones":
		return PassSpec{Index: pass, Pattern: []byte{0xFF}, Description: desc}
	case "generator":
		return generatorSpec(pass, name, p.Generator, p.Params)
	default: // random
		return PassSpec{Index: pass, Description: desc + " (random data)"}
	}
}

func (p CustomPass) validate() error {
	switch p.Type {
	case "hex":
		if !validHex(p.HexValue) {
			return fmt.Errorf("pass hex value %q is not an even-length hex string", p.HexValue)
		}
	case "random", "zeros", "ones":
	case "generator":
		if _, ok := KnownGenerators[p.Generator]; !ok {
			return fmt.Errorf("unknown generator %q", p.Generator)
		}
	default:
		return fmt.Errorf("unknown pass type %q", p.Type)
	}
	return nil
}

func (cp CustomPattern) validate() error {
	switch cp.Type {
	case KindHex:
		if !validHex(cp.HexValue) {
			return fmt.Errorf("hex value %q is not an even-length hex string", cp.HexValue)
		}
	case KindMultiPass:
		if len(cp.Passes) == 0 {
			return fmt.Errorf("multi-pass pattern has no passes")
		}
		for i, p := range cp.Passes {
			if err := p.validate(); err != nil {
				return fmt.Errorf("pass %d: %w", i+1, err)
			}
		}
	case KindGenerator:
		if _, ok := KnownGenerators[cp.Generator]; !ok {
			return fmt.Errorf("unknown generator %q", cp.Generator)
		}
	default:
		return fmt.Errorf("unknown pattern type %q", cp.Type)
	}
	return nil
}

// Registry is the user-scoped store of custom patterns, backed by one
// JSON document. It is passed by reference into the pattern engine;
// nothing here is process-global.
type Registry struct {
	mu       sync.RWMutex
	path     string
	patterns map[string]CustomPattern
	logger   *logging.EnterpriseLogger
}

// NewRegistry loads the registry from path, creating an empty store
// when the file does not exist. Invalid entries are dropped with a
// warning, never fatally.
func NewRegistry(path string, logger *logging.EnterpriseLogger) (*Registry, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	r := &Registry{path: path, patterns: make(map[string]CustomPattern), logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read pattern store %s: %w", path, err)
	}

	var stored map[string]CustomPattern
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse pattern store %s: %w", path, err)
	}

	for name, cp := range stored {
		if err := cp.validate(); err != nil {
			logger.Log("WARN", "Dropping invalid custom pattern", "name", name, "error", err.Error())
			continue
		}
		r.patterns[name] = cp
	}
	return r, nil
}

// Create validates and stores a new pattern. Duplicate names and
// invalid definitions are rejected; nothing invalid ever reaches an
// erase loop.
func (r *Registry) Create(name string, cp CustomPattern) error {
	if name == "" {
		return eraserr.InvalidPattern(fmt.Errorf("empty pattern name"), name)
	}
	if err := cp.validate(); err != nil {
		return eraserr.InvalidPattern(err, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.patterns[name]; exists {
		return eraserr.InvalidPattern(fmt.Errorf("pattern already exists"), name)
	}
	r.patterns[name] = cp
	return r.saveLocked()
}

// CreateHex is the convenience path for plain hex patterns.
func (r *Registry) CreateHex(name, hexValue, description string) error {
	if description == "" {
		short := hexValue
		if len(short) > 16 {
			short = short[:16] + "..."
		}
		description = fmt.Sprintf("custom hex pattern: %s", short)
	}
	return r.Create(name, CustomPattern{Type: KindHex, HexValue: hexValue, Description: description})
}

// Delete removes a pattern from the registry and its store.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.patterns[name]; !exists {
		return eraserr.InvalidPattern(fmt.Errorf("pattern does not exist"), name)
	}
	delete(r.patterns, name)
	return r.saveLocked()
}

// Get looks up a pattern by name.
func (r *Registry) Get(name string) (CustomPattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp, ok := r.patterns[name]
	return cp, ok
}

// Names lists stored pattern names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) saveLocked() error {
	if r.path == "" {
		return nil // in-memory registry, used by tests
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create pattern store directory: %w", err)
	}
	data, err := json.MarshalIndent(r.patterns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pattern store: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pattern store %s: %w", r.path, err)
	}
	return nil
}

// NewMemoryRegistry returns an unsaved registry, handy for tests and
// embedding callers.
func NewMemoryRegistry(logger *logging.EnterpriseLogger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Registry{patterns: make(map[string]CustomPattern), logger: logger}
}
