// Package pattern decides what bytes every overwrite pass writes for a
// given wiping standard. It owns the built-in military schedules, the
// user pattern registry and the random data generators; the erase
// engine only ever sees a PassSpec and a filled buffer.
package pattern

import (
	"fmt"
	"strings"

	"secure_eraser/internal/eraserr"
	"secure_eraser/internal/logging"
)

// Method identifies a wiping standard.
type Method string

const (
	MethodStandard    Method = "standard"
	MethodDoD3        Method = "dod3"
	MethodDoD7        Method = "dod7"
	MethodGutmann     Method = "gutmann"
	MethodParanoid    Method = "paranoid"
	MethodNistClear   Method = "nist-clear"
	MethodNistPurge   Method = "nist-purge"
	MethodHmgBaseline Method = "hmg-baseline"
	MethodHmgEnhanced Method = "hmg-enhanced"
	MethodNavso       Method = "navso"
	MethodAfssi       Method = "afssi"
	MethodAR380       Method = "ar380-19"
	MethodCSC         Method = "csc"
)

// customPrefix marks methods resolved through the pattern registry.
const customPrefix = "custom:"

// PassSpec describes one overwrite pass. A nil Pattern means the pass
// is filled by a data generator (Generator, defaulting to CSPRNG
// output); otherwise Pattern is a short repeating unit.
type PassSpec struct {
	Index       int
	Pattern     []byte
	Generator   string
	Description string
}

type passEntry struct {
	pattern []byte
	desc    string
}

var (
	randomPass = passEntry{nil, "random data"}

	dod3Schedule = []passEntry{
		{[]byte{0x00}, "all zeros (0x00)"},
		{[]byte{0xFF}, "all ones (0xFF)"},
		randomPass,
	}

	dod7Schedule = []passEntry{
		{[]byte{0x00}, "all zeros (0x00)"},
		{[]byte{0xFF}, "all ones (0xFF)"},
		randomPass,
		randomPass,
		{[]byte{0x00}, "all zeros (0x00)"},
		{[]byte{0xFF}, "all ones (0xFF)"},
		randomPass,
	}

	hmgEnhancedSchedule = []passEntry{
		{[]byte{0x00}, "all zeros (0x00)"},
		randomPass,
		{nil, "random data verification"},
	}

	navsoSchedule = []passEntry{
		{[]byte{0x01}, "character pattern (0x01)"},
		{[]byte{0xFE}, "complement (0xFE)"},
		randomPass,
	}

	ar380Schedule = []passEntry{
		randomPass,
		{[]byte{0xFE}, "specified character (0xFE)"},
		{[]byte{0x01}, "complement (0x01)"},
		randomPass,
		randomPass,
		randomPass,
		randomPass,
	}

	cscSchedule = []passEntry{
		{[]byte{0x00}, "all zeros (0x00)"},
		{[]byte{0xFF}, "all ones (0xFF)"},
		randomPass,
		{[]byte{0x96}, "pattern A (0x96)"},
		{[]byte{0x69}, "complement of pattern A (0x69)"},
		{[]byte{0xAA}, "pattern B (0xAA)"},
		{[]byte{0x55}, "complement of pattern B (0x55)"},
	}

	gutmannSchedule = buildGutmannSchedule()
)

// buildGutmannSchedule assembles the fixed 35-pass schedule: 4 random
// passes, 6 static patterns, 16 byte sweeps, 5 static patterns, 4
// random passes. The static values are representative of Gutmann's
// published sequence, not a bit-exact reproduction.
func buildGutmannSchedule() []passEntry {
	s := make([]passEntry, 0, 35)
	for i := 0; i < 4; i++ {
		s = append(s, randomPass)
	}
	s = append(s,
		passEntry{[]byte{0x55}, "alternating bits (0x55)"},
		passEntry{[]byte{0xAA}, "alternating bits (0xAA)"},
		passEntry{[]byte{0x92, 0x49, 0x24}, "pattern 0x924924"},
		passEntry{[]byte{0x49, 0x24, 0x92}, "pattern 0x492492"},
		passEntry{[]byte{0x24, 0x92, 0x49}, "pattern 0x249249"},
		passEntry{[]byte{0x00}, "all zeros (0x00)"},
	)
	for i := 1; i <= 15; i++ {
		b := byte(i * 0x11)
		s = append(s, passEntry{[]byte{b}, fmt.Sprintf("byte sweep (0x%02X)", b)})
	}
	s = append(s, passEntry{[]byte{0xFF}, "all ones (0xFF)"})
	s = append(s,
		passEntry{[]byte{0x6D, 0xB6, 0xDB}, "pattern 0x6DB6DB"},
		passEntry{[]byte{0xB6, 0xDB, 0x6D}, "pattern 0xB6DB6D"},
		passEntry{[]byte{0xDB, 0x6D, 0xB6}, "pattern 0xDB6DB6"},
		passEntry{[]byte{0x00, 0xFF}, "alternating bytes (0x00FF)"},
		passEntry{[]byte{0x55, 0xAA}, "alternating bytes (0x55AA)"},
	)
	for i := 0; i < 4; i++ {
		s = append(s, randomPass)
	}
	return s
}

// builtinMethods is the closed set of non-custom methods.
var builtinMethods = map[Method]bool{
	MethodStandard: true, MethodDoD3: true, MethodDoD7: true,
	MethodGutmann: true, MethodParanoid: true, MethodNistClear: true,
	MethodNistPurge: true, MethodHmgBaseline: true, MethodHmgEnhanced: true,
	MethodNavso: true, MethodAfssi: true, MethodAR380: true, MethodCSC: true,
}

// ParseMethod validates a method name. Custom methods are checked
// against the registry here, at configuration time; an unknown name
// never reaches the erase loop.
func ParseMethod(s string, reg *Registry) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if builtinMethods[m] {
		return m, nil
	}
	if name, ok := strings.CutPrefix(string(m), customPrefix); ok {
		if reg == nil {
			return "", eraserr.InvalidPattern(fmt.Errorf("no pattern registry configured"), name)
		}
		if _, ok := reg.Get(name); !ok {
			return "", eraserr.InvalidPattern(fmt.Errorf("not found in registry"), name)
		}
		return m, nil
	}
	return "", fmt.Errorf("unsupported wipe method: %s", s)
}

// IsCustom reports whether m resolves through the pattern registry.
func (m Method) IsCustom() bool {
	return strings.HasPrefix(string(m), customPrefix)
}

// CustomName returns the registry key of a custom method.
func (m Method) CustomName() string {
	return strings.TrimPrefix(string(m), customPrefix)
}

// Engine resolves methods to pass specs and fills buffers. The
// registry is passed in explicitly; there is no process-wide state.
type Engine struct {
	registry *Registry
	gen      DataGenerator
	logger   *logging.EnterpriseLogger
}

// NewEngine builds a pattern engine. reg may be nil when custom
// methods are not in play; gen must not be nil.
func NewEngine(reg *Registry, gen DataGenerator, logger *logging.EnterpriseLogger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{registry: reg, gen: gen, logger: logger}
}

// PassCount resolves the effective pass count for a method. Fixed
// standards ignore the requested count; floor-based ones never go
// below their documented minimum. Resolved once at configuration time.
func (e *Engine) PassCount(m Method, requested int) int {
	switch m {
	case MethodStandard:
		if requested < 1 {
			return 1
		}
		return requested
	case MethodDoD3, MethodAfssi, MethodNavso, MethodHmgEnhanced:
		return 3
	case MethodDoD7, MethodAR380, MethodCSC:
		return 7
	case MethodGutmann:
		return 35
	case MethodParanoid:
		if requested < 49 {
			return 49
		}
		return requested
	case MethodNistClear, MethodNistPurge, MethodHmgBaseline:
		return 1
	}

	if m.IsCustom() && e.registry != nil {
		if cp, ok := e.registry.Get(m.CustomName()); ok && cp.Type == KindMultiPass {
			if requested < len(cp.Passes) {
				return len(cp.Passes)
			}
			return requested
		}
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// Spec returns the pass spec for a given method and zero-based pass
// index. Indexes beyond a schedule fall back to random data.
func (e *Engine) Spec(m Method, pass int) PassSpec {
	if m.IsCustom() {
		return e.customSpec(m.CustomName(), pass)
	}

	var schedule []passEntry
	switch m {
	case MethodStandard:
		// Every standard pass is fresh CSPRNG output.
		return PassSpec{Index: pass, Description: "random data"}
	case MethodDoD3, MethodAfssi:
		schedule = dod3Schedule
	case MethodDoD7:
		schedule = dod7Schedule
	case MethodGutmann:
		schedule = gutmannSchedule
	case MethodParanoid:
		schedule = dod7Schedule
	case MethodNistClear:
		return PassSpec{Index: pass, Pattern: []byte{0x00}, Description: "all zeros (0x00)"}
	case MethodNistPurge:
		return PassSpec{Index: pass, Pattern: []byte{0xFF}, Description: "all ones (0xFF)"}
	case MethodHmgBaseline:
		return PassSpec{Index: pass, Description: "random data"}
	case MethodHmgEnhanced:
		schedule = hmgEnhancedSchedule
	case MethodNavso:
		schedule = navsoSchedule
	case MethodAR380:
		schedule = ar380Schedule
	case MethodCSC:
		schedule = cscSchedule
	default:
		return PassSpec{Index: pass, Description: "random data"}
	}

	if pass < 0 || pass >= len(schedule) {
		return PassSpec{Index: pass, Description: "random data"}
	}
	entry := schedule[pass]
	return PassSpec{Index: pass, Pattern: entry.pattern, Description: entry.desc}
}

// Describe returns the human-readable pattern name for logs and
// reports.
func (e *Engine) Describe(m Method, pass int) string {
	return e.Spec(m, pass).Description
}

// customSpec resolves a custom pattern to the spec for one pass.
// Multi-pass patterns cycle; hex patterns repeat every pass.
func (e *Engine) customSpec(name string, pass int) PassSpec {
	cp, ok := e.registry.Get(name)
	if !ok {
		// ParseMethod ensures this cannot happen for configured jobs.
		e.logger.Log("WARN", "Custom pattern disappeared from registry, using random data", "name", name)
		return PassSpec{Index: pass, Description: "random data"}
	}

	switch cp.Type {
	case KindHex:
		unit, err := cp.unitBytes()
		if err != nil {
			e.logger.Log("WARN", "Custom hex pattern no longer parses, using random data", "name", name, "error", err.Error())
			return PassSpec{Index: pass, Description: "random data"}
		}
		return PassSpec{Index: pass, Pattern: unit, Description: fmt.Sprintf("custom hex pattern %q", name)}
	case KindMultiPass:
		if len(cp.Passes) == 0 {
			return PassSpec{Index: pass, Description: "random data"}
		}
		p := cp.Passes[pass%len(cp.Passes)]
		return p.spec(pass, name)
	case KindGenerator:
		return generatorSpec(pass, name, cp.Generator, cp.Params)
	}
	return PassSpec{Index: pass, Description: "random data"}
}

// generatorSpec maps a generator name to a pass spec. Deterministic
// generators materialize a repeating unit; stream generators stay
// nil-pattern and are filled per chunk.
func generatorSpec(pass int, name, generator string, params map[string]string) PassSpec {
	desc := fmt.Sprintf("custom generator %q (%s)", name, generator)
	switch generator {
	case GenZeros:
		return PassSpec{Index: pass, Pattern: []byte{0x00}, Description: desc}
	case GenOnes:
		return PassSpec{Index: pass, Pattern: []byte{0xFF}, Description: desc}
	case GenAlternating:
		if params["type"] == "bytes" {
			return PassSpec{Index: pass, Pattern: []byte{0x00, 0xFF}, Description: desc}
		}
		return PassSpec{Index: pass, Pattern: []byte{0x55}, Description: desc}
	case GenFibonacci:
		return PassSpec{Index: pass, Pattern: fibonacciUnit(), Description: desc}
	case GenCounter:
		return PassSpec{Index: pass, Pattern: counterUnit(), Description: desc}
	default:
		// random, ascii_noise, random_blocks stream fresh data.
		return PassSpec{Index: pass, Generator: generator, Description: desc}
	}
}
