package pattern

import (
	"crypto/rand"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20"

	"secure_eraser/internal/logging"
)

// DataGenerator produces the random bytes for nil-pattern passes. The
// erase loop is agnostic to which implementation is active; one is
// selected at startup by capability probing.
type DataGenerator interface {
	Name() string
	Read(p []byte) error
}

// cryptoGenerator draws directly from the OS CSPRNG. Always available,
// slowest option.
type cryptoGenerator struct{}

func (cryptoGenerator) Name() string { return "crypto/rand" }

func (cryptoGenerator) Read(p []byte) error {
	_, err := rand.Read(p)
	return err
}

// NewCryptoGenerator returns the portable CSPRNG-backed generator.
func NewCryptoGenerator() DataGenerator {
	return cryptoGenerator{}
}

// streamGenerator expands a crypto/rand seed through a ChaCha20
// keystream. Orders of magnitude faster than hitting the OS CSPRNG
// per chunk, which matters when saturating a disk. Re-keys well before
// the cipher's counter space runs out.
type streamGenerator struct {
	mu       sync.Mutex
	cipher   *chacha20.Cipher
	produced uint64
}

// rekeyThreshold is 64 GiB, far below the 256 GiB ChaCha20 counter
// limit per key/nonce pair.
const rekeyThreshold = 64 << 30

// NewStreamGenerator returns the accelerated keystream generator, or
// an error when the seed material cannot be drawn.
func NewStreamGenerator() (DataGenerator, error) {
	g := &streamGenerator{}
	if err := g.rekey(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *streamGenerator) Name() string { return "chacha20-stream" }

func (g *streamGenerator) rekey() error {
	var key [chacha20.KeySize]byte
	var nonce [chacha20.NonceSize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return fmt.Errorf("seeding stream generator: %w", err)
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("seeding stream generator: %w", err)
	}
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return fmt.Errorf("initializing stream generator: %w", err)
	}
	g.cipher = c
	g.produced = 0
	return nil
}

func (g *streamGenerator) Read(p []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.produced+uint64(len(p)) > rekeyThreshold {
		if err := g.rekey(); err != nil {
			return err
		}
	}
	clear(p)
	g.cipher.XORKeyStream(p, p)
	g.produced += uint64(len(p))
	return nil
}

// SelectGenerator probes for the accelerated generator and falls back
// to crypto/rand when it cannot be seeded. Called once at startup.
func SelectGenerator(logger *logging.EnterpriseLogger) DataGenerator {
	gen, err := NewStreamGenerator()
	if err != nil {
		if logger != nil {
			logger.Log("WARN", "Stream generator unavailable, falling back to crypto/rand", "error", err.Error())
		}
		return NewCryptoGenerator()
	}
	return gen
}

// Fill fills dst completely: by truncated repetition of pattern, or
// from gen when pattern is empty. dst keeps its exact length.
func Fill(dst []byte, pattern []byte, gen DataGenerator) error {
	if len(dst) == 0 {
		return nil
	}
	if len(pattern) == 0 {
		return gen.Read(dst)
	}
	for i := range dst {
		dst[i] = pattern[i%len(pattern)]
	}
	return nil
}

// Fill fills dst for a plain pattern using the engine's generator.
func (e *Engine) Fill(dst []byte, pat []byte) error {
	return Fill(dst, pat, e.gen)
}

// FillSpec fills dst according to a pass spec, dispatching to the
// named generator for stream passes.
func (e *Engine) FillSpec(dst []byte, spec PassSpec) error {
	if len(spec.Pattern) > 0 {
		return Fill(dst, spec.Pattern, e.gen)
	}
	switch spec.Generator {
	case "", GenRandom, GenRandomBlocks:
		return e.gen.Read(dst)
	case GenASCIINoise:
		if err := e.gen.Read(dst); err != nil {
			return err
		}
		// Map into the printable range 32..126.
		for i := range dst {
			dst[i] = 32 + dst[i]%95
		}
		return nil
	default:
		return e.gen.Read(dst)
	}
}

// FillBytes allocates and fills a buffer of exactly size bytes. nil
// pattern means CSPRNG output.
func (e *Engine) FillBytes(pat []byte, size int) ([]byte, error) {
	buf := make([]byte, size)
	if err := e.Fill(buf, pat); err != nil {
		return nil, err
	}
	return buf, nil
}

// fibonacciUnit is the byte-capped Fibonacci sequence used by the
// fibonacci generator pattern.
func fibonacciUnit() []byte {
	unit := make([]byte, 0, 255)
	a, b := 0, 1
	for a <= 255 && len(unit) < 255 {
		unit = append(unit, byte(a))
		a, b = b, (a+b)%256
	}
	return unit
}

// counterUnit is a 256-byte incrementing ramp.
func counterUnit() []byte {
	unit := make([]byte, 256)
	for i := range unit {
		unit[i] = byte(i)
	}
	return unit
}
