package pattern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure_eraser/internal/logging"
)

func newTestEngine(t *testing.T, reg *Registry) *Engine {
	t.Helper()
	return NewEngine(reg, NewCryptoGenerator(), logging.Nop())
}

func TestParseMethodBuiltins(t *testing.T) {
	for name := range builtinMethods {
		m, err := ParseMethod(string(name), nil)
		require.NoError(t, err, "method %s", name)
		assert.Equal(t, name, m)
	}
}

func TestParseMethodNormalizes(t *testing.T) {
	m, err := ParseMethod("  DoD7 ", nil)
	require.NoError(t, err)
	assert.Equal(t, MethodDoD7, m)
}

func TestParseMethodRejectsUnknown(t *testing.T) {
	_, err := ParseMethod("quantum", nil)
	assert.Error(t, err)
}

func TestParseMethodCustomRequiresRegistryEntry(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	_, err := ParseMethod("custom:missing", reg)
	require.Error(t, err)

	require.NoError(t, reg.CreateHex("deadbeef", "DEADBEEF", ""))
	m, err := ParseMethod("custom:deadbeef", reg)
	require.NoError(t, err)
	assert.True(t, m.IsCustom())
	assert.Equal(t, "deadbeef", m.CustomName())
}

func TestPassCountFloors(t *testing.T) {
	e := newTestEngine(t, nil)

	cases := []struct {
		method    Method
		requested int
		want      int
	}{
		{MethodStandard, 0, 1},
		{MethodStandard, 5, 5},
		{MethodDoD3, 1, 3},
		{MethodDoD3, 99, 3},
		{MethodAfssi, 1, 3},
		{MethodNavso, 1, 3},
		{MethodHmgEnhanced, 1, 3},
		{MethodDoD7, 1, 7},
		{MethodAR380, 1, 7},
		{MethodCSC, 1, 7},
		{MethodGutmann, 1, 35},
		{MethodGutmann, 100, 35},
		{MethodParanoid, 1, 49},
		{MethodParanoid, 60, 60},
		{MethodNistClear, 5, 1},
		{MethodNistPurge, 5, 1},
		{MethodHmgBaseline, 5, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.PassCount(tc.method, tc.requested),
			"method %s requested %d", tc.method, tc.requested)
	}
}

func TestPassCountMultiPassCustom(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	require.NoError(t, reg.Create("trio", CustomPattern{
		Type: KindMultiPass,
		Passes: []CustomPass{
			{Type: "zeros"},
			{Type: "ones"},
			{Type: "random"},
		},
		Description: "three pass test pattern",
	}))
	e := newTestEngine(t, reg)

	assert.Equal(t, 3, e.PassCount(Method("custom:trio"), 1))
	assert.Equal(t, 6, e.PassCount(Method("custom:trio"), 6))
}

func TestGutmannScheduleShape(t *testing.T) {
	require.Len(t, gutmannSchedule, 35)

	e := newTestEngine(t, nil)
	randomCount := 0
	for i := 0; i < 35; i++ {
		if e.Spec(MethodGutmann, i).Pattern == nil {
			randomCount++
		}
	}
	assert.Equal(t, 8, randomCount, "4 leading and 4 trailing random passes")
	assert.Equal(t, []byte{0x55}, e.Spec(MethodGutmann, 4).Pattern)
	assert.Equal(t, []byte{0x92, 0x49, 0x24}, e.Spec(MethodGutmann, 6).Pattern)
}

func TestSpecDoD3(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.Equal(t, []byte{0x00}, e.Spec(MethodDoD3, 0).Pattern)
	assert.Equal(t, []byte{0xFF}, e.Spec(MethodDoD3, 1).Pattern)
	assert.Nil(t, e.Spec(MethodDoD3, 2).Pattern)
}

func TestSpecStandard(t *testing.T) {
	e := newTestEngine(t, nil)

	for pass := 0; pass < 6; pass++ {
		spec := e.Spec(MethodStandard, pass)
		assert.Nil(t, spec.Pattern, "pass %d", pass)
		assert.Equal(t, "random data", spec.Description, "pass %d", pass)
	}
}

func TestSpecParanoidExtendsWithRandom(t *testing.T) {
	e := newTestEngine(t, nil)

	// First seven passes follow the 7-pass schedule, the rest are random.
	assert.Equal(t, []byte{0x00}, e.Spec(MethodParanoid, 0).Pattern)
	assert.Nil(t, e.Spec(MethodParanoid, 20).Pattern)
	assert.Nil(t, e.Spec(MethodParanoid, 48).Pattern)
}

func TestSpecSinglePassStandards(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.Equal(t, []byte{0x00}, e.Spec(MethodNistClear, 0).Pattern)
	assert.Equal(t, []byte{0xFF}, e.Spec(MethodNistPurge, 0).Pattern)
	assert.Nil(t, e.Spec(MethodHmgBaseline, 0).Pattern)
}

func TestSpecCustomMultiPassCycles(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	require.NoError(t, reg.Create("zo", CustomPattern{
		Type: KindMultiPass,
		Passes: []CustomPass{
			{Type: "zeros"},
			{Type: "hex", HexValue: "AB"},
		},
		Description: "zero then 0xAB",
	}))
	e := newTestEngine(t, reg)

	m := Method("custom:zo")
	assert.Equal(t, []byte{0x00}, e.Spec(m, 0).Pattern)
	assert.Equal(t, []byte{0xAB}, e.Spec(m, 1).Pattern)
	assert.Equal(t, []byte{0x00}, e.Spec(m, 2).Pattern, "passes cycle")
}

func TestSpecCustomGenerator(t *testing.T) {
	reg := NewMemoryRegistry(nil)
	require.NoError(t, reg.Create("alt", CustomPattern{
		Type:        KindGenerator,
		Generator:   GenAlternating,
		Params:      map[string]string{"type": "bytes"},
		Description: "alternating byte pairs",
	}))
	require.NoError(t, reg.Create("noise", CustomPattern{
		Type:        KindGenerator,
		Generator:   GenASCIINoise,
		Description: "printable noise",
	}))
	e := newTestEngine(t, reg)

	assert.Equal(t, []byte{0x00, 0xFF}, e.Spec(Method("custom:alt"), 0).Pattern)

	noise := e.Spec(Method("custom:noise"), 0)
	assert.Nil(t, noise.Pattern)
	assert.Equal(t, GenASCIINoise, noise.Generator)
}

func TestDescribeNamesEveryPass(t *testing.T) {
	e := newTestEngine(t, nil)
	for m := range builtinMethods {
		for pass := 0; pass < e.PassCount(m, 1); pass++ {
			desc := e.Describe(m, pass)
			assert.NotEmpty(t, desc, fmt.Sprintf("%s pass %d", m, pass))
		}
	}
}
