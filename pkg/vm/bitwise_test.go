package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starling-lang/starling/pkg/asm"
	"github.com/starling-lang/starling/pkg/value"
)

// The tests in this file pin §9 Open Question 2: bitwise/shift
// opcodes operate on the 32-bit two's-complement truncation of a
// Number, truncating any fractional part rather than raising a type
// error, the same coercion JavaScript's bitwise operators use.
// runNumberProgram assembles a program with build, runs it, and
// returns the Number left on top of the stack.
func runNumberProgram(t *testing.T, build func(b *asm.Builder)) float64 {
	t.Helper()
	v := New(nil)
	b := asm.New(v.Pool())
	build(b)
	b.Return()
	entry := asm.Function("main", 0, 0, b)
	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	return v.StackTop().AsNumber()
}

func TestBitAnd(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(6)).Const(value.Number(3)).BitAnd()
	})
	assert.Equal(t, float64(2), got)
}

func TestBitOr(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(4)).Const(value.Number(1)).BitOr()
	})
	assert.Equal(t, float64(5), got)
}

func TestBitXor(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(5)).Const(value.Number(3)).BitXor()
	})
	assert.Equal(t, float64(6), got)
}

func TestBitNot(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(0)).BitNot()
	})
	assert.Equal(t, float64(-1), got)
}

func TestShiftLeft(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(1)).Const(value.Number(3)).ShiftLeft()
	})
	assert.Equal(t, float64(8), got)
}

func TestShiftRight(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(16)).Const(value.Number(2)).ShiftRight()
	})
	assert.Equal(t, float64(4), got)
}

// TestBitwiseTruncatesFractions demonstrates the truncation itself:
// 5.9 and 3.2 truncate to 5 and 3 before the bitwise AND runs.
func TestBitwiseTruncatesFractions(t *testing.T) {
	got := runNumberProgram(t, func(b *asm.Builder) {
		b.Const(value.Number(5.9)).Const(value.Number(3.2)).BitAnd()
	})
	assert.Equal(t, float64(1), got)
}
