package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starling-lang/starling/pkg/asm"
	"github.com/starling-lang/starling/pkg/value"
)

func TestArithmeticAndHalt(t *testing.T) {
	v := New(nil)
	b := asm.New(v.Pool())
	b.Const(value.Number(2)).Const(value.Number(3)).Add().Halt()
	entry := asm.Function("main", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(5), v.StackTop().AsNumber())
}

// TestClosureCapturesByReference pins spec.md §8 scenario 1: two
// closures over the same enclosing local share one upvalue cell, so a
// mutation through one is visible through the other.
func TestClosureCapturesByReference(t *testing.T) {
	v := New(nil)
	pool := v.Pool()

	getBody := asm.New(pool)
	getBody.GetUpvalue(0).Return()
	getFn := asm.Function("get", 0, 1, getBody)

	incBody := asm.New(pool)
	incBody.GetUpvalue(0).Const(value.Number(1)).Add().SetUpvalue(0).Pop().Nil().Return()
	incFn := asm.Function("inc", 0, 1, incBody)

	outer := asm.New(pool)
	outer.Const(value.Number(1)) // x = 1, in slot 1 (slot 0 is the frame's own closure)

	getIdx := outer.FunctionConstant(getFn)
	outer.Closure(getIdx, []asm.UpvalueRef{{IsLocal: true, Index: 1}}) // get, in slot 2

	incIdx := outer.FunctionConstant(incFn)
	outer.Closure(incIdx, []asm.UpvalueRef{{IsLocal: true, Index: 1}}) // inc, in slot 3

	outer.GetLocal(3).Call(0).Pop() // inc()
	outer.GetLocal(3).Call(0).Pop() // inc()
	outer.GetLocal(2).Call(0)       // get() -> 3
	outer.Return()

	entry := asm.Function("outer", 0, 0, outer)
	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(3), v.StackTop().AsNumber())
}

// TestArrayPrototypeMethods pins spec.md §8 scenario 2: push/push/length
// dispatched through the array's built-in prototype.
func TestArrayPrototypeMethods(t *testing.T) {
	v := New(nil)
	b := asm.New(v.Pool())
	b.NewArray(0).
		Const(value.Number(10)).MethodCall(1, "push").
		Const(value.Number(20)).MethodCall(1, "push").
		MethodCall(0, "length").
		Return()
	entry := asm.Function("main", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(2), v.StackTop().AsNumber())
}

// TestStringInterningIdentity pins spec.md §8's boundary case: two
// equal strings built different ways intern to the same backing
// pointer, so Equal is true by pointer comparison alone.
func TestStringInterningIdentity(t *testing.T) {
	v := New(nil)
	b := asm.New(v.Pool())
	b.ConstString("foo").
		ConstString("fo").ConstString("o").Concat().
		Equal().
		Return()
	entry := asm.Function("main", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.True(t, v.StackTop().AsBool())
}

// TestArityMismatchIsRuntimeError pins spec.md §8's arity-mismatch
// scenario: calling a 1-argument function with 2 arguments raises an
// ErrArity RuntimeError naming the callee.
func TestArityMismatchIsRuntimeError(t *testing.T) {
	v := New(nil)
	pool := v.Pool()

	fnBody := asm.New(pool)
	fnBody.GetLocal(1).Return()
	fn := asm.Function("f", 1, 0, fnBody)

	entryB := asm.New(pool)
	idx := entryB.FunctionConstant(fn)
	entryB.Closure(idx, nil).SetGlobal("f").Pop()
	entryB.GetGlobal("f").Const(value.Number(1)).Const(value.Number(2)).Call(2).Halt()
	entry := asm.Function("main", 0, 0, entryB)

	err := v.Run(value.NewClosure(entry, nil))
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrArity, rtErr.Kind)
	assert.Contains(t, rtErr.Message, "f")
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	v := New(nil)
	b := asm.New(v.Pool())
	b.GetGlobal("nope").Halt()
	entry := asm.Function("main", 0, 0, b)

	err := v.Run(value.NewClosure(entry, nil))
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrUndefined, rtErr.Kind)
}

func TestSetGlobalDefinesOnMiss(t *testing.T) {
	// §9 Open Question 1: assigning to an undeclared global defines it.
	v := New(nil)
	b := asm.New(v.Pool())
	b.Const(value.Number(42)).SetGlobal("answer").Pop().GetGlobal("answer").Halt()
	entry := asm.Function("main", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(42), v.StackTop().AsNumber())
}

// TestStructValueSemantics confirms struct_copy produces an independent
// instance (§3 "value-semantics structs"): mutating the clone's field
// must not affect the original.
func TestStructValueSemantics(t *testing.T) {
	def := &value.StructDef{Name: "Point", FieldNames: []string{"x", "y"}}

	v := New(nil)
	b := asm.New(v.Pool())
	b.Const(value.Number(1)).Const(value.Number(2)).NewStruct(def). // original: Point{x:1, y:2}
										Dup().
										StructCopy(). // stack: [original, clone]
										Const(value.Number(99)).
										SetProperty("x"). // clone.x = 99
										Pop().
										GetProperty("x"). // original.x, unaffected
										Return()
	entry := asm.Function("main", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(1), v.StackTop().AsNumber())
}
