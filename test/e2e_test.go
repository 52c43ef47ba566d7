// Package test holds end-to-end scenarios driving the VM the way an
// embedder actually would — hand-assembled programs run through vm.New,
// module containers loaded through pkg/loader, and the heap collecting
// under real VM root visitation — distinct from the package-level unit
// tests in pkg/vm and pkg/gc that exercise one mechanism in isolation.
package test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starling-lang/starling/pkg/asm"
	"github.com/starling-lang/starling/pkg/container"
	"github.com/starling-lang/starling/pkg/loader"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
	"github.com/starling-lang/starling/pkg/vm"
)

// TestClosuresShareUpvalueAcrossCalls pins spec.md §8 scenario 1 at full
// VM level: a counter closure and a reader closure captured over the
// same enclosing local see each other's mutations through one shared
// upvalue cell, round-tripped through three separate op_call
// invocations rather than inlined in a single chunk.
func TestClosuresShareUpvalueAcrossCalls(t *testing.T) {
	v := vm.New(nil)
	pool := v.Pool()

	readBody := asm.New(pool)
	readBody.GetUpvalue(0).Return()
	readFn := asm.Function("read", 0, 1, readBody)

	bumpBody := asm.New(pool)
	bumpBody.GetUpvalue(0).Const(value.Number(1)).Add().SetUpvalue(0).Pop().Nil().Return()
	bumpFn := asm.Function("bump", 0, 1, bumpBody)

	outer := asm.New(pool)
	outer.Const(value.Number(100)) // local in slot 1

	readIdx := outer.FunctionConstant(readFn)
	outer.Closure(readIdx, []asm.UpvalueRef{{IsLocal: true, Index: 1}}) // slot 2

	bumpIdx := outer.FunctionConstant(bumpFn)
	outer.Closure(bumpIdx, []asm.UpvalueRef{{IsLocal: true, Index: 1}}) // slot 3

	for i := 0; i < 3; i++ {
		outer.GetLocal(3).Call(0).Pop()
	}
	outer.GetLocal(2).Call(0)
	outer.Return()

	entry := asm.Function("program", 0, 0, outer)
	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(103), v.StackTop().AsNumber())
}

// TestArrayPrototypeLookup pins spec.md §8 scenario 2: an array value's
// push/length methods resolve through the VM's bootstrap array
// prototype rather than per-instance storage.
func TestArrayPrototypeLookup(t *testing.T) {
	v := vm.New(nil)
	b := asm.New(v.Pool())
	b.NewArray(0).
		Const(value.Number(1)).MethodCall(1, "push").
		Const(value.Number(2)).MethodCall(1, "push").
		Const(value.Number(3)).MethodCall(1, "push").
		MethodCall(0, "length").
		Return()
	entry := asm.Function("program", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(3), v.StackTop().AsNumber())
}

// TestModuleExportImportRoundTrip pins spec.md §8 scenario "square(7) ==
// 49 via a module import": a container exporting a one-argument
// function is written to disk, resolved through a real pkg/loader.Loader,
// imported with op_import_from, and called — the same op_load_module /
// op_import_from pair pkg/vm/run.go implements driven end-to-end instead
// of unit-tested against a synthetic module object.
func TestModuleExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pool := strpool.New()

	squareBody := asm.New(pool)
	squareBody.GetLocal(1).GetLocal(1).Mul().Return()
	squareFn := asm.Function("square", 1, 0, squareBody)

	exportsData, err := loader.EncodeExports([]string{"square"}, []value.Value{value.FunctionValue(squareFn)})
	require.NoError(t, err)

	var buf bytes.Buffer
	sections := []container.Section{
		{Type: container.SectionMetadata, Data: []byte("mathlib")},
		{Type: container.SectionExports, Data: exportsData},
		{Type: container.SectionEnd},
	}
	require.NoError(t, container.Encode(&buf, sections, 1))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mathlib.sgc"), buf.Bytes(), 0o644))

	ld := loader.New(loader.Application, nil, pool, loader.WithSearchPath(dir))
	mainVM := vm.New(ld)
	b := asm.New(pool)
	b.LoadModule("mathlib").
		ImportFrom("square").
		Const(value.Number(7)).
		Call(1).
		Return()
	entry := asm.Function("program", 0, 0, b)

	require.NoError(t, mainVM.Run(value.NewClosure(entry, nil)))
	assert.Equal(t, float64(49), mainVM.StackTop().AsNumber())
}

// TestStringInterningIdentityAcrossConcat pins spec.md §8's interning
// boundary case at the VM level: a string built by runtime concat
// compares equal, by pointer, to an equivalent literal interned at
// compile time through the same pool op_concat.AsString returns.
func TestStringInterningIdentityAcrossConcat(t *testing.T) {
	v := vm.New(nil)
	b := asm.New(v.Pool())
	b.ConstString("star").
		ConstString("ling").
		Concat().
		ConstString("starling").
		Equal().
		Return()
	entry := asm.Function("program", 0, 0, b)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.True(t, v.StackTop().AsBool())
}

// TestArityMismatchReportsCalleeName pins spec.md §8's arity-mismatch
// scenario end-to-end: calling a declared 2-argument function with 1
// argument raises a RuntimeError naming the function.
func TestArityMismatchReportsCalleeName(t *testing.T) {
	v := vm.New(nil)
	pool := v.Pool()

	addBody := asm.New(pool)
	addBody.GetLocal(1).GetLocal(2).Add().Return()
	addFn := asm.Function("add", 2, 0, addBody)

	program := asm.New(pool)
	idx := program.FunctionConstant(addFn)
	program.Closure(idx, nil).SetGlobal("add").Pop()
	program.GetGlobal("add").Const(value.Number(1)).Call(1).Halt()
	entry := asm.Function("program", 0, 0, program)

	err := v.Run(value.NewClosure(entry, nil))
	require.Error(t, err)
	rtErr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, vm.ErrArity, rtErr.Kind)
	assert.Contains(t, rtErr.Message, "add")
}

// TestGCReclaimsUnreachableClosuresDuringRun drives 10,000 short-lived
// closures through real VM execution (not direct heap.NewClosure calls
// against a fixed-root stub, as pkg/gc/heap_test.go does) and confirms
// the collector — visiting roots through vm.VisitRoots — reclaims all
// but the one closure still referenced by the operand stack once the
// program halts.
func TestGCReclaimsUnreachableClosuresDuringRun(t *testing.T) {
	v := vm.New(nil, vm.WithGCOptions())
	pool := v.Pool()
	before := v.Heap().Stats()

	idBody := asm.New(pool)
	idBody.Nil().Return()
	idFn := asm.Function("id", 0, 0, idBody)

	program := asm.New(pool)
	fnIdx := program.FunctionConstant(idFn)
	for i := 0; i < 10000; i++ {
		program.Closure(fnIdx, nil).Pop()
	}
	program.Closure(fnIdx, nil)
	program.Return()
	entry := asm.Function("program", 0, 0, program)

	require.NoError(t, v.Run(value.NewClosure(entry, nil)))
	assert.True(t, v.StackTop().IsClosure())

	v.Heap().Collect()
	stats := v.Heap().Stats()
	oneClosure := (stats.BytesAllocated - before.BytesAllocated) / 10001
	assert.LessOrEqual(t, stats.LiveBytes, before.LiveBytes+oneClosure, "expected the 10000 dropped closures to be reclaimed")
}
