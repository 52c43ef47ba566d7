// Package vm implements the dispatcher (§4.4), call-frame discipline
// (§4.5), and bootstrap globals/prototypes (§9) that tie together
// pkg/value, pkg/gc, pkg/bytecode, and pkg/module/pkg/loader into a
// runnable virtual machine.
package vm

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/gc"
	"github.com/starling-lang/starling/pkg/loader"
	"github.com/starling-lang/starling/pkg/module"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
)

// VM is one instance of the virtual machine: its operand stack, call
// frames, globals, and a reference to its own heap, string pool, and
// module loader. Each VM is single-goroutine — §5 "Concurrency &
// Resource Model" gives only the module cache its own concurrency
// guarantees; the VM's own stack and frames are not safe to drive from
// more than one goroutine at a time.
type VM struct {
	id  uuid.UUID
	cfg Config
	log *logrus.Entry

	stack []value.Value
	sp    int

	frames     []CallFrame
	frameCount int

	globals map[string]value.Value

	openUpvalues []*value.Upvalue // kept sorted by descending StackAddr

	heap   *gc.Heap
	pool   *strpool.Pool
	loader *loader.Loader

	currentModule *module.Module

	debugger *Debugger

	objectProto   *value.Obj
	arrayProto    *value.Obj
	stringProto   *value.Obj
	numberProto   *value.Obj
	functionProto *value.Obj

	structProtos map[string]*value.Obj // lazily populated by get_struct_proto
}

// New creates a VM with its own heap and string pool, wired to ld for
// module resolution (nil is fine for programs that never import).
func New(ld *loader.Loader, opts ...Option) *VM {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	id := uuid.New()
	log := cfg.Log
	if log == nil {
		log = logrus.WithFields(logrus.Fields{"component": "vm", "vm": id.String()})
	}

	vm := &VM{
		id:      id,
		cfg:     cfg,
		log:     log,
		stack:   make([]value.Value, cfg.StackSize),
		frames:  make([]CallFrame, cfg.FrameCount),
		globals:      make(map[string]value.Value),
		pool:         strpool.New(),
		loader:       ld,
		structProtos: make(map[string]*value.Obj),
	}
	vm.heap = gc.NewHeap(vm, cfg.GCOptions...)
	vm.debugger = newDebugger(vm)
	vm.bootstrapPrototypes()
	vm.bootstrapGlobals()
	return vm
}

func (vm *VM) ID() uuid.UUID       { return vm.id }
func (vm *VM) Heap() *gc.Heap      { return vm.heap }
func (vm *VM) Pool() *strpool.Pool { return vm.pool }
func (vm *VM) Debugger() *Debugger { return vm.debugger }

// --- operand stack ---------------------------------------------------

func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		panic(vmPanic{kind: ErrCapacity, message: "operand stack overflow"})
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	if vm.sp == 0 {
		panic(vmPanic{kind: ErrCapacity, message: "operand stack underflow"})
	}
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Nil
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

// StackTop returns the value currently on top of the operand stack,
// used by tests asserting on a finished program's result the way the
// teacher's vm_test.go inspects VM state directly.
func (vm *VM) StackTop() value.Value {
	if vm.sp == 0 {
		return value.Nil
	}
	return vm.peek(0)
}

// --- internal panic/error plumbing ------------------------------------

// vmPanic is the internal control-transfer mechanism a guest-visible
// runtime error raises with: every opcode handler that detects a §7
// error condition panics with one of these, and the single recover in
// Run converts it into a *RuntimeError with a captured stack trace
// (§7 "dispatcher prints stack trace ... resets stack/frame count").
type vmPanic struct {
	kind    ErrorKind
	message string
}

func (vm *VM) fail(kind ErrorKind, format string, args ...any) {
	panic(vmPanic{kind: kind, message: fmt.Sprintf(format, args...)})
}

func (vm *VM) captureTrace() []StackFrame {
	trace := make([]StackFrame, 0, vm.frameCount)
	for i := 0; i < vm.frameCount; i++ {
		f := &vm.frames[i]
		name := f.closure.Fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		chunk, _ := f.closure.Fn.Chunk.(*bytecode.Chunk)
		line := -1
		if chunk != nil {
			line = chunk.LineAt(f.ip)
		}
		trace = append(trace, StackFrame{FunctionName: name, Line: line, IP: f.ip})
	}
	return trace
}

// Run executes closure as the program's entry point (a zero-arity
// top-level function) to completion, returning the embedder-visible
// *RuntimeError on failure (§7). Internal invariant panics not raised
// as a vmPanic are recovered too and reported as an ErrAllocation-kind
// error, the "last-resort guardrail" SPEC_FULL.md §A.2 describes, since
// a bare Go panic escaping to the embedder would be strictly worse than
// a misclassified but well-formed RuntimeError.
func (vm *VM) Run(closure *value.Closure) (err error) {
	defer func() {
		if r := recover(); r != nil {
			trace := vm.captureTrace()
			vm.sp = 0
			vm.frameCount = 0
			vm.openUpvalues = nil
			if p, ok := r.(vmPanic); ok {
				err = newRuntimeError(p.kind, p.message, trace)
				return
			}
			err = newRuntimeError(ErrAllocation, fmt.Sprintf("internal error: %v", r), trace)
		}
	}()

	vm.push(value.ClosureValue(closure)) // occupies the entry frame's slot 0
	vm.pushFrame(closure, 0)
	vm.run()
	return nil
}

func (vm *VM) pushFrame(closure *value.Closure, argCount int) {
	if vm.frameCount >= len(vm.frames) {
		vm.fail(ErrCapacity, "call stack overflow")
	}
	if argCount != closure.Fn.Arity {
		vm.fail(ErrArity, "%s expects %d argument(s), got %d", displayName(closure.Fn), closure.Fn.Arity, argCount)
	}
	vm.frames[vm.frameCount] = CallFrame{
		closure:   closure,
		ip:        0,
		slotsBase: vm.sp - argCount - 1, // slot 0 is the callee itself
	}
	vm.frameCount++
}

func displayName(fn *value.Function) string {
	if fn.Name == "" {
		return "<anonymous function>"
	}
	return fn.Name
}

// VisitRoots implements gc.RootSource: it is the single entry point the
// collector uses to enumerate every live Value (§4.3/§9 "visit_roots") —
// the operand stack, every active frame's closure, every open upvalue,
// globals, and the current module's own roots.
func (vm *VM) VisitRoots(visit func(value.Value)) {
	for i := 0; i < vm.sp; i++ {
		visit(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		visit(value.ClosureValue(vm.frames[i].closure))
	}
	for _, uv := range vm.openUpvalues {
		visit(uv.Get())
	}
	for _, v := range vm.globals {
		visit(v)
	}
	if vm.currentModule != nil {
		vm.currentModule.Trace(visit)
	}
	for _, proto := range []*value.Obj{vm.objectProto, vm.arrayProto, vm.stringProto, vm.numberProto, vm.functionProto} {
		if proto != nil {
			visit(value.Object(proto))
		}
	}
	for _, proto := range vm.structProtos {
		visit(value.Object(proto))
	}
}

// errorsWrap is a thin alias kept so subsystem boundary errors use
// github.com/pkg/errors consistently across this package without each
// file importing it separately under a different name.
var errorsWrap = errors.Wrap
