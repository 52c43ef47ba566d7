// Package asm is a programmatic bytecode assembler: a fluent builder
// over pkg/bytecode.Chunk standing in for the compiler front end this
// spec places out of scope (spec.md §1 names parsing/compilation as a
// Non-goal — only the VM and its bytecode format are in scope). Callers
// decide every opcode and operand themselves; asm only takes care of
// constant-pool bookkeeping, immediate encoding, and jump patching, the
// same bookkeeping the teacher's pkg/compiler.Compiler did for its own
// emit/addConstant pair (pkg/compiler/compiler.go), generalized from
// AST-driven emission to direct instruction-by-instruction emission.
package asm

import (
	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
)

// Builder assembles one Chunk. Every emit method returns the Builder
// itself so a program can be written as one fluent chain, the same
// shape as the teacher's Compiler.emit/addConstant pair but at the
// byte-instruction level instead of an AST walk.
type Builder struct {
	chunk *bytecode.Chunk
	pool  *strpool.Pool
	line  int
}

// New starts a fresh Chunk. pool should be the same strpool.Pool the
// target VM interns with — this Chunk's string constants only compare
// equal (by pointer, §4.1) to values the VM computes at runtime if both
// sides were interned through the same pool.
func New(pool *strpool.Pool) *Builder {
	return &Builder{chunk: bytecode.NewChunk(), pool: pool, line: 1}
}

// Line sets the source line subsequent emits are attributed to.
func (b *Builder) Line(n int) *Builder {
	b.line = n
	return b
}

// Chunk returns the Chunk built so far.
func (b *Builder) Chunk() *bytecode.Chunk { return b.chunk }

// Mark returns the current code offset, for use as a Loop target.
func (b *Builder) Mark() int { return len(b.chunk.Code) }

func (b *Builder) op(op bytecode.Opcode) *Builder {
	b.chunk.WriteOpcode(op, b.line)
	return b
}

func (b *Builder) byteArg(v int) *Builder {
	b.chunk.Write(byte(v), b.line)
	return b
}

func (b *Builder) u16Arg(v int) *Builder {
	b.chunk.WriteU16(uint16(v), b.line)
	return b
}

func (b *Builder) nameIndex(name string) int {
	return b.chunk.AddConstant(value.String(b.pool.Intern(name)))
}

// --- constants / stack -------------------------------------------------

func (b *Builder) Const(v value.Value) *Builder {
	b.chunk.EmitConstant(v, b.line)
	return b
}

func (b *Builder) ConstString(s string) *Builder {
	return b.Const(value.String(b.pool.Intern(s)))
}

func (b *Builder) Nil() *Builder   { return b.op(bytecode.OpNil) }
func (b *Builder) True() *Builder  { return b.op(bytecode.OpTrue) }
func (b *Builder) False() *Builder { return b.op(bytecode.OpFalse) }
func (b *Builder) Pop() *Builder   { return b.op(bytecode.OpPop) }
func (b *Builder) Dup() *Builder   { return b.op(bytecode.OpDup) }
func (b *Builder) Swap() *Builder  { return b.op(bytecode.OpSwap) }

// --- arithmetic / comparison / logical / bitwise ------------------------

func (b *Builder) Add() *Builder { return b.op(bytecode.OpAdd) }
func (b *Builder) Sub() *Builder { return b.op(bytecode.OpSub) }
func (b *Builder) Mul() *Builder { return b.op(bytecode.OpMul) }
func (b *Builder) Div() *Builder { return b.op(bytecode.OpDiv) }
func (b *Builder) Mod() *Builder   { return b.op(bytecode.OpMod) }
func (b *Builder) Power() *Builder { return b.op(bytecode.OpPower) }
func (b *Builder) Neg() *Builder   { return b.op(bytecode.OpNeg) }

func (b *Builder) Equal() *Builder        { return b.op(bytecode.OpEqual) }
func (b *Builder) NotEqual() *Builder     { return b.op(bytecode.OpNotEqual) }
func (b *Builder) Less() *Builder         { return b.op(bytecode.OpLess) }
func (b *Builder) LessEqual() *Builder    { return b.op(bytecode.OpLessEqual) }
func (b *Builder) Greater() *Builder      { return b.op(bytecode.OpGreater) }
func (b *Builder) GreaterEqual() *Builder { return b.op(bytecode.OpGreaterEqual) }

func (b *Builder) Not() *Builder { return b.op(bytecode.OpNot) }

func (b *Builder) BitAnd() *Builder     { return b.op(bytecode.OpBitAnd) }
func (b *Builder) BitOr() *Builder      { return b.op(bytecode.OpBitOr) }
func (b *Builder) BitXor() *Builder     { return b.op(bytecode.OpBitXor) }
func (b *Builder) BitNot() *Builder     { return b.op(bytecode.OpBitNot) }
func (b *Builder) ShiftLeft() *Builder  { return b.op(bytecode.OpShiftLeft) }
func (b *Builder) ShiftRight() *Builder { return b.op(bytecode.OpShiftRight) }

// --- variables -----------------------------------------------------------

func (b *Builder) GetLocal(slot int) *Builder { return b.op(bytecode.OpGetLocal).byteArg(slot) }
func (b *Builder) SetLocal(slot int) *Builder { return b.op(bytecode.OpSetLocal).byteArg(slot) }

func (b *Builder) GetGlobal(name string) *Builder {
	return b.op(bytecode.OpGetGlobal).u16Arg(b.nameIndex(name))
}

func (b *Builder) SetGlobal(name string) *Builder {
	return b.op(bytecode.OpSetGlobal).u16Arg(b.nameIndex(name))
}

func (b *Builder) GetUpvalue(idx int) *Builder { return b.op(bytecode.OpGetUpvalue).byteArg(idx) }
func (b *Builder) SetUpvalue(idx int) *Builder { return b.op(bytecode.OpSetUpvalue).byteArg(idx) }
func (b *Builder) CloseUpvalue(slot int) *Builder {
	return b.op(bytecode.OpCloseUpvalue).byteArg(slot)
}

// --- control flow ----------------------------------------------------------

// Patch is a forward-jump site awaiting its target, returned by Jump/
// JumpIfFalse/And/Or; call Here once the target offset is known.
type Patch struct {
	builder *Builder
	offset  int
}

// Here backfills the jump's 2-byte offset with the current code
// position, matching the forward-jump-then-patch pattern pkg/bytecode's
// own EmitJump/PatchJump pair is built for.
func (p *Patch) Here() { p.builder.chunk.PatchJump(p.offset) }

func (b *Builder) Jump() *Patch {
	return &Patch{builder: b, offset: b.chunk.EmitJump(bytecode.OpJump, b.line)}
}

func (b *Builder) JumpIfFalse() *Patch {
	return &Patch{builder: b, offset: b.chunk.EmitJump(bytecode.OpJumpIfFalse, b.line)}
}

func (b *Builder) JumpIfTrue() *Patch {
	return &Patch{builder: b, offset: b.chunk.EmitJump(bytecode.OpJumpIfTrue, b.line)}
}

// And/Or emit the short-circuit opcodes (§4.4): both carry a
// jump-past-the-second-operand offset exactly like JumpIfFalse/Jump.
func (b *Builder) And() *Patch {
	return &Patch{builder: b, offset: b.chunk.EmitJump(bytecode.OpAnd, b.line)}
}

func (b *Builder) Or() *Patch {
	return &Patch{builder: b, offset: b.chunk.EmitJump(bytecode.OpOr, b.line)}
}

// Loop emits a backward jump to the code offset returned by an earlier
// Mark call.
func (b *Builder) Loop(target int) *Builder {
	b.chunk.EmitLoop(target, b.line)
	return b
}

// --- calls -----------------------------------------------------------------

func (b *Builder) Call(argCount int) *Builder { return b.op(bytecode.OpCall).byteArg(argCount) }

// UpvalueRef describes one upvalue a Closure instruction captures:
// IsLocal selects capturing the enclosing frame's local slot Index, or
// (if false) forwarding the enclosing closure's own upvalue Index.
type UpvalueRef struct {
	IsLocal bool
	Index   int
}

// Closure emits OpClosure over a Function constant already added via
// FunctionConstant, followed by its upvalue-capture pairs.
func (b *Builder) Closure(fnConstIdx int, upvalues []UpvalueRef) *Builder {
	b.op(bytecode.OpClosure).u16Arg(fnConstIdx)
	for _, uv := range upvalues {
		isLocal := 0
		if uv.IsLocal {
			isLocal = 1
		}
		b.byteArg(isLocal).byteArg(uv.Index)
	}
	return b
}

// FunctionConstant adds fn, whose chunk is already built, to this Chunk's
// constant pool as a TagFunction constant, returning its index for use
// with Closure.
func (b *Builder) FunctionConstant(fn *value.Function) int {
	return b.chunk.AddConstant(value.FunctionValue(fn))
}

func (b *Builder) Return() *Builder { return b.op(bytecode.OpReturn) }

// --- objects / arrays / structs ---------------------------------------------

func (b *Builder) NewObject() *Builder { return b.op(bytecode.OpNewObject) }

func (b *Builder) NewArray(count int) *Builder {
	return b.op(bytecode.OpNewArray).u16Arg(count)
}

// NewStruct adds def as a StructDef constant and emits NewStruct
// against it; field values must already be on the stack in def's field
// order, as new_object/new_array expect for their own operands.
func (b *Builder) NewStruct(def *value.StructDef) *Builder {
	idx := b.chunk.AddConstant(value.StructDefValue(def))
	return b.op(bytecode.OpNewStruct).u16Arg(idx)
}

func (b *Builder) GetProperty(name string) *Builder {
	return b.op(bytecode.OpGetProperty).u16Arg(b.nameIndex(name))
}

func (b *Builder) SetProperty(name string) *Builder {
	return b.op(bytecode.OpSetProperty).u16Arg(b.nameIndex(name))
}

func (b *Builder) GetIndex() *Builder   { return b.op(bytecode.OpGetIndex) }
func (b *Builder) SetIndex() *Builder   { return b.op(bytecode.OpSetIndex) }
func (b *Builder) ArrayPush() *Builder  { return b.op(bytecode.OpArrayPush) }
func (b *Builder) StructCopy() *Builder { return b.op(bytecode.OpStructCopy) }
func (b *Builder) Length() *Builder     { return b.op(bytecode.OpLength) }

// ObjectLiteral emits object_literal over pairCount (key, value) pairs
// already pushed onto the stack in literal order.
func (b *Builder) ObjectLiteral(pairCount int) *Builder {
	return b.op(bytecode.OpObjectLiteral).u16Arg(pairCount)
}

// --- prototypes --------------------------------------------------------------

func (b *Builder) SetPrototype() *Builder { return b.op(bytecode.OpSetPrototype) }
func (b *Builder) GetPrototype() *Builder { return b.op(bytecode.OpGetPrototype) }

// GetObjectProto pushes the VM's canonical built-in prototype for typ.
func (b *Builder) GetObjectProto(typ bytecode.ProtoType) *Builder {
	return b.op(bytecode.OpGetObjectProto).byteArg(int(typ))
}

// GetStructProto pushes the VM-owned named prototype for the struct type
// name, creating it on first use.
func (b *Builder) GetStructProto(name string) *Builder {
	return b.op(bytecode.OpGetStructProto).u16Arg(b.nameIndex(name))
}

func (b *Builder) MethodCall(argCount int, name string) *Builder {
	return b.op(bytecode.OpMethodCall).byteArg(argCount).u16Arg(b.nameIndex(name))
}

// --- modules -----------------------------------------------------------------

func (b *Builder) LoadModule(path string) *Builder {
	return b.op(bytecode.OpLoadModule).u16Arg(b.nameIndex(path))
}

func (b *Builder) ImportFrom(name string) *Builder {
	return b.op(bytecode.OpImportFrom).u16Arg(b.nameIndex(name))
}

func (b *Builder) ModuleExport(name string) *Builder {
	return b.op(bytecode.OpModuleExport).u16Arg(b.nameIndex(name))
}

// --- strings / terminal --------------------------------------------------------

func (b *Builder) ToStringOp() *Builder { return b.op(bytecode.OpToString) }
func (b *Builder) Concat() *Builder     { return b.op(bytecode.OpConcat) }

// StringInterp emits string_interp over partCount pre-computed string
// parts already pushed onto the stack in order.
func (b *Builder) StringInterp(partCount int) *Builder {
	return b.op(bytecode.OpStringInterp).u16Arg(partCount)
}

func (b *Builder) InternString() *Builder { return b.op(bytecode.OpInternString) }
func (b *Builder) Halt() *Builder         { return b.op(bytecode.OpHalt) }
