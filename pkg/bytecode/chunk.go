package bytecode

import (
	"encoding/binary"

	"github.com/starling-lang/starling/pkg/value"
)

// Chunk is a compiled function's code: a flat byte stream of opcodes and
// immediates, a parallel per-byte source-line table, and a constant pool
// (§3 "Chunk"). It is the Go analogue of the teacher's
// Bytecode{Instructions []Instruction; Constants []interface{}}, rebuilt
// around the spec's byte-level instruction encoding instead of a struct
// per instruction.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends a single raw byte, recording line as its source line.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// WriteOpcode appends an opcode byte.
func (c *Chunk) WriteOpcode(op Opcode, line int) int {
	return c.Write(byte(op), line)
}

// WriteU16 appends a big-endian 16-bit immediate (§6 "16-bit big-endian
// jump offsets" — the same encoding is reused for every 2-byte
// immediate, not just jumps).
func (c *Chunk) WriteU16(v uint16, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

// ReadU16 decodes the big-endian 16-bit value at offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return binary.BigEndian.Uint16(c.Code[offset : offset+2])
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// EmitConstant appends the instruction that pushes v, choosing the
// 1-byte CONST form when the pool still fits in a byte and falling back
// to CONST_LONG otherwise.
func (c *Chunk) EmitConstant(v value.Value, line int) {
	idx := c.AddConstant(v)
	if idx < 256 {
		c.WriteOpcode(OpConst, line)
		c.Write(byte(idx), line)
		return
	}
	c.WriteOpcode(OpConstLong, line)
	c.WriteU16(uint16(idx), line)
}

// EmitJump writes a jump opcode with a placeholder 2-byte offset and
// returns the offset of the first placeholder byte, for a later
// PatchJump call once the jump target is known.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.WriteOpcode(op, line)
	offset := len(c.Code)
	c.WriteU16(0xFFFF, line)
	return offset
}

// PatchJump backfills the 2-byte offset at offset (as returned by
// EmitJump) with the distance from just past that offset to the current
// end of the chunk.
func (c *Chunk) PatchJump(offset int) {
	jumpDist := len(c.Code) - (offset + 2)
	binary.BigEndian.PutUint16(c.Code[offset:offset+2], uint16(jumpDist))
}

// EmitLoop writes OpLoop with a backward offset to loopStart.
func (c *Chunk) EmitLoop(loopStart int, line int) {
	c.WriteOpcode(OpLoop, line)
	dist := len(c.Code) - loopStart + 2
	c.WriteU16(uint16(dist), line)
}

// LineAt returns the source line recorded for the byte at offset.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return -1
	}
	return c.Lines[offset]
}

// EachConstant implements value.ConstantWalker: it visits every
// constant-pool entry so the GC can mark nested heap values (a Function
// constant for a closure literal defined inside this chunk, a
// pre-built StructDef-bearing constant, and so on). Scalar-only chunks
// simply visit Nil/Bool/Number/String constants, which the collector
// ignores since they carry no heap pointer.
func (c *Chunk) EachConstant(visit func(value.Value)) {
	for _, v := range c.Constants {
		visit(v)
	}
}
