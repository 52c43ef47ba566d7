package bytecode

import (
	"testing"

	"github.com/starling-lang/starling/pkg/value"
)

func TestEmitConstantUsesShortFormUnderByteLimit(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(value.Number(42), 1)

	if Opcode(c.Code[0]) != OpConst {
		t.Fatalf("expected OpConst, got %s", Opcode(c.Code[0]))
	}
	if c.Code[1] != 0 {
		t.Fatalf("expected constant index 0, got %d", c.Code[1])
	}
}

func TestEmitConstantUsesLongFormPastByteLimit(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 256; i++ {
		c.AddConstant(value.Number(float64(i)))
	}
	c.EmitConstant(value.Number(999), 1)

	if Opcode(c.Code[0]) != OpConstLong {
		t.Fatalf("expected OpConstLong, got %s", Opcode(c.Code[0]))
	}
	if got := c.ReadU16(1); got != 256 {
		t.Fatalf("expected constant index 256, got %d", got)
	}
}

func TestJumpPatchingComputesForwardOffset(t *testing.T) {
	c := NewChunk()
	jumpOffset := c.EmitJump(OpJumpIfFalse, 1)
	c.WriteOpcode(OpPop, 2)
	c.WriteOpcode(OpPop, 2)
	c.PatchJump(jumpOffset)

	if got := c.ReadU16(jumpOffset); got != 2 {
		t.Fatalf("expected jump distance 2, got %d", got)
	}
}

func TestEmitLoopComputesBackwardOffset(t *testing.T) {
	c := NewChunk()
	loopStart := len(c.Code)
	c.WriteOpcode(OpPop, 1)
	c.EmitLoop(loopStart, 2)

	opOffset := len(c.Code) - 3
	if Opcode(c.Code[opOffset]) != OpLoop {
		t.Fatalf("expected OpLoop at %d", opOffset)
	}
}

func TestDisassembleInstructionAdvancesPastImmediates(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(value.Number(7), 3)
	c.WriteOpcode(OpAdd, 3)

	_, next := DisassembleInstruction(c, 0)
	if next != 2 {
		t.Fatalf("expected CONST to advance 2 bytes, got %d", next)
	}
	text, next := DisassembleInstruction(c, next)
	if next != 3 {
		t.Fatalf("expected ADD to advance 1 byte, got %d", next)
	}
	if text == "" {
		t.Fatalf("expected non-empty disassembly text")
	}
}
