package bytecode

import (
	"fmt"

	"github.com/starling-lang/starling/pkg/value"
)

// DisassembleInstruction renders the single instruction starting at
// offset as text, returning the rendered line and the offset of the
// next instruction. This is the only disassembly surface this package
// exposes — a standalone disassembler tool is out of scope (spec.md
// §1), but the dispatcher's own trace mode and the debugger (§4.4,
// "Debug trace") need to print one instruction at a time as they step,
// so the primitive lives here rather than as a CLI-only feature.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	if offset < 0 || offset >= len(c.Code) {
		return fmt.Sprintf("%04d <out of range>", offset), offset + 1
	}

	op := Opcode(c.Code[offset])
	line := c.LineAt(offset)

	switch op {
	case OpConst:
		idx := int(c.Code[offset+1])
		return fmt.Sprintf("%04d line %-4d %-14s %4d '%s'", offset, line, op, idx, constantText(c, idx)), offset + 2
	case OpConstLong:
		idx := int(c.ReadU16(offset + 1))
		return fmt.Sprintf("%04d line %-4d %-14s %4d '%s'", offset, line, op, idx, constantText(c, idx)), offset + 3
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCloseUpvalue, OpCall:
		arg := int(c.Code[offset+1])
		return fmt.Sprintf("%04d line %-4d %-14s %4d", offset, line, op, arg), offset + 2
	case OpGetGlobal, OpSetGlobal, OpNewArray, OpNewStruct, OpGetProperty,
		OpSetProperty, OpLoadModule, OpImportFrom, OpModuleExport,
		OpGetStructProto:
		idx := int(c.ReadU16(offset + 1))
		return fmt.Sprintf("%04d line %-4d %-14s %4d '%s'", offset, line, op, idx, constantText(c, idx)), offset + 3
	case OpObjectLiteral, OpStringInterp:
		n := int(c.ReadU16(offset + 1))
		return fmt.Sprintf("%04d line %-4d %-14s %4d", offset, line, op, n), offset + 3
	case OpGetObjectProto:
		id := int(c.Code[offset+1])
		return fmt.Sprintf("%04d line %-4d %-14s %4d", offset, line, op, id), offset + 2
	case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpLoop, OpAnd, OpOr:
		dist := int(c.ReadU16(offset + 1))
		target := offset + 3 + dist
		if op == OpLoop {
			target = offset + 3 - dist
		}
		return fmt.Sprintf("%04d line %-4d %-14s -> %d", offset, line, op, target), offset + 3
	case OpMethodCall:
		argc := int(c.Code[offset+1])
		idx := int(c.ReadU16(offset + 2))
		return fmt.Sprintf("%04d line %-4d %-14s argc=%d '%s'", offset, line, op, argc, constantText(c, idx)), offset + 4
	case OpClosure:
		idx := int(c.ReadU16(offset + 1))
		next := offset + 3
		text := fmt.Sprintf("%04d line %-4d %-14s %4d '%s'", offset, line, op, idx, constantText(c, idx))
		if idx < len(c.Constants) && c.Constants[idx].IsFunction() {
			fn := c.Constants[idx].AsFunction()
			for i := 0; i < fn.UpvalueCount; i++ {
				next += 2
			}
		}
		return text, next
	default:
		return fmt.Sprintf("%04d line %-4d %-14s", offset, line, op), offset + 1
	}
}

func constantText(c *Chunk, idx int) string {
	if idx < 0 || idx >= len(c.Constants) {
		return "?"
	}
	return value.ToString(c.Constants[idx])
}
