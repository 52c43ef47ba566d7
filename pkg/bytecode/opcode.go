// Package bytecode defines the byte-level instruction format the VM
// executes and the Chunk container that holds a compiled function's
// code (§4.4, §6).
//
// Architecture:
//
// Instructions are a single opcode byte followed by zero to three
// immediate bytes (§6 "Bytecode immediate format") — there is no
// variable-width instruction struct the way the teacher's
// Instruction{Op, Operand int} was; everything is packed into the code
// slice the dispatcher walks byte by byte, the same representation
// clox-style bytecode VMs use and §4.4's dispatcher contract assumes.
//
// Example compilation:
//
//	Source (conceptually):  x = 10; print(x + 5)
//
//	Bytecode:
//	  CONST       0        ; push constants[0] (10)
//	  SET_GLOBAL  1        ; store to global named by constants[1] ("x")
//	  GET_GLOBAL  1        ; load x back onto the stack
//	  CONST       2        ; push constants[2] (5)
//	  ADD                  ; pop 2, push their sum
//	  GET_GLOBAL  3        ; load the "print" native
//	  CALL        1        ; call with 1 argument
//	  POP                  ; discard the call's result
//	  HALT
//
// Immediate widths:
//
//   - no immediate: POP, DUP, ADD, SUB, ... (arithmetic/comparison/logic)
//   - 1-byte immediate: CONST, GET_LOCAL, SET_LOCAL, GET_UPVALUE,
//     SET_UPVALUE, CALL (arg count), CLOSE_UPVALUE
//   - 2-byte immediate (big-endian, §6): CONST_LONG, GET_GLOBAL,
//     SET_GLOBAL, NEW_ARRAY (count), NEW_STRUCT (StructDef constant index)
//   - 2-byte big-endian jump offset: JUMP, JUMP_IF_FALSE, LOOP
//
// Design Philosophy:
//
// The opcode set groups by concern (stack/constants, arithmetic,
// comparison, logical, bitwise, variables, control flow, calls,
// objects/arrays/structs, prototypes, modules, string conversion,
// terminal) rather than by historical accident, so a reader can find an
// opcode's family from its name alone the way the teacher's OpXxx
// naming intends, generalized from message-send dispatch to this
// language's direct-call-plus-prototype-lookup model.
package bytecode

// Opcode is a single bytecode instruction's operation, one byte wide.
type Opcode byte

const (
	// === Constants / stack ===

	// OpConst pushes constants[operand] (1-byte index, pool size <= 256).
	OpConst Opcode = iota
	// OpConstLong pushes constants[operand] (2-byte big-endian index).
	OpConstLong
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpDup
	OpSwap

	// === Arithmetic ===
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPower
	OpNeg

	// === Comparison ===
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// === Logical ===
	OpNot
	OpAnd // short-circuit: see dispatcher — operand is jump-past offset
	OpOr  // short-circuit: see dispatcher — operand is jump-past offset

	// === Bitwise / shifts (operate on the 32-bit two's-complement
	// truncation of the Number payload — spec.md §9 Open Question) ===
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShiftLeft
	OpShiftRight

	// === Variables ===
	OpGetLocal    // 1-byte slot index
	OpSetLocal    // 1-byte slot index
	OpGetGlobal   // 2-byte constant index naming the global
	OpSetGlobal   // 2-byte constant index; defines on miss (§9 Open Question 1)
	OpGetUpvalue  // 1-byte upvalue index
	OpSetUpvalue  // 1-byte upvalue index
	OpCloseUpvalue

	// === Control flow (2-byte big-endian offsets) ===
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpLoop

	// === Calls ===
	OpCall      // 1-byte argument count
	OpClosure   // 2-byte function-constant index, followed by per-upvalue
	            // (isLocal byte, index byte) pairs — count taken from the
	            // Function's UpvalueCount
	OpReturn

	// === Objects / arrays / structs ===
	OpNewObject     // no operand: pushes a fresh object with nil prototype
	OpNewArray      // 2-byte element count popped off the stack in order
	OpNewStruct     // 2-byte constant index naming the StructDef
	OpObjectLiteral // 2-byte pair count: pops (key, value) pairs in
	                // reverse, pushes a fresh object preserving literal order
	OpGetProperty  // 2-byte constant index naming the property
	OpSetProperty  // 2-byte constant index naming the property
	OpGetIndex     // no operand: pops index then receiver (array or string),
	               // pushes element/code point
	OpSetIndex     // no operand: pops value, index, array
	OpArrayPush    // no operand: pops value then array, pushes array back
	OpStructCopy   // no operand: pops a struct, pushes a field-wise clone
	OpLength       // no operand: pops a receiver, pushes its length (byte
	               // length for strings, element count for arrays, the
	               // "length" own property for any other object)

	// === Prototypes ===
	OpSetPrototype   // no operand: pops prototype then object, relinks
	OpGetPrototype   // no operand: pops object, pushes its prototype or nil
	OpGetObjectProto // 1-byte type id {Object,Array,String,Number,Function}:
	                 // pushes the VM's canonical built-in prototype for it
	OpGetStructProto // 2-byte constant index naming a struct type: pushes
	                 // its VM-owned named prototype, creating it on first use
	OpMethodCall    // 1-byte arg count, 2-byte constant index naming the
	                // method; pops receiver+args, resolves via the
	                // receiver's prototype chain

	// === Modules ===
	OpLoadModule    // 2-byte constant index naming the module path
	OpImportFrom    // 2-byte constant index naming the import; pops the
	                // module object pushed by OpLoadModule
	OpModuleExport  // 2-byte constant index naming the export

	// === String conversion ===
	OpToString    // no operand: pops a Value, pushes its ToString conversion
	OpConcat      // no operand: pops 2 strings, pushes their concatenation
	OpStringInterp // 2-byte part count: pops n pre-computed parts, pushes
	               // their interned concatenation
	OpInternString // no operand: pops a string, pushes its interned canonical
	               // pointer (idempotent if already interned)

	// === Terminal ===
	OpHalt
)

var opcodeNames = [...]string{
	OpConst:          "CONST",
	OpConstLong:      "CONST_LONG",
	OpNil:            "NIL",
	OpTrue:           "TRUE",
	OpFalse:          "FALSE",
	OpPop:            "POP",
	OpDup:            "DUP",
	OpSwap:           "SWAP",
	OpAdd:            "ADD",
	OpSub:            "SUB",
	OpMul:            "MUL",
	OpDiv:            "DIV",
	OpMod:            "MOD",
	OpPower:          "POWER",
	OpNeg:            "NEG",
	OpEqual:          "EQUAL",
	OpNotEqual:       "NOT_EQUAL",
	OpLess:           "LESS",
	OpLessEqual:      "LESS_EQUAL",
	OpGreater:        "GREATER",
	OpGreaterEqual:   "GREATER_EQUAL",
	OpNot:            "NOT",
	OpAnd:            "AND",
	OpOr:             "OR",
	OpBitAnd:         "BIT_AND",
	OpBitOr:          "BIT_OR",
	OpBitXor:         "BIT_XOR",
	OpBitNot:         "BIT_NOT",
	OpShiftLeft:      "SHIFT_LEFT",
	OpShiftRight:     "SHIFT_RIGHT",
	OpGetLocal:       "GET_LOCAL",
	OpSetLocal:       "SET_LOCAL",
	OpGetGlobal:      "GET_GLOBAL",
	OpSetGlobal:      "SET_GLOBAL",
	OpGetUpvalue:     "GET_UPVALUE",
	OpSetUpvalue:     "SET_UPVALUE",
	OpCloseUpvalue:   "CLOSE_UPVALUE",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpJumpIfTrue:     "JUMP_IF_TRUE",
	OpLoop:           "LOOP",
	OpCall:           "CALL",
	OpClosure:        "CLOSURE",
	OpReturn:         "RETURN",
	OpNewObject:      "NEW_OBJECT",
	OpNewArray:       "NEW_ARRAY",
	OpNewStruct:      "NEW_STRUCT",
	OpObjectLiteral:  "OBJECT_LITERAL",
	OpGetProperty:    "GET_PROPERTY",
	OpSetProperty:    "SET_PROPERTY",
	OpGetIndex:       "GET_INDEX",
	OpSetIndex:       "SET_INDEX",
	OpArrayPush:      "ARRAY_PUSH",
	OpStructCopy:     "STRUCT_COPY",
	OpLength:         "LENGTH",
	OpSetPrototype:   "SET_PROTOTYPE",
	OpGetPrototype:   "GET_PROTOTYPE",
	OpGetObjectProto: "GET_OBJECT_PROTO",
	OpGetStructProto: "GET_STRUCT_PROTO",
	OpMethodCall:     "METHOD_CALL",
	OpLoadModule:     "LOAD_MODULE",
	OpImportFrom:     "IMPORT_FROM",
	OpModuleExport:   "MODULE_EXPORT",
	OpToString:       "TO_STRING",
	OpConcat:         "CONCAT",
	OpStringInterp:   "STRING_INTERP",
	OpInternString:   "INTERN_STRING",
	OpHalt:           "HALT",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// ImmediateWidth returns the number of immediate bytes that follow op in
// the code stream, not counting the opcode byte itself. OpClosure is
// variable-width (depends on the referenced function's upvalue count) and
// reports its fixed 2-byte function-index prefix only; callers that need
// the full instruction length must consult the Function.
func (op Opcode) ImmediateWidth() int {
	switch op {
	case OpConst, OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue,
		OpCloseUpvalue, OpCall, OpGetObjectProto:
		return 1
	case OpConstLong, OpGetGlobal, OpSetGlobal, OpJump, OpJumpIfFalse,
		OpJumpIfTrue, OpLoop, OpAnd, OpOr, OpNewArray, OpNewStruct,
		OpObjectLiteral, OpGetProperty, OpSetProperty, OpLoadModule,
		OpImportFrom, OpModuleExport, OpClosure, OpGetStructProto,
		OpStringInterp:
		return 2
	case OpMethodCall:
		return 3
	default:
		return 0
	}
}

// ProtoType identifies one of the VM's canonical built-in prototypes for
// get_object_proto (§4.4 "Prototypes"). It lives in pkg/bytecode rather
// than pkg/vm so both pkg/asm's builder and pkg/vm's dispatcher can
// share it without pkg/asm importing pkg/vm.
type ProtoType byte

const (
	ProtoObject ProtoType = iota
	ProtoArray
	ProtoString
	ProtoNumber
	ProtoFunction
)
