package vm

import (
	"math"
	"strings"

	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/value"
)

// run is the dispatcher (§4.4): a straight-line fetch/decode/execute
// loop over the current frame's Chunk, byte by byte, with no recursion
// into Go's call stack for guest calls — op_call/op_return only push
// and pop vm.frames. Every error condition raises via vm.fail, a panic
// that Run's single recover turns into a *RuntimeError.
func (vm *VM) run() {
	for {
		frame := &vm.frames[vm.frameCount-1]
		chunk := frame.closure.Fn.Chunk.(*bytecode.Chunk)

		if vm.cfg.Trace {
			vm.traceInstruction(chunk, frame)
		}
		if vm.debugger.ShouldPause() {
			if !vm.debugger.InteractivePrompt() {
				vm.fail(ErrAllocation, "execution aborted from debugger")
			}
		}

		op := bytecode.Opcode(chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case bytecode.OpConst:
			idx := int(chunk.Code[frame.ip])
			frame.ip++
			vm.push(chunk.Constants[idx])

		case bytecode.OpConstLong:
			idx := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			vm.push(chunk.Constants[idx])

		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpDup:
			vm.push(vm.peek(0))
		case bytecode.OpSwap:
			a, b := vm.pop(), vm.pop()
			vm.push(a)
			vm.push(b)

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpPower:
			vm.binaryArith(op)
		case bytecode.OpNeg:
			v := vm.pop()
			if !v.IsNumber() {
				vm.fail(ErrType, "operand of unary - must be a number, got %s", v.Tag())
			}
			vm.push(value.Number(-v.AsNumber()))

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!value.Equal(a, b)))
		case bytecode.OpLess, bytecode.OpLessEqual, bytecode.OpGreater, bytecode.OpGreaterEqual:
			vm.compare(op)

		case bytecode.OpNot:
			vm.push(value.Bool(!vm.pop().Truthy()))

		case bytecode.OpAnd:
			offset := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			if !vm.peek(0).Truthy() {
				frame.ip += offset
			} else {
				vm.pop()
			}
		case bytecode.OpOr:
			offset := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			if vm.peek(0).Truthy() {
				frame.ip += offset
			} else {
				vm.pop()
			}

		case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor,
			bytecode.OpShiftLeft, bytecode.OpShiftRight:
			vm.binaryBitwise(op)
		case bytecode.OpBitNot:
			v := vm.pop()
			if !v.IsNumber() {
				vm.fail(ErrType, "operand of ~ must be a number, got %s", v.Tag())
			}
			vm.push(value.Number(float64(^toInt32(v.AsNumber()))))

		case bytecode.OpGetLocal:
			slot := int(chunk.Code[frame.ip])
			frame.ip++
			vm.push(vm.stack[frame.slotsBase+slot])
		case bytecode.OpSetLocal:
			slot := int(chunk.Code[frame.ip])
			frame.ip++
			vm.stack[frame.slotsBase+slot] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := vm.constantName(chunk, frame)
			v, ok := vm.globals[name]
			if !ok {
				vm.fail(ErrUndefined, "undefined global %q", name)
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			// Defines on miss (§9 Open Question 1): assigning to an
			// undeclared global creates it rather than raising an
			// undefined-name error, matching the teacher's own globals
			// table semantics.
			name := vm.constantName(chunk, frame)
			vm.globals[name] = vm.peek(0)

		case bytecode.OpGetUpvalue:
			idx := int(chunk.Code[frame.ip])
			frame.ip++
			vm.push(frame.closure.Upvalues[idx].Get())
		case bytecode.OpSetUpvalue:
			idx := int(chunk.Code[frame.ip])
			frame.ip++
			vm.heap.WriteBarrier(frame.closure.Upvalues[idx], vm.peek(0))
			frame.closure.Upvalues[idx].Set(vm.peek(0))
		case bytecode.OpCloseUpvalue:
			slot := int(chunk.Code[frame.ip])
			frame.ip++
			vm.closeUpvalues(frame.slotsBase + slot)
			vm.pop()

		case bytecode.OpJump:
			offset := int(chunk.ReadU16(frame.ip))
			frame.ip += 2 + offset
		case bytecode.OpJumpIfFalse:
			offset := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			if !vm.peek(0).Truthy() {
				frame.ip += offset
			}
		case bytecode.OpJumpIfTrue:
			offset := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			if vm.peek(0).Truthy() {
				frame.ip += offset
			}
		case bytecode.OpLoop:
			offset := int(chunk.ReadU16(frame.ip))
			frame.ip += 2 - offset

		case bytecode.OpCall:
			argCount := int(chunk.Code[frame.ip])
			frame.ip++
			vm.call(argCount)
			continue // call pushed a new frame; the "frame" local is stale

		case bytecode.OpClosure:
			idx := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			fn := chunk.Constants[idx].AsFunction()
			upvalues := make([]*value.Upvalue, fn.UpvalueCount)
			for i := range upvalues {
				isLocal := chunk.Code[frame.ip]
				frame.ip++
				index := int(chunk.Code[frame.ip])
				frame.ip++
				if isLocal != 0 {
					upvalues[i] = vm.captureUpvalue(frame.slotsBase + index)
				} else {
					upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			closure := vm.heap.NewClosure(fn, upvalues)
			vm.push(value.ClosureValue(closure))

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slotsBase)
			vm.frameCount--
			vm.sp = frame.slotsBase
			if vm.frameCount == 0 {
				vm.push(result)
				return
			}
			vm.push(result)

		case bytecode.OpNewObject:
			vm.push(value.Object(vm.heap.NewObject(vm.objectProto)))
		case bytecode.OpNewArray:
			count := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			elems := make([]value.Value, count)
			for i := count - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			arr := vm.heap.NewArray(vm.arrayProto)
			for _, e := range elems {
				arr.Push(e)
			}
			vm.push(value.Object(arr))
		case bytecode.OpNewStruct:
			idx := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			def := chunk.Constants[idx].AsStructDef()
			inst := vm.heap.NewStructInstance(def)
			for i := len(def.FieldNames) - 1; i >= 0; i-- {
				inst.Fields[i] = vm.pop()
			}
			vm.push(value.Struct(inst))

		case bytecode.OpObjectLiteral:
			count := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			obj := vm.heap.NewObject(vm.objectProto)
			pairs := make([][2]value.Value, count)
			for i := count - 1; i >= 0; i-- {
				val := vm.pop()
				key := vm.pop()
				pairs[i] = [2]value.Value{key, val}
			}
			for _, kv := range pairs {
				if !kv[0].IsString() {
					vm.fail(ErrType, "object literal key must be a string, got %s", kv[0].Tag())
				}
				obj.Set(*kv[0].AsString(), kv[1])
			}
			vm.push(value.Object(obj))

		case bytecode.OpGetProperty:
			name := vm.constantName(chunk, frame)
			receiver := vm.pop()
			vm.push(vm.getProperty(receiver, name))
		case bytecode.OpSetProperty:
			name := vm.constantName(chunk, frame)
			val := vm.pop()
			receiver := vm.pop()
			vm.setProperty(receiver, name, val)
			vm.push(val)

		case bytecode.OpGetIndex:
			index := vm.pop()
			receiver := vm.pop()
			vm.push(vm.getIndex(receiver, index))
		case bytecode.OpSetIndex:
			val := vm.pop()
			index := vm.pop()
			receiver := vm.pop()
			vm.setIndex(receiver, index, val)
			vm.push(val)

		case bytecode.OpArrayPush:
			val := vm.pop()
			arr := vm.pop()
			if !arr.IsObject() || !arr.AsObject().IsArray() {
				vm.fail(ErrType, "array_push target must be an array, got %s", arr.Tag())
			}
			vm.heap.WriteBarrier(arr.AsObject(), val)
			arr.AsObject().Push(val)
			vm.push(arr)

		case bytecode.OpStructCopy:
			v := vm.pop()
			if !v.IsStruct() {
				vm.fail(ErrType, "struct_copy operand must be a struct, got %s", v.Tag())
			}
			src := v.AsStruct()
			clone := vm.heap.NewStructInstance(src.Def)
			copy(clone.Fields, src.Fields)
			vm.push(value.Struct(clone))

		case bytecode.OpLength:
			vm.push(vm.length(vm.pop()))

		case bytecode.OpSetPrototype:
			proto := vm.pop()
			target := vm.pop()
			if !target.IsObject() {
				vm.fail(ErrType, "set_prototype target must be an object, got %s", target.Tag())
			}
			if proto.IsNil() {
				target.AsObject().SetPrototype(nil)
			} else if proto.IsObject() {
				target.AsObject().SetPrototype(proto.AsObject())
				vm.heap.WriteBarrier(target.AsObject(), proto)
			} else {
				vm.fail(ErrType, "set_prototype prototype must be an object or nil, got %s", proto.Tag())
			}
			vm.push(target)
		case bytecode.OpGetPrototype:
			target := vm.pop()
			if !target.IsObject() {
				vm.fail(ErrType, "get_prototype target must be an object, got %s", target.Tag())
			}
			proto := target.AsObject().Prototype()
			if proto == nil {
				vm.push(value.Nil)
			} else {
				vm.push(value.Object(proto))
			}

		case bytecode.OpGetObjectProto:
			typeID := chunk.Code[frame.ip]
			frame.ip++
			vm.push(value.Object(vm.builtinPrototype(typeID)))
		case bytecode.OpGetStructProto:
			name := vm.constantName(chunk, frame)
			vm.push(value.Object(vm.structProto(name)))

		case bytecode.OpMethodCall:
			argCount := int(chunk.Code[frame.ip])
			frame.ip++
			name := vm.constantName(chunk, frame)
			vm.methodCall(name, argCount)
			continue // may have pushed a new frame

		case bytecode.OpLoadModule:
			path := vm.constantName(chunk, frame)
			vm.push(vm.loadModule(path))
		case bytecode.OpImportFrom:
			name := vm.constantName(chunk, frame)
			modVal := vm.pop()
			if !modVal.IsObject() {
				vm.fail(ErrModule, "import_from target is not a module object")
			}
			v, ok := modVal.AsObject().Get(name)
			if !ok {
				vm.fail(ErrModule, "module has no export %q", name)
			}
			vm.push(v)
		case bytecode.OpModuleExport:
			name := vm.constantName(chunk, frame)
			val := vm.peek(0)
			if vm.currentModule != nil {
				vm.currentModule.Define(name, val, true)
			}

		case bytecode.OpToString:
			v := vm.pop()
			vm.push(value.String(vm.pool.Intern(value.ToString(v))))
		case bytecode.OpConcat:
			b, a := vm.pop(), vm.pop()
			if !a.IsString() || !b.IsString() {
				vm.fail(ErrType, "concat operands must be strings, got %s and %s", a.Tag(), b.Tag())
			}
			vm.push(value.String(vm.pool.Intern(*a.AsString() + *b.AsString())))
		case bytecode.OpStringInterp:
			count := int(chunk.ReadU16(frame.ip))
			frame.ip += 2
			parts := make([]string, count)
			for i := count - 1; i >= 0; i-- {
				v := vm.pop()
				if !v.IsString() {
					vm.fail(ErrType, "string_interp part must be a string, got %s", v.Tag())
				}
				parts[i] = *v.AsString()
			}
			vm.push(value.String(vm.pool.Intern(strings.Join(parts, ""))))
		case bytecode.OpInternString:
			v := vm.pop()
			if !v.IsString() {
				vm.fail(ErrType, "intern_string operand must be a string, got %s", v.Tag())
			}
			vm.push(value.String(vm.pool.Intern(*v.AsString())))

		case bytecode.OpHalt:
			return

		default:
			vm.fail(ErrType, "unknown opcode 0x%02X", byte(op))
		}
	}
}

func (vm *VM) constantName(chunk *bytecode.Chunk, frame *CallFrame) string {
	idx := int(chunk.ReadU16(frame.ip))
	frame.ip += 2
	return *chunk.Constants[idx].AsString()
}

func (vm *VM) traceInstruction(chunk *bytecode.Chunk, frame *CallFrame) {
	text, _ := bytecode.DisassembleInstruction(chunk, frame.ip)
	vm.log.WithField("frame", vm.frameCount-1).Debug(strings.TrimSpace(text))
}

// toInt32 implements §9 Open Question 2's resolution: bitwise/shift
// opcodes truncate a Number to its 32-bit two's-complement
// representation (math.Trunc drops any fractional part, matching
// JavaScript's ToInt32 coercion) rather than raising a type error on
// non-integral input.
func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(n), 1<<32) // exact, in (-2^32, 2^32)
	return int32(uint32(int64(m)))
}
