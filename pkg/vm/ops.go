package vm

import (
	"math"

	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/value"
)

// binaryArith implements add/sub/mul/div/mod (§4.2). Add additionally
// accepts two strings as concatenation sugar the way the teacher's own
// arithmetic opcodes overload +; every other combination is a type
// error rather than an implicit coercion.
func (vm *VM) binaryArith(op bytecode.Opcode) {
	b, a := vm.pop(), vm.pop()

	if op == bytecode.OpAdd && a.IsString() && b.IsString() {
		vm.push(value.String(vm.pool.Intern(*a.AsString() + *b.AsString())))
		return
	}

	if !a.IsNumber() || !b.IsNumber() {
		vm.fail(ErrType, "operands of %s must be numbers, got %s and %s", op, a.Tag(), b.Tag())
	}
	x, y := a.AsNumber(), b.AsNumber()

	switch op {
	case bytecode.OpAdd:
		vm.push(value.Number(x + y))
	case bytecode.OpSub:
		vm.push(value.Number(x - y))
	case bytecode.OpMul:
		vm.push(value.Number(x * y))
	case bytecode.OpDiv:
		if y == 0 {
			vm.fail(ErrArithmetic, "division by zero")
		}
		vm.push(value.Number(x / y))
	case bytecode.OpMod:
		if y == 0 {
			vm.fail(ErrArithmetic, "modulo by zero")
		}
		vm.push(value.Number(fmod(x, y)))
	case bytecode.OpPower:
		vm.push(value.Number(math.Pow(x, y)))
	}
}

func fmod(x, y float64) float64 {
	return math.Mod(x, y)
}

func (vm *VM) compare(op bytecode.Opcode) {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		vm.fail(ErrType, "operands of %s must be numbers, got %s and %s", op, a.Tag(), b.Tag())
	}
	x, y := a.AsNumber(), b.AsNumber()
	var result bool
	switch op {
	case bytecode.OpLess:
		result = x < y
	case bytecode.OpLessEqual:
		result = x <= y
	case bytecode.OpGreater:
		result = x > y
	case bytecode.OpGreaterEqual:
		result = x >= y
	}
	vm.push(value.Bool(result))
}

// binaryBitwise implements &, |, ^, <<, >> over the 32-bit two's
// complement truncation of each Number operand (§9 Open Question 2):
// the guest language has one numeric type, so bitwise opcodes truncate
// to int32 the way JavaScript's do rather than raising on fractional
// input.
func (vm *VM) binaryBitwise(op bytecode.Opcode) {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		vm.fail(ErrType, "operands of %s must be numbers, got %s and %s", op, a.Tag(), b.Tag())
	}
	x, y := toInt32(a.AsNumber()), toInt32(b.AsNumber())
	var result int32
	switch op {
	case bytecode.OpBitAnd:
		result = x & y
	case bytecode.OpBitOr:
		result = x | y
	case bytecode.OpBitXor:
		result = x ^ y
	case bytecode.OpShiftLeft:
		result = x << (uint32(y) & 31)
	case bytecode.OpShiftRight:
		result = x >> (uint32(y) & 31)
	}
	vm.push(value.Number(float64(result)))
}

// call pops argCount arguments and the callee beneath them and either
// pushes a new call frame (closure) or invokes it directly in Go and
// pushes the result (native) — §4.4/§4.5's two call paths. A bare
// Function (as surfaces from a module's Exports section, §6 — compiled
// constants have no closure to wrap them since they capture nothing) is
// promoted to a zero-upvalue closure in place before the call, so an
// imported top-level function is callable exactly like one produced by
// op_closure.
func (vm *VM) call(argCount int) {
	callee := vm.peek(argCount)
	switch {
	case callee.IsClosure():
		vm.pushFrame(callee.AsClosure(), argCount)
	case callee.IsFunction():
		closure := vm.heap.NewClosure(callee.AsFunction(), nil)
		vm.stack[vm.sp-argCount-1] = value.ClosureValue(closure)
		vm.pushFrame(closure, argCount)
	case callee.IsNative():
		vm.invokeNative(callee.AsNative(), argCount)
	default:
		vm.fail(ErrType, "value of type %s is not callable", callee.Tag())
	}
}

func (vm *VM) invokeNative(fn value.NativeFn, argCount int) {
	args := make([]value.Value, argCount)
	copy(args, vm.stack[vm.sp-argCount:vm.sp])
	result, err := fn(args)
	vm.sp -= argCount + 1 // arguments plus the callee slot
	if err != nil {
		vm.fail(ErrType, "%v", err)
	}
	vm.push(result)
}

// methodCall implements method_call (§4.4): resolve name against the
// receiver's prototype chain (or the matching built-in prototype for a
// scalar receiver), then dispatch. A native method receives the receiver
// as its first argument, and its result replaces the receiver and
// arguments; any other method is dispatched exactly like call with the
// resolved value swapped in for the callee slot.
func (vm *VM) methodCall(name string, argCount int) {
	receiver := vm.peek(argCount)
	method, ok := vm.resolveMethod(receiver, name)
	if !ok {
		vm.fail(ErrUndefined, "%s has no method %q", receiver.Tag(), name)
	}
	if method.IsNative() {
		args := make([]value.Value, argCount+1)
		copy(args, vm.stack[vm.sp-argCount-1:vm.sp])
		result, err := method.AsNative()(args)
		vm.sp -= argCount + 1 // receiver plus arguments
		if err != nil {
			vm.fail(ErrType, "%v", err)
		}
		vm.push(result)
		return
	}
	vm.stack[vm.sp-argCount-1] = method
	vm.call(argCount)
}

func (vm *VM) getProperty(receiver value.Value, name string) value.Value {
	if receiver.IsObject() {
		v, ok := receiver.AsObject().Get(name)
		if !ok {
			return value.Nil
		}
		return v
	}
	if receiver.IsStruct() {
		v, ok := receiver.AsStruct().Get(name)
		if !ok {
			vm.fail(ErrUndefined, "struct %s has no field %q", receiver.AsStruct().Def.Name, name)
		}
		return v
	}
	proto := vm.prototypeFor(receiver)
	if proto == nil {
		vm.fail(ErrType, "cannot read property %q of %s", name, receiver.Tag())
	}
	v, ok := proto.Get(name)
	if !ok {
		return value.Nil
	}
	return v
}

func (vm *VM) setProperty(receiver value.Value, name string, val value.Value) {
	switch {
	case receiver.IsObject():
		receiver.AsObject().Set(name, val)
		vm.heap.WriteBarrier(receiver.AsObject(), val)
	case receiver.IsStruct():
		if !receiver.AsStruct().Set(name, val) {
			vm.fail(ErrUndefined, "struct %s has no field %q", receiver.AsStruct().Def.Name, name)
		}
		vm.heap.WriteBarrier(receiver.AsStruct(), val)
	default:
		vm.fail(ErrType, "cannot set property %q on %s", name, receiver.Tag())
	}
}

// getIndex implements get_index (§4.4): a string receiver is indexed by
// integer code point position and is read-only, so out-of-range or
// negative indices are a Bounds fault (§8 "String subscript at length or
// below zero signals Bounds error"); an array receiver's out-of-range
// read instead yields nil (§4.4 "out-of-range indices give a runtime
// error on strings, nil on arrays").
func (vm *VM) getIndex(receiver, index value.Value) value.Value {
	if !index.IsNumber() {
		vm.fail(ErrType, "index must be a number, got %s", index.Tag())
	}
	i := int(index.AsNumber())

	if receiver.IsString() {
		runes := []rune(*receiver.AsString())
		if i < 0 || i >= len(runes) {
			vm.fail(ErrBounds, "string index %d out of range (length %d)", i, len(runes))
		}
		return value.String(vm.pool.Intern(string(runes[i])))
	}

	if !receiver.IsObject() || !receiver.AsObject().IsArray() {
		vm.fail(ErrType, "index operator requires an array or string, got %s", receiver.Tag())
	}
	v, ok := receiver.AsObject().At(i)
	if !ok {
		return value.Nil
	}
	return v
}

// setIndex implements set_subscript (§4.4): assigning past an array's
// current length extends it (§3), so SetAt only fails on a negative
// index.
func (vm *VM) setIndex(receiver, index, val value.Value) {
	if !receiver.IsObject() || !receiver.AsObject().IsArray() {
		vm.fail(ErrType, "index operator requires an array, got %s", receiver.Tag())
	}
	if !index.IsNumber() {
		vm.fail(ErrType, "array index must be a number, got %s", index.Tag())
	}
	if !receiver.AsObject().SetAt(int(index.AsNumber()), val) {
		vm.fail(ErrBounds, "array index %d out of range", int(index.AsNumber()))
	}
	vm.heap.WriteBarrier(receiver.AsObject(), val)
}

// length implements op_length (§4.4): byte length for strings, element
// count for arrays, the own "length" property for any other object.
func (vm *VM) length(receiver value.Value) value.Value {
	if receiver.IsString() {
		return value.Number(float64(len(*receiver.AsString())))
	}
	if receiver.IsObject() {
		obj := receiver.AsObject()
		if obj.IsArray() {
			return value.Number(float64(obj.Length()))
		}
		v, ok := obj.GetOwn("length")
		if !ok {
			vm.fail(ErrUndefined, "object has no \"length\" property")
		}
		return v
	}
	vm.fail(ErrType, "length operator requires a string, array, or object, got %s", receiver.Tag())
	return value.Nil
}

// builtinPrototype implements get_object_proto (§4.4): looks up one of
// the five canonical built-in prototypes by its small int type id.
func (vm *VM) builtinPrototype(typeID byte) *value.Obj {
	switch bytecode.ProtoType(typeID) {
	case bytecode.ProtoObject:
		return vm.objectProto
	case bytecode.ProtoArray:
		return vm.arrayProto
	case bytecode.ProtoString:
		return vm.stringProto
	case bytecode.ProtoNumber:
		return vm.numberProto
	case bytecode.ProtoFunction:
		return vm.functionProto
	default:
		vm.fail(ErrType, "unknown built-in prototype id %d", typeID)
		return nil
	}
}

// structProto implements get_struct_proto (§4.4): struct instances carry
// no prototype field of their own (pkg/value/struct.go), so the VM
// lazily creates and caches one named prototype per struct type,
// parented to objectProto like every other built-in prototype.
func (vm *VM) structProto(name string) *value.Obj {
	if p, ok := vm.structProtos[name]; ok {
		return p
	}
	p := vm.heap.NewObject(vm.objectProto)
	vm.structProtos[name] = p
	return p
}

// loadModule resolves path through vm.loader and pushes its module
// object (§4.6): a guest-visible value whose properties are the
// module's exports, the target of a subsequent import_from.
func (vm *VM) loadModule(path string) value.Value {
	if vm.loader == nil {
		vm.fail(ErrModule, "no module loader configured")
	}
	mod, err := vm.loader.Load(path)
	if err != nil {
		vm.fail(ErrModule, "cannot load module %q: %v", path, err)
	}
	return value.Object(mod.Object)
}
