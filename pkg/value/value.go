package value

import "math"

// Value is the tagged union every VM stack slot, local, upvalue cell, and
// object property holds. It is deliberately a small value type (copied by
// assignment, never boxed) so pushing and popping the operand stack never
// allocates — the same design nooga-paserati's Value struct uses, with the
// boolean/number/str/obj fields kept in one struct rather than behind a
// single interface{} so the common Nil/Bool/Number cases never escape to
// the heap.
type Value struct {
	tag Tag
	b   bool
	n   float64
	s   *string // canonical, interned pointer — see pkg/strpool
	obj any     // *Obj, *Function, *Closure, NativeFn, *StructInstance, or *StructDef
}

// Nil is the singular nil value.
var Nil = Value{tag: TagNil}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{tag: TagBool, b: b} }

// Number wraps a float64. Integers and floats share this single numeric
// representation per spec.md's Value table — there is no separate integer
// tag.
func Number(n float64) Value { return Value{tag: TagNumber, n: n} }

// String wraps an interned string pointer. Callers are expected to have
// gone through pkg/strpool.Pool.Intern so that two equal strings share one
// pointer; String itself does not intern.
func String(s *string) Value { return Value{tag: TagString, s: s} }

// Object wraps a heap object handle.
func Object(o *Obj) Value { return Value{tag: TagObject, obj: o} }

// FunctionValue wraps a function handle.
func FunctionValue(f *Function) Value { return Value{tag: TagFunction, obj: f} }

// ClosureValue wraps a closure handle.
func ClosureValue(c *Closure) Value { return Value{tag: TagClosure, obj: c} }

// Native wraps a native (host-implemented) function.
func Native(fn NativeFn) Value { return Value{tag: TagNative, obj: fn} }

// Struct wraps a struct-instance handle.
func Struct(s *StructInstance) Value { return Value{tag: TagStruct, obj: s} }

// StructDefValue wraps a struct type descriptor. Unlike StructInstance,
// a StructDef is compile-time data: one is emitted per struct type into
// a Chunk's constant pool, and new_struct reads it from there to mint
// instances — it is never itself heap-managed or mutated at runtime.
func StructDefValue(d *StructDef) Value { return Value{tag: TagStructDef, obj: d} }

func (v Value) Tag() Tag { return v.tag }

func (v Value) IsNil() bool      { return v.tag == TagNil }
func (v Value) IsBool() bool     { return v.tag == TagBool }
func (v Value) IsNumber() bool   { return v.tag == TagNumber }
func (v Value) IsString() bool   { return v.tag == TagString }
func (v Value) IsObject() bool   { return v.tag == TagObject }
func (v Value) IsFunction() bool { return v.tag == TagFunction }
func (v Value) IsClosure() bool  { return v.tag == TagClosure }
func (v Value) IsNative() bool   { return v.tag == TagNative }
func (v Value) IsStruct() bool   { return v.tag == TagStruct }
func (v Value) IsStructDef() bool { return v.tag == TagStructDef }

// IsHeapValue reports whether v holds a GC-managed handle (Object,
// Function, Closure, or StructInstance; native functions are host-owned
// and never collected). Used by the GC's root-marking walk.
func (v Value) IsHeapValue() bool {
	switch v.tag {
	case TagObject, TagFunction, TagClosure, TagStruct:
		return true
	default:
		return false
	}
}

func (v Value) AsBool() bool {
	if v.tag != TagBool {
		panic("value: AsBool on non-bool Value")
	}
	return v.b
}

func (v Value) AsNumber() float64 {
	if v.tag != TagNumber {
		panic("value: AsNumber on non-number Value")
	}
	return v.n
}

func (v Value) AsString() *string {
	if v.tag != TagString {
		panic("value: AsString on non-string Value")
	}
	return v.s
}

func (v Value) AsObject() *Obj {
	if v.tag != TagObject {
		panic("value: AsObject on non-object Value")
	}
	return v.obj.(*Obj)
}

func (v Value) AsFunction() *Function {
	if v.tag != TagFunction {
		panic("value: AsFunction on non-function Value")
	}
	return v.obj.(*Function)
}

func (v Value) AsClosure() *Closure {
	if v.tag != TagClosure {
		panic("value: AsClosure on non-closure Value")
	}
	return v.obj.(*Closure)
}

func (v Value) AsNative() NativeFn {
	if v.tag != TagNative {
		panic("value: AsNative on non-native Value")
	}
	return v.obj.(NativeFn)
}

func (v Value) AsStruct() *StructInstance {
	if v.tag != TagStruct {
		panic("value: AsStruct on non-struct Value")
	}
	return v.obj.(*StructInstance)
}

func (v Value) AsStructDef() *StructDef {
	if v.tag != TagStructDef {
		panic("value: AsStructDef on non-struct-def Value")
	}
	return v.obj.(*StructDef)
}

// HeapPointer returns the underlying handle for any heap-tagged Value,
// for use by the GC walker which only needs identity, not type.
func (v Value) HeapPointer() any {
	return v.obj
}

// Truthy implements the guest language's notion of truthiness for
// control-flow opcodes (jump_if_false, and/or, not): nil and false(Bool)
// are falsey, everything else — including 0 and the empty string — is
// truthy. This matches spec.md's boundary-behavior note that and/or push
// the chosen operand unmodified rather than coercing to Bool.
func (v Value) Truthy() bool {
	switch v.tag {
	case TagNil:
		return false
	case TagBool:
		return v.b
	default:
		return true
	}
}

// Equal implements guest-level equality (§8 universal invariants):
//   - Nil equals only Nil.
//   - Bool/Number compare by underlying Go equality (so NaN != NaN, and
//     two Number values holding NaN are never equal, matching float64).
//   - String compares by pointer identity — safe because strings are
//     always interned before becoming a Value (pkg/strpool).
//   - Object/Function/Closure/Native/Struct compare by handle identity:
//     two Values are equal only if they reference the very same heap
//     object, never by structural/deep comparison.
func Equal(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagNil:
		return true
	case TagBool:
		return a.b == b.b
	case TagNumber:
		return a.n == b.n
	case TagString:
		return a.s == b.s
	case TagObject:
		return a.obj.(*Obj) == b.obj.(*Obj)
	case TagFunction:
		return a.obj.(*Function) == b.obj.(*Function)
	case TagClosure:
		return a.obj.(*Closure) == b.obj.(*Closure)
	case TagStruct:
		return a.obj.(*StructInstance) == b.obj.(*StructInstance)
	case TagStructDef:
		return a.obj.(*StructDef) == b.obj.(*StructDef)
	case TagNative:
		// NativeFn is a func value; Go forbids == on funcs, so natives
		// compare equal only when both wrap the same function, which
		// sameNative decides by comparing their code pointers via reflect.
		return sameNative(a.obj, b.obj)
	default:
		return false
	}
}

// IsNaN reports whether v is a Number holding NaN, used by the boundary
// tests spec.md §8 calls out explicitly (NaN compares unequal to itself).
func IsNaN(v Value) bool {
	return v.tag == TagNumber && math.IsNaN(v.n)
}
