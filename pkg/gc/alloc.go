package gc

import "github.com/starling-lang/starling/pkg/value"

// Approximate per-kind allocation sizes charged against the collector's
// byte accounting. These are deliberately rough (header size plus a
// fixed estimate of the backing slices' initial capacity) — §4.3 only
// requires that the threshold respond to allocation *pressure*, not that
// it track the Go runtime's actual heap footprint byte for byte.
const (
	objectBaseSize    = 96
	arrayBaseSize     = 64
	functionBaseSize  = 80
	closureBaseSize   = 48
	upvalueBaseSize   = 32
	structBaseSize    = 48
	perFieldSize      = 16
)

// NewObject allocates a plain object and registers it with the heap.
func (h *Heap) NewObject(prototype *value.Obj) *value.Obj {
	o := value.NewObject(prototype)
	h.register(o, objectBaseSize)
	return o
}

// NewArray allocates an array object and registers it with the heap.
func (h *Heap) NewArray(prototype *value.Obj) *value.Obj {
	a := value.NewArray(prototype)
	h.register(a, arrayBaseSize)
	return a
}

// NewFunction allocates a compiled-function handle and registers it.
func (h *Heap) NewFunction(name string, arity, upvalueCount int, chunk any) *value.Function {
	fn := value.NewFunction(name, arity, upvalueCount, chunk)
	h.register(fn, functionBaseSize)
	return fn
}

// NewClosure allocates a closure and registers it.
func (h *Heap) NewClosure(fn *value.Function, upvalues []*value.Upvalue) *value.Closure {
	c := value.NewClosure(fn, upvalues)
	h.register(c, closureBaseSize+uint64(len(upvalues))*8)
	return c
}

// NewUpvalue allocates an open upvalue pointing at location and
// registers it.
func (h *Heap) NewUpvalue(location *value.Value) *value.Upvalue {
	uv := value.NewUpvalue(location)
	h.register(uv, upvalueBaseSize)
	return uv
}

// NewStructInstance allocates a struct instance and registers it.
func (h *Heap) NewStructInstance(def *value.StructDef) *value.StructInstance {
	s := value.NewStructInstance(def)
	h.register(s, structBaseSize+uint64(len(def.FieldNames))*perFieldSize)
	return s
}
