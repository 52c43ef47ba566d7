package value

// ConstantWalker is implemented by pkg/bytecode.Chunk. Function keeps its
// Chunk field untyped (any) rather than *bytecode.Chunk to avoid an
// import cycle — bytecode.Chunk's constant pool holds value.Value, so
// bytecode already imports value; value cannot import bytecode back.
// This mirrors nooga-paserati's Closure.Fn interface{} field, which
// sidesteps the same kind of cycle between its value and vm packages.
type ConstantWalker interface {
	EachConstant(visit func(Value))
}

// Function is a compiled function: its code (an opaque Chunk handle),
// arity, upvalue count, and the module it was defined in, if any (§3
// "Function"). Top-level chunks assembled directly by tests or the asm
// package may have a nil Module.
type Function struct {
	GCHeader

	Name         string
	Arity        int
	UpvalueCount int
	Chunk        any // *bytecode.Chunk
	Module       any // *module.Module, optional
}

func NewFunction(name string, arity, upvalueCount int, chunk any) *Function {
	return &Function{Name: name, Arity: arity, UpvalueCount: upvalueCount, Chunk: chunk}
}

// Trace visits every heap-reachable Value in the function's constant
// pool (nested function literals, pre-built constant objects). Chunks
// holding only scalar constants report no heap references, which is the
// common case.
func (f *Function) Trace(visit func(Value)) {
	if cw, ok := f.Chunk.(ConstantWalker); ok {
		cw.EachConstant(visit)
	}
}
