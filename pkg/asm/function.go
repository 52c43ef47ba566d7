package asm

import "github.com/starling-lang/starling/pkg/value"

// Function wraps body's built Chunk as a value.Function, ready to add
// to an enclosing Chunk's constant pool via FunctionConstant or to run
// directly as a program entry point (wrap in a zero-upvalue Closure).
func Function(name string, arity, upvalueCount int, body *Builder) *value.Function {
	return value.NewFunction(name, arity, upvalueCount, body.Chunk())
}
