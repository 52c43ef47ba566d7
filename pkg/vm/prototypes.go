package vm

import (
	"fmt"
	"os"
	"strings"

	"github.com/starling-lang/starling/pkg/value"
)

// bootstrapPrototypes creates the five built-in prototypes every VM
// instance starts with (§6 "intrinsic globals", §9 "global mutable
// prototypes"): Object, Array, String, Number, and Function. They are
// plain Obj values like any guest object — guest code can add methods
// to vm.arrayProto (say) and every array shares the addition
// immediately, which is exactly the "global mutable prototype" design
// note calls out as intentional, not an oversight.
func (vm *VM) bootstrapPrototypes() {
	vm.objectProto = vm.heap.NewObject(nil)
	vm.arrayProto = vm.heap.NewObject(vm.objectProto)
	vm.stringProto = vm.heap.NewObject(vm.objectProto)
	vm.numberProto = vm.heap.NewObject(vm.objectProto)
	vm.functionProto = vm.heap.NewObject(vm.objectProto)

	vm.arrayProto.Set("push", value.Native(vm.nativeArrayPush))
	vm.arrayProto.Set("length", value.Native(vm.nativeArrayLength))
	vm.arrayProto.Set("at", value.Native(vm.nativeArrayAt))
}

// bootstrapGlobals installs the intrinsic globals every program has
// available without an import (§6): print, typeof, assert.
func (vm *VM) bootstrapGlobals() {
	vm.globals["print"] = value.Native(vm.nativePrint)
	vm.globals["typeof"] = value.Native(vm.nativeTypeof)
	vm.globals["assert"] = value.Native(vm.nativeAssert)
}

func (vm *VM) nativePrint(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.ToString(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return value.Nil, nil
}

func (vm *VM) nativeTypeof(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("typeof expects 1 argument, got %d", len(args))
	}
	return value.String(vm.pool.Intern(args[0].Tag().String())), nil
}

// nativeAssert terminates the host process on failure (§7): an assert
// failure in guest code is treated as unrecoverable rather than raised
// as a catchable RuntimeError, since it signals the guest program's own
// invariants broke, not a VM-detectable runtime condition.
func (vm *VM) nativeAssert(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil, fmt.Errorf("assert expects at least 1 argument")
	}
	if args[0].Truthy() {
		return value.Nil, nil
	}
	message := "assertion failed"
	if len(args) > 1 {
		message = value.ToString(args[1])
	}
	fmt.Fprintln(os.Stderr, "assert:", message)
	os.Exit(1)
	return value.Nil, nil
}

func (vm *VM) nativeArrayPush(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsObject() || !args[0].AsObject().IsArray() {
		return value.Nil, fmt.Errorf("push expects (array, value)")
	}
	args[0].AsObject().Push(args[1])
	return args[0], nil
}

func (vm *VM) nativeArrayLength(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsObject() || !args[0].AsObject().IsArray() {
		return value.Nil, fmt.Errorf("length expects (array)")
	}
	return value.Number(float64(args[0].AsObject().Length())), nil
}

func (vm *VM) nativeArrayAt(args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsObject() || !args[0].AsObject().IsArray() || !args[1].IsNumber() {
		return value.Nil, fmt.Errorf("at expects (array, index)")
	}
	v, ok := args[0].AsObject().At(int(args[1].AsNumber()))
	if !ok {
		return value.Nil, fmt.Errorf("index out of bounds")
	}
	return v, nil
}

// prototypeFor returns the built-in prototype backing method_call
// dispatch for receivers that are not themselves Obj values (§4.4
// "method_call ... including built-in string/number prototypes").
func (vm *VM) prototypeFor(v value.Value) *value.Obj {
	switch v.Tag() {
	case value.TagString:
		return vm.stringProto
	case value.TagNumber:
		return vm.numberProto
	case value.TagFunction, value.TagClosure:
		return vm.functionProto
	default:
		return nil
	}
}

// resolveMethod looks up name starting at receiver's own prototype
// chain if it is an Obj (which already includes arrays, since arrays
// are Obj values with isArray set), or at the matching built-in
// prototype otherwise.
func (vm *VM) resolveMethod(receiver value.Value, name string) (value.Value, bool) {
	if receiver.IsObject() {
		return receiver.AsObject().Get(name)
	}
	if receiver.IsStruct() {
		return vm.structProto(receiver.AsStruct().Def.Name).Get(name)
	}
	proto := vm.prototypeFor(receiver)
	if proto == nil {
		return value.Nil, false
	}
	return proto.Get(name)
}
