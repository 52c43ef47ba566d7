package value

import "reflect"

// NativeFn is the calling convention for host-implemented functions
// reachable from guest code — both intrinsic globals (print, typeof,
// assert) and native-module exports (§6 "Native-module FFI"). It mirrors
// the teacher's primitive dispatch signature (receiver/args in, single
// Value or error out) generalized to this VM's tagged Value type instead
// of interface{}.
type NativeFn func(args []Value) (Value, error)

// sameNative compares two native-function handles for identity. Go
// forbids == on func values directly, so identity is taken from the
// underlying code pointer via reflect, matching how two Values wrapping
// the very same registered NativeFn are expected to compare equal.
func sameNative(a, b any) bool {
	fa, ok := a.(NativeFn)
	if !ok {
		return false
	}
	fb, ok := b.(NativeFn)
	if !ok {
		return false
	}
	return reflect.ValueOf(fa).Pointer() == reflect.ValueOf(fb).Pointer()
}
