package vm

import (
	"unsafe"

	"github.com/starling-lang/starling/pkg/value"
)

// captureUpvalue returns an open upvalue pointing at the stack slot
// &vm.stack[slotIndex], reusing an existing open upvalue for that exact
// slot if one is already live (so two closures capturing the same local
// share one cell, the basis for capture-by-reference, §8 scenario 1).
// vm.openUpvalues is kept sorted by descending stack address (§3, §9)
// so the reuse search can stop at the first address below the target
// instead of walking the whole list.
func (vm *VM) captureUpvalue(slotIndex int) *value.Upvalue {
	addr := &vm.stack[slotIndex]

	for _, uv := range vm.openUpvalues {
		if uv.StackAddr() == addr {
			return uv
		}
		if lessAddr(uv.StackAddr(), addr) {
			break
		}
	}

	uv := vm.heap.NewUpvalue(addr)

	insertAt := len(vm.openUpvalues)
	for i, existing := range vm.openUpvalues {
		if lessAddr(existing.StackAddr(), addr) {
			insertAt = i
			break
		}
	}
	vm.openUpvalues = append(vm.openUpvalues, nil)
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = uv

	return uv
}

// closeUpvalues closes every open upvalue pointing at slotIndex or
// higher — called on function return and on block/loop-scope exit, so
// upvalues keep working after the stack slots they pointed at are
// reused by a later call (§9 "Closures and upvalues").
func (vm *VM) closeUpvalues(slotIndex int) {
	boundary := &vm.stack[slotIndex]
	kept := vm.openUpvalues[:0]
	for _, uv := range vm.openUpvalues {
		if !lessAddr(uv.StackAddr(), boundary) {
			uv.Close()
			continue
		}
		kept = append(kept, uv)
	}
	vm.openUpvalues = kept
}

// lessAddr orders two stack-slot pointers by the index they address
// within vm.stack's backing array, which comparing their numeric
// addresses gives correctly since both point into the same array.
func lessAddr(a, b *value.Value) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}
