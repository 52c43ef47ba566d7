package gc

import "github.com/starling-lang/starling/pkg/value"

// WriteBarrier is invoked by the VM at the store sites that write a
// reference into an existing heap object — object property sets, array
// element sets and pushes, struct field sets, prototype relinks and
// upvalue writes (§4.3 "write barrier"). Global and local-slot stores,
// and the stores that fill a freshly built object or array literal, do
// not go through it. In this collector's stop-the-world baseline it is a
// no-op in practice: Collect() always runs a full cycle to completion
// before any mutator code resumes, so no Black object can ever be live
// to receive a new White child mid-cycle. It is still called
// unconditionally at those store sites, both because that is what makes
// the barrier safe to later switch to the incremental Phase machinery
// below without hunting down call sites, and because it is the one
// guard that keeps a Black object from regressing to holding a White
// child if that invariant is ever violated.
func (h *Heap) WriteBarrier(owner heapObject, child value.Value) {
	if owner.Color() != value.Black {
		return
	}
	if !child.IsHeapValue() {
		return
	}
	obj, ok := child.HeapPointer().(heapObject)
	if !ok || obj.Color() != value.White {
		return
	}
	owner.SetColor(value.Gray)
	h.gray = append(h.gray, owner)
}

// Phase names a step of an incremental collection (§9 Open Question 3).
// The baseline collector never leaves Collect with phase anything but
// PhaseNone — a cycle always runs start-to-finish — but the enum and
// Phase field exist so a future incremental scheduler has somewhere to
// record "I stopped after marking roots" without restructuring Heap.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseMarkRoots
	PhaseMark
	PhaseSweep
)

// CurrentPhase always reports PhaseNone for this collector: see Phase's
// doc comment. Exposed so code written against an eventual incremental
// collector (tests included) has a stable name to call.
func (h *Heap) CurrentPhase() Phase { return PhaseNone }
