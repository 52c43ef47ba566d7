package gc

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/starling-lang/starling/pkg/value"
)

// RootSource is implemented by the VM (or anything embedding one): when
// the collector needs to mark roots (§4.3/§9 "visit_roots"), it asks the
// RootSource to call visit once per Value directly reachable from the
// running program's state — the operand stack, globals, active frames'
// locals, open upvalues, the current module's scope/exports/globals and
// module object, and the constant pools of every function currently on
// the call stack.
type RootSource interface {
	VisitRoots(visit func(value.Value))
}

// heapObject is satisfied automatically by every value-package heap type
// (Obj, Function, Closure, Upvalue, StructInstance) because each embeds
// value.GCHeader, whose methods promote onto the containing type. The
// gc package never needs to know the concrete type to mark, chain, or
// sweep an allocation.
type heapObject interface {
	value.Traceable
	Color() value.Color
	SetColor(value.Color)
	Pinned() bool
	Next() any
	SetNext(any)
	Size() uint64
	SetSize(uint64)
}

// Heap owns the collector's state: the allocation list (an intrusive
// singly-linked list threaded through each object's GCHeader.next, in
// allocation order), the gray worklist, and the running statistics.
type Heap struct {
	cfg   Config
	roots RootSource
	log   *logrus.Entry

	head      heapObject
	threshold uint64
	sinceLast uint64

	gray []heapObject

	stats Stats
}

// NewHeap creates a collector that asks roots for its root set whenever
// it runs a cycle. roots is typically the VM itself.
func NewHeap(roots RootSource, opts ...Option) *Heap {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.WithField("component", "gc")
	}
	return &Heap{
		cfg:       cfg,
		roots:     roots,
		log:       log,
		threshold: cfg.MinHeapSize,
	}
}

// register first triggers a collection if this allocation would push the
// heap past its threshold (or stress mode is on), then chains obj into
// the allocation list and charges its size against the running totals,
// so the new, not yet rooted object is never swept by the cycle its own
// allocation started. Called only by this package's
// own alloc.go constructors — value-package constructors called
// directly bypass GC accounting entirely, which is why the VM must
// always allocate through gc, never through value, once a heap exists.
func (h *Heap) register(obj heapObject, size uint64) {
	if h.cfg.StressMode || h.sinceLast+size > h.threshold {
		h.Collect()
	}

	obj.SetSize(size)
	obj.SetColor(value.White)
	obj.SetNext(h.head)
	h.head = obj

	h.sinceLast += size
	h.stats.BytesAllocated += size
	h.stats.LiveBytes += size
	if h.stats.LiveBytes > h.stats.PeakLiveBytes {
		h.stats.PeakLiveBytes = h.stats.LiveBytes
	}
}

// Pin marks obj as ineligible for collection regardless of reachability
// (§4.3 "pin/unpin") — used while a Value is held only by native/FFI code
// the collector cannot see as a root.
func (h *Heap) Pin(obj heapObject) { obj.Pin() }

// Unpin reverses Pin.
func (h *Heap) Unpin(obj heapObject) { obj.Unpin() }

// Collect runs one full stop-the-world mark-and-sweep cycle.
func (h *Heap) Collect() {
	start := time.Now()

	h.gray = h.gray[:0]
	h.roots.VisitRoots(h.markValue)
	h.drainGray()
	freed, kept := h.sweep()

	dur := time.Since(start)
	h.stats.Collections++
	h.stats.BytesFreed += freed
	h.stats.LiveBytes = kept
	h.stats.LastGCDuration = dur
	h.stats.TotalGCDuration += dur
	h.sinceLast = 0
	h.recomputeThreshold()

	h.log.WithFields(logrus.Fields{
		"bytes_freed": freed,
		"live_bytes":  kept,
		"duration_us": dur.Microseconds(),
	}).Debug("gc cycle complete")
}

func (h *Heap) recomputeThreshold() {
	next := uint64(float64(h.stats.LiveBytes) * h.cfg.GrowFactor)
	if next < h.cfg.MinHeapSize {
		next = h.cfg.MinHeapSize
	}
	if next > h.cfg.MaxHeapSize {
		next = h.cfg.MaxHeapSize
	}
	h.threshold = next
}

// markValue marks the heap object a Value refers to, if any, pushing it
// onto the gray worklist the first time it is seen this cycle. Scalar
// Values (Nil/Bool/Number) and interned strings are not heap-managed by
// this collector and are ignored.
func (h *Heap) markValue(v value.Value) {
	if !v.IsHeapValue() {
		return
	}
	obj, ok := v.HeapPointer().(heapObject)
	if !ok {
		return
	}
	h.markObject(obj)
}

func (h *Heap) markObject(obj heapObject) {
	if obj.Color() != value.White {
		return
	}
	obj.SetColor(value.Gray)
	h.gray = append(h.gray, obj)
}

func (h *Heap) drainGray() {
	for len(h.gray) > 0 {
		obj := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		obj.Trace(h.markValue)
		obj.SetColor(value.Black)
	}
}

// sweep walks the allocation list once, dropping every object still
// White (unreached this cycle) unless it is pinned, and resetting every
// survivor back to White for the next cycle. Returns bytes freed and
// bytes still live.
func (h *Heap) sweep() (freed, kept uint64) {
	var newHead heapObject
	var tail heapObject

	for obj := h.head; obj != nil; {
		next, _ := obj.Next().(heapObject)
		if obj.Color() == value.White && !obj.Pinned() {
			freed += obj.Size()
			obj = next
			continue
		}
		obj.SetColor(value.White)
		kept += obj.Size()
		obj.SetNext(nil)
		if newHead == nil {
			newHead = obj
			tail = obj
		} else {
			tail.SetNext(obj)
			tail = obj
		}
		obj = next
	}

	h.head = newHead
	return freed, kept
}
