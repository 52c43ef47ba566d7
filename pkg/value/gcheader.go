package value

// Color is the tri-color mark used by pkg/gc's collector (§4.3). It lives
// on the value package's heap types themselves — rather than in a side
// table keyed by pointer — because every heap-allocated type in this VM
// (Obj, Function, Closure, StructInstance) already carries one GCHeader,
// and a side table would need exactly the same identity these pointers
// already give for free.
type Color uint8

const (
	White Color = iota // not yet visited this cycle; swept if still White
	Gray                // visited, children not yet scanned
	Black               // visited, children scanned
)

// GCHeader is embedded in every heap type the collector manages. next
// chains every live allocation into the GC's sweep list in allocation
// order, the same intrusive-list trick a tracing collector over a
// non-GC'd host language needs to enumerate "everything ever allocated"
// without a separate registry.
type GCHeader struct {
	color  Color
	pinned bool
	next   any
	size   uint64
}

func (h *GCHeader) Color() Color     { return h.color }
func (h *GCHeader) SetColor(c Color) { h.color = c }
func (h *GCHeader) Pinned() bool     { return h.pinned }
func (h *GCHeader) Pin()             { h.pinned = true }
func (h *GCHeader) Unpin()           { h.pinned = false }
func (h *GCHeader) Next() any        { return h.next }
func (h *GCHeader) SetNext(next any) { h.next = next }

// Size reports the approximate byte cost the collector charged this
// object's allocation against (set once, at allocation time, by
// pkg/gc's allocation helpers). Used only for GC statistics accounting,
// never for correctness.
func (h *GCHeader) Size() uint64     { return h.size }
func (h *GCHeader) SetSize(n uint64) { h.size = n }

// Traceable is implemented by every heap type so the collector can walk
// outgoing references generically without a type switch per opcode.
type Traceable interface {
	Trace(visit func(Value))
}
