package value

import "github.com/dolthub/swiss"

// Obj is the general-purpose heap object: an ordered property map plus a
// single prototype link (§3 "Object", §4.2). Arrays are Obj values with
// isArray set and their numeric elements kept in a dense slice rather
// than as string-keyed properties, matching §4.2's recommendation to
// special-case the common array shape instead of paying a string-keyed
// hash lookup for every index access.
//
// Property lookup is "own" index (a swiss.Map from key to a slot in
// values) plus a parallel keys slice recording insertion order, per
// §4.2's "open hash with a parallel insertion-order list" design —
// insertion order is observable (guest code iterating an object's own
// keys sees definition order), which a bare hash map cannot give for
// free.
type Obj struct {
	GCHeader

	prototype *Obj
	isArray   bool

	keys   []string
	values []Value
	index  *swiss.Map[string, int]

	elements []Value // used only when isArray
}

// NewObject allocates a plain object with the given prototype (nil for
// none — the root of a prototype chain).
func NewObject(prototype *Obj) *Obj {
	return &Obj{
		prototype: prototype,
		index:     swiss.NewMap[string, int](8),
	}
}

// NewArray allocates an array object backed by a dense element slice.
func NewArray(prototype *Obj) *Obj {
	return &Obj{
		prototype: prototype,
		isArray:   true,
		index:     swiss.NewMap[string, int](0),
	}
}

func (o *Obj) IsArray() bool    { return o.isArray }
func (o *Obj) Prototype() *Obj  { return o.prototype }
func (o *Obj) SetPrototype(p *Obj) { o.prototype = p }

// GetOwn looks up a property defined directly on o, without consulting
// the prototype chain.
func (o *Obj) GetOwn(key string) (Value, bool) {
	i, ok := o.index.Get(key)
	if !ok {
		return Nil, false
	}
	return o.values[i], true
}

func (o *Obj) HasOwn(key string) bool {
	_, ok := o.index.Get(key)
	return ok
}

// Get walks the prototype chain, returning the first definition of key
// found, starting at o itself (§4.2 "prototype lookup"). Cyclic
// prototype chains are a caller-side invariant (§9 "Prototype cycles") —
// Get does not itself guard against them.
func (o *Obj) Get(key string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.prototype {
		if v, ok := cur.GetOwn(key); ok {
			return v, true
		}
	}
	return Nil, false
}

func (o *Obj) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set defines or overwrites an own property, appending to the
// insertion-order list the first time key is seen.
func (o *Obj) Set(key string, v Value) {
	if i, ok := o.index.Get(key); ok {
		o.values[i] = v
		return
	}
	o.index.Put(key, len(o.values))
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

// Each visits own properties in insertion order.
func (o *Obj) Each(fn func(key string, v Value)) {
	for i, k := range o.keys {
		fn(k, o.values[i])
	}
}

// Length returns the array's element count. Calling it on a non-array
// object is a caller error (the VM only emits array-length opcodes
// against values known to be arrays via the is_array flag).
func (o *Obj) Length() int {
	return len(o.elements)
}

// Push appends to the array's element slice.
func (o *Obj) Push(v Value) {
	o.elements = append(o.elements, v)
}

// At returns element i of an array, or false if i is out of range —
// the VM's index read turns a false return into nil, and the array at()
// method turns it into an error.
func (o *Obj) At(i int) (Value, bool) {
	if i < 0 || i >= len(o.elements) {
		return Nil, false
	}
	return o.elements[i], true
}

// SetAt overwrites element i, growing the array with Nil padding if i is
// at or past the current length (§3 "subscript assignment past length
// extends it"). Only a negative index is out of range.
func (o *Obj) SetAt(i int, v Value) bool {
	if i < 0 {
		return false
	}
	for i >= len(o.elements) {
		o.elements = append(o.elements, Nil)
	}
	o.elements[i] = v
	return true
}

// EachElement visits array elements in ascending index order (§4.2
// "numeric-key iteration ascending").
func (o *Obj) EachElement(fn func(i int, v Value)) {
	for i, v := range o.elements {
		fn(i, v)
	}
}

// Trace visits every Value directly reachable from o: the prototype link
// (re-wrapped as a Value so the collector's generic visit function sees
// it), every own-property value, and every array element.
func (o *Obj) Trace(visit func(Value)) {
	if o.prototype != nil {
		visit(Object(o.prototype))
	}
	for _, v := range o.values {
		visit(v)
	}
	for _, v := range o.elements {
		visit(v)
	}
}
