package value

// Upvalue is the two-state cell a closure captures a free variable
// through (§3 "Upvalue", §9 "Closures and upvalues"): while open,
// location points directly at the owning frame's live stack slot, so
// writes through one closure are visible to every other closure sharing
// the same upvalue (capture-by-reference, §8 scenario 1). Once the
// owning frame returns, Close copies the current value into the cell's
// own storage and location is cleared — the upvalue keeps working for
// the rest of its lifetime with no further dependency on the stack.
//
// Grounded on nooga-paserati's Upvalue{Location *Value; Closed Value}.
type Upvalue struct {
	GCHeader

	location *Value
	closed   Value
}

// NewUpvalue creates an open upvalue pointing at a live stack slot.
func NewUpvalue(location *Value) *Upvalue {
	return &Upvalue{location: location}
}

// IsOpen reports whether the upvalue still points at a stack slot.
func (u *Upvalue) IsOpen() bool { return u.location != nil }

// StackAddr returns the stack slot address this upvalue currently points
// at while open, nil once closed. The VM's open-upvalue list is kept
// sorted by descending StackAddr so it can be scanned and closed in one
// pass on return/block-exit (§9).
func (u *Upvalue) StackAddr() *Value { return u.location }

func (u *Upvalue) Get() Value {
	if u.location != nil {
		return *u.location
	}
	return u.closed
}

func (u *Upvalue) Set(v Value) {
	if u.location != nil {
		*u.location = v
		return
	}
	u.closed = v
}

// Close detaches the upvalue from the stack, snapshotting the current
// value into its own storage.
func (u *Upvalue) Close() {
	if u.location == nil {
		return
	}
	u.closed = *u.location
	u.location = nil
}

func (u *Upvalue) Trace(visit func(Value)) {
	visit(u.Get())
}
