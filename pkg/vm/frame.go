package vm

import "github.com/starling-lang/starling/pkg/value"

// CallFrame is one activation record (§4.5 "Call-Frame Discipline"): the
// closure being executed, its instruction pointer, and the base index
// into the VM's shared value stack where this call's arguments and
// locals begin (slot 0 of the frame is slotsBase in the VM's stack).
// There is no separate locals array — locals and the operand stack
// share one contiguous array the way a real stack machine keeps them,
// with CallFrame.slotsBase marking where "this call's window" starts.
type CallFrame struct {
	closure   *value.Closure
	ip        int
	slotsBase int
}

func (f *CallFrame) chunkFor() *value.Function { return f.closure.Fn }
