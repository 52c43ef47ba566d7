package vm

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starling-lang/starling/pkg/asm"
	"github.com/starling-lang/starling/pkg/value"
)

// TestDebuggerBreakpointsGateShouldPause exercises the breakpoint
// bookkeeping the dispatch loop's top-of-loop hook consults every
// iteration (pkg/vm/run.go's vm.debugger.ShouldPause() check): adding a
// breakpoint at an offset should make ShouldPause report true once
// execution reaches it, and removing/clearing should turn it back off.
func TestDebuggerBreakpointsGateShouldPause(t *testing.T) {
	v := New(nil)
	d := v.Debugger()

	assert.False(t, d.ShouldPause(), "disabled debugger never pauses")

	d.Enable()
	assert.False(t, d.ShouldPause(), "no frame pushed yet")

	b := asm.New(v.Pool())
	b.Nil().Halt()
	entry := asm.Function("main", 0, 0, b)
	v.push(value.ClosureValue(value.NewClosure(entry, nil)))
	v.pushFrame(value.NewClosure(entry, nil), 0)

	assert.False(t, d.ShouldPause(), "no breakpoint or step mode set")

	d.AddBreakpoint(0)
	assert.True(t, d.ShouldPause(), "breakpoint at current ip should pause")

	d.RemoveBreakpoint(0)
	assert.False(t, d.ShouldPause())

	d.AddBreakpoint(0)
	d.ClearBreakpoints()
	assert.False(t, d.ShouldPause(), "ClearBreakpoints should drop every breakpoint")

	d.SetStepMode(true)
	assert.True(t, d.ShouldPause(), "step mode pauses regardless of breakpoints")

	d.Disable()
	assert.False(t, d.ShouldPause(), "a disabled debugger never pauses even in step mode")
}

// TestDebuggerInteractivePromptQuitAbortsRun pins §4.4's debugger-driven
// abort path: a "quit" command fed to InteractivePrompt makes run()
// raise an ErrAllocation RuntimeError instead of continuing execution.
func TestDebuggerInteractivePromptQuitAbortsRun(t *testing.T) {
	v := New(nil)
	v.Debugger().Enable()
	v.Debugger().SetStepMode(true)

	b := asm.New(v.Pool())
	b.Nil().Pop().Nil().Pop().Halt()
	entry := asm.Function("main", 0, 0, b)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	original := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = original }()

	_, err = w.WriteString("quit\n")
	require.NoError(t, err)
	w.Close()

	err = v.Run(value.NewClosure(entry, nil))
	require.Error(t, err)
	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrAllocation, rtErr.Kind)
}
