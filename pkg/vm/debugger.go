package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/starling-lang/starling/pkg/bytecode"
)

// Debugger provides interactive debugging for the dispatcher, adapted
// from the teacher's pkg/vm/debugger.go to this VM's byte-level
// instruction stream and call-frame stack in place of the teacher's
// Instruction/callStack records. It is disabled by default — the VM's
// dispatch loop asks it before every instruction, but it only pauses
// once an explicit Enable() call turns it on (WithTrace logs each
// instruction without involving the debugger).
type Debugger struct {
	vm          *VM
	breakpoints map[int]bool // keyed by chunk byte offset, not instruction index
	stepMode    bool
	enabled     bool
}

func newDebugger(vm *VM) *Debugger {
	return &Debugger{vm: vm, breakpoints: make(map[int]bool)}
}

func (d *Debugger) Enable()  { d.enabled = true }
func (d *Debugger) Disable() { d.enabled = false }

func (d *Debugger) SetStepMode(enabled bool) { d.stepMode = enabled }

func (d *Debugger) AddBreakpoint(offset int)    { d.breakpoints[offset] = true }
func (d *Debugger) RemoveBreakpoint(offset int) { delete(d.breakpoints, offset) }
func (d *Debugger) ClearBreakpoints()           { d.breakpoints = make(map[int]bool) }

// ShouldPause reports whether execution should pause before the
// instruction at the current frame's ip — either because step mode is
// on or because a breakpoint was set at that offset.
func (d *Debugger) ShouldPause() bool {
	if !d.enabled || d.vm.frameCount == 0 {
		return false
	}
	if d.stepMode {
		return true
	}
	ip := d.vm.frames[d.vm.frameCount-1].ip
	return d.breakpoints[ip]
}

func (d *Debugger) currentChunk() (*bytecode.Chunk, int, bool) {
	if d.vm.frameCount == 0 {
		return nil, 0, false
	}
	frame := &d.vm.frames[d.vm.frameCount-1]
	chunk, ok := frame.closure.Fn.Chunk.(*bytecode.Chunk)
	return chunk, frame.ip, ok
}

func (d *Debugger) ShowCurrentInstruction() {
	chunk, ip, ok := d.currentChunk()
	if !ok {
		fmt.Println("no current instruction")
		return
	}
	text, _ := bytecode.DisassembleInstruction(chunk, ip)
	fmt.Println(" ", text)
}

func (d *Debugger) ShowStack() {
	fmt.Println("stack (top to bottom):")
	if d.vm.sp == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := d.vm.sp - 1; i >= 0; i-- {
		fmt.Printf("  [%d] %s\n", i, describe(d.vm.stack[i]))
	}
}

// ShowGlobals prints every VM global sorted by name — vm.globals is a
// Go map, so iteration order is otherwise randomized per run and would
// make a paused session's dump differ from one run to the next.
func (d *Debugger) ShowGlobals() {
	fmt.Println("globals:")
	if len(d.vm.globals) == 0 {
		fmt.Println("  (none)")
		return
	}
	names := maps.Keys(d.vm.globals)
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s = %s\n", name, describe(d.vm.globals[name]))
	}
}

func (d *Debugger) ShowCallStack() {
	fmt.Println("call stack (innermost first):")
	if d.vm.frameCount == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := d.vm.frameCount - 1; i >= 0; i-- {
		frame := &d.vm.frames[i]
		fmt.Printf("  %s [ip %d]\n", displayName(frame.closure.Fn), frame.ip)
	}
}

func describe(v any) string {
	return fmt.Sprintf("%v", v)
}

// InteractivePrompt drives a pause: it prints the paused instruction and
// reads commands from stdin until one resumes execution (continue/step/
// next) or aborts it (quit), matching the teacher's own command set.
func (d *Debugger) InteractivePrompt() (resume bool) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("\n=== paused ===")
	d.ShowCurrentInstruction()

	for {
		fmt.Print("debug> ")
		if !scanner.Scan() {
			return false
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.SetStepMode(false)
			return true
		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true
		case "stack", "st":
			d.ShowStack()
		case "globals", "g":
			d.ShowGlobals()
		case "callstack", "cs":
			d.ShowCallStack()
		case "instruction", "i":
			d.ShowCurrentInstruction()
		case "breakpoint", "b":
			if len(parts) < 2 {
				fmt.Println("usage: breakpoint <offset>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid offset")
				continue
			}
			d.AddBreakpoint(ip)
		case "delete", "d":
			if len(parts) < 2 {
				fmt.Println("usage: delete <offset>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("invalid offset")
				continue
			}
			d.RemoveBreakpoint(ip)
		case "quit", "q":
			return false
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", parts[0])
		}
	}
}

func (d *Debugger) printHelp() {
	fmt.Println("debugger commands:")
	fmt.Println("  help, h, ?        show this help")
	fmt.Println("  continue, c       resume execution")
	fmt.Println("  step, s, next, n  execute one instruction and pause again")
	fmt.Println("  stack, st         show the operand stack")
	fmt.Println("  globals, g        show globals")
	fmt.Println("  callstack, cs     show the call-frame stack")
	fmt.Println("  instruction, i    show the current instruction")
	fmt.Println("  breakpoint, b <n> add a breakpoint at chunk offset n")
	fmt.Println("  delete, d <n>     remove that breakpoint")
	fmt.Println("  quit, q           abort execution")
}
