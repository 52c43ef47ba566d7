package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/starling-lang/starling/pkg/asm"
	"github.com/starling-lang/starling/pkg/bytecode"
	"github.com/starling-lang/starling/pkg/container"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
	"github.com/starling-lang/starling/pkg/vm"
)

const version = "0.1.0"

var log = logrus.WithField("component", "cli")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("starling version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "disassemble", "disasm":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: starling disassemble <file.sgc>")
			os.Exit(1)
		}
		disassembleFile(os.Args[2])
	case "demo":
		runDemo()
	default:
		// Assume it's a container to run, the way the teacher treats an
		// unrecognized first argument as a file to run.
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("starling - a bytecode virtual machine for a dynamically-typed scripting language")
	fmt.Println("\nUsage:")
	fmt.Println("  starling run <file.sgc>          Run a compiled bytecode container")
	fmt.Println("  starling disassemble <file.sgc>  Disassemble a compiled bytecode container")
	fmt.Println("  starling demo                    Run a hand-assembled demo program")
	fmt.Println("  starling version                 Show version")
	fmt.Println("  starling help                    Show this help")
	fmt.Println("\nFile Extensions:")
	fmt.Println("  .sgc   Compiled container files (binary) — §6 container format")
	fmt.Println("\nNote: this build has no source-language front end (parser/compiler")
	fmt.Println("  are out of scope for this core); every program is either a pre-built")
	fmt.Println("  .sgc container or hand-assembled with pkg/asm.")
}

// loadEntryChunk opens a container file and decodes its Bytecode
// section into a runnable Chunk, the program's own top-level code
// (distinct from a module's Exports section, which importers read
// through pkg/loader instead).
func loadEntryChunk(filename string, pool *strpool.Pool) (*bytecode.Chunk, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	defer f.Close()

	c, err := container.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding container: %w", err)
	}

	section, ok := c.Find(container.SectionBytecode)
	if !ok {
		return nil, fmt.Errorf("container has no Bytecode section")
	}
	return container.DecodeChunk(section.Data, pool)
}

// runFile decodes filename as a §6 container and executes its
// top-level chunk as a zero-arity, zero-upvalue entry point.
func runFile(filename string) {
	v := vm.New(nil)
	chunk, err := loadEntryChunk(filename, v.Pool())
	if err != nil {
		log.WithError(err).WithField("file", filename).Error("failed to load container")
		os.Exit(1)
	}

	fn := value.NewFunction("main", 0, 0, chunk)
	closure := value.NewClosure(fn, nil)

	if err := v.Run(closure); err != nil {
		log.WithError(err).WithField("file", filename).Error("runtime error")
		os.Exit(1)
	}
}

// disassembleFile prints the constant pool and instruction stream of a
// container's top-level chunk, the debugging surface pkg/bytecode
// exposes via DisassembleInstruction (§4.4's own trace mode reuses the
// same primitive one instruction at a time).
func disassembleFile(filename string) {
	pool := strpool.New()
	chunk, err := loadEntryChunk(filename, pool)
	if err != nil {
		log.WithError(err).WithField("file", filename).Error("failed to load container")
		os.Exit(1)
	}

	fmt.Printf("=== Bytecode Disassembly: %s ===\n\n", filename)

	fmt.Println("Constants Pool:")
	if len(chunk.Constants) == 0 {
		fmt.Println("  (empty)")
	} else {
		for i, c := range chunk.Constants {
			fmt.Printf("  [%d] %s\n", i, value.ToString(c))
		}
	}

	fmt.Println("\nInstructions:")
	if len(chunk.Code) == 0 {
		fmt.Println("  (empty)")
	}
	for offset := 0; offset < len(chunk.Code); {
		text, next := bytecode.DisassembleInstruction(chunk, offset)
		fmt.Printf("  %s\n", text)
		offset = next
	}
}

// runDemo hand-assembles a tiny program with pkg/asm and runs it, the
// stand-in this CLI offers for the teacher's REPL/compile-from-source
// path (neither of which this core can support without a parser):
//
//	let x = 21
//	x + x
func runDemo() {
	v := vm.New(nil)
	b := asm.New(v.Pool())
	// x = 21 stays on the stack as local slot 1.
	b.Const(value.Number(21)).
		GetLocal(1).GetLocal(1).Add().
		Return()
	entry := asm.Function("demo", 0, 0, b)

	if err := v.Run(value.NewClosure(entry, nil)); err != nil {
		log.WithError(err).Error("runtime error")
		os.Exit(1)
	}
	fmt.Printf("demo result: %s\n", value.ToString(v.StackTop()))
}
