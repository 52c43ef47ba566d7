package vm

import (
	"github.com/sirupsen/logrus"

	"github.com/starling-lang/starling/pkg/gc"
)

const (
	defaultStackSize  = 1024
	defaultFrameCount = 256
)

// Config tunes a VM instance, following the same functional-option shape
// as pkg/gc.Config (see SPEC_FULL.md §A.3) rather than an on-disk config
// file — the VM core has no config surface of its own.
type Config struct {
	StackSize  int
	FrameCount int
	GCOptions  []gc.Option
	Log        *logrus.Entry
	Trace      bool
}

type Option func(*Config)

// WithStackSize overrides the fixed operand-stack capacity.
func WithStackSize(n int) Option { return func(c *Config) { c.StackSize = n } }

// WithFrameCount overrides the maximum call depth.
func WithFrameCount(n int) Option { return func(c *Config) { c.FrameCount = n } }

// WithStressGC forces the VM's heap to collect on every allocation.
func WithStressGC() Option {
	return func(c *Config) { c.GCOptions = append(c.GCOptions, gc.WithStressGC()) }
}

// WithGCOptions forwards additional options straight to pkg/gc.NewHeap.
func WithGCOptions(opts ...gc.Option) Option {
	return func(c *Config) { c.GCOptions = append(c.GCOptions, opts...) }
}

// WithLogger overrides the VM's log entry (default: component=vm,
// vm=<uuid>).
func WithLogger(l *logrus.Entry) Option { return func(c *Config) { c.Log = l } }

// WithTrace enables per-instruction disassembly as the dispatcher runs
// (§4.4 "Debug trace"), the same information the debugger's step mode
// prints, emitted unconditionally instead of interactively.
func WithTrace() Option { return func(c *Config) { c.Trace = true } }

func defaultConfig() Config {
	return Config{
		StackSize:  defaultStackSize,
		FrameCount: defaultFrameCount,
	}
}
