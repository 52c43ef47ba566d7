// Package gc implements the VM's tracing mark-and-sweep collector (§4.3).
//
// Every guest-visible heap allocation (objects, arrays, functions,
// closures, upvalues, struct instances) is made through this package's
// allocation helpers rather than directly via the value package's
// constructors, so the collector can account for it, chain it into the
// sweep list, and — once its allocation threshold is crossed — collect
// it.
//
// The algorithm is textbook tri-color mark-sweep: every live object
// starts White, is promoted to Gray when first reached from a root or
// from another object's Trace, and to Black once its own children have
// been scanned. Sweep frees everything still White at the end of a
// cycle and resets survivors back to White for the next one. There is
// no separate young/old generation and no compaction — §9's Non-goals
// rule those out explicitly.
package gc

import "github.com/sirupsen/logrus"

// Config tunes the collector's triggering behavior (§4.3 "allocation-
// threshold triggering"). Functional options over a config struct,
// following the teacher's preference for explicit code-level
// configuration over external config files (no on-disk config format
// exists for the VM core — see SPEC_FULL.md §A.3).
type Config struct {
	MinHeapSize uint64
	MaxHeapSize uint64
	GrowFactor  float64
	StressMode  bool
	Log         *logrus.Entry
}

type Option func(*Config)

// WithMinHeap sets the floor below which the collection threshold never
// shrinks, even immediately after a cycle that left very little live.
func WithMinHeap(n uint64) Option { return func(c *Config) { c.MinHeapSize = n } }

// WithMaxHeap sets the ceiling the next-collection threshold is clamped
// to. It does not cap the heap itself: an allocation past it still
// succeeds, and no Allocation error is ever reported because of it.
func WithMaxHeap(n uint64) Option { return func(c *Config) { c.MaxHeapSize = n } }

// WithGrowFactor sets the multiplier applied to live bytes when
// recomputing the next threshold after a cycle.
func WithGrowFactor(f float64) Option { return func(c *Config) { c.GrowFactor = f } }

// WithStressGC forces a collection on every single allocation,
// regardless of threshold — used by tests that want to provoke GC bugs
// deterministically rather than wait for the threshold to trip.
func WithStressGC() Option { return func(c *Config) { c.StressMode = true } }

// WithLogger overrides the collector's log entry (default: a
// logrus.Entry tagged component=gc).
func WithLogger(l *logrus.Entry) Option { return func(c *Config) { c.Log = l } }

func defaultConfig() Config {
	return Config{
		MinHeapSize: 1 << 20, // 1 MiB
		MaxHeapSize: 1 << 30, // 1 GiB
		GrowFactor:  2.0,
	}
}
