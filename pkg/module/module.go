// Package module implements the VM's module record and its state
// machine (§3 "Module", §4.6). A Module is deliberately a plain data
// holder with no behavior of its own beyond bookkeeping — the actual
// work of resolving a path to a Module and compiling/linking it belongs
// to pkg/loader.
package module

import (
	"sync"

	"github.com/starling-lang/starling/pkg/value"
)

// State tracks a Module's position in its load lifecycle (§4.6
// "init-states"). Loading is visible to other goroutines for the
// duration of a cyclic import — a module partway through Loading can be
// handed back out with whatever exports it has defined so far, which is
// how import cycles resolve instead of deadlocking (§4.6 "cyclic-import
// handling").
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Errored
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// NativeHandle is the loaded dynamic-library handle and init entry point
// for a native (FFI) module (§6 "Native-module FFI"). Kept untyped
// (OSHandle any) so pkg/module does not need to import the standard
// library's plugin package itself — pkg/loader, which actually dlopens
// the library, is the only thing that populates this.
type NativeHandle struct {
	OSHandle any
	InitFn   func(m *Module) bool
}

// Module is one loaded (or loading) unit of guest code: its own private
// scope, its ordered export table, the module object guest code sees
// when it imports the module, and its own module-level globals (§3
// "Module"). mu guards State and the private/export maps against the
// loader's concurrent cache readers (§4.6 "thread-safety").
type Module struct {
	mu sync.RWMutex

	Path   string
	AbsPath string
	State  State
	Err    error

	private map[string]value.Value
	exportedNames []string
	exported      map[string]bool

	Object  *value.Obj
	Globals map[string]value.Value

	Native *NativeHandle
}

func New(path, absPath string) *Module {
	return &Module{
		Path:    path,
		AbsPath: absPath,
		State:   Unloaded,
		private: make(map[string]value.Value),
		exported: make(map[string]bool),
		Object:  value.NewObject(nil),
		Globals: make(map[string]value.Value),
	}
}

func (m *Module) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State = s
}

func (m *Module) CurrentState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.State
}

// Define records a private module-scope binding. exported marks it as
// also visible to importers through Export/ExportedNames.
func (m *Module) Define(name string, v value.Value, exported bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.private[name]; !exists && exported {
		m.exportedNames = append(m.exportedNames, name)
	}
	m.private[name] = v
	if exported {
		m.exported[name] = true
		m.Object.Set(name, v)
	}
}

// Lookup returns a private-scope binding by name, visible only to code
// running inside the module itself.
func (m *Module) Lookup(name string) (value.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.private[name]
	return v, ok
}

// Export returns an exported binding by name, visible to importers.
func (m *Module) Export(name string) (value.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.exported[name] {
		return value.Nil, false
	}
	v, ok := m.private[name]
	return v, ok
}

// ExportedNames returns export names in definition order, matching the
// module's own §3 "export table" ordering guarantee.
func (m *Module) ExportedNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.exportedNames))
	copy(out, m.exportedNames)
	return out
}

// Trace visits every Value reachable from this module's own state, for
// the GC's module-root enumeration (§9 "GC roots" names "module
// scopes/exports/globals/module-objects" as roots).
func (m *Module) Trace(visit func(value.Value)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.private {
		visit(v)
	}
	for _, v := range m.Globals {
		visit(v)
	}
	visit(value.Object(m.Object))
}
