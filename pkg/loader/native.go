package loader

import (
	"plugin"
	"strings"

	"github.com/pkg/errors"

	"github.com/starling-lang/starling/pkg/module"
)

// initNative dlopens the shared object named by libPath and looks up its
// mangled init symbol (§6 "Native-module FFI"). Go has no bare dlopen; the
// standard library's plugin package is the idiomatic equivalent (see
// SPEC_FULL.md §B.1), so this is the one place in the loader that reaches
// past the container/module data model into OS-level dynamic loading.
func (l *Loader) initNative(m *module.Module, libPath string) error {
	p, err := plugin.Open(libPath)
	if err != nil {
		return errors.Wrapf(err, "loader: opening native module %q", libPath)
	}

	symbol := mangleInitSymbol(m.Path)
	sym, err := p.Lookup(symbol)
	if err != nil {
		return errors.Wrapf(err, "loader: looking up %q in %q", symbol, libPath)
	}

	initFn, ok := sym.(func(*module.Module) bool)
	if !ok {
		return errors.Errorf("loader: %q in %q has the wrong signature", symbol, libPath)
	}

	m.Native = &module.NativeHandle{OSHandle: p, InitFn: initFn}
	if !initFn(m) {
		return errors.Errorf("loader: native module %q init returned false", m.Path)
	}
	return nil
}

// mangleInitSymbol builds the "swiftlang_<mangled-name>_module_init"
// symbol name (§6), substituting "_" for "." and "/" in the module path
// the same way the spec's name-mangling rule requires.
func mangleInitSymbol(modulePath string) string {
	mangled := strings.NewReplacer(".", "_", "/", "_").Replace(modulePath)
	return "swiftlang_" + mangled + "_module_init"
}
