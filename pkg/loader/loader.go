// Package loader implements the Module Loader hierarchy (§4.6, §9
// "module loader hierarchy"): Bootstrap → System → Application → Child
// loaders delegating parent-first, a reader-writer-lock-guarded module
// cache refined with golang.org/x/sync/singleflight so concurrent
// first-loads of the same path never double-compile or double-dlopen
// it (see SPEC_FULL.md §B), and cyclic-import handling by publishing a
// module into the cache while it is still Loading rather than only once
// it finishes.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"plugin"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/starling-lang/starling/pkg/container"
	"github.com/starling-lang/starling/pkg/module"
	"github.com/starling-lang/starling/pkg/strpool"
)

// Kind names a loader's position in the delegation hierarchy (§4.6).
type Kind int

const (
	Bootstrap Kind = iota
	System
	Application
	Child
)

func (k Kind) String() string {
	switch k {
	case Bootstrap:
		return "bootstrap"
	case System:
		return "system"
	case Application:
		return "application"
	case Child:
		return "child"
	default:
		return "unknown"
	}
}

// ErrNotFound is returned by Load (and wrapped ones aren't, by design —
// callers check errors.Is) when no loader in the delegation chain could
// resolve path to a file on disk. Any other error (decode failure,
// checksum mismatch, native init failure) is a real load error and is
// not masked by parent-delegation fallthrough.
var ErrNotFound = errors.New("loader: module not found")

// Option configures a Loader at construction.
type Option func(*Loader)

func WithSearchPath(paths ...string) Option {
	return func(l *Loader) { l.searchPaths = append(l.searchPaths, paths...) }
}

func WithLogger(log *logrus.Entry) Option {
	return func(l *Loader) { l.log = log }
}

// Loader resolves module paths to loaded pkg/module.Module values,
// caching the result. Each loader in the chain has its own cache —
// §4.6 describes per-loader caches with delegation, not one shared
// table — so a Child loader's cache miss falls through to its parent's
// Load before trying its own search paths.
type Loader struct {
	kind   Kind
	parent *Loader

	searchPaths []string
	pool        *strpool.Pool
	log         *logrus.Entry

	cacheMu sync.RWMutex
	cache   map[string]*module.Module
	group   singleflight.Group

	hits, misses, evictions uint64
}

// New creates a loader of the given kind, optionally chained to parent
// for delegation (nil for the Bootstrap loader, which has no parent).
func New(kind Kind, parent *Loader, pool *strpool.Pool, opts ...Option) *Loader {
	l := &Loader{
		kind:   kind,
		parent: parent,
		pool:   pool,
		cache:  make(map[string]*module.Module),
		log:    logrus.WithFields(logrus.Fields{"component": "loader", "kind": kind}),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// NewChild creates a Child loader delegating to this one, e.g. to give
// a dynamically loaded plugin its own search path without polluting the
// parent's cache.
func (l *Loader) NewChild(opts ...Option) *Loader {
	return New(Child, l, l.pool, opts...)
}

func (l *Loader) cacheGet(path string) *module.Module {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return l.cache[path]
}

func (l *Loader) cachePut(path string, m *module.Module) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.cache[path] = m
}

func (l *Loader) cacheDelete(path string) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	delete(l.cache, path)
}

// CacheStats reports hit/miss/eviction counters (§4.6 "cache with
// hit/miss/eviction counters").
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

func (l *Loader) CacheStats() CacheStats {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return CacheStats{
		Hits:      atomic.LoadUint64(&l.hits),
		Misses:    atomic.LoadUint64(&l.misses),
		Evictions: atomic.LoadUint64(&l.evictions),
		Size:      len(l.cache),
	}
}

// Load resolves path from this loader's own cache, and on a miss
// delegates to the parent loader first (§4.6, §9 "module loader
// hierarchy"). A parent's ErrNotFound falls through
// to this loader's own search paths; any other parent error propagates
// unchanged, since that represents a real failure the parent already
// committed to, not an absence this loader should paper over.
func (l *Loader) Load(path string) (*module.Module, error) {
	if m := l.cacheGet(path); m != nil {
		atomic.AddUint64(&l.hits, 1)
		return m, nil
	}
	if l.parent != nil {
		m, err := l.parent.Load(path)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return l.loadLocal(path)
}

func (l *Loader) loadLocal(path string) (*module.Module, error) {
	if m := l.cacheGet(path); m != nil {
		atomic.AddUint64(&l.hits, 1)
		return m, nil
	}
	atomic.AddUint64(&l.misses, 1)

	v, err, _ := l.group.Do(path, func() (any, error) {
		// Re-check: another goroutine may have populated the cache while
		// this call waited to enter the singleflight section.
		if m := l.cacheGet(path); m != nil {
			return m, nil
		}

		absPath, resolveErr := l.resolve(path)
		if resolveErr != nil {
			return nil, resolveErr
		}

		m := module.New(path, absPath)
		m.SetState(module.Loading)
		// Publish before fully populating: a cyclic import resolving
		// this same path from within populate below must see this
		// partially-built module instead of recursing forever (§4.6
		// "cyclic-import handling").
		l.cachePut(path, m)

		if popErr := l.populate(m, absPath); popErr != nil {
			m.Err = popErr
			m.SetState(module.Errored)
			l.cacheDelete(path)
			atomic.AddUint64(&l.evictions, 1)
			l.log.WithError(popErr).WithField("path", path).Warn("module load failed")
			return nil, popErr
		}
		m.SetState(module.Loaded)
		l.log.WithField("path", path).Debug("module loaded")
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*module.Module), nil
}

// resolve turns a logical module path into a file on disk by walking
// the loader's search paths, trying both "<path>.sgc" (a compiled
// container) and "<path>/module.json" (a manifest-described package).
func (l *Loader) resolve(path string) (string, error) {
	for _, dir := range l.searchPaths {
		containerPath := filepath.Join(dir, path+".sgc")
		if fileExists(containerPath) {
			return containerPath, nil
		}
		manifestPath := filepath.Join(dir, path, "module.json")
		if fileExists(manifestPath) {
			return manifestPath, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "path %q", path)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (l *Loader) populate(m *module.Module, absPath string) error {
	if filepath.Base(absPath) == "module.json" {
		return l.populateFromManifest(m, absPath)
	}
	return l.populateFromContainer(m, absPath)
}

func (l *Loader) populateFromContainer(m *module.Module, absPath string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return errors.Wrap(err, "loader: opening container")
	}
	defer f.Close()
	return l.loadContainerInto(m, f)
}

func (l *Loader) loadContainerInto(m *module.Module, r io.Reader) error {
	c, err := container.Decode(r)
	if err != nil {
		return errors.Wrap(err, "loader: decoding container")
	}

	if natives, ok := c.Find(container.SectionNatives); ok && len(natives.Data) > 0 {
		if err := l.initNative(m, string(natives.Data)); err != nil {
			return err
		}
	}

	exports, ok := c.Find(container.SectionExports)
	if !ok {
		return nil
	}
	return l.decodeExports(m, exports.Data)
}

func (l *Loader) populateFromManifest(m *module.Module, manifestPath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return errors.Wrap(err, "loader: reading manifest")
	}
	man, err := module.ParseManifest(data)
	if err != nil {
		return errors.Wrap(err, "loader: parsing manifest")
	}
	if man.Main == "" {
		return fmt.Errorf("loader: manifest %q has no main entry", manifestPath)
	}
	mainPath := filepath.Join(filepath.Dir(manifestPath), man.Main)
	f, err := os.Open(mainPath)
	if err != nil {
		return errors.Wrap(err, "loader: opening manifest main entry")
	}
	defer f.Close()
	return l.loadContainerInto(m, f)
}
