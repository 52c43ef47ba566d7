package loader

import "github.com/starling-lang/starling/pkg/strpool"

// Chain holds the standard four-loader hierarchy a VM bootstraps with
// (§4.6, §9): Bootstrap (the VM's own intrinsic/built-in modules),
// System (modules ambient to the whole installation, e.g. a
// standard-library search path), Application (the embedding program's
// own module tree), and a per-script Child loader an embedder can throw
// away between runs without disturbing the other three.
type Chain struct {
	Bootstrap  *Loader
	System     *Loader
	Application *Loader
}

// NewChain builds the standard delegation chain, searching
// systemPaths from the System loader and appPaths from the Application
// loader; the Bootstrap loader has no search paths of its own — guest
// code never resolves a bootstrap module by file path, only by name,
// via whatever intrinsic bindings the VM installs directly.
func NewChain(pool *strpool.Pool, systemPaths, appPaths []string) *Chain {
	bootstrap := New(Bootstrap, nil, pool)
	system := New(System, bootstrap, pool, WithSearchPath(systemPaths...))
	application := New(Application, system, pool, WithSearchPath(appPaths...))
	return &Chain{Bootstrap: bootstrap, System: system, Application: application}
}

// NewChild returns a Child loader delegating to the Application loader,
// suitable for one script run's throwaway module resolution.
func (c *Chain) NewChild(opts ...Option) *Loader {
	return c.Application.NewChild(opts...)
}
