// Package strpool implements the VM's string-interning pool (spec §4.1):
// every guest string literal and every string produced by a string
// opcode is canonicalized here first, so that two guest strings with
// identical contents end up sharing one Go string header and compare
// equal by pointer — the basis for value.Equal's pointer-identity string
// comparison and for the O(1) "same string" check the dispatcher needs
// on every string-keyed property access.
package strpool

import (
	"sync"

	"github.com/dolthub/swiss"
)

// Pool is safe for concurrent use: multiple loader goroutines may intern
// module-level string constants while user code on the VM's own
// goroutine interns literals, so lookups and insertions are guarded by
// an RWMutex rather than assumed single-threaded.
type Pool struct {
	mu    sync.RWMutex
	table *swiss.Map[string, *string]
}

func New() *Pool {
	return &Pool{table: swiss.NewMap[string, *string](64)}
}

// Intern returns the canonical *string for s, allocating and recording
// one the first time s's contents are seen. Subsequent calls with equal
// contents return the exact same pointer (§4.1 "chained bucket on
// miss" — the miss path here is the double-checked write-lock insert).
func (p *Pool) Intern(s string) *string {
	p.mu.RLock()
	if canon, ok := p.table.Get(s); ok {
		p.mu.RUnlock()
		return canon
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if canon, ok := p.table.Get(s); ok {
		return canon
	}
	canon := new(string)
	*canon = s
	p.table.Put(s, canon)
	return canon
}

// Has reports whether s has already been interned, without interning it.
func (p *Pool) Has(s string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.table.Get(s)
	return ok
}

// Len returns the number of distinct interned strings, surfaced for
// diagnostics and tests.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int(p.table.Count())
}
