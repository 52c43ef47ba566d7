package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/starling-lang/starling/pkg/container"
	"github.com/starling-lang/starling/pkg/strpool"
	"github.com/starling-lang/starling/pkg/value"
)

func writeTestContainer(t *testing.T, dir, name string) string {
	t.Helper()
	pool := strpool.New()
	n := pool.Intern("value")

	exportsData, err := EncodeExports([]string{"value"}, []value.Value{value.String(n)})
	if err != nil {
		t.Fatalf("EncodeExports: %v", err)
	}

	var buf bytes.Buffer
	sections := []container.Section{
		{Type: container.SectionMetadata, Data: []byte(name)},
		{Type: container.SectionExports, Data: exportsData},
		{Type: container.SectionEnd},
	}
	if err := container.Encode(&buf, sections, 1); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	path := filepath.Join(dir, name+".sgc")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadResolvesFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeTestContainer(t, dir, "greeting")

	pool := strpool.New()
	l := New(Application, nil, pool, WithSearchPath(dir))

	m, err := l.Load("greeting")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, ok := m.Export("value")
	if !ok || *v.AsString() != "value" {
		t.Fatalf("expected exported value %q, got %v", "value", v)
	}
}

func TestLoadCachesSecondLookup(t *testing.T) {
	dir := t.TempDir()
	writeTestContainer(t, dir, "greeting")

	pool := strpool.New()
	l := New(Application, nil, pool, WithSearchPath(dir))

	first, err := l.Load("greeting")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := l.Load("greeting")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same *Module instance on cache hit")
	}

	stats := l.CacheStats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Fatalf("expected 1 miss and 1 hit, got %+v", stats)
	}
}

func TestLoadDelegatesToParentFirst(t *testing.T) {
	parentDir := t.TempDir()
	writeTestContainer(t, parentDir, "shared")

	pool := strpool.New()
	parent := New(System, nil, pool, WithSearchPath(parentDir))
	child := New(Application, parent, pool)

	m, err := child.Load("shared")
	if err != nil {
		t.Fatalf("expected Load to delegate to the parent's search path: %v", err)
	}
	if m.Path != "shared" {
		t.Fatalf("unexpected module: %+v", m)
	}
}

func TestLoadReportsNotFound(t *testing.T) {
	pool := strpool.New()
	l := New(Application, nil, pool, WithSearchPath(t.TempDir()))

	if _, err := l.Load("does-not-exist"); err == nil {
		t.Fatalf("expected an error for an unresolvable path")
	}
}
