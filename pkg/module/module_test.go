package module

import (
	"testing"

	"github.com/starling-lang/starling/pkg/value"
)

func TestDefineExportedIsVisibleToImporters(t *testing.T) {
	m := New("math", "/pkg/math")
	m.Define("square", value.Number(1), true)
	m.Define("internalHelper", value.Number(2), false)

	if _, ok := m.Export("internalHelper"); ok {
		t.Fatalf("expected a non-exported binding to be invisible via Export")
	}
	v, ok := m.Export("square")
	if !ok || v.AsNumber() != 1 {
		t.Fatalf("expected exported binding to be visible via Export")
	}

	if _, ok := m.Lookup("internalHelper"); !ok {
		t.Fatalf("expected private Lookup to see non-exported bindings")
	}
}

func TestExportedNamesPreservesDefinitionOrder(t *testing.T) {
	m := New("mod", "/pkg/mod")
	m.Define("b", value.Number(1), true)
	m.Define("a", value.Number(2), true)

	names := m.ExportedNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("expected export order [b a], got %v", names)
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"name": "math",
		"version": "1.0.0",
		"type": "library",
		"sources": ["math.sg"],
		"main": "math.sg",
		"dependencies": {"collections": "^1.0.0"}
	}`)

	man, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if man.Name != "math" || man.Main != "math.sg" {
		t.Fatalf("unexpected manifest: %+v", man)
	}
	if man.Dependencies["collections"] != "^1.0.0" {
		t.Fatalf("expected dependency recorded")
	}
}
