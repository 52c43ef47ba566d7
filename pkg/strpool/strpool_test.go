package strpool

import "testing"

func TestInternReturnsSamePointerForEqualContents(t *testing.T) {
	p := New()

	a := p.Intern("foo" + "bar")
	b := p.Intern("foobar")

	if a != b {
		t.Fatalf("expected interned pointers to be identical, got %p and %p", a, b)
	}
	if *a != "foobar" {
		t.Fatalf("expected contents %q, got %q", "foobar", *a)
	}
}

func TestInternDistinctContentsGetDistinctPointers(t *testing.T) {
	p := New()

	a := p.Intern("alpha")
	b := p.Intern("beta")

	if a == b {
		t.Fatalf("expected distinct pointers for distinct contents")
	}
}

func TestHasDoesNotIntern(t *testing.T) {
	p := New()

	if p.Has("never-interned") {
		t.Fatalf("expected Has to report false before Intern is called")
	}
	if p.Len() != 0 {
		t.Fatalf("expected Len 0 before any Intern call, got %d", p.Len())
	}

	p.Intern("now-interned")
	if !p.Has("now-interned") {
		t.Fatalf("expected Has to report true after Intern")
	}
	if p.Len() != 1 {
		t.Fatalf("expected Len 1, got %d", p.Len())
	}
}
