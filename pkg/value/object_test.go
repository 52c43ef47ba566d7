package value

import "testing"

func TestObjectPrototypeLookup(t *testing.T) {
	proto := NewObject(nil)
	proto.Set("greet", Number(1))

	child := NewObject(proto)
	if !child.Has("greet") {
		t.Fatalf("expected child to find greet via prototype chain")
	}
	if child.HasOwn("greet") {
		t.Fatalf("expected greet to not be an own property of child")
	}

	child.Set("greet", Number(2))
	v, ok := child.GetOwn("greet")
	if !ok || v.AsNumber() != 2 {
		t.Fatalf("expected own greet to shadow prototype's greet")
	}
	protoVal, _ := proto.GetOwn("greet")
	if protoVal.AsNumber() != 1 {
		t.Fatalf("expected prototype's own greet to be unaffected by child's Set")
	}
}

func TestObjectInsertionOrderPreserved(t *testing.T) {
	o := NewObject(nil)
	o.Set("b", Number(2))
	o.Set("a", Number(1))
	o.Set("c", Number(3))

	var order []string
	o.Each(func(key string, v Value) { order = append(order, key) })

	want := []string{"b", "a", "c"}
	if len(order) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected key order %v, got %v", want, order)
		}
	}
}

func TestArrayPushAndLength(t *testing.T) {
	a := NewArray(nil)
	a.Push(Number(10))
	a.Push(Number(20))

	if a.Length() != 2 {
		t.Fatalf("expected length 2, got %d", a.Length())
	}
	v, ok := a.At(1)
	if !ok || v.AsNumber() != 20 {
		t.Fatalf("expected element 1 to be 20")
	}
	if _, ok := a.At(5); ok {
		t.Fatalf("expected out-of-range At to report false")
	}
}

func TestArrayEachElementAscending(t *testing.T) {
	a := NewArray(nil)
	for i := 0; i < 5; i++ {
		a.Push(Number(float64(i)))
	}
	var seen []int
	a.EachElement(func(i int, v Value) { seen = append(seen, i) })
	for i, got := range seen {
		if got != i {
			t.Fatalf("expected ascending indices, got %v", seen)
		}
	}
}
