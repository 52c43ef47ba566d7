package value

import (
	"math"
	"testing"
)

func TestEqualNaNIsNeverEqual(t *testing.T) {
	nan := Number(math.NaN())
	if Equal(nan, nan) {
		t.Fatalf("expected NaN to compare unequal to itself")
	}
}

func TestEqualStringByIdentity(t *testing.T) {
	a := "foobar"
	b := "foobar"
	if Equal(String(&a), String(&b)) {
		t.Fatalf("expected distinct string pointers with equal contents to compare unequal")
	}
	if !Equal(String(&a), String(&a)) {
		t.Fatalf("expected the same string pointer to compare equal to itself")
	}
}

func TestEqualObjectByIdentity(t *testing.T) {
	a := NewObject(nil)
	b := NewObject(nil)
	if Equal(Object(a), Object(b)) {
		t.Fatalf("expected two distinct empty objects to compare unequal")
	}
	if !Equal(Object(a), Object(a)) {
		t.Fatalf("expected an object to equal itself")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil, false},
		{Bool(false), false},
		{Bool(true), true},
		{Number(0), true},
		{Number(0), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Fatalf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
	empty := ""
	if !String(&empty).Truthy() {
		t.Fatalf("expected the empty string to be truthy")
	}
}

func TestAsAccessorsPanicOnWrongTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected AsNumber on a Bool Value to panic")
		}
	}()
	Bool(true).AsNumber()
}
