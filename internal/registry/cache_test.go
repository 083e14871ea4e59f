package registry

import (
	"errors"
	"testing"
)

func TestPutGetHas(t *testing.T) {
	c, err := New[int]("widget", 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if !c.Has("a") {
		t.Fatalf("Has(a) = false")
	}
	if c.Has("b") {
		t.Fatalf("Has(b) = true")
	}
}

func TestRequireAbsent(t *testing.T) {
	c, err := New[int]("widget", 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sentinel := errors.New("duplicate")
	if err := c.RequireAbsent("a", sentinel); err != nil {
		t.Fatalf("RequireAbsent(a) = %v, want nil", err)
	}
	c.Put("a", 1)
	if err := c.RequireAbsent("a", sentinel); !errors.Is(err, sentinel) {
		t.Fatalf("RequireAbsent(a) = %v, want wrapped sentinel", err)
	}
}

func TestPurgeAndRemove(t *testing.T) {
	c, err := New[int]("widget", 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put("a", 1)
	c.Put("b", 2)
	c.Remove("a")
	if c.Has("a") {
		t.Fatalf("Has(a) after Remove = true")
	}
	c.Purge()
	if len(c.Keys()) != 0 {
		t.Fatalf("Keys() after Purge = %v, want empty", c.Keys())
	}
}
