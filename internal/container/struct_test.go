package container

import (
	"testing"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
)

func mustUInt(t *testing.T, lengthBytes int, name string, def any) *field.UInt {
	t.Helper()
	f, err := field.NewUInt(lengthBytes, name, def, 0)
	if err != nil {
		t.Fatalf("NewUInt(%q): %v", name, err)
	}
	return f
}

func TestStructEncodeConcatenatesChildren(t *testing.T) {
	s := NewStruct("body", 0)
	s.Add(mustUInt(t, 2, "field_1", 1))
	s.Add(mustUInt(t, 2, "field_2", 2))

	encoded, err := s.Encode(env.New(), field.NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x02}
	if string(encoded) != string(want) {
		t.Fatalf("Encode() = % x, want % x", encoded, want)
	}
}

func TestStructPadsToDeclaredLength(t *testing.T) {
	s := NewStruct("body", 6)
	s.Add(mustUInt(t, 2, "field_1", 1))

	encoded, err := s.Encode(env.New(), field.NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(encoded) != 6 {
		t.Fatalf("len(Encode()) = %d, want 6", len(encoded))
	}
}

func TestStructRejectsOverlongEncoding(t *testing.T) {
	s := NewStruct("body", 2)
	s.Add(mustUInt(t, 4, "field_1", 1))

	if _, err := s.Encode(env.New(), field.NewSiblings()); err == nil {
		t.Fatalf("expected ErrLengthMismatch")
	}
}

func TestStructDecodeRoundTrip(t *testing.T) {
	s := NewStruct("body", 0)
	s.Add(mustUInt(t, 2, "field_1", nil))
	s.Add(mustUInt(t, 2, "field_2", nil))

	ov := env.New()
	_ = ov.Set("field_1", "1024")
	_ = ov.Set("field_2", "2")
	encoded, err := s.Encode(ov, field.NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, n, err := s.Decode(encoded, 0, field.NewSiblings())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed = %d, want %d", n, len(encoded))
	}
	f1, ok := decoded.Get("field_1")
	if !ok || f1.Int() != 1024 {
		t.Fatalf("field_1 = %v, ok=%v", f1, ok)
	}
}
