package field

import (
	"bytes"
	"testing"

	"github.com/kvemir/rammbock/internal/env"
)

func TestUIntStaticField(t *testing.T) {
	f, err := NewUInt(5, "field", 8, 0)
	if err != nil {
		t.Fatalf("NewUInt: %v", err)
	}
	n, ok := f.StaticLen()
	if !ok || n != 5 {
		t.Fatalf("StaticLen() = (%d, %v), want (5, true)", n, ok)
	}
	if f.Name() != "field" {
		t.Fatalf("Name() = %q", f.Name())
	}
	if f.Kind() != KindUInt {
		t.Fatalf("Kind() = %v", f.Kind())
	}
	def, ok := f.DefaultValue()
	if !ok || def != "8" {
		t.Fatalf("DefaultValue() = (%q, %v)", def, ok)
	}
}

func TestUIntEncodeDecodeRoundTrip(t *testing.T) {
	f, err := NewUInt(2, "field_1", nil, 0)
	if err != nil {
		t.Fatalf("NewUInt: %v", err)
	}
	ov := env.New()
	if err := ov.Set("field_1", "1024"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	fieldOv, _ := ov.Child("field_1")
	encoded, err := f.Encode(fieldOv, NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x04, 0x00}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("Encode() = % x, want % x", encoded, want)
	}

	decoded, n, err := f.Decode(encoded, 0, NewSiblings())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != 2 {
		t.Fatalf("consumed = %d, want 2", n)
	}
	if decoded.Int() != 1024 {
		t.Fatalf("Int() = %d, want 1024", decoded.Int())
	}
	if decoded.Hex() != "0x0400" {
		t.Fatalf("Hex() = %q, want 0x0400", decoded.Hex())
	}
}

func TestUIntMissingValueErrors(t *testing.T) {
	f, err := NewUInt(2, "field", nil, 0)
	if err != nil {
		t.Fatalf("NewUInt: %v", err)
	}
	if _, err := f.Encode(nil, NewSiblings()); err == nil {
		t.Fatalf("expected error for missing value and default")
	}
}

func TestUIntAlignmentPadsHighAddress(t *testing.T) {
	f, err := NewUInt(2, "field", 1, 4)
	if err != nil {
		t.Fatalf("NewUInt: %v", err)
	}
	encoded, err := f.Encode(nil, NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("Encode() = % x, want % x", encoded, want)
	}
}

func TestNewUIntRejectsBadLength(t *testing.T) {
	if _, err := NewUInt(0, "field", nil, 0); err == nil {
		t.Fatalf("expected schema error for zero length")
	}
}

func TestNewUIntRejectsSmallAlign(t *testing.T) {
	if _, err := NewUInt(4, "field", nil, 2); err == nil {
		t.Fatalf("expected schema error for align < length")
	}
}
