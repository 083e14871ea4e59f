package container

import (
	"testing"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
)

func TestBinaryContainerVerifyChecksBitSum(t *testing.T) {
	b := NewBinaryContainer("flags", 1)
	b.Add("a", 3, nil)
	b.Add("b", 4, nil)
	if err := b.Verify(); err == nil {
		t.Fatalf("expected Verify error: 7 bits != 8")
	}
	b.Add("c", 1, nil)
	if err := b.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestBinaryContainerEncodeDecodeMSBFirst(t *testing.T) {
	b := NewBinaryContainer("flags", 1)
	b.Add("version", 4, nil)
	b.Add("reserved", 3, nil)
	b.Add("flag", 1, nil)
	if err := b.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	ov := env.New()
	_ = ov.Set("version", "9")
	_ = ov.Set("reserved", "0")
	_ = ov.Set("flag", "1")

	encoded, err := b.Encode(ov, field.NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := byte(0b1001_000_1)
	if encoded[0] != want {
		t.Fatalf("Encode()[0] = %08b, want %08b", encoded[0], want)
	}

	decoded, n, err := b.Decode(encoded, 0, field.NewSiblings())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != 1 {
		t.Fatalf("consumed = %d, want 1", n)
	}
	version, ok := decoded.Get("version")
	if !ok || version.Int() != 9 {
		t.Fatalf("version = %v, ok=%v", version, ok)
	}
	flag, ok := decoded.Get("flag")
	if !ok || flag.Int() != 1 {
		t.Fatalf("flag = %v, ok=%v", flag, ok)
	}
}

func TestBinaryContainerUsesDefaultWhenNoOverride(t *testing.T) {
	def := uint64(5)
	b := NewBinaryContainer("flags", 1)
	b.Add("a", 8, &def)

	encoded, err := b.Encode(env.New(), field.NewSiblings())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded[0] != 5 {
		t.Fatalf("encoded[0] = %d, want 5", encoded[0])
	}
}
