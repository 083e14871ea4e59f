package protocol

import (
	"errors"
	"testing"

	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

func mustUInt(t *testing.T, lengthBytes int, name string, def any) *field.UInt {
	t.Helper()
	f, err := field.NewUInt(lengthBytes, name, def, 0)
	if err != nil {
		t.Fatalf("NewUInt(%q): %v", name, err)
	}
	return f
}

// TestHeaderLengthUpToAndIncludingPDU is spec.md invariant 1 / S1.
func TestHeaderLengthUpToAndIncludingPDU(t *testing.T) {
	p := New("Foo")
	if err := p.Add(mustUInt(t, 2, "msgId", 5)); err != nil {
		t.Fatalf("Add msgId: %v", err)
	}
	if err := p.Add(mustUInt(t, 2, "length", nil)); err != nil {
		t.Fatalf("Add length: %v", err)
	}
	pdu, err := field.NewPDU("length-4")
	if err != nil {
		t.Fatalf("NewPDU: %v", err)
	}
	if err := p.Add(pdu); err != nil {
		t.Fatalf("Add pdu: %v", err)
	}
	if got, want := p.HeaderLength(), 4; got != want {
		t.Fatalf("HeaderLength() = %d, want %d", got, want)
	}
}

// TestHeaderLengthExcludesTrailingFields resolves the spec's Open
// Question: fields declared after the PDU (e.g. a trailing checksum)
// are permitted but do not count toward HeaderLength.
func TestHeaderLengthExcludesTrailingFields(t *testing.T) {
	p := New("Foo")
	_ = p.Add(mustUInt(t, 2, "msgId", 5))
	_ = p.Add(mustUInt(t, 2, "length", nil))
	pdu, _ := field.NewPDU("length-4")
	_ = p.Add(pdu)
	_ = p.Add(mustUInt(t, 2, "checksum", 0))

	if got, want := p.HeaderLength(), 4; got != want {
		t.Fatalf("HeaderLength() = %d, want %d (trailing checksum must be excluded)", got, want)
	}
}

// TestAddRejectsForwardReference is spec.md invariant 2 / S4.
func TestAddRejectsForwardReference(t *testing.T) {
	p := New("Foo")
	_ = p.Add(mustUInt(t, 1, "uint1", nil))
	_ = p.Add(mustUInt(t, 2, "length", 5))
	pdu, _ := field.NewPDU("notdeclared")
	err := p.Add(pdu)
	if err == nil || !errors.Is(err, rammerrors.ErrUnresolvedLengthReference) {
		t.Fatalf("Add() = %v, want ErrUnresolvedLengthReference", err)
	}
}

func TestAddRejectsSecondPDU(t *testing.T) {
	p := New("Foo")
	_ = p.Add(mustUInt(t, 2, "length", nil))
	pdu1, _ := field.NewPDU("length")
	if err := p.Add(pdu1); err != nil {
		t.Fatalf("Add pdu1: %v", err)
	}
	pdu2, _ := field.NewPDU("length")
	err := p.Add(pdu2)
	if err == nil || !errors.Is(err, rammerrors.ErrDuplicatePDU) {
		t.Fatalf("Add() = %v, want ErrDuplicatePDU", err)
	}
}

func TestHeaderLengthWithNoPDU(t *testing.T) {
	p := New("Foo")
	_ = p.Add(mustUInt(t, 1, "a", 0))
	_ = p.Add(mustUInt(t, 2, "b", 5))
	if got, want := p.HeaderLength(), 3; got != want {
		t.Fatalf("HeaderLength() = %d, want %d", got, want)
	}
}
