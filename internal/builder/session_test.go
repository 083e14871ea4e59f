package builder

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

func newTestSession() *Session {
	return New(zap.NewNop().Sugar(), 8)
}

func mustUInt(t *testing.T, lengthBytes int, name string, def any) *field.UInt {
	t.Helper()
	f, err := field.NewUInt(lengthBytes, name, def, 0)
	if err != nil {
		t.Fatalf("NewUInt(%q): %v", name, err)
	}
	return f
}

// buildFooProtocolAndMessage drives the whole builder surface through
// the S1 fixture from spec.md §8: a protocol with a PDU, and a message
// with two payload fields, one of them inside a nested struct.
func buildFooProtocolAndMessage(t *testing.T, s *Session) {
	t.Helper()
	if err := s.StartProtocol("FooProtocol"); err != nil {
		t.Fatalf("StartProtocol: %v", err)
	}
	if err := s.AddField(mustUInt(t, 2, "msgId", 5)); err != nil {
		t.Fatalf("AddField msgId: %v", err)
	}
	if err := s.AddField(mustUInt(t, 2, "length", nil)); err != nil {
		t.Fatalf("AddField length: %v", err)
	}
	pdu, err := field.NewPDU("length-4")
	if err != nil {
		t.Fatalf("NewPDU: %v", err)
	}
	if err := s.AddField(pdu); err != nil {
		t.Fatalf("AddField pdu: %v", err)
	}
	if err := s.EndProtocol(); err != nil {
		t.Fatalf("EndProtocol: %v", err)
	}

	if err := s.NewMessage("FooRequest", "FooProtocol", nil); err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := s.AddField(mustUInt(t, 2, "field_1", 1)); err != nil {
		t.Fatalf("AddField field_1: %v", err)
	}
	if err := s.OpenStruct("inner", 0); err != nil {
		t.Fatalf("OpenStruct: %v", err)
	}
	if err := s.AddField(mustUInt(t, 2, "field_2", 2)); err != nil {
		t.Fatalf("AddField field_2: %v", err)
	}
	if err := s.CloseStruct(); err != nil {
		t.Fatalf("CloseStruct: %v", err)
	}
}

func TestSessionEncodesDefinedMessage(t *testing.T) {
	s := newTestSession()
	buildFooProtocolAndMessage(t, s)

	msg, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x05, 0x00, 0x08, 0x00, 0x01, 0x00, 0x02}
	if string(msg.Raw()) != string(want) {
		t.Fatalf("Raw() = % x, want % x", msg.Raw(), want)
	}
	if _, ok := s.Messages().Get("FooRequest"); !ok {
		t.Fatalf("expected FooRequest registered after Encode")
	}
}

func TestSessionOverridesClearAfterEncode(t *testing.T) {
	s := newTestSession()
	buildFooProtocolAndMessage(t, s)

	if err := s.Value("field_1", "9"); err != nil {
		t.Fatalf("Value: %v", err)
	}
	msg, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	f1, ok := msg.Get("field_1")
	if !ok || f1.Int() != 9 {
		t.Fatalf("field_1 = %v, ok=%v, want 9", f1, ok)
	}

	msg2, err := s.Encode()
	if err != nil {
		t.Fatalf("second Encode: %v", err)
	}
	f1Again, ok := msg2.Get("field_1")
	if !ok || f1Again.Int() != 1 {
		t.Fatalf("field_1 after clear = %v, ok=%v, want default 1", f1Again, ok)
	}
}

func TestSessionRejectsDoubleProtocolStart(t *testing.T) {
	s := newTestSession()
	if err := s.StartProtocol("P1"); err != nil {
		t.Fatalf("StartProtocol: %v", err)
	}
	if err := s.StartProtocol("P2"); !errors.Is(err, rammerrors.ErrProtocolInProgress) {
		t.Fatalf("StartProtocol(P2) = %v, want ErrProtocolInProgress", err)
	}
}

func TestSessionEncodeRejectsUnbalancedStack(t *testing.T) {
	s := newTestSession()
	buildFooProtocolAndMessage(t, s)
	if err := s.OpenStruct("unclosed", 0); err != nil {
		t.Fatalf("OpenStruct: %v", err)
	}
	if _, err := s.Encode(); !errors.Is(err, rammerrors.ErrUnbalancedContainers) {
		t.Fatalf("Encode() = %v, want ErrUnbalancedContainers", err)
	}
}

func TestSessionCloseWrongKindFails(t *testing.T) {
	s := newTestSession()
	buildFooProtocolAndMessage(t, s)
	if err := s.OpenList("items", "2"); err != nil {
		t.Fatalf("OpenList: %v", err)
	}
	if err := s.CloseStruct(); !errors.Is(err, rammerrors.ErrUnbalancedContainers) {
		t.Fatalf("CloseStruct() = %v, want ErrUnbalancedContainers", err)
	}
}

func TestSessionAddBitFieldRoutesToBinaryContainer(t *testing.T) {
	s := newTestSession()
	buildFooProtocolAndMessage(t, s)
	if err := s.OpenBinaryContainer("flags", 1); err != nil {
		t.Fatalf("OpenBinaryContainer: %v", err)
	}
	zero := uint64(0)
	if err := s.AddBitField("a", 4, &zero); err != nil {
		t.Fatalf("AddBitField a: %v", err)
	}
	def := uint64(3)
	if err := s.AddBitField("b", 4, &def); err != nil {
		t.Fatalf("AddBitField b: %v", err)
	}
	if err := s.CloseBinaryContainer(); err != nil {
		t.Fatalf("CloseBinaryContainer: %v", err)
	}

	msg, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	flags, ok := msg.Get("flags")
	if !ok {
		t.Fatalf("expected flags field")
	}
	if flags.Hex() != "0x03" {
		t.Fatalf("flags.Hex() = %q, want 0x03 (a defaults to 0, b defaults to 3)", flags.Hex())
	}
}

func TestSessionResetClosesRegistries(t *testing.T) {
	s := newTestSession()
	buildFooProtocolAndMessage(t, s)
	if _, err := s.Encode(); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok := s.Protocols().Get("FooProtocol"); ok {
		t.Fatalf("expected protocol registry purged after Reset")
	}
	if _, ok := s.Messages().Get("FooRequest"); ok {
		t.Fatalf("expected message registry purged after Reset")
	}
}
