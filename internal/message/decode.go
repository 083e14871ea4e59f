package message

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// PayloadLength decodes only the header fields preceding the PDU from
// headerBytes (which must be exactly Protocol().HeaderLength() bytes)
// and resolves the PDU's length expression against them. Transport
// collaborators use this to learn how many more payload bytes to read
// off the wire before the rest of the message has arrived (spec.md §6).
func (t *Template) PayloadLength(headerBytes []byte) (int, error) {
	sib := field.NewSiblings()
	cur := 0
	for _, f := range t.proto.FieldsBeforePDU() {
		d, n, err := f.Decode(headerBytes, cur, sib)
		if err != nil {
			return 0, fmt.Errorf("message %q: header field %q: %w", t.name, f.Name(), err)
		}
		sib.Set(f.Name(), d.Int())
		cur += n
	}
	pdu, ok := t.proto.PDU()
	if !ok {
		return 0, nil
	}
	l := pdu.Length()
	if l.Static() {
		return l.Value(), nil
	}
	v, ok := sib.Get(l.Field())
	if !ok {
		return 0, fmt.Errorf("message %q: pdu length field %q unresolved: %w", t.name, l.Field(), rammerrors.ErrUnresolvedLengthReference)
	}
	solved := l.SolveValue(int(v))
	if solved < 0 {
		return 0, fmt.Errorf("message %q: pdu length resolved to %d: %w", t.name, solved, rammerrors.ErrMalformedLength)
	}
	return solved, nil
}

// Decode parses raw as a complete message: header fields up to and
// including the PDU, the PDU-length worth of payload bytes, then any
// header fields declared after the PDU. The transport collaborator
// (spec.md §6) is responsible for having read exactly this many bytes
// off the wire; Decode itself only re-slices a buffer already in hand.
func (t *Template) Decode(raw []byte) (*Message, error) {
	sib := field.NewSiblings()
	cur := 0
	var headerChildren []*field.Decoded
	for _, f := range t.proto.FieldsBeforePDU() {
		d, n, err := f.Decode(raw, cur, sib)
		if err != nil {
			return nil, fmt.Errorf("message %q: header field %q: %w", t.name, f.Name(), err)
		}
		sib.Set(f.Name(), d.Int())
		headerChildren = append(headerChildren, d)
		cur += n
	}

	payloadLen := 0
	if pdu, ok := t.proto.PDU(); ok {
		l := pdu.Length()
		if l.Static() {
			payloadLen = l.Value()
		} else {
			v, ok := sib.Get(l.Field())
			if !ok {
				return nil, fmt.Errorf("message %q: pdu length field %q unresolved: %w", t.name, l.Field(), rammerrors.ErrUnresolvedLengthReference)
			}
			payloadLen = l.SolveValue(int(v))
		}
	}
	if payloadLen < 0 {
		return nil, fmt.Errorf("message %q: pdu length resolved to %d: %w", t.name, payloadLen, rammerrors.ErrMalformedLength)
	}
	if cur+payloadLen > len(raw) {
		return nil, fmt.Errorf("message %q: need %d payload bytes at offset %d, have %d", t.name, payloadLen, cur, len(raw))
	}
	headerBeforeLen := cur
	payloadBytes := raw[cur : cur+payloadLen]
	cur += payloadLen

	payloadSib := field.NewSiblings()
	pcur := 0
	var payloadChildren []*field.Decoded
	for _, f := range t.payload {
		d, n, err := f.Decode(payloadBytes, pcur, payloadSib)
		if err != nil {
			return nil, fmt.Errorf("message %q: payload field %q: %w", t.name, f.Name(), err)
		}
		payloadSib.Set(f.Name(), d.Int())
		payloadChildren = append(payloadChildren, d)
		pcur += n
	}

	for _, f := range t.proto.FieldsAfterPDU() {
		d, n, err := f.Decode(raw, cur, sib)
		if err != nil {
			return nil, fmt.Errorf("message %q: header field %q: %w", t.name, f.Name(), err)
		}
		sib.Set(f.Name(), d.Int())
		headerChildren = append(headerChildren, d)
		cur += n
	}

	headerRaw := append(append([]byte{}, raw[:headerBeforeLen]...), raw[headerBeforeLen+payloadLen:cur]...)
	header := field.NewInterior("_header", field.KindStruct, headerRaw, headerChildren)
	root := field.NewInterior(t.name, field.KindStruct, raw[:cur], append([]*field.Decoded{header}, payloadChildren...))
	return &Message{name: t.name, protocol: t.proto.Name(), root: root, raw: raw[:cur]}, nil
}
