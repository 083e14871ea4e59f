// Package protocol implements the Protocol template (spec C3): an
// ordered header schema that resolves its own byte length and validates
// where the PDU payload placeholder sits within it.
package protocol

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// Protocol is an ordered sequence of header fields, at most one of
// which is a field.PDU. It is mutable during Add calls and immutable
// once Close is invoked by the builder.
type Protocol struct {
	name   string
	fields []field.Field
	byName map[string]field.Field
	pdu    *field.PDU
	pduIdx int // index of the PDU in fields, -1 if absent
	closed bool
}

// New returns an empty, open Protocol.
func New(name string) *Protocol {
	return &Protocol{name: name, byName: map[string]field.Field{}, pduIdx: -1}
}

// Name returns the protocol's registry name.
func (p *Protocol) Name() string { return p.name }

// Fields returns the header fields in declaration order.
func (p *Protocol) Fields() []field.Field { return p.fields }

// PDU returns the protocol's PDU field, if one has been added.
func (p *Protocol) PDU() (*field.PDU, bool) { return p.pdu, p.pdu != nil }

// Add appends a header field, enforcing the Protocol invariants:
//   - a PDU's length expression must reference a field already declared
//     with a static byte length (forward references are rejected);
//   - at most one PDU per protocol.
func (p *Protocol) Add(f field.Field) error {
	if p.closed {
		return fmt.Errorf("protocol %q: add after close: %w", p.name, rammerrors.ErrSchemaError)
	}
	if pdu, ok := f.(*field.PDU); ok {
		if p.pdu != nil {
			return fmt.Errorf("protocol %q: second PDU added: %w", p.name, rammerrors.ErrDuplicatePDU)
		}
		l := pdu.Length()
		if !l.Static() {
			ref, ok := p.byName[l.Field()]
			if !ok {
				return fmt.Errorf("protocol %q: pdu length references undeclared field %q: %w", p.name, l.Field(), rammerrors.ErrUnresolvedLengthReference)
			}
			if _, ok := ref.StaticLen(); !ok {
				return fmt.Errorf("protocol %q: pdu length field %q has no static length: %w", p.name, l.Field(), rammerrors.ErrUnresolvedLengthReference)
			}
		}
		p.pdu = pdu
		p.pduIdx = len(p.fields)
	}
	if f.Name() != "" {
		p.byName[f.Name()] = f
	}
	p.fields = append(p.fields, f)
	return nil
}

// Close marks the protocol immutable; further Add calls return an
// error. Idempotent.
func (p *Protocol) Close() { p.closed = true }

// HeaderLength returns the sum of static byte widths of header fields up
// to and including the PDU (which itself contributes zero), or of all
// header fields if no PDU was declared.
func (p *Protocol) HeaderLength() int {
	total := 0
	for i, f := range p.fields {
		if n, ok := f.StaticLen(); ok {
			total += n
		}
		if p.pdu != nil && i == p.pduIdx {
			break
		}
	}
	return total
}

// Field looks up a header field by name.
func (p *Protocol) Field(name string) (field.Field, bool) {
	f, ok := p.byName[name]
	return f, ok
}

// FieldsBeforePDU returns the header fields preceding the PDU (or all
// fields, if there is no PDU).
func (p *Protocol) FieldsBeforePDU() []field.Field {
	if p.pdu == nil {
		return p.fields
	}
	return p.fields[:p.pduIdx]
}

// FieldsAfterPDU returns the header fields declared after the PDU (e.g.
// a trailing checksum); empty if there is no PDU or nothing follows it.
func (p *Protocol) FieldsAfterPDU() []field.Field {
	if p.pdu == nil {
		return nil
	}
	return p.fields[p.pduIdx+1:]
}

// TrailingHeaderLength is the sum of static byte widths of the header
// fields declared after the PDU (e.g. a trailing checksum). Transport
// collaborators use this, together with HeaderLength and the PDU's
// resolved payload length, to know exactly how many bytes make up one
// complete message on the wire.
func (p *Protocol) TrailingHeaderLength() int {
	total := 0
	for _, f := range p.FieldsAfterPDU() {
		if n, ok := f.StaticLen(); ok {
			total += n
		}
	}
	return total
}
