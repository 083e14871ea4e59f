package field

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/length"
)

// PDU is the payload placeholder inside a header. It owns the length
// expression that ties a header field's value to the byte count of the
// message payload, but is never itself encoded or decoded: the Protocol
// and MessageTemplate own that behavior (spec §4.1, §4.3).
type PDU struct {
	length length.Length
}

// NewPDU builds a PDU field from its length expression, e.g. "length" or
// "length-4".
func NewPDU(expr string) (*PDU, error) {
	l, err := length.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("pdu: %w", err)
	}
	return &PDU{length: l}, nil
}

// Length returns the length expression binding this PDU to a header
// field.
func (p *PDU) Length() length.Length { return p.length }

func (p *PDU) Name() string           { return "" }
func (p *PDU) Kind() Kind             { return KindPDU }
func (p *PDU) StaticLen() (int, bool) { return 0, true }

func (p *PDU) Encode(*env.Values, *Siblings) ([]byte, error) {
	return nil, fmt.Errorf("pdu: not directly encodable, the protocol owns payload placement")
}

func (p *PDU) Decode([]byte, int, *Siblings) (*Decoded, int, error) {
	return nil, 0, fmt.Errorf("pdu: not directly decodable, the protocol owns payload placement")
}
