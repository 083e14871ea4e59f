// Package container implements the composite field templates (spec C2):
// Struct, List, Union, and BinaryContainer. Each satisfies field.Field so
// that a container can appear anywhere a primitive field can, including
// nested inside another container.
package container

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// Struct is a fixed, heterogeneous sequence of children encoded in
// declaration order. An explicit declared length pads a short encoding
// with NUL or rejects an overlong one.
type Struct struct {
	name           string
	children       []field.Field
	hasLength      bool
	declaredLength int
}

// NewStruct builds an empty Struct. declaredLength <= 0 means "no
// explicit length": the struct's byte width is whatever its children
// produce.
func NewStruct(name string, declaredLength int) *Struct {
	s := &Struct{name: name}
	if declaredLength > 0 {
		s.hasLength, s.declaredLength = true, declaredLength
	}
	return s
}

// Add appends a child field in declaration order.
func (s *Struct) Add(child field.Field) { s.children = append(s.children, child) }

// Children returns this struct's fields in declaration order, used by
// message.Template.checkUnknown to validate overrides nested under a
// struct rather than only the struct's own top-level name.
func (s *Struct) Children() []field.Field { return s.children }

func (s *Struct) Name() string { return s.name }
func (s *Struct) Kind() field.Kind { return field.KindStruct }

func (s *Struct) StaticLen() (int, bool) {
	if s.hasLength {
		return s.declaredLength, true
	}
	total := 0
	for _, c := range s.children {
		n, ok := c.StaticLen()
		if !ok {
			return 0, false
		}
		total += n
	}
	return total, true
}

func (s *Struct) Encode(ov *env.Values, _ *field.Siblings) ([]byte, error) {
	sib := field.NewSiblings()
	var out []byte
	for _, c := range s.children {
		childOv, _ := ov.Child(c.Name())
		b, err := c.Encode(childOv, sib)
		if err != nil {
			return nil, fmt.Errorf("struct %q: field %q: %w", s.name, c.Name(), err)
		}
		sib.Set(c.Name(), beUint(b))
		out = append(out, b...)
	}
	if !s.hasLength {
		return out, nil
	}
	switch {
	case len(out) < s.declaredLength:
		padded := make([]byte, s.declaredLength)
		copy(padded, out)
		return padded, nil
	case len(out) > s.declaredLength:
		return nil, fmt.Errorf("struct %q: encoded size %d exceeds declared length %d: %w", s.name, len(out), s.declaredLength, rammerrors.ErrLengthMismatch)
	default:
		return out, nil
	}
}

func (s *Struct) Decode(data []byte, offset int, _ *field.Siblings) (*field.Decoded, int, error) {
	sib := field.NewSiblings()
	start := offset
	cur := offset
	var children []*field.Decoded
	for _, c := range s.children {
		d, n, err := c.Decode(data, cur, sib)
		if err != nil {
			return nil, 0, fmt.Errorf("struct %q: field %q: %w", s.name, c.Name(), err)
		}
		sib.Set(c.Name(), d.Int())
		children = append(children, d)
		cur += n
	}
	consumed := cur - start
	if s.hasLength && consumed < s.declaredLength {
		consumed = s.declaredLength
	}
	return field.NewInterior(s.name, field.KindStruct, data[start:start+consumed], children), consumed, nil
}

// beUint interprets raw as a big-endian unsigned integer, used to publish
// a just-encoded sibling's value for subsequent length references.
func beUint(raw []byte) uint64 {
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v
}
