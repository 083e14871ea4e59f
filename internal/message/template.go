// Package message implements the MessageTemplate (spec C4) and the
// EncodedMessage value it produces (spec C5).
package message

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/protocol"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// Template binds a payload schema to a Protocol. Names are unique
// within the payload root; nested containers may reuse names,
// addressed by dotted path.
type Template struct {
	name      string
	proto     *protocol.Protocol
	payload   []field.Field
	byName    map[string]field.Field
	headerDef *env.Values // header-field overrides supplied at construction
}

// New builds a Template bound to proto. headerOverrides is the optional
// mapping of header-field overrides fixed at template construction
// (spec.md §3 MessageTemplate); pass env.New() for none.
func New(name string, proto *protocol.Protocol, headerOverrides *env.Values) *Template {
	if headerOverrides == nil {
		headerOverrides = env.New()
	}
	return &Template{name: name, proto: proto, byName: map[string]field.Field{}, headerDef: headerOverrides}
}

// Name returns the template's registry name.
func (t *Template) Name() string { return t.name }

// Protocol returns the bound Protocol.
func (t *Template) Protocol() *protocol.Protocol { return t.proto }

// Add appends a payload field in declaration order.
func (t *Template) Add(f field.Field) {
	t.payload = append(t.payload, f)
	if f.Name() != "" {
		t.byName[f.Name()] = f
	}
}

// Encode resolves payloadValues ∪ template defaults into payload bytes,
// resolves header bytes (header overrides taking precedence over the
// template's own header defaults, taking precedence over the protocol
// field's own default), auto-fills the PDU's length-bearing header
// field, and returns the assembled EncodedMessage.
//
// Encode is fatal on the first error, per spec.md §4.4.
func (t *Template) Encode(payloadValues *env.Values, headerOverrides *env.Values) (*Message, error) {
	if payloadValues == nil {
		payloadValues = env.New()
	}
	if headerOverrides == nil {
		headerOverrides = env.New()
	}
	if err := t.checkUnknown(payloadValues); err != nil {
		return nil, err
	}

	payloadBytes, payloadChildren, err := t.encodePayload(payloadValues)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", t.name, err)
	}

	headerBefore, headerAfter, headerChildren, err := t.encodeHeader(headerOverrides, len(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", t.name, err)
	}

	raw := append(append(append([]byte{}, headerBefore...), payloadBytes...), headerAfter...)
	header := field.NewInterior("_header", field.KindStruct, append(append([]byte{}, headerBefore...), headerAfter...), headerChildren)
	root := field.NewInterior(t.name, field.KindStruct, raw, append([]*field.Decoded{header}, payloadChildren...))
	return &Message{name: t.name, protocol: t.proto.Name(), root: root, raw: raw}, nil
}

// namedChildren is satisfied by the container kinds whose members have
// their own names (Struct, Union) and can therefore hold a nested
// unknown-field typo such as "inner.bogus".
type namedChildren interface {
	Children() []field.Field
}

// indexedElement is satisfied by List: its override keys are indices,
// not names, but every index shares the same element template.
type indexedElement interface {
	Element() field.Field
}

// namedSubfields is satisfied by BinaryContainer: its bit-packed members
// aren't field.Field values, just names, so they get their own leaf-only
// check instead of a recursive one.
type namedSubfields interface {
	SubfieldNames() []string
}

// checkUnknown rejects any key in values that does not name a payload
// field, walking into known containers so a nested typo under a known
// struct/union/list (e.g. "inner.bogus") is caught too, not just a
// top-level one (spec.md §4.4 step 1 / §8 invariant 6).
func (t *Template) checkUnknown(values *env.Values) error {
	return checkUnknownFields(t.name, t.byName, values)
}

func checkUnknownFields(msgName string, byName map[string]field.Field, values *env.Values) error {
	for _, k := range values.Keys() {
		f, ok := byName[k]
		if !ok {
			return fmt.Errorf("message %q: field %q: %w", msgName, k, rammerrors.ErrUnknownField)
		}
		child, _ := values.Child(k)
		if child == nil {
			continue
		}
		if nc, ok := f.(namedChildren); ok {
			if err := checkUnknownFields(msgName, childrenByName(nc.Children()), child); err != nil {
				return err
			}
		}
		if ie, ok := f.(indexedElement); ok {
			if elem, ok := ie.Element().(namedChildren); ok {
				for _, i := range child.IndexKeys() {
					idxChild, _ := child.Index(i)
					if idxChild == nil {
						continue
					}
					if err := checkUnknownFields(msgName, childrenByName(elem.Children()), idxChild); err != nil {
						return err
					}
				}
			}
		}
		if ns, ok := f.(namedSubfields); ok {
			if err := checkUnknownLeafNames(msgName, ns.SubfieldNames(), child); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkUnknownLeafNames is checkUnknownFields for a container whose
// members are plain names with no further nesting of their own
// (BinaryContainer's bit sub-fields).
func checkUnknownLeafNames(msgName string, names []string, values *env.Values) error {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, k := range values.Keys() {
		if !known[k] {
			return fmt.Errorf("message %q: field %q: %w", msgName, k, rammerrors.ErrUnknownField)
		}
	}
	return nil
}

func childrenByName(fields []field.Field) map[string]field.Field {
	m := make(map[string]field.Field, len(fields))
	for _, f := range fields {
		if f.Name() != "" {
			m[f.Name()] = f
		}
	}
	return m
}

func (t *Template) encodePayload(values *env.Values) ([]byte, []*field.Decoded, error) {
	sib := field.NewSiblings()
	var out []byte
	var children []*field.Decoded
	offset := 0
	for _, f := range t.payload {
		childOv, _ := values.Child(f.Name())
		b, err := f.Encode(childOv, sib)
		if err != nil {
			return nil, nil, fmt.Errorf("payload field %q: %w", f.Name(), err)
		}
		d, _, derr := f.Decode(b, 0, sib)
		if derr != nil {
			return nil, nil, fmt.Errorf("payload field %q: re-decode after encode: %w", f.Name(), derr)
		}
		sib.Set(f.Name(), beUint(b))
		children = append(children, d)
		out = append(out, b...)
		offset += len(b)
	}
	return out, children, nil
}

// encodeHeader returns the header bytes before the PDU, the header
// bytes after the PDU (e.g. a trailing checksum), and the decoded
// header field tree.
func (t *Template) encodeHeader(overrides *env.Values, payloadLen int) ([]byte, []byte, []*field.Decoded, error) {
	pdu, hasPDU := t.proto.PDU()
	var lengthFieldName string
	if hasPDU && !pdu.Length().Static() {
		lengthFieldName = pdu.Length().Field()
	}

	sib := field.NewSiblings()
	var before, after []byte
	var children []*field.Decoded
	seenPDU := false
	for _, f := range t.proto.Fields() {
		if _, ok := f.(*field.PDU); ok {
			seenPDU = true
			continue
		}
		ov := t.resolveHeaderOv(f.Name(), overrides)
		if f.Name() == lengthFieldName {
			ov = env.Literal(fmt.Sprintf("%d", pdu.Length().SolveParameter(payloadLen)))
		}
		b, err := f.Encode(ov, sib)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("header field %q: %w", f.Name(), err)
		}
		d, _, derr := f.Decode(b, 0, sib)
		if derr != nil {
			return nil, nil, nil, fmt.Errorf("header field %q: re-decode after encode: %w", f.Name(), derr)
		}
		sib.Set(f.Name(), beUint(b))
		children = append(children, d)
		if seenPDU {
			after = append(after, b...)
		} else {
			before = append(before, b...)
		}
	}
	return before, after, children, nil
}

func (t *Template) resolveHeaderOv(name string, callOverrides *env.Values) *env.Values {
	if ov, ok := callOverrides.Child(name); ok {
		return ov
	}
	if ov, ok := t.headerDef.Child(name); ok {
		return ov
	}
	return nil
}

func beUint(raw []byte) uint64 {
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v
}
