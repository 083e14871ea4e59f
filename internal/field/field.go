// Package field implements the fixed-width atomic fields (spec C1: UInt,
// Char, PDU) and the closed Field capability set that both they and the
// container templates in package container satisfy. Every variant carries
// a Kind tag from a closed set; encode and decode are methods of the Field
// interface.
package field

import (
	"encoding/hex"
	"strings"

	"github.com/kvemir/rammbock/internal/env"
)

// Kind tags the closed sum of field variants.
type Kind uint8

const (
	KindUInt Kind = iota
	KindChar
	KindPDU
	KindStruct
	KindList
	KindUnion
	KindBinaryContainer
)

func (k Kind) String() string {
	switch k {
	case KindUInt:
		return "uint"
	case KindChar:
		return "chars"
	case KindPDU:
		return "pdu"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindUnion:
		return "union"
	case KindBinaryContainer:
		return "binary_container"
	default:
		return "unknown"
	}
}

// Siblings is the per-container resolution context: the integer value of
// each field already encoded/decoded at the same nesting level, used to
// resolve length references such as a List's named size field.
type Siblings struct {
	values map[string]uint64
}

// NewSiblings returns an empty sibling context for one container level.
func NewSiblings() *Siblings {
	return &Siblings{values: map[string]uint64{}}
}

// Get looks up a previously recorded sibling's integer value.
func (s *Siblings) Get(name string) (uint64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Set records a field's resolved integer value for later siblings.
func (s *Siblings) Set(name string, v uint64) {
	s.values[name] = v
}

// Field is the capability set shared by atomic fields and containers:
// a name, a type tag, a way to report a length that doesn't depend on a
// resolution environment (when one exists), and symmetric encode/decode.
type Field interface {
	Name() string
	Kind() Kind

	// StaticLen reports this field's byte length when it can be computed
	// without an environment (every field except a List whose size names
	// another field, and a container holding such a List; a PDU reports
	// 0). ok is false when the length is dynamic.
	StaticLen() (n int, ok bool)

	// Encode renders this field's bytes. ov is this field's own override
	// subtree (nil if none was supplied), sib is the sibling context of
	// the container this field lives in.
	Encode(ov *env.Values, sib *Siblings) ([]byte, error)

	// Decode parses this field starting at data[offset:]. It returns the
	// decoded value tree and the number of bytes consumed.
	Decode(data []byte, offset int, sib *Siblings) (*Decoded, int, error)
}

// Decoded is one node of the EncodedMessage value tree (spec C5): every
// leaf exposes int/hex/raw views of the same bytes, every interior node
// exposes its children by name or list index.
type Decoded struct {
	Name     string
	Kind     Kind
	Bytes    []byte
	Children []*Decoded

	byName map[string]*Decoded
}

// NewLeaf builds a decoded leaf field (UInt/Char) from its raw bytes.
func NewLeaf(name string, kind Kind, raw []byte) *Decoded {
	return &Decoded{Name: name, Kind: kind, Bytes: raw}
}

// NewInterior builds a decoded container node with its own concatenated
// bytes and its already-decoded children.
func NewInterior(name string, kind Kind, raw []byte, children []*Decoded) *Decoded {
	d := &Decoded{Name: name, Kind: kind, Bytes: raw, Children: children}
	d.indexChildren()
	return d
}

func (d *Decoded) indexChildren() {
	d.byName = make(map[string]*Decoded, len(d.Children))
	for _, c := range d.Children {
		if c.Name != "" {
			d.byName[c.Name] = c
		}
	}
}

// Int renders this leaf's bytes as a big-endian unsigned integer.
func (d *Decoded) Int() uint64 {
	var v uint64
	for _, b := range d.Bytes {
		v = v<<8 | uint64(b)
	}
	return v
}

// Hex renders this leaf's bytes as a lower-case "0x..." string.
func (d *Decoded) Hex() string {
	return "0x" + hex.EncodeToString(d.Bytes)
}

// Raw returns the leaf's own bytes.
func (d *Decoded) Raw() []byte {
	return d.Bytes
}

// Str renders a Char field's bytes with trailing NUL padding stripped.
func (d *Decoded) Str() string {
	return strings.TrimRight(string(d.Bytes), "\x00")
}

// Index returns the i'th element of a decoded List.
func (d *Decoded) Index(i int) (*Decoded, bool) {
	if i < 0 || i >= len(d.Children) {
		return nil, false
	}
	return d.Children[i], true
}

// Get resolves a dotted/indexed path ("outer.inner", "list[0].field")
// against this node's children.
func (d *Decoded) Get(path string) (*Decoded, bool) {
	cur := d
	for _, seg := range env.Segments(path) {
		if strings.HasPrefix(seg, "#") {
			idx, err := strIndex(seg)
			if err != nil {
				return nil, false
			}
			next, ok := cur.Index(idx)
			if !ok {
				return nil, false
			}
			cur = next
			continue
		}
		if cur.byName == nil {
			return nil, false
		}
		next, ok := cur.byName[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func strIndex(seg string) (int, error) {
	n := 0
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return 0, errNotIndex
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errNotIndex = &indexParseError{}

type indexParseError struct{}

func (*indexParseError) Error() string { return "field: not an index segment" }
