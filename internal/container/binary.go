package container

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

type binarySubfield struct {
	name       string
	bitWidth   int
	hasDefault bool
	defaultVal uint64
}

// BinaryContainer packs named sub-fields MSB-first into a fixed-size run
// of bytes; the sum of sub-field bit widths must equal the container's
// declared byte length times 8 (checked by Verify, invoked when the
// builder closes the container).
type BinaryContainer struct {
	name           string
	declaredLength int // bytes
	subfields      []binarySubfield
}

// NewBinaryContainer builds an empty BinaryContainer of declaredLength
// bytes.
func NewBinaryContainer(name string, declaredLength int) *BinaryContainer {
	return &BinaryContainer{name: name, declaredLength: declaredLength}
}

// Add registers a bit-packed sub-field. def is used when no override is
// supplied at encode time; pass nil for "no default".
func (b *BinaryContainer) Add(name string, bitWidth int, def *uint64) {
	sf := binarySubfield{name: name, bitWidth: bitWidth}
	if def != nil {
		sf.hasDefault, sf.defaultVal = true, *def
	}
	b.subfields = append(b.subfields, sf)
}

// Verify checks that the declared sub-fields exactly fill the
// container's declared byte width.
func (b *BinaryContainer) Verify() error {
	total := 0
	for _, sf := range b.subfields {
		total += sf.bitWidth
	}
	want := b.declaredLength * 8
	if total != want {
		return fmt.Errorf("binary_container %q: sub-field bits sum to %d, want %d: %w", b.name, total, want, rammerrors.ErrSchemaError)
	}
	return nil
}

// SubfieldNames returns the names of this container's bit-packed
// sub-fields, used by message.Template.checkUnknown to validate
// overrides nested under a binary_container (e.g. "flags.bogus").
func (b *BinaryContainer) SubfieldNames() []string {
	names := make([]string, len(b.subfields))
	for i, sf := range b.subfields {
		names[i] = sf.name
	}
	return names
}

func (b *BinaryContainer) Name() string           { return b.name }
func (b *BinaryContainer) Kind() field.Kind       { return field.KindBinaryContainer }
func (b *BinaryContainer) StaticLen() (int, bool) { return b.declaredLength, true }

func (b *BinaryContainer) resolve(sf binarySubfield, ov *env.Values) (uint64, error) {
	if childOv, ok := ov.Child(sf.name); ok {
		if raw, ok := childOv.Leaf(); ok {
			return field.ParseUintLiteral(raw)
		}
	}
	if sf.hasDefault {
		return sf.defaultVal, nil
	}
	return 0, fmt.Errorf("binary_container %q: sub-field %q: no value supplied and no default: %w", b.name, sf.name, rammerrors.ErrSchemaError)
}

func (b *BinaryContainer) Encode(ov *env.Values, _ *field.Siblings) ([]byte, error) {
	buf := make([]byte, b.declaredLength)
	bitOffset := 0
	for _, sf := range b.subfields {
		v, err := b.resolve(sf, ov)
		if err != nil {
			return nil, err
		}
		writeBits(buf, bitOffset, sf.bitWidth, v)
		bitOffset += sf.bitWidth
	}
	return buf, nil
}

func (b *BinaryContainer) Decode(data []byte, offset int, _ *field.Siblings) (*field.Decoded, int, error) {
	if offset+b.declaredLength > len(data) {
		return nil, 0, fmt.Errorf("binary_container %q: need %d bytes at offset %d, have %d", b.name, b.declaredLength, offset, len(data))
	}
	raw := data[offset : offset+b.declaredLength]
	bitOffset := 0
	children := make([]*field.Decoded, 0, len(b.subfields))
	for _, sf := range b.subfields {
		v := readBits(raw, bitOffset, sf.bitWidth)
		bitOffset += sf.bitWidth
		children = append(children, field.NewLeaf(sf.name, field.KindUInt, minimalBigEndian(v, sf.bitWidth)))
	}
	out := make([]byte, b.declaredLength)
	copy(out, raw)
	return field.NewInterior(b.name, field.KindBinaryContainer, out, children), b.declaredLength, nil
}

// writeBits packs the low width bits of value into buf, MSB-first,
// starting at bitOffset.
func writeBits(buf []byte, bitOffset, width int, value uint64) {
	for i := 0; i < width; i++ {
		bit := (value >> uint(width-1-i)) & 1
		pos := bitOffset + i
		byteIdx, bitInByte := pos/8, pos%8
		if bit == 1 {
			buf[byteIdx] |= 1 << uint(7-bitInByte)
		}
	}
}

// readBits is the inverse of writeBits.
func readBits(data []byte, bitOffset, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		pos := bitOffset + i
		byteIdx, bitInByte := pos/8, pos%8
		bit := (data[byteIdx] >> uint(7-bitInByte)) & 1
		v = v<<1 | uint64(bit)
	}
	return v
}

// minimalBigEndian renders v as a big-endian byte slice wide enough to
// hold bitWidth bits.
func minimalBigEndian(v uint64, bitWidth int) []byte {
	n := (bitWidth + 7) / 8
	if n == 0 {
		n = 1
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
