package field

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// UInt is an unsigned big-endian integer field of a fixed byte width,
// optionally zero-padded on the high-address side out to an alignment
// boundary.
type UInt struct {
	name        string
	lengthBytes int
	align       int // 0 means "same as lengthBytes"
	hasDefault  bool
	defaultStr  string
}

// NewUInt builds a UInt field. def is nil (no default; a value must be
// supplied at encode time), an int, or a decimal/hex string. align, when
// non-zero, must be >= lengthBytes.
func NewUInt(lengthBytes int, name string, def any, align int) (*UInt, error) {
	if lengthBytes <= 0 {
		return nil, fmt.Errorf("uint %q: length %d must be positive: %w", name, lengthBytes, rammerrors.ErrSchemaError)
	}
	if align != 0 && align < lengthBytes {
		return nil, fmt.Errorf("uint %q: align %d smaller than length %d: %w", name, align, lengthBytes, rammerrors.ErrSchemaError)
	}
	u := &UInt{name: name, lengthBytes: lengthBytes, align: align}
	switch v := def.(type) {
	case nil:
	case string:
		u.hasDefault, u.defaultStr = true, v
	case int:
		u.hasDefault, u.defaultStr = true, fmt.Sprintf("%d", v)
	case int64:
		u.hasDefault, u.defaultStr = true, fmt.Sprintf("%d", v)
	case uint64:
		u.hasDefault, u.defaultStr = true, fmt.Sprintf("%d", v)
	default:
		return nil, fmt.Errorf("uint %q: unsupported default type %T: %w", name, def, rammerrors.ErrSchemaError)
	}
	return u, nil
}

func (u *UInt) Name() string { return u.name }
func (u *UInt) Kind() Kind   { return KindUInt }

func (u *UInt) width() int {
	if u.align != 0 {
		return u.align
	}
	return u.lengthBytes
}

func (u *UInt) StaticLen() (int, bool) { return u.width(), true }

// DefaultValue returns this field's declared default literal, if any.
func (u *UInt) DefaultValue() (string, bool) { return u.defaultStr, u.hasDefault }

func (u *UInt) resolve(ov *env.Values) (uint64, error) {
	if raw, ok := ov.Leaf(); ok {
		return parseUintLiteral(raw)
	}
	if u.hasDefault {
		return parseUintLiteral(u.defaultStr)
	}
	return 0, fmt.Errorf("uint %q: no value supplied and no default: %w", u.name, rammerrors.ErrSchemaError)
}

func (u *UInt) Encode(ov *env.Values, _ *Siblings) ([]byte, error) {
	value, err := u.resolve(ov)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, u.width())
	v := value
	for i := u.lengthBytes - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf, nil
}

func (u *UInt) Decode(data []byte, offset int, _ *Siblings) (*Decoded, int, error) {
	width := u.width()
	if offset+width > len(data) {
		return nil, 0, fmt.Errorf("uint %q: need %d bytes at offset %d, have %d", u.name, width, offset, len(data))
	}
	raw := make([]byte, u.lengthBytes)
	copy(raw, data[offset:offset+u.lengthBytes])
	return NewLeaf(u.name, KindUInt, raw), width, nil
}
