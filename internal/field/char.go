package field

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// Char is a fixed-width byte string, right-padded with NUL when the
// supplied value is shorter than its declared length.
type Char struct {
	name        string
	lengthBytes int
	hasDefault  bool
	defaultStr  string
}

// NewChar builds a Char field. def is nil (a value must be supplied at
// encode time) or a string.
func NewChar(lengthBytes int, name string, def any) (*Char, error) {
	if lengthBytes <= 0 {
		return nil, fmt.Errorf("chars %q: length %d must be positive: %w", name, lengthBytes, rammerrors.ErrSchemaError)
	}
	c := &Char{name: name, lengthBytes: lengthBytes}
	switch v := def.(type) {
	case nil:
	case string:
		c.hasDefault, c.defaultStr = true, v
	default:
		return nil, fmt.Errorf("chars %q: unsupported default type %T: %w", name, def, rammerrors.ErrSchemaError)
	}
	return c, nil
}

func (c *Char) Name() string           { return c.name }
func (c *Char) Kind() Kind             { return KindChar }
func (c *Char) StaticLen() (int, bool) { return c.lengthBytes, true }

func (c *Char) resolve(ov *env.Values) (string, error) {
	if raw, ok := ov.Leaf(); ok {
		return raw, nil
	}
	if c.hasDefault {
		return c.defaultStr, nil
	}
	return "", fmt.Errorf("chars %q: no value supplied and no default: %w", c.name, rammerrors.ErrSchemaError)
}

func (c *Char) Encode(ov *env.Values, _ *Siblings) ([]byte, error) {
	value, err := c.resolve(ov)
	if err != nil {
		return nil, err
	}
	if len(value) > c.lengthBytes {
		return nil, fmt.Errorf("chars %q: value length %d exceeds declared length %d: %w", c.name, len(value), c.lengthBytes, rammerrors.ErrFieldTooLong)
	}
	buf := make([]byte, c.lengthBytes)
	copy(buf, value)
	return buf, nil
}

func (c *Char) Decode(data []byte, offset int, _ *Siblings) (*Decoded, int, error) {
	if offset+c.lengthBytes > len(data) {
		return nil, 0, fmt.Errorf("chars %q: need %d bytes at offset %d, have %d", c.name, c.lengthBytes, offset, len(data))
	}
	raw := make([]byte, c.lengthBytes)
	copy(raw, data[offset:offset+c.lengthBytes])
	return NewLeaf(c.name, KindChar, raw), c.lengthBytes, nil
}
