package container

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// Union holds alternatives that share one wire slot. Exactly one
// alternative is populated at encode time; decode does not disambiguate
// between alternatives — the caller selects which one to interpret the
// raw bytes as via DecodeAs.
type Union struct {
	name         string
	alternatives []field.Field
	byName       map[string]field.Field
}

// NewUnion builds an empty Union.
func NewUnion(name string) *Union {
	return &Union{name: name, byName: map[string]field.Field{}}
}

// Add registers an alternative.
func (u *Union) Add(alt field.Field) {
	u.alternatives = append(u.alternatives, alt)
	u.byName[alt.Name()] = alt
}

// Children returns this union's alternatives, used by
// message.Template.checkUnknown to validate overrides nested under a
// union rather than only the union's own top-level name.
func (u *Union) Children() []field.Field { return u.alternatives }

func (u *Union) Name() string     { return u.name }
func (u *Union) Kind() field.Kind { return field.KindUnion }

// StaticLen is the maximum of the alternatives' static lengths.
func (u *Union) StaticLen() (int, bool) {
	max := 0
	for _, a := range u.alternatives {
		n, ok := a.StaticLen()
		if !ok {
			return 0, false
		}
		if n > max {
			max = n
		}
	}
	return max, true
}

func (u *Union) width() int {
	n, _ := u.StaticLen()
	return n
}

// Encode requires the override environment to name exactly one
// alternative (by the alternative's own name, addressed as a child of
// this union's subtree).
func (u *Union) Encode(ov *env.Values, sib *field.Siblings) ([]byte, error) {
	var chosen field.Field
	var chosenOv *env.Values
	for _, a := range u.alternatives {
		if childOv, ok := ov.Child(a.Name()); ok && !childOv.IsEmpty() {
			if chosen != nil {
				return nil, fmt.Errorf("union %q: more than one alternative supplied: %w", u.name, rammerrors.ErrSchemaError)
			}
			chosen, chosenOv = a, childOv
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("union %q: no alternative supplied: %w", u.name, rammerrors.ErrMissingField)
	}
	b, err := chosen.Encode(chosenOv, sib)
	if err != nil {
		return nil, fmt.Errorf("union %q: alternative %q: %w", u.name, chosen.Name(), err)
	}
	width := u.width()
	if len(b) > width {
		return nil, fmt.Errorf("union %q: alternative %q length %d exceeds union width %d: %w", u.name, chosen.Name(), len(b), width, rammerrors.ErrLengthMismatch)
	}
	padded := make([]byte, width)
	copy(padded, b)
	return padded, nil
}

// Decode returns the union's raw bytes without committing to an
// alternative; use DecodeAs to interpret them.
func (u *Union) Decode(data []byte, offset int, _ *field.Siblings) (*field.Decoded, int, error) {
	width := u.width()
	if offset+width > len(data) {
		return nil, 0, fmt.Errorf("union %q: need %d bytes at offset %d, have %d", u.name, width, offset, len(data))
	}
	raw := make([]byte, width)
	copy(raw, data[offset:offset+width])
	return field.NewLeaf(u.name, field.KindUnion, raw), width, nil
}

// DecodeAs interprets this union's raw bytes as the named alternative.
func (u *Union) DecodeAs(altName string, data []byte, offset int) (*field.Decoded, error) {
	alt, ok := u.byName[altName]
	if !ok {
		return nil, fmt.Errorf("union %q: unknown alternative %q: %w", u.name, altName, rammerrors.ErrUnknownField)
	}
	d, _, err := alt.Decode(data, offset, field.NewSiblings())
	if err != nil {
		return nil, fmt.Errorf("union %q: alternative %q: %w", u.name, altName, err)
	}
	return d, nil
}
