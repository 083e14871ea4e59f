package container

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/env"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/length"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// List is a homogeneous sequence whose element count ("size") is either a
// literal or the name of a previously declared sibling field (resolved
// through the sib argument passed to Encode/Decode, which is the
// surrounding container's Siblings, not this List's own).
type List struct {
	name    string
	size    length.Length
	element field.Field
}

// NewList builds a List. sizeExpr follows the Length grammar ("8" or
// "count"); element is the template applied to every slot.
func NewList(name string, sizeExpr string, element field.Field) (*List, error) {
	l, err := length.Parse(sizeExpr)
	if err != nil {
		return nil, fmt.Errorf("list %q: size: %w", name, err)
	}
	return &List{name: name, size: l, element: element}, nil
}

func (l *List) Name() string     { return l.name }
func (l *List) Kind() field.Kind { return field.KindList }

// Element returns the template applied to every slot, used by
// message.Template.checkUnknown to validate overrides nested under a
// list index ("list[0].field").
func (l *List) Element() field.Field { return l.element }

// StaticLen is only available when size is a literal; a size resolved
// against a sibling is not knowable without an encode/decode pass.
func (l *List) StaticLen() (int, bool) {
	if !l.size.Static() {
		return 0, false
	}
	n, ok := l.element.StaticLen()
	if !ok {
		return 0, false
	}
	return n * l.size.Value(), true
}

func (l *List) resolveCount(sib *field.Siblings) (int, error) {
	if l.size.Static() {
		return l.size.Value(), nil
	}
	v, ok := sib.Get(l.size.Field())
	if !ok {
		return 0, fmt.Errorf("list %q: size field %q not yet resolved: %w", l.name, l.size.Field(), rammerrors.ErrUnresolvedLengthReference)
	}
	return int(l.size.SolveValue(int(v))), nil
}

func (l *List) Encode(ov *env.Values, sib *field.Siblings) ([]byte, error) {
	count, err := l.resolveCount(sib)
	if err != nil {
		return nil, err
	}
	for _, i := range ov.IndexKeys() {
		if i < 0 || i >= count {
			return nil, fmt.Errorf("list %q: index %d out of range [0,%d): %w", l.name, i, count, rammerrors.ErrIndexOutOfRange)
		}
	}
	elemSib := field.NewSiblings()
	var out []byte
	for i := 0; i < count; i++ {
		elemOv, _ := ov.Index(i)
		b, err := l.element.Encode(elemOv, elemSib)
		if err != nil {
			return nil, fmt.Errorf("list %q[%d]: %w", l.name, i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func (l *List) Decode(data []byte, offset int, sib *field.Siblings) (*field.Decoded, int, error) {
	count, err := l.resolveCount(sib)
	if err != nil {
		return nil, 0, err
	}
	elemSib := field.NewSiblings()
	start := offset
	cur := offset
	children := make([]*field.Decoded, 0, count)
	for i := 0; i < count; i++ {
		d, n, err := l.element.Decode(data, cur, elemSib)
		if err != nil {
			return nil, 0, fmt.Errorf("list %q[%d]: %w", l.name, i, err)
		}
		children = append(children, d)
		cur += n
	}
	return field.NewInterior(l.name, field.KindList, data[start:cur], children), cur - start, nil
}
