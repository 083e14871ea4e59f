package builder

import (
	"fmt"

	"github.com/kvemir/rammbock/internal/container"
	"github.com/kvemir/rammbock/internal/field"
	"github.com/kvemir/rammbock/internal/message"
	"github.com/kvemir/rammbock/internal/rammerrors"
)

// templateFrame is the base of every message stack: the MessageTemplate
// currently being defined. It is never popped by a close_* call (those
// require stack depth >= 2); encode() requires it to be the sole
// remaining frame.
type templateFrame struct{ t *message.Template }

func (f *templateFrame) kindName() string { return "message" }
func (f *templateFrame) addField(child field.Field) error {
	f.t.Add(child)
	return nil
}
func (f *templateFrame) close() (field.Field, error) {
	return nil, fmt.Errorf("message template is not closable as a field: %w", rammerrors.ErrUnbalancedContainers)
}

// frame is one entry of the builder's message stack (spec C6): a
// container in progress that accepts children until it is closed and
// folded into its parent as a field.
type frame interface {
	// kindName identifies the container type for close_* type-checking
	// ("struct", "list", "union", "binary_container").
	kindName() string
	// addField routes add_field to this frame's children.
	addField(f field.Field) error
	// close finalizes the container and returns it as a Field to be
	// added to the new stack top.
	close() (field.Field, error)
}

type structFrame struct{ s *container.Struct }

func (f *structFrame) kindName() string { return "struct" }
func (f *structFrame) addField(child field.Field) error {
	f.s.Add(child)
	return nil
}
func (f *structFrame) close() (field.Field, error) { return f.s, nil }

type unionFrame struct{ u *container.Union }

func (f *unionFrame) kindName() string { return "union" }
func (f *unionFrame) addField(child field.Field) error {
	f.u.Add(child)
	return nil
}
func (f *unionFrame) close() (field.Field, error) { return f.u, nil }

// listFrame accumulates the single element template a List needs; a
// second add_field before close is a schema error, since List is
// homogeneous.
type listFrame struct {
	name     string
	sizeExpr string
	element  field.Field
}

func (f *listFrame) kindName() string { return "list" }
func (f *listFrame) addField(child field.Field) error {
	if f.element != nil {
		return fmt.Errorf("list %q: only one element template is permitted: %w", f.name, rammerrors.ErrSchemaError)
	}
	f.element = child
	return nil
}
func (f *listFrame) close() (field.Field, error) {
	if f.element == nil {
		return nil, fmt.Errorf("list %q: no element template supplied: %w", f.name, rammerrors.ErrSchemaError)
	}
	return container.NewList(f.name, f.sizeExpr, f.element)
}

type binaryFrame struct{ b *container.BinaryContainer }

func (f *binaryFrame) kindName() string { return "binary_container" }
func (f *binaryFrame) addField(field.Field) error {
	return fmt.Errorf("binary_container: add_field does not apply; use add_bit_field: %w", rammerrors.ErrSchemaError)
}
func (f *binaryFrame) close() (field.Field, error) {
	if err := f.b.Verify(); err != nil {
		return nil, err
	}
	return f.b, nil
}
