package message

import (
	"fmt"
	"strings"

	"github.com/kvemir/rammbock/internal/field"
)

// Message is an EncodedMessage value (spec C5): an immutable tree of
// named decoded values addressable by dotted/indexed path, plus a raw
// byte view of the whole message. root always has a "_header" child
// holding the protocol's fields; the remaining children mirror the
// payload schema.
type Message struct {
	name     string
	protocol string
	root     *field.Decoded
	raw      []byte
}

// Raw returns the full concatenation of header and payload bytes
// (spec.md §4.5 "_raw").
func (m *Message) Raw() []byte { return m.raw }

// Header returns the "_header" subtree.
func (m *Message) Header() (*field.Decoded, bool) { return m.root.Get("_header") }

// Get resolves a dotted/indexed path against the payload root (or the
// header, via the "_header" prefix).
func (m *Message) Get(path string) (*field.Decoded, bool) { return m.root.Get(path) }

// String renders the short form: "Message <name>".
func (m *Message) String() string { return fmt.Sprintf("Message %s", m.name) }

// GoString renders the long form: the message name, its header fields,
// and its payload fields, each leaf as "<name> = <hex>" and each
// container as its name followed by its indented children — spec.md §4.5
// repr.
func (m *Message) GoString() string { return m.Repr() }

// Repr renders the long form described by spec.md §4.5.
func (m *Message) Repr() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message %s\n", m.name)
	if header, ok := m.Header(); ok {
		fmt.Fprintf(&b, "  %s header\n", m.protocol)
		writeFields(&b, "    ", header)
	}
	for _, c := range m.root.Children {
		if c.Name == "_header" {
			continue
		}
		writeField(&b, "  ", c)
	}
	return b.String()
}

func writeFields(b *strings.Builder, indent string, node *field.Decoded) {
	for _, c := range node.Children {
		writeField(b, indent, c)
	}
}

func writeField(b *strings.Builder, indent string, d *field.Decoded) {
	if len(d.Children) > 0 {
		fmt.Fprintf(b, "%s%s\n", indent, d.Name)
		writeFields(b, indent+"  ", d)
		return
	}
	fmt.Fprintf(b, "%s%s = %s\n", indent, d.Name, d.Hex())
}
