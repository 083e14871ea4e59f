package message

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/kvemir/rammbock/internal/field"
)

// DiagnosticKind tags the two non-fatal validate outcomes (spec.md §7).
type DiagnosticKind uint8

const (
	MissingField DiagnosticKind = iota
	ValueMismatch
)

func (k DiagnosticKind) String() string {
	if k == MissingField {
		return "MissingField"
	}
	return "ValueMismatch"
}

// Diagnostic is one non-fatal finding from Validate.
type Diagnostic struct {
	Kind     DiagnosticKind
	Path     string
	Expected string
	Got      string
}

func (d Diagnostic) Error() string {
	if d.Kind == MissingField {
		return fmt.Sprintf("MissingField(%s)", d.Path)
	}
	return fmt.Sprintf("ValueMismatch(%s): got %q, want %q", d.Path, d.Got, d.Expected)
}

// Expectation is one (path, expected-value) pair. expectations are
// taken as an ordered slice rather than a map because Go maps have no
// iteration order, and spec.md requires diagnostics in a stable,
// caller-intended order.
type Expectation struct {
	Path     string
	Expected string
}

// Diagnostics is the aggregated result of Validate.
type Diagnostics []Diagnostic

// Err folds all diagnostics into one combined error via multierr, for
// callers that want to treat any non-empty result as a single failure
// rather than inspecting the list directly.
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds {
		errs = append(errs, d)
	}
	return multierr.Combine(errs...)
}

// Validate checks every expectation against msg, exhaustively over the
// expectations (not over the template): fields the caller didn't
// mention are not checked. Validation never stops early; every
// diagnostic is collected (spec.md §4.4, §7).
func Validate(msg *Message, expectations []Expectation) Diagnostics {
	var out Diagnostics
	for _, e := range expectations {
		d, ok := msg.Get(e.Path)
		if !ok {
			out = append(out, Diagnostic{Kind: MissingField, Path: e.Path})
			continue
		}
		got := canonical(d)
		if got != e.Expected {
			out = append(out, Diagnostic{Kind: ValueMismatch, Path: e.Path, Expected: e.Expected, Got: got})
		}
	}
	return out
}

// canonical renders a decoded leaf's canonical comparison form: decimal
// for UInt, trimmed string for Char, hex for everything else (raw bytes,
// unresolved containers).
func canonical(d *field.Decoded) string {
	switch d.Kind {
	case field.KindUInt:
		return fmt.Sprintf("%d", d.Int())
	case field.KindChar:
		return d.Str()
	default:
		return d.Hex()
	}
}
