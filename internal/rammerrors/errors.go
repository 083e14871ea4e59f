// Package rammerrors holds the sentinel error kinds raised by schema
// definition, encoding and the builder session. They're designed to be
// matched with errors.Is after fmt.Errorf("...: %w", ...) wrapping, the
// way the rest of this module reports failures.
package rammerrors

import "errors"

var (
	// ErrSchemaError is raised when a field is declared with a bad length
	// or alignment.
	ErrSchemaError = errors.New("rammbock: schema error")

	// ErrProtocolInProgress is raised when a new protocol or message
	// definition is attempted while one is still open.
	ErrProtocolInProgress = errors.New("rammbock: protocol definition in progress")

	// ErrDuplicateProtocol is raised when a protocol of that name is
	// already registered.
	ErrDuplicateProtocol = errors.New("rammbock: protocol already defined")

	// ErrDuplicatePDU is raised when a protocol already has a PDU field.
	ErrDuplicatePDU = errors.New("rammbock: protocol already has a PDU field")

	// ErrUnresolvedLengthReference is raised when a length expression
	// refers to a field that hasn't been declared yet.
	ErrUnresolvedLengthReference = errors.New("rammbock: length refers to an undeclared field")

	// ErrUnbalancedContainers is raised by encode() while the container
	// stack depth isn't exactly 1, or by close_* on the wrong container
	// type.
	ErrUnbalancedContainers = errors.New("rammbock: unbalanced container stack")

	// ErrUnknownField is raised when an override names a field that
	// doesn't appear anywhere in the template.
	ErrUnknownField = errors.New("rammbock: unknown field")

	// ErrFieldTooLong is raised when an encoded value exceeds its
	// field's declared width.
	ErrFieldTooLong = errors.New("rammbock: field value too long")

	// ErrLengthMismatch is raised when an encoded struct is larger than
	// its declared length.
	ErrLengthMismatch = errors.New("rammbock: encoded length mismatch")

	// ErrIndexOutOfRange is raised when a list override names an index
	// beyond the list's resolved size.
	ErrIndexOutOfRange = errors.New("rammbock: list index out of range")

	// ErrMissingField is raised by Union.Encode when no alternative is
	// supplied. Validate does not return it; a missing expected path is
	// reported as a MissingField Diagnostic instead.
	ErrMissingField = errors.New("rammbock: missing field")

	// ErrValueMismatch is a non-fatal validate() diagnostic: a decoded
	// field's canonical string form didn't match the expectation.
	ErrValueMismatch = errors.New("rammbock: value mismatch")

	// ErrMalformedLength is raised when a length expression resolves to
	// a negative byte count, e.g. a subtractor larger than the decoded
	// header value it's applied against.
	ErrMalformedLength = errors.New("rammbock: length expression resolved to a negative value")
)
