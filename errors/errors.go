package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode    Phase = "decode"    // value decoding (AMF0/AMF3)
	PhaseEncode    Phase = "encode"    // value encoding (AMF0/AMF3)
	PhaseChunk     Phase = "chunk"     // chunk-stream framing
	PhaseEnvelope  Phase = "envelope"  // legacy remoting envelope
	PhaseTransport Phase = "transport" // transport collaborator I/O
)

// Kind categorizes the error
type Kind string

const (
	// KindNeedMoreData is the only recoverable kind: the caller must retry
	// once more bytes have arrived. It applies to chunk header parsing only.
	KindNeedMoreData Kind = "need_more_data"

	KindTruncated        Kind = "truncated_input"
	KindMalformed        Kind = "malformed_structure"
	KindBadReference     Kind = "bad_reference"
	KindUnknownTag       Kind = "unknown_tag"
	KindUnsupportedValue Kind = "unsupported_value"
	KindOverflow         Kind = "overflow"
	KindInvalidUTF8      Kind = "invalid_utf8"
	KindTransportFault   Kind = "transport_fault"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int  // byte offset where the error was detected; -1 if unknown
	Tag    byte // wire tag being processed when the error occurred
	HasTag bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.HasTag {
		fmt.Fprintf(&b, " (tag 0x%02x)", e.Tag)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the byte offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Tag sets the wire tag being processed
func (b *Builder) Tag(tag byte) *Builder {
	b.err.Tag = tag
	b.err.HasTag = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NeedMoreData reports that the buffer ended before a complete structure
// could be parsed. Recoverable: retry once more bytes arrive.
func NeedMoreData(phase Phase, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNeedMoreData,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
		Offset: -1,
	}
}

// Truncated reports a stream that ended mid-structure. Fatal for the
// current message.
func Truncated(phase Phase, offset int, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Detail: "stream ended reading " + what,
		Offset: offset,
	}
}

// UnknownTag reports an unrecognized wire tag
func UnknownTag(phase Phase, offset int, tag byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownTag,
		Offset: offset,
		Tag:    tag,
		HasTag: true,
	}
}

// BadReference reports a reference index beyond the table's current size
func BadReference(phase Phase, offset int, index, size int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadReference,
		Detail: fmt.Sprintf("reference %d out of range (table size %d)", index, size),
		Offset: offset,
		Value:  index,
	}
}

// Malformed reports a structurally invalid byte sequence
func Malformed(phase Phase, offset int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformed,
		Detail: detail,
		Offset: offset,
	}
}

// UnsupportedValue reports an encode request for a value with no wire mapping
func UnsupportedValue(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedValue,
		Detail: what + " has no wire encoding in this format version",
		Offset: -1,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
		Offset: -1,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, offset int, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
		Offset: offset,
	}
}

// TransportFault wraps a write/read failure from the transport collaborator.
// Fatal for the connection.
func TransportFault(cause error) *Error {
	return &Error{
		Phase:  PhaseTransport,
		Kind:   KindTransportFault,
		Cause:  cause,
		Offset: -1,
	}
}

// Is reports whether any error in err's chain matches target. It forwards
// to the standard library so callers importing this package under the
// errors name keep the usual helpers.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling err's Unwrap method, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// IsNeedMoreData reports whether err is the recoverable suspend condition
func IsNeedMoreData(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindNeedMoreData
}
