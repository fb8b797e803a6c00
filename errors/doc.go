// Package errors provides structured error types for the rtmp-wire library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: byte offset, wire tag and
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindMalformed).
//		Offset(pos).
//		Tag(0x03).
//		Detail("object member list not terminated").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BadReference(errors.PhaseDecode, pos, idx, len(table))
//	err := errors.UnknownTag(errors.PhaseDecode, pos, tag)
//
// All errors implement the standard error interface and support errors.Is/As.
// Exactly one kind is recoverable: KindNeedMoreData, reported by the chunk
// header parser when the inbound buffer ends mid-header. Use IsNeedMoreData
// to distinguish it from fatal conditions.
package errors
