// Package amf implements the AMF0 and AMF3 binary value formats used by the
// RTMP wire protocol.
//
// # Value Model
//
// Both format versions converge on one tagged value model, the sealed Value
// interface. Scalars are plain value types (Null, Undefined, Boolean, Number,
// Integer, String, XMLDocument, ByteArray); composites are pointer types
// (*Object, *Array, *Date, *Externalized) so that shared and cyclic
// structures keep their identity through a codec round trip.
//
// # Decoding
//
//	dec := amf.NewDecoder0(bytes.NewReader(payload))
//	v, err := dec.Decode()
//
// A decoder instance scopes one message: its reference tables persist across
// successive Decode calls on the same instance and must never be reused for
// another message. AMF0 tag 0x11 switches the remainder of the same cursor
// to AMF3, so a message may mix versions mid-stream.
//
// # Encoding
//
//	enc := amf.NewEncoder3()
//	if err := enc.Encode(v); err != nil { ... }
//	payload := enc.Bytes()
//
// Encoders track composite values by identity: encoding the same *Object
// twice in one message emits a back-reference the second time. A value
// variant with no wire mapping in the selected version fails with an
// unsupported_value error rather than being skipped.
//
// # Reference Tables
//
// AMF0 keeps a single object table (u16 indices). AMF3 keeps three
// independent tables for objects, non-empty strings and class traits, all
// indexed by U29 back-references. Tables are append-only and indices are
// assigned in strict decode order; a back-reference resolves to the same
// composite identity as the original occurrence.
package amf
