package amf

import (
	"bytes"
	"io"
)

// U29 encoding/decoding utilities for the AMF3 variable-length integer.
//
// Unlike LEB128 the groups are big-endian: each of the first up to three
// bytes contributes its low 7 bits (high bit is a continuation flag); a
// fourth byte, when present, contributes all 8 bits. The result is a
// 29-bit value.

// ReadU29 reads an unsigned U29 value.
func ReadU29(r io.ByteReader) (uint32, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var result uint32
	n := 0
	for b&0x80 != 0 && n < 3 {
		result = result<<7 | uint32(b&0x7f)
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		n++
	}
	if n < 3 {
		result = result<<7 | uint32(b)
	} else {
		result = result<<8 | uint32(b)
	}
	return result, nil
}

// ReadU29s reads a U29 value and sign-extends bit 28 into a signed 32-bit
// result.
func ReadU29s(r io.ByteReader) (int32, error) {
	v, err := ReadU29(r)
	if err != nil {
		return 0, err
	}
	if v&0x10000000 != 0 {
		v |= 0xe0000000
	}
	return int32(v), nil
}

// WriteU29 writes v in the minimal 1-4 byte form. Bits above the 29-bit
// range are discarded.
func WriteU29(w io.ByteWriter, v uint32) {
	v &= 0x1fffffff
	switch {
	case v < 0x80:
		w.WriteByte(byte(v))
	case v < 0x4000:
		w.WriteByte(byte(v>>7) | 0x80)
		w.WriteByte(byte(v & 0x7f))
	case v < 0x200000:
		w.WriteByte(byte(v>>14) | 0x80)
		w.WriteByte(byte(v>>7&0x7f) | 0x80)
		w.WriteByte(byte(v & 0x7f))
	default:
		w.WriteByte(byte(v>>22) | 0x80)
		w.WriteByte(byte(v>>15&0x7f) | 0x80)
		w.WriteByte(byte(v>>8&0x7f) | 0x80)
		w.WriteByte(byte(v))
	}
}

// WriteU29s writes a signed value in its 29-bit two's-complement form.
func WriteU29s(w io.ByteWriter, v int32) {
	WriteU29(w, uint32(v))
}

// EncodeU29 encodes an unsigned U29 value to bytes.
func EncodeU29(v uint32) []byte {
	var buf bytes.Buffer
	WriteU29(&buf, v)
	return buf.Bytes()
}

// EncodeU29s encodes a signed U29 value to bytes.
func EncodeU29s(v int32) []byte {
	var buf bytes.Buffer
	WriteU29s(&buf, v)
	return buf.Bytes()
}
