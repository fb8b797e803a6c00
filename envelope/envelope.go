// Package envelope implements the legacy remoting envelope: a fixed
// framing of headers and bodies whose payloads are single values in
// either serialization version. Each payload decodes and encodes with its
// own reference-table scope.
package envelope

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/wippyai/rtmp-wire/amf"
	"github.com/wippyai/rtmp-wire/errors"
)

// Version markers accepted in the envelope preamble. Version selects the
// value codec for every payload in the envelope.
const (
	VersionAMF0 = 0
	VersionAMF3 = 3
)

// Header is one envelope header entry.
type Header struct {
	Name     string
	Required bool
	Value    amf.Value
}

// Body is one envelope body entry.
type Body struct {
	Target   string
	Response string
	Value    amf.Value
}

// Envelope is a decoded remoting envelope.
type Envelope struct {
	Version    uint8
	ClientType uint8
	Headers    []Header
	Bodies     []Body
}

// Decode parses a complete envelope. The declared per-entry length fields
// are advisory and ignored; each payload is decoded from the cursor with
// a fresh codec instance.
func Decode(data []byte) (*Envelope, error) {
	r := &reader{r: bytes.NewReader(data)}

	version, err := r.u8("version")
	if err != nil {
		return nil, err
	}
	if version != VersionAMF0 && version != VersionAMF3 {
		return nil, errors.New(errors.PhaseEnvelope, errors.KindMalformed).
			Offset(0).
			Detail("unknown envelope version %d", version).
			Build()
	}
	clientType, err := r.u8("client type")
	if err != nil {
		return nil, err
	}

	env := &Envelope{Version: version, ClientType: clientType}

	headerCount, err := r.u16("header count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(headerCount); i++ {
		name, err := r.utf("header name")
		if err != nil {
			return nil, err
		}
		required, err := r.u8("header required flag")
		if err != nil {
			return nil, err
		}
		if _, err := r.u32("header declared length"); err != nil {
			return nil, err
		}
		v, err := decodeValue(version, r.r)
		if err != nil {
			return nil, err
		}
		env.Headers = append(env.Headers, Header{Name: name, Required: required != 0, Value: v})
	}

	bodyCount, err := r.u16("body count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(bodyCount); i++ {
		target, err := r.utf("body target")
		if err != nil {
			return nil, err
		}
		response, err := r.utf("body response")
		if err != nil {
			return nil, err
		}
		if _, err := r.u32("body declared length"); err != nil {
			return nil, err
		}
		v, err := decodeValue(version, r.r)
		if err != nil {
			return nil, err
		}
		env.Bodies = append(env.Bodies, Body{Target: target, Response: response, Value: v})
	}

	return env, nil
}

// Encode serializes the envelope. Every entry's length field carries the
// true byte length of its encoded payload.
func (e *Envelope) Encode() ([]byte, error) {
	if e.Version != VersionAMF0 && e.Version != VersionAMF3 {
		return nil, errors.New(errors.PhaseEnvelope, errors.KindMalformed).
			Detail("unknown envelope version %d", e.Version).
			Build()
	}

	w := &writer{}
	w.u8(e.Version)
	w.u8(e.ClientType)

	if err := w.count(len(e.Headers), "header count"); err != nil {
		return nil, err
	}
	for _, h := range e.Headers {
		if err := w.utf(h.Name, "header name"); err != nil {
			return nil, err
		}
		if h.Required {
			w.u8(1)
		} else {
			w.u8(0)
		}
		payload, err := encodeValue(e.Version, h.Value)
		if err != nil {
			return nil, err
		}
		w.u32(uint32(len(payload)))
		w.bytes(payload)
	}

	if err := w.count(len(e.Bodies), "body count"); err != nil {
		return nil, err
	}
	for _, b := range e.Bodies {
		if err := w.utf(b.Target, "body target"); err != nil {
			return nil, err
		}
		if err := w.utf(b.Response, "body response"); err != nil {
			return nil, err
		}
		payload, err := encodeValue(e.Version, b.Value)
		if err != nil {
			return nil, err
		}
		w.u32(uint32(len(payload)))
		w.bytes(payload)
	}

	return w.buf.Bytes(), nil
}

// decodeValue decodes one payload with a fresh reference-table scope on
// the shared cursor.
func decodeValue(version uint8, r *bytes.Reader) (amf.Value, error) {
	if version == VersionAMF3 {
		return amf.NewDecoder3(r).Decode()
	}
	return amf.NewDecoder0(r).Decode()
}

// encodeValue encodes one payload in its own reference-table scope.
func encodeValue(version uint8, v amf.Value) ([]byte, error) {
	if version == VersionAMF3 {
		enc := amf.NewEncoder3()
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		return enc.Bytes(), nil
	}
	enc := amf.NewEncoder0()
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// reader wraps the envelope cursor with offset-carrying errors.
type reader struct {
	r *bytes.Reader
}

func (r *reader) offset() int {
	return int(r.r.Size()) - r.r.Len()
}

func (r *reader) u8(what string) (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, errors.Truncated(errors.PhaseEnvelope, r.offset(), what)
	}
	return b, nil
}

func (r *reader) u16(what string) (uint16, error) {
	hi, err := r.u8(what)
	if err != nil {
		return 0, err
	}
	lo, err := r.u8(what)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (r *reader) u32(what string) (uint32, error) {
	hi, err := r.u16(what)
	if err != nil {
		return 0, err
	}
	lo, err := r.u16(what)
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

func (r *reader) utf(what string) (string, error) {
	n, err := r.u16(what)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	start := r.offset()
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", errors.Truncated(errors.PhaseEnvelope, r.offset(), what)
	}
	if !utf8.Valid(buf) {
		return "", errors.InvalidUTF8(errors.PhaseEnvelope, start, buf)
	}
	return string(buf), nil
}

// writer accumulates the envelope bytes.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) u16(v uint16) {
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

func (w *writer) u32(v uint32) {
	w.u16(uint16(v >> 16))
	w.u16(uint16(v))
}

func (w *writer) bytes(p []byte) {
	w.buf.Write(p)
}

func (w *writer) count(n int, what string) error {
	if n > 0xffff {
		return errors.Overflow(errors.PhaseEnvelope, n, what)
	}
	w.u16(uint16(n))
	return nil
}

func (w *writer) utf(s string, what string) error {
	if len(s) > 0xffff {
		return errors.Overflow(errors.PhaseEnvelope, len(s), what)
	}
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
	return nil
}
