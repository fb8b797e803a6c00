package amf

import (
	"fmt"
	"strconv"

	"github.com/wippyai/rtmp-wire/errors"
	"github.com/wippyai/rtmp-wire/internal/binary"
)

// Encoder0 encodes AMF0 values into an internal buffer. One instance
// scopes one message: composites already written encode as u16
// back-references on later occurrences, matched by identity. After an
// Encode error the buffer may hold a partial value and must be discarded.
type Encoder0 struct {
	w    *binary.Writer
	objs *identTable
}

// NewEncoder0 creates an AMF0 encoder.
func NewEncoder0() *Encoder0 {
	return &Encoder0{w: binary.NewWriter(), objs: newIdentTable()}
}

// Bytes returns the encoded output so far.
func (e *Encoder0) Bytes() []byte {
	return e.w.Bytes()
}

// Len returns the number of bytes encoded so far.
func (e *Encoder0) Len() int {
	return e.w.Len()
}

// Encode appends one tagged value.
func (e *Encoder0) Encode(v Value) error {
	switch v := v.(type) {
	case Null:
		e.w.Byte(Marker0Null)
	case Undefined:
		e.w.Byte(Marker0Undefined)
	case Boolean:
		e.w.Byte(Marker0Boolean)
		if v {
			e.w.Byte(1)
		} else {
			e.w.Byte(0)
		}
	case Number:
		e.w.Byte(Marker0Number)
		e.w.WriteF64(float64(v))
	case Integer:
		// AMF0 has a single numeric type; integers widen losslessly.
		e.w.Byte(Marker0Number)
		e.w.WriteF64(float64(v))
	case String:
		e.encodeString(string(v))
	case XMLDocument:
		e.w.Byte(Marker0XMLDocument)
		e.w.WriteU32(uint32(len(v)))
		e.w.WriteString(string(v))
	case *Date:
		// Dates are not reference-tracked in this version.
		e.w.Byte(Marker0Date)
		e.w.WriteF64(v.Millis)
		e.w.WriteS16(v.TZOffsetMinutes)
	case *Array:
		return e.encodeArray(v)
	case *Object:
		return e.encodeObject(v)
	case ByteArray:
		return errors.UnsupportedValue(errors.PhaseEncode, "byte array")
	case *Externalized:
		return errors.UnsupportedValue(errors.PhaseEncode, "externalized object")
	default:
		return errors.UnsupportedValue(errors.PhaseEncode, fmt.Sprintf("%T", v))
	}
	return nil
}

func (e *Encoder0) encodeString(s string) {
	if len(s) > longStringThreshold {
		e.w.Byte(Marker0LongString)
		e.w.WriteU32(uint32(len(s)))
	} else {
		e.w.Byte(Marker0String)
		e.w.WriteU16(uint16(len(s)))
	}
	e.w.WriteString(s)
}

// writeKey writes an object member key: a length-prefixed string without
// a type marker.
func (e *Encoder0) writeKey(s string) error {
	if len(s) > longStringThreshold {
		return errors.Overflow(errors.PhaseEncode, len(s), "u16 key length")
	}
	e.w.WriteU16(uint16(len(s)))
	e.w.WriteString(s)
	return nil
}

// writeReference emits a back-reference to index idx, or reports whether
// the value was not yet registered.
func (e *Encoder0) writeReference(v Value) (bool, error) {
	idx := e.objs.lookup(v)
	if idx < 0 {
		return false, nil
	}
	if idx > 0xffff {
		return false, errors.Overflow(errors.PhaseEncode, idx, "u16 reference index")
	}
	e.w.Byte(Marker0Reference)
	e.w.WriteU16(uint16(idx))
	return true, nil
}

func (e *Encoder0) encodeArray(a *Array) error {
	if done, err := e.writeReference(a); done || err != nil {
		return err
	}
	e.objs.register(a)

	if a.IsDense() {
		e.w.Byte(Marker0StrictArray)
		e.w.WriteU32(uint32(len(a.Dense)))
		for _, v := range a.Dense {
			if err := e.Encode(v); err != nil {
				return err
			}
		}
		return nil
	}

	// Mixed arrays become ECMA arrays: every member is a keyed pair, with
	// dense elements keyed by their decimal index.
	e.w.Byte(Marker0ECMAArray)
	e.w.WriteU32(uint32(len(a.Dense) + len(a.Extra) + len(a.Assoc)))
	for i, v := range a.Dense {
		if err := e.writeKey(strconv.Itoa(i)); err != nil {
			return err
		}
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	for _, m := range a.Extra {
		if err := e.writeKey(strconv.Itoa(m.Index)); err != nil {
			return err
		}
		if err := e.Encode(m.Value); err != nil {
			return err
		}
	}
	for _, m := range a.Assoc {
		if err := e.writeKey(m.Key); err != nil {
			return err
		}
		if err := e.Encode(m.Value); err != nil {
			return err
		}
	}
	e.writeTerminator()
	return nil
}

func (e *Encoder0) encodeObject(o *Object) error {
	if done, err := e.writeReference(o); done || err != nil {
		return err
	}
	e.objs.register(o)

	if o.Trait != nil && o.Trait.Name != "" {
		e.w.Byte(Marker0TypedObject)
		if err := e.writeKey(o.Trait.Name); err != nil {
			return err
		}
	} else {
		e.w.Byte(Marker0Object)
	}
	for _, m := range o.Members {
		if err := e.writeKey(m.Key); err != nil {
			return err
		}
		if err := e.Encode(m.Value); err != nil {
			return err
		}
	}
	e.writeTerminator()
	return nil
}

func (e *Encoder0) writeTerminator() {
	e.w.WriteU16(0)
	e.w.Byte(Marker0ObjectEnd)
}
