package amf

import (
	"fmt"

	"github.com/wippyai/rtmp-wire/errors"
	"github.com/wippyai/rtmp-wire/internal/binary"
)

// Encoder3 encodes AMF3 values into an internal buffer. One instance
// scopes one message and carries the three encode-side tables. Composite
// and trait lookups are by identity, so distinct-but-equal composites
// encode independently. A Dynamic trait encodes every member as a
// name/value pair; its fixed member list has no wire form and is lost.
// After an Encode error the buffer may hold a partial value and must be
// discarded.
type Encoder3 struct {
	w      *binary.Writer
	objs   *identTable
	strs   map[string]int
	traits map[*Trait]int
}

// NewEncoder3 creates an AMF3 encoder.
func NewEncoder3() *Encoder3 {
	return &Encoder3{
		w:      binary.NewWriter(),
		objs:   newIdentTable(),
		strs:   make(map[string]int),
		traits: make(map[*Trait]int),
	}
}

// Bytes returns the encoded output so far.
func (e *Encoder3) Bytes() []byte {
	return e.w.Bytes()
}

// Len returns the number of bytes encoded so far.
func (e *Encoder3) Len() int {
	return e.w.Len()
}

// Encode appends one tagged value.
func (e *Encoder3) Encode(v Value) error {
	switch v := v.(type) {
	case Undefined:
		e.w.Byte(Marker3Undefined)
	case Null:
		e.w.Byte(Marker3Null)
	case Boolean:
		if v {
			e.w.Byte(Marker3True)
		} else {
			e.w.Byte(Marker3False)
		}
	case Integer:
		if v < MinInt29 || v > MaxInt29 {
			// Out of the 29-bit range; fall back to the double form.
			e.w.Byte(Marker3Number)
			e.w.WriteF64(float64(v))
		} else {
			e.w.Byte(Marker3Integer)
			WriteU29s(e.w, int32(v))
		}
	case Number:
		e.w.Byte(Marker3Number)
		e.w.WriteF64(float64(v))
	case String:
		e.w.Byte(Marker3String)
		return e.writeString(string(v))
	case XMLDocument:
		if len(v) > maxInlineLength {
			return errors.Overflow(errors.PhaseEncode, len(v), "u29 inline length")
		}
		// XML never participates in string reference tracking.
		e.w.Byte(Marker3XML)
		WriteU29(e.w, uint32(len(v))<<1|1)
		e.w.WriteString(string(v))
	case ByteArray:
		if len(v) > maxInlineLength {
			return errors.Overflow(errors.PhaseEncode, len(v), "u29 inline length")
		}
		e.w.Byte(Marker3ByteArray)
		WriteU29(e.w, uint32(len(v))<<1|1)
		e.w.WriteBytes(v)
	case *Date:
		e.w.Byte(Marker3Date)
		if idx := e.objs.lookup(v); idx >= 0 {
			WriteU29(e.w, uint32(idx)<<1)
			return nil
		}
		e.objs.register(v)
		WriteU29(e.w, 1)
		e.w.WriteF64(v.Millis)
	case *Array:
		return e.encodeArray(v)
	case *Object:
		return e.encodeObject(v)
	case *Externalized:
		return e.encodeExternalized(v)
	default:
		return errors.UnsupportedValue(errors.PhaseEncode, fmt.Sprintf("%T", v))
	}
	return nil
}

// writeString writes a string header and, unless the string is a
// back-reference, its inline bytes. The empty string is always inline.
func (e *Encoder3) writeString(s string) error {
	if s == "" {
		WriteU29(e.w, 1)
		return nil
	}
	if idx, ok := e.strs[s]; ok {
		WriteU29(e.w, uint32(idx)<<1)
		return nil
	}
	if len(s) > maxInlineLength {
		return errors.Overflow(errors.PhaseEncode, len(s), "u29 string length")
	}
	e.strs[s] = len(e.strs)
	WriteU29(e.w, uint32(len(s))<<1|1)
	e.w.WriteString(s)
	return nil
}

func (e *Encoder3) encodeArray(a *Array) error {
	e.w.Byte(Marker3Array)
	if idx := e.objs.lookup(a); idx >= 0 {
		WriteU29(e.w, uint32(idx)<<1)
		return nil
	}
	e.objs.register(a)

	WriteU29(e.w, uint32(len(a.Dense))<<1|1)
	for _, m := range a.Assoc {
		if err := e.writeString(m.Key); err != nil {
			return err
		}
		if err := e.Encode(m.Value); err != nil {
			return err
		}
	}
	// Sparse integer keys have no dedicated form; they ride in the
	// associative section as decimal strings.
	for _, m := range a.Extra {
		if err := e.writeString(fmt.Sprintf("%d", m.Index)); err != nil {
			return err
		}
		if err := e.Encode(m.Value); err != nil {
			return err
		}
	}
	e.writeString("")
	for _, v := range a.Dense {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder3) encodeObject(o *Object) error {
	e.w.Byte(Marker3Object)
	if idx := e.objs.lookup(o); idx >= 0 {
		WriteU29(e.w, uint32(idx)<<1)
		return nil
	}
	e.objs.register(o)

	trait := o.Trait
	if trait != nil && trait.Externalizable {
		return errors.UnsupportedValue(errors.PhaseEncode,
			"plain object with an externalizable trait")
	}

	switch {
	case trait == nil:
		// Anonymous objects encode as a nameless dynamic trait.
		if err := e.writeTraitHeader(nil, traitValue, 0); err != nil {
			return err
		}
		for _, m := range o.Members {
			if err := e.writeString(m.Key); err != nil {
				return err
			}
			if err := e.Encode(m.Value); err != nil {
				return err
			}
		}
		e.writeString("")

	case trait.Dynamic:
		// The wire form has no combined fixed-plus-dynamic layout, so a
		// dynamic trait's fixed member list is not carried: every member
		// rides as a name/value pair.
		if err := e.writeTraitHeader(trait, traitValue, 0); err != nil {
			return err
		}
		for _, m := range o.Members {
			if err := e.writeString(m.Key); err != nil {
				return err
			}
			if err := e.Encode(m.Value); err != nil {
				return err
			}
		}
		e.writeString("")

	default:
		if err := e.writeTraitHeader(trait, traitProperty, len(trait.Members)); err != nil {
			return err
		}
		for _, name := range trait.Members {
			v, ok := o.Member(name)
			if !ok {
				v = Undefined{}
			}
			if err := e.Encode(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Encoder3) encodeExternalized(x *Externalized) error {
	e.w.Byte(Marker3Object)
	if idx := e.objs.lookup(x); idx >= 0 {
		WriteU29(e.w, uint32(idx)<<1)
		return nil
	}
	e.objs.register(x)
	if err := e.writeTraitHeader(x.Trait, traitExternalizable, 0); err != nil {
		return err
	}
	return e.Encode(x.Inner)
}

// writeTraitHeader writes a trait back-reference when the trait has been
// seen, or an inline trait header followed by the class name and, for the
// fixed-layout encoding, the member names. A nil trait writes an inline
// anonymous header each time.
func (e *Encoder3) writeTraitHeader(trait *Trait, enc int, memberCount int) error {
	if trait != nil {
		if idx, ok := e.traits[trait]; ok {
			WriteU29(e.w, uint32(idx)<<2|0x01)
			return nil
		}
		e.traits[trait] = len(e.traits)
	}
	WriteU29(e.w, uint32(memberCount)<<4|uint32(enc)<<2|0x03)
	if trait == nil {
		e.writeString("")
		return nil
	}
	if err := e.writeString(trait.Name); err != nil {
		return err
	}
	if enc == traitProperty {
		for _, name := range trait.Members {
			if err := e.writeString(name); err != nil {
				return err
			}
		}
	}
	return nil
}
