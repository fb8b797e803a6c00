package amf

import (
	"io"

	"github.com/wippyai/rtmp-wire/errors"
	"github.com/wippyai/rtmp-wire/internal/binary"
)

// Decoder3 decodes AMF3 values. One instance scopes one message and
// carries the three reference tables (objects, strings, traits).
type Decoder3 struct {
	r      *binary.Reader
	objs   valueTable
	strs   stringTable
	traits traitTable
}

// NewDecoder3 creates an AMF3 decoder reading from r.
func NewDecoder3(r Reader) *Decoder3 {
	return &Decoder3{r: binary.NewReader(r)}
}

// newDecoder3 continues on an existing cursor (the AMF0 0x11 switch) with
// fresh reference tables.
func newDecoder3(r *binary.Reader) *Decoder3 {
	return &Decoder3{r: r}
}

// Position returns the number of bytes consumed so far.
func (d *Decoder3) Position() int {
	return d.r.Position()
}

// Decode reads one tagged value.
func (d *Decoder3) Decode() (Value, error) {
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, d.fail("type marker", err)
	}

	switch tag {
	case Marker3Undefined:
		return Undefined{}, nil
	case Marker3Null:
		return Null{}, nil
	case Marker3False:
		return Boolean(false), nil
	case Marker3True:
		return Boolean(true), nil

	case Marker3Integer:
		n, err := d.readU29s("integer")
		if err != nil {
			return nil, err
		}
		return Integer(n), nil

	case Marker3Number:
		f, err := d.r.ReadF64()
		if err != nil {
			return nil, d.fail("number", err)
		}
		return Number(f), nil

	case Marker3String:
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return String(s), nil

	case Marker3XML, Marker3XMLString:
		// XML bodies take no part in string reference tracking; the
		// header is a plain inline length.
		h, err := d.readU29("xml length")
		if err != nil {
			return nil, err
		}
		data, err := d.readBytes(int(h>>1), "xml")
		if err != nil {
			return nil, err
		}
		return XMLDocument(decodeModifiedUTF8(data)), nil

	case Marker3Date:
		h, err := d.readU29("date header")
		if err != nil {
			return nil, err
		}
		if h&1 == 0 {
			return d.objs.get(errors.PhaseDecode, d.r.Position(), int(h>>1))
		}
		ms, err := d.r.ReadF64()
		if err != nil {
			return nil, d.fail("date", err)
		}
		dt := &Date{Millis: ms}
		d.objs.add(dt)
		return dt, nil

	case Marker3Array:
		return d.decodeArray()

	case Marker3Object:
		return d.decodeObject()

	case Marker3ByteArray:
		h, err := d.readU29("byte array length")
		if err != nil {
			return nil, err
		}
		data, err := d.readBytes(int(h>>1), "byte array")
		if err != nil {
			return nil, err
		}
		return ByteArray(data), nil

	default:
		return nil, errors.UnknownTag(errors.PhaseDecode, d.r.Position()-1, tag)
	}
}

// readString reads a string header and either resolves a back-reference
// or reads the inline bytes, registering non-empty results.
func (d *Decoder3) readString() (string, error) {
	h, err := d.readU29("string header")
	if err != nil {
		return "", err
	}
	if h&1 == 0 {
		return d.strs.get(d.r.Position(), int(h>>1))
	}
	data, err := d.readBytes(int(h>>1), "string")
	if err != nil {
		return "", err
	}
	s := decodeModifiedUTF8(data)
	d.strs.add(s)
	return s, nil
}

// decodeArray reads a mixed array: associative pairs up to an empty key,
// then the declared number of dense elements. The array is registered
// before its contents so self-references resolve.
func (d *Decoder3) decodeArray() (Value, error) {
	h, err := d.readU29("array header")
	if err != nil {
		return nil, err
	}
	if h&1 == 0 {
		return d.objs.get(errors.PhaseDecode, d.r.Position(), int(h>>1))
	}
	denseCount := h >> 1

	arr := &Array{}
	d.objs.add(arr)

	for {
		key, err := d.readString()
		if err != nil {
			return nil, err
		}
		if key == "" {
			break
		}
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		arr.Assoc = append(arr.Assoc, Member{Key: key, Value: v})
	}

	for i := uint32(0); i < denseCount; i++ {
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		arr.Dense = append(arr.Dense, v)
	}
	return arr, nil
}

// decodeObject reads an object header, resolving it as an object
// back-reference, a trait back-reference, or an inline trait, then the
// instance body the trait dictates.
func (d *Decoder3) decodeObject() (Value, error) {
	h, err := d.readU29("object header")
	if err != nil {
		return nil, err
	}
	if h&1 == 0 {
		return d.objs.get(errors.PhaseDecode, d.r.Position(), int(h>>1))
	}

	var trait *Trait
	if h&2 == 0 {
		trait, err = d.traits.get(d.r.Position(), int(h>>2))
		if err != nil {
			return nil, err
		}
	} else {
		trait, err = d.decodeTrait(h)
		if err != nil {
			return nil, err
		}
	}

	if trait.Externalizable {
		ext := &Externalized{Trait: trait}
		d.objs.add(ext)
		inner, err := d.Decode()
		if err != nil {
			return nil, err
		}
		ext.Inner = inner
		return ext, nil
	}

	obj := &Object{Trait: trait}
	if trait.Name == "" && len(trait.Members) == 0 {
		// Anonymous trait with no fixed layout: surface the object as
		// plain anonymous.
		obj.Trait = nil
	}
	d.objs.add(obj)

	for _, name := range trait.Members {
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, Member{Key: name, Value: v})
	}
	if trait.Dynamic {
		for {
			key, err := d.readString()
			if err != nil {
				return nil, err
			}
			if key == "" {
				break
			}
			v, err := d.Decode()
			if err != nil {
				return nil, err
			}
			obj.Members = append(obj.Members, Member{Key: key, Value: v})
		}
	}
	return obj, nil
}

// decodeTrait reads an inline trait from the remaining header bits and
// registers it. Traits are immutable once registered.
func (d *Decoder3) decodeTrait(h uint32) (*Trait, error) {
	name, err := d.readString()
	if err != nil {
		return nil, err
	}

	trait := &Trait{Name: name}
	switch enc := (h >> 2) & 0x03; {
	case enc&traitExternalizable != 0:
		trait.Externalizable = true
	case enc&traitValue != 0:
		trait.Dynamic = true
	default:
		count := int(h >> 4)
		for i := 0; i < count; i++ {
			member, err := d.readString()
			if err != nil {
				return nil, err
			}
			trait.Members = append(trait.Members, member)
		}
	}
	d.traits.add(trait)
	return trait, nil
}

func (d *Decoder3) readU29(what string) (uint32, error) {
	v, err := ReadU29(d.r)
	if err != nil {
		return 0, d.fail(what, err)
	}
	return v, nil
}

func (d *Decoder3) readU29s(what string) (int32, error) {
	v, err := ReadU29s(d.r)
	if err != nil {
		return 0, d.fail(what, err)
	}
	return v, nil
}

func (d *Decoder3) readBytes(n int, what string) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	data, err := d.r.ReadBytes(n)
	if err != nil {
		return nil, d.fail(what, err)
	}
	return data, nil
}

func (d *Decoder3) fail(what string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Truncated(errors.PhaseDecode, d.r.Position(), what)
	}
	return err
}
