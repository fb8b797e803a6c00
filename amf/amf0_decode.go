package amf

import (
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/rtmp-wire/errors"
	"github.com/wippyai/rtmp-wire/internal/binary"
)

// Reader is the byte source consumed by decoders. *bytes.Reader and
// *bufio.Reader both satisfy it.
type Reader interface {
	io.Reader
	io.ByteReader
}

// Decoder0 decodes AMF0 values. One instance scopes one message: the
// object reference table persists across Decode calls and must not be
// shared between messages.
type Decoder0 struct {
	r    *binary.Reader
	objs valueTable
}

// NewDecoder0 creates an AMF0 decoder reading from r.
func NewDecoder0(r Reader) *Decoder0 {
	return &Decoder0{r: binary.NewReader(r)}
}

// Position returns the number of bytes consumed so far.
func (d *Decoder0) Position() int {
	return d.r.Position()
}

// Decode reads one tagged value. Tag 0x11 switches the remainder of the
// cursor to AMF3 for that value, with fresh AMF3 reference tables.
func (d *Decoder0) Decode() (Value, error) {
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, d.fail("type marker", err)
	}

	switch tag {
	case Marker0Number:
		f, err := d.r.ReadF64()
		if err != nil {
			return nil, d.fail("number", err)
		}
		return Number(f), nil

	case Marker0Boolean:
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, d.fail("boolean", err)
		}
		return Boolean(b != 0), nil

	case Marker0String:
		s, err := d.readShortString()
		if err != nil {
			return nil, err
		}
		return String(s), nil

	case Marker0Object:
		return d.decodeObject(nil)

	case Marker0MovieClip:
		return nil, errors.New(errors.PhaseDecode, errors.KindMalformed).
			Offset(d.r.Position() - 1).
			Tag(tag).
			Detail("movieclip is reserved and has no defined encoding").
			Build()

	case Marker0Null:
		return Null{}, nil

	case Marker0Undefined, Marker0Unsupported:
		return Undefined{}, nil

	case Marker0Reference:
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, d.fail("reference index", err)
		}
		return d.objs.get(errors.PhaseDecode, d.r.Position(), int(idx))

	case Marker0ECMAArray:
		return d.decodeECMAArray()

	case Marker0StrictArray:
		return d.decodeStrictArray()

	case Marker0Date:
		ms, err := d.r.ReadF64()
		if err != nil {
			return nil, d.fail("date", err)
		}
		tz, err := d.r.ReadS16()
		if err != nil {
			return nil, d.fail("date timezone", err)
		}
		return &Date{Millis: ms, TZOffsetMinutes: tz}, nil

	case Marker0LongString:
		s, err := d.readLongString()
		if err != nil {
			return nil, err
		}
		return String(s), nil

	case Marker0XMLDocument:
		s, err := d.readLongString()
		if err != nil {
			return nil, err
		}
		return XMLDocument(s), nil

	case Marker0TypedObject:
		// The class name is advisory metadata; the body decodes like a
		// plain object.
		name, err := d.readShortString()
		if err != nil {
			return nil, err
		}
		return d.decodeObject(&Trait{Name: name})

	case Marker0SwitchAMF3:
		// The rest of this value decodes as AMF3 on the same cursor,
		// with its own reference-table scope.
		return newDecoder3(d.r).Decode()

	default:
		return nil, errors.UnknownTag(errors.PhaseDecode, d.r.Position()-1, tag)
	}
}

// decodeObject reads (key, value) pairs until a zero-length key followed
// by the terminator byte. The object is registered before its members so
// self-references resolve.
func (d *Decoder0) decodeObject(trait *Trait) (Value, error) {
	obj := &Object{Trait: trait}
	d.objs.add(obj)

	for {
		key, err := d.readShortString()
		if err != nil {
			return nil, err
		}
		if key == "" {
			term, err := d.r.ReadByte()
			if err != nil {
				return nil, d.fail("object terminator", err)
			}
			if term != Marker0ObjectEnd {
				return nil, errors.Malformed(errors.PhaseDecode, d.r.Position()-1,
					"empty key not followed by object terminator")
			}
			return obj, nil
		}
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		obj.Members = append(obj.Members, Member{Key: key, Value: v})
	}
}

// decodeECMAArray reads the u32 element-count hint (advisory only), then
// object-style pairs, then promotes integer-parsable keys.
func (d *Decoder0) decodeECMAArray() (Value, error) {
	if _, err := d.r.ReadU32(); err != nil {
		return nil, d.fail("ecma array count", err)
	}

	arr := &Array{}
	d.objs.add(arr)

	var ints []IntMember
	for {
		key, err := d.readShortString()
		if err != nil {
			return nil, err
		}
		if key == "" {
			term, err := d.r.ReadByte()
			if err != nil {
				return nil, d.fail("ecma array terminator", err)
			}
			if term != Marker0ObjectEnd {
				return nil, errors.Malformed(errors.PhaseDecode, d.r.Position()-1,
					"empty key not followed by object terminator")
			}
			break
		}
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		if n, perr := strconv.Atoi(key); perr == nil && n >= 0 {
			ints = append(ints, IntMember{Index: n, Value: v})
		} else {
			arr.Assoc = append(arr.Assoc, Member{Key: key, Value: v})
		}
	}

	promoteIntMembers(arr, ints)
	return arr, nil
}

// promoteIntMembers folds integer-keyed members forming a contiguous
// 0..n-1 prefix into the dense portion; the rest stay as sparse members.
func promoteIntMembers(arr *Array, ints []IntMember) {
	byIndex := make(map[int]Value, len(ints))
	for _, m := range ints {
		if _, dup := byIndex[m.Index]; !dup {
			byIndex[m.Index] = m.Value
		}
	}
	n := 0
	for {
		v, ok := byIndex[n]
		if !ok {
			break
		}
		arr.Dense = append(arr.Dense, v)
		n++
	}
	for _, m := range ints {
		if m.Index >= n {
			arr.Extra = append(arr.Extra, m)
		}
	}
}

// decodeStrictArray reads exactly count positional elements. The array is
// registered before its elements so self-references resolve.
func (d *Decoder0) decodeStrictArray() (Value, error) {
	count, err := d.r.ReadU32()
	if err != nil {
		return nil, d.fail("strict array count", err)
	}

	arr := &Array{}
	d.objs.add(arr)
	for i := uint32(0); i < count; i++ {
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		arr.Dense = append(arr.Dense, v)
	}
	return arr, nil
}

func (d *Decoder0) readShortString() (string, error) {
	n, err := d.r.ReadU16()
	if err != nil {
		return "", d.fail("string length", err)
	}
	return d.readStringBytes(int(n))
}

func (d *Decoder0) readLongString() (string, error) {
	n, err := d.r.ReadU32()
	if err != nil {
		return "", d.fail("long string length", err)
	}
	return d.readStringBytes(int(n))
}

func (d *Decoder0) readStringBytes(n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	data, err := d.r.ReadBytes(n)
	if err != nil {
		return "", d.fail("string", err)
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, d.r.Position()-n, data)
	}
	return string(data), nil
}

// fail maps io errors from the cursor to a truncation error with context.
func (d *Decoder0) fail(what string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Truncated(errors.PhaseDecode, d.r.Position(), what)
	}
	return err
}
