package amf

// Value is the tagged value model shared by both format versions. The set
// of implementations is closed: scalars are value types, composites are
// pointers so that reference tracking can use identity.
type Value interface {
	amfValue()
}

// Null is the AMF null value.
type Null struct{}

// Undefined is the AMF undefined value. AMF0's Unsupported tag (0x0e) also
// decodes to Undefined; it carries no payload.
type Undefined struct{}

// Boolean is an AMF boolean.
type Boolean bool

// Number is the 8-byte float used for all AMF0 numbers and AMF3 doubles.
type Number float64

// Integer is the AMF3 signed 29-bit integer. Values outside the 29-bit
// range are encoded as Number.
type Integer int32

// String is a UTF-8 string.
type String string

// XMLDocument holds raw XML markup. AMF0 tag 0x0f and AMF3 tags 0x07/0x0b
// both map here; the markup is not parsed.
type XMLDocument string

// ByteArray is an AMF3 opaque byte blob. Each occurrence on the wire is
// independent data; byte arrays are never reference-tracked.
type ByteArray []byte

// Date is a timestamp in milliseconds since the Unix epoch, UTC. The
// timezone offset is carried by AMF0's wire form but does not change the
// instant represented; AMF3 dates always encode offset 0.
type Date struct {
	Millis          float64
	TZOffsetMinutes int16
}

// Member is one key/value pair of an object or the associative portion of
// an array. Member order is the wire order.
type Member struct {
	Key   string
	Value Value
}

// IntMember is an integer-keyed array member outside the dense prefix.
// AMF0 ECMA arrays produce these when a key parses as a non-negative
// integer but leaves a gap.
type IntMember struct {
	Index int
	Value Value
}

// Array is the array composite for both versions. A pure dense array has
// only Dense populated. AMF0 ECMA arrays and AMF3 mixed arrays populate
// Assoc (string-keyed members, wire order) and Extra (sparse integer keys).
type Array struct {
	Dense []Value
	Assoc []Member
	Extra []IntMember
}

// IsDense reports whether the array has only positional members.
func (a *Array) IsDense() bool {
	return len(a.Assoc) == 0 && len(a.Extra) == 0
}

// Trait is an AMF3 class descriptor shared by reference across object
// instances. Once registered in a decode context a trait is immutable.
// Members lists the fixed property layout; dynamic members discovered
// during decode live on the object, not the trait.
type Trait struct {
	Name           string
	Dynamic        bool
	Externalizable bool
	Members        []string
}

// Object is a typed or anonymous object. Trait is nil for AMF0 plain
// objects and for anonymous AMF3 objects written without a class; AMF0
// typed objects carry a Trait holding only the advisory class name.
// Members holds fixed members first (in trait order), then any dynamic
// members in wire order.
type Object struct {
	Trait   *Trait
	Members []Member
}

// Member returns the value for key and whether it was present.
func (o *Object) Member(key string) (Value, bool) {
	for _, m := range o.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Externalized is an AMF3 object whose trait is marked externalizable: the
// wire carries one opaque nested value in place of a member list.
type Externalized struct {
	Trait *Trait
	Inner Value
}

func (Null) amfValue()          {}
func (Undefined) amfValue()     {}
func (Boolean) amfValue()       {}
func (Number) amfValue()        {}
func (Integer) amfValue()       {}
func (String) amfValue()        {}
func (XMLDocument) amfValue()   {}
func (ByteArray) amfValue()     {}
func (*Date) amfValue()         {}
func (*Array) amfValue()        {}
func (*Object) amfValue()       {}
func (*Externalized) amfValue() {}
