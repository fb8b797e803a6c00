package amf

// AMF0 type markers
const (
	Marker0Number      byte = 0x00
	Marker0Boolean     byte = 0x01
	Marker0String      byte = 0x02
	Marker0Object      byte = 0x03
	Marker0MovieClip   byte = 0x04 // reserved, never implemented by players
	Marker0Null        byte = 0x05
	Marker0Undefined   byte = 0x06
	Marker0Reference   byte = 0x07
	Marker0ECMAArray   byte = 0x08
	Marker0ObjectEnd   byte = 0x09
	Marker0StrictArray byte = 0x0a
	Marker0Date        byte = 0x0b
	Marker0LongString  byte = 0x0c
	Marker0Unsupported byte = 0x0e
	Marker0XMLDocument byte = 0x0f
	Marker0TypedObject byte = 0x10
	Marker0SwitchAMF3  byte = 0x11
)

// AMF3 type markers
const (
	Marker3Undefined byte = 0x00
	Marker3Null      byte = 0x01
	Marker3False     byte = 0x02
	Marker3True      byte = 0x03
	Marker3Integer   byte = 0x04
	Marker3Number    byte = 0x05
	Marker3String    byte = 0x06
	Marker3XML       byte = 0x07
	Marker3Date      byte = 0x08
	Marker3Array     byte = 0x09
	Marker3Object    byte = 0x0a
	Marker3XMLString byte = 0x0b
	Marker3ByteArray byte = 0x0c
)

// AMF3 trait encodings, the 2-bit selector inside an inline trait header
const (
	traitProperty       = 0x00 // fixed member list, count in header bits 4+
	traitExternalizable = 0x01 // opaque nested value follows
	traitValue          = 0x02 // dynamic name/value pairs until empty name
)

// Integer bounds of the signed 29-bit range
const (
	MaxInt29 = 1<<28 - 1
	MinInt29 = -(1 << 28)
)

// longStringThreshold is the largest byte length encodable as a short
// AMF0 string; longer strings use the LongString form.
const longStringThreshold = 0xFFFF

// maxInlineLength is the largest length an inline AMF3 header can carry:
// the header stores length<<1|1, leaving 28 bits for the length itself.
const maxInlineLength = 1<<28 - 1
