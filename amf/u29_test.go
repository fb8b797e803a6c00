package amf_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/rtmp-wire/amf"
)

func TestU29Unsigned(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		bytes []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one byte max", 127, []byte{0x7f}},
		{"two byte min", 128, []byte{0x81, 0x00}},
		{"two byte max", 16383, []byte{0xff, 0x7f}},
		{"three byte min", 16384, []byte{0x81, 0x80, 0x00}},
		{"three byte max", 2097151, []byte{0xff, 0xff, 0x7f}},
		{"four byte min", 2097152, []byte{0x80, 0xc0, 0x80, 0x00}},
		{"four byte max", 268435455, []byte{0xbf, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := amf.EncodeU29(tt.value)
			if !bytes.Equal(got, tt.bytes) {
				t.Errorf("EncodeU29(%d) = %#v, want %#v", tt.value, got, tt.bytes)
			}

			back, err := amf.ReadU29(bytes.NewReader(tt.bytes))
			if err != nil {
				t.Fatalf("ReadU29: %v", err)
			}
			if back != tt.value {
				t.Errorf("ReadU29(%#v) = %d, want %d", tt.bytes, back, tt.value)
			}
		})
	}
}

func TestU29Signed(t *testing.T) {
	tests := []struct {
		name  string
		value int32
		bytes []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"small positive", 5, []byte{0x05}},
		{"max", 1<<28 - 1, []byte{0xbf, 0xff, 0xff, 0xff}},
		{"minus one", -1, []byte{0xff, 0xff, 0xff, 0xff}},
		{"min", -(1 << 28), []byte{0xc0, 0x80, 0x80, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := amf.EncodeU29s(tt.value)
			if !bytes.Equal(got, tt.bytes) {
				t.Errorf("EncodeU29s(%d) = %#v, want %#v", tt.value, got, tt.bytes)
			}

			back, err := amf.ReadU29s(bytes.NewReader(tt.bytes))
			if err != nil {
				t.Fatalf("ReadU29s: %v", err)
			}
			if back != tt.value {
				t.Errorf("ReadU29s(%#v) = %d, want %d", tt.bytes, back, tt.value)
			}
		})
	}
}

func TestU29RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 42, 127, 128, 300, 16383, 16384, 99999, 2097151, 2097152, 1 << 27, 1<<29 - 1}
	for _, v := range values {
		enc := amf.EncodeU29(v)
		back, err := amf.ReadU29(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("ReadU29(%d): %v", v, err)
		}
		if back != v {
			t.Errorf("round trip %d: got %d", v, back)
		}
	}
}

func TestU29Truncated(t *testing.T) {
	for _, in := range [][]byte{{}, {0x81}, {0xff, 0xff}, {0x80, 0xc0, 0x80}} {
		if _, err := amf.ReadU29(bytes.NewReader(in)); err == nil {
			t.Errorf("ReadU29(%#v): expected error on truncated input", in)
		}
	}
}
