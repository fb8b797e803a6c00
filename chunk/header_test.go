package chunk

import (
	"reflect"
	"testing"

	"github.com/wippyai/rtmp-wire/errors"
)

func TestParseHeaderForms(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Header
		n    int
	}{
		{
			"type 0 short channel",
			[]byte{0x03, 0x00, 0x03, 0xe8, 0x00, 0x00, 0x02, 0x14, 0x05, 0x00, 0x00, 0x00},
			Header{ChannelID: 3, Type: 0, Timestamp: 1000, Length: 2, TypeID: 0x14, StreamID: 5},
			12,
		},
		{
			"type 1 two byte channel",
			[]byte{0x40, 0x0a, 0x00, 0x00, 0x14, 0x00, 0x01, 0x00, 0x09},
			Header{ChannelID: 74, Type: 1, Timestamp: 20, Length: 256, TypeID: 0x09},
			9,
		},
		{
			"type 2 three byte channel",
			[]byte{0x81, 0x2f, 0x01, 0x00, 0x00, 0x64},
			Header{ChannelID: 367, Type: 2, Timestamp: 100},
			6,
		},
		{
			"type 3 continuation",
			[]byte{0xc5},
			Header{ChannelID: 5, Type: 3},
			1,
		},
		{
			"type 2 extended timestamp",
			[]byte{0x84, 0xff, 0xff, 0xff, 0x01, 0x00, 0x00, 0x00},
			Header{ChannelID: 4, Type: 2, Timestamp: 1 << 24},
			8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := parseHeader(tt.data)
			if err != nil {
				t.Fatalf("parseHeader: %v", err)
			}
			if got != tt.want {
				t.Errorf("header = %+v, want %+v", got, tt.want)
			}
			if n != tt.n {
				t.Errorf("consumed %d bytes, want %d", n, tt.n)
			}
		})
	}
}

func TestParseHeaderNeedMoreData(t *testing.T) {
	full := []byte{0x03, 0x00, 0x03, 0xe8, 0x00, 0x00, 0x02, 0x14, 0x05, 0x00, 0x00, 0x00}
	for cut := 0; cut < len(full); cut++ {
		_, _, err := parseHeader(full[:cut])
		if !errors.IsNeedMoreData(err) {
			t.Fatalf("parseHeader(%d bytes) = %v, want NeedMoreData", cut, err)
		}
	}

	got, n, err := parseHeader(full)
	if err != nil {
		t.Fatalf("full header: %v", err)
	}
	if n != len(full) || got.Timestamp != 1000 {
		t.Errorf("full header parsed as %+v (%d bytes)", got, n)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	headers := []Header{
		{ChannelID: 3, Type: 0, Timestamp: 1000, Length: 2, TypeID: 0x14, StreamID: 5},
		{ChannelID: 63, Type: 1, Timestamp: 20, Length: 4096, TypeID: 0x09},
		{ChannelID: 64, Type: 2, Timestamp: 100},
		{ChannelID: 319, Type: 0, Timestamp: 0, Length: 1, TypeID: 1, StreamID: 1},
		{ChannelID: 320, Type: 3},
		{ChannelID: MaxChannelID, Type: 2, Timestamp: 7},
		{ChannelID: 8, Type: 0, Timestamp: 1 << 27, Length: 10, TypeID: 0x08, StreamID: 9},
		{ChannelID: 8, Type: 2, Timestamp: extendedTimestamp},
	}

	for _, h := range headers {
		buf, err := appendHeader(nil, h)
		if err != nil {
			t.Fatalf("appendHeader(%+v): %v", h, err)
		}
		got, n, err := parseHeader(buf)
		if err != nil {
			t.Fatalf("parseHeader(%+v): %v", h, err)
		}
		if n != len(buf) {
			t.Errorf("%+v: consumed %d of %d bytes", h, n, len(buf))
		}
		if !reflect.DeepEqual(got, h) {
			t.Errorf("round trip: got %+v, want %+v", got, h)
		}
	}
}

func TestAppendHeaderRejects(t *testing.T) {
	tests := []struct {
		name string
		h    Header
	}{
		{"reserved channel id", Header{ChannelID: 1, Type: 3}},
		{"channel id overflow", Header{ChannelID: MaxChannelID + 1, Type: 3}},
		{"length overflow", Header{ChannelID: 3, Type: 0, Length: 1 << 24}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := appendHeader(nil, tt.h); err == nil {
				t.Errorf("appendHeader(%+v): expected error", tt.h)
			}
		})
	}
}
