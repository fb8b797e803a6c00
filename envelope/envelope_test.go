package envelope_test

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/wippyai/rtmp-wire/amf"
	"github.com/wippyai/rtmp-wire/envelope"
	"github.com/wippyai/rtmp-wire/errors"
)

func TestDecodeEmptyEnvelope(t *testing.T) {
	env, err := envelope.Decode([]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Version != 0 || env.ClientType != 1 || len(env.Headers) != 0 || len(env.Bodies) != 0 {
		t.Errorf("env = %+v", env)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := envelope.Decode([]byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x00})
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseEnvelope, Kind: errors.KindMalformed}) {
		t.Errorf("err = %v, want malformed", err)
	}
}

func TestDecodeBodyWithSentinelLength(t *testing.T) {
	// Some producers write a placeholder length instead of the real one;
	// the declared field must not drive the payload read.
	var data []byte
	data = append(data, 0x00, 0x00) // version, client type
	data = append(data, 0x00, 0x00) // no headers
	data = append(data, 0x00, 0x01) // one body
	data = append(data, 0x00, 0x04)
	data = append(data, "echo"...)
	data = append(data, 0x00, 0x02)
	data = append(data, "/1"...)
	data = append(data, 0xff, 0xff, 0xff, 0xff) // sentinel length
	data = append(data, 0x02, 0x00, 0x02, 'h', 'i')

	env, err := envelope.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(env.Bodies) != 1 {
		t.Fatalf("bodies = %+v", env.Bodies)
	}
	b := env.Bodies[0]
	if b.Target != "echo" || b.Response != "/1" || b.Value != amf.String("hi") {
		t.Errorf("body = %+v", b)
	}
}

func TestEncodeWritesTrueLengths(t *testing.T) {
	env := &envelope.Envelope{
		Version: envelope.VersionAMF0,
		Headers: []envelope.Header{
			{Name: "Credentials", Required: true, Value: amf.String("tok")},
		},
		Bodies: []envelope.Body{
			{Target: "svc.call", Response: "/1", Value: amf.Number(4)},
		},
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Header entry: u16 name len + name + required byte, then the length
	// field, then the payload.
	off := 4 + 2 + len("Credentials") + 1
	hdrLen := binary.BigEndian.Uint32(data[off : off+4])
	// String "tok": marker + u16 + 3 bytes.
	if hdrLen != 6 {
		t.Errorf("header declared length = %d, want 6", hdrLen)
	}
	off += 4 + int(hdrLen)

	off += 2 // body count
	off += 2 + len("svc.call") + 2 + len("/1")
	bodyLen := binary.BigEndian.Uint32(data[off : off+4])
	// Number: marker + 8-byte float.
	if bodyLen != 9 {
		t.Errorf("body declared length = %d, want 9", bodyLen)
	}
	if off+4+int(bodyLen) != len(data) {
		t.Errorf("envelope has %d trailing bytes", len(data)-off-4-int(bodyLen))
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	for _, version := range []uint8{envelope.VersionAMF0, envelope.VersionAMF3} {
		env := &envelope.Envelope{
			Version:    version,
			ClientType: 1,
			Headers: []envelope.Header{
				{Name: "Auth", Required: true, Value: amf.String("secret")},
				{Name: "Hint", Required: false, Value: amf.Null{}},
			},
			Bodies: []envelope.Body{
				{Target: "calc.add", Response: "/1", Value: &amf.Array{
					Dense: []amf.Value{amf.Number(1), amf.Number(2)},
				}},
				{Target: "calc.note", Response: "/2", Value: &amf.Object{
					Members: []amf.Member{{Key: "text", Value: amf.String("ok")}},
				}},
			},
		}

		data, err := env.Encode()
		if err != nil {
			t.Fatalf("version %d Encode: %v", version, err)
		}
		back, err := envelope.Decode(data)
		if err != nil {
			t.Fatalf("version %d Decode: %v", version, err)
		}
		if !reflect.DeepEqual(back, env) {
			t.Errorf("version %d round trip:\n got %+v\nwant %+v", version, back, env)
		}
	}
}

func TestEnvelopePayloadScopesAreIndependent(t *testing.T) {
	// The same composite queued in two bodies must encode in full twice:
	// reference tables do not span payloads.
	shared := &amf.Object{Members: []amf.Member{{Key: "k", Value: amf.Number(1)}}}
	env := &envelope.Envelope{
		Version: envelope.VersionAMF0,
		Bodies: []envelope.Body{
			{Target: "a", Response: "/1", Value: shared},
			{Target: "b", Response: "/2", Value: shared},
		},
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n := bytes.Count(data, []byte{0x00, 0x01, 'k'}); n != 2 {
		t.Errorf("member key appears %d times, want 2 (no cross-payload references)", n)
	}
	back, err := envelope.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(back.Bodies[0].Value, back.Bodies[1].Value) {
		t.Error("payloads decoded unequal")
	}
}

func TestDecodeTruncatedEnvelope(t *testing.T) {
	full := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 'h', 0x01, 0x00, 0x00, 0x00, 0x01, 0x05, 0x00, 0x00}
	for cut := 0; cut < len(full); cut++ {
		if _, err := envelope.Decode(full[:cut]); err == nil {
			t.Errorf("Decode(%d bytes) succeeded on truncated input", cut)
		}
	}
	if _, err := envelope.Decode(full); err != nil {
		t.Fatalf("full envelope: %v", err)
	}
}
