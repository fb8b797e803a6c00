package chunk_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/wippyai/rtmp-wire/chunk"
	"github.com/wippyai/rtmp-wire/errors"
)

type fakeTransport struct {
	writes [][]byte
	err    error
}

func (f *fakeTransport) Write(p []byte) error {
	if f.err != nil {
		return f.err
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return nil
}

func newTestEncoder(tr chunk.Transport) *chunk.Encoder {
	return chunk.NewEncoder(tr, chunk.DefaultConfig(), nil)
}

func TestEncoderTypeSequence(t *testing.T) {
	// Three messages on one channel, identical stream/length/type, evenly
	// spaced timestamps. The header narrows from full to type 1 to type 3.
	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	for i, ts := range []uint32{1000, 1020, 1040} {
		e.Queue(3, chunk.Message{Timestamp: ts, TypeID: 0x14, StreamID: 5, Payload: []byte{byte(i)}})
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(tr.writes) != 3 {
		t.Fatalf("wrote %d chunks, want 3", len(tr.writes))
	}
	for i, want := range []byte{0, 1, 3} {
		if typ := tr.writes[i][0] >> 6; typ != want {
			t.Errorf("chunk %d type = %d, want %d", i, typ, want)
		}
	}
}

func TestEncoderDeltaChangeUsesType2(t *testing.T) {
	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	for _, ts := range []uint32{1000, 1020, 1050} {
		e.Queue(3, chunk.Message{Timestamp: ts, TypeID: 0x14, StreamID: 5, Payload: []byte{1}})
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if typ := tr.writes[2][0] >> 6; typ != 2 {
		t.Errorf("third chunk type = %d, want 2", typ)
	}
}

func TestEncoderStreamChangeForcesFullHeader(t *testing.T) {
	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	e.Queue(3, chunk.Message{Timestamp: 10, TypeID: 0x14, StreamID: 1, Payload: []byte{1}})
	e.Queue(3, chunk.Message{Timestamp: 20, TypeID: 0x14, StreamID: 2, Payload: []byte{2}})
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for i := range tr.writes {
		if typ := tr.writes[i][0] >> 6; typ != 0 {
			t.Errorf("chunk %d type = %d, want 0", i, typ)
		}
	}
}

func TestEncoderSplitsLargeMessage(t *testing.T) {
	payload := pattern(300)
	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	e.Queue(3, chunk.Message{Timestamp: 0, TypeID: 0x14, StreamID: 1, Payload: payload})
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// ceil(300/128) chunks; continuations carry a bare type 3 header.
	if len(tr.writes) != 3 {
		t.Fatalf("wrote %d chunks, want 3", len(tr.writes))
	}
	if got := tr.writes[1]; got[0] != 0xc3 || len(got) != 129 {
		t.Errorf("second chunk = % x...", got[:2])
	}
	var rejoined []byte
	rejoined = append(rejoined, tr.writes[0][12:]...)
	rejoined = append(rejoined, tr.writes[1][1:]...)
	rejoined = append(rejoined, tr.writes[2][1:]...)
	if !bytes.Equal(rejoined, payload) {
		t.Error("payload bytes corrupted across chunks")
	}
}

func TestEncoderRoundRobin(t *testing.T) {
	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	e.Queue(3, chunk.Message{TypeID: 0x14, StreamID: 1, Payload: pattern(300)})
	e.Queue(4, chunk.Message{TypeID: 0x09, StreamID: 1, Payload: pattern(300)})
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var order []uint32
	for _, w := range tr.writes {
		order = append(order, uint32(w[0]&0x3f))
	}
	want := []uint32{3, 4, 3, 4, 3, 4}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("service order = %v, want %v", order, want)
	}
}

func TestEncoderPauseResume(t *testing.T) {
	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	e.Queue(3, chunk.Message{TypeID: 0x14, StreamID: 1, Payload: []byte{1}})
	e.Pause()

	progressed, err := e.Progress()
	if err != nil || progressed {
		t.Fatalf("Progress while paused = %v, %v", progressed, err)
	}
	if len(tr.writes) != 0 {
		t.Fatal("paused encoder wrote to the transport")
	}
	if !e.Pending() {
		t.Fatal("pause dropped queued data")
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(tr.writes) != 1 || e.Pending() {
		t.Errorf("resume did not drain: %d writes, pending=%v", len(tr.writes), e.Pending())
	}
}

func TestEncoderTransportFault(t *testing.T) {
	tr := &fakeTransport{err: fmt.Errorf("broken pipe")}
	e := newTestEncoder(tr)
	e.Queue(3, chunk.Message{TypeID: 0x14, StreamID: 1, Payload: []byte{1}})
	err := e.Flush()
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseTransport, Kind: errors.KindTransportFault}) {
		t.Errorf("err = %v, want transport fault", err)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	// Everything queued on the encoder comes out of the decoder with the
	// same payloads, per-channel FIFO order and absolute timestamps.
	type queued struct {
		channel uint32
		msg     chunk.Message
	}
	inputs := []queued{
		{3, chunk.Message{Timestamp: 100, TypeID: 0x14, StreamID: 1, Payload: pattern(300)}},
		{4, chunk.Message{Timestamp: 50, TypeID: 0x09, StreamID: 1, Payload: pattern(129)}},
		{3, chunk.Message{Timestamp: 120, TypeID: 0x14, StreamID: 1, Payload: pattern(300)}},
		{3, chunk.Message{Timestamp: 140, TypeID: 0x14, StreamID: 1, Payload: pattern(300)}},
		{4, chunk.Message{Timestamp: 90, TypeID: 0x09, StreamID: 1, Payload: nil}},
	}

	tr := &fakeTransport{}
	e := newTestEncoder(tr)
	for _, in := range inputs {
		e.Queue(in.channel, in.msg)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	mgr := &collector{}
	d := chunk.NewDecoder(mgr, chunk.DefaultConfig())
	for _, w := range tr.writes {
		if err := d.OnData(w); err != nil {
			t.Fatalf("OnData: %v", err)
		}
	}

	got := map[uint32][]delivered{}
	for _, m := range mgr.msgs {
		got[m.channelID] = append(got[m.channelID], m)
	}
	for _, ch := range []uint32{3, 4} {
		var want []chunk.Message
		for _, in := range inputs {
			if in.channel == ch {
				want = append(want, in.msg)
			}
		}
		if len(got[ch]) != len(want) {
			t.Fatalf("channel %d: delivered %d messages, want %d", ch, len(got[ch]), len(want))
		}
		for i, m := range got[ch] {
			if !bytes.Equal(m.payload, want[i].Payload) {
				t.Errorf("channel %d message %d payload mismatch", ch, i)
			}
			if m.header.Timestamp != want[i].Timestamp {
				t.Errorf("channel %d message %d timestamp = %d, want %d",
					ch, i, m.header.Timestamp, want[i].Timestamp)
			}
			if m.header.TypeID != want[i].TypeID || m.header.StreamID != want[i].StreamID {
				t.Errorf("channel %d message %d header = %+v", ch, i, m.header)
			}
		}
	}
}
