package chunk

import (
	"github.com/wippyai/rtmp-wire/errors"
)

// ChannelManager is the external owner of channel lifecycle. The decoder
// hands it every fully reassembled message; a non-nil error aborts the
// connection.
type ChannelManager interface {
	Deliver(channelID uint32, h Header, payload []byte) error
}

// Config is the connection-scoped chunk-size negotiation state, consulted
// by the decoder for frame sizing and the encoder for chunk splitting.
type Config struct {
	InboundChunkSize  uint32
	OutboundChunkSize uint32
}

// DefaultConfig returns the pre-negotiation configuration.
func DefaultConfig() Config {
	return Config{
		InboundChunkSize:  DefaultChunkSize,
		OutboundChunkSize: DefaultChunkSize,
	}
}

// inChannel is the receive-side state of one logical channel.
type inChannel struct {
	id       uint32
	last     Header
	hasLast  bool
	delta    uint32
	msgHdr   Header
	assembly []byte

	msgRemaining   uint32
	chunkRemaining uint32
}

// Decoder reassembles logical messages from an interleaved chunk stream.
// It is an explicit suspend/resume state machine: OnData consumes as many
// complete headers and frames as the buffered bytes allow and retains the
// unconsumed tail for the next call. A Decoder serves one connection and
// must be driven from a single goroutine.
type Decoder struct {
	mgr       ChannelManager
	chunkSize uint32
	buf       []byte
	channels  map[uint32]*inChannel
	current   *inChannel
}

// NewDecoder creates a decoder delivering completed messages to mgr.
func NewDecoder(mgr ChannelManager, cfg Config) *Decoder {
	size := cfg.InboundChunkSize
	if size == 0 {
		size = DefaultChunkSize
	}
	return &Decoder{
		mgr:       mgr,
		chunkSize: size,
		channels:  make(map[uint32]*inChannel),
	}
}

// SetChunkSize applies a renegotiated inbound chunk size. It affects the
// next chunk boundary, not the one currently in flight.
func (d *Decoder) SetChunkSize(size uint32) {
	if size > 0 {
		d.chunkSize = size
	}
}

// Buffered returns the number of retained, not-yet-consumed input bytes.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Close discards all buffered input and any messages mid-assembly.
func (d *Decoder) Close() {
	d.buf = nil
	d.current = nil
	d.channels = make(map[uint32]*inChannel)
}

// OnData appends newly arrived bytes and makes as much progress as they
// allow. Splitting the same stream across calls at any byte boundary
// yields identical deliveries. A returned error is fatal for the
// connection; only running out of buffered bytes suspends.
func (d *Decoder) OnData(p []byte) error {
	d.buf = append(d.buf, p...)
	off := 0

	for {
		if d.current == nil {
			n, err := d.beginChunk(d.buf[off:])
			if err != nil {
				if errors.IsNeedMoreData(err) {
					break
				}
				return err
			}
			off += n
		}

		ch := d.current
		frame := len(d.buf) - off
		if frame > int(ch.chunkRemaining) {
			frame = int(ch.chunkRemaining)
		}
		if frame > 0 {
			ch.assembly = append(ch.assembly, d.buf[off:off+frame]...)
			off += frame
			ch.chunkRemaining -= uint32(frame)
			ch.msgRemaining -= uint32(frame)
		}

		switch {
		case ch.msgRemaining == 0:
			payload := make([]byte, len(ch.assembly))
			copy(payload, ch.assembly)
			ch.assembly = ch.assembly[:0]
			d.current = nil
			debugf("channel %d: message complete, type 0x%02x, %d bytes",
				ch.id, ch.msgHdr.TypeID, len(payload))
			if err := d.mgr.Deliver(ch.id, ch.msgHdr, payload); err != nil {
				return err
			}
		case ch.chunkRemaining == 0:
			// Chunk budget exhausted mid-message; the next bytes must be
			// a continuation header for this channel.
			d.current = nil
		default:
			// Out of input mid-frame; suspend.
			d.buf = d.buf[:copy(d.buf, d.buf[off:])]
			return nil
		}
	}

	d.buf = d.buf[:copy(d.buf, d.buf[off:])]
	return nil
}

// beginChunk parses the next header, merges it into the channel's state
// and arms the frame counters. It returns the bytes consumed.
func (d *Decoder) beginChunk(buf []byte) (int, error) {
	h, n, err := parseHeader(buf)
	if err != nil {
		return 0, err
	}

	ch := d.channel(h.ChannelID)
	merged, err := ch.merge(h)
	if err != nil {
		return 0, err
	}

	if ch.msgRemaining == 0 {
		ch.msgHdr = merged
		ch.msgRemaining = merged.Length
		ch.assembly = ch.assembly[:0]
	} else if h.Type != 3 {
		return 0, errors.Malformed(errors.PhaseChunk, -1,
			"full header interrupts a message still being assembled")
	}

	ch.chunkRemaining = ch.msgRemaining
	if ch.chunkRemaining > d.chunkSize {
		ch.chunkRemaining = d.chunkSize
	}
	d.current = ch
	return n, nil
}

func (d *Decoder) channel(id uint32) *inChannel {
	ch, ok := d.channels[id]
	if !ok {
		ch = &inChannel{id: id}
		d.channels[id] = ch
	}
	return ch
}

// merge resolves the partial header h against the channel's previous
// header per chunk type: type 0 stands alone, type 1 keeps the stream id,
// type 2 also keeps length and message type, type 3 keeps everything. A
// type 3 header opening a new message advances the timestamp by the last
// delta.
func (c *inChannel) merge(h Header) (Header, error) {
	if h.Type != 0 && !c.hasLast {
		return Header{}, errors.Malformed(errors.PhaseChunk, -1,
			"abbreviated header on a channel with no prior full header")
	}

	merged := c.last
	merged.ChannelID = h.ChannelID
	merged.Type = h.Type
	switch h.Type {
	case 0:
		merged = h
		c.delta = 0
	case 1:
		merged.Timestamp = c.last.Timestamp + h.Timestamp
		merged.Length = h.Length
		merged.TypeID = h.TypeID
		c.delta = h.Timestamp
	case 2:
		merged.Timestamp = c.last.Timestamp + h.Timestamp
		c.delta = h.Timestamp
	case 3:
		if c.msgRemaining == 0 {
			merged.Timestamp = c.last.Timestamp + c.delta
		}
	}

	c.last = merged
	c.hasLast = true
	return merged, nil
}
