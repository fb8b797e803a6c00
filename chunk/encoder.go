package chunk

import (
	"github.com/wippyai/rtmp-wire/errors"
)

// Transport consumes encoded chunk bytes. A non-nil error is fatal for
// the connection.
type Transport interface {
	Write(p []byte) error
}

// Scheduler picks which channel to serve next among those with pending
// data. The ready slice is ordered by channel creation and never empty.
type Scheduler interface {
	Next(ready []uint32) uint32
}

// roundRobin is the default fair scheduler: each call advances one slot
// past the channel it served last.
type roundRobin struct {
	turn int
}

func (r *roundRobin) Next(ready []uint32) uint32 {
	id := ready[r.turn%len(ready)]
	r.turn++
	return id
}

// Message is one logical outbound message bound for a channel.
type Message struct {
	Timestamp uint32
	TypeID    byte
	StreamID  uint32
	Payload   []byte
}

// outChannel is the send-side state of one logical channel.
type outChannel struct {
	id       uint32
	last     Header
	hasLast  bool
	delta    uint32
	hasDelta bool
	queue    []Message
	sent     int // bytes of queue[0] already written
}

// Encoder splits queued messages into chunks, multiplexing channels onto
// one transport. Each Progress call emits at most one chunk so no channel
// can starve the others. An Encoder serves one connection and must be
// driven from a single goroutine.
type Encoder struct {
	tr        Transport
	sched     Scheduler
	chunkSize uint32
	channels  map[uint32]*outChannel
	order     []uint32
	paused    bool
	scratch   []byte
}

// NewEncoder creates an encoder writing to tr. A nil scheduler selects
// fair round-robin.
func NewEncoder(tr Transport, cfg Config, sched Scheduler) *Encoder {
	size := cfg.OutboundChunkSize
	if size == 0 {
		size = DefaultChunkSize
	}
	if sched == nil {
		sched = &roundRobin{}
	}
	return &Encoder{
		tr:        tr,
		sched:     sched,
		chunkSize: size,
		channels:  make(map[uint32]*outChannel),
	}
}

// SetChunkSize applies a renegotiated outbound chunk size.
func (e *Encoder) SetChunkSize(size uint32) {
	if size > 0 {
		e.chunkSize = size
	}
}

// Queue appends a message to a channel's outbound queue. It does not
// write anything; call Flush or Progress to drive emission.
func (e *Encoder) Queue(channelID uint32, m Message) {
	ch, ok := e.channels[channelID]
	if !ok {
		ch = &outChannel{id: channelID}
		e.channels[channelID] = ch
		e.order = append(e.order, channelID)
	}
	ch.queue = append(ch.queue, m)
}

// Pending reports whether any channel still has bytes to send.
func (e *Encoder) Pending() bool {
	return len(e.ready()) > 0
}

// Pause suspends emission, typically on transport backpressure. Queued
// messages are retained.
func (e *Encoder) Pause() {
	e.paused = true
}

// Resume lifts a pause and drains whatever is ready.
func (e *Encoder) Resume() error {
	e.paused = false
	return e.Flush()
}

// Flush emits chunks until nothing is ready or emission is paused.
func (e *Encoder) Flush() error {
	for {
		progressed, err := e.Progress()
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// Progress emits at most one chunk for the next scheduled channel. It
// reports whether a chunk was written.
func (e *Encoder) Progress() (bool, error) {
	if e.paused {
		return false, nil
	}
	ready := e.ready()
	if len(ready) == 0 {
		return false, nil
	}

	ch := e.channels[e.sched.Next(ready)]
	if err := e.emitChunk(ch); err != nil {
		return false, err
	}
	return true, nil
}

// ready lists channels with pending data in creation order.
func (e *Encoder) ready() []uint32 {
	var ids []uint32
	for _, id := range e.order {
		if len(e.channels[id].queue) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// emitChunk writes one header and up to one chunk-size slice of the
// channel's front message, retiring the message once fully sent.
func (e *Encoder) emitChunk(ch *outChannel) error {
	m := ch.queue[0]

	var h Header
	if ch.sent == 0 {
		h = ch.headerFor(m)
	} else {
		// Continuation of a message already in flight.
		h = Header{ChannelID: ch.id, Type: 3}
	}

	n := len(m.Payload) - ch.sent
	if n > int(e.chunkSize) {
		n = int(e.chunkSize)
	}

	buf, err := appendHeader(e.scratch[:0], h)
	if err != nil {
		return err
	}
	buf = append(buf, m.Payload[ch.sent:ch.sent+n]...)
	e.scratch = buf[:0]

	if err := e.tr.Write(buf); err != nil {
		return errors.TransportFault(err)
	}
	debugf("channel %d: chunk type %d, %d payload bytes", ch.id, h.Type, n)

	ch.sent += n
	if ch.sent >= len(m.Payload) {
		ch.queue = ch.queue[1:]
		ch.sent = 0
	}
	return nil
}

// headerFor picks the narrowest chunk type that reproduces the message's
// header against the channel's last sent header: a changed stream id (or
// a fresh channel) demands type 0; changed length or message type demands
// type 1; a repeating timestamp delta compresses to type 3; otherwise the
// delta alone is sent as type 2.
func (c *outChannel) headerFor(m Message) Header {
	h := Header{
		ChannelID: c.id,
		Timestamp: m.Timestamp,
		Length:    uint32(len(m.Payload)),
		TypeID:    m.TypeID,
		StreamID:  m.StreamID,
	}

	switch {
	case !c.hasLast || m.StreamID != c.last.StreamID:
		h.Type = 0
		c.hasDelta = false
	default:
		delta := m.Timestamp - c.last.Timestamp
		switch {
		case h.Length != c.last.Length || m.TypeID != c.last.TypeID || !c.hasDelta:
			h.Type = 1
			h.Timestamp = delta
		case delta == c.delta:
			h.Type = 3
		default:
			h.Type = 2
			h.Timestamp = delta
		}
		c.delta = delta
		c.hasDelta = true
	}

	c.last = Header{
		ChannelID: c.id,
		Timestamp: m.Timestamp,
		Length:    h.Length,
		TypeID:    m.TypeID,
		StreamID:  m.StreamID,
	}
	c.hasLast = true
	return h
}
