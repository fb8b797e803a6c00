// Package chunk implements the framing layer that multiplexes logical
// message channels over one byte connection.
//
// A logical message is split into fixed-budget chunks, each prefixed by a
// header that names its channel and, through one of four progressively
// smaller header forms, only the message fields that changed since the
// channel's previous header. The Decoder reverses this: it parses headers,
// merges omitted fields from per-channel state, reassembles payload bytes
// and hands completed messages to a ChannelManager. The Encoder picks
// channels via a Scheduler, diffs each outgoing message header against the
// channel's last sent header to choose the narrowest form, and writes
// header plus payload slice to a Transport.
//
// Both directions are suspend/resume state machines: the decoder's OnData
// consumes whatever the buffered bytes allow and retains the tail, and the
// encoder's Progress emits at most one chunk per call. Neither blocks.
// A decoder/encoder pair serves exactly one connection.
package chunk
