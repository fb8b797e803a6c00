// Package rtmpwire implements the wire layer of the RTMP streaming protocol:
// the chunked, multiplexed framing layer and the AMF binary value formats it
// carries.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	rtmpwire/            Root package (documentation only)
//	├── amf/             AMF0/AMF3 value model, codecs and reference tables
//	├── chunk/           Chunk-stream framing: header codec, per-channel
//	│                    state, connection decoder and encoder
//	├── envelope/        Legacy AMF remoting envelope (headers + bodies)
//	├── errors/          Structured error types for debugging
//	├── internal/binary  Position-tracking primitive readers and writers
//	└── cmd/wiredump     Capture inspector CLI and TUI
//
// # Data Flow
//
// Inbound, transport bytes flow through the chunk decoder, which reassembles
// logical messages per channel and hands each completed message to a
// ChannelManager. Message payloads are then interpreted as one or more
// tagged AMF values:
//
//	dec := chunk.NewDecoder(manager, chunk.DefaultConfig())
//	if err := dec.OnData(buf); err != nil {
//	    // fatal for the connection
//	}
//
// Outbound, a value is encoded to message bytes, then queued on a channel of
// the chunk encoder, which splits it into chunks and interleaves it with
// other channels:
//
//	enc := chunk.NewEncoder(transport, chunk.DefaultConfig(), nil)
//	enc.Queue(3, chunk.Message{TypeID: 20, StreamID: 1, Payload: body})
//	err := enc.Flush()
//
// # Scope
//
// Connection handshaking, channel lifecycle ownership, message dispatch and
// transport I/O are external collaborators; this library defines only the
// interfaces it consumes (chunk.ChannelManager, chunk.Transport).
package rtmpwire
