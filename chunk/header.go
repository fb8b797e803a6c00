package chunk

import (
	"encoding/binary"

	"github.com/wippyai/rtmp-wire/errors"
)

// DefaultChunkSize is the chunk payload budget before any negotiation.
const DefaultChunkSize = 128

// MaxChannelID is the largest channel id the 3-byte basic header can carry.
const MaxChannelID = 65599

// extendedTimestamp is the 3-byte field sentinel that moves the real
// timestamp into a trailing 4-byte field.
const extendedTimestamp = 0xFFFFFF

// Header is one chunk header with every field materialized. On the wire a
// header carries only the subset its chunk type requires; the decoder
// merges the rest from the channel's previous header. Timestamp holds an
// absolute value for type 0 and a delta for types 1 and 2.
type Header struct {
	ChannelID uint32
	Type      byte
	Timestamp uint32
	Length    uint32
	TypeID    byte
	StreamID  uint32
}

// headerSizes is the message-header byte count per chunk type.
var headerSizes = [4]int{11, 7, 3, 0}

// parseHeader reads one basic+message header from the front of buf and
// returns it with the number of bytes consumed. An incomplete header
// yields a recoverable NeedMoreData; buf is left untouched either way.
func parseHeader(buf []byte) (Header, int, error) {
	if len(buf) < 1 {
		return Header{}, 0, errors.NeedMoreData(errors.PhaseChunk, 1, 0)
	}

	h := Header{Type: buf[0] >> 6}
	n := 1
	switch cs := uint32(buf[0] & 0x3f); cs {
	case 0:
		if len(buf) < 2 {
			return Header{}, 0, errors.NeedMoreData(errors.PhaseChunk, 2, len(buf))
		}
		h.ChannelID = 64 + uint32(buf[1])
		n = 2
	case 1:
		if len(buf) < 3 {
			return Header{}, 0, errors.NeedMoreData(errors.PhaseChunk, 3, len(buf))
		}
		h.ChannelID = 64 + uint32(binary.LittleEndian.Uint16(buf[1:3]))
		n = 3
	default:
		h.ChannelID = cs
	}

	size := headerSizes[h.Type]
	if len(buf) < n+size {
		return Header{}, 0, errors.NeedMoreData(errors.PhaseChunk, n+size, len(buf))
	}
	mh := buf[n : n+size]
	n += size

	switch h.Type {
	case 0:
		h.Timestamp = be24(mh)
		h.Length = be24(mh[3:])
		h.TypeID = mh[6]
		h.StreamID = binary.LittleEndian.Uint32(mh[7:11])
	case 1:
		h.Timestamp = be24(mh)
		h.Length = be24(mh[3:])
		h.TypeID = mh[6]
	case 2:
		h.Timestamp = be24(mh)
	}

	if h.Type < 3 && h.Timestamp == extendedTimestamp {
		if len(buf) < n+4 {
			return Header{}, 0, errors.NeedMoreData(errors.PhaseChunk, n+4, len(buf))
		}
		h.Timestamp = binary.BigEndian.Uint32(buf[n : n+4])
		n += 4
	}

	return h, n, nil
}

// appendHeader encodes h in its minimal wire form onto dst.
func appendHeader(dst []byte, h Header) ([]byte, error) {
	switch {
	case h.ChannelID < 2 || h.ChannelID > MaxChannelID:
		return nil, errors.Overflow(errors.PhaseChunk, h.ChannelID, "basic header channel id")
	case h.ChannelID < 64:
		dst = append(dst, h.Type<<6|byte(h.ChannelID))
	case h.ChannelID < 64+256:
		dst = append(dst, h.Type<<6, byte(h.ChannelID-64))
	default:
		dst = append(dst, h.Type<<6|1)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(h.ChannelID-64))
	}

	ts := h.Timestamp
	extended := h.Type < 3 && ts >= extendedTimestamp
	if extended {
		ts = extendedTimestamp
	}

	switch h.Type {
	case 0:
		if h.Length > 0xFFFFFF {
			return nil, errors.Overflow(errors.PhaseChunk, h.Length, "3-byte message length")
		}
		dst = appendBE24(dst, ts)
		dst = appendBE24(dst, h.Length)
		dst = append(dst, h.TypeID)
		dst = binary.LittleEndian.AppendUint32(dst, h.StreamID)
	case 1:
		if h.Length > 0xFFFFFF {
			return nil, errors.Overflow(errors.PhaseChunk, h.Length, "3-byte message length")
		}
		dst = appendBE24(dst, ts)
		dst = appendBE24(dst, h.Length)
		dst = append(dst, h.TypeID)
	case 2:
		dst = appendBE24(dst, ts)
	}

	if extended {
		dst = binary.BigEndian.AppendUint32(dst, h.Timestamp)
	}
	return dst, nil
}

func be24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func appendBE24(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>16), byte(v>>8), byte(v))
}
