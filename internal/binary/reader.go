package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader wraps a byte source with position tracking and the big-endian read
// methods used by the AMF wire formats.
type Reader struct {
	r   ByteSource
	pos int
}

// ByteSource is the minimal interface the Reader consumes. *bytes.Reader
// and *bufio.Reader both satisfy it.
type ByteSource interface {
	io.Reader
	io.ByteReader
}

// NewReader creates a new Reader wrapping the given source.
func NewReader(r ByteSource) *Reader {
	return &Reader{r: r}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	r.pos += n
	return buf, nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	r.pos += 2
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadS16 reads a big-endian int16.
func (r *Reader) ReadS16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	r.pos += 4
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadF64 reads a big-endian float64.
func (r *Reader) ReadF64() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	r.pos += 8
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}
