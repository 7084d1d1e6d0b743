package octa

import (
	"encoding/binary"
	"fmt"
	"math"
)

// reader is a little-endian cursor over a caller-owned byte buffer.
// Every accessor fails with ErrTruncated once the buffer is exhausted.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) need(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.pos, r.remaining())
	}
	return nil
}

func (r *reader) getByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) getUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) getUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) getInt32() (int32, error) {
	v, err := r.getUint32()
	return int32(v), err
}

func (r *reader) getFloat32() (float32, error) {
	v, err := r.getUint32()
	return math.Float32frombits(v), err
}

func (r *reader) getBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// writer builds a little-endian byte buffer. Writes cannot fail.
type writer struct {
	buf []byte
}

func (w *writer) putByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) putUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) putUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) putInt32(v int32) {
	w.putUint32(uint32(v))
}

func (w *writer) putFloat32(v float32) {
	w.putUint32(math.Float32bits(v))
}

func (w *writer) putBytes(b []byte) {
	w.buf = append(w.buf, b...)
}
