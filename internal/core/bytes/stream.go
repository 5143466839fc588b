package bytes

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrOverflow is returned when a 7-bit encoded integer does not fit in 32 bits.
var ErrOverflow = errors.New("7-bit encoded int overflows int32")

// Reader decodes little-endian values from an in-memory buffer.
type Reader struct {
	r *bytes.Reader
}

func NewReader(b []byte) *Reader {
	return &Reader{r: bytes.NewReader(b)}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return r.r.Len() }

func (r *Reader) Read(p []byte) (int, error) { return r.r.Read(p) }

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	return b, err
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	_, err := io.ReadFull(r.r, b)
	return b, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	var v uint16
	err := binary.Read(r.r, binary.LittleEndian, &v)
	return v, eof(err)
}

func (r *Reader) ReadUint32() (uint32, error) {
	var v uint32
	err := binary.Read(r.r, binary.LittleEndian, &v)
	return v, eof(err)
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	var v uint64
	err := binary.Read(r.r, binary.LittleEndian, &v)
	return math.Float64frombits(v), eof(err)
}

// ReadVarint reads a zig-zag encoded signed integer.
func (r *Reader) ReadVarint() (int64, error) {
	v, err := binary.ReadVarint(r.r)
	return v, eof(err)
}

// Read7BitInt reads a 7-bit encoded unsigned integer: seven bits per byte,
// least significant group first, high bit set on every byte but the last.
func (r *Reader) Read7BitInt() (int, error) {
	var result uint32
	for shift := uint(0); ; shift += 7 {
		if shift >= 35 {
			return 0, ErrOverflow
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
	}
	if result > math.MaxInt32 {
		return 0, ErrOverflow
	}
	return int(result), nil
}

// Read7BitString reads a UTF-8 string prefixed by its 7-bit encoded byte length.
func (r *Reader) Read7BitString() (string, error) {
	n, err := r.Read7BitInt()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func eof(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Writer accumulates little-endian values. Writes to the underlying buffer
// cannot fail, so none of its methods return an error.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) WriteBytes(p []byte) { w.buf.Write(p) }

func (w *Writer) WriteUint8(b byte) { w.buf.WriteByte(b) }

func (w *Writer) WriteUint16(v uint16) {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *Writer) WriteFloat64(v float64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

func (w *Writer) WriteVarint(v int64) {
	w.buf.Write(binary.AppendVarint(nil, v))
}

// Write7BitInt writes v in the 7-bit encoding read by Read7BitInt. v must not be negative.
func (w *Writer) Write7BitInt(v int) {
	u := uint32(v)
	for u >= 0x80 {
		w.buf.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	w.buf.WriteByte(byte(u))
}

func (w *Writer) Write7BitString(s string) {
	w.Write7BitInt(len(s))
	w.buf.WriteString(s)
}

// WriteStruct appends the fields of data as BytesFromStruct lays them out.
func (w *Writer) WriteStruct(data interface{}) {
	b, _ := BytesFromStruct(data)
	w.buf.Write(b)
}
