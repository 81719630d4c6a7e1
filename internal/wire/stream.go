// Package wire is the binary form of clustering requests and responses used
// between a client and the service.
package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ContentType is the media type of binary clustering messages.
const ContentType = "application/vnd.matome+binary"

// maxLength bounds the length prefix of strings, byte slices and
// collections read from a stream.
const maxLength = 64 << 20

// maxPrealloc bounds the capacity reserved from a length prefix before the
// elements are actually read.
const maxPrealloc = 1024

// ErrTooLong is returned when a length prefix exceeds maxLength.
var ErrTooLong = errors.New("wire: length prefix too large")

// Writer encodes values to a buffered stream. The first error is kept and
// every later write is a no-op; check it with Err or Flush.
type Writer struct {
	w   *bufio.Writer
	err error
	buf [binary.MaxVarintLen64]byte
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Flush writes buffered data and returns the first error encountered.
func (w *Writer) Flush() error {
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

func (w *Writer) write(p []byte) {
	if w.err == nil {
		_, w.err = w.w.Write(p)
	}
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// WriteVInt writes n as an unsigned varint.
func (w *Writer) WriteVInt(n uint64) {
	w.write(w.buf[:binary.PutUvarint(w.buf[:], n)])
}

// WriteInt32 writes n big-endian.
func (w *Writer) WriteInt32(n int32) {
	w.write(binary.BigEndian.AppendUint32(w.buf[:0], uint32(n)))
}

// WriteInt64 writes n big-endian.
func (w *Writer) WriteInt64(n int64) {
	w.write(binary.BigEndian.AppendUint64(w.buf[:0], uint64(n)))
}

// WriteFloat32 writes the IEEE 754 bits of f.
func (w *Writer) WriteFloat32(f float32) {
	w.write(binary.BigEndian.AppendUint32(w.buf[:0], math.Float32bits(f)))
}

// WriteFloat64 writes the IEEE 754 bits of f.
func (w *Writer) WriteFloat64(f float64) {
	w.write(binary.BigEndian.AppendUint64(w.buf[:0], math.Float64bits(f)))
}

// WriteBool writes b as one byte.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.write([]byte{1})
	} else {
		w.write([]byte{0})
	}
}

// WriteBytes writes a length-prefixed byte slice.
func (w *Writer) WriteBytes(p []byte) {
	w.WriteVInt(uint64(len(p)))
	w.write(p)
}

// WriteString writes a length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) {
	w.WriteVInt(uint64(len(s)))
	if w.err == nil {
		_, w.err = w.w.WriteString(s)
	}
}

// WriteOptionalString writes a presence flag followed by *s when set.
func (w *Writer) WriteOptionalString(s *string) {
	w.WriteBool(s != nil)
	if s != nil {
		w.WriteString(*s)
	}
}

// Reader decodes values written by Writer. Like Writer it keeps the first
// error; reads after a failure return zero values.
type Reader struct {
	r   *bufio.Reader
	err error
	buf [8]byte
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Err returns the first error encountered. A stream that ends mid-value
// reports io.ErrUnexpectedEOF.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

func (r *Reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	p := r.buf[:n]
	if _, err := io.ReadFull(r.r, p); err != nil {
		r.fail(err)
		return nil
	}
	return p
}

// ReadVInt reads an unsigned varint.
func (r *Reader) ReadVInt() uint64 {
	if r.err != nil {
		return 0
	}
	n, err := binary.ReadUvarint(r.r)
	if err != nil {
		r.fail(err)
		return 0
	}
	return n
}

// ReadLength reads a varint length prefix and checks it against the limit.
func (r *Reader) ReadLength() int {
	n := r.ReadVInt()
	if n > maxLength {
		r.fail(fmt.Errorf("%w: %d", ErrTooLong, n))
		return 0
	}
	return int(n)
}

// capacity is the slice or map capacity to reserve for n elements announced
// by a length prefix. Longer collections grow as elements arrive.
func capacity(n int) int {
	return min(n, maxPrealloc)
}

// ReadInt32 reads a big-endian int32.
func (r *Reader) ReadInt32() int32 {
	p := r.read(4)
	if p == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(p))
}

// ReadInt64 reads a big-endian int64.
func (r *Reader) ReadInt64() int64 {
	p := r.read(8)
	if p == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(p))
}

// ReadFloat32 reads an IEEE 754 single.
func (r *Reader) ReadFloat32() float32 {
	p := r.read(4)
	if p == nil {
		return 0
	}
	return math.Float32frombits(binary.BigEndian.Uint32(p))
}

// ReadFloat64 reads an IEEE 754 double.
func (r *Reader) ReadFloat64() float64 {
	p := r.read(8)
	if p == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(p))
}

// ReadBool reads one byte; any value but 0 or 1 is an error.
func (r *Reader) ReadBool() bool {
	p := r.read(1)
	if p == nil {
		return false
	}
	switch p[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(fmt.Errorf("wire: invalid bool byte %#x", p[0]))
		return false
	}
}

// ReadBytes reads a length-prefixed byte slice.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadLength()
	if r.err != nil {
		return nil
	}
	if n == 0 {
		return []byte{}
	}
	var buf bytes.Buffer
	buf.Grow(capacity(n))
	if _, err := io.CopyN(&buf, r.r, int64(n)); err != nil {
		r.fail(err)
		return nil
	}
	return buf.Bytes()
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() string {
	return string(r.ReadBytes())
}

// ReadOptionalString reads a value written by WriteOptionalString.
func (r *Reader) ReadOptionalString() *string {
	if !r.ReadBool() {
		return nil
	}
	s := r.ReadString()
	if r.err != nil {
		return nil
	}
	return &s
}
