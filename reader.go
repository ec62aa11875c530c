package raw

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// A Source is the byte source a Reader decodes from. Only sequential
// reads and rewinding to the very beginning are required of it; the
// Reader synthesizes random access on top by rewinding and skipping
// forward. That makes SeekTo cost O(offset), which is fine because
// directories are laid out in roughly increasing offset order.
type Source interface {
	io.Reader

	// Rewind repositions the source at its first byte.
	Rewind() error
}

type seekSource struct {
	io.ReadSeeker
}

func (s seekSource) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// NewSource adapts an io.ReadSeeker (an *os.File, a *bytes.Reader)
// into a Source. Only seeks to the start are ever issued.
func NewSource(rs io.ReadSeeker) Source {
	return seekSource{rs}
}

// A Reader decodes TIFF primitive values from a Source. It owns the
// byte order detected from the container header, the current logical
// position and a single rewindable mark. It is not safe for concurrent
// use: the mark and position are mutated in place, so two callers
// sharing one Reader would corrupt each other's position. Callers
// needing parallelism must open distinct Sources.
type Reader struct {
	src   Source
	order binary.ByteOrder
	pos   int64
	mark  int64

	ignoreUnknownTags bool

	scratch [8]byte
}

// NewReader validates the container header of src and positions the
// stream at the first directory. The header is 2 bytes of byte-order
// magic ("II" little-endian, "MM" big-endian), a 2-byte version that
// must be at least 42, and a 4-byte even offset, at least as large as
// the header itself, to the first directory.
//
// When ignoreUnknownTags is true, unrecognized tag numbers decode to
// TagUnknown instead of failing the parse.
func NewReader(src Source, ignoreUnknownTags bool) (*Reader, error) {
	r := &Reader{src: src, ignoreUnknownTags: ignoreUnknownTags}

	magic := make([]byte, 2)
	if err := r.ReadFull(magic); err != nil {
		return nil, err
	}
	switch string(magic) {
	case leMagic:
		r.order = binary.LittleEndian
	case beMagic:
		r.order = binary.BigEndian
	default:
		return nil, FormatError(fmt.Sprintf("invalid endianness specification %q", magic))
	}

	version, err := r.ReadInt16()
	if err != nil {
		return nil, err
	}
	if version < tiffVersion {
		return nil, FormatError(fmt.Sprintf("bad version %d", version))
	}

	offset, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}
	if offset < headerLen {
		return nil, FormatError(fmt.Sprintf("first directory offset %d is smaller than the header", offset))
	}

	return r, r.SeekTo(int64(offset))
}

// ByteOrder returns the byte order detected from the header.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// SeekTo rewinds the source to its start and reads forward to offset.
// The name avoids colliding with io.Seeker's method set, which this
// stream does not satisfy.
func (r *Reader) SeekTo(offset int64) error {
	if err := r.src.Rewind(); err != nil {
		return err
	}
	r.pos = 0
	return r.Skip(offset)
}

// Mark bookmarks the current position. The slot holds a single mark;
// a second call overwrites the first.
func (r *Reader) Mark() {
	r.mark = r.pos
}

// Reset seeks back to the last mark.
func (r *Reader) Reset() error {
	return r.SeekTo(r.mark)
}

// Skip consumes n bytes. Partial skips are a normal occurrence on
// buffered sources and are retried until the full count is consumed;
// only end-of-stream is an error.
func (r *Reader) Skip(n int64) error {
	var skipped int64
	for skipped < n {
		m, err := io.CopyN(io.Discard, r.src, n-skipped)
		skipped += m
		r.pos += m
		if err == io.EOF {
			return TruncationError(fmt.Sprintf("skipped %d of %d bytes", skipped, n))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadFull fills p, stopping only at end-of-stream or full
// satisfaction.
func (r *Reader) ReadFull(p []byte) error {
	n, err := io.ReadFull(r.src, p)
	r.pos += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return TruncationError(fmt.Sprintf("read %d of %d bytes", n, len(p)))
	}
	return err
}

// ReadUint8 reads TIFF's BYTE type, a 1-byte unsigned integer.
func (r *Reader) ReadUint8() (uint8, error) {
	b := r.scratch[:1]
	if err := r.ReadFull(b); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads TIFF's SBYTE type, a 1-byte signed integer.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadUint16 reads TIFF's SHORT type, a 2-byte unsigned integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b := r.scratch[:2]
	if err := r.ReadFull(b); err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// ReadInt16 reads TIFF's SSHORT type, a 2-byte signed integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads TIFF's LONG type, a 4-byte unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b := r.scratch[:4]
	if err := r.ReadFull(b); err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// ReadInt32 reads TIFF's SLONG type, a 4-byte signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads TIFF's FLOAT type, a 4-byte IEEE value.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads TIFF's DOUBLE type, an 8-byte IEEE value.
func (r *Reader) ReadFloat64() (float64, error) {
	b := r.scratch[:8]
	if err := r.ReadFull(b); err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(b)), nil
}

// ReadRational reads TIFF's RATIONAL type, two LONGs.
func (r *Reader) ReadRational() (Rational, error) {
	num, err := r.ReadUint32()
	if err != nil {
		return Rational{}, err
	}
	den, err := r.ReadUint32()
	if err != nil {
		return Rational{}, err
	}
	return Rational{Num: int64(num), Den: int64(den)}, nil
}

// ReadSRational reads TIFF's SRATIONAL type, two SLONGs.
func (r *Reader) ReadSRational() (SRational, error) {
	num, err := r.ReadInt32()
	if err != nil {
		return SRational{}, err
	}
	den, err := r.ReadInt32()
	if err != nil {
		return SRational{}, err
	}
	return SRational{Num: num, Den: den}, nil
}

// ReadASCII reads TIFF's ASCII type: length bytes of which the last
// must be the NUL terminator.
func (r *Reader) ReadASCII(length uint32) (string, error) {
	if length == 0 {
		return "", FormatError("empty ASCII value")
	}
	b := make([]byte, length)
	if err := r.ReadFull(b); err != nil {
		return "", err
	}
	if b[length-1] != 0 {
		return "", FormatError("non NUL-terminated string")
	}
	return string(b[:length-1]), nil
}

// ReadOffset reads a file offset, a LONG that the container requires
// to be even.
func (r *Reader) ReadOffset() (uint32, error) {
	offset, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	if offset%2 != 0 {
		return 0, FormatError(fmt.Sprintf("offset %d is not even", offset))
	}
	return offset, nil
}

// ReadTag maps a raw 2-byte code to the closed Tag set. Unknown codes
// fail with FormatError unless the reader tolerates them, in which
// case they decode to TagUnknown.
func (r *Reader) ReadTag() (Tag, error) {
	code, err := r.ReadUint16()
	if err != nil {
		return TagUnknown, err
	}
	if t, ok := tags[code]; ok {
		return t, nil
	}
	if r.ignoreUnknownTags {
		return TagUnknown, nil
	}
	return TagUnknown, FormatError(fmt.Sprintf("unknown tag #%d", code))
}

// ReadType maps a raw 2-byte code to the Type set. Codes above the
// valid range decode to TypeUnexpected so the entry can be skipped;
// zero and below fail, since nothing sane produces them.
func (r *Reader) ReadType() (Type, error) {
	code, err := r.ReadUint16()
	if err != nil {
		return TypeUnexpected, err
	}
	if code < 1 {
		return TypeUnexpected, FormatError(fmt.Sprintf("invalid value for type field: %d", code))
	}
	if code > 12 {
		return TypeUnexpected, nil
	}
	return Type(code), nil
}
