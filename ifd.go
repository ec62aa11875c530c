package raw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// A Value is one decoded directory field: a tagged union keyed by the
// TIFF type it was declared with. Accessors fail explicitly when the
// caller expects the wrong shape.
type Value struct {
	Type  Type
	Count uint32

	uints      []uint64
	ints       []int64
	floats     []float64
	rationals  []Rational
	srationals []SRational
	ascii      string
}

// Uints returns the value as unsigned integers (BYTE, SHORT, LONG and
// UNDEFINED entries).
func (v Value) Uints() ([]uint64, error) {
	if v.uints == nil {
		return nil, FormatError(fmt.Sprintf("%v value is not an unsigned integer", v.Type))
	}
	return v.uints, nil
}

// Uint returns the first unsigned integer of the value.
func (v Value) Uint() (uint64, error) {
	u, err := v.Uints()
	if err != nil {
		return 0, err
	}
	if len(u) == 0 {
		return 0, FormatError("empty value")
	}
	return u[0], nil
}

// Ints returns the value as signed integers (SBYTE, SSHORT and SLONG
// entries).
func (v Value) Ints() ([]int64, error) {
	if v.ints == nil {
		return nil, FormatError(fmt.Sprintf("%v value is not a signed integer", v.Type))
	}
	return v.ints, nil
}

// Floats returns the value as floating point numbers (FLOAT and DOUBLE
// entries).
func (v Value) Floats() ([]float64, error) {
	if v.floats == nil {
		return nil, FormatError(fmt.Sprintf("%v value is not floating point", v.Type))
	}
	return v.floats, nil
}

// Rationals returns the value's RATIONAL entries.
func (v Value) Rationals() ([]Rational, error) {
	if v.rationals == nil {
		return nil, FormatError(fmt.Sprintf("%v value is not RATIONAL", v.Type))
	}
	return v.rationals, nil
}

// SRationals returns the value's SRATIONAL entries.
func (v Value) SRationals() ([]SRational, error) {
	if v.srationals == nil {
		return nil, FormatError(fmt.Sprintf("%v value is not SRATIONAL", v.Type))
	}
	return v.srationals, nil
}

// ASCII returns the value's string content.
func (v Value) ASCII() (string, error) {
	if v.Type != TypeASCII {
		return "", FormatError(fmt.Sprintf("%v value is not ASCII", v.Type))
	}
	return v.ascii, nil
}

// String implements Stringer, for debugging.
func (v Value) String() string {
	switch {
	case v.Type == TypeASCII:
		return fmt.Sprintf("%q", v.ascii)
	case v.rationals != nil:
		return fmt.Sprintf("%v", v.rationals)
	case v.srationals != nil:
		return fmt.Sprintf("%v", v.srationals)
	case v.floats != nil:
		return fmt.Sprintf("%v", v.floats)
	case v.ints != nil:
		return fmt.Sprintf("%v", v.ints)
	}
	return fmt.Sprintf("%v", v.uints)
}

// An IFD is one parsed Image File Directory: an ordered mapping from
// tag to decoded value, plus a back-reference to the stream it was read
// from so strip bytes can be retrieved on demand. The tag map is
// immutable once parsed; strip retrieval re-reads the file on each
// call and may be invoked repeatedly and out of order.
type IFD struct {
	r       *Reader
	entries map[Tag]Value
}

// ParseIFD reads one directory at the reader's current position: a
// 2-byte entry count, that many 12-byte entries, and a trailing 4-byte
// offset to the next directory (0 when the chain ends). Values larger
// than 4 bytes live out-of-line and cost a seek, a read and a reset
// back to the entry sequence.
func ParseIFD(r *Reader) (*IFD, uint32, error) {
	ifd := &IFD{r: r, entries: make(map[Tag]Value)}

	count, err := r.ReadUint16()
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < int(count); i++ {
		if err := ifd.parseEntry(); err != nil {
			return nil, 0, err
		}
	}

	next, err := r.ReadOffset()
	if err != nil {
		return nil, 0, err
	}
	return ifd, next, nil
}

func (d *IFD) parseEntry() error {
	tag, err := d.r.ReadTag()
	if err != nil {
		return err
	}
	typ, err := d.r.ReadType()
	if err != nil {
		return err
	}
	count, err := d.r.ReadUint32()
	if err != nil {
		return err
	}

	// Tolerated-unknown tags and unexpected types are skipped by byte
	// count: the 4-byte value field still has to be consumed to stay
	// aligned with the entry sequence.
	if tag == TagUnknown || typ == TypeUnexpected {
		return d.r.Skip(4)
	}

	// The product is computed in 64 bits: a hostile count close to
	// 2³² would otherwise wrap around and masquerade as a small inline
	// value.
	size := uint64(typ.Size()) * uint64(count)
	if size > math.MaxInt32 {
		return FormatError(fmt.Sprintf("tag %v declares %d bytes of data", tag, size))
	}
	if size > 4 {
		offset, err := d.r.ReadOffset()
		if err != nil {
			return err
		}
		// The mark lands on the next entry; the value lives elsewhere.
		d.r.Mark()
		if err := d.r.SeekTo(int64(offset)); err != nil {
			return err
		}
		if err := d.decodeValue(tag, typ, count); err != nil {
			return err
		}
		return d.r.Reset()
	}

	if err := d.decodeValue(tag, typ, count); err != nil {
		return err
	}
	return d.r.Skip(int64(4 - size))
}

func (d *IFD) decodeValue(tag Tag, typ Type, count uint32) error {
	v := Value{Type: typ, Count: count}

	switch typ {
	case TypeByte, TypeUndefined:
		v.uints = make([]uint64, count)
		for i := range v.uints {
			b, err := d.r.ReadUint8()
			if err != nil {
				return err
			}
			v.uints[i] = uint64(b)
		}
	case TypeASCII:
		s, err := d.r.ReadASCII(count)
		if err != nil {
			return err
		}
		v.ascii = s
	case TypeShort:
		v.uints = make([]uint64, count)
		for i := range v.uints {
			u, err := d.r.ReadUint16()
			if err != nil {
				return err
			}
			v.uints[i] = uint64(u)
		}
	case TypeLong:
		v.uints = make([]uint64, count)
		for i := range v.uints {
			u, err := d.r.ReadUint32()
			if err != nil {
				return err
			}
			v.uints[i] = uint64(u)
		}
	case TypeRational:
		v.rationals = make([]Rational, count)
		for i := range v.rationals {
			rat, err := d.r.ReadRational()
			if err != nil {
				return err
			}
			v.rationals[i] = rat
		}
	case TypeSByte:
		v.ints = make([]int64, count)
		for i := range v.ints {
			b, err := d.r.ReadInt8()
			if err != nil {
				return err
			}
			v.ints[i] = int64(b)
		}
	case TypeSShort:
		v.ints = make([]int64, count)
		for i := range v.ints {
			s, err := d.r.ReadInt16()
			if err != nil {
				return err
			}
			v.ints[i] = int64(s)
		}
	case TypeSLong:
		v.ints = make([]int64, count)
		for i := range v.ints {
			s, err := d.r.ReadInt32()
			if err != nil {
				return err
			}
			v.ints[i] = int64(s)
		}
	case TypeSRational:
		v.srationals = make([]SRational, count)
		for i := range v.srationals {
			rat, err := d.r.ReadSRational()
			if err != nil {
				return err
			}
			v.srationals[i] = rat
		}
	case TypeFloat:
		v.floats = make([]float64, count)
		for i := range v.floats {
			f, err := d.r.ReadFloat32()
			if err != nil {
				return err
			}
			v.floats[i] = float64(f)
		}
	case TypeDouble:
		v.floats = make([]float64, count)
		for i := range v.floats {
			f, err := d.r.ReadFloat64()
			if err != nil {
				return err
			}
			v.floats[i] = f
		}
	}

	d.entries[tag] = v
	return nil
}

// Has reports whether the directory carries the tag.
func (d *IFD) Has(tag Tag) bool {
	_, ok := d.entries[tag]
	return ok
}

// Value returns the decoded value of the tag.
func (d *IFD) Value(tag Tag) (Value, bool) {
	v, ok := d.entries[tag]
	return v, ok
}

// Uint is a convenience accessor for scalar integer tags. It fails
// when the tag is absent or not integer-shaped.
func (d *IFD) Uint(tag Tag) (uint64, error) {
	v, ok := d.entries[tag]
	if !ok {
		return 0, FormatError(fmt.Sprintf("missing tag %v", tag))
	}
	return v.Uint()
}

// Uints is the array counterpart of Uint.
func (d *IFD) Uints(tag Tag) ([]uint64, error) {
	v, ok := d.entries[tag]
	if !ok {
		return nil, FormatError(fmt.Sprintf("missing tag %v", tag))
	}
	return v.Uints()
}

// Rationals returns the tag's RATIONAL array.
func (d *IFD) Rationals(tag Tag) ([]Rational, error) {
	v, ok := d.entries[tag]
	if !ok {
		return nil, FormatError(fmt.Sprintf("missing tag %v", tag))
	}
	return v.Rationals()
}

// SRationals returns the tag's SRATIONAL array.
func (d *IFD) SRationals(tag Tag) ([]SRational, error) {
	v, ok := d.entries[tag]
	if !ok {
		return nil, FormatError(fmt.Sprintf("missing tag %v", tag))
	}
	return v.SRationals()
}

// ByteOrder returns the byte order of the stream the directory was
// read from. Strip samples are encoded with it.
func (d *IFD) ByteOrder() binary.ByteOrder {
	return d.r.ByteOrder()
}

// StripBytes retrieves the raw bytes of one strip. The offset and
// byte-count tags may hold a single scalar (one strip total) or an
// array indexed by strip number. The call seeks the underlying stream
// as a side effect, so ambient stream position is not preserved; it is
// safe to call repeatedly and out of order because each call seeks
// absolutely.
func (d *IFD) StripBytes(index int) ([]byte, error) {
	return d.imagePartBytes(index, TagStripOffsets, TagStripByteCounts)
}

// TileBytes is the tile equivalent of StripBytes.
func (d *IFD) TileBytes(index int) ([]byte, error) {
	return d.imagePartBytes(index, TagTileOffsets, TagTileByteCounts)
}

func (d *IFD) imagePartBytes(index int, offsets, byteCounts Tag) ([]byte, error) {
	offs, err := d.Uints(offsets)
	if err != nil {
		return nil, err
	}
	counts, err := d.Uints(byteCounts)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(offs) || index >= len(counts) {
		return nil, FormatError(fmt.Sprintf("image part %d out of range (%d offsets, %d byte counts)", index, len(offs), len(counts)))
	}

	n := counts[index]
	if n > math.MaxInt32 {
		return nil, FormatError(fmt.Sprintf("image part of %d bytes exceeds the representable array length", n))
	}

	if err := d.r.SeekTo(int64(offs[index])); err != nil {
		return nil, err
	}
	part := make([]byte, n)
	if err := d.r.ReadFull(part); err != nil {
		return nil, err
	}
	return part, nil
}

// String implements Stringer. Tags are listed in ascending order.
func (d *IFD) String() string {
	keys := make([]Tag, 0, len(d.entries))
	for t := range d.entries {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	buf := bytes.NewBufferString("")
	for _, t := range keys {
		fmt.Fprintf(buf, "%v: %v\n", t, d.entries[t])
	}
	return buf.String()
}
