package raw_test

import (
	"encoding/binary"
	"sort"

	"github.com/douglasdrumond/raw"
)

// Test fixtures are synthetic in-memory containers, assembled with a
// tiny TIFF writer. Layout: 8-byte header, then for each directory its
// out-of-line data area (entry values larger than 4 bytes, strip
// bytes) followed by the directory block, chained in file order. A
// first pass computes directory start offsets so SubIFD references can
// be encoded, a second pass emits the bytes.

type dirEntry struct {
	tag   raw.Tag
	typ   raw.Type
	count uint32
	value []byte // encoded value, builder order

	subIFD int      // when >= 0, the value is the offset of that directory
	blobs  [][]byte // when set, the value is the offsets of these byte blocks
}

type dirBuilder struct {
	order   binary.ByteOrder
	entries []dirEntry
}

type fileBuilder struct {
	order binary.ByteOrder
	dirs  []*dirBuilder
}

func newFile(order binary.ByteOrder) *fileBuilder {
	return &fileBuilder{order: order}
}

func (f *fileBuilder) dir() *dirBuilder {
	d := &dirBuilder{order: f.order}
	f.dirs = append(f.dirs, d)
	return d
}

func (d *dirBuilder) add(tag raw.Tag, typ raw.Type, count uint32, value []byte) *dirBuilder {
	d.entries = append(d.entries, dirEntry{tag: tag, typ: typ, count: count, value: value, subIFD: -1})
	return d
}

func (d *dirBuilder) addSubIFD(index int) *dirBuilder {
	d.entries = append(d.entries, dirEntry{tag: raw.TagSubIFDs, typ: raw.TypeLong, count: 1, subIFD: index})
	return d
}

// addStrips stores each block out-of-line and exposes their offsets
// under offsetsTag, their lengths under countsTag.
func (d *dirBuilder) addStrips(offsetsTag, countsTag raw.Tag, blocks ...[]byte) *dirBuilder {
	d.entries = append(d.entries, dirEntry{
		tag:    offsetsTag,
		typ:    raw.TypeLong,
		count:  uint32(len(blocks)),
		subIFD: -1,
		blobs:  blocks,
	})
	counts := make([]uint32, len(blocks))
	for i, b := range blocks {
		counts[i] = uint32(len(b))
	}
	return d.longs(countsTag, counts...)
}

func (d *dirBuilder) shorts(tag raw.Tag, vs ...uint16) *dirBuilder {
	value := make([]byte, 2*len(vs))
	for i, v := range vs {
		d.order.PutUint16(value[2*i:], v)
	}
	return d.add(tag, raw.TypeShort, uint32(len(vs)), value)
}

func (d *dirBuilder) longs(tag raw.Tag, vs ...uint32) *dirBuilder {
	value := make([]byte, 4*len(vs))
	for i, v := range vs {
		d.order.PutUint32(value[4*i:], v)
	}
	return d.add(tag, raw.TypeLong, uint32(len(vs)), value)
}

func (d *dirBuilder) ascii(tag raw.Tag, s string) *dirBuilder {
	return d.add(tag, raw.TypeASCII, uint32(len(s)+1), append([]byte(s), 0))
}

func (d *dirBuilder) rationals(tag raw.Tag, pairs ...uint32) *dirBuilder {
	value := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		d.order.PutUint32(value[4*i:], v)
	}
	return d.add(tag, raw.TypeRational, uint32(len(pairs)/2), value)
}

func (d *dirBuilder) srationals(tag raw.Tag, pairs ...int32) *dirBuilder {
	value := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		d.order.PutUint32(value[4*i:], uint32(v))
	}
	return d.add(tag, raw.TypeSRational, uint32(len(pairs)/2), value)
}

// identity adds a 3×3 identity matrix under the tag.
func (d *dirBuilder) identity(tag raw.Tag) *dirBuilder {
	return d.srationals(tag,
		1, 1, 0, 1, 0, 1,
		0, 1, 1, 1, 0, 1,
		0, 1, 0, 1, 1, 1)
}

func (d *dirBuilder) sorted() []dirEntry {
	entries := append([]dirEntry(nil), d.entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })
	return entries
}

// valueSize is the encoded size of the entry's value field content.
func (e dirEntry) valueSize() int {
	switch {
	case e.subIFD >= 0:
		return 4
	case e.blobs != nil:
		return 4 * len(e.blobs)
	}
	return len(e.value)
}

// layout computes each directory's start offset. It must mirror
// build's placement byte for byte.
func (f *fileBuilder) layout() []uint32 {
	starts := make([]uint32, len(f.dirs))
	pos := 8
	for di, d := range f.dirs {
		for _, e := range d.sorted() {
			for _, b := range e.blobs {
				if pos%2 != 0 {
					pos++
				}
				pos += len(b)
			}
			if e.valueSize() > 4 {
				if pos%2 != 0 {
					pos++
				}
				pos += e.valueSize()
			}
		}
		if pos%2 != 0 {
			pos++
		}
		starts[di] = uint32(pos)
		pos += 2 + 12*len(d.entries) + 4
	}
	return starts
}

func (f *fileBuilder) build() []byte {
	starts := f.layout()

	out := make([]byte, 0, 256)
	header := make([]byte, 8)
	if f.order == binary.LittleEndian {
		copy(header, "II")
	} else {
		copy(header, "MM")
	}
	f.order.PutUint16(header[2:], 42)
	f.order.PutUint32(header[4:], starts[0])
	out = append(out, header...)

	pad := func(b []byte) []byte {
		if len(b)%2 != 0 {
			b = append(b, 0)
		}
		return b
	}

	for di, d := range f.dirs {
		entries := d.sorted()

		// Out-of-line data area, then the directory block.
		inline := make([][]byte, len(entries))
		for i, e := range entries {
			value := e.value
			switch {
			case e.subIFD >= 0:
				value = make([]byte, 4)
				f.order.PutUint32(value, starts[e.subIFD])
			case e.blobs != nil:
				value = make([]byte, 0, 4*len(e.blobs))
				for _, b := range e.blobs {
					out = pad(out)
					offset := make([]byte, 4)
					f.order.PutUint32(offset, uint32(len(out)))
					value = append(value, offset...)
					out = append(out, b...)
				}
			}
			if len(value) > 4 {
				out = pad(out)
				offset := make([]byte, 4)
				f.order.PutUint32(offset, uint32(len(out)))
				inline[i] = offset
				out = append(out, value...)
			} else {
				padded := make([]byte, 4)
				copy(padded, value)
				inline[i] = padded
			}
		}
		out = pad(out)

		if uint32(len(out)) != starts[di] {
			panic("builder layout drifted from build")
		}

		block := make([]byte, 2, 2+12*len(entries)+4)
		f.order.PutUint16(block, uint16(len(entries)))
		for i, e := range entries {
			entry := make([]byte, 12)
			f.order.PutUint16(entry[0:], uint16(e.tag))
			f.order.PutUint16(entry[2:], uint16(e.typ))
			f.order.PutUint32(entry[4:], e.count)
			copy(entry[8:], inline[i])
			block = append(block, entry...)
		}
		next := uint32(0)
		if di+1 < len(f.dirs) && f.chained(di+1) {
			next = starts[di+1]
		}
		nextBytes := make([]byte, 4)
		f.order.PutUint32(nextBytes, next)
		out = append(out, block...)
		out = append(out, nextBytes...)
	}
	return out
}

// chained reports whether the directory at index is reached through
// the main chain rather than through a SubIFDs reference.
func (f *fileBuilder) chained(index int) bool {
	for _, d := range f.dirs {
		for _, e := range d.entries {
			if e.subIFD == index {
				return false
			}
		}
	}
	return true
}

// calibrationTags stages identity calibration on the directory: unit
// shot neutral, identical illuminants, identity matrices. The
// camera→XYZ transform collapses to identity.
func calibrationTags(d *dirBuilder) *dirBuilder {
	return d.
		rationals(raw.TagAsShotNeutral, 1, 1, 1, 1, 1, 1).
		shorts(raw.TagCalibrationIlluminant1, 21). // D65
		shorts(raw.TagCalibrationIlluminant2, 21).
		identity(raw.TagCameraCalibration1).
		identity(raw.TagForwardMatrix1).
		identity(raw.TagForwardMatrix2)
}

// imageTags describes an uncompressed 8-bit three-sample image of the
// given geometry with its pixel bytes split into strips.
func imageTags(d *dirBuilder, width, height, rowsPerStrip uint32, strips ...[]byte) *dirBuilder {
	return d.
		longs(raw.TagImageWidth, width).
		longs(raw.TagImageLength, height).
		shorts(raw.TagBitsPerSample, 8, 8, 8).
		shorts(raw.TagSamplesPerPixel, 3).
		longs(raw.TagRowsPerStrip, rowsPerStrip).
		shorts(raw.TagCompression, 1).
		addStrips(raw.TagStripOffsets, raw.TagStripByteCounts, strips...)
}
