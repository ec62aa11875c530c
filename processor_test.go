package raw_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/douglasdrumond/raw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures the lifecycle calls the engine makes.
type recorder struct {
	calls []string
	first *raw.IFD
	hires *raw.IFD
}

func (r *recorder) FirstIFD(ifd *raw.IFD) error {
	r.calls = append(r.calls, "first")
	r.first = ifd
	return nil
}

func (r *recorder) HighResolutionIFD(ifd *raw.IFD) error {
	r.calls = append(r.calls, "hires")
	r.hires = ifd
	return nil
}

func (r *recorder) End() error {
	r.calls = append(r.calls, "end")
	return nil
}

func TestProcessSingleDirectory(t *testing.T) {
	f := newFile(binary.LittleEndian)
	imageTags(calibrationTags(f.dir()), 2, 2, 2, make([]byte, 12))

	var rec recorder
	err := raw.Process(raw.NewSource(bytes.NewReader(f.build())), &rec, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "hires", "end"}, rec.calls)
	assert.Same(t, rec.first, rec.hires)
}

func TestProcessChainedDirectories(t *testing.T) {
	f := newFile(binary.LittleEndian)
	// Metadata-only first directory, image in the chained one.
	calibrationTags(f.dir())
	d := imageTags(f.dir(), 2, 2, 2, make([]byte, 12))
	d.longs(raw.TagNewSubFileType, 0)

	var rec recorder
	err := raw.Process(raw.NewSource(bytes.NewReader(f.build())), &rec, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "hires", "end"}, rec.calls)
	assert.NotSame(t, rec.first, rec.hires)
	assert.True(t, rec.hires.Has(raw.TagStripOffsets))
	assert.False(t, rec.first.Has(raw.TagStripOffsets))
}

func TestProcessSubIFD(t *testing.T) {
	f := newFile(binary.LittleEndian)
	// Thumbnail-bearing first directory pointing at the primary image
	// through SubIFDs, the way cameras lay DNG files out.
	d0 := calibrationTags(f.dir())
	d0.longs(raw.TagNewSubFileType, 1)
	d0.addSubIFD(1)
	d0.addStrips(raw.TagStripOffsets, raw.TagStripByteCounts, make([]byte, 3))

	sub := imageTags(f.dir(), 2, 2, 2, make([]byte, 12))
	sub.longs(raw.TagNewSubFileType, 0)

	var rec recorder
	err := raw.Process(raw.NewSource(bytes.NewReader(f.build())), &rec, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "hires", "end"}, rec.calls)
	assert.True(t, rec.hires.Has(raw.TagImageWidth))
}

func TestProcessNoPrimaryImage(t *testing.T) {
	f := newFile(binary.LittleEndian)
	calibrationTags(f.dir())

	var rec recorder
	err := raw.Process(raw.NewSource(bytes.NewReader(f.build())), &rec, false)
	assert.IsType(t, raw.FormatError(""), err)
	assert.NotContains(t, rec.calls, "end")
}
