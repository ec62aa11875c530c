package raw

import "github.com/pkg/errors"

// A Processor receives lifecycle callbacks while a DNG file is being
// traversed. The engine invokes the methods synchronously and in file
// order: FirstIFD for the initial metadata directory, HighResolutionIFD
// for the directory whose samples represent the full-resolution raw
// image, and End once no more directories remain.
//
// The IFD handed to a callback is only valid until the callback
// returns; processors must copy what they need out of it.
type Processor interface {
	FirstIFD(ifd *IFD) error
	HighResolutionIFD(ifd *IFD) error
	End() error
}

// Process opens src as a DNG container, walks its directory chain and
// drives p through the three lifecycle callbacks. The high-resolution
// directory is the one whose NewSubFileType marks the primary image,
// searched through the first directory itself (when it declares no
// SubIFDs), its SubIFDs, and then the main chain; a first directory
// that carries image data and no SubIFDs is its own primary image
// (minimal single-directory files).
//
// When ignoreUnknownTags is true, unrecognized tag numbers are
// tolerated and skipped instead of failing the parse.
func Process(src Source, p Processor, ignoreUnknownTags bool) error {
	r, err := NewReader(src, ignoreUnknownTags)
	if err != nil {
		return err
	}

	first, next, err := ParseIFD(r)
	if err != nil {
		return errors.Wrap(err, "could not parse first directory")
	}
	if err := p.FirstIFD(first); err != nil {
		return err
	}

	seen := false
	visit := func(ifd *IFD) error {
		if seen || !isPrimary(ifd) {
			return nil
		}
		seen = true
		return p.HighResolutionIFD(ifd)
	}

	if !first.Has(TagSubIFDs) {
		if err := visit(first); err != nil {
			return err
		}
	}

	if first.Has(TagSubIFDs) {
		offsets, err := first.Uints(TagSubIFDs)
		if err != nil {
			return err
		}
		for _, offset := range offsets {
			if err := r.SeekTo(int64(offset)); err != nil {
				return err
			}
			sub, _, err := ParseIFD(r)
			if err != nil {
				return errors.Wrapf(err, "could not parse SubIFD at offset %d", offset)
			}
			if err := visit(sub); err != nil {
				return err
			}
		}
	}

	for next != 0 {
		if err := r.SeekTo(int64(next)); err != nil {
			return err
		}
		var ifd *IFD
		offset := next
		ifd, next, err = ParseIFD(r)
		if err != nil {
			return errors.Wrapf(err, "could not parse directory at offset %d", offset)
		}
		if err := visit(ifd); err != nil {
			return err
		}
	}

	if !seen {
		return FormatError("no high-resolution image directory")
	}
	return p.End()
}

// isPrimary reports whether the directory holds the full-resolution
// image: either it says so through NewSubFileType, or it omits the tag
// altogether while carrying strip data.
func isPrimary(ifd *IFD) bool {
	if v, ok := ifd.Value(TagNewSubFileType); ok {
		sft, err := v.Uint()
		return err == nil && sft == sftPrimaryImage
	}
	return ifd.Has(TagStripOffsets)
}
