// Package raw decodes Digital Negative (DNG) raw photographs into CIE
// XYZ D50 images.
//
// Resources:
// https://www.adobe.com/content/dam/acom/en/products/photoshop/pdfs/dng_spec_1.4.0.0.pdf
// https://www.fileformat.info/format/tiff/egff.htm
// https://rcsumner.net/raw_guide/RAWguide.pdf (processing workflow)
// http://www.brucelindbloom.com (color space math)
package raw

import (
	"io"

	"github.com/mdouchement/hdr"
)

// Decode reads a DNG image from r and returns its full-resolution
// picture as XYZ D50 pixels. Unknown tags are tolerated; use Process
// with a Reader built via NewReader for stricter parsing or custom
// processors.
func Decode(r io.ReadSeeker) (*hdr.XYZ, error) {
	var p LoadHighResolutionImage
	if err := Process(NewSource(r), &p, true); err != nil {
		return nil, err
	}
	return p.Image(), nil
}
