package raw

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"gonum.org/v1/gonum/mat"
)

// LoadHighResolutionImage is the core processor: it converts the raw
// sensor samples of the high-resolution directory into CIE XYZ D50
// pixels.
//
// FirstIFD stages the calibration tags that live in the metadata
// directory. HighResolutionIFD then computes the camera→XYZ D50
// transform, decodes every strip into an hdr.XYZ buffer and corrects
// rounding drift at the extremes of the computed gamut. End releases
// the staged state; the finished image stays available through Image.
//
// See Digital Negative Specification Version 1.4.0.0, chapter 6:
// "Mapping Camera Color Space to CIE XYZ Space".
type LoadHighResolutionImage struct {
	staged bool

	neutral     []Rational
	illuminant1 Illuminant
	illuminant2 Illuminant
	calibration *mat.Dense
	forward1    *mat.Dense
	forward2    *mat.Dense

	image *hdr.XYZ
}

var _ Processor = (*LoadHighResolutionImage)(nil)

// Image returns the decoded XYZ D50 image. It is nil until the
// high-resolution directory has been processed.
func (p *LoadHighResolutionImage) Image() *hdr.XYZ {
	return p.image
}

// FirstIFD captures the six calibration tags the high-resolution step
// needs but that live in the metadata directory. No computation
// happens here.
func (p *LoadHighResolutionImage) FirstIFD(ifd *IFD) error {
	neutral, err := ifd.Rationals(TagAsShotNeutral)
	if err != nil {
		return err
	}
	p.neutral = neutral

	ill1, err := ifd.Uint(TagCalibrationIlluminant1)
	if err != nil {
		return err
	}
	ill2, err := ifd.Uint(TagCalibrationIlluminant2)
	if err != nil {
		return err
	}
	p.illuminant1, p.illuminant2 = Illuminant(ill1), Illuminant(ill2)

	samples := len(neutral)
	if p.calibration, err = matrixTag(ifd, TagCameraCalibration1, samples); err != nil {
		return err
	}
	if p.forward1, err = matrixTag(ifd, TagForwardMatrix1, samples); err != nil {
		return err
	}
	if p.forward2, err = matrixTag(ifd, TagForwardMatrix2, samples); err != nil {
		return err
	}

	p.staged = true
	return nil
}

// matrixTag decodes a flat SRATIONAL tag into a dense matrix with the
// given number of columns.
func matrixTag(ifd *IFD, tag Tag, cols int) (*mat.Dense, error) {
	rat, err := ifd.SRationals(tag)
	if err != nil {
		return nil, err
	}
	if cols == 0 || len(rat)%cols != 0 {
		return nil, FormatError(fmt.Sprintf("tag %v holds %d values, not a whole number of %d-wide rows", tag, len(rat), cols))
	}
	return asMatrix(SFloat64s(rat), cols), nil
}

// HighResolutionIFD decodes the raw image.
func (p *LoadHighResolutionImage) HighResolutionIFD(ifd *IFD) error {
	if !p.staged {
		return UsageError("high-resolution directory delivered before the metadata directory")
	}
	if err := checkAssumptions(ifd); err != nil {
		return err
	}

	samplesPerPixel, err := ifd.Uint(TagSamplesPerPixel)
	if err != nil {
		return err
	}
	bitsPerSample, err := ifd.Uints(TagBitsPerSample)
	if err != nil {
		return err
	}
	if len(bitsPerSample) < int(samplesPerPixel) {
		return FormatError(fmt.Sprintf("BitsPerSample holds %d entries for %d samples per pixel", len(bitsPerSample), samplesPerPixel))
	}
	for _, bits := range bitsPerSample {
		if bits == 0 || bits > 32 {
			return UnsupportedError(fmt.Sprintf("%d bits per sample", bits))
		}
	}

	cameraNeutral := Float64s(p.neutral)

	weight, err := p.interpolationWeight(cameraNeutral)
	if err != nil {
		return err
	}
	cameraToXYZ, err := p.cameraToXYZD50(weight)
	if err != nil {
		return err
	}

	width, err := ifd.Uint(TagImageWidth)
	if err != nil {
		return err
	}
	length, err := ifd.Uint(TagImageLength)
	if err != nil {
		return err
	}
	rowsPerStrip, err := ifd.Uint(TagRowsPerStrip)
	if err != nil {
		return err
	}
	if width == 0 || length == 0 || rowsPerStrip == 0 {
		return FormatError("zero image dimension")
	}

	// Whole bytes per pixel: each channel rounds its bit depth up to a
	// byte boundary.
	pixelSize := 0
	for i := 0; i < int(samplesPerPixel); i++ {
		pixelSize += 1 + (int(bitsPerSample[i])-1)/8
	}

	// The pipeline runs in float64 end to end. hdr.XYZ stores float32
	// samples, so going through it mid-pipeline would quantize the
	// extrema before the correction pass; the buffer is quantized
	// exactly once, on the final store.
	buf := make([]float64, 3*int(width)*int(length))

	min := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}

	// See TIFF 6.0 Specification, page 39.
	strips := int((length + rowsPerStrip - 1) / rowsPerStrip)
	for i := 0; i < strips; i++ {
		strip, err := ifd.StripBytes(i)
		if err != nil {
			return err
		}
		if len(strip)%pixelSize != 0 {
			return FormatError(fmt.Sprintf("strip %d of %d bytes ends mid-pixel", i, len(strip)))
		}
		for j := 0; j*pixelSize < len(strip); j++ {
			x := j % int(width)
			y := j/int(width) + i*int(rowsPerStrip)
			if y >= int(length) {
				return FormatError(fmt.Sprintf("strip %d overflows the image height", i))
			}

			pixel := decodePixel(strip[j*pixelSize:], bitsPerSample[:samplesPerPixel], ifd.ByteOrder())
			xyz := mulVec(cameraToXYZ, pixel)
			at := 3 * (y*int(width) + x)
			for c := 0; c < 3; c++ {
				if xyz[c] < min[c] {
					min[c] = xyz[c]
				}
				if xyz[c] > max[c] {
					max[c] = xyz[c]
				}
				buf[at+c] = xyz[c]
			}
		}
	}

	// Fix rounding drift: renormalize each channel into
	// [0, observed max] using the observed extrema. The post-pass
	// maximum equals the pre-pass maximum, so overall exposure is
	// unchanged. A flat channel (min == max) is left alone.
	for at := 0; at < len(buf); at += 3 {
		for c := 0; c < 3; c++ {
			if max[c] != min[c] {
				buf[at+c] = max[c] * normalize(min[c], buf[at+c], max[c])
			}
		}
	}

	m := hdr.NewXYZ(image.Rect(0, 0, int(width), int(length)))
	for y := 0; y < int(length); y++ {
		for x := 0; x < int(width); x++ {
			at := 3 * (y*int(width) + x)
			m.SetXYZ(x, y, hdrcolor.XYZ{X: buf[at], Y: buf[at+1], Z: buf[at+2]})
		}
	}

	p.image = m
	return nil
}

// End releases the staged calibration state. The image buffer is kept
// for the consumer.
func (p *LoadHighResolutionImage) End() error {
	p.neutral = nil
	p.calibration = nil
	p.forward1 = nil
	p.forward2 = nil
	p.staged = false
	return nil
}

// checkAssumptions rejects inputs the pixel decode cannot represent.
// The container may legitimately encode them, but mis-decoding
// silently is worse than failing.
func checkAssumptions(ifd *IFD) error {
	if samples, err := ifd.Uint(TagSamplesPerPixel); err != nil {
		return err
	} else if samples != 3 {
		return UnsupportedError(fmt.Sprintf("%d samples per pixel, exactly 3 are supported", samples))
	}
	if v, ok := ifd.Value(TagCompression); ok {
		if c, err := v.Uint(); err != nil {
			return err
		} else if c != cNone {
			return UnsupportedError(fmt.Sprintf("compression value %d", c))
		}
	}
	if v, ok := ifd.Value(TagPlanarConfiguration); ok {
		if pc, err := v.Uint(); err != nil {
			return err
		} else if pc != pcContiguous {
			return UnsupportedError(fmt.Sprintf("planar configuration %d", pc))
		}
	}
	if ifd.Has(TagTileOffsets) && !ifd.Has(TagStripOffsets) {
		return UnsupportedError("tiled image")
	}
	if !ifd.Has(TagStripOffsets) || !ifd.Has(TagStripByteCounts) {
		return FormatError("no strip data")
	}
	return nil
}

// interpolationWeight resolves the weighting factor between the two
// calibration illuminants from the shot-neutral white balance.
//
// DNG 1.2.0.0 and later requires linear interpolation over inverse
// correlated color temperature. Oddly enough, the camera→XYZ transform
// maps the shot neutral to the same white point for any weight, so a
// single pass with a provisional weight of 0.5 suffices; no fixed-point
// iteration is needed. Interpolating over the inverse flips the axis,
// hence the subtraction from one.
func (p *LoadHighResolutionImage) interpolationWeight(cameraNeutral []float64) (float64, error) {
	cct1, ok := p.illuminant1.CCT()
	if !ok {
		return 0, FormatError(fmt.Sprintf("calibration illuminant 1 (%d) has no known color temperature", p.illuminant1))
	}
	cct2, ok := p.illuminant2.CCT()
	if !ok {
		return 0, FormatError(fmt.Sprintf("calibration illuminant 2 (%d) has no known color temperature", p.illuminant2))
	}
	if cct1 == cct2 {
		// Both calibrations describe the same light; either set works
		// and interpolating would divide by zero.
		return 0, nil
	}

	provisional, err := p.cameraToXYZD50(0.5)
	if err != nil {
		return 0, err
	}
	x, y := xyChromaticity(mulVec(provisional, cameraNeutral))
	cct := mccamyCCT(x, y)

	return 1 - normalize(1/cct2, 1/cct, 1/cct1), nil
}

// cameraToXYZD50 builds the camera→XYZ D50 transform at the given
// interpolation weight:
//
//	CameraToXYZ_D50 = FM(weight) × Invert(Diag(ReferenceNeutral)) × CC⁻¹
//	ReferenceNeutral = CC⁻¹ × CameraNeutral
//
// AnalogBalance is identity for linear DNG files and is omitted from
// the product.
func (p *LoadHighResolutionImage) cameraToXYZD50(weight float64) (*mat.Dense, error) {
	inverseCC, err := inverse(p.calibration)
	if err != nil {
		return nil, FormatError("camera calibration matrix is singular")
	}

	referenceNeutral := mulVec(inverseCC, Float64s(p.neutral))
	d, err := inverse(diagonal(referenceNeutral))
	if err != nil {
		return nil, FormatError("reference neutral has a zero component")
	}

	var fmd, out mat.Dense
	fmd.Mul(weightedAverage(p.forward1, p.forward2, weight), d)
	out.Mul(&fmd, inverseCC)
	return &out, nil
}

// decodePixel reads one pixel's channels from the strip bytes at p,
// honoring the container's byte order, and normalizes each sample into
// [0,1] by the full-scale value of its byte width. Samples are
// unsigned; each channel occupies whole bytes, and the read never
// exceeds that width.
func decodePixel(p []byte, bitsPerSample []uint64, order binary.ByteOrder) []float64 {
	pixel := make([]float64, len(bitsPerSample))
	offset := 0
	for i, bits := range bitsPerSample {
		switch 1 + (int(bits)-1)/8 {
		case 1:
			pixel[i] = float64(p[offset]) / 255
			offset++
		case 2:
			pixel[i] = float64(order.Uint16(p[offset:])) / 65535
			offset += 2
		case 3:
			// Widen to 4 bytes on the zero-significance side; the
			// byte order decides which side that is.
			var b [4]byte
			if order == binary.ByteOrder(binary.LittleEndian) {
				copy(b[:3], p[offset:])
			} else {
				copy(b[1:], p[offset:offset+3])
			}
			pixel[i] = float64(order.Uint32(b[:])) / 16777215
			offset += 3
		default:
			pixel[i] = float64(order.Uint32(p[offset:])) / 4294967295
			offset += 4
		}
	}
	return pixel
}
