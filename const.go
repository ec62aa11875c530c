package raw

import "fmt"

// A DNG file is a TIFF container: a header pointing at a chain of
// Image File Directories (IFDs), each of which holds entries of 12
// bytes. An IFD entry consists of
//
//  - a tag, which describes the signification of the entry,
//  - the data type and count of the entry,
//  - the data itself or a pointer to it if it is more than 4 bytes.
//
// See "TIFF Revision 6.0 Final - June 3, 1992", page 14-16, and the
// Digital Negative Specification Version 1.4.0.0.

const (
	leMagic = "II" // Byte-order magic for little-endian files.
	beMagic = "MM" // Byte-order magic for big-endian files.

	tiffVersion = 42 // Minimum accepted value of the header version field.
	headerLen   = 8  // Length of the TIFF header in bytes.
)

// Tag is a TIFF/DNG field identifier (see p. 28-41 of the TIFF spec
// and chapter 4 of the DNG spec).
type Tag uint16

const (
	// TagUnknown absorbs unrecognized tag numbers when the reader is
	// configured to tolerate them.
	TagUnknown Tag = 0

	TagNewSubFileType Tag = 254
	TagImageWidth     Tag = 256
	TagImageLength    Tag = 257
	TagBitsPerSample  Tag = 258
	TagCompression    Tag = 259

	TagPhotometricInterpretation Tag = 262
	TagMake                      Tag = 271
	TagModel                     Tag = 272

	TagStripOffsets    Tag = 273
	TagOrientation     Tag = 274
	TagSamplesPerPixel Tag = 277
	TagRowsPerStrip    Tag = 278
	TagStripByteCounts Tag = 279

	TagXResolution         Tag = 282
	TagYResolution         Tag = 283
	TagPlanarConfiguration Tag = 284
	TagResolutionUnit      Tag = 296
	TagSoftware            Tag = 305
	TagDateTime            Tag = 306

	TagPredictor      Tag = 317
	TagTileWidth      Tag = 322
	TagTileLength     Tag = 323
	TagTileOffsets    Tag = 324
	TagTileByteCounts Tag = 325
	TagSubIFDs        Tag = 330
	TagExtraSamples   Tag = 338
	TagSampleFormat   Tag = 339

	TagCopyright Tag = 33432
	TagExifIFD   Tag = 34665

	TagDNGVersion             Tag = 50706
	TagDNGBackwardVersion     Tag = 50707
	TagUniqueCameraModel      Tag = 50708
	TagCFAPlaneColor          Tag = 50710
	TagCFALayout              Tag = 50711
	TagLinearizationTable     Tag = 50712
	TagBlackLevel             Tag = 50714
	TagWhiteLevel             Tag = 50717
	TagDefaultCropOrigin      Tag = 50719
	TagDefaultCropSize        Tag = 50720
	TagColorMatrix1           Tag = 50721
	TagColorMatrix2           Tag = 50722
	TagCameraCalibration1     Tag = 50723
	TagCameraCalibration2     Tag = 50724
	TagAnalogBalance          Tag = 50727
	TagAsShotNeutral          Tag = 50728
	TagAsShotWhiteXY          Tag = 50729
	TagBaselineExposure       Tag = 50730
	TagCalibrationIlluminant1 Tag = 50778
	TagCalibrationIlluminant2 Tag = 50779
	TagForwardMatrix1         Tag = 50964
	TagForwardMatrix2         Tag = 50965
)

// tags is the closed set of recognized field identifiers, built once at
// package initialization. A tag number outside this set either fails
// the parse or decodes to TagUnknown, depending on the reader's
// tolerance flag.
var tags = make(map[uint16]Tag, len(tagNames))

func init() {
	for t := range tagNames {
		tags[uint16(t)] = t
	}
}

var tagNames = map[Tag]string{
	TagNewSubFileType:            "NewSubFileType",
	TagImageWidth:                "ImageWidth",
	TagImageLength:               "ImageLength",
	TagBitsPerSample:             "BitsPerSample",
	TagCompression:               "Compression",
	TagPhotometricInterpretation: "PhotometricInterpretation",
	TagMake:                      "Make",
	TagModel:                     "Model",
	TagStripOffsets:              "StripOffsets",
	TagOrientation:               "Orientation",
	TagSamplesPerPixel:           "SamplesPerPixel",
	TagRowsPerStrip:              "RowsPerStrip",
	TagStripByteCounts:           "StripByteCounts",
	TagXResolution:               "XResolution",
	TagYResolution:               "YResolution",
	TagPlanarConfiguration:       "PlanarConfiguration",
	TagResolutionUnit:            "ResolutionUnit",
	TagSoftware:                  "Software",
	TagDateTime:                  "DateTime",
	TagPredictor:                 "Predictor",
	TagTileWidth:                 "TileWidth",
	TagTileLength:                "TileLength",
	TagTileOffsets:               "TileOffsets",
	TagTileByteCounts:            "TileByteCounts",
	TagSubIFDs:                   "SubIFDs",
	TagExtraSamples:              "ExtraSamples",
	TagSampleFormat:              "SampleFormat",
	TagCopyright:                 "Copyright",
	TagExifIFD:                   "ExifIFD",
	TagDNGVersion:                "DNGVersion",
	TagDNGBackwardVersion:        "DNGBackwardVersion",
	TagUniqueCameraModel:         "UniqueCameraModel",
	TagCFAPlaneColor:             "CFAPlaneColor",
	TagCFALayout:                 "CFALayout",
	TagLinearizationTable:        "LinearizationTable",
	TagBlackLevel:                "BlackLevel",
	TagWhiteLevel:                "WhiteLevel",
	TagDefaultCropOrigin:         "DefaultCropOrigin",
	TagDefaultCropSize:           "DefaultCropSize",
	TagColorMatrix1:              "ColorMatrix1",
	TagColorMatrix2:              "ColorMatrix2",
	TagCameraCalibration1:        "CameraCalibration1",
	TagCameraCalibration2:        "CameraCalibration2",
	TagAnalogBalance:             "AnalogBalance",
	TagAsShotNeutral:             "AsShotNeutral",
	TagAsShotWhiteXY:             "AsShotWhiteXY",
	TagBaselineExposure:          "BaselineExposure",
	TagCalibrationIlluminant1:    "CalibrationIlluminant1",
	TagCalibrationIlluminant2:    "CalibrationIlluminant2",
	TagForwardMatrix1:            "ForwardMatrix1",
	TagForwardMatrix2:            "ForwardMatrix2",
}

// String returns the common name of the tag.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// Type is a TIFF primitive data type (p. 14-16 of the spec).
type Type uint16

const (
	// TypeUnexpected is the sentinel for type codes outside the valid
	// 1..12 range. Entries of an unexpected type are skipped rather
	// than failing the parse.
	TypeUnexpected Type = 0

	TypeByte      Type = 1
	TypeASCII     Type = 2
	TypeShort     Type = 3
	TypeLong      Type = 4
	TypeRational  Type = 5
	TypeSByte     Type = 6
	TypeUndefined Type = 7
	TypeSShort    Type = 8
	TypeSLong     Type = 9
	TypeSRational Type = 10
	TypeFloat     Type = 11
	TypeDouble    Type = 12
)

// typeSizes holds the length of one instance of each data type in
// bytes, indexed by type code. Index 0 belongs to TypeUnexpected.
var typeSizes = [...]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// Size returns the encoded length of one value of the type, in bytes.
// It is 0 for TypeUnexpected.
func (t Type) Size() uint32 {
	if int(t) >= len(typeSizes) {
		return 0
	}
	return typeSizes[t]
}

func (t Type) String() string {
	switch t {
	case TypeByte:
		return "BYTE"
	case TypeASCII:
		return "ASCII"
	case TypeShort:
		return "SHORT"
	case TypeLong:
		return "LONG"
	case TypeRational:
		return "RATIONAL"
	case TypeSByte:
		return "SBYTE"
	case TypeUndefined:
		return "UNDEFINED"
	case TypeSShort:
		return "SSHORT"
	case TypeSLong:
		return "SLONG"
	case TypeSRational:
		return "SRATIONAL"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	}
	return "UNEXPECTED"
}

// Compression values (defined in various places in the TIFF spec and
// supplements). Anything but cNone fails loudly, lossy JPEG included.
const (
	cNone      = 1
	cCCITT     = 2
	cLZW       = 5
	cJPEGOld   = 6
	cJPEG      = 7
	cDeflate   = 8
	cPackBits  = 32773
	cLossyJPEG = 34892 // Allowed by DNG for 8-bit LinearRaw, still unsupported here.
)

// NewSubFileType values (p. 36 of the spec).
const (
	sftPrimaryImage = 0
	sftThumbnail    = 1
)

// PlanarConfiguration values (p. 38 of the spec).
const (
	pcContiguous = 1
	pcSeparate   = 2
)
