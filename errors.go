package raw

import "fmt"

// A FormatError reports that the input is not a valid DNG file: bad
// magic or version, odd or undersized offsets, non-terminated strings,
// unknown tags when the reader is intolerant. Always fatal to the
// current file.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("raw: invalid format: %s", string(e))
}

// A TruncationError reports that the stream ended before a read could
// be satisfied. Fatal, same as FormatError.
type TruncationError string

func (e TruncationError) Error() string {
	return fmt.Sprintf("raw: truncated file: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature, such as compression, tiling or a sample count
// other than three. Failing here beats silently mis-decoding pixels.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("raw: unsupported feature: %s", string(e))
}

// A UsageError reports a programming error in the calling code, such
// as delivering the high-resolution directory to a processor before
// the metadata directory.
type UsageError string

func (e UsageError) Error() string {
	return fmt.Sprintf("raw: usage error: %s", string(e))
}
