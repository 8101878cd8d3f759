// Package codec provides compression filters that can be stacked on top of an archive container stream.
package codec

import (
	"io"
)

// Codec has methods to create compressor/encoder and decompressor/decoder.
//
// The io.WriteCloser returned by NewEncoder must be closed to flush buffered data and write the format's trailer;
// closing it does not close the underlying io.Writer.
type Codec interface {
	// NewDecoder creates a decoder to decompress contents from the given io.Reader.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
	// NewEncoder creates an encoder to compress contents to the given io.Writer.
	NewEncoder(dst io.Writer) (io.WriteCloser, error)
}
