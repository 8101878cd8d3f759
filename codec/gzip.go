package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCodec implements Codec for gzip compression algorithm.
//
// The zero value uses gzip.DefaultCompression.
type GzipCodec struct {
	// Level is the compression level, see gzip.NewWriterLevel for the acceptable values.
	//
	// The zero value is treated as gzip.DefaultCompression rather than gzip.NoCompression.
	Level int
}

var _ Codec = GzipCodec{}

func (c GzipCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

func (c GzipCodec) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	level := c.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	w, err := gzip.NewWriterLevel(dst, level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer (level=%d) error: %w", level, err)
	}

	return w, nil
}
