package archive

import (
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

const (
	// DefaultBufferSize is the default value for [Options.BufferSize], which is 32 KiB.
	DefaultBufferSize = 32 * 1024

	// DefaultZipLevel is the default value for [Options.ZipLevel].
	DefaultZipLevel = 3

	// DefaultGzipLevel is the default value for [Options.GzipLevel].
	DefaultGzipLevel = gzip.DefaultCompression
)

// Options customises Method.CreateArchive.
type Options struct {
	// BufferSize is the length of the only buffer used to copy file contents to the archive.
	//
	// Together with the internal buffers of the container and compression writers, this bounds the memory used by a
	// single CreateArchive call regardless of the size of the directory.
	//
	// Default to DefaultBufferSize.
	BufferSize int

	// ZipLevel is the deflate level of ZIP entries, see [flate.NewWriter] on the acceptable level.
	//
	// Default to DefaultZipLevel.
	ZipLevel int

	// GzipLevel is the level of the gzip stream wrapping TarGz archives.
	//
	// Default to DefaultGzipLevel.
	GzipLevel int

	// Logger receives debug messages about archived and skipped entries.
	//
	// Default to a no-op logger.
	Logger *zap.Logger

	// ProgressReporter is called once after each regular file has been added to the archive.
	//
	// Default to nil which disables progress reporting.
	ProgressReporter ProgressReporter
}

func newOptions(optFns ...func(*Options)) *Options {
	opts := &Options{
		BufferSize: DefaultBufferSize,
		ZipLevel:   DefaultZipLevel,
		GzipLevel:  DefaultGzipLevel,
		Logger:     zap.NewNop(),
	}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return opts
}
