package archive

import (
	"errors"
	"fmt"
)

// ErrInvalidPath is matched (via errors.Is) by every *InvalidPathError.
var ErrInvalidPath = errors.New("invalid path")

// InvalidPathError is returned when the source directory cannot be archived because of its path.
//
// It is always returned before anything is written to the destination.
type InvalidPathError struct {
	// Path is the directory path given by the caller.
	Path string
	// Reason describes what is wrong with Path.
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf(`invalid path "%s": %s`, e.Path, e.Reason)
}

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// Op names the operation that an IOError was attributed to.
type Op string

const (
	// OpStat is the check that the source directory exists, done before anything is written.
	OpStat Op = "stat source directory"
	// OpAppendTar covers walking the source directory and writing its entries to the TAR archive.
	OpAppendTar Op = "append directory contents to TAR archive"
	// OpFinishTar is writing the TAR end-of-archive trailer.
	OpFinishTar Op = "finish TAR"
	// OpAppendZip covers walking the source directory and writing its entries to the ZIP archive.
	OpAppendZip Op = "append directory contents to ZIP archive"
	// OpFinishZip is writing the ZIP central directory.
	OpFinishZip Op = "finish ZIP"
	// OpCreateGzip is creating the gzip encoder on top of the destination.
	OpCreateGzip Op = "create GZIP encoder"
	// OpFinishGzip is flushing the gzip encoder and writing the gzip trailer.
	OpFinishGzip Op = "finish GZIP"
)

// IOError is a read-side or write-side I/O failure attributed to a specific operation.
type IOError struct {
	// Op is the operation that failed.
	Op Op
	// Path is the source directory being archived.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s error: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s (path=%s) error: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Layer identifies the container or compression layer that an archive creation failure is attributed to.
type Layer string

const (
	// LayerTar is the TAR container of Tar and TarGz archives.
	LayerTar Layer = "tarball"
	// LayerZip is the ZIP container of Zip archives.
	LayerZip Layer = "ZIP"
	// LayerGzip is the gzip compression around the TAR container of TarGz archives.
	LayerGzip Layer = "GZIP"
)

// CreationError attributes a lower-level cause (usually an *IOError) to the layer that failed.
//
// Bytes that were already written to the destination before the failure are not retracted; the destination must be
// treated as holding an invalid archive.
type CreationError struct {
	Layer Layer
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create %s archive error: %v", e.Layer, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}
