// Package archive streams a directory, recursively, as a TAR, gzip-compressed TAR, or ZIP archive.
//
// Archives are written incrementally to any io.Writer while the directory is being walked; they are never
// materialised on disk or in memory first.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/Oliver-Hanikel/miniserve/codec"
)

// CreateArchive makes an archive out of the given directory and writes the output to dst.
//
// The directory is saved as a single top-level directory in the archive that is named after the basename of dir.
// For example, consider this directory structure:
//
//	a
//	└── b
//	    └── c
//	        ├── e
//	        ├── f
//	        └── g
//
// Making an archive out of "a/b/c" results in this archive content:
//
//	c/
//	c/e
//	c/f
//	c/g
//
// If skipSymlinks is true, symlinks are not followed: Tar stores them as symlink records, Zip leaves them out. If
// skipSymlinks is false, the targets of symlinks are archived under the names of the links.
//
// CreateArchive returns an *InvalidPathError without writing anything to dst if dir cannot be archived. Any other
// error aborts the archive mid-stream; the bytes already written to dst are not retracted and must be discarded.
// CreateArchive never closes dst.
func (m Method) CreateArchive(dir string, skipSymlinks bool, dst io.Writer, optFns ...func(*Options)) error {
	name, err := rootName(dir)
	if err != nil {
		return err
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return &IOError{Op: OpStat, Path: dir, Err: err}
	}
	if !fi.IsDir() {
		return &InvalidPathError{Path: dir, Reason: "not a directory"}
	}

	opts := newOptions(optFns...)

	switch m {
	case TarGz:
		return tarGz(dir, name, fi, skipSymlinks, dst, opts)
	case Tar:
		return tarDir(dir, name, fi, skipSymlinks, dst, opts)
	case Zip:
		return zipDir(dir, name, fi, skipSymlinks, dst, opts)
	default:
		return fmt.Errorf("unknown archive method: %v", m)
	}
}

// tarGz writes a gzip-compressed tarball of the directory at path to dst.
//
// The gzip encoder is closed only after the tarball has been finished successfully.
func tarGz(path, name string, fi os.FileInfo, skipSymlinks bool, dst io.Writer, opts *Options) error {
	enc, err := codec.GzipCodec{Level: opts.GzipLevel}.NewEncoder(dst)
	if err != nil {
		return &CreationError{Layer: LayerGzip, Err: &IOError{Op: OpCreateGzip, Path: path, Err: err}}
	}

	if err = tarDir(path, name, fi, skipSymlinks, enc, opts); err != nil {
		return err
	}

	if err = enc.Close(); err != nil {
		return &CreationError{Layer: LayerGzip, Err: &IOError{Op: OpFinishGzip, Path: path, Err: err}}
	}

	return nil
}

// rootName returns the name of the top-level directory in archives of dir.
func rootName(dir string) (string, error) {
	if dir == "" {
		return "", &InvalidPathError{Path: dir, Reason: "empty path"}
	}
	if lastElem(dir) == ".." {
		return "", &InvalidPathError{Path: dir, Reason: "directory name terminates in \"..\""}
	}

	switch name := filepath.Base(filepath.Clean(dir)); {
	case name == "." || name == ".." || name == string(filepath.Separator) || filepath.VolumeName(dir) == dir:
		return "", &InvalidPathError{Path: dir, Reason: "directory name cannot be determined"}
	case !utf8.ValidString(name):
		return "", &InvalidPathError{Path: dir, Reason: "directory name contains invalid UTF-8 characters"}
	default:
		return name, nil
	}
}

// lastElem returns the last element of path as written, ignoring trailing separators and "." elements.
func lastElem(path string) string {
	path = path[len(filepath.VolumeName(path)):]
	for {
		i := len(path)
		for i > 0 && os.IsPathSeparator(path[i-1]) {
			i--
		}

		j := i
		for j > 0 && !os.IsPathSeparator(path[j-1]) {
			j--
		}

		if elem := path[j:i]; elem != "." {
			return elem
		}
		path = path[:j]
	}
}
