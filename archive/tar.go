package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// tarWriter writes walked entries as TAR records.
type tarWriter struct {
	*tar.Writer
	buf    []byte
	opts   *Options
	logger *zap.Logger
}

func newTarWriter(dst io.Writer, opts *Options) *tarWriter {
	return &tarWriter{
		Writer: tar.NewWriter(dst),
		buf:    make([]byte, opts.BufferSize),
		opts:   opts,
		logger: opts.Logger,
	}
}

func (w *tarWriter) add(e entry) error {
	mode := e.fi.Mode()

	switch {
	case e.link != "":
		hdr, err := tar.FileInfoHeader(e.fi, e.link)
		if err != nil {
			return fmt.Errorf("create tar header for symlink (path=%s) error: %w", e.path, err)
		}
		hdr.Name = e.name

		if err = w.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write tar header for symlink (name=%s) error: %w", e.name, err)
		}

		w.logger.Debug("added symlink", zap.String("name", e.name), zap.String("link", e.link))
		return nil

	case mode.IsDir():
		hdr, err := tar.FileInfoHeader(e.fi, "")
		if err != nil {
			return fmt.Errorf("create tar header for directory (path=%s) error: %w", e.path, err)
		}
		hdr.Name = e.name

		if err = w.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write tar header for directory (name=%s) error: %w", e.name, err)
		}

		w.logger.Debug("added directory", zap.String("name", e.name))
		return nil

	case mode.IsRegular():
		src, err := os.Open(e.path)
		if err != nil {
			return fmt.Errorf("open file (path=%s) error: %w", e.path, err)
		}
		defer src.Close()

		hdr, err := tar.FileInfoHeader(e.fi, "")
		if err != nil {
			return fmt.Errorf("create tar header for file (path=%s) error: %w", e.path, err)
		}
		hdr.Name = e.name

		if err = w.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write tar header for file (name=%s) error: %w", e.name, err)
		}

		// the header already promised hdr.Size bytes so exactly that many must follow.
		written, err := io.CopyBuffer(w, io.LimitReader(src, hdr.Size), w.buf)
		if err == nil && written != hdr.Size {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return fmt.Errorf("add file (path=%s) to archive file (name=%s) error: %w", e.path, e.name, err)
		}

		if w.opts.ProgressReporter != nil {
			w.opts.ProgressReporter(e.path, e.name, written, true)
		}

		w.logger.Debug("added file", zap.String("name", e.name), zap.Int64("size", written))
		return nil

	default:
		w.logger.Debug("skip special file", zap.String("path", e.path), zap.Stringer("mode", mode))
		return nil
	}
}

// tarDir writes a tarball of the directory at path to dst, under the root entry name.
//
// The TAR trailer is written only if every entry was added successfully.
func tarDir(path, name string, fi os.FileInfo, skipSymlinks bool, dst io.Writer, opts *Options) error {
	w := newTarWriter(dst, opts)

	wk := &walker{followSymlinks: !skipSymlinks, logger: opts.Logger, fn: w.add}
	if err := wk.walk(path, name, fi); err != nil {
		return &CreationError{Layer: LayerTar, Err: &IOError{Op: OpAppendTar, Path: path, Err: err}}
	}

	if err := w.Close(); err != nil {
		return &CreationError{Layer: LayerTar, Err: &IOError{Op: OpFinishTar, Path: path, Err: err}}
	}

	return nil
}
