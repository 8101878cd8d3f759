package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

// zipWriter writes walked entries as ZIP records.
type zipWriter struct {
	*zip.Writer
	buf    []byte
	opts   *Options
	logger *zap.Logger
}

func newZipWriter(dst io.Writer, opts *Options) *zipWriter {
	zw := zip.NewWriter(dst)
	level := opts.ZipLevel
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	return &zipWriter{
		Writer: zw,
		buf:    make([]byte, opts.BufferSize),
		opts:   opts,
		logger: opts.Logger,
	}
}

func (w *zipWriter) add(e entry) error {
	mode := e.fi.Mode()

	switch {
	case e.link != "":
		// un-followed symlinks are left out of ZIP archives entirely.
		w.logger.Debug("skip symlink", zap.String("path", e.path), zap.String("link", e.link))
		return nil

	case mode.IsDir():
		fh, err := zip.FileInfoHeader(e.fi)
		if err != nil {
			return fmt.Errorf("create zip header for directory (path=%s) error: %w", e.path, err)
		}
		fh.Name = e.name
		fh.Method = zip.Store

		if _, err = w.CreateHeader(fh); err != nil {
			return fmt.Errorf("create zip record for directory (name=%s) error: %w", e.name, err)
		}

		w.logger.Debug("added directory", zap.String("name", e.name))
		return nil

	case mode.IsRegular():
		src, err := os.Open(e.path)
		if err != nil {
			return fmt.Errorf("open file (path=%s) error: %w", e.path, err)
		}
		defer src.Close()

		fh, err := zip.FileInfoHeader(e.fi)
		if err != nil {
			return fmt.Errorf("create zip header for file (path=%s) error: %w", e.path, err)
		}
		fh.Name = e.name
		fh.Method = zip.Deflate

		f, err := w.CreateHeader(fh)
		if err != nil {
			return fmt.Errorf("create zip record for file (name=%s) error: %w", e.name, err)
		}

		// keep the entry consistent with the stat size even if the file changes while being read.
		size := e.fi.Size()
		written, err := io.CopyBuffer(f, io.LimitReader(src, size), w.buf)
		if err == nil && written != size {
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

// zipDir writes a ZIP archive of the directory at path to dst, under the root entry name.
//
// The central directory is written only if every entry was added successfully.
func zipDir(path, name string, fi os.FileInfo, skipSymlinks bool, dst io.Writer, opts *Options) error {
	w := newZipWriter(dst, opts)

	wk := &walker{followSymlinks: !skipSymlinks, logger: opts.Logger, fn: w.add}
	if err := wk.walk(path, name, fi); err != nil {
		return &CreationError{Layer: LayerZip, Err: &IOError{Op: OpAppendZip, Path: path, Err: err}}
	}

	if err := w.Close(); err != nil {
		return &CreationError{Layer: LayerZip, Err: &IOError{Op: OpFinishZip, Path: path, Err: err}}
	}

	return nil
}
