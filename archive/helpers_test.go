package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Oliver-Hanikel/miniserve/codec"
	"github.com/mholt/archives"
	"github.com/stretchr/testify/require"
)

// fill creates the files (and their parent directories) under root. A name ending with "/" creates an empty
// directory instead.
func fill(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0755))
			continue
		}

		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	}
}

// tarEntry is the interesting parts of a tar.Header plus the content of the file.
type tarEntry struct {
	Typeflag byte
	Linkname string
	Data     string
}

// readTar returns the entries of the tarball keyed by name, failing the test on any read error.
func readTar(t *testing.T, data []byte) map[string]tarEntry {
	t.Helper()

	entries := make(map[string]tarEntry)
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		content, err := io.ReadAll(tr)
		require.NoError(t, err)

		entries[hdr.Name] = tarEntry{Typeflag: hdr.Typeflag, Linkname: hdr.Linkname, Data: string(content)}
	}

	return entries
}

// readZip returns the entries of the ZIP archive keyed by name, failing the test on any read error.
func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string)
	for _, f := range zr.File {
		r, err := f.Open()
		require.NoError(t, err)

		content, err := io.ReadAll(r)
		_ = r.Close()
		require.NoError(t, err)

		entries[f.Name] = string(content)
	}

	return entries
}

// gunzip decompresses data, failing the test on error.
func gunzip(t *testing.T, data []byte) []byte {
	t.Helper()

	r, err := codec.GzipCodec{}.NewDecoder(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Close()

	content, err := io.ReadAll(r)
	require.NoError(t, err)
	return content
}

// extract uses github.com/mholt/archives to extract the archive into dir, returning the names of the extracted
// entries as they appear in the archive.
func extract(t *testing.T, m Method, data []byte, dir string) []string {
	t.Helper()

	names := make([]string, 0)
	handler := func(ctx context.Context, f archives.FileInfo) error {
		names = append(names, f.NameInArchive)

		path := filepath.Join(dir, filepath.FromSlash(f.NameInArchive))
		if f.IsDir() {
			return os.MkdirAll(path, 0755)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}

		r, err := f.Open()
		if err != nil {
			return err
		}
		defer r.Close()

		content, err := io.ReadAll(r)
		if err != nil {
			return err
		}

		return os.WriteFile(path, content, 0644)
	}

	var err error
	switch m {
	case TarGz:
		err = archives.Tar{}.Extract(context.Background(), bytes.NewReader(gunzip(t, data)), handler)
	case Tar:
		err = archives.Tar{}.Extract(context.Background(), bytes.NewReader(data), handler)
	case Zip:
		err = archives.Zip{}.Extract(context.Background(), bytes.NewReader(data), handler)
	default:
		err = errors.New("unknown method")
	}
	require.NoError(t, err)

	return names
}

// snapshot returns the regular files under root keyed by slash-separated relative path, and the relative paths of
// all directories (with trailing "/").
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			files[rel+"/"] = ""
			return nil
		}

		data, err := os.ReadFile(path)
		files[rel] = string(data)
		return err
	})
	require.NoError(t, err)

	return files
}

var errBoom = errors.New("boom")

// failingWriter accepts the first n calls to Write, then fails every subsequent call with errBoom.
type failingWriter struct {
	n     int
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.calls++; w.calls > w.n {
		return 0, errBoom
	}

	return len(p), nil
}
