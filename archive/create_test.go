package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateArchive_NestedDirectory(t *testing.T) {
	// a/b/c contains e, f, and g; archiving a/b/c must produce c/e, c/f, c/g (not a/b/c/e).
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	fill(t, dir, map[string]string{
		"e": "Test Hello Yes",
		"f": "Test Hello Yes",
		"g": "Test Hello Yes",
	})

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, m.CreateArchive(dir, false, &buf))

			var files map[string]string
			switch m {
			case TarGz, Tar:
				data := buf.Bytes()
				if m == TarGz {
					data = gunzip(t, data)
				}

				files = make(map[string]string)
				for name, e := range readTar(t, data) {
					files[name] = e.Data
				}
			case Zip:
				files = readZip(t, buf.Bytes())
			}

			assert.Equal(t, map[string]string{
				"c/":  "",
				"c/e": "Test Hello Yes",
				"c/f": "Test Hello Yes",
				"c/g": "Test Hello Yes",
			}, files)

			for _, name := range []string{"c/e", "c/f", "c/g"} {
				assert.Lenf(t, files[name], 14, "size of %s", name)
			}
		})
	}
}

func TestCreateArchive_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-dir")
	fill(t, dir, map[string]string{
		"a.txt":              "Mr. Jock, TV quiz PhD, bags few lynx\n",
		"path/b.txt":         "hello, world",
		"another/path/c.txt": "",
		"another/path/d.bin": string(bytes.Repeat([]byte{0, 1, 2, 3, 0xff}, 20_000)),
		"empty/":             "",
		"with space/é.md":    "# title",
	})

	expected := snapshot(t, filepath.Dir(dir))

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, m.CreateArchive(dir, false, &buf))

			out := t.TempDir()
			names := extract(t, m, buf.Bytes(), out)

			// there must be exactly one top-level entry, named after the directory.
			roots := make([]string, 0)
			for _, name := range names {
				root, _, _ := strings.Cut(name, "/")
				if !slices.Contains(roots, root) {
					roots = append(roots, root)
				}
			}
			assert.Equal(t, []string{"my-dir"}, roots)

			assert.Equal(t, expected, snapshot(t, out))
		})
	}
}

func TestCreateArchive_TarGzIsGzippedTar(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{
		"e":         "Test Hello Yes",
		"sub/f":     "Test Hello Yes",
		"sub/sub/g": "Test Hello Yes",
	})

	for _, skipSymlinks := range []bool{true, false} {
		var tarBuf, tarGzBuf bytes.Buffer
		require.NoError(t, Tar.CreateArchive(dir, skipSymlinks, &tarBuf))
		require.NoError(t, TarGz.CreateArchive(dir, skipSymlinks, &tarGzBuf))

		assert.Equal(t, tarBuf.Bytes(), gunzip(t, tarGzBuf.Bytes()))
	}
}

func TestCreateArchive_Identify(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{"e": "Test Hello Yes"})

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, m.CreateArchive(dir, false, &buf))

			format, _, err := archives.Identify(context.Background(), "", bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)

			if m == TarGz {
				assert.Truef(t, strings.HasSuffix(format.Extension(), ".gz"), "got %s", format.Extension())
				return
			}

			assert.Equal(t, "."+m.Ext(), format.Extension())
		})
	}
}

func TestCreateArchive_InvalidPath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{name: "empty", dir: ""},
		{name: "root", dir: string(filepath.Separator)},
		{name: "dot", dir: "."},
		{name: "dot dot", dir: filepath.Join("a", "..")},
		{name: "parent", dir: ".."},
		{name: "trailing dot dot", dir: filepath.FromSlash("a/b/..")},
		{name: "trailing dot dot and separator", dir: filepath.FromSlash("a/b/../")},
		{name: "trailing dot dot and dot", dir: filepath.FromSlash("a/b/../.")},
		{name: "invalid UTF-8", dir: filepath.Join(t.TempDir(), "\xff\xfe")},
	}

	for _, tt := range tests {
		for _, m := range Methods() {
			t.Run(tt.name+"/"+m.String(), func(t *testing.T) {
				var buf bytes.Buffer
				err := m.CreateArchive(tt.dir, false, &buf)
				assert.ErrorIs(t, err, ErrInvalidPath)

				var ipe *InvalidPathError
				if assert.ErrorAs(t, err, &ipe) {
					assert.Equal(t, tt.dir, ipe.Path)
				}

				assert.Zero(t, buf.Len(), "nothing must be written on invalid path")

				_, err = m.Filename(tt.dir)
				assert.ErrorIs(t, err, ErrInvalidPath)
			})
		}
	}
}

func TestCreateArchive_TrailingDotDot(t *testing.T) {
	root := t.TempDir()
	fill(t, root, map[string]string{"a/b/x": "Test Hello Yes"})
	dir := filepath.Join(root, "a", "b") + string(filepath.Separator) + ".."

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer

			err := m.CreateArchive(dir, false, &buf)
			var ipe *InvalidPathError
			if assert.ErrorAs(t, err, &ipe) {
				assert.Equal(t, dir, ipe.Path)
				assert.Equal(t, `directory name terminates in ".."`, ipe.Reason)
			}
			assert.Zero(t, buf.Len())
		})
	}
}

func TestLastElem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "", want: ""},
		{path: "a", want: "a"},
		{path: "a/b", want: "b"},
		{path: "a/b/", want: "b"},
		{path: "a/b/.", want: "b"},
		{path: "a/b/./", want: "b"},
		{path: "a/b/..", want: ".."},
		{path: "a/../b", want: "b"},
		{path: ".", want: ""},
		{path: "/", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lastElem(filepath.FromSlash(tt.path)), tt.path)
	}
}

func TestCreateArchive_NotADirectory(t *testing.T) {
	root := t.TempDir()
	fill(t, root, map[string]string{"file.txt": "Test Hello Yes"})

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer

			err := m.CreateArchive(filepath.Join(root, "file.txt"), false, &buf)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.Zero(t, buf.Len())

			err = m.CreateArchive(filepath.Join(root, "does-not-exist"), false, &buf)
			assert.ErrorIs(t, err, fs.ErrNotExist)

			var ioe *IOError
			if assert.ErrorAs(t, err, &ioe) {
				assert.Equal(t, OpStat, ioe.Op)
			}
			assert.Zero(t, buf.Len())
		})
	}
}

func TestCreateArchive_NonUTF8EntryName(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("file names must be valid UTF-8 on this platform")
	}

	// only the root directory name must be valid UTF-8; entries below it keep their raw bytes.
	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{"bad\xff\xfe": "Test Hello Yes"})

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, m.CreateArchive(dir, false, &buf))

			files := make(map[string]string)
			switch m {
			case TarGz, Tar:
				data := buf.Bytes()
				if m == TarGz {
					data = gunzip(t, data)
				}

				for name, e := range readTar(t, data) {
					files[name] = e.Data
				}
			case Zip:
				files = readZip(t, buf.Bytes())
			}

			assert.Equal(t, map[string]string{
				"c/":            "",
				"c/bad\xff\xfe": "Test Hello Yes",
			}, files)
		})
	}
}

func TestCreateArchive_SkipSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}

	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{"target.txt": "Test Hello Yes"})
	require.NoError(t, os.Symlink("target.txt", filepath.Join(dir, "link.txt")))
	require.NoError(t, os.Symlink(".", filepath.Join(dir, "loop")))
	require.NoError(t, os.Symlink("does-not-exist", filepath.Join(dir, "dangling")))

	t.Run("tar stores symlink records", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Tar.CreateArchive(dir, true, &buf))

		entries := readTar(t, buf.Bytes())
		assert.Equal(t, map[string]tarEntry{
			"c/":           {Typeflag: tar.TypeDir},
			"c/dangling":   {Typeflag: tar.TypeSymlink, Linkname: "does-not-exist"},
			"c/link.txt":   {Typeflag: tar.TypeSymlink, Linkname: "target.txt"},
			"c/loop":       {Typeflag: tar.TypeSymlink, Linkname: "."},
			"c/target.txt": {Typeflag: tar.TypeReg, Data: "Test Hello Yes"},
		}, entries)
	})

	t.Run("tar.gz stores symlink records", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, TarGz.CreateArchive(dir, true, &buf))

		entries := readTar(t, gunzip(t, buf.Bytes()))
		assert.Equal(t, byte(tar.TypeSymlink), entries["c/loop"].Typeflag)
		assert.Len(t, entries, 5)
	})

	t.Run("zip leaves symlinks out", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)

		var buf bytes.Buffer
		require.NoError(t, Zip.CreateArchive(dir, true, &buf, func(options *Options) {
			options.Logger = zap.New(core)
		}))

		assert.Equal(t, map[string]string{
			"c/":           "",
			"c/target.txt": "Test Hello Yes",
		}, readZip(t, buf.Bytes()))
		assert.Equal(t, 3, logs.FilterMessage("skip symlink").Len())
	})
}

func TestCreateArchive_FollowSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}

	root := t.TempDir()
	dir := filepath.Join(root, "c")
	fill(t, root, map[string]string{
		"c/target.txt":   "Test Hello Yes",
		"outside/o.txt":  "outside",
		"outside/deep/p": "deep",
	})
	require.NoError(t, os.Symlink("target.txt", filepath.Join(dir, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join("..", "outside"), filepath.Join(dir, "ext")))
	require.NoError(t, os.Symlink(".", filepath.Join(dir, "loop")))

	expected := map[string]string{
		"c/":           "",
		"c/ext/":       "",
		"c/ext/deep/":  "",
		"c/ext/deep/p": "deep",
		"c/ext/o.txt":  "outside",
		"c/link.txt":   "Test Hello Yes",
		"c/target.txt": "Test Hello Yes",
	}

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)

			var buf bytes.Buffer
			require.NoError(t, m.CreateArchive(dir, false, &buf, func(options *Options) {
				options.Logger = zap.New(core)
			}))

			var files map[string]string
			if m == Zip {
				files = readZip(t, buf.Bytes())
			} else {
				data := buf.Bytes()
				if m == TarGz {
					data = gunzip(t, data)
				}

				files = make(map[string]string)
				for name, e := range readTar(t, data) {
					assert.NotEqualf(t, byte(tar.TypeSymlink), e.Typeflag, "%s must not be a symlink record", name)
					files[name] = e.Data
				}
			}

			assert.Equal(t, expected, files)
			assert.Equal(t, 1, logs.FilterMessage("skip symlink cycle").Len())
		})
	}
}

func TestCreateArchive_FollowDanglingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}

	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{"e": "Test Hello Yes"})
	require.NoError(t, os.Symlink("does-not-exist", filepath.Join(dir, "dangling")))

	tests := []struct {
		method Method
		layer  Layer
		op     Op
	}{
		{method: TarGz, layer: LayerTar, op: OpAppendTar},
		{method: Tar, layer: LayerTar, op: OpAppendTar},
		{method: Zip, layer: LayerZip, op: OpAppendZip},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.method.CreateArchive(dir, false, &buf)
			assert.ErrorIs(t, err, fs.ErrNotExist)

			var ce *CreationError
			if assert.ErrorAs(t, err, &ce) {
				assert.Equal(t, tt.layer, ce.Layer)
			}

			var ioe *IOError
			if assert.ErrorAs(t, err, &ioe) {
				assert.Equal(t, tt.op, ioe.Op)
				assert.Equal(t, dir, ioe.Path)
			}
		})
	}
}

func TestCreateArchive_WriteErrors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{
		"e": "Test Hello Yes",
		"f": "Test Hello Yes",
		"g": "Test Hello Yes",
	})

	tests := []struct {
		name   string
		method Method
		// n is the number of writes that the destination accepts before failing.
		n     int
		layer Layer
		op    Op
	}{
		{
			name:   "tar header",
			method: Tar,
			n:      0,
			layer:  LayerTar,
			op:     OpAppendTar,
		},
		{
			// the gzip header goes through but the compressed tarball is buffered until gzip is finished.
			name:   "gzip finish",
			method: TarGz,
			n:      1,
			layer:  LayerGzip,
			op:     OpFinishGzip,
		},
		{
			name:   "gzip header",
			method: TarGz,
			n:      0,
			layer:  LayerTar,
			op:     OpAppendTar,
		},
		{
			// zip.Writer buffers small archives until the central directory is flushed.
			name:   "zip finish",
			method: Zip,
			n:      0,
			layer:  LayerZip,
			op:     OpFinishZip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.method.CreateArchive(dir, false, &failingWriter{n: tt.n})
			assert.ErrorIs(t, err, errBoom)

			var ce *CreationError
			if assert.ErrorAs(t, err, &ce) {
				assert.Equal(t, tt.layer, ce.Layer)
			}

			var ioe *IOError
			if assert.ErrorAs(t, err, &ioe) {
				assert.Equal(t, tt.op, ioe.Op)
			}
		})
	}
}

func TestCreateArchive_ReadErrors(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions cannot be used to deny reads")
	}

	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{"e": "Test Hello Yes"})
	require.NoError(t, os.Chmod(filepath.Join(dir, "e"), 0))

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			var buf bytes.Buffer
			err := m.CreateArchive(dir, false, &buf)
			assert.ErrorIs(t, err, fs.ErrPermission)

			var ioe *IOError
			if assert.ErrorAs(t, err, &ioe) {
				assert.Contains(t, []Op{OpAppendTar, OpAppendZip}, ioe.Op)
			}
		})
	}
}

func TestCreateArchive_ProgressReporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{
		"e":      "Test Hello Yes",
		"sub/f":  "Test Hello",
		"empty/": "",
	})

	type call struct {
		src, dst string
		written  int64
		done     bool
	}

	for _, m := range Methods() {
		t.Run(m.String(), func(t *testing.T) {
			calls := make([]call, 0)

			err := m.CreateArchive(dir, false, &bytes.Buffer{}, func(options *Options) {
				options.BufferSize = 4
				options.ProgressReporter = func(src, dst string, written int64, done bool) {
					calls = append(calls, call{src, dst, written, done})
				}
			})
			require.NoError(t, err)

			assert.Equal(t, []call{
				{filepath.Join(dir, "e"), "c/e", 14, true},
				{filepath.Join(dir, "sub", "f"), "c/sub/f", 10, true},
			}, calls)
		})
	}
}

func TestCreateArchive_UnknownMethod(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	fill(t, dir, map[string]string{"e": "Test Hello Yes"})

	var buf bytes.Buffer
	err := Method(0).CreateArchive(dir, false, &buf)
	assert.ErrorContains(t, err, "unknown archive method")
	assert.False(t, errors.Is(err, ErrInvalidPath))
	assert.Zero(t, buf.Len())
}
