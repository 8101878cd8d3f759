package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// entry is a file or directory visited by walk.
type entry struct {
	// path is the path of the file on disk.
	path string
	// name is the slash-separated name of the entry in the archive, prefixed with the root entry name. Directory
	// names end with "/".
	name string
	// fi describes the file. If the entry is a followed symlink, fi describes the target instead.
	fi os.FileInfo
	// link is the target of an un-followed symlink, empty otherwise.
	link string
}

// walker visits every file and directory under a root directory exactly once, in lexical order.
//
// Unlike filepath.WalkDir, walker is able to follow symlinks to directories. To keep symlink cycles from recursing
// forever, a followed symlink to a directory that is already being walked (i.e. an ancestor) is skipped.
type walker struct {
	followSymlinks bool
	logger         *zap.Logger
	fn             func(e entry) error

	// ancestors are the directories currently being walked, root first.
	ancestors []os.FileInfo
}

// walk calls fn for the root directory and then for each of its descendants.
//
// fi describes root, which must be a directory; name is the root entry name (without trailing "/").
func (w *walker) walk(root, name string, fi os.FileInfo) error {
	return w.walkDir(root, name+"/", fi)
}

func (w *walker) walkDir(path, name string, fi os.FileInfo) error {
	if err := w.fn(entry{path: path, name: name, fi: fi}); err != nil {
		return err
	}

	des, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read directory (path=%s) error: %w", path, err)
	}

	w.ancestors = append(w.ancestors, fi)
	defer func() {
		w.ancestors = w.ancestors[:len(w.ancestors)-1]
	}()

	for _, de := range des {
		childPath := filepath.Join(path, de.Name())
		childName := name + de.Name()

		fi, err := de.Info()
		if err != nil {
			return fmt.Errorf("describe file (path=%s) error: %w", childPath, err)
		}

		if fi.Mode()&os.ModeSymlink != 0 {
			if !w.followSymlinks {
				link, err := os.Readlink(childPath)
				if err != nil {
					return fmt.Errorf("read symlink (path=%s) error: %w", childPath, err)
				}

				if err = w.fn(entry{path: childPath, name: childName, fi: fi, link: link}); err != nil {
					return err
				}

				continue
			}

			if fi, err = os.Stat(childPath); err != nil {
				return fmt.Errorf("follow symlink (path=%s) error: %w", childPath, err)
			}
		}

		if !fi.IsDir() {
			if err = w.fn(entry{path: childPath, name: childName, fi: fi}); err != nil {
				return err
			}

			continue
		}

		if w.isAncestor(fi) {
			w.logger.Debug("skip symlink cycle", zap.String("path", childPath), zap.String("name", childName))
			continue
		}

		if err = w.walkDir(childPath, childName+"/", fi); err != nil {
			return err
		}
	}

	return nil
}

func (w *walker) isAncestor(fi os.FileInfo) bool {
	for _, a := range w.ancestors {
		if os.SameFile(a, fi) {
			return true
		}
	}

	return false
}
