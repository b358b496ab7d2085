package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/fspath"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

const (
	dontGoDeeper = true
	goDeeper     = false
)

// File is a regular file found by Walk
type File struct {
	Path string // Solidus delimited, relative to the walked directory
	Addr string // Filesystem path
	Size int64
}

// Walk lists all regular files below dir, sorted by path.  Symbolic links are
// followed.
func Walk(dir string) ([]File, error) {
	var files []File

	err := fsWalk(dir, func(ospath string, e *godirwalk.Dirent) (bool, error) {
		if e.IsDir() {
			return goDeeper, nil
		}

		info, err := os.Stat(ospath)
		if err != nil {
			return dontGoDeeper, errors.Wrapf(err, "could not stat %s", ospath)
		}

		// Symlinks to directories are walked into
		if info.IsDir() {
			return goDeeper, nil
		}

		if !info.Mode().IsRegular() {
			return dontGoDeeper, nil
		}

		rel, err := fspath.Rel(dir, ospath)
		if err != nil {
			return dontGoDeeper, err
		}

		files = append(files, File{
			Path: rel,
			Addr: ospath,
			Size: info.Size(),
		})
		return dontGoDeeper, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error performing walk")
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Payload lists the payload files of the bag rooted at root
func Payload(root string) ([]File, error) {
	return Walk(filepath.Join(root, bagval.PayloadDir))
}

type skip struct {
	action godirwalk.ErrorAction
}

func (skip) Error() string {
	return "node is skipped"
}

// Callback to be invoked each time a fs entry is encountered.
// Returns a Boolean indicating whether the current fs entry should be a
// considered a terminal (leaf) node.  If true, any children will not be
// walked.  Any error will terminate a walk entirely.
type fsCallback func(ospath string, e *godirwalk.Dirent) (terminal bool, err error)

func fsWalk(dir string, f fsCallback) error {

	if _, err := os.Stat(dir); err != nil {
		return errors.Wrapf(err, "error walking directory %s", dir)
	}

	return godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(ospath string, dirent *godirwalk.Dirent) error {
			terminal, err := f(ospath, dirent)
			if err != nil {
				return errors.Wrap(err, "terminating walk due to error")
			}
			if terminal {
				return skip{godirwalk.SkipNode}
			}
			return nil
		},
		ErrorCallback: func(ospath string, err error) godirwalk.ErrorAction {
			s, skip := errors.Cause(err).(skip)
			if skip {
				return s.action
			}

			return godirwalk.Halt
		},
		Unsorted:            true,
		FollowSymbolicLinks: true,
	},
	)
}
