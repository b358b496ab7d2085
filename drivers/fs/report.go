package fs

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ReportPrefix starts the names of unfinished report files
const ReportPrefix = ".bagval.report."

// ReportFile collects a report in a temporary file next to its destination.
// The destination is replaced on Commit only, so readers see either the
// previous report or the complete new one.
type ReportFile struct {
	file *os.File
	dest string
	done bool
}

// CreateReport starts a report that will be written to dest
func CreateReport(dest string) (*ReportFile, error) {
	f, err := ioutil.TempFile(filepath.Dir(dest), ReportPrefix+filepath.Base(dest)+".*")
	if err != nil {
		return nil, errors.Wrapf(err, "could not start report %s", dest)
	}
	return &ReportFile{file: f, dest: dest}, nil
}

func (w *ReportFile) Write(p []byte) (int, error) {
	if w.done {
		return 0, errors.Errorf("report %s is already finished", w.dest)
	}
	return w.file.Write(p)
}

// Commit moves the report into place.  After Commit or Discard, both do
// nothing.
func (w *ReportFile) Commit() error {
	if w.done {
		return nil
	}
	w.done = true

	tmp := w.file.Name()
	err := w.file.Sync()
	if err == nil {
		err = w.file.Chmod(0644)
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, w.dest)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "could not write report %s", w.dest)
	}
	return nil
}

// Discard drops the report, leaving any previous report at the destination
// untouched
func (w *ReportFile) Discard() error {
	if w.done {
		return nil
	}
	w.done = true

	_ = w.file.Close()
	return errors.Wrapf(os.Remove(w.file.Name()), "could not remove unfinished report %s", w.dest)
}
