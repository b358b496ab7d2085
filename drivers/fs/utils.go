package fs

import (
	"os"
	"path/filepath"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/metadata"
	"github.com/pkg/errors"
)

// readTags reads a tag file, given the bag root and the file's name
func readTags(root, name string) (tags bagval.Tags, err error) {
	file, err := os.Open(filepath.Join(root, name))
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", name)
	}
	defer func() {
		if e := file.Close(); e != nil && err == nil {
			err = errors.Wrapf(e, "error closing %s", name)
		}
	}()

	tags, err = metadata.ParseTags(file)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", name)
	}

	return tags, nil
}

// readManifest reads a manifest or tag manifest, given the bag root and the
// file's name
func readManifest(root, name string) (m bagval.Manifest, err error) {
	file, err := os.Open(filepath.Join(root, name))
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", name)
	}
	defer func() {
		if e := file.Close(); e != nil && err == nil {
			err = errors.Wrapf(e, "error closing %s", name)
		}
	}()

	m, err = metadata.ParseManifest(file)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", name)
	}

	return m, nil
}
