package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/birkland/bagval/metadata"
	"github.com/pkg/errors"
)

// LocateBag attempts to find the first directory that is a bag root, starting
// from the given location and moving up through its parents.  The primary use
// case is finding the bag a given payload file belongs to.
func LocateBag(loc string) (string, error) {
	addr, err := filepath.Abs(loc)
	if err != nil {
		return "", errors.Wrapf(err, "could not make absolute %s", loc)
	}

	found, err := isBag(addr)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return "", errors.Wrap(err, "error finding bag root")
	}

	if found {
		return addr, nil
	}

	root, err := crawlForBag(addr)
	if err != nil {
		return "", errors.Wrap(err, "error finding bag root")
	}
	return root, nil
}

// Crawl up a directory hierarchy until we reach a bag root.
// Returns an error if no bag is found.
func crawlForBag(addr string) (string, error) {
	parent := filepath.Dir(addr)

	found, err := isBag(parent)
	if err != nil {
		return "", errors.Wrapf(err, "error detecting bag root")
	}

	if !found && parent == addr {
		return "", fmt.Errorf("no bag found crawling up to %s", parent)
	}

	if !found {
		return crawlForBag(parent)
	}

	return parent, nil
}

// Detect if this is a bag root directory, i.e. one holding bagit.txt.
// Returns an error if the given path is not found or otherwise
// there is a problem accessing it.
func isBag(path string) (bool, error) {
	dir, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	if !dir.IsDir() {
		return false, nil
	}

	declaration, err := os.Stat(filepath.Join(path, metadata.BagitFile))

	// We expect a "file not found" error if this isn't a bag,
	// and simply return false in that case.  Anything else (e.g. "permission denied"),
	// we should truly return as an error
	if err != nil && !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "error detecting %s in %s", metadata.BagitFile, path)
	}

	return err == nil && declaration.Mode().IsRegular(), nil
}
