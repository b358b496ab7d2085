// Package fs reads bags from the local filesystem.
//
// Open reads a bag's tag files and manifests into a bagval.Bag, which is all
// validation components need to know about a bag besides the content of its
// files.  Problems that prevent building that view are returned as a
// *BagError, whose Kind tells a directory that is not a bag at all apart from
// a bag that has broken metadata.
package fs

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/metadata"
	"github.com/pkg/errors"
)

// BagErrorKind distinguishes reasons a bag cannot be opened
type BagErrorKind int

// Bag error kinds
const (
	BagMissing   BagErrorKind = iota // No bagit.txt, or no such directory
	BagMalformed                     // Unreadable or garbled bag metadata
)

func (k BagErrorKind) String() string {
	if k == BagMissing {
		return "not a bag"
	}
	return "malformed bag"
}

// BagError is returned by Open when a bag cannot be read
type BagError struct {
	Kind BagErrorKind
	Path string
	Err  error
}

func (e *BagError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, e.Err)
}

// IsBagError tells whether err is, or wraps, a BagError of the given kind
func IsBagError(err error, kind BagErrorKind) bool {
	berr, ok := errors.Cause(err).(*BagError)
	return ok && berr.Kind == kind
}

func missing(path string, err error) error {
	return &BagError{Kind: BagMissing, Path: path, Err: err}
}

func malformed(path string, err error) error {
	return &BagError{Kind: BagMalformed, Path: path, Err: err}
}

// Open reads the bag rooted at the given directory
func Open(root string) (*bagval.Bag, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "could not calculate absolute path of %s", root)
	}

	isBag, err := isBag(root)
	if err != nil {
		return nil, missing(root, err)
	}
	if !isBag {
		return nil, missing(root, errors.Errorf("expected %s does not exist", metadata.BagitFile))
	}

	bag := bagval.NewBag(root)

	declaration, err := readTags(root, metadata.BagitFile)
	if err != nil {
		return nil, malformed(root, err)
	}
	version, ok := declaration.First(metadata.VersionTag)
	if !ok {
		return nil, malformed(root, errors.Errorf("%s does not declare %s", metadata.BagitFile, metadata.VersionTag))
	}
	bag.Version = version

	if err := readBagInfo(bag); err != nil {
		return nil, malformed(root, err)
	}

	if info, err := os.Stat(bag.PayloadRoot); err != nil || !info.IsDir() {
		return nil, malformed(root, errors.Errorf("expected payload directory %s does not exist", bag.PayloadRoot))
	}

	if err := readManifests(bag); err != nil {
		return nil, malformed(root, err)
	}

	if err := listTagFiles(bag); err != nil {
		return nil, malformed(root, err)
	}
	bag.HasFetch = bag.HasTagFile(metadata.FetchFile)

	return bag, nil
}

func readBagInfo(bag *bagval.Bag) error {
	_, err := os.Stat(filepath.Join(bag.Root, metadata.BagInfoFile))
	if os.IsNotExist(err) {
		return nil
	}

	bag.Tags, err = readTags(bag.Root, metadata.BagInfoFile)
	if err != nil {
		return err
	}
	bag.HasBagInfo = true

	if value, ok := bag.Tags.First(metadata.OxumTag); ok {
		bag.Oxum, err = metadata.ParseOxum(value)
		if err != nil {
			return errors.Wrapf(err, "bad %s", metadata.BagInfoFile)
		}
	}
	return nil
}

func readManifests(bag *bagval.Bag) error {
	entries, err := ioutil.ReadDir(bag.Root)
	if err != nil {
		return errors.Wrapf(err, "could not list %s", bag.Root)
	}

	for _, e := range entries {
		alg, tag, ok := metadata.ManifestAlgorithm(e.Name())
		if !ok || !e.Mode().IsRegular() {
			continue
		}

		m, err := readManifest(bag.Root, e.Name())
		if err != nil {
			return err
		}

		if tag {
			bag.TagManifests[alg] = m
		} else {
			bag.Manifests[alg] = m
		}
	}

	return nil
}

// Tag files are all files outside of the payload directory
func listTagFiles(bag *bagval.Bag) error {
	prefix := bagval.PayloadDir + "/"
	files, err := Walk(bag.Root)
	if err != nil {
		return err
	}

	for _, f := range files {
		if !strings.HasPrefix(f.Path, prefix) {
			bag.TagFiles = append(bag.TagFiles, f.Path)
		}
	}
	sort.Strings(bag.TagFiles)
	return nil
}
