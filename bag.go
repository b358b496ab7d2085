package bagval

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// PayloadDir is the name of a bag's payload directory
const PayloadDir = "data"

// Algorithm is a digest algorithm identifier as used in manifest file names,
// e.g. sha256 for manifest-sha256.txt
type Algorithm string

// Digest is a hex encoded digest value
type Digest string

// Manifest maps root relative, solidus delimited file paths to their digest
// under a single algorithm
type Manifest map[string]Digest

// Oxum is a declared aggregate payload size, as given by Payload-Oxum
type Oxum struct {
	Bytes int64
	Files int64
}

func (o Oxum) String() string {
	return fmt.Sprintf("%d.%d", o.Bytes, o.Files)
}

// Tags are the labelled values of a tag file such as bag-info.txt.  A label
// may repeat, so each label maps to all of its values in order of appearance.
type Tags map[string][]string

// Get returns all values of a label
func (t Tags) Get(label string) []string {
	return t[label]
}

// First returns the first value of a label, if present
func (t Tags) First(label string) (string, bool) {
	values := t[label]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Add appends a value to a label
func (t Tags) Add(label, value string) {
	t[label] = append(t[label], value)
}

// Folded returns a copy in which all labels are lowercase, merging values of
// labels that differ only in case
func (t Tags) Folded() Tags {
	folded := make(Tags, len(t))
	labels := make([]string, 0, len(t))
	for label := range t {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		key := strings.ToLower(label)
		folded[key] = append(folded[key], t[label]...)
	}
	return folded
}

// Bag is the read-only view of a bag consumed by validation components.
// Manifest paths are relative to Root.
type Bag struct {
	Root         string
	PayloadRoot  string
	Version      string
	Tags         Tags
	Oxum         *Oxum
	Manifests    map[Algorithm]Manifest
	TagManifests map[Algorithm]Manifest
	TagFiles     []string // root relative names of tag files present
	HasBagInfo   bool
	HasFetch     bool
}

// NewBag creates an empty bag view rooted at the given directory
func NewBag(root string) *Bag {
	return &Bag{
		Root:         root,
		PayloadRoot:  filepath.Join(root, PayloadDir),
		Tags:         Tags{},
		Manifests:    map[Algorithm]Manifest{},
		TagManifests: map[Algorithm]Manifest{},
	}
}

// Entries merges all payload manifests into a single mapping of
// path to algorithm to expected digest.
func (b *Bag) Entries() map[string]map[Algorithm]Digest {
	return merge(b.Manifests)
}

// TagEntries merges all tag manifests, see Entries
func (b *Bag) TagEntries() map[string]map[Algorithm]Digest {
	return merge(b.TagManifests)
}

// Algorithms lists the payload manifest algorithms, sorted
func (b *Bag) Algorithms() []Algorithm {
	return algorithms(b.Manifests)
}

// TagAlgorithms lists the tag manifest algorithms, sorted
func (b *Bag) TagAlgorithms() []Algorithm {
	return algorithms(b.TagManifests)
}

// HasTagFile tells whether the given root relative tag file is present
func (b *Bag) HasTagFile(name string) bool {
	for _, f := range b.TagFiles {
		if f == name {
			return true
		}
	}
	return false
}

func merge(manifests map[Algorithm]Manifest) map[string]map[Algorithm]Digest {
	merged := make(map[string]map[Algorithm]Digest)
	for alg, m := range manifests {
		for path, digest := range m {
			if merged[path] == nil {
				merged[path] = make(map[Algorithm]Digest)
			}
			merged[path][alg] = digest
		}
	}
	return merged
}

func algorithms(manifests map[Algorithm]Manifest) []Algorithm {
	algs := make([]Algorithm, 0, len(manifests))
	for alg := range manifests {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}
