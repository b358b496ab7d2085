// Package bagtest builds bags on disk for tests.
package bagtest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Builder describes a bag to be written with Write.  Payload paths are
// relative to the payload directory.
type Builder struct {
	t            testing.TB
	files        map[string]string
	dirs         []string
	info         [][2]string
	algs         []string
	tagAlgs      []string
	version      string
	omitBagit    bool
	omitBagInfo  bool
	omitOxum     bool
	extraTagFile map[string]string
}

// New starts describing a bag with a sha256 payload manifest
func New(t testing.TB) *Builder {
	return &Builder{
		t:            t,
		files:        map[string]string{},
		algs:         []string{"sha256"},
		version:      "1.0",
		extraTagFile: map[string]string{},
	}
}

// File adds a payload file
func (b *Builder) File(path, content string) *Builder {
	b.files[path] = content
	return b
}

// Dir adds an empty payload directory
func (b *Builder) Dir(path string) *Builder {
	b.dirs = append(b.dirs, path)
	return b
}

// Info adds a bag-info.txt tag
func (b *Builder) Info(label, value string) *Builder {
	b.info = append(b.info, [2]string{label, value})
	return b
}

// Manifests sets the payload manifest algorithms
func (b *Builder) Manifests(algs ...string) *Builder {
	b.algs = algs
	return b
}

// TagManifests sets the tag manifest algorithms
func (b *Builder) TagManifests(algs ...string) *Builder {
	b.tagAlgs = algs
	return b
}

// Version sets the declared BagIt version
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// TagFile adds an extra tag file, relative to the bag root
func (b *Builder) TagFile(path, content string) *Builder {
	b.extraTagFile[path] = content
	return b
}

// WithoutBagit omits bagit.txt, so the result is not a bag
func (b *Builder) WithoutBagit() *Builder {
	b.omitBagit = true
	return b
}

// WithoutBagInfo omits bag-info.txt
func (b *Builder) WithoutBagInfo() *Builder {
	b.omitBagInfo = true
	return b
}

// WithoutOxum omits the Payload-Oxum tag
func (b *Builder) WithoutOxum() *Builder {
	b.omitOxum = true
	return b
}

// Write writes the bag into a new directory named bag inside dir, and
// returns its path
func (b *Builder) Write(dir string) string {
	root := filepath.Join(dir, "bag")

	for _, d := range b.dirs {
		b.mkdir(filepath.Join(root, "data", filepath.FromSlash(d)))
	}
	b.mkdir(filepath.Join(root, "data"))

	var size int64
	for path, content := range b.files {
		b.write(filepath.Join(root, "data", filepath.FromSlash(path)), content)
		size += int64(len(content))
	}

	var tagFiles []string
	if !b.omitBagit {
		b.write(filepath.Join(root, "bagit.txt"),
			fmt.Sprintf("BagIt-Version: %s\nTag-File-Character-Encoding: UTF-8\n", b.version))
		tagFiles = append(tagFiles, "bagit.txt")
	}

	if !b.omitBagInfo {
		var info strings.Builder
		for _, tag := range b.info {
			fmt.Fprintf(&info, "%s: %s\n", tag[0], tag[1])
		}
		if !b.omitOxum {
			fmt.Fprintf(&info, "Payload-Oxum: %d.%d\n", size, len(b.files))
		}
		b.write(filepath.Join(root, "bag-info.txt"), info.String())
		tagFiles = append(tagFiles, "bag-info.txt")
	}

	for path, content := range b.extraTagFile {
		b.write(filepath.Join(root, filepath.FromSlash(path)), content)
		tagFiles = append(tagFiles, path)
	}

	payload := make(map[string]string, len(b.files))
	for path, content := range b.files {
		payload["data/"+path] = content
	}

	for _, alg := range b.algs {
		name := fmt.Sprintf("manifest-%s.txt", alg)
		b.write(filepath.Join(root, name), manifest(b.t, alg, payload))
		tagFiles = append(tagFiles, name)
	}

	if len(b.tagAlgs) > 0 {
		tags := make(map[string]string, len(tagFiles))
		for _, f := range tagFiles {
			content, err := ioutil.ReadFile(filepath.Join(root, filepath.FromSlash(f)))
			if err != nil {
				b.t.Fatal(err)
			}
			tags[f] = string(content)
		}
		for _, alg := range b.tagAlgs {
			b.write(filepath.Join(root, fmt.Sprintf("tagmanifest-%s.txt", alg)), manifest(b.t, alg, tags))
		}
	}

	return root
}

func (b *Builder) mkdir(path string) {
	if err := os.MkdirAll(path, 0755); err != nil {
		b.t.Fatal(err)
	}
}

func (b *Builder) write(path, content string) {
	b.mkdir(filepath.Dir(path))
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		b.t.Fatal(err)
	}
}

func manifest(t testing.TB, alg string, files map[string]string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var m strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&m, "%s  %s\n", Digest(t, alg, files[p]), p)
	}
	return m.String()
}

// Digest computes the hex digest of content; only md5, sha1, sha256 and
// sha512 are supported
func Digest(t testing.TB, alg, content string) string {
	var h hash.Hash
	switch alg {
	case "md5":
		h = md5.New()
	case "sha1":
		h = sha1.New()
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		t.Fatalf("unsupported test digest %s", alg)
	}
	_, _ = h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// TempDir creates a temporary directory and passes it to f, removing it
// afterwards
func TempDir(t testing.TB, f func(dir string)) {
	dir, err := ioutil.TempDir("", "bagval_test")
	if err != nil {
		t.Fatal("Could not create testing temp dir")
	}
	defer os.RemoveAll(dir)
	f(dir)
}
