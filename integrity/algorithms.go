package integrity

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sort"

	"github.com/birkland/bagval"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var algorithms = map[bagval.Algorithm]func() hash.Hash{
	"md5":         md5.New,
	"sha1":        sha1.New,
	"sha224":      sha256.New224,
	"sha256":      sha256.New,
	"sha384":      sha512.New384,
	"sha512":      sha512.New,
	"sha3-256":    sha3.New256,
	"sha3-512":    sha3.New512,
	"blake2b-256": unkeyed(blake2b.New256),
	"blake2b-512": unkeyed(blake2b.New512),
}

// blake2b constructors only fail for oversized keys
func unkeyed(f func([]byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, _ := f(nil)
		return h
	}
}

// Supported lists the supported digest algorithms, sorted
func Supported() []bagval.Algorithm {
	algs := make([]bagval.Algorithm, 0, len(algorithms))
	for alg := range algorithms {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// IsSupported tells whether a digest algorithm is known
func IsSupported(alg bagval.Algorithm) bool {
	_, ok := algorithms[alg]
	return ok
}

// NewHash creates a hash for the given algorithm.  An unknown algorithm is a
// configuration error.
func NewHash(alg bagval.Algorithm) (hash.Hash, error) {
	f, ok := algorithms[alg]
	if !ok {
		return nil, bagval.Configf("unsupported digest algorithm '%s' (supported: %v)", alg, Supported())
	}
	return f(), nil
}

// Digests computes the digests of a file under all given algorithms, reading
// the file once
func Digests(path string, algs ...bagval.Algorithm) (map[bagval.Algorithm]bagval.Digest, error) {
	hashes := make(map[bagval.Algorithm]hash.Hash, len(algs))
	writers := make([]io.Writer, 0, len(algs))
	for _, alg := range algs {
		h, err := NewHash(alg)
		if err != nil {
			return nil, err
		}
		hashes[alg] = h
		writers = append(writers, h)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	defer file.Close()

	if _, err := io.Copy(io.MultiWriter(writers...), file); err != nil {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}

	digests := make(map[bagval.Algorithm]bagval.Digest, len(hashes))
	for alg, h := range hashes {
		digests[alg] = bagval.Digest(hex.EncodeToString(h.Sum(nil)))
	}
	return digests, nil
}
