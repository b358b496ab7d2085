package integrity

import (
	"strings"

	"github.com/birkland/bagval"
	"github.com/pkg/errors"
)

// VerifyFile checks a single file's digest.  An unsupported algorithm is a
// configuration error, an unreadable file some other error.  A mismatch is
// reported as a *bagval.ValidationError.
func VerifyFile(path string, alg bagval.Algorithm, expected bagval.Digest) (*bagval.Report, error) {
	r := bagval.NewReport(bagval.ChecksumValidator)

	if _, err := NewHash(alg); err != nil {
		return r, err
	}
	if expected == "" {
		return r, bagval.Configf("missing expected %s digest", alg)
	}

	digests, err := Digests(path, alg)
	if err != nil {
		return r, errors.Wrapf(err, "could not verify %s", path)
	}

	found := digests[alg]
	if found == bagval.Digest(strings.ToLower(string(expected))) {
		r.Log(bagval.Info, "Checksum is valid.")
		return r, nil
	}

	r.Log(bagval.Info, "Checksum is invalid.")
	r.Logf(bagval.Error, "Validation failed. (Expected '%s', but found '%s'.)", expected, found)

	return r, bagval.Verdict(bagval.ManifestIntegrity, r)
}
