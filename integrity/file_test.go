package integrity_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/integrity"
	"github.com/birkland/bagval/internal/bagtest"
	"github.com/go-test/deep"
)

func TestVerifyFile(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		file := filepath.Join(dir, "object.bin")
		write(t, file, "object content")

		for _, alg := range []string{"md5", "sha1", "sha256", "sha512"} {
			expected := bagval.Digest(bagtest.Digest(t, alg, "object content"))

			r, err := integrity.VerifyFile(file, bagval.Algorithm(alg), expected)
			if err != nil {
				t.Errorf("%s: expected a valid checksum, got %+v", alg, err)
			}
			if diff := deep.Equal(r.Diagnostics(), []bagval.Diagnostic{{
				Severity: bagval.Info,
				Origin:   bagval.ChecksumValidator,
				Message:  "Checksum is valid.",
			}}); diff != nil {
				t.Error(diff)
			}

			upper := bagval.Digest(strings.ToUpper(string(expected)))
			if _, err := integrity.VerifyFile(file, bagval.Algorithm(alg), upper); err != nil {
				t.Errorf("%s: digests must compare case insensitively, got %+v", alg, err)
			}
		}
	})
}

func TestVerifyFileMismatch(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		file := filepath.Join(dir, "object.bin")
		write(t, file, "object content")

		found := bagtest.Digest(t, "md5", "object content")
		r, err := integrity.VerifyFile(file, "md5", "abc")
		if !bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Fatalf("expected a validation error, got %+v", err)
		}

		expected := []string{"Validation failed. (Expected 'abc', but found '" + found + "'.)"}
		if diff := deep.Equal(errorsOf(r), expected); diff != nil {
			t.Error(diff)
		}
	})
}

func TestVerifyFileErrors(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		file := filepath.Join(dir, "object.bin")
		write(t, file, "object content")

		if _, err := integrity.VerifyFile(file, "crc32", "abc"); !bagval.IsConfigError(err) {
			t.Errorf("expected a configuration error for an unknown algorithm, got %+v", err)
		}
		if _, err := integrity.VerifyFile(file, "md5", ""); !bagval.IsConfigError(err) {
			t.Errorf("expected a configuration error for a missing digest, got %+v", err)
		}

		_, err := integrity.VerifyFile(filepath.Join(dir, "missing"), "md5", "abc")
		if err == nil || bagval.IsConfigError(err) || bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Errorf("expected a plain error for a missing file, got %+v", err)
		}
	})
}

func TestDigestFamilies(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		file := filepath.Join(dir, "empty")
		write(t, file, "")

		digests, err := integrity.Digests(file, "sha3-256", "blake2b-256", "sha224", "sha384", "sha3-512", "blake2b-512")
		if err != nil {
			t.Fatal(err)
		}

		known := map[bagval.Algorithm]bagval.Digest{
			"sha3-256":    "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
			"blake2b-256": "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
			"sha224":      "d14a028c2a3a2bc9476102bb288234c415a2b01f828ea62ac5b3e42f",
		}
		for alg, digest := range known {
			if digests[alg] != digest {
				t.Errorf("wrong %s digest of empty input: %s", alg, digests[alg])
			}
		}

		lengths := map[bagval.Algorithm]int{"sha384": 96, "sha3-512": 128, "blake2b-512": 128}
		for alg, length := range lengths {
			if len(digests[alg]) != length {
				t.Errorf("wrong %s digest length %d", alg, len(digests[alg]))
			}
		}
	})
}

func TestNewHash(t *testing.T) {
	for _, alg := range integrity.Supported() {
		if _, err := integrity.NewHash(alg); err != nil {
			t.Errorf("supported algorithm %s failed: %+v", alg, err)
		}
	}

	if _, err := integrity.NewHash("sha0"); !bagval.IsConfigError(err) {
		t.Errorf("expected a configuration error, got %+v", err)
	}
}
