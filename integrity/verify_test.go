package integrity_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/drivers/fs"
	"github.com/birkland/bagval/integrity"
	"github.com/birkland/bagval/internal/bagtest"
	"github.com/go-test/deep"
)

func exampleBag(t *testing.T) *bagtest.Builder {
	return bagtest.New(t).
		File("preservation_master/sample.txt", "some content").
		File("preservation_master/other.txt", "other content").
		File("access/sample.txt", "access").
		Manifests("sha256", "md5").
		TagManifests("sha512")
}

func verify(t *testing.T, root string, workers int) (*bagval.Report, error) {
	bag, err := fs.Open(root)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	v := integrity.Verifier{Workers: workers}
	return v.ValidateBag(context.Background(), bag)
}

func errorsOf(r *bagval.Report) []string {
	var msgs []string
	for _, d := range r.Pick(bagval.Error) {
		msgs = append(msgs, d.Message)
	}
	return msgs
}

func matching(msgs []string, fragment string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, fragment) {
			n++
		}
	}
	return n
}

func TestValidBag(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		bagtest.TempDir(t, func(dir string) {
			r, err := verify(t, exampleBag(t).Write(dir), workers)
			if err != nil {
				t.Fatalf("expected an intact bag, got %+v", err)
			}
			if r.Has(bagval.Warning) {
				t.Errorf("unexpected warnings:\n%s", r)
			}
			if count := len(r.Pick(bagval.Info)); count != 1 {
				t.Errorf("expected a single summary, got\n%s", r)
			}
		})
	}
}

func TestUnexpectedFile(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := exampleBag(t).Write(dir)
		write(t, filepath.Join(root, "data", "preservation_master", "unxpctd.txt"), "surprise")

		r, err := verify(t, root, 2)
		if !bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Fatalf("expected an integrity error, got %+v", err)
		}

		expected := []string{
			"Payload-Oxum validation failed. Expected 3 files and 31 bytes but found 4 files and 39 bytes",
			"data/preservation_master/unxpctd.txt exists on filesystem but is not in the manifest",
		}
		if diff := deep.Equal(errorsOf(r), expected); diff != nil {
			t.Error(diff)
		}
	})
}

func TestMissingFiles(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := exampleBag(t).Write(dir)
		if err := os.RemoveAll(filepath.Join(root, "data", "preservation_master")); err != nil {
			t.Fatal(err)
		}

		r, err := verify(t, root, 2)
		if !bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Fatalf("expected an integrity error, got %+v", err)
		}

		errs := errorsOf(r)
		if matching(errs, "Payload-Oxum validation failed.") != 1 {
			t.Errorf("expected an oxum error, got\n%s", r)
		}
		if matching(errs, "exists in manifest but was not found on filesystem") != 2 {
			t.Errorf("expected two missing files, got\n%s", r)
		}
		if matching(errs, "data/preservation_master/other.txt md5 validation failed") != 1 ||
			matching(errs, "data/preservation_master/other.txt sha256 validation failed") != 1 {
			t.Errorf("expected checksum errors for every algorithm, got\n%s", r)
		}
	})
}

func TestCorruptFile(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := exampleBag(t).WithoutOxum().Write(dir)
		write(t, filepath.Join(root, "data", "access", "sample.txt"), "ACCESS")

		r, err := verify(t, root, 3)
		if !bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Fatalf("expected an integrity error, got %+v", err)
		}

		expected := []string{
			`data/access/sample.txt md5 validation failed: expected="` + bagtest.Digest(t, "md5", "access") +
				`" found="` + bagtest.Digest(t, "md5", "ACCESS") + `"`,
			`data/access/sample.txt sha256 validation failed: expected="` + bagtest.Digest(t, "sha256", "access") +
				`" found="` + bagtest.Digest(t, "sha256", "ACCESS") + `"`,
		}
		if diff := deep.Equal(errorsOf(r), expected); diff != nil {
			t.Error(diff)
		}
	})
}

func TestCorruptTagFile(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := exampleBag(t).Write(dir)
		write(t, filepath.Join(root, "bag-info.txt"), "Payload-Oxum: 31.3\nContact-Name: Someone\n")
		if err := os.Remove(filepath.Join(root, "manifest-md5.txt")); err != nil {
			t.Fatal(err)
		}

		r, err := verify(t, root, 2)
		if !bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Fatalf("expected an integrity error, got %+v", err)
		}

		errs := errorsOf(r)
		if matching(errs, "bag-info.txt sha512 validation failed") != 1 {
			t.Errorf("expected a tag file checksum error, got\n%s", r)
		}
		if matching(errs, "manifest-md5.txt exists in manifest but was not found on filesystem") != 1 {
			t.Errorf("expected a missing tag file, got\n%s", r)
		}
	})
}

func TestUnsupportedManifest(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := exampleBag(t).Write(dir)
		write(t, filepath.Join(root, "manifest-crc32.txt"), "deadbeef  data/access/sample.txt\n")

		r, err := verify(t, root, 2)
		if err != nil {
			t.Fatalf("an unsupported manifest must not fail verification: %+v", err)
		}
		if !r.Has(bagval.Warning) {
			t.Errorf("expected a warning, got\n%s", r)
		}
	})
}

func TestNoManifests(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := bagtest.New(t).File("a.txt", "x").Manifests().Write(dir)

		r, err := verify(t, root, 1)
		if !bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Fatalf("expected an integrity error, got %+v", err)
		}

		errs := errorsOf(r)
		if matching(errs, "No manifest files found") != 1 || matching(errs, "data/a.txt exists on filesystem") != 1 {
			t.Errorf("unexpected errors\n%s", r)
		}
	})
}

func TestCancelled(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		bag, err := fs.Open(exampleBag(t).Write(dir))
		if err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		v := integrity.Verifier{Workers: 1}
		if _, err := v.ValidateBag(ctx, bag); err == nil || bagval.IsValidationError(err, bagval.ManifestIntegrity) {
			t.Errorf("expected verification to be interrupted, got %+v", err)
		}
	})
}

func write(t *testing.T, path, content string) {
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
