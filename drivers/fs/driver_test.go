package fs_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/drivers/fs"
	"github.com/birkland/bagval/internal/bagtest"
	"github.com/go-test/deep"
)

func TestOpen(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := bagtest.New(t).
			File("a.txt", "hello").
			File("sub/b.txt", "world!").
			Info("Source-Organization", "Example Org").
			Manifests("sha256", "md5").
			TagManifests("sha256").
			TagFile("metadata/extra.xml", "<x/>").
			Write(dir)

		bag, err := fs.Open(root)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		if bag.Version != "1.0" {
			t.Errorf("wrong version %s", bag.Version)
		}
		if !bag.HasBagInfo || bag.HasFetch {
			t.Errorf("wrong tag file flags: bag-info %t, fetch %t", bag.HasBagInfo, bag.HasFetch)
		}
		if org, _ := bag.Tags.First("Source-Organization"); org != "Example Org" {
			t.Errorf("wrong Source-Organization %s", org)
		}
		if diff := deep.Equal(bag.Oxum, &bagval.Oxum{Bytes: 11, Files: 2}); diff != nil {
			t.Error(diff)
		}
		if diff := deep.Equal(bag.Algorithms(), []bagval.Algorithm{"md5", "sha256"}); diff != nil {
			t.Error(diff)
		}
		if diff := deep.Equal(bag.TagAlgorithms(), []bagval.Algorithm{"sha256"}); diff != nil {
			t.Error(diff)
		}

		expected := bagval.Manifest{
			"data/a.txt":     bagval.Digest(bagtest.Digest(t, "sha256", "hello")),
			"data/sub/b.txt": bagval.Digest(bagtest.Digest(t, "sha256", "world!")),
		}
		if diff := deep.Equal(bag.Manifests["sha256"], expected); diff != nil {
			t.Error(diff)
		}

		tagFiles := []string{
			"bag-info.txt",
			"bagit.txt",
			"manifest-md5.txt",
			"manifest-sha256.txt",
			"metadata/extra.xml",
			"tagmanifest-sha256.txt",
		}
		if diff := deep.Equal(bag.TagFiles, tagFiles); diff != nil {
			t.Error(diff)
		}
	})
}

func TestOpenWithoutBagInfo(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := bagtest.New(t).File("a.txt", "hello").WithoutBagInfo().Write(dir)

		bag, err := fs.Open(root)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if bag.HasBagInfo || bag.Oxum != nil || len(bag.Tags) != 0 {
			t.Errorf("expected no bag info, got %v", bag.Tags)
		}
	})
}

func TestOpenErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, dir string) string
		kind  fs.BagErrorKind
	}{
		{"noSuchDir", func(t *testing.T, dir string) string {
			return filepath.Join(dir, "DOES_NOT_EXIST")
		}, fs.BagMissing},
		{"noBagit", func(t *testing.T, dir string) string {
			return bagtest.New(t).File("a.txt", "x").WithoutBagit().Write(dir)
		}, fs.BagMissing},
		{"noVersion", func(t *testing.T, dir string) string {
			root := bagtest.New(t).File("a.txt", "x").Write(dir)
			write(t, filepath.Join(root, "bagit.txt"), "Tag-File-Character-Encoding: UTF-8\n")
			return root
		}, fs.BagMalformed},
		{"garbledBagInfo", func(t *testing.T, dir string) string {
			root := bagtest.New(t).File("a.txt", "x").Write(dir)
			write(t, filepath.Join(root, "bag-info.txt"), "no colon here\n")
			return root
		}, fs.BagMalformed},
		{"badOxum", func(t *testing.T, dir string) string {
			root := bagtest.New(t).File("a.txt", "x").Write(dir)
			write(t, filepath.Join(root, "bag-info.txt"), "Payload-Oxum: lots\n")
			return root
		}, fs.BagMalformed},
		{"garbledManifest", func(t *testing.T, dir string) string {
			root := bagtest.New(t).File("a.txt", "x").Write(dir)
			write(t, filepath.Join(root, "manifest-sha256.txt"), "abcdef ../../etc/passwd\n")
			return root
		}, fs.BagMalformed},
		{"noPayloadDir", func(t *testing.T, dir string) string {
			root := bagtest.New(t).Write(dir)
			if err := os.Remove(filepath.Join(root, "data")); err != nil {
				t.Fatal(err)
			}
			return root
		}, fs.BagMalformed},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			bagtest.TempDir(t, func(dir string) {
				_, err := fs.Open(c.setup(t, dir))
				if err == nil {
					t.Fatal("expected an error")
				}
				if !fs.IsBagError(err, c.kind) {
					t.Errorf("expected a %s error, got %+v", c.kind, err)
				}
			})
		})
	}
}

func TestOpenFetch(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := bagtest.New(t).TagFile("fetch.txt", "http://example.org/x 1 data/x\n").Write(dir)

		bag, err := fs.Open(root)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if !bag.HasFetch {
			t.Error("fetch.txt not detected")
		}
	})
}

func write(t *testing.T, path, content string) {
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
