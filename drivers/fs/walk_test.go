package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/birkland/bagval/drivers/fs"
	"github.com/birkland/bagval/internal/bagtest"
	"github.com/go-test/deep"
)

func TestWalk(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := bagtest.New(t).
			File("z.txt", "last").
			File("a/one.txt", "1").
			File("a/b/two.txt", "22").
			Dir("empty/dir").
			Write(dir)

		files, err := fs.Payload(root)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		var paths []string
		var sizes []int64
		for _, f := range files {
			paths = append(paths, f.Path)
			sizes = append(sizes, f.Size)

			if f.Addr != filepath.Join(root, "data", filepath.FromSlash(f.Path)) {
				t.Errorf("wrong address %s for %s", f.Addr, f.Path)
			}
		}

		if diff := deep.Equal(paths, []string{"a/b/two.txt", "a/one.txt", "z.txt"}); diff != nil {
			t.Error(diff)
		}
		if diff := deep.Equal(sizes, []int64{2, 1, 4}); diff != nil {
			t.Error(diff)
		}
	})
}

func TestWalkFollowsSymlinks(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		root := bagtest.New(t).File("real/file.txt", "content").Write(dir)

		link := filepath.Join(root, "data", "linked")
		if err := os.Symlink(filepath.Join(root, "data", "real"), link); err != nil {
			t.Skipf("cannot create symlinks: %s", err)
		}

		files, err := fs.Payload(root)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		var paths []string
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		if diff := deep.Equal(paths, []string{"linked/file.txt", "real/file.txt"}); diff != nil {
			t.Error(diff)
		}
	})
}

func TestWalkMissingDir(t *testing.T) {
	bagtest.TempDir(t, func(dir string) {
		if _, err := fs.Walk(filepath.Join(dir, "DOES_NOT_EXIST")); err == nil {
			t.Error("expected an error walking a missing directory")
		}
	})
}
