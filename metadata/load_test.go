package metadata_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/metadata"
	"github.com/h2non/gock"
)

func TestLoadProfileFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "profile")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "profile.json")
	if err := ioutil.WriteFile(file, []byte(fullProfile), 0644); err != nil {
		t.Fatal(err)
	}

	for _, location := range []string{file, "file://" + file} {
		p, err := metadata.LoadProfile(context.Background(), location)
		if err != nil {
			t.Fatalf("loading %s: %+v", location, err)
		}
		if p.Source != location {
			t.Errorf("expected source %s, got %s", location, p.Source)
		}
	}
}

func TestLoadProfileHTTP(t *testing.T) {
	defer gock.Off()

	gock.New("https://example.org").
		Get("/profile.json").
		Reply(200).
		BodyString(fullProfile)

	p, err := metadata.LoadProfile(context.Background(), "https://example.org/profile.json")
	if err != nil {
		t.Fatal(err)
	}

	if p.Identifier != "https://example.org/profile.json" {
		t.Errorf("wrong identifier %s", p.Identifier)
	}
	if !gock.IsDone() {
		t.Error("profile was not fetched")
	}
}

func TestLoadProfileErrors(t *testing.T) {
	defer gock.Off()

	gock.New("https://example.org").
		Get("/missing.json").
		Reply(404)

	gock.New("https://example.org").
		Get("/garbage.json").
		Reply(200).
		BodyString("this is not json")

	cases := map[string]string{
		"missingFile":    filepath.Join(os.TempDir(), "does", "not", "exist.json"),
		"notFound":       "https://example.org/missing.json",
		"garbageProfile": "https://example.org/garbage.json",
	}

	for name, location := range cases {
		location := location
		t.Run(name, func(t *testing.T) {
			_, err := metadata.LoadProfile(context.Background(), location)
			if !bagval.IsConfigError(err) {
				t.Errorf("expected a configuration error for %s, got %+v", location, err)
			}
		})
	}
}
