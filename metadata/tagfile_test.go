package metadata_test

import (
	"strings"
	"testing"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/metadata"
	"github.com/go-test/deep"
)

func TestParseTags(t *testing.T) {
	text := "\ufeffSource-Organization: Example Org\r\n" +
		"External-Description: A long\n" +
		"   description spanning\n" +
		"\tlines\n" +
		"\n" +
		"Keyword: one\n" +
		"Keyword:two\n" +
		"Empty:\n"

	tags, err := metadata.ParseTags(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}

	expected := bagval.Tags{
		"Source-Organization":  {"Example Org"},
		"External-Description": {"A long description spanning lines"},
		"Keyword":              {"one", "two"},
		"Empty":                {""},
	}

	if diff := deep.Equal(tags, expected); diff != nil {
		t.Fatal(diff)
	}
}

func TestParseTagsErrors(t *testing.T) {
	cases := map[string]string{
		"noColon":      "Just some text\n",
		"emptyLabel":   ": value\n",
		"continuation": "  leading continuation\n",
	}

	for name, text := range cases {
		text := text
		t.Run(name, func(t *testing.T) {
			if _, err := metadata.ParseTags(strings.NewReader(text)); err == nil {
				t.Errorf("expected an error parsing %q", text)
			}
		})
	}
}

func TestParseManifest(t *testing.T) {
	text := "ABCDEF  data/file one.txt\n" +
		"012345 data/./sub/two.txt\n" +
		"999999\tdata/percent%25name%0Aline.txt\n"

	manifest, err := metadata.ParseManifest(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}

	expected := bagval.Manifest{
		"data/file one.txt":           "abcdef",
		"data/sub/two.txt":            "012345",
		"data/percent%name\nline.txt": "999999",
	}

	if diff := deep.Equal(manifest, expected); diff != nil {
		t.Fatal(diff)
	}
}

func TestParseManifestErrors(t *testing.T) {
	cases := map[string]string{
		"noPath":    "abcdef\n",
		"escape":    "abcdef ../outside.txt\n",
		"absolute":  "abcdef /etc/passwd\n",
		"duplicate": "abcdef data/a.txt\n012345 data/a.txt\n",
		"leading":   " abcdef data/a.txt\n",
	}

	for name, text := range cases {
		text := text
		t.Run(name, func(t *testing.T) {
			if _, err := metadata.ParseManifest(strings.NewReader(text)); err == nil {
				t.Errorf("expected an error parsing %q", text)
			}
		})
	}
}

func TestParseOxum(t *testing.T) {
	cases := []struct {
		value    string
		expected *bagval.Oxum
		fails    bool
	}{
		{value: "1024.3", expected: &bagval.Oxum{Bytes: 1024, Files: 3}},
		{value: " 0.0 ", expected: &bagval.Oxum{}},
		{value: "1024", fails: true},
		{value: "a.3", fails: true},
		{value: "1.b", fails: true},
		{value: "-1.2", fails: true},
		{value: "1.2.3", fails: true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.value, func(t *testing.T) {
			oxum, err := metadata.ParseOxum(c.value)
			if c.fails {
				if err == nil {
					t.Errorf("expected %q to fail, got %s", c.value, oxum)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := deep.Equal(oxum, c.expected); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestManifestAlgorithm(t *testing.T) {
	cases := []struct {
		name string
		alg  bagval.Algorithm
		tag  bool
		ok   bool
	}{
		{name: "manifest-sha256.txt", alg: "sha256", ok: true},
		{name: "tagmanifest-md5.txt", alg: "md5", tag: true, ok: true},
		{name: "manifest-.txt"},
		{name: "bag-info.txt"},
		{name: "manifest-sha256.txt.bak"},
	}

	for _, c := range cases {
		alg, tag, ok := metadata.ManifestAlgorithm(c.name)
		if alg != c.alg || tag != c.tag || ok != c.ok {
			t.Errorf("%s: expected (%s, %t, %t), got (%s, %t, %t)", c.name, c.alg, c.tag, c.ok, alg, tag, ok)
		}
	}
}
