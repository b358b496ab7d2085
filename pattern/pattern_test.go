package pattern_test

import (
	"testing"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/pattern"
)

func TestLiteralDirectoryRules(t *testing.T) {
	for _, dir := range []string{"required_dir", "a/b/c", "with.dot"} {
		dir := dir
		t.Run(dir, func(t *testing.T) {
			rules := []pattern.Rule{pattern.DirLiteral(dir)}

			if !pattern.Matches(dir, rules, false) {
				t.Errorf("%s should match itself", dir)
			}
			if pattern.Matches(dir+"x", rules, false) {
				t.Errorf("%sx should not match %s", dir, dir)
			}
			if pattern.Matches(dir+"x", rules, true) {
				t.Errorf("%sx should not prefix-match %s when forced to regex", dir, dir)
			}
		})
	}
}

func TestForcedRegexPlacement(t *testing.T) {
	optional, err := pattern.DirRegex(`optional_directory/\d+`)
	if err != nil {
		t.Fatal(err)
	}
	allowed := []pattern.Rule{pattern.DirLiteral("required_directory"), optional}

	cases := []struct {
		path    string
		allowed bool
	}{
		{"required_directory/dummy.txt", true},
		{"required_directory/sub/deeper.txt", true},
		{"required_directory_test.dat", false},
		{"optional_directory/4/dummy.doc", true},
		{"optional_directory/42/x/y.doc", true},
		{"optional_directory/4a/dummy.doc", false},
		{"optional_directory/4atest.dat", false},
		{"optional_directory/test.dat", false},
		{"test.dat", false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.path, func(t *testing.T) {
			if got := pattern.Matches(c.path, allowed, true); got != c.allowed {
				t.Errorf("expected %t, got %t", c.allowed, got)
			}
		})
	}
}

func TestLiteralIsNotARegex(t *testing.T) {
	rules := []pattern.Rule{pattern.DirLiteral("a.b")}
	if pattern.Matches("axb/file", rules, true) {
		t.Errorf("literal dots should not act as wildcards")
	}
	if !pattern.Matches("a.b/file", rules, true) {
		t.Errorf("literal should prefix-match files underneath it")
	}
}

func TestRegexDirectoryRuleAgainstDirectory(t *testing.T) {
	optional, _ := pattern.DirRegex(`optional_directory/\d+`)
	rules := []pattern.Rule{optional}

	if !pattern.Matches("optional_directory/4/", rules, false) {
		t.Errorf("directory form should match a directory regex")
	}
	if pattern.Matches("optional_directory/4", rules, false) {
		t.Errorf("without trailing solidus the directory regex cannot match")
	}
}

func TestAllowAll(t *testing.T) {
	for _, p := range []string{"", "a", "a/b/c.txt"} {
		if !pattern.Matches(p, pattern.AllowAll(), true) {
			t.Errorf("catch-all should match %q", p)
		}
	}
}

func TestNoRules(t *testing.T) {
	if pattern.Matches("anything", nil, false) {
		t.Errorf("empty rule set should match nothing")
	}
}

func TestInvalidRegex(t *testing.T) {
	_, err := pattern.NewRegex("(unclosed")
	if !bagval.IsConfigError(err) {
		t.Errorf("expected a config error, got %v", err)
	}
}

func TestZeroValueRules(t *testing.T) {
	rules := []pattern.Rule{{Pattern: "x+/", Kind: pattern.Regex}, {Pattern: "lit", Kind: pattern.Literal}}
	if !pattern.Matches("xxx/file", rules, false) {
		t.Errorf("hand built regex rule should match")
	}
	if !pattern.Matches("lit/", rules, false) {
		t.Errorf("hand built literal rule should match")
	}
}
