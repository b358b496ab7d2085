// Package fspath normalizes file paths into the solidus delimited form used
// by bag manifests and profile rules, independent of the host's path
// separator conventions.
package fspath

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Slash converts a host path into its solidus delimited form
func Slash(p string) string {
	return filepath.ToSlash(p)
}

// AsDir returns the solidus delimited form of p, ending with exactly one
// trailing solidus.  Used for directory rules, so that "dir/" can never
// prefix-match a sibling such as "dir_extra/".
func AsDir(p string) string {
	return TrimDir(p) + "/"
}

// TrimDir returns the solidus delimited form of p, without trailing solidi
func TrimDir(p string) string {
	return strings.TrimRight(Slash(p), "/")
}

// Clean returns the lexically cleaned, solidus delimited form of p
func Clean(p string) string {
	return path.Clean(Slash(p))
}

// Rel returns the solidus delimited path of target, relative to base.
func Rel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", errors.Wrapf(err, "could not relativize %s against %s", target, base)
	}
	return Slash(rel), nil
}

// Local tells whether a solidus delimited relative path stays within its
// base directory, i.e. is not absolute and does not escape via "..".
func Local(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
