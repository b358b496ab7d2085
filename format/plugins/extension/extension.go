// Package extension checks that file names carry an extension plausible for
// their type.  It is a template for plugins rather than a real validator.
package extension

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/pattern"
)

// Tag attributes the plugin's diagnostics
const Tag = "File Extension Validator"

type mapping struct {
	mimeType   string
	extensions []string
}

// See the mime.types file shipped with Apache httpd
var known = []mapping{
	{"text/csv", []string{"csv"}},
	{"text/html", []string{"html", "htm"}},
	{"text/plain", []string{"txt", "text", "conf", "def", "list", "log", "in"}},
	{"image/bmp", []string{"bmp"}},
	{"image/gif", []string{"gif"}},
	{"image/tiff", []string{"tiff", "tif"}},
	{"image/png", []string{"png"}},
	{"image/jpeg", []string{"jpeg", "jpg", "jpe"}},
	{"video/webm", []string{"webm"}},
	{"video/x-matroska", []string{"mkv", "mk3d", "mks"}},
}

// Plugin is the extension plausibility plugin
type Plugin struct{}

// Tag implements format.Plugin
func (Plugin) Tag() string {
	return Tag
}

// Summary implements format.Plugin
func (Plugin) Summary() string {
	return "File format validation plugin-template"
}

// Description implements format.Plugin
func (Plugin) Description() string {
	return "This plugin demonstrates the definition of file format validation plugins by implementing " +
		"a file validation based on file extension. It is not intended to be used for production."
}

// DefaultSelector selects all types the plugin knows extensions for
func (Plugin) DefaultSelector() pattern.Selector {
	types := make([]string, 0, len(known))
	for _, m := range known {
		types = append(types, m.mimeType)
	}
	return pattern.NewSelector(types...)
}

// ValidateFileFormat accepts a file if its extension is registered for its
// type.  Files of unknown type are accepted as well.
func (Plugin) ValidateFileFormat(_ context.Context, path, mimeType string) (bool, *bagval.Report) {
	r := bagval.NewReport(Tag)

	if Plausible(path, mimeType) {
		return true, r
	}

	r.Log(bagval.Error, fmt.Sprintf("'%s' has unknown type or invalid extension.", path))
	return false, r
}

// Plausible tells whether a file name fits the given type
func Plausible(path, mimeType string) bool {
	ext := strings.Trim(strings.ToLower(filepath.Ext(path)), ".")
	for _, m := range known {
		if m.mimeType != mimeType {
			continue
		}
		for _, e := range m.extensions {
			if e == ext {
				return true
			}
		}
		return false
	}
	return true
}
