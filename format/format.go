// Package format validates the file formats of a bag's payload.
//
// Validation is delegated to plugins.  The Engine identifies the MIME type of
// each file, and hands the file to every plugin whose selector matches that
// type.  A file is valid if all plugins it was handed to accept it.  Files
// whose type no plugin selects are reported with a warning, but do not make a
// bag invalid.  Files whose type cannot be identified do.
package format

import (
	"context"
	"os/exec"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/pattern"
	"github.com/pkg/errors"
)

// Plugin validates files of certain formats.  Each call to ValidateFileFormat
// yields a fresh report, diagnostics in it should be attributed to the
// plugin's Tag.
type Plugin interface {
	Tag() string
	Summary() string
	Description() string

	// DefaultSelector lists the MIME types the plugin is meant for
	DefaultSelector() pattern.Selector

	ValidateFileFormat(ctx context.Context, path, mimeType string) (bool, *bagval.Report)
}

// Identifier determines the MIME type of a file
type Identifier interface {
	Identify(ctx context.Context, path string) (string, error)
}

// Descriptor pairs a plugin with the MIME types it is to be invoked for
type Descriptor struct {
	Selector pattern.Selector
	Plugin   Plugin
}

// Use creates a descriptor selecting the plugin's default types
func Use(p Plugin) Descriptor {
	return Descriptor{Selector: p.DefaultSelector(), Plugin: p}
}

// Runner runs an external program and returns its standard output.  A
// non-zero exit status is an error.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Exec runs programs via os/exec, killing them when ctx is done
func Exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return out, errors.Wrapf(err, "error running %s", name)
	}
	return out, nil
}
