// Package identify provides file type identifiers for the format engine
package identify

import (
	"context"
	"regexp"
	"strings"

	"github.com/birkland/bagval/format"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// FidoFormat is the per-match output format requested from fido
const FidoFormat = "%(info.mimetype)s\t%(info.matchtype)s\t%(info.signaturename)s\n"

var mimeShape = regexp.MustCompile(`^[a-z0-9!#$&^_.+-]+/[a-z0-9!#$&^_.+-]+$`)

// Magic identifies files by sniffing their content
type Magic struct{}

// Identify returns the detected MIME type, without parameters such as charset
func (Magic) Identify(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not detect type of %s", path)
	}
	return bare(m.String()), nil
}

// Fido identifies files by running the fido format identification tool
type Fido struct {
	App string        // fido executable, "fido" when empty
	Run format.Runner // format.Exec when nil
}

// Identify returns fido's best match, which is the first one it prints
func (f Fido) Identify(ctx context.Context, path string) (string, error) {
	app := f.App
	if app == "" {
		app = "fido"
	}
	run := f.Run
	if run == nil {
		run = format.Exec
	}

	out, err := run(ctx, app, "-matchprintf", FidoFormat, path)
	if err != nil {
		return "", errors.Wrapf(err, "fido could not analyze %s", path)
	}

	line := strings.SplitN(string(out), "\n", 2)[0]
	mimeType := bare(strings.SplitN(line, "\t", 2)[0])
	if !mimeShape.MatchString(mimeType) {
		return "", errors.Errorf("fido found no type for %s", path)
	}
	return mimeType, nil
}

func bare(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
